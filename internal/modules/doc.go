// Package modules implements build-time module resolution.
//
// A specifier (the string in an import statement) is offered to an ordered
// Chain of Handlers. The first handler that claims it returns a ModuleID;
// handlers that do not recognise a specifier return Unhandled so the next
// one can try. Loading a ModuleID yields generated module source, the
// specifiers it imports and any build assets it emitted.
//
// IDs of generated modules are virtual: they carry a NUL prefix and a scheme
// ("\x00content:/abs/dir") so they can never collide with a real file path.
package modules
