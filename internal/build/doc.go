// Package build turns configured entry specifiers into build output.
//
// A build resolves each entry through the module handler chain, loads the
// reachable module graph, writes emitted assets and generated modules into
// the output directory, renders the Atom feed and finally records a build
// manifest. All execution paths (one-shot CLI builds and watch rebuilds)
// route through BuildService.
package build
