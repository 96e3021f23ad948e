package modules

import (
	"context"
	"fmt"
)

// Resolver resolves specifiers on behalf of a handler. skip names a handler
// to leave out, so a handler can ask "how would everyone else resolve this".
type Resolver interface {
	Resolve(ctx context.Context, spec string, importer ModuleID, skip string) (Resolution, error)
}

// LoadContext receives the side effects of loading a module.
type LoadContext interface {
	// EmitAsset registers a build output file and returns a reference that
	// generated code can embed with FileURL.
	EmitAsset(name, fileName string, source []byte) (string, error)
	// AddWatchFile marks path as an input of the current build.
	AddWatchFile(path string)
}

// Handler claims and loads one family of specifiers.
type Handler interface {
	Name() string
	// TryResolve returns Unhandled for specifiers the handler does not own.
	// An error means the handler owns the specifier but resolution failed.
	TryResolve(ctx context.Context, spec string, importer ModuleID, r Resolver) (Resolution, error)
	// Load returns nil for IDs the handler does not own.
	Load(ctx context.Context, id ModuleID, lc LoadContext) (*Module, error)
}

// Module is loaded module source.
type Module struct {
	ID   ModuleID
	Code string
	// Imports lists the specifiers Code imports, in source order.
	Imports []string
	// Data carries the structured value behind generated code, for callers
	// that want it without evaluating JavaScript.
	Data any
}

const fileURLPrefix = "import.meta.FILE_URL_"

// FileURL returns the expression generated code uses to refer to an emitted
// asset. The bundler replaces it with the asset's public URL.
func FileURL(ref string) string {
	return fmt.Sprintf("%s%s", fileURLPrefix, ref)
}
