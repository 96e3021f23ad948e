package modules

import (
	"path/filepath"
	"strings"
)

const virtualMarker = "\x00"

// ModuleID identifies a resolved module. Plain IDs are absolute file paths;
// virtual IDs are produced by Virtual.
type ModuleID string

// Virtual returns the ID of a generated module for path under scheme.
func Virtual(scheme, path string) ModuleID {
	return ModuleID(virtualMarker + scheme + ":" + path)
}

// File returns the ID of an on-disk module.
func File(path string) ModuleID {
	return ModuleID(path)
}

// IsVirtual reports whether id names a generated module.
func (id ModuleID) IsVirtual() bool {
	return strings.HasPrefix(string(id), virtualMarker)
}

// Scheme returns the scheme of a virtual ID, or "".
func (id ModuleID) Scheme() string {
	if !id.IsVirtual() {
		return ""
	}
	scheme, _, ok := strings.Cut(string(id)[len(virtualMarker):], ":")
	if !ok {
		return ""
	}
	return scheme
}

// HasScheme reports whether id is virtual and tagged with scheme.
func (id ModuleID) HasScheme(scheme string) bool {
	return id.IsVirtual() && id.Scheme() == scheme
}

// Path returns the file system path an ID refers to, with any virtual
// prefix removed.
func (id ModuleID) Path() string {
	if !id.IsVirtual() {
		return string(id)
	}
	_, path, ok := strings.Cut(string(id)[len(virtualMarker):], ":")
	if !ok {
		return string(id)[len(virtualMarker):]
	}
	return path
}

// String renders the ID for logs and diagnostics.
func (id ModuleID) String() string {
	if id.IsVirtual() {
		return id.Scheme() + ":" + id.Path()
	}
	return string(id)
}

// IsVirtualSpecifier reports whether spec is already a virtual ID. Handlers
// must not claim such specifiers.
func IsVirtualSpecifier(spec string) bool {
	return strings.HasPrefix(spec, virtualMarker)
}

// ImporterDir returns the directory relative specifiers imported by importer
// are resolved against. Without an importer, or with a relative one, root
// is used as the base.
func ImporterDir(importer ModuleID, root string) string {
	if importer == "" {
		return root
	}
	dir := filepath.Dir(importer.Path())
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(root, dir)
	}
	return dir
}

// ResolvePath joins spec onto the directory of importer unless spec is
// already absolute.
func ResolvePath(spec string, importer ModuleID, root string) string {
	spec = filepath.FromSlash(spec)
	if filepath.IsAbs(spec) {
		return filepath.Clean(spec)
	}
	return filepath.Join(ImporterDir(importer, root), spec)
}
