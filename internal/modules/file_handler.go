package modules

import (
	"context"
	"os"
	"regexp"
	"strings"

	"git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
)

var (
	schemePrefix  = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*:`)
	importPattern = regexp.MustCompile(`(?m)^\s*(?:import|export)\s+(?:[^'"]*?\s+from\s+)?(['"])([^'"\n]+)(['"])`)
)

// FileHandler resolves relative and absolute specifiers to existing regular
// files and loads them verbatim. It belongs at the end of a chain.
type FileHandler struct {
	root string
}

// NewFileHandler creates a FileHandler resolving importer-less specifiers
// against root.
func NewFileHandler(root string) *FileHandler {
	return &FileHandler{root: root}
}

func (h *FileHandler) Name() string { return "file" }

func (h *FileHandler) TryResolve(_ context.Context, spec string, importer ModuleID, _ Resolver) (Resolution, error) {
	if spec == "" || IsVirtualSpecifier(spec) || schemePrefix.MatchString(spec) {
		return Unhandled(), nil
	}
	if !isPathSpecifier(spec) {
		return Unhandled(), nil
	}
	path := ResolvePath(spec, importer, h.root)
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return Unhandled(), nil
	}
	return Resolved(File(path)), nil
}

func (h *FileHandler) Load(_ context.Context, id ModuleID, lc LoadContext) (*Module, error) {
	if id.IsVirtual() {
		return nil, nil
	}
	path := id.Path()
	// #nosec G304 -- path comes from resolution under the project root.
	code, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "read module").
			Fatal().
			WithContext("path", path).
			Build()
	}
	lc.AddWatchFile(path)
	return &Module{ID: id, Code: string(code), Imports: ScanImports(string(code))}, nil
}

// ScanImports returns the static import and re-export specifiers of a
// JavaScript module in source order.
func ScanImports(code string) []string {
	var out []string
	for _, m := range importPattern.FindAllStringSubmatch(code, -1) {
		if m[1] != m[3] {
			continue
		}
		out = append(out, m[2])
	}
	return out
}

// RewriteImports replaces the specifier of every statement ScanImports
// matches with replace(spec). Statements for which replace reports false, and
// all text outside import statements, are left untouched.
func RewriteImports(code string, replace func(spec string) (string, bool)) string {
	matches := importPattern.FindAllStringSubmatchIndex(code, -1)
	if len(matches) == 0 {
		return code
	}
	var b strings.Builder
	last := 0
	for _, m := range matches {
		if code[m[2]:m[3]] != code[m[6]:m[7]] {
			continue
		}
		next, ok := replace(code[m[4]:m[5]])
		if !ok {
			continue
		}
		b.WriteString(code[last:m[4]])
		b.WriteString(next)
		last = m[5]
	}
	b.WriteString(code[last:])
	return b.String()
}

func isPathSpecifier(spec string) bool {
	return spec[0] == '/' || spec[0] == '.'
}
