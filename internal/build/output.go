package build

import (
	"encoding/json"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/blogbuilder/internal/manifest"
	"git.home.luguber.info/inful/blogbuilder/internal/modules"
)

// ModulesDir holds generated modules below the output directory.
const ModulesDir = "_modules"

var fileURLPattern = regexp.MustCompile(`import\.meta\.FILE_URL_([0-9a-z]+)`)

// Output lays a Bundle out on disk.
type Output struct {
	// Dir is the output directory.
	Dir string
	// Root is the project root module paths are made relative to.
	Root string
	// PublicPath prefixes asset URLs. Defaults to "/".
	PublicPath string
}

// Written describes the files an Output wrote.
type Written struct {
	Assets  []manifest.AssetOutput
	Modules []manifest.ModuleOutput
	Bytes   int
}

// AssetURL is the public URL of an emitted asset.
func (o Output) AssetURL(a *modules.Asset) string {
	public := o.PublicPath
	if public == "" {
		public = "/"
	}
	if !strings.HasSuffix(public, "/") {
		public += "/"
	}
	return public + a.FileName
}

// ModuleFile returns the slash-separated path of a module below Dir.
// Generated modules get a .js suffix; on-disk modules keep their name.
func (o Output) ModuleFile(id modules.ModuleID) (string, error) {
	rel, err := filepath.Rel(o.Root, id.Path())
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errors.BuildError("module is outside the project root").
			WithContext("module_id", id.String()).
			WithContext("root", o.Root).
			Build()
	}
	rel = filepath.ToSlash(rel)
	if id.IsVirtual() {
		return path.Join(ModulesDir, id.Scheme(), rel) + ".js", nil
	}
	return path.Join(ModulesDir, rel), nil
}

// Finalize replaces asset references in code with their URLs as string
// literals.
func (o Output) Finalize(code string, b *Bundle) (string, error) {
	var missing string
	out := fileURLPattern.ReplaceAllStringFunc(code, func(match string) string {
		ref := fileURLPattern.FindStringSubmatch(match)[1]
		a, ok := b.collector.Asset(ref)
		if !ok {
			missing = ref
			return match
		}
		quoted, _ := json.Marshal(o.AssetURL(a))
		return string(quoted)
	})
	if missing != "" {
		return "", errors.BuildError("unknown asset reference").
			WithContext("ref", missing).
			Build()
	}
	return out, nil
}

// Rewrite points the module's resolved imports at the written module files.
func (o Output) Rewrite(code string, mod *modules.Module, b *Bundle) (string, error) {
	from, err := o.ModuleFile(mod.ID)
	if err != nil {
		return "", err
	}
	links := make(map[string]string, len(mod.Imports))
	for _, spec := range mod.Imports {
		target, ok := b.Link(mod.ID, spec)
		if !ok {
			continue
		}
		to, err := o.ModuleFile(target)
		if err != nil {
			return "", err
		}
		links[spec] = relativeImport(from, to)
	}
	return modules.RewriteImports(code, func(spec string) (string, bool) {
		rel, ok := links[spec]
		return rel, ok
	}), nil
}

// Write writes every asset and module of b below Dir.
func (o Output) Write(b *Bundle) (*Written, error) {
	written := &Written{}

	for _, a := range b.Assets {
		if err := o.writeFile(a.FileName, a.Source); err != nil {
			return nil, err
		}
		written.Assets = append(written.Assets, manifest.AssetOutput{
			FileName: a.FileName,
			URL:      o.AssetURL(a),
			Bytes:    len(a.Source),
			SHA256:   manifest.SHA256(a.Source),
		})
		written.Bytes += len(a.Source)
	}

	for _, mod := range b.Modules {
		code, err := o.Finalize(mod.Code, b)
		if err != nil {
			return nil, err
		}
		code, err = o.Rewrite(code, mod, b)
		if err != nil {
			return nil, err
		}
		file, err := o.ModuleFile(mod.ID)
		if err != nil {
			return nil, err
		}
		if err := o.writeFile(file, []byte(code)); err != nil {
			return nil, err
		}
		written.Modules = append(written.Modules, manifest.ModuleOutput{
			ID:       mod.ID.String(),
			FileName: file,
		})
	}
	return written, nil
}

func (o Output) writeFile(name string, data []byte) error {
	target := filepath.Join(o.Dir, filepath.FromSlash(name))
	rel, err := filepath.Rel(o.Dir, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return errors.BuildError("output file escapes the output directory").
			WithContext("file", name).
			Build()
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "create output directory").
			WithContext("path", filepath.Dir(target)).
			Build()
	}
	if err := os.WriteFile(target, data, 0o600); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "write output file").
			WithContext("path", target).
			Build()
	}
	return nil
}

func relativeImport(from, to string) string {
	rel, err := filepath.Rel(filepath.FromSlash(path.Dir(from)), filepath.FromSlash(to))
	if err != nil {
		return "/" + to
	}
	rel = filepath.ToSlash(rel)
	if !strings.HasPrefix(rel, "../") {
		rel = "./" + rel
	}
	return rel
}
