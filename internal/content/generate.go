package content

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"git.home.luguber.info/inful/blogbuilder/internal/extract"
	"git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/blogbuilder/internal/mdmodule"
)

// leadingKeys fixes the position of well-known fields in generated objects;
// remaining keys follow in lexical order.
var leadingKeys = []string{
	extract.KeyTitle,
	extract.KeyDescription,
	extract.KeyImage,
	extract.KeyPublished,
	extract.KeyUpdated,
	extract.KeyStatus,
	extract.KeyFeatured,
}

var identifier = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// ItemSpecifier returns the markdown specifier an item's url is imported
// from, relative to the parent of the content directory.
func ItemSpecifier(m *Manifest, it Item) (string, error) {
	rel, err := filepath.Rel(filepath.Dir(m.Dir), it.Path)
	if err != nil {
		return "", errors.WrapError(err, errors.CategoryInternal, "relativize content item").
			WithContext("path", it.Path).
			Build()
	}
	return mdmodule.Scheme + ":./" + filepath.ToSlash(rel), nil
}

// GenerateModule renders the manifest as a JavaScript module: one import per
// item binding its markdown URL, then a default-exported array of item
// objects. It returns the code and the imported specifiers in order.
func GenerateModule(m *Manifest) (string, []string, error) {
	imports := make([]string, 0, len(m.Items))
	var head, body strings.Builder

	body.WriteString("export default [")
	for i, it := range m.Items {
		spec, err := ItemSpecifier(m, it)
		if err != nil {
			return "", nil, err
		}
		quoted, err := json.Marshal(spec)
		if err != nil {
			return "", nil, err
		}
		fmt.Fprintf(&head, "import url%d from %s;\n", i, quoted)
		imports = append(imports, spec)

		if i > 0 {
			body.WriteString(",\n")
		}
		if err := writeItem(&body, it, i); err != nil {
			return "", nil, err
		}
	}
	body.WriteString("];\n")

	return head.String() + body.String(), imports, nil
}

func writeItem(b *strings.Builder, it Item, index int) error {
	b.WriteString("{ ")
	if err := writeField(b, "name", it.Name); err != nil {
		return err
	}
	for _, k := range orderedKeys(it.Meta) {
		v := it.Meta[k]
		if v == nil || k == "name" || k == "url" {
			continue
		}
		if err := writeField(b, k, v); err != nil {
			return errors.WrapError(err, errors.CategoryContent, "serialize content metadata").
				WithContext("path", it.Path).
				WithContext("name", k).
				Build()
		}
	}
	fmt.Fprintf(b, "url: url%d }", index)
	return nil
}

func writeField(b *strings.Builder, key string, value any) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if identifier.MatchString(key) {
		b.WriteString(key)
	} else {
		quoted, _ := json.Marshal(key)
		b.Write(quoted)
	}
	b.WriteString(": ")
	b.Write(encoded)
	b.WriteString(", ")
	return nil
}

func orderedKeys(meta extract.Meta) []string {
	keys := make([]string, 0, len(meta))
	for _, k := range leadingKeys {
		if _, ok := meta[k]; ok {
			keys = append(keys, k)
		}
	}
	var rest []string
	for k := range meta {
		if !slices.Contains(leadingKeys, k) {
			rest = append(rest, k)
		}
	}
	slices.Sort(rest)
	return append(keys, rest...)
}
