// Package frontmatter splits, parses and serialises the YAML header block at
// the top of a Markdown document.
package frontmatter

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

const delimiter = "---"

// ErrMissingClosingDelimiter indicates the document started with a front
// matter delimiter but did not contain a closing delimiter.
var ErrMissingClosingDelimiter = errors.New("front matter start delimiter found but closing delimiter is missing")

// Split separates front matter from the Markdown body.
//
// The opening `---` line may be preceded by blank lines or indentation. The
// block ends at the first line consisting solely of `---`. Content must use
// LF line endings (see NormalizeNewlines).
//
// If the document does not open with a delimiter, had is false and body is
// the full input.
func Split(content []byte) (frontmatter []byte, body []byte, had bool, err error) {
	trimmed := bytes.TrimLeft(content, " \t\r\n")
	open := []byte(delimiter + "\n")
	if !bytes.HasPrefix(trimmed, open) {
		return nil, content, false, nil
	}

	rest := trimmed[len(open):]
	if bytes.HasPrefix(rest, open) {
		return []byte{}, rest[len(open):], true, nil
	}

	closeSeq := []byte("\n" + delimiter + "\n")
	idx := bytes.Index(rest, closeSeq)
	if idx < 0 {
		if bytes.HasSuffix(rest, []byte("\n"+delimiter)) {
			idx = len(rest) - len(delimiter) - 1
			return rest[:idx+1], []byte{}, true, nil
		}
		return nil, content, false, ErrMissingClosingDelimiter
	}

	return rest[:idx+1], rest[idx+len(closeSeq):], true, nil
}

// ParseYAML parses raw front matter (without delimiters) into a map.
//
// Blocks whose lines share a common indentation are dedented first. A block
// that is valid YAML but not a mapping is an error. Timestamps keep their
// authored text and keys of nested mappings are stringified, so the result
// always encodes as JSON.
func ParseYAML(frontmatter []byte) (map[string]any, error) {
	src := dedent(string(frontmatter))
	if strings.TrimSpace(src) == "" {
		return map[string]any{}, nil
	}

	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(src), &doc); err != nil {
		return nil, err
	}
	var check map[string]any
	if err := doc.Decode(&check); err != nil {
		return nil, err
	}
	if check == nil {
		return map[string]any{}, nil
	}

	v, err := nodeValue(&doc)
	if err != nil {
		return nil, err
	}
	fields, ok := v.(map[string]any)
	if !ok {
		return map[string]any{}, nil
	}
	return fields, nil
}

func nodeValue(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return nodeValue(n.Content[0])
	case yaml.AliasNode:
		return nodeValue(n.Alias)
	case yaml.SequenceNode:
		out := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := nodeValue(c)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case yaml.MappingNode:
		return mappingValue(n)
	default:
		if n.ShortTag() == timestampTag {
			return n.Value, nil
		}
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, err
		}
		return v, nil
	}
}

const (
	timestampTag = "!!timestamp"
	mergeTag     = "!!merge"
)

// mappingValue decodes a mapping; explicit keys win over merged ("<<") ones.
func mappingValue(n *yaml.Node) (map[string]any, error) {
	out := make(map[string]any, len(n.Content)/2)
	var merged []map[string]any
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		val, err := nodeValue(v)
		if err != nil {
			return nil, err
		}
		if k.Kind == yaml.ScalarNode && k.ShortTag() == mergeTag {
			switch m := val.(type) {
			case map[string]any:
				merged = append(merged, m)
			case []any:
				for _, item := range m {
					if mm, ok := item.(map[string]any); ok {
						merged = append(merged, mm)
					}
				}
			}
			continue
		}
		key, err := nodeValue(k)
		if err != nil {
			return nil, err
		}
		out[keyString(key)] = val
	}
	for _, m := range merged {
		for k, v := range m {
			if _, ok := out[k]; !ok {
				out[k] = v
			}
		}
	}
	return out, nil
}

func keyString(key any) string {
	if s, err := cast.ToStringE(key); err == nil {
		return s
	}
	return fmt.Sprint(key)
}

// Join reassembles a document from serialised front matter and a body,
// separating them with a blank line.
func Join(frontmatter []byte, body []byte) []byte {
	var buf bytes.Buffer
	buf.Grow(len(frontmatter) + len(body) + 10)
	buf.WriteString(delimiter + "\n")
	buf.Write(frontmatter)
	if len(frontmatter) > 0 && frontmatter[len(frontmatter)-1] != '\n' {
		buf.WriteByte('\n')
	}
	buf.WriteString(delimiter + "\n\n")
	buf.Write(body)
	return buf.Bytes()
}

// NormalizeNewlines converts CRLF and lone CR line endings to LF.
func NormalizeNewlines(content []byte) []byte {
	if !bytes.ContainsRune(content, '\r') {
		return content
	}
	out := bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n"))
	return bytes.ReplaceAll(out, []byte("\r"), []byte("\n"))
}

func dedent(s string) string {
	lines := strings.Split(s, "\n")
	indent := -1
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		n := len(line) - len(strings.TrimLeft(line, " \t"))
		if indent < 0 || n < indent {
			indent = n
		}
	}
	if indent <= 0 {
		return s
	}
	for i, line := range lines {
		if len(line) >= indent {
			lines[i] = line[indent:]
		} else {
			lines[i] = strings.TrimLeft(line, " \t")
		}
	}
	return strings.Join(lines, "\n")
}
