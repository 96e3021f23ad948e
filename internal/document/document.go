// Package document implements the serialized form of a rendered document:
// a single leading HTML comment holding the metadata as JSON, a newline, then
// the HTML body.
package document

import (
	"bytes"
	"encoding/json"

	"git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
)

const (
	commentOpen  = "<!--"
	commentClose = "-->"
)

// Encode serializes meta and html. JSON string values are HTML-escaped, so
// a "-->" inside metadata cannot terminate the comment early.
func Encode(meta map[string]any, html string) ([]byte, error) {
	if meta == nil {
		meta = map[string]any{}
	}
	payload, err := json.Marshal(meta)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryBuild, "encode document metadata").Build()
	}

	var buf bytes.Buffer
	buf.Grow(len(payload) + len(html) + len(commentOpen) + len(commentClose) + 1)
	buf.WriteString(commentOpen)
	buf.Write(payload)
	buf.WriteString(commentClose)
	buf.WriteByte('\n')
	buf.WriteString(html)
	return buf.Bytes(), nil
}

// Decode strips exactly one leading metadata comment and returns the body and
// the decoded metadata. Newlines before and after the comment are dropped.
// Data without the comment is returned unchanged with empty metadata.
func Decode(data []byte) (string, map[string]any, error) {
	trimmed := bytes.TrimLeft(data, "\n")
	if !bytes.HasPrefix(trimmed, []byte(commentOpen)) {
		return string(data), map[string]any{}, nil
	}
	data = trimmed
	end := bytes.Index(data, []byte(commentClose))
	if end < 0 {
		return "", nil, errors.ValidationError("unterminated metadata comment").Build()
	}

	meta := map[string]any{}
	if err := json.Unmarshal(bytes.TrimSpace(data[len(commentOpen):end]), &meta); err != nil {
		return "", nil, errors.WrapError(err, errors.CategoryValidation, "decode document metadata").Build()
	}

	rest := data[end+len(commentClose):]
	rest = bytes.TrimLeft(rest, "\n")
	return string(rest), meta, nil
}
