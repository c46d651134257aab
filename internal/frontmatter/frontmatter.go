// Package frontmatter strips YAML frontmatter from extra documentation files
// and exposes the fields the page generator uses (title).
package frontmatter

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrMissingClosingDelimiter indicates the document started with a YAML
// frontmatter delimiter but did not contain a closing delimiter.
var ErrMissingClosingDelimiter = errors.New("yaml frontmatter start delimiter found but closing delimiter is missing")

// Document is a file split into frontmatter fields and body.
type Document struct {
	Fields map[string]any
	Body   []byte
}

// Parse splits content into frontmatter fields and body. Content without a
// leading "---" line is returned as body with empty fields.
func Parse(content []byte) (*Document, error) {
	nl := "\n"
	if bytes.HasPrefix(content, []byte("---\r\n")) {
		nl = "\r\n"
	}
	open := []byte("---" + nl)
	if !bytes.HasPrefix(content, open) {
		return &Document{Fields: map[string]any{}, Body: content}, nil
	}

	rest := content[len(open):]
	var raw, body []byte
	if bytes.HasPrefix(rest, open) {
		body = rest[len(open):]
	} else {
		closeSeq := []byte(nl + "---" + nl)
		idx := bytes.Index(rest, closeSeq)
		if idx < 0 {
			if !bytes.HasSuffix(rest, []byte(nl+"---")) {
				return nil, ErrMissingClosingDelimiter
			}
			idx = len(rest) - len(nl+"---")
			raw, body = rest[:idx], nil
		} else {
			raw, body = rest[:idx], rest[idx+len(closeSeq):]
		}
	}

	fields := map[string]any{}
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := yaml.Unmarshal(raw, &fields); err != nil {
			return nil, fmt.Errorf("parse frontmatter: %w", err)
		}
		if fields == nil {
			fields = map[string]any{}
		}
	}
	return &Document{Fields: fields, Body: body}, nil
}

// Title returns the "title" field, or fallback when it is absent or not a string.
func (d *Document) Title(fallback string) string {
	if v, ok := d.Fields["title"].(string); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}
