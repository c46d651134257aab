package model

import (
	"bytes"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/classdoc/internal/foundation/errors"
	"git.home.luguber.info/inful/classdoc/internal/logfields"
)

// Model is the class list emitted by the upstream parser.
type Model struct {
	Classes []*ClassNode `yaml:"classes" json:"classes"`
}

// Load reads a class model file. JSON input is accepted as YAML.
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryModel, "failed to read class model").
			Fatal().
			WithContext("path", path).
			Build()
	}
	m, err := Parse(data)
	if err != nil {
		if classified, ok := errors.AsClassified(err); ok {
			classified.Context().Set("path", path)
		}
		return nil, err
	}
	return m, nil
}

// Parse decodes a class model and normalizes every node.
func Parse(data []byte) (*Model, error) {
	var m Model
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(false)
	if err := dec.Decode(&m); err != nil {
		return nil, errors.WrapError(err, errors.CategoryModel, "failed to decode class model").Fatal().Build()
	}
	m.Normalize()
	return &m, nil
}

// Normalize fills derived fields: the simple name and namespace path come from
// the qualified name, members get their owner key, and unknown method types
// fall back to instance.
func (m *Model) Normalize() {
	kept := m.Classes[:0]
	for _, c := range m.Classes {
		if c == nil {
			continue
		}
		c.QualifiedName = strings.Trim(strings.TrimSpace(c.QualifiedName), ".")
		if c.QualifiedName == "" && c.Name != "" {
			c.QualifiedName = strings.Join(append(append([]string{}, c.NamespacePath...), c.Name), ".")
		}
		if c.QualifiedName == "" {
			slog.Warn("Skipping class without a name", logfields.File(c.File))
			continue
		}
		segments := SplitPath(c.QualifiedName)
		c.QualifiedName = strings.Join(segments, ".")
		c.Name = segments[len(segments)-1]
		c.NamespacePath = segments[:len(segments)-1]
		c.ParentQualifiedName = strings.Join(SplitPath(strings.TrimSpace(c.ParentQualifiedName)), ".")

		c.Methods = dropNil(c.Methods)
		c.Variables = dropNil(c.Variables)
		for _, meth := range c.Methods {
			meth.Class = c.QualifiedName
			if meth.Type == "" {
				meth.Type = MethodTypeInstance
			}
			if !meth.Type.Valid() {
				slog.Warn("Unknown method type, treating as instance",
					logfields.Class(c.QualifiedName),
					logfields.Member(meth.Name),
					slog.String("type", string(meth.Type)))
				meth.Type = MethodTypeInstance
			}
		}
		for _, v := range c.Variables {
			v.Class = c.QualifiedName
		}
		kept = append(kept, c)
	}
	m.Classes = kept
}

// dropNil removes null entries such as "- ~" from a member list in place.
func dropNil[T any](items []*T) []*T {
	kept := items[:0]
	for _, item := range items {
		if item != nil {
			kept = append(kept, item)
		}
	}
	return kept
}

// AllMethods returns every method of every class in model order.
func (m *Model) AllMethods() []*MethodNode {
	var out []*MethodNode
	for _, c := range m.Classes {
		out = append(out, c.Methods...)
	}
	return out
}

// SplitPath splits a dotted path into non-empty segments.
func SplitPath(path string) []string {
	parts := strings.Split(path, ".")
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// PathToFile converts a dotted qualified name into its page path under classes/.
func PathToFile(qualifiedName string) string {
	return "classes/" + strings.Join(SplitPath(qualifiedName), "/") + ".html"
}
