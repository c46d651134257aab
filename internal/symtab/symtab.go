// Package symtab is the registry of every documented class, built once per run.
//
// The table indexes classes by qualified name, resolves each declared parent
// to a node, and keeps a parent -> direct children index plus the set of
// namespaces implied by class paths. After Build returns the table is never
// mutated, so it is safe for concurrent readers.
package symtab

import (
	stderrors "errors"
	"log/slog"
	"strings"

	"git.home.luguber.info/inful/classdoc/internal/foundation/errors"
	"git.home.luguber.info/inful/classdoc/internal/logfields"
	"git.home.luguber.info/inful/classdoc/internal/model"
)

// ErrDuplicateSymbol is the cause of the error Build returns when two classes
// share a qualified name.
var ErrDuplicateSymbol = stderrors.New("duplicate symbol")

// Table maps qualified names to class nodes.
type Table struct {
	classes         map[string]*model.ClassNode
	order           []*model.ClassNode
	parents         map[string]*model.ClassNode
	children        map[string][]*model.ClassNode
	namespaces      map[string]struct{}
	childNamespaces map[string][]string
	logger          *slog.Logger
}

// Option configures Build.
type Option func(*Table)

// WithLogger sets the logger used for unresolved-parent warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Table) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// Build indexes classes. Input order is preserved for sibling and namespace
// listings. A duplicate qualified name is the only input that fails the build;
// a parent that cannot be found makes its class a root.
func Build(classes []*model.ClassNode, opts ...Option) (*Table, error) {
	t := &Table{
		classes:         make(map[string]*model.ClassNode, len(classes)),
		order:           make([]*model.ClassNode, 0, len(classes)),
		parents:         make(map[string]*model.ClassNode),
		children:        make(map[string][]*model.ClassNode),
		namespaces:      make(map[string]struct{}),
		childNamespaces: make(map[string][]string),
		logger:          slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}

	for _, c := range classes {
		if c == nil {
			continue
		}
		if _, exists := t.classes[c.QualifiedName]; exists {
			return nil, errors.SymbolError("duplicate qualified name").
				WithCause(ErrDuplicateSymbol).
				WithContext("qualified_name", c.QualifiedName).
				WithContext("file", c.File).
				Build()
		}
		t.classes[c.QualifiedName] = c
		t.order = append(t.order, c)
		t.registerNamespaces(c.NamespacePath)
	}

	for _, c := range t.order {
		if !c.HasParent() {
			continue
		}
		parent, ok := t.resolveParent(c)
		if !ok {
			t.logger.Warn("Unresolved superclass, treating class as root",
				logfields.Class(c.QualifiedName),
				logfields.Parent(c.ParentQualifiedName))
			continue
		}
		t.parents[c.QualifiedName] = parent
		t.children[parent.QualifiedName] = append(t.children[parent.QualifiedName], c)
	}

	return t, nil
}

func (t *Table) registerNamespaces(path []string) {
	for i := range path {
		ns := strings.Join(path[:i+1], ".")
		if _, seen := t.namespaces[ns]; seen {
			continue
		}
		t.namespaces[ns] = struct{}{}
		enclosing := strings.Join(path[:i], ".")
		t.childNamespaces[enclosing] = append(t.childNamespaces[enclosing], ns)
	}
}

// resolveParent looks the declared parent up by its qualified name first and
// then relative to each enclosing namespace of c, innermost first. A class
// never resolves to itself.
func (t *Table) resolveParent(c *model.ClassNode) (*model.ClassNode, bool) {
	if p, ok := t.classes[c.ParentQualifiedName]; ok && p != c {
		return p, true
	}
	for i := len(c.NamespacePath); i > 0; i-- {
		candidate := strings.Join(c.NamespacePath[:i], ".") + "." + c.ParentQualifiedName
		if p, ok := t.classes[candidate]; ok && p != c {
			return p, true
		}
	}
	return nil, false
}

// Lookup returns the class registered under qualifiedName.
func (t *Table) Lookup(qualifiedName string) (*model.ClassNode, bool) {
	c, ok := t.classes[qualifiedName]
	return c, ok
}

// Parent returns the resolved superclass of c, if any.
func (t *Table) Parent(c *model.ClassNode) (*model.ClassNode, bool) {
	if c == nil {
		return nil, false
	}
	p, ok := t.parents[c.QualifiedName]
	return p, ok
}

// DirectChildren returns the immediate subclasses of qualifiedName in
// discovery order. The result is never nil.
func (t *Table) DirectChildren(qualifiedName string) []*model.ClassNode {
	kids := t.children[qualifiedName]
	out := make([]*model.ClassNode, len(kids))
	copy(out, kids)
	return out
}

// IsNamespace reports whether some class lives at or below ns.
func (t *Table) IsNamespace(ns string) bool {
	_, ok := t.namespaces[ns]
	return ok
}

// ChildNamespaces returns the namespaces directly inside ns ("" is the global
// namespace) in discovery order.
func (t *Table) ChildNamespaces(ns string) []string {
	kids := t.childNamespaces[ns]
	out := make([]string, len(kids))
	copy(out, kids)
	return out
}

// Namespaces returns every known namespace in discovery order, outer before inner.
func (t *Table) Namespaces() []string {
	var out []string
	var walk func(string)
	walk = func(ns string) {
		for _, child := range t.childNamespaces[ns] {
			out = append(out, child)
			walk(child)
		}
	}
	walk("")
	return out
}

// Classes returns all classes in input order.
func (t *Table) Classes() []*model.ClassNode {
	out := make([]*model.ClassNode, len(t.order))
	copy(out, t.order)
	return out
}

// Len is the number of registered classes.
func (t *Table) Len() int {
	return len(t.order)
}
