// Package resolver turns class and namespace names into navigable links.
//
// A Resolver answers navigation queries over a symbol table (subclasses,
// inherited members, namespace lookups) and rewrites documentation text so
// that inline references such as {Foo.Bar#baz} become relative hyperlinks.
// Nothing it does can fail: unknown targets degrade to plain text and are
// logged as warnings.
package resolver

import (
	"log/slog"
	"strings"
	"sync"

	"git.home.luguber.info/inful/classdoc/internal/logfields"
	"git.home.luguber.info/inful/classdoc/internal/metrics"
	"git.home.luguber.info/inful/classdoc/internal/model"
	"git.home.luguber.info/inful/classdoc/internal/symtab"
)

// DefaultIndexPage is the page namespace anchors fall back to.
const DefaultIndexPage = "class_index.html"

// NamespaceAnchorPrefix prefixes the fragment identifier of a namespace anchor.
const NamespaceAnchorPrefix = "ns-"

// Options configures a Resolver.
type Options struct {
	Logger    *slog.Logger
	Recorder  metrics.Recorder
	IndexPage string
}

// Resolver resolves references against a symbol table. It is safe for
// concurrent use.
type Resolver struct {
	table     *symtab.Table
	logger    *slog.Logger
	recorder  metrics.Recorder
	indexPage string

	mu            sync.Mutex
	methodCache   map[string][]InheritedMethod
	constantCache map[string][]InheritedConstant
}

// New creates a Resolver over table.
func New(table *symtab.Table, opts Options) *Resolver {
	r := &Resolver{
		table:         table,
		logger:        opts.Logger,
		recorder:      opts.Recorder,
		indexPage:     opts.IndexPage,
		methodCache:   make(map[string][]InheritedMethod),
		constantCache: make(map[string][]InheritedConstant),
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	if r.recorder == nil {
		r.recorder = metrics.NoopRecorder{}
	}
	if r.indexPage == "" {
		r.indexPage = DefaultIndexPage
	}
	return r
}

// Table returns the symbol table the resolver reads from.
func (r *Resolver) Table() *symtab.Table {
	return r.table
}

// RelativePrefix is the path from c's page back to the output root: one "../"
// for the classes/ folder plus one per namespace segment.
func RelativePrefix(c *model.ClassNode) string {
	return strings.Repeat("../", len(c.NamespacePath)+1)
}

// ClassHref is the link to a class page from a page at relativePrefix.
func ClassHref(qualifiedName, relativePrefix string) string {
	return relativePrefix + model.PathToFile(qualifiedName)
}

// NamespaceAnchor is the fragment identifier of a namespace anchor.
func NamespaceAnchor(namespace string) string {
	return NamespaceAnchorPrefix + namespace
}

// GetLink returns the relative URL of targetPath as seen from a page at
// relativePrefix. A known class links to its page. A namespace without a class
// links to an anchor on the nearest enclosing class page, or on the class
// index when no enclosing class exists. Anything else is returned unchanged as
// plain text and logged.
func (r *Resolver) GetLink(targetPath, relativePrefix string) string {
	if href, ok := r.pathLink(strings.Trim(targetPath, "."), relativePrefix); ok {
		return href
	}
	r.logger.Warn("Unresolved link target", logfields.Reference(targetPath))
	r.recorder.IncUnresolved(metrics.UnresolvedLink)
	return targetPath
}

// pathLink links a fully qualified path to a class page or namespace anchor.
func (r *Resolver) pathLink(path, relativePrefix string) (string, bool) {
	if path == "" {
		return "", false
	}
	if _, ok := r.table.Lookup(path); ok {
		return ClassHref(path, relativePrefix), true
	}
	if !r.table.IsNamespace(path) {
		return "", false
	}
	segments := model.SplitPath(path)
	for i := len(segments) - 1; i > 0; i-- {
		enclosing := strings.Join(segments[:i], ".")
		if _, ok := r.table.Lookup(enclosing); ok {
			return ClassHref(enclosing, relativePrefix) + "#" + NamespaceAnchor(path), true
		}
	}
	return relativePrefix + r.indexPage + "#" + NamespaceAnchor(path), true
}

// GetDirectSubClasses returns the immediate subclasses of clazz in discovery order.
func (r *Resolver) GetDirectSubClasses(clazz *model.ClassNode) []*model.ClassNode {
	return r.table.DirectChildren(clazz.QualifiedName)
}

// NestedNamespaces returns the namespaces declared directly inside clazz that
// have no class of their own. Their anchors live on clazz's page.
func (r *Resolver) NestedNamespaces(clazz *model.ClassNode) []string {
	var out []string
	for _, ns := range r.table.ChildNamespaces(clazz.QualifiedName) {
		if _, isClass := r.table.Lookup(ns); !isClass {
			out = append(out, ns)
		}
	}
	return out
}

// scopedLookup resolves a possibly unqualified dotted path the way a lexically
// scoped language resolves names: relative to the context class itself, then
// each enclosing namespace from the innermost outward, then globally. The
// first candidate that names a class or a namespace wins.
func (r *Resolver) scopedLookup(path string, ctx *model.ClassNode) (string, bool) {
	for _, candidate := range scopeCandidates(path, ctx) {
		if _, ok := r.table.Lookup(candidate); ok {
			return candidate, true
		}
		if r.table.IsNamespace(candidate) {
			return candidate, true
		}
	}
	return "", false
}

// scopedClass is scopedLookup restricted to class nodes.
func (r *Resolver) scopedClass(path string, ctx *model.ClassNode) (*model.ClassNode, bool) {
	for _, candidate := range scopeCandidates(path, ctx) {
		if c, ok := r.table.Lookup(candidate); ok {
			return c, true
		}
	}
	return nil, false
}

func scopeCandidates(path string, ctx *model.ClassNode) []string {
	if ctx == nil {
		return []string{path}
	}
	candidates := make([]string, 0, len(ctx.NamespacePath)+2)
	candidates = append(candidates, ctx.QualifiedName+"."+path)
	for i := len(ctx.NamespacePath); i > 0; i-- {
		candidates = append(candidates, strings.Join(ctx.NamespacePath[:i], ".")+"."+path)
	}
	return append(candidates, path)
}
