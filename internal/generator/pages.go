package generator

import (
	"context"
	"html/template"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"git.home.luguber.info/inful/classdoc/internal/frontmatter"
	"git.home.luguber.info/inful/classdoc/internal/logfields"
	"git.home.luguber.info/inful/classdoc/internal/markdown"
	"git.home.luguber.info/inful/classdoc/internal/model"
	"git.home.luguber.info/inful/classdoc/internal/resolver"
)

const (
	framesFile     = "frames.html"
	readmeFile     = "index.html"
	classIndexFile = resolver.DefaultIndexPage
	classListFile  = "class_list.html"
	methodListFile = "method_list.html"
	fileListFile   = "file_list.html"
)

// FilePage renders the readme or an extra file.
type FilePage struct {
	Page
	Filename string
	Content  template.HTML
}

// ClassPage is the data of a class page.
type ClassPage struct {
	Page
	Class              *model.ClassNode
	Doc                *DocView
	Parent             *LinkView
	ParentName         string // declared parent that could not be resolved
	Mixins             []string
	ClassMethods       []MemberView
	InstanceMethods    []MemberView
	Constants          []MemberView
	SubClasses         []LinkView
	InheritedMethods   []InheritedGroup
	InheritedConstants []InheritedGroup
	Namespaces         []NamespaceView
}

// InheritedGroup lists the members inherited from one ancestor.
type InheritedGroup struct {
	Class   LinkView
	Members []LinkView
}

// NamespaceView is a namespace anchor with its direct content.
type NamespaceView struct {
	Name       string
	Anchor     string
	Classes    []LinkView
	Namespaces []LinkView
}

// IndexPage is the alphabetical class index.
type IndexPage struct {
	Page
	Groups     []LetterGroup
	Namespaces []NamespaceView
	Files      []LinkView
}

// LetterGroup holds the classes whose simple name starts with Letter.
type LetterGroup struct {
	Letter  string
	ID      string
	Classes []IndexEntry
}

// IndexEntry is a class in the index.
type IndexEntry struct {
	Href      string
	Name      string
	Namespace string
}

// ClassListPage is the namespace tree of all classes.
type ClassListPage struct {
	Page
	Tree []*TreeNode
}

// TreeNode is a class or namespace in the class list. Namespace-only nodes
// have no Href.
type TreeNode struct {
	Name     string
	Href     string
	Parent   string
	Children []*TreeNode
}

// MethodListPage lists every method but constructors.
type MethodListPage struct {
	Page
	Methods []MethodEntry
}

// MethodEntry is a method in the method list.
type MethodEntry struct {
	Name       string
	Href       string
	ClassName  string
	Type       string
	Deprecated bool
}

// FileListPage lists the readme and extra files.
type FileListPage struct {
	Page
	Files []LinkView
}

func (g *Generator) page(title, prefix string, crumbs []Crumb) Page {
	return Page{
		Title:       title,
		Project:     g.cfg.Title,
		Path:        prefix,
		Breadcrumbs: crumbs,
		Source:      g.source,
	}
}

func (g *Generator) generateFrames(context.Context) error {
	return g.render("frames.tmpl", KindFrames, framesFile, g.page(g.cfg.Title, "", nil))
}

func (g *Generator) generateReadme(context.Context) error {
	readme := g.cfg.Readme
	content, title, err := g.renderFile(readme)
	if err != nil {
		g.logger.Error("Cannot generate readme file", logfields.File(readme), logfields.Error(err))
		return nil
	}
	data := FilePage{
		Page: g.page(title, "", []Crumb{
			{Href: classIndexFile, Name: "Index"},
			{Name: readme},
		}),
		Filename: readme,
		Content:  content,
	}
	return g.render("file.tmpl", KindReadme, readmeFile, data)
}

func (g *Generator) generateClasses(ctx context.Context) error {
	for _, c := range g.table.Classes() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := g.render("class.tmpl", KindClass, model.PathToFile(c.QualifiedName), g.classPage(c)); err != nil {
			return err
		}
	}
	return nil
}

func (g *Generator) classPage(c *model.ClassNode) ClassPage {
	prefix := resolver.RelativePrefix(c)

	crumbs := []Crumb{{Href: prefix + classIndexFile, Name: "Index"}}
	for i, segment := range c.NamespacePath {
		combined := strings.Join(c.NamespacePath[:i+1], ".")
		crumbs = append(crumbs, Crumb{Href: g.res.GetLink(combined, prefix), Name: segment})
	}
	crumbs = append(crumbs, Crumb{Name: c.Name})

	data := ClassPage{
		Page:            g.page(c.QualifiedName, prefix, crumbs),
		Class:           c,
		Doc:             g.docView(c.Doc, c, prefix),
		Mixins:          c.Mixins,
		ClassMethods:    g.methodViews(c, model.MethodTypeClass, prefix),
		InstanceMethods: g.methodViews(c, model.MethodTypeInstance, prefix),
		Constants:       g.constantViews(c, prefix),
		Namespaces:      g.namespaceViews(g.anchoredNamespaces(g.res.NestedNamespaces(c)), prefix),
	}

	if parent, ok := g.table.Parent(c); ok {
		data.Parent = &LinkView{Href: resolver.ClassHref(parent.QualifiedName, prefix), Name: parent.QualifiedName}
	} else if c.HasParent() {
		data.ParentName = c.ParentQualifiedName
	}

	for _, sub := range g.res.GetDirectSubClasses(c) {
		data.SubClasses = append(data.SubClasses, g.classLink(sub, prefix))
	}

	var methods []memberRef
	for _, im := range g.res.GetInheritedMethods(c) {
		label := im.Method.Name
		if im.Method.Type == model.MethodTypeClass {
			label = "." + label
		} else {
			label = "#" + label
		}
		methods = append(methods, memberRef{owner: im.Class, anchor: im.Method.Anchor(), label: label})
	}
	data.InheritedMethods = g.groupInherited(methods, prefix)

	var constants []memberRef
	for _, ic := range g.res.GetInheritedConstants(c) {
		constants = append(constants, memberRef{owner: ic.Class, anchor: ic.Variable.Anchor(), label: ic.Variable.Name})
	}
	data.InheritedConstants = g.groupInherited(constants, prefix)
	return data
}

type memberRef struct {
	owner  *model.ClassNode
	anchor string
	label  string
}

// groupInherited groups members by defining class, keeping the ancestor
// order in which the resolver reports them.
func (g *Generator) groupInherited(refs []memberRef, prefix string) []InheritedGroup {
	var groups []InheritedGroup
	index := map[string]int{}
	for _, ref := range refs {
		i, ok := index[ref.owner.QualifiedName]
		if !ok {
			i = len(groups)
			index[ref.owner.QualifiedName] = i
			groups = append(groups, InheritedGroup{Class: g.classLink(ref.owner, prefix)})
		}
		groups[i].Members = append(groups[i].Members, LinkView{
			Href: resolver.ClassHref(ref.owner.QualifiedName, prefix) + "#" + ref.anchor,
			Name: ref.label,
		})
	}
	return groups
}

// anchoredNamespaces expands roots with every descendant namespace reached
// without passing through a class. Those are the namespaces whose links point
// at the page that owns the roots.
func (g *Generator) anchoredNamespaces(roots []string) []string {
	var out []string
	var walk func([]string)
	walk = func(nss []string) {
		for _, ns := range nss {
			if _, isClass := g.table.Lookup(ns); isClass {
				continue
			}
			out = append(out, ns)
			walk(g.table.ChildNamespaces(ns))
		}
	}
	walk(roots)
	return out
}

func (g *Generator) namespaceViews(namespaces []string, prefix string) []NamespaceView {
	if len(namespaces) == 0 {
		return nil
	}
	byNamespace := map[string][]*model.ClassNode{}
	for _, c := range g.table.Classes() {
		byNamespace[c.Namespace()] = append(byNamespace[c.Namespace()], c)
	}
	out := make([]NamespaceView, 0, len(namespaces))
	for _, ns := range namespaces {
		view := NamespaceView{Name: ns, Anchor: resolver.NamespaceAnchor(ns)}
		for _, c := range byNamespace[ns] {
			view.Classes = append(view.Classes, g.classLink(c, prefix))
		}
		for _, child := range g.table.ChildNamespaces(ns) {
			if _, isClass := g.table.Lookup(child); isClass {
				continue
			}
			view.Namespaces = append(view.Namespaces, LinkView{Href: g.res.GetLink(child, prefix), Name: child})
		}
		out = append(out, view)
	}
	return out
}

func (g *Generator) classLink(c *model.ClassNode, prefix string) LinkView {
	return LinkView{Href: resolver.ClassHref(c.QualifiedName, prefix), Name: c.QualifiedName}
}

// files is the readme followed by the extras in sorted order, without
// duplicates.
func (g *Generator) files() []string {
	extras := append([]string(nil), g.cfg.Extras...)
	sort.Strings(extras)
	out := []string{}
	seen := map[string]bool{}
	for _, f := range append([]string{g.cfg.Readme}, extras...) {
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}

// filePage maps a readme or extra path to its page below the output root.
// Paths leaving the working directory are flattened to their base name.
func filePage(name string) string {
	rel := path.Clean(filepath.ToSlash(name))
	if path.IsAbs(rel) || rel == ".." || strings.HasPrefix(rel, "../") {
		rel = path.Base(rel)
	}
	return rel + ".html"
}

func (g *Generator) generateExtras(ctx context.Context) error {
	for _, extra := range g.files() {
		if err := ctx.Err(); err != nil {
			return err
		}
		content, title, err := g.renderFile(extra)
		if err != nil {
			g.logger.Error("Cannot generate extra file", logfields.File(extra), logfields.Error(err))
			continue
		}
		rel := filePage(extra)
		prefix := strings.Repeat("../", strings.Count(rel, "/"))
		data := FilePage{
			Page: g.page(title, prefix, []Crumb{
				{Href: prefix + classIndexFile, Name: "Index"},
				{Name: extra},
			}),
			Filename: extra,
			Content:  content,
		}
		if err := g.render("file.tmpl", KindExtra, rel, data); err != nil {
			return err
		}
		g.rendered = append(g.rendered, extra)
	}
	return nil
}

// renderFile reads a readme or extra file. Markdown is rendered after its
// frontmatter is stripped; anything else is shown preformatted.
func (g *Generator) renderFile(name string) (template.HTML, string, error) {
	// #nosec G304 -- name comes from the configuration
	data, err := os.ReadFile(name)
	if err != nil {
		return "", "", err
	}
	title := path.Base(filepath.ToSlash(name))
	if !markdown.IsMarkdownFile(name) {
		return template.HTML("<pre>" + template.HTMLEscapeString(string(data)) + "</pre>"), title, nil // #nosec G203
	}
	doc, err := frontmatter.Parse(data)
	if err != nil {
		return "", "", err
	}
	out, err := g.md.Render(string(doc.Body))
	if err != nil {
		return "", "", err
	}
	return template.HTML(out), doc.Title(title), nil // #nosec G203 -- goldmark output
}

func (g *Generator) fileLinks(prefix string) []LinkView {
	out := make([]LinkView, 0, len(g.rendered))
	for _, f := range g.rendered {
		out = append(out, LinkView{Href: prefix + filePage(f), Name: f})
	}
	return out
}

func (g *Generator) generateIndex(context.Context) error {
	groups := map[string][]IndexEntry{}
	for _, c := range g.table.Classes() {
		letter := indexLetter(c.Name)
		groups[letter] = append(groups[letter], IndexEntry{
			Href:      resolver.ClassHref(c.QualifiedName, ""),
			Name:      c.Name,
			Namespace: c.Namespace(),
		})
	}

	data := IndexPage{
		Page:       g.page(g.cfg.Title, "", nil),
		Namespaces: g.namespaceViews(g.anchoredNamespaces(g.table.ChildNamespaces("")), ""),
		Files:      g.fileLinks(""),
	}
	for _, letter := range indexLetters() {
		entries := groups[letter]
		if len(entries) == 0 {
			continue
		}
		sort.SliceStable(entries, func(i, j int) bool {
			if cmp := g.collator.CompareString(entries[i].Name, entries[j].Name); cmp != 0 {
				return cmp < 0
			}
			return entries[i].Namespace < entries[j].Namespace
		})
		id := "letter-" + letter
		if letter == otherLetter {
			id = "letter-other"
		}
		data.Groups = append(data.Groups, LetterGroup{Letter: letter, ID: id, Classes: entries})
	}
	return g.render("index.tmpl", KindIndex, classIndexFile, data)
}

// otherLetter groups classes whose name does not start with a-z.
const otherLetter = "#"

func indexLetter(name string) string {
	if name == "" {
		return otherLetter
	}
	first := strings.ToLower(name[:1])
	if first[0] >= 'a' && first[0] <= 'z' {
		return first
	}
	return otherLetter
}

func indexLetters() []string {
	letters := make([]string, 0, 27)
	for c := 'a'; c <= 'z'; c++ {
		letters = append(letters, string(c))
	}
	return append(letters, otherLetter)
}

func (g *Generator) generateClassList(context.Context) error {
	var roots []*TreeNode
	for _, c := range g.table.Classes() {
		level := &roots
		for _, ns := range c.NamespacePath {
			node := findNode(*level, ns)
			if node == nil {
				node = &TreeNode{Name: ns}
				*level = append(*level, node)
			}
			level = &node.Children
		}
		if node := findNode(*level, c.Name); node != nil && node.Href == "" {
			node.Href = model.PathToFile(c.QualifiedName)
			node.Parent = c.ParentQualifiedName
			continue
		}
		*level = append(*level, &TreeNode{
			Name:   c.Name,
			Href:   model.PathToFile(c.QualifiedName),
			Parent: c.ParentQualifiedName,
		})
	}
	return g.render("class_list.tmpl", KindClassList, classListFile, ClassListPage{
		Page: g.page("Class List", "", nil),
		Tree: roots,
	})
}

func findNode(nodes []*TreeNode, name string) *TreeNode {
	for _, n := range nodes {
		if n.Name == name {
			return n
		}
	}
	return nil
}

func (g *Generator) generateMethodList(context.Context) error {
	var methods []MethodEntry
	for _, c := range g.table.Classes() {
		for _, m := range c.Methods {
			if m.Name == model.ConstructorName {
				continue
			}
			methods = append(methods, MethodEntry{
				Name:       m.Name,
				Href:       model.PathToFile(c.QualifiedName) + "#" + m.Anchor(),
				ClassName:  c.QualifiedName,
				Type:       string(m.Type),
				Deprecated: m.Deprecated(),
			})
		}
	}
	sort.SliceStable(methods, func(i, j int) bool {
		if cmp := g.collator.CompareString(methods[i].Name, methods[j].Name); cmp != 0 {
			return cmp < 0
		}
		return methods[i].ClassName < methods[j].ClassName
	})
	return g.render("method_list.tmpl", KindMethodList, methodListFile, MethodListPage{
		Page:    g.page("Method List", "", nil),
		Methods: methods,
	})
}

func (g *Generator) generateFileList(context.Context) error {
	return g.render("file_list.tmpl", KindFileList, fileListFile, FileListPage{
		Page:  g.page("File List", "", nil),
		Files: g.fileLinks(""),
	})
}

func (g *Generator) copyAssets(context.Context) error {
	for _, name := range []string{"assets/classdoc.css", "assets/classdoc.js"} {
		data, err := embeddedAssets.ReadFile(name)
		if err != nil {
			return err
		}
		if err := g.writePage(name, KindAsset, data); err != nil {
			return err
		}
	}
	return nil
}
