package generator

import (
	"html/template"

	"git.home.luguber.info/inful/classdoc/internal/gitinfo"
	"git.home.luguber.info/inful/classdoc/internal/logfields"
	"git.home.luguber.info/inful/classdoc/internal/model"
	"git.home.luguber.info/inful/classdoc/internal/resolver"
)

// Page is the data every template receives.
type Page struct {
	Title       string
	Project     string
	Path        string // prefix from this page back to the output root
	Breadcrumbs []Crumb
	Source      *gitinfo.Info
}

// Crumb is one breadcrumb entry. The last entry has no Href.
type Crumb struct {
	Href string
	Name string
}

// LinkView is a rendered hyperlink.
type LinkView struct {
	Href string
	Name string
}

// DocView is a RenderedDoc with its Markdown converted to HTML.
type DocView struct {
	Comment    template.HTML
	Params     []ParamView
	Options    []ParamView
	Returns    *ReturnView
	Throws     []ReturnView
	See        []template.HTML
	Notes      []template.HTML
	Todos      []template.HTML
	Examples   []model.Example
	Deprecated template.HTML
	Abstract   template.HTML
	Private    bool
	Since      string
	Version    string
	Authors    []string
}

// IsDeprecated reports whether a deprecation notice is present.
func (d *DocView) IsDeprecated() bool {
	return d != nil && d.Deprecated != ""
}

// ParamView is a documented parameter or option.
type ParamView struct {
	Name        string
	Type        template.HTML
	Description template.HTML
	Optional    bool
	Default     string
}

// ReturnView is a documented return value or thrown error.
type ReturnView struct {
	Type        template.HTML
	Description template.HTML
}

// MemberView is a method or constant on a class page.
type MemberView struct {
	Name       string
	Anchor     string
	Kind       string // class, instance or constant
	Signature  string
	Value      string
	Doc        *DocView
	Deprecated bool
}

// docView resolves doc against ctx and renders its Markdown.
func (g *Generator) docView(doc *model.Doc, ctx *model.ClassNode, prefix string) *DocView {
	rendered := g.res.ResolveDoc(doc, ctx, prefix)
	if rendered == nil {
		return nil
	}
	params := func(in []resolver.RenderedParam) []ParamView {
		if len(in) == 0 {
			return nil
		}
		out := make([]ParamView, len(in))
		for i, p := range in {
			out[i] = ParamView{
				Name:        p.Name,
				Type:        template.HTML(p.TypeHTML), // #nosec G203 -- escaped by the resolver
				Description: g.inline(p.Description),
				Optional:    p.Optional,
				Default:     p.Default,
			}
		}
		return out
	}
	ret := func(in resolver.RenderedReturn) ReturnView {
		return ReturnView{
			Type:        template.HTML(in.TypeHTML), // #nosec G203 -- escaped by the resolver
			Description: g.inline(in.Description),
		}
	}
	inlines := func(in []string) []template.HTML {
		if len(in) == 0 {
			return nil
		}
		out := make([]template.HTML, len(in))
		for i, s := range in {
			out[i] = g.inline(s)
		}
		return out
	}

	v := &DocView{
		Comment:  g.block(rendered.Comment),
		Params:   params(rendered.Params),
		Options:  params(rendered.Options),
		Notes:    inlines(rendered.Notes),
		Todos:    inlines(rendered.Todos),
		Examples: rendered.Examples,
		Abstract: g.inline(rendered.Abstract),
		Private:  rendered.Private,
		Since:    rendered.Since,
		Version:  rendered.Version,
		Authors:  rendered.Authors,
	}
	if rendered.IsDeprecated() {
		v.Deprecated = "Deprecated."
		if rendered.Deprecated != "true" {
			if notice := g.inline(rendered.Deprecated); notice != "" {
				v.Deprecated = notice
			}
		}
	}
	if rendered.Returns != nil {
		r := ret(*rendered.Returns)
		v.Returns = &r
	}
	for _, t := range rendered.Throws {
		v.Throws = append(v.Throws, ret(t))
	}
	for _, see := range rendered.See {
		v.See = append(v.See, template.HTML(see.HTML())) // #nosec G203 -- Link.HTML escapes
	}
	return v
}

// block renders Markdown that may span paragraphs. On failure the escaped
// source is shown instead.
func (g *Generator) block(src string) template.HTML {
	out, err := g.md.Render(src)
	if err != nil {
		g.logger.Warn("Failed to render markdown", logfields.Error(err))
		return template.HTML("<p>" + template.HTMLEscapeString(src) + "</p>") // #nosec G203
	}
	return template.HTML(out) // #nosec G203 -- goldmark output
}

// inline renders a short Markdown fragment without a wrapping paragraph.
func (g *Generator) inline(src string) template.HTML {
	out, err := g.md.RenderInline(src)
	if err != nil {
		g.logger.Warn("Failed to render markdown", logfields.Error(err))
		return template.HTML(template.HTMLEscapeString(src)) // #nosec G203
	}
	return template.HTML(out) // #nosec G203 -- goldmark output
}

func (g *Generator) methodViews(c *model.ClassNode, t model.MethodType, prefix string) []MemberView {
	methods := c.MethodsOfType(t)
	out := make([]MemberView, 0, len(methods))
	for _, m := range methods {
		out = append(out, MemberView{
			Name:       m.Name,
			Anchor:     m.Anchor(),
			Kind:       string(m.Type),
			Signature:  m.Signature(),
			Doc:        g.docView(m.Doc, c, prefix),
			Deprecated: m.Deprecated(),
		})
	}
	return out
}

func (g *Generator) constantViews(c *model.ClassNode, prefix string) []MemberView {
	constants := c.Constants()
	out := make([]MemberView, 0, len(constants))
	for _, v := range constants {
		out = append(out, MemberView{
			Name:       v.Name,
			Anchor:     v.Anchor(),
			Kind:       "constant",
			Value:      v.Value,
			Doc:        g.docView(v.Doc, c, prefix),
			Deprecated: v.Deprecated(),
		})
	}
	return out
}
