package resolver

import "git.home.luguber.info/inful/classdoc/internal/model"

// RenderedParam is a parameter whose type is linked HTML and whose
// description has its references rewritten.
type RenderedParam struct {
	Name        string
	TypeHTML    string
	Description string
	Optional    bool
	Default     string
}

// RenderedReturn is a return value or thrown error with resolved references.
type RenderedReturn struct {
	TypeHTML    string
	Description string
}

// RenderedDoc is a documentation payload ready for the page templates. Text
// fields are Markdown in which every inline reference has become an anchor or
// plain text; examples are code and are passed through untouched.
type RenderedDoc struct {
	Comment    string
	Params     []RenderedParam
	Options    []RenderedParam
	Returns    *RenderedReturn
	Throws     []RenderedReturn
	See        []Link
	Notes      []string
	Todos      []string
	Examples   []model.Example
	Deprecated string
	Abstract   string
	Private    bool
	Since      string
	Version    string
	Authors    []string
}

// IsDeprecated reports whether the payload carries a deprecation notice.
func (d *RenderedDoc) IsDeprecated() bool {
	return d != nil && d.Deprecated != "" && d.Deprecated != "false"
}

// ResolveDoc rewrites the references in a documentation payload. Unqualified
// references are looked up relative to contextClass's namespace chain. A nil
// doc yields nil.
func (r *Resolver) ResolveDoc(doc *model.Doc, contextClass *model.ClassNode, relativePrefix string) *RenderedDoc {
	if doc == nil {
		return nil
	}
	text := func(s string) string { return r.ResolveText(s, contextClass, relativePrefix) }
	texts := func(in []string) []string {
		if len(in) == 0 {
			return nil
		}
		out := make([]string, len(in))
		for i, s := range in {
			out[i] = text(s)
		}
		return out
	}
	params := func(in []model.Param) []RenderedParam {
		if len(in) == 0 {
			return nil
		}
		out := make([]RenderedParam, len(in))
		for i, p := range in {
			out[i] = RenderedParam{
				Name:        p.Name,
				TypeHTML:    r.ResolveType(p.Type, contextClass, relativePrefix),
				Description: text(p.Description),
				Optional:    p.Optional,
				Default:     p.Default,
			}
		}
		return out
	}
	ret := func(in model.Return) RenderedReturn {
		return RenderedReturn{
			TypeHTML:    r.ResolveType(in.Type, contextClass, relativePrefix),
			Description: text(in.Description),
		}
	}

	out := &RenderedDoc{
		Comment:    text(doc.Comment),
		Params:     params(doc.Params),
		Options:    params(doc.Options),
		Notes:      texts(doc.Notes),
		Todos:      texts(doc.Todos),
		Examples:   doc.Examples,
		Deprecated: text(doc.Deprecated),
		Abstract:   text(doc.Abstract),
		Private:    doc.Private,
		Since:      doc.Since,
		Version:    doc.Version,
		Authors:    doc.Authors,
	}
	if doc.Returns != nil {
		rendered := ret(*doc.Returns)
		out.Returns = &rendered
	}
	for _, t := range doc.Throws {
		out.Throws = append(out.Throws, ret(t))
	}
	for _, see := range doc.See {
		out.See = append(out.See, r.ResolveReference(see, contextClass, relativePrefix))
	}
	return out
}
