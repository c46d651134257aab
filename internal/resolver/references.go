package resolver

import (
	"html"
	"regexp"
	"strings"

	"git.home.luguber.info/inful/classdoc/internal/logfields"
	"git.home.luguber.info/inful/classdoc/internal/metrics"
	"git.home.luguber.info/inful/classdoc/internal/model"
)

var (
	referencePattern = regexp.MustCompile(`^(?:#[A-Za-z_$][\w$]*|[A-Za-z_$][\w$]*(?:\.[A-Za-z_$][\w$]*)*(?:#[A-Za-z_$][\w$]*)?)$`)
	typeNamePattern  = regexp.MustCompile(`[A-Za-z_$][\w$]*(?:\.[A-Za-z_$][\w$]*)*`)
)

// Link is a resolved (or unresolved) reference.
type Link struct {
	Href     string
	Label    string
	Resolved bool
}

// HTML renders the link as an anchor, or as escaped plain text when unresolved.
func (l Link) HTML() string {
	if !l.Resolved {
		return html.EscapeString(l.Label)
	}
	return `<a href="` + html.EscapeString(l.Href) + `">` + html.EscapeString(l.Label) + `</a>`
}

// ResolveText rewrites every inline reference in text. Braces whose content is
// not a well-formed reference, backtick code spans, fenced code blocks and
// indented code blocks are copied unchanged.
func (r *Resolver) ResolveText(text string, ctx *model.ClassNode, relativePrefix string) string {
	if !strings.ContainsRune(text, '{') {
		return text
	}
	var b strings.Builder
	b.Grow(len(text))
	lineStart, afterBlank, inIndented := true, true, false
	for i := 0; i < len(text); {
		if lineStart {
			lineStart = false
			line := text[i:lineEnd(text, i)]
			switch {
			case strings.TrimSpace(line) == "":
				afterBlank = true
			case isIndentedCode(line) && (afterBlank || inIndented):
				inIndented, afterBlank = true, false
				b.WriteString(line)
				i += len(line)
				lineStart = true
				continue
			default:
				inIndented, afterBlank = false, false
				if end, ok := fencedBlockEnd(text, i); ok {
					b.WriteString(text[i:end])
					i = end
					lineStart, afterBlank = true, true
					continue
				}
			}
		}
		switch text[i] {
		case '`':
			end := codeSpanEnd(text, i)
			b.WriteString(text[i:end])
			i = end
		case '{':
			closing := strings.IndexAny(text[i+1:], "{}\n")
			if closing < 0 || text[i+1+closing] != '}' {
				b.WriteByte('{')
				i++
				continue
			}
			inner := text[i+1 : i+1+closing]
			target, label, ok := parseReference(inner)
			if !ok {
				b.WriteByte('{')
				i++
				continue
			}
			b.WriteString(r.resolveReference(target, label, ctx, relativePrefix).HTML())
			i += closing + 2
		default:
			lineStart = text[i] == '\n'
			b.WriteByte(text[i])
			i++
		}
	}
	return b.String()
}

// codeSpanEnd returns the index just past the code span opening at start. An
// unmatched backtick run is treated as literal text.
func codeSpanEnd(text string, start int) int {
	run := start
	for run < len(text) && text[run] == '`' {
		run++
	}
	fence := text[start:run]
	closing := strings.Index(text[run:], fence)
	if closing < 0 {
		return run
	}
	return run + closing + len(fence)
}

// lineEnd returns the index just past the newline ending the line at start.
func lineEnd(text string, start int) int {
	if nl := strings.IndexByte(text[start:], '\n'); nl >= 0 {
		return start + nl + 1
	}
	return len(text)
}

func isIndentedCode(line string) bool {
	return strings.HasPrefix(line, "    ") || strings.HasPrefix(line, "\t")
}

// fenceRun reports the fence character and run length opening line, which may
// be indented by up to three spaces.
func fenceRun(line string) (byte, int) {
	line = strings.TrimRight(line, "\r\n")
	indent := len(line) - len(strings.TrimLeft(line, " "))
	if indent > 3 || indent == len(line) {
		return 0, 0
	}
	line = line[indent:]
	ch := line[0]
	if ch != '`' && ch != '~' {
		return 0, 0
	}
	n := 0
	for n < len(line) && line[n] == ch {
		n++
	}
	return ch, n
}

// fencedBlockEnd returns the index just past the fenced code block opening at
// start, including its closing fence line. An unclosed fence runs to the end
// of text.
func fencedBlockEnd(text string, start int) (int, bool) {
	first := text[start:lineEnd(text, start)]
	ch, n := fenceRun(first)
	if n < 3 {
		return 0, false
	}
	if info := strings.TrimLeft(strings.TrimSpace(first), string(ch)); ch == '`' && strings.ContainsRune(info, '`') {
		return 0, false
	}
	for pos := start + len(first); pos < len(text); {
		next := lineEnd(text, pos)
		line := strings.TrimSpace(text[pos:next])
		if c, m := fenceRun(text[pos:next]); c == ch && m >= n && strings.Trim(line, string(ch)) == "" {
			return next, true
		}
		pos = next
	}
	return len(text), true
}

// parseReference splits "target optional label" and validates the target.
func parseReference(inner string) (target, label string, ok bool) {
	inner = strings.TrimSpace(inner)
	if inner == "" {
		return "", "", false
	}
	target, label, _ = strings.Cut(inner, " ")
	label = strings.TrimSpace(label)
	if label == "" {
		label = target
	}
	if isExternal(target) {
		return target, label, true
	}
	if !referencePattern.MatchString(target) {
		return "", "", false
	}
	return target, label, true
}

func isExternal(target string) bool {
	return strings.HasPrefix(target, "http://") ||
		strings.HasPrefix(target, "https://") ||
		strings.HasPrefix(target, "mailto:")
}

// ResolveReference resolves a single reference such as "Foo", "A.B#bar",
// "#bar", "Foo.CONST" or an external URL. Surrounding braces are optional.
func (r *Resolver) ResolveReference(reference string, ctx *model.ClassNode, relativePrefix string) Link {
	reference = strings.TrimSpace(reference)
	reference = strings.TrimSuffix(strings.TrimPrefix(reference, "{"), "}")
	target, label, ok := parseReference(reference)
	if !ok {
		return Link{Label: reference}
	}
	return r.resolveReference(target, label, ctx, relativePrefix)
}

func (r *Resolver) resolveReference(target, label string, ctx *model.ClassNode, relativePrefix string) Link {
	if isExternal(target) {
		return Link{Href: target, Label: label, Resolved: true}
	}
	href, kind := r.referenceHref(target, ctx, relativePrefix)
	if kind == "" {
		return Link{Href: href, Label: label, Resolved: true}
	}
	attrs := []any{logfields.Reference(target)}
	if ctx != nil {
		attrs = append(attrs, logfields.ContextClass(ctx.QualifiedName))
	}
	if kind == metrics.UnresolvedMember {
		r.logger.Warn("Unresolved member reference", attrs...)
	} else {
		r.logger.Warn("Unresolved reference", attrs...)
	}
	r.recorder.IncUnresolved(kind)
	return Link{Label: label}
}

// referenceHref returns the link for target, or the reason it could not be
// resolved. The owner of a member reference must resolve to a class.
func (r *Resolver) referenceHref(target string, ctx *model.ClassNode, relativePrefix string) (string, metrics.UnresolvedKind) {
	if classPart, member, isInstance := strings.Cut(target, "#"); isInstance {
		owner := ctx
		if classPart != "" {
			c, ok := r.scopedClass(classPart, ctx)
			if !ok {
				return "", metrics.UnresolvedReference
			}
			owner = c
		}
		if owner == nil {
			return "", metrics.UnresolvedReference
		}
		return memberHref(owner, member, relativePrefix, r.findInstanceMember)
	}

	if path, ok := r.scopedLookup(target, ctx); ok {
		if href, linked := r.pathLink(path, relativePrefix); linked {
			return href, ""
		}
	}

	dot := strings.LastIndexByte(target, '.')
	if dot < 0 {
		return "", metrics.UnresolvedReference
	}
	owner, ok := r.scopedClass(target[:dot], ctx)
	if !ok {
		return "", metrics.UnresolvedReference
	}
	return memberHref(owner, target[dot+1:], relativePrefix, r.findStaticMember)
}

type memberFinder func(*model.ClassNode, string) (*model.ClassNode, string, bool)

func memberHref(owner *model.ClassNode, member, relativePrefix string, find memberFinder) (string, metrics.UnresolvedKind) {
	defining, anchor, ok := find(owner, member)
	if !ok {
		return "", metrics.UnresolvedMember
	}
	return ClassHref(defining.QualifiedName, relativePrefix) + "#" + anchor, ""
}

// ResolveType links every class name inside a type expression such as
// "Array<Foo>" or "Foo|null". The result is HTML.
func (r *Resolver) ResolveType(typeExpr string, ctx *model.ClassNode, relativePrefix string) string {
	var b strings.Builder
	last := 0
	for _, loc := range typeNamePattern.FindAllStringIndex(typeExpr, -1) {
		b.WriteString(html.EscapeString(typeExpr[last:loc[0]]))
		name := typeExpr[loc[0]:loc[1]]
		if c, ok := r.scopedClass(name, ctx); ok {
			b.WriteString(Link{Href: ClassHref(c.QualifiedName, relativePrefix), Label: name, Resolved: true}.HTML())
		} else {
			b.WriteString(html.EscapeString(name))
		}
		last = loc[1]
	}
	b.WriteString(html.EscapeString(typeExpr[last:]))
	return b.String()
}
