// Package markdown renders documentation comments, READMEs and extra files to HTML.
package markdown

import (
	"bytes"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
)

// Options controls how Markdown is rendered.
type Options struct {
	// HardWraps turns single newlines into <br>. Doc comments are usually
	// wrapped at a fixed column, so this is off by default.
	HardWraps bool
}

// Renderer converts Markdown to HTML. Raw HTML is passed through because the
// reference resolver has already replaced inline references with anchors.
type Renderer struct {
	md goldmark.Markdown
}

// New creates a Renderer with GitHub Flavored Markdown enabled.
func New(opts Options) *Renderer {
	rendererOpts := []goldmark.Option{
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	}
	htmlOpts := []renderer.Option{html.WithUnsafe()}
	if opts.HardWraps {
		htmlOpts = append(htmlOpts, html.WithHardWraps())
	}
	rendererOpts = append(rendererOpts, goldmark.WithRendererOptions(htmlOpts...))
	return &Renderer{md: goldmark.New(rendererOpts...)}
}

// Render converts src to HTML.
func (r *Renderer) Render(src string) (string, error) {
	if strings.TrimSpace(src) == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderInline renders a single paragraph without the surrounding <p> element,
// for short fields such as parameter descriptions.
func (r *Renderer) RenderInline(src string) (string, error) {
	out, err := r.Render(src)
	if err != nil {
		return "", err
	}
	out = strings.TrimSpace(out)
	if strings.HasPrefix(out, "<p>") && strings.HasSuffix(out, "</p>") && strings.Count(out, "<p>") == 1 {
		out = strings.TrimSuffix(strings.TrimPrefix(out, "<p>"), "</p>")
	}
	return out, nil
}

// IsMarkdownFile reports whether name has a Markdown extension.
func IsMarkdownFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".md", ".markdown":
		return true
	default:
		return false
	}
}
