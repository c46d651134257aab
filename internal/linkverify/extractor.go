package linkverify

import (
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"

	"git.home.luguber.info/inful/classdoc/internal/foundation/errors"
)

// Link represents an extracted link from HTML content.
type Link struct {
	URL        string // The URL or path
	Text       string // Link text/title
	Tag        string // HTML tag (a, link, script, frame)
	Attribute  string // Attribute containing the link (href or src)
	IsInternal bool   // True if the link points into the generated tree
}

// Page is the parsed link surface of one HTML file.
type Page struct {
	Links   []*Link
	Anchors map[string]struct{} // values of id and a[name]
}

// HasAnchor reports whether the page defines the fragment id.
func (p *Page) HasAnchor(id string) bool {
	_, ok := p.Anchors[id]
	return ok
}

// ExtractPage parses an HTML file.
func ExtractPage(htmlPath string) (*Page, error) {
	file, err := os.Open(filepath.Clean(htmlPath))
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to open HTML file").
			WithContext("path", htmlPath).
			Build()
	}
	defer func() {
		_ = file.Close()
	}()

	page, err := ExtractPageFromReader(file)
	if err != nil {
		if classified, ok := errors.AsClassified(err); ok {
			classified.Context().Set("path", htmlPath)
		}
		return nil, err
	}
	return page, nil
}

// ExtractPageFromReader parses HTML from r and collects its links and anchors.
func ExtractPageFromReader(r io.Reader) (*Page, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryVerify, "failed to parse HTML").Build()
	}

	page := &Page{Anchors: map[string]struct{}{}}
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			extractElementLinks(n, page)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return page, nil
}

// extractElementLinks records links and anchors of a single element.
func extractElementLinks(n *html.Node, page *Page) {
	if id := getAttr(n, "id"); id != "" {
		page.Anchors[id] = struct{}{}
	}

	switch n.Data {
	case "a":
		if name := getAttr(n, "name"); name != "" {
			page.Anchors[name] = struct{}{}
		}
		addLink(page, n, "href", extractText(n))
	case "link":
		addLink(page, n, "href", getAttr(n, "rel"))
	case "script", "frame", "iframe", "img":
		addLink(page, n, "src", getAttr(n, "alt"))
	}
}

func addLink(page *Page, n *html.Node, attr, text string) {
	target := getAttr(n, attr)
	if target == "" {
		return
	}
	page.Links = append(page.Links, &Link{
		URL:        target,
		Text:       text,
		Tag:        n.Data,
		Attribute:  attr,
		IsInternal: isInternalLink(target),
	})
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

// extractText extracts text content from an HTML node and its children.
func extractText(n *html.Node) string {
	if n.Type == html.TextNode {
		return strings.TrimSpace(n.Data)
	}

	var text strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		text.WriteString(extractText(c))
	}

	return strings.TrimSpace(text.String())
}

// isInternalLink reports whether linkURL is a relative reference into the
// generated tree. Anything with a scheme or host is external.
func isInternalLink(linkURL string) bool {
	u, err := url.Parse(linkURL)
	if err != nil {
		return false
	}
	return u.Scheme == "" && u.Host == ""
}

// ShouldVerifyLink determines if a link should be verified.
func ShouldVerifyLink(link *Link) bool {
	if link.URL == "" || !link.IsInternal {
		return false
	}
	// Pure fragments point at the page itself.
	if strings.HasPrefix(link.URL, "#") {
		return false
	}
	if strings.HasPrefix(link.URL, "javascript:") || strings.HasPrefix(link.URL, "data:") {
		return false
	}
	return true
}
