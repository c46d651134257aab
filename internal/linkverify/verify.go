// Package linkverify checks that the relative links in generated HTML pages
// point at files that exist.
package linkverify

import (
	"context"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"git.home.luguber.info/inful/classdoc/internal/foundation/errors"
	"git.home.luguber.info/inful/classdoc/internal/logfields"
)

// Options tune a verification run.
type Options struct {
	// CheckFragments also requires #fragment targets to exist as an id or
	// a[name] on the linked page.
	CheckFragments bool
	Logger         *slog.Logger
}

// BrokenLink is a link whose target is missing.
type BrokenLink struct {
	Page   string // page holding the link, relative to the root, slash separated
	URL    string
	Tag    string
	Reason string
}

// Report summarizes a verification run.
type Report struct {
	Pages   int
	Checked int
	Broken  []BrokenLink
}

// OK reports whether no broken links were found.
func (r *Report) OK() bool {
	return len(r.Broken) == 0
}

const (
	reasonMissingFile   = "target file does not exist"
	reasonMissingAnchor = "target anchor does not exist"
	reasonEscapesRoot   = "target is outside the output directory"
)

// Verify walks every .html file under root and checks its internal links.
func Verify(ctx context.Context, root string, opts Options) (*Report, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	pages := map[string]*Page{}
	var order []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(p), ".html") {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		page, err := ExtractPage(p)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		pages[key] = page
		order = append(order, key)
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if _, ok := errors.AsClassified(err); ok {
			return nil, err
		}
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to walk output directory").
			WithContext("path", root).
			Build()
	}
	sort.Strings(order)

	report := &Report{Pages: len(order)}
	for _, from := range order {
		for _, link := range pages[from].Links {
			if !ShouldVerifyLink(link) {
				continue
			}
			report.Checked++
			reason := checkLink(root, from, link.URL, pages, opts.CheckFragments)
			if reason == "" {
				continue
			}
			logger.Warn("Broken link",
				logfields.Page(from),
				logfields.Reference(link.URL),
				slog.String("reason", reason))
			report.Broken = append(report.Broken, BrokenLink{Page: from, URL: link.URL, Tag: link.Tag, Reason: reason})
		}
	}
	return report, nil
}

// checkLink resolves href relative to the page at from and returns why it is
// broken, or "" when the target exists.
func checkLink(root, from, href string, pages map[string]*Page, checkFragments bool) string {
	u, err := url.Parse(href)
	if err != nil {
		return reasonMissingFile
	}
	target := from
	if u.Path != "" {
		target = path.Clean(path.Join(path.Dir(from), u.Path))
	}
	if target == ".." || strings.HasPrefix(target, "../") {
		return reasonEscapesRoot
	}

	page, isPage := pages[target]
	if !isPage && !fileExists(filepath.Join(root, filepath.FromSlash(target))) {
		return reasonMissingFile
	}
	if checkFragments && u.Fragment != "" && isPage && !page.HasAnchor(u.Fragment) {
		return reasonMissingAnchor
	}
	return ""
}

func fileExists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}
