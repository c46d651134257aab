// Package generator renders the documentation site: frames, readme and extra
// files, one page per class, the class index, the class and method lists and
// the static assets.
package generator

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"git.home.luguber.info/inful/classdoc/internal/config"
	"git.home.luguber.info/inful/classdoc/internal/foundation/errors"
	"git.home.luguber.info/inful/classdoc/internal/gitinfo"
	"git.home.luguber.info/inful/classdoc/internal/logfields"
	"git.home.luguber.info/inful/classdoc/internal/manifest"
	"git.home.luguber.info/inful/classdoc/internal/markdown"
	"git.home.luguber.info/inful/classdoc/internal/metrics"
	"git.home.luguber.info/inful/classdoc/internal/resolver"
	"git.home.luguber.info/inful/classdoc/internal/symtab"
)

//go:embed templates/*.tmpl
var embeddedTemplates embed.FS

//go:embed assets/classdoc.css assets/classdoc.js
var embeddedAssets embed.FS

// Page kinds, used as metric labels.
const (
	KindFrames     = "frames"
	KindReadme     = "readme"
	KindClass      = "class"
	KindExtra      = "extra"
	KindIndex      = "index"
	KindClassList  = "class_list"
	KindMethodList = "method_list"
	KindFileList   = "file_list"
	KindAsset      = "asset"
)

// Options configure a Generator. Zero values are valid.
type Options struct {
	Logger   *slog.Logger
	Recorder metrics.Recorder
	Markdown *markdown.Renderer

	// Source is shown in page footers when set.
	Source *gitinfo.Info

	// Previous is the manifest of the last build into the same output
	// directory. Pages whose fingerprint is unchanged are not rewritten and
	// pages it lists that this build no longer produces are removed.
	Previous *manifest.BuildManifest

	// Now stamps the manifest; defaults to time.Now.
	Now func() time.Time
}

// Result summarizes a generation run.
type Result struct {
	Manifest  *manifest.BuildManifest
	Written   int
	Unchanged int
	Removed   int
}

// Generator emits the site for one symbol table.
type Generator struct {
	cfg      *config.Config
	table    *symtab.Table
	res      *resolver.Resolver
	md       *markdown.Renderer
	tmpl     *template.Template
	collator *collate.Collator
	logger   *slog.Logger
	recorder metrics.Recorder
	source   *gitinfo.Info
	previous *manifest.BuildManifest
	now      func() time.Time

	manifest *manifest.BuildManifest
	result   *Result
	rendered []string // readme and extras that were written
}

// New parses the page templates. A template directory configured in
// cfg.Templates may override any of the embedded templates by name.
func New(cfg *config.Config, table *symtab.Table, res *resolver.Resolver, opts Options) (*Generator, error) {
	g := &Generator{
		cfg:      cfg,
		table:    table,
		res:      res,
		md:       opts.Markdown,
		collator: collate.New(language.English, collate.IgnoreCase),
		logger:   opts.Logger,
		recorder: opts.Recorder,
		source:   opts.Source,
		previous: opts.Previous,
		now:      opts.Now,
	}
	if g.md == nil {
		g.md = markdown.New(markdown.Options{})
	}
	if g.logger == nil {
		g.logger = slog.Default()
	}
	if g.recorder == nil {
		g.recorder = metrics.NoopRecorder{}
	}
	if g.now == nil {
		g.now = time.Now
	}

	tmpl, err := template.New("classdoc").ParseFS(embeddedTemplates, "templates/*.tmpl")
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryInternal, "failed to parse embedded templates").Fatal().Build()
	}
	if cfg.Templates != "" {
		overrides, globErr := filepath.Glob(filepath.Join(cfg.Templates, "*.tmpl"))
		if globErr != nil {
			return nil, errors.WrapError(globErr, errors.CategoryConfig, "invalid template directory").
				WithContext("path", cfg.Templates).
				Build()
		}
		if len(overrides) > 0 {
			if tmpl, err = tmpl.ParseFiles(overrides...); err != nil {
				return nil, errors.WrapError(err, errors.CategoryRender, "failed to parse template override").
					Fatal().
					WithContext("path", cfg.Templates).
					Build()
			}
			g.logger.Debug("Loaded template overrides", logfields.Path(cfg.Templates), logfields.Count(len(overrides)))
		}
	}
	g.tmpl = tmpl
	return g, nil
}

type stage struct {
	name string
	run  func(context.Context) error
}

// Generate writes every page into cfg.Output.Directory. It stops at the
// first failing stage and between pages when ctx is canceled.
func (g *Generator) Generate(ctx context.Context) (*Result, error) {
	outDir := g.cfg.Output.Directory
	if g.cfg.Output.Clean {
		if err := os.RemoveAll(outDir); err != nil {
			return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to clean output directory").
				Fatal().
				WithContext("path", outDir).
				Build()
		}
		g.previous = nil
	}
	if err := os.MkdirAll(outDir, 0o750); err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to create output directory").
			Fatal().
			WithContext("path", outDir).
			Build()
	}

	g.manifest = manifest.New(g.now())
	g.result = &Result{Manifest: g.manifest}
	g.rendered = nil
	g.recorder.SetClassCount(g.table.Len())

	stages := []stage{
		{"frames", g.generateFrames},
		{"readme", g.generateReadme},
		{"classes", g.generateClasses},
		{"extras", g.generateExtras},
		{"index", g.generateIndex},
		{"class_list", g.generateClassList},
		{"method_list", g.generateMethodList},
		{"file_list", g.generateFileList},
		{"assets", g.copyAssets},
	}
	for _, st := range stages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		start := time.Now()
		if err := st.run(ctx); err != nil {
			return nil, err
		}
		elapsed := time.Since(start)
		g.recorder.ObservePageStageDuration(st.name, elapsed)
		g.logger.Debug("Stage complete",
			slog.String("stage", st.name),
			logfields.DurationMS(float64(elapsed.Microseconds())/1000))
	}

	g.removeStale()
	g.manifest.Stats.Classes = g.table.Len()
	g.manifest.Stats.PagesWritten = g.result.Written
	g.manifest.Stats.PagesUnchanged = g.result.Unchanged
	return g.result, nil
}

// render executes the named template and writes the page.
func (g *Generator) render(name, kind, rel string, data any) error {
	content, err := g.execute(name, data)
	if err != nil {
		return err
	}
	return g.writePage(rel, kind, content)
}

func (g *Generator) execute(name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := g.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, errors.WrapError(err, errors.CategoryRender, fmt.Sprintf("failed to render template %s", name)).
			Fatal().
			Build()
	}
	return buf.Bytes(), nil
}
