package generator

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/classdoc/internal/config"
	"git.home.luguber.info/inful/classdoc/internal/gitinfo"
	"git.home.luguber.info/inful/classdoc/internal/linkverify"
	"git.home.luguber.info/inful/classdoc/internal/metrics"
	"git.home.luguber.info/inful/classdoc/internal/model"
	"git.home.luguber.info/inful/classdoc/internal/resolver"
	"git.home.luguber.info/inful/classdoc/internal/symtab"
)

const testModel = `
classes:
  - qualified_name: Geo.Shapes.Shape
    file: src/geo/shape.coffee
    doc:
      comment: "Base of every shape, see {Circle} and {#area}."
    methods:
      - name: constructor
      - name: area
        doc:
          comment: Computes the area.
          returns:
            type: Number
      - name: create
        type: class
        params:
          - name: kind
            type: String
    variables:
      - name: SIDES
        constant: true
        value: "0"
  - qualified_name: Geo.Shapes.Circle
    parent: Shape
    methods:
      - name: radius
        doc:
          deprecated: Use {Shape#area} instead.
  - qualified_name: Geo.Shapes.Shape.Internal.Thing
  - qualified_name: Geo.Util.Tools.Helper
    parent: Missing.Base
  - qualified_name: _Private
`

type fixture struct {
	cfg  *config.Config
	res  *resolver.Resolver
	tbl  *symtab.Table
	logs *bytes.Buffer
	dir  string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	write := func(rel, content string) {
		p := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	}
	write("README.md", "---\ntitle: Welcome\n---\n# Hello\n\nSome *intro*.\n")
	write("CHANGELOG.md", "# Changes\n")
	write("docs/notes.txt", "plain <text>\n")

	t.Chdir(dir)

	cfg := config.Default()
	cfg.Title = "Geo API"
	cfg.Readme = "README.md"
	cfg.Extras = []string{"CHANGELOG.md", "MISSING.md"}
	cfg.Output.Directory = filepath.Join(dir, "out")

	m, err := model.Parse([]byte(testModel))
	require.NoError(t, err)

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	table, err := symtab.Build(m.Classes, symtab.WithLogger(logger))
	require.NoError(t, err)
	res := resolver.New(table, resolver.Options{Logger: logger})
	return &fixture{cfg: cfg, res: res, tbl: table, logs: &logs, dir: dir}
}

func (f *fixture) generate(t *testing.T, opts Options) *Result {
	t.Helper()
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(f.logs, nil))
	}
	g, err := New(f.cfg, f.tbl, f.res, opts)
	require.NoError(t, err)
	result, err := g.Generate(context.Background())
	require.NoError(t, err)
	return result
}

func (f *fixture) read(t *testing.T, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(f.cfg.Output.Directory, filepath.FromSlash(rel)))
	require.NoError(t, err, rel)
	return string(data)
}

func TestGenerate_EmitsSite(t *testing.T) {
	f := newFixture(t)
	result := f.generate(t, Options{Source: &gitinfo.Info{Commit: "0123456789abcdef", Branch: "main"}})

	for _, page := range []string{
		"frames.html", "index.html", "class_index.html", "class_list.html",
		"method_list.html", "file_list.html", "assets/classdoc.css", "assets/classdoc.js",
		"classes/Geo/Shapes/Shape.html", "classes/Geo/Shapes/Circle.html",
		"classes/Geo/Shapes/Shape/Internal/Thing.html", "classes/Geo/Util/Tools/Helper.html",
		"classes/_Private.html",
	} {
		assert.FileExists(t, filepath.Join(f.cfg.Output.Directory, filepath.FromSlash(page)))
	}
	assert.Equal(t, len(result.Manifest.Outputs.Pages), result.Written)
	assert.Zero(t, result.Unchanged)
	assert.Equal(t, 5, result.Manifest.Stats.Classes)

	assert.Contains(t, f.logs.String(), "Cannot generate extra file")
	assert.Contains(t, f.logs.String(), "MISSING.md")

	index := f.read(t, "index.html")
	assert.Contains(t, index, "<h1>Welcome</h1>")
	assert.Contains(t, index, `<h1 id="hello">Hello</h1>`)
	assert.Contains(t, index, "main@0123456")
}

func TestGenerate_ClassPage(t *testing.T) {
	f := newFixture(t)
	f.generate(t, Options{})

	shape := f.read(t, "classes/Geo/Shapes/Shape.html")
	assert.Contains(t, shape, `href="../../../class_index.html#ns-Geo"`)
	assert.Contains(t, shape, `href="../../../class_index.html#ns-Geo.Shapes"`)
	assert.Contains(t, shape, `<a href="../../../classes/Geo/Shapes/Circle.html">Circle</a>`)
	assert.Contains(t, shape, `<a href="../../../classes/Geo/Shapes/Shape.html#area-instance">#area</a>`)
	assert.Contains(t, shape, `id="area-instance"`)
	assert.Contains(t, shape, `id="create-class"`)
	assert.Contains(t, shape, `id="SIDES-constant"`)
	assert.Contains(t, shape, `id="ns-Geo.Shapes.Shape.Internal"`)
	assert.Contains(t, shape, "src/geo/shape.coffee")
	assert.Contains(t, shape, "Direct Known Subclasses")

	circle := f.read(t, "classes/Geo/Shapes/Circle.html")
	assert.Contains(t, circle, `<a href="../../../classes/Geo/Shapes/Shape.html">Geo.Shapes.Shape</a>`)
	assert.Contains(t, circle, "Methods inherited from")
	assert.Contains(t, circle, `href="../../../classes/Geo/Shapes/Shape.html#area-instance">#area</a>`)
	assert.Contains(t, circle, `href="../../../classes/Geo/Shapes/Shape.html#create-class">.create</a>`)
	assert.Contains(t, circle, `href="../../../classes/Geo/Shapes/Shape.html#SIDES-constant">SIDES</a>`)
	assert.Contains(t, circle, "<strong>Deprecated:</strong>")

	helper := f.read(t, "classes/Geo/Util/Tools/Helper.html")
	assert.Contains(t, helper, "Missing.Base")
	assert.NotContains(t, helper, "Methods inherited from")
}

func TestGenerate_Lists(t *testing.T) {
	f := newFixture(t)
	f.generate(t, Options{})

	methods := f.read(t, "method_list.html")
	assert.NotContains(t, methods, "constructor")
	area := bytes.Index([]byte(methods), []byte("#area-instance"))
	create := bytes.Index([]byte(methods), []byte("#create-class"))
	radius := bytes.Index([]byte(methods), []byte("#radius-instance"))
	require.Positive(t, area)
	assert.Less(t, area, create)
	assert.Less(t, create, radius)
	assert.Contains(t, methods, `<li class="deprecated">`)

	index := f.read(t, "class_index.html")
	assert.Contains(t, index, `id="letter-c"`)
	assert.Contains(t, index, `id="letter-other"`)
	assert.Contains(t, index, `id="ns-Geo.Util.Tools"`)
	assert.NotContains(t, index, `id="ns-Geo.Shapes.Shape.Internal"`)
	assert.Contains(t, index, "README.md.html")
	assert.NotContains(t, index, "MISSING.md")

	list := f.read(t, "class_list.html")
	assert.Contains(t, list, `href="classes/Geo/Shapes/Circle.html"`)
	assert.Contains(t, list, `<span class="namespace">Geo</span>`)
}

func TestGenerate_LinksVerify(t *testing.T) {
	f := newFixture(t)
	f.cfg.Extras = append(f.cfg.Extras, "docs/notes.txt")
	f.generate(t, Options{})

	notes := f.read(t, "docs/notes.txt.html")
	assert.Contains(t, notes, "plain &lt;text&gt;")
	assert.Contains(t, notes, `href="../assets/classdoc.css"`)

	report, err := linkverify.Verify(context.Background(), f.cfg.Output.Directory, linkverify.Options{CheckFragments: true})
	require.NoError(t, err)
	assert.True(t, report.OK(), "broken links: %+v", report.Broken)
	assert.Positive(t, report.Checked)
}

type pageCounter struct {
	metrics.NoopRecorder
	rendered, skipped int
}

func (p *pageCounter) IncPageRendered(string) { p.rendered++ }
func (p *pageCounter) IncPageSkipped(string)  { p.skipped++ }

type stageRecorder struct {
	metrics.NoopRecorder
	build, pages []string
}

func (s *stageRecorder) ObserveStageDuration(stage string, _ time.Duration) {
	s.build = append(s.build, stage)
}

func (s *stageRecorder) ObservePageStageDuration(stage string, _ time.Duration) {
	s.pages = append(s.pages, stage)
}

func TestGenerate_RecordsPageStagesSeparately(t *testing.T) {
	f := newFixture(t)
	rec := &stageRecorder{}
	f.generate(t, Options{Recorder: rec})

	assert.Empty(t, rec.build)
	assert.Equal(t, []string{
		"frames", "readme", "classes", "extras", "index",
		"class_list", "method_list", "file_list", "assets",
	}, rec.pages)
}

func TestGenerate_SkipsUnchangedAndRemovesStale(t *testing.T) {
	f := newFixture(t)
	first := f.generate(t, Options{})

	rec := &pageCounter{}
	second := f.generate(t, Options{Previous: first.Manifest, Recorder: rec})
	assert.Zero(t, second.Written)
	assert.Equal(t, first.Written, second.Unchanged)
	assert.Equal(t, first.Written, rec.skipped)

	changelog := filepath.Join(f.cfg.Output.Directory, filePage(f.cfg.Extras[0]))
	require.FileExists(t, changelog)
	f.cfg.Extras = nil
	f.cfg.Title = "Renamed"
	third := f.generate(t, Options{Previous: second.Manifest})
	assert.Equal(t, 1, third.Removed)
	assert.NoFileExists(t, changelog)
	assert.Positive(t, third.Written)
}

func TestGenerate_Canceled(t *testing.T) {
	f := newFixture(t)
	g, err := New(f.cfg, f.tbl, f.res, Options{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = g.Generate(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestNew_TemplateOverride(t *testing.T) {
	f := newFixture(t)
	tmplDir := filepath.Join(f.dir, "theme")
	require.NoError(t, os.MkdirAll(tmplDir, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(tmplDir, "frames.tmpl"), []byte("custom {{.Project}}"), 0o600))
	f.cfg.Templates = tmplDir

	f.generate(t, Options{})
	assert.Equal(t, "custom Geo API", f.read(t, "frames.html"))
}

func TestFilePage(t *testing.T) {
	assert.Equal(t, "README.md.html", filePage("README.md"))
	assert.Equal(t, "docs/GUIDE.md.html", filePage("./docs/GUIDE.md"))
	assert.Equal(t, "CHANGES.md.html", filePage("../CHANGES.md"))
}

func TestIndexLetter(t *testing.T) {
	assert.Equal(t, "s", indexLetter("Shape"))
	assert.Equal(t, "s", indexLetter("shape"))
	assert.Equal(t, otherLetter, indexLetter("_Private"))
	assert.Equal(t, otherLetter, indexLetter(""))
}
