package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/classdoc/internal/config"
	"git.home.luguber.info/inful/classdoc/internal/foundation/errors"
)

const model = `
classes:
  - qualified_name: Shop.Cart
    doc:
      comment: Holds {Shop.Item} instances.
    methods:
      - name: add
        params:
          - name: item
            type: Shop.Item
  - qualified_name: Shop.Item
`

// project creates a working directory holding a class model and a readme.
func project(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.DefaultInput), []byte(model), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.DefaultReadme), []byte("# Shop\n"), 0o600))
	t.Chdir(dir)
	return dir
}

func parse(t *testing.T, args ...string) (*CLI, *kong.Context) {
	t.Helper()
	var cli CLI
	parser, err := kong.New(&cli, kong.Name("classdoc"), kong.Vars{"version": "test"})
	require.NoError(t, err)
	ctx, err := parser.Parse(args)
	require.NoError(t, err)
	return &cli, ctx
}

func TestParse_BuildFlags(t *testing.T) {
	cli, ctx := parse(t, "build", "-o", "site", "--title", "Shop", "--no-verify", "--anchors")

	assert.Equal(t, "build", ctx.Command())
	assert.Equal(t, DefaultConfigPath, cli.Config)
	assert.Equal(t, "site", cli.Build.Output)
	assert.Equal(t, "Shop", cli.Build.Title)
	assert.True(t, cli.Build.NoVerify)

	opts := cli.Build.options()
	require.NotNil(t, opts.Verify)
	assert.False(t, *opts.Verify)
	assert.True(t, opts.CheckFragments)
}

func TestParse_VerifyFlagsAreExclusive(t *testing.T) {
	var cli CLI
	parser, err := kong.New(&cli, kong.Vars{"version": "test"})
	require.NoError(t, err)
	_, err = parser.Parse([]string{"build", "--verify", "--no-verify"})
	require.Error(t, err)
}

func TestParse_WatchDebounce(t *testing.T) {
	cli, ctx := parse(t, "watch", "--debounce", "2s")
	assert.Equal(t, "watch", ctx.Command())
	assert.Equal(t, 2*time.Second, cli.Watch.Debounce)

	cli, _ = parse(t, "watch")
	assert.Equal(t, 500*time.Millisecond, cli.Watch.Debounce)
}

func TestBuildCmd_Run(t *testing.T) {
	dir := project(t)
	var out bytes.Buffer
	cmd := &BuildCmd{
		BuildFlags: BuildFlags{
			Output:      "site",
			Title:       "Shop API",
			Docset:      true,
			MetricsFile: filepath.Join("metrics", "classdoc.prom"),
		},
		Verify:  true,
		Anchors: true,
	}

	require.NoError(t, cmd.Run(&Global{Out: &out}, &CLI{Config: DefaultConfigPath}))

	assert.FileExists(t, filepath.Join(dir, "site", "index.html"))
	assert.FileExists(t, filepath.Join(dir, "site", "classes", "Shop", "Cart.html"))
	assert.FileExists(t, filepath.Join(dir, "site", config.DefaultDocsetFilename))
	assert.Contains(t, out.String(), "Building Shop API")
	assert.Contains(t, out.String(), "Documented 2 classes")
	assert.Contains(t, out.String(), "0 broken")

	prom, err := os.ReadFile(filepath.Join(dir, "metrics", "classdoc.prom"))
	require.NoError(t, err)
	assert.Contains(t, string(prom), `classdoc_build_outcomes_total{outcome="success"} 1`)
	assert.Contains(t, string(prom), "classdoc_classes 2")
}

func TestBuildCmd_ExplicitConfigMustExist(t *testing.T) {
	project(t)
	err := (&BuildCmd{}).Run(&Global{Out: &bytes.Buffer{}}, &CLI{Config: "custom.yaml"})
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryNotFound))
}

func TestBuildCmd_ReadsConfigFile(t *testing.T) {
	dir := project(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "custom.yaml"),
		[]byte("title: From File\noutput:\n  directory: public\n"), 0o600))

	var out bytes.Buffer
	require.NoError(t, (&BuildCmd{}).Run(&Global{Out: &out}, &CLI{Config: "custom.yaml"}))
	assert.FileExists(t, filepath.Join(dir, "public", "index.html"))
	assert.Contains(t, out.String(), "Building From File")
}

func TestBuildCmd_StrictFailsOnUnresolved(t *testing.T) {
	dir := project(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.DefaultInput),
		[]byte("classes:\n  - qualified_name: A\n    doc:\n      comment: See {B}.\n"), 0o600))

	err := (&BuildCmd{Strict: true}).Run(&Global{Out: &bytes.Buffer{}}, &CLI{Config: DefaultConfigPath})
	require.Error(t, err)
	assert.Equal(t, 2, errors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))
}

func TestBuildFlags_ApplyRevalidates(t *testing.T) {
	cfg := config.Default()
	err := (&BuildFlags{Output: "/"}).apply(cfg)
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryValidation))
}

func TestCheckCmd(t *testing.T) {
	dir := project(t)
	g := &Global{Out: &bytes.Buffer{}}
	root := &CLI{Config: DefaultConfigPath}
	require.NoError(t, (&BuildCmd{}).Run(g, root))

	var out bytes.Buffer
	require.NoError(t, (&CheckCmd{Anchors: true}).Run(&Global{Out: &out}, root))
	assert.Contains(t, out.String(), "0 broken")

	broken := `<html><body><a href="classes/Shop/Gone.html">gone</a></body></html>`
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.DefaultOutput, "extra.html"), []byte(broken), 0o600))

	out.Reset()
	err := (&CheckCmd{Output: config.DefaultOutput}).Run(&Global{Out: &out}, root)
	require.Error(t, err)
	assert.Equal(t, 6, errors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))
	assert.Contains(t, out.String(), "extra.html: classes/Shop/Gone.html")
}

func TestInitCmd(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer
	cmd := &InitCmd{Output: dir}

	require.NoError(t, cmd.Run(&Global{Out: &out}, &CLI{Config: DefaultConfigPath}))
	assert.FileExists(t, filepath.Join(dir, DefaultConfigPath))
	assert.Contains(t, out.String(), "Initialized successfully")

	err := cmd.Run(&Global{Out: &out}, &CLI{Config: DefaultConfigPath})
	require.Error(t, err)
	assert.Contains(t, out.String(), "Initialization failed")

	cmd.Force = true
	require.NoError(t, cmd.Run(&Global{Out: &out}, &CLI{Config: DefaultConfigPath}))

	cfg, err := config.Load(filepath.Join(dir, DefaultConfigPath))
	require.NoError(t, err)
	assert.True(t, cfg.Docset.Enabled)
}

func TestWatchCmd_BuildsAndRebuilds(t *testing.T) {
	dir := project(t)
	index := filepath.Join(dir, config.DefaultOutput, "class_index.html")
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	cmd := &WatchCmd{Debounce: 50 * time.Millisecond}
	go func() {
		done <- cmd.run(ctx, &Global{Out: &bytes.Buffer{}}, &CLI{Config: DefaultConfigPath})
	}()

	require.Eventually(t, func() bool { return fileContains(index, "Cart") }, 5*time.Second, 20*time.Millisecond)

	updated := model + "  - qualified_name: Shop.Order\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.DefaultInput), []byte(updated), 0o600))
	require.Eventually(t, func() bool { return fileContains(index, "Order") }, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, config.LoggingConfig{Level: "warn", Format: "json"}, false)
	logger.Info("hidden")
	logger.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)

	buf.Reset()
	newLogger(&buf, config.LoggingConfig{Level: "error"}, true).Debug("verbose wins")
	assert.Contains(t, buf.String(), "verbose wins")
}

func fileContains(path, substr string) bool {
	data, err := os.ReadFile(path)
	return err == nil && bytes.Contains(data, []byte(substr))
}
