package commands

import (
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/classdoc/internal/config"
	"git.home.luguber.info/inful/classdoc/internal/foundation/errors"
	"git.home.luguber.info/inful/classdoc/internal/logfields"
)

// DefaultConfigPath is used when --config is not given.
const DefaultConfigPath = "classdoc.yaml"

// Global is shared state passed to every subcommand.
type Global struct {
	// Out receives user-facing messages.
	Out io.Writer
}

func (g *Global) out() io.Writer {
	if g == nil || g.Out == nil {
		return os.Stdout
	}
	return g.Out
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"classdoc.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build BuildCmd `cmd:"" default:"withargs" help:"Render the documentation site"`
	Watch WatchCmd `cmd:"" help:"Rebuild whenever the class model, config or pages change"`
	Check CheckCmd `cmd:"" help:"Verify the links of an already generated site"`
	Init  InitCmd  `cmd:"" help:"Write a default configuration file"`
}

// AfterApply runs after flag parsing and installs a text logger on stderr.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return nil
}

// newLogger builds the logger selected by the configuration. --verbose wins
// over the configured level.
func newLogger(w io.Writer, cfg config.LoggingConfig, verbose bool) *slog.Logger {
	level := config.NormalizeLogLevel(cfg.Level).SlogLevel()
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if config.NormalizeLogFormat(cfg.Format) == config.LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// loadConfig reads the configuration file. A missing file at the default
// location is not an error: the defaults describe a conventional project.
func loadConfig(root *CLI) (*config.Config, error) {
	cfg, err := config.Load(root.Config)
	if err == nil {
		return cfg, nil
	}
	if errors.HasCategory(err, errors.CategoryNotFound) && root.Config == DefaultConfigPath {
		slog.Debug("No configuration file; using defaults", logfields.Path(root.Config))
		return config.Default(), nil
	}
	return nil, err
}

// BuildFlags override configuration values for one run.
type BuildFlags struct {
	Input       string `short:"i" help:"Class model file (overrides input)"`
	Output      string `short:"o" help:"Output directory (overrides output.directory)"`
	Title       string `short:"t" help:"Site title (overrides title)"`
	Readme      string `short:"r" help:"Readme file (overrides readme)"`
	Clean       bool   `help:"Remove the output directory before building"`
	Docset      bool   `help:"Write the SQLite search index"`
	MetricsFile string `name:"metrics-file" help:"Write Prometheus metrics to this textfile"`
}

// apply copies set flags into cfg and revalidates it.
func (f *BuildFlags) apply(cfg *config.Config) error {
	if f.Input != "" {
		cfg.Input = f.Input
	}
	if f.Output != "" {
		cfg.Output.Directory = f.Output
	}
	if f.Title != "" {
		cfg.Title = f.Title
	}
	if f.Readme != "" {
		cfg.Readme = f.Readme
	}
	if f.Clean {
		cfg.Output.Clean = true
	}
	if f.Docset {
		cfg.Docset.Enabled = true
	}
	if f.MetricsFile != "" {
		cfg.Metrics.Textfile = f.MetricsFile
	}
	return cfg.Validate()
}

// prepare loads the configuration, applies flags and installs the
// configured logger as default.
func (f *BuildFlags) prepare(root *CLI) (*config.Config, *slog.Logger, error) {
	cfg, err := loadConfig(root)
	if err != nil {
		return nil, nil, err
	}
	if err := f.apply(cfg); err != nil {
		return nil, nil, err
	}
	logger := newLogger(os.Stderr, cfg.Logging, root.Verbose)
	slog.SetDefault(logger)
	return cfg, logger, nil
}
