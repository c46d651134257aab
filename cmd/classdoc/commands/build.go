package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/classdoc/internal/build"
	"git.home.luguber.info/inful/classdoc/internal/config"
	"git.home.luguber.info/inful/classdoc/internal/logfields"
	"git.home.luguber.info/inful/classdoc/internal/metrics"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	BuildFlags

	Verify   bool `help:"Verify internal links after the build" xor:"verify"`
	NoVerify bool `name:"no-verify" help:"Skip link verification even if verify.enabled is set" xor:"verify"`
	Anchors  bool `help:"Also require #fragment targets to exist when verifying"`
	Strict   bool `help:"Fail when any reference cannot be resolved"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	cfg, logger, err := b.prepare(root)
	if err != nil {
		return err
	}
	opts := b.options()
	fmt.Fprintf(g.out(), "Building %s\n", cfg.Title)
	result, err := RunBuild(context.Background(), cfg, opts, logger)
	if result != nil {
		printSummary(g.out(), result)
	}
	return err
}

func (b *BuildCmd) options() build.BuildOptions {
	opts := build.BuildOptions{CheckFragments: b.Anchors, StrictReferences: b.Strict}
	switch {
	case b.Verify:
		on := true
		opts.Verify = &on
	case b.NoVerify:
		off := false
		opts.Verify = &off
	}
	return opts
}

// RunBuild executes one build and exports metrics when a textfile is
// configured.
func RunBuild(ctx context.Context, cfg *config.Config, opts build.BuildOptions, logger *slog.Logger) (*build.BuildResult, error) {
	var reg *prom.Registry
	var recorder metrics.Recorder = metrics.NoopRecorder{}
	if cfg.Metrics.Textfile != "" {
		reg = prom.NewRegistry()
		recorder = metrics.NewPrometheusRecorder(reg)
	}

	svc := build.NewBuildService().WithRecorder(recorder).WithLogger(logger)
	result, err := svc.Run(ctx, build.BuildRequest{Config: cfg, Options: opts})

	if reg != nil {
		if werr := metrics.WriteTextfile(cfg.Metrics.Textfile, reg); werr != nil {
			logger.Warn("Failed to write metrics textfile", logfields.Path(cfg.Metrics.Textfile), logfields.Error(werr))
		}
	}
	return result, err
}

func printSummary(w io.Writer, r *build.BuildResult) {
	switch r.Status {
	case build.BuildStatusFailed, build.BuildStatusCancelled:
		fmt.Fprintf(w, "Build %s after %s\n", r.Status, r.Duration.Round(time.Millisecond))
		return
	}
	fmt.Fprintf(w, "Documented %d classes into %s (%d pages written, %d unchanged, %d removed)\n",
		r.Classes, r.OutputPath, r.PagesWritten, r.PagesUnchanged, r.PagesRemoved)
	if r.Unresolved > 0 {
		fmt.Fprintf(w, "%d references could not be resolved\n", r.Unresolved)
	}
	if r.Links != nil {
		fmt.Fprintf(w, "Checked %d links on %d pages, %d broken\n", r.Links.Checked, r.Links.Pages, len(r.Links.Broken))
	}
	if r.DocsetPath != "" {
		fmt.Fprintf(w, "Docset written to %s\n", r.DocsetPath)
	}
	fmt.Fprintf(w, "Build %s in %s\n", r.Status, r.Duration.Round(time.Millisecond))
}
