package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"git.home.luguber.info/inful/classdoc/internal/build"
	"git.home.luguber.info/inful/classdoc/internal/logfields"
	"git.home.luguber.info/inful/classdoc/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	BuildFlags

	Debounce time.Duration `help:"Quiet period after the last change before rebuilding" default:"500ms"`
}

func (w *WatchCmd) Run(g *Global, root *CLI) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return w.run(ctx, g, root)
}

func (w *WatchCmd) run(ctx context.Context, g *Global, root *CLI) error {
	cfg, logger, err := w.prepare(root)
	if err != nil {
		return err
	}

	watcher, err := watch.New(watch.Inputs(cfg, root.Config), watch.Options{
		Debounce: w.Debounce,
		Logger:   logger,
	})
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	rebuild := func(ctx context.Context) error {
		// The configuration is reread so edits to it take effect; a broken
		// edit keeps the last good configuration.
		next, _, err := w.prepare(root)
		if err != nil {
			logger.Warn("Keeping previous configuration", logfields.Error(err))
			next = cfg
		}
		result, err := RunBuild(ctx, next, build.BuildOptions{}, logger)
		if result != nil {
			printSummary(g.out(), result)
		}
		return err
	}

	fmt.Fprintf(g.out(), "Watching %s; press Ctrl+C to stop\n", cfg.Input)
	if err := rebuild(ctx); err != nil {
		logger.Warn("Initial build failed; waiting for changes", logfields.Error(err))
	}
	if err := watcher.Run(ctx, rebuild); err != nil {
		return err
	}
	slog.Info("Watch stopped")
	return nil
}
