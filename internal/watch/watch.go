// Package watch rebuilds the site when its inputs change.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/classdoc/internal/config"
	"git.home.luguber.info/inful/classdoc/internal/logfields"
)

// DefaultDebounce is the quiet period after the last change before a rebuild.
const DefaultDebounce = 500 * time.Millisecond

// Options configure a Watcher. Zero values are valid.
type Options struct {
	Debounce time.Duration
	Logger   *slog.Logger
}

// Watcher monitors a set of files and directories. Files are watched through
// their parent directory, which survives editors that replace files on save.
type Watcher struct {
	files    map[string]struct{}
	trees    map[string]struct{}
	debounce time.Duration
	logger   *slog.Logger
	fsw      *fsnotify.Watcher
}

// Inputs lists everything a build reads: the config file, the class model,
// the readme, the extra pages and the template directory.
func Inputs(cfg *config.Config, configPath string) []string {
	var paths []string
	add := func(p string) {
		if p != "" {
			paths = append(paths, p)
		}
	}
	add(configPath)
	add(cfg.Input)
	add(cfg.Readme)
	for _, extra := range cfg.Extras {
		add(extra)
	}
	add(cfg.Templates)
	return paths
}

// New creates a Watcher for paths. A path naming an existing directory
// matches every file inside it; any other path matches only itself.
func New(paths []string, opts Options) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	w := &Watcher{
		files:    make(map[string]struct{}),
		trees:    make(map[string]struct{}),
		debounce: opts.Debounce,
		logger:   opts.Logger,
		fsw:      fsw,
	}
	if w.debounce <= 0 {
		w.debounce = DefaultDebounce
	}
	if w.logger == nil {
		w.logger = slog.Default()
	}

	dirs := make(map[string]struct{})
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			_ = fsw.Close()
			return nil, fmt.Errorf("failed to resolve %s: %w", p, err)
		}
		if info, statErr := os.Stat(abs); statErr == nil && info.IsDir() {
			w.trees[abs] = struct{}{}
			dirs[abs] = struct{}{}
			continue
		}
		w.files[abs] = struct{}{}
		dirs[filepath.Dir(abs)] = struct{}{}
	}

	for _, dir := range sortedKeys(dirs) {
		if err := fsw.Add(dir); err != nil {
			w.logger.Warn("Cannot watch directory", logfields.Path(dir), logfields.Error(err))
			continue
		}
		w.logger.Debug("Watching directory", logfields.Path(dir))
	}
	return w, nil
}

// Close releases the underlying watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// matches reports whether an event for name concerns a watched input.
func (w *Watcher) matches(name string) bool {
	abs, err := filepath.Abs(name)
	if err != nil {
		return false
	}
	if _, ok := w.files[abs]; ok {
		return true
	}
	_, ok := w.trees[filepath.Dir(abs)]
	return ok
}

// Run calls rebuild after each burst of changes until ctx is done. Rebuilds
// never overlap; changes seen while one runs queue a single follow-up. A
// failing rebuild is logged and watching continues.
func (w *Watcher) Run(ctx context.Context, rebuild func(context.Context) error) error {
	rebuildReq := make(chan struct{}, 1)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.rebuildWorker(ctx, rebuildReq, rebuild)
	}()

	var mu sync.Mutex
	var timer *time.Timer
	trigger := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(w.debounce, func() {
			select {
			case rebuildReq <- struct{}{}:
			default:
			}
		})
	}
	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
		wg.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			if !w.matches(ev.Name) {
				continue
			}
			w.logger.Debug("Change detected", logfields.File(ev.Name), slog.String("op", ev.Op.String()))
			trigger()
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("Watcher error", logfields.Error(err))
		}
	}
}

func (w *Watcher) rebuildWorker(ctx context.Context, rebuildReq <-chan struct{}, rebuild func(context.Context) error) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-rebuildReq:
			w.logger.Info("Change detected; rebuilding")
			if err := rebuild(ctx); err != nil {
				w.logger.Warn("Rebuild failed", logfields.Error(err))
			}
		}
	}
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
