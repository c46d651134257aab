package watch

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/classdoc/internal/config"
)

type harness struct {
	dir    string
	builds atomic.Int32
	cancel context.CancelFunc
	done   chan error
}

func start(t *testing.T, paths []string, dir string, rebuild func(context.Context) error) *harness {
	t.Helper()
	h := &harness{dir: dir, done: make(chan error, 1)}
	w, err := New(paths, Options{
		Debounce: 100 * time.Millisecond,
		Logger:   slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	if rebuild == nil {
		rebuild = func(context.Context) error { return nil }
	}
	go func() {
		h.done <- w.Run(ctx, func(ctx context.Context) error {
			h.builds.Add(1)
			return rebuild(ctx)
		})
	}()
	t.Cleanup(func() {
		cancel()
		<-h.done
	})
	return h
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestInputs(t *testing.T) {
	cfg := config.Default()
	cfg.Input = "model.yaml"
	cfg.Readme = "README.md"
	cfg.Extras = []string{"CHANGELOG.md", "docs/guide.md"}
	cfg.Templates = "templates"

	assert.Equal(t,
		[]string{"classdoc.yaml", "model.yaml", "README.md", "CHANGELOG.md", "docs/guide.md", "templates"},
		Inputs(cfg, "classdoc.yaml"))

	cfg.Templates = ""
	cfg.Extras = nil
	assert.Equal(t, []string{"model.yaml", "README.md"}, Inputs(cfg, ""))
}

func TestRun_DebouncesBurstIntoOneRebuild(t *testing.T) {
	dir := t.TempDir()
	model := filepath.Join(dir, "classes.yaml")
	writeFile(t, model, "classes: []\n")
	h := start(t, []string{model}, dir, nil)

	for i := range 5 {
		writeFile(t, model, "classes: []\n# "+string(rune('a'+i))+"\n")
	}

	require.Eventually(t, func() bool { return h.builds.Load() == 1 }, 3*time.Second, 10*time.Millisecond)
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int32(1), h.builds.Load())
}

func TestRun_IgnoresUnrelatedFiles(t *testing.T) {
	dir := t.TempDir()
	model := filepath.Join(dir, "classes.yaml")
	writeFile(t, model, "classes: []\n")
	h := start(t, []string{model}, dir, nil)

	writeFile(t, filepath.Join(dir, "notes.txt"), "unrelated")
	time.Sleep(400 * time.Millisecond)
	assert.Zero(t, h.builds.Load())
}

func TestRun_WatchesDirectoryTrees(t *testing.T) {
	dir := t.TempDir()
	templates := filepath.Join(dir, "templates")
	require.NoError(t, os.MkdirAll(templates, 0o750))
	h := start(t, []string{templates}, dir, nil)

	writeFile(t, filepath.Join(templates, "class.tmpl"), "{{define \"class.tmpl\"}}{{end}}")
	require.Eventually(t, func() bool { return h.builds.Load() >= 1 }, 3*time.Second, 10*time.Millisecond)
}

func TestRun_DetectsFileCreatedAfterStart(t *testing.T) {
	dir := t.TempDir()
	readme := filepath.Join(dir, "README.md")
	h := start(t, []string{readme}, dir, nil)

	writeFile(t, readme, "# Hello\n")
	require.Eventually(t, func() bool { return h.builds.Load() >= 1 }, 3*time.Second, 10*time.Millisecond)
}

func TestRun_FailedRebuildKeepsWatching(t *testing.T) {
	dir := t.TempDir()
	model := filepath.Join(dir, "classes.yaml")
	writeFile(t, model, "classes: []\n")
	h := start(t, []string{model}, dir, func(context.Context) error {
		return errors.New("boom")
	})

	writeFile(t, model, "classes: [1]\n")
	require.Eventually(t, func() bool { return h.builds.Load() == 1 }, 3*time.Second, 10*time.Millisecond)

	writeFile(t, model, "classes: [2]\n")
	require.Eventually(t, func() bool { return h.builds.Load() == 2 }, 3*time.Second, 10*time.Millisecond)
}

func TestRun_RebuildsDoNotOverlap(t *testing.T) {
	dir := t.TempDir()
	model := filepath.Join(dir, "classes.yaml")
	writeFile(t, model, "classes: []\n")

	var mu sync.Mutex
	active, maxActive := 0, 0
	release := make(chan struct{})
	h := start(t, []string{model}, dir, func(ctx context.Context) error {
		mu.Lock()
		active++
		maxActive = max(maxActive, active)
		mu.Unlock()
		select {
		case <-release:
		case <-ctx.Done():
		}
		mu.Lock()
		active--
		mu.Unlock()
		return nil
	})

	writeFile(t, model, "classes: [1]\n")
	require.Eventually(t, func() bool { return h.builds.Load() == 1 }, 3*time.Second, 10*time.Millisecond)

	// Two bursts while the first rebuild is blocked collapse into one follow-up.
	writeFile(t, model, "classes: [2]\n")
	time.Sleep(250 * time.Millisecond)
	writeFile(t, model, "classes: [3]\n")
	time.Sleep(250 * time.Millisecond)
	close(release)

	require.Eventually(t, func() bool { return h.builds.Load() == 2 }, 3*time.Second, 10*time.Millisecond)
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int32(2), h.builds.Load())
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, maxActive)
}

func TestRun_StopsOnCancel(t *testing.T) {
	dir := t.TempDir()
	h := start(t, []string{filepath.Join(dir, "classes.yaml")}, dir, nil)
	h.cancel()
	select {
	case err := <-h.done:
		require.NoError(t, err)
		h.done <- err
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
