package generator

import (
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/classdoc/internal/foundation/errors"
	"git.home.luguber.info/inful/classdoc/internal/logfields"
	"git.home.luguber.info/inful/classdoc/internal/manifest"
)

// writePage stores content at rel (slash separated, relative to the output
// directory) unless the previous build wrote identical content there.
func (g *Generator) writePage(rel, kind string, content []byte) error {
	fp := manifest.Fingerprint(rel, content)
	g.manifest.RecordPage(rel, fp)

	full := g.outputPath(rel)
	if prev, ok := g.previous.PageFingerprint(rel); ok && prev == fp && fileExists(full) {
		g.result.Unchanged++
		g.recorder.IncPageSkipped(kind)
		g.logger.Debug("Page unchanged", logfields.Page(rel))
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to create page directory").
			WithContext("path", filepath.Dir(full)).
			Build()
	}
	if err := os.WriteFile(full, content, 0o644); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to write page").
			WithContext("path", full).
			Build()
	}
	g.result.Written++
	g.recorder.IncPageRendered(kind)
	return nil
}

// removeStale deletes pages the previous build produced that this build did
// not. Empty directories left behind are removed as well.
func (g *Generator) removeStale() {
	for _, rel := range g.manifest.Stale(g.previous) {
		full := g.outputPath(rel)
		if err := os.Remove(full); err != nil {
			if !os.IsNotExist(err) {
				g.logger.Warn("Failed to remove stale page", logfields.Page(rel), logfields.Error(err))
			}
			continue
		}
		g.result.Removed++
		g.logger.Debug("Removed stale page", logfields.Page(rel))

		root := filepath.Clean(g.cfg.Output.Directory)
		for dir := filepath.Dir(full); dir != root && strings.HasPrefix(dir, root); dir = filepath.Dir(dir) {
			if os.Remove(dir) != nil {
				break
			}
		}
	}
}

func (g *Generator) outputPath(rel string) string {
	return filepath.Join(g.cfg.Output.Directory, filepath.FromSlash(rel))
}

func fileExists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}
