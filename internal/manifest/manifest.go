// Package manifest records what a documentation build consumed and produced.
// The manifest written next to the generated pages lets the next build skip
// rewriting pages whose content fingerprint is unchanged.
package manifest

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/inful/mdfp"

	"git.home.luguber.info/inful/classdoc/internal/gitinfo"
)

// Filename is the manifest's name inside the output directory.
const Filename = "manifest.json"

// Build status values.
const (
	StatusSuccess = "success"
	StatusWarning = "warning"
	StatusFailed  = "failed"
)

// BuildManifest represents a complete record of a build's inputs and outputs.
type BuildManifest struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Inputs    Inputs    `json:"inputs"`
	Outputs   Outputs   `json:"outputs"`
	Stats     Stats     `json:"stats"`
	Status    string    `json:"status"`
	Duration  int64     `json:"duration_ms"`
}

// Inputs captures all inputs to the build.
type Inputs struct {
	ModelPath  string        `json:"model_path"`
	ModelHash  string        `json:"model_hash"`
	ConfigHash string        `json:"config_hash,omitempty"`
	Source     *gitinfo.Info `json:"source,omitempty"`
}

// Outputs maps every written page (relative to the output root, slash
// separated) to its content fingerprint.
type Outputs struct {
	Pages  map[string]string `json:"pages"`
	Docset string            `json:"docset,omitempty"`
}

// Stats summarizes the build.
type Stats struct {
	Classes        int `json:"classes"`
	PagesWritten   int `json:"pages_written"`
	PagesUnchanged int `json:"pages_unchanged"`
	Unresolved     int `json:"unresolved"`
}

// New starts a manifest with a fresh build ID.
func New(now time.Time) *BuildManifest {
	return &BuildManifest{
		ID:        uuid.NewString(),
		Timestamp: now.UTC(),
		Outputs:   Outputs{Pages: map[string]string{}},
	}
}

// Fingerprint computes the content fingerprint of a page.
func Fingerprint(page string, content []byte) string {
	return mdfp.CalculateFingerprintFromParts("page: "+page, string(content))
}

// HashBytes is the hex SHA-256 of data, used for input files.
func HashBytes(data []byte) string {
	return fmt.Sprintf("%x", sha256.Sum256(data))
}

// RecordPage stores the fingerprint of a page produced by this build.
func (m *BuildManifest) RecordPage(page, fingerprint string) {
	if m.Outputs.Pages == nil {
		m.Outputs.Pages = map[string]string{}
	}
	m.Outputs.Pages[page] = fingerprint
}

// PageFingerprint returns the recorded fingerprint of page.
func (m *BuildManifest) PageFingerprint(page string) (string, bool) {
	if m == nil {
		return "", false
	}
	fp, ok := m.Outputs.Pages[page]
	return fp, ok
}

// Pages returns the recorded page paths in sorted order.
func (m *BuildManifest) Pages() []string {
	out := make([]string, 0, len(m.Outputs.Pages))
	for p := range m.Outputs.Pages {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Stale lists pages recorded in previous that this build did not produce.
func (m *BuildManifest) Stale(previous *BuildManifest) []string {
	if previous == nil {
		return nil
	}
	var out []string
	for _, p := range previous.Pages() {
		if _, ok := m.Outputs.Pages[p]; !ok {
			out = append(out, p)
		}
	}
	return out
}

// ToJSON serializes the manifest to JSON.
func (m *BuildManifest) ToJSON() ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}
	return data, nil
}

// FromJSON deserializes a manifest from JSON.
func FromJSON(data []byte) (*BuildManifest, error) {
	var m BuildManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal manifest: %w", err)
	}
	if m.Outputs.Pages == nil {
		m.Outputs.Pages = map[string]string{}
	}
	return &m, nil
}

// Hash computes a deterministic hash of the manifest's inputs. Two builds
// with the same hash were fed identical model, config and source revision.
func (m *BuildManifest) Hash() (string, error) {
	data, err := json.Marshal(m.Inputs)
	if err != nil {
		return "", fmt.Errorf("marshal for hash: %w", err)
	}
	return HashBytes(data), nil
}

// Read loads the manifest stored in outputDir. A missing manifest is not an
// error and yields nil.
func Read(outputDir string) (*BuildManifest, error) {
	data, err := os.ReadFile(filepath.Join(outputDir, Filename))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return FromJSON(data)
}

// Write stores the manifest in outputDir.
func (m *BuildManifest) Write(outputDir string) error {
	data, err := m.ToJSON()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(outputDir, 0o750); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(outputDir, Filename), data, 0o600); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}
