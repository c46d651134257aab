package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.ObserveStageDuration("generate", 150*time.Millisecond)
	pr.ObservePageStageDuration("index", 20*time.Millisecond)
	pr.ObserveBuildDuration(500 * time.Millisecond)
	pr.IncBuildOutcome(OutcomeSuccess)
	pr.IncPageRendered("class")
	pr.IncPageRendered("class")
	pr.IncPageSkipped("index")
	pr.IncUnresolved(UnresolvedReference)
	pr.SetClassCount(42)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, mfs)

	assert.InDelta(t, 2, testutil.ToFloat64(pr.pagesRendered.WithLabelValues("class")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(pr.unresolved.WithLabelValues("reference")), 0)
	assert.InDelta(t, 42, testutil.ToFloat64(pr.classes), 0)
	assert.Equal(t, 1, testutil.CollectAndCount(pr.stageDuration))
	assert.Equal(t, 1, testutil.CollectAndCount(pr.pageDuration))
}

func TestPrometheusRecorder_PageStagesKeptApartFromBuildStages(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.ObserveStageDuration("index", time.Millisecond)
	pr.ObservePageStageDuration("index", time.Millisecond)
	pr.ObservePageStageDuration("index", time.Millisecond)

	path := filepath.Join(t.TempDir(), "classdoc.prom")
	require.NoError(t, WriteTextfile(path, reg))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `classdoc_stage_duration_seconds_count{stage="index"} 1`)
	assert.Contains(t, string(data), `classdoc_page_stage_duration_seconds_count{stage="index"} 2`)
}

func TestNilPrometheusRecorderIsSafe(t *testing.T) {
	var pr *PrometheusRecorder
	pr.IncPageRendered("class")
	pr.IncUnresolved(UnresolvedLink)
	pr.ObserveBuildDuration(time.Second)
}

func TestNoopRecorderSatisfiesInterface(t *testing.T) {
	var r Recorder = NoopRecorder{}
	r.IncPageRendered("class")
	r.SetClassCount(1)
}

func TestWriteTextfile(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.IncBuildOutcome(OutcomeWarning)

	path := filepath.Join(t.TempDir(), "metrics", "classdoc.prom")
	require.NoError(t, WriteTextfile(path, reg))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `classdoc_build_outcomes_total{outcome="warning"} 1`))
}
