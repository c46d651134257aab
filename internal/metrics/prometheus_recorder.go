package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once          sync.Once
	stageDuration *prom.HistogramVec
	pageDuration  *prom.HistogramVec
	buildDuration prom.Histogram
	buildOutcome  *prom.CounterVec
	pagesRendered *prom.CounterVec
	pagesSkipped  *prom.CounterVec
	unresolved    *prom.CounterVec
	classes       prom.Gauge
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.stageDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "classdoc",
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual build stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"})
		pr.pageDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "classdoc",
			Name:      "page_stage_duration_seconds",
			Help:      "Duration of page generation stages within the generate stage",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"})
		pr.buildDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "classdoc",
			Name:      "build_duration_seconds",
			Help:      "Total build duration",
			Buckets:   prom.DefBuckets,
		})
		pr.buildOutcome = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "classdoc",
			Name:      "build_outcomes_total",
			Help:      "Build outcomes by final status",
		}, []string{"outcome"})
		pr.pagesRendered = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "classdoc",
			Name:      "pages_rendered_total",
			Help:      "Pages written to the output directory by page kind",
		}, []string{"kind"})
		pr.pagesSkipped = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "classdoc",
			Name:      "pages_unchanged_total",
			Help:      "Pages whose fingerprint matched the existing file and were not rewritten",
		}, []string{"kind"})
		pr.unresolved = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "classdoc",
			Name:      "unresolved_references_total",
			Help:      "References rendered as plain text because their target is unknown",
		}, []string{"kind"})
		pr.classes = prom.NewGauge(prom.GaugeOpts{
			Namespace: "classdoc",
			Name:      "classes",
			Help:      "Number of classes in the symbol table of the last build",
		})
		reg.MustRegister(pr.stageDuration, pr.pageDuration, pr.buildDuration, pr.buildOutcome, pr.pagesRendered, pr.pagesSkipped, pr.unresolved, pr.classes)
	})
	return pr
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil || p.stageDuration == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObservePageStageDuration(stage string, d time.Duration) {
	if p == nil || p.pageDuration == nil {
		return
	}
	p.pageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	if p == nil || p.buildDuration == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome BuildOutcome) {
	if p == nil || p.buildOutcome == nil {
		return
	}
	p.buildOutcome.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) IncPageRendered(kind string) {
	if p == nil || p.pagesRendered == nil {
		return
	}
	p.pagesRendered.WithLabelValues(kind).Inc()
}

func (p *PrometheusRecorder) IncPageSkipped(kind string) {
	if p == nil || p.pagesSkipped == nil {
		return
	}
	p.pagesSkipped.WithLabelValues(kind).Inc()
}

func (p *PrometheusRecorder) IncUnresolved(kind UnresolvedKind) {
	if p == nil || p.unresolved == nil {
		return
	}
	p.unresolved.WithLabelValues(string(kind)).Inc()
}

func (p *PrometheusRecorder) SetClassCount(n int) {
	if p == nil || p.classes == nil {
		return
	}
	p.classes.Set(float64(n))
}
