package metrics

import "time"

// UnresolvedKind enumerates the kinds of references that failed to resolve.
type UnresolvedKind string

const (
	UnresolvedLink      UnresolvedKind = "link"
	UnresolvedReference UnresolvedKind = "reference"
	UnresolvedMember    UnresolvedKind = "member"
)

// BuildOutcome is the final status of a build.
type BuildOutcome string

const (
	OutcomeSuccess  BuildOutcome = "success"
	OutcomeWarning  BuildOutcome = "warning"
	OutcomeFailed   BuildOutcome = "failed"
	OutcomeCanceled BuildOutcome = "canceled"
)

// Recorder defines observability hooks for builds, pages and reference resolution.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	ObservePageStageDuration(stage string, d time.Duration)
	ObserveBuildDuration(d time.Duration)
	IncBuildOutcome(outcome BuildOutcome)
	IncPageRendered(kind string)
	IncPageSkipped(kind string)
	IncUnresolved(kind UnresolvedKind)
	SetClassCount(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics are not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration)     {}
func (NoopRecorder) ObservePageStageDuration(string, time.Duration) {}
func (NoopRecorder) ObserveBuildDuration(time.Duration)             {}
func (NoopRecorder) IncBuildOutcome(BuildOutcome)                   {}
func (NoopRecorder) IncPageRendered(string)                         {}
func (NoopRecorder) IncPageSkipped(string)                          {}
func (NoopRecorder) IncUnresolved(UnresolvedKind)                   {}
func (NoopRecorder) SetClassCount(int)                              {}
