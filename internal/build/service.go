package build

import (
	"context"
	"time"

	"git.home.luguber.info/inful/classdoc/internal/config"
	"git.home.luguber.info/inful/classdoc/internal/linkverify"
	"git.home.luguber.info/inful/classdoc/internal/manifest"
)

// BuildService is the canonical interface for executing documentation builds.
type BuildService interface {
	// Run executes load → index → resolve → generate → docset → verify.
	Run(ctx context.Context, req BuildRequest) (*BuildResult, error)
}

// BuildRequest contains all inputs required to execute a documentation build.
type BuildRequest struct {
	// Config is the loaded configuration for this build.
	Config *config.Config

	// Options provides optional build behavior modifiers.
	Options BuildOptions
}

// BuildOptions provides optional configuration for build behavior.
type BuildOptions struct {
	// Verify overrides cfg.Verify.Enabled when set.
	Verify *bool

	// CheckFragments makes link verification require #fragment targets.
	CheckFragments bool

	// StrictReferences fails the build when any reference is unresolved.
	StrictReferences bool
}

// BuildResult contains the outcome of a build execution.
type BuildResult struct {
	// Status indicates overall build outcome.
	Status BuildStatus

	// Manifest is the record written to the output directory.
	Manifest *manifest.BuildManifest

	// Links is the verification report, nil when verification did not run.
	Links *linkverify.Report

	// OutputPath is the output directory.
	OutputPath string

	// DocsetPath is the search index, empty when disabled.
	DocsetPath string

	Classes        int
	PagesWritten   int
	PagesUnchanged int
	PagesRemoved   int

	// Unresolved counts references that could not be resolved.
	Unresolved int

	// Duration is the total build execution time.
	Duration time.Duration

	StartTime time.Time
	EndTime   time.Time
}

// BuildStatus represents the outcome of a build execution.
type BuildStatus string

const (
	// BuildStatusSuccess indicates the build completed without findings.
	BuildStatusSuccess BuildStatus = "success"

	// BuildStatusWarning indicates the site was written but references were
	// unresolved or links are broken.
	BuildStatusWarning BuildStatus = "warning"

	// BuildStatusFailed indicates the build encountered an error.
	BuildStatusFailed BuildStatus = "failed"

	// BuildStatusCancelled indicates the build was cancelled.
	BuildStatusCancelled BuildStatus = "cancelled"
)

// IsTerminal returns true if the status represents a final state.
func (s BuildStatus) IsTerminal() bool {
	return s == BuildStatusSuccess || s == BuildStatusWarning ||
		s == BuildStatusFailed || s == BuildStatusCancelled
}

// IsSuccess returns true if the site was written.
func (s BuildStatus) IsSuccess() bool {
	return s == BuildStatusSuccess || s == BuildStatusWarning
}
