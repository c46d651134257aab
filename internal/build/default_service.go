package build

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/classdoc/internal/docset"
	"git.home.luguber.info/inful/classdoc/internal/foundation/errors"
	"git.home.luguber.info/inful/classdoc/internal/generator"
	"git.home.luguber.info/inful/classdoc/internal/gitinfo"
	"git.home.luguber.info/inful/classdoc/internal/linkverify"
	"git.home.luguber.info/inful/classdoc/internal/logfields"
	"git.home.luguber.info/inful/classdoc/internal/manifest"
	"git.home.luguber.info/inful/classdoc/internal/markdown"
	"git.home.luguber.info/inful/classdoc/internal/metrics"
	"git.home.luguber.info/inful/classdoc/internal/model"
	"git.home.luguber.info/inful/classdoc/internal/resolver"
	"git.home.luguber.info/inful/classdoc/internal/symtab"
)

// DefaultBuildService is the standard implementation of BuildService.
type DefaultBuildService struct {
	recorder metrics.Recorder
	logger   *slog.Logger
	now      func() time.Time
}

// NewBuildService creates a DefaultBuildService that records nothing and
// logs to slog.Default.
func NewBuildService() *DefaultBuildService {
	return &DefaultBuildService{
		recorder: metrics.NoopRecorder{},
		now:      time.Now,
	}
}

// WithRecorder sets the metrics recorder.
func (s *DefaultBuildService) WithRecorder(r metrics.Recorder) *DefaultBuildService {
	if r != nil {
		s.recorder = r
	}
	return s
}

// WithLogger sets the logger used for the build.
func (s *DefaultBuildService) WithLogger(l *slog.Logger) *DefaultBuildService {
	s.logger = l
	return s
}

// WithClock overrides the time source (for testing).
func (s *DefaultBuildService) WithClock(now func() time.Time) *DefaultBuildService {
	if now != nil {
		s.now = now
	}
	return s
}

// unresolvedCounter forwards to the wrapped recorder while counting
// unresolved references for the build result.
type unresolvedCounter struct {
	metrics.Recorder
	n atomic.Int64
}

func (c *unresolvedCounter) IncUnresolved(kind metrics.UnresolvedKind) {
	c.n.Add(1)
	c.Recorder.IncUnresolved(kind)
}

// run carries the state of one Run call.
type run struct {
	svc      *DefaultBuildService
	req      BuildRequest
	logger   *slog.Logger
	counter  *unresolvedCounter
	result   *BuildResult
	table    *symtab.Table
	res      *resolver.Resolver
	modelRaw []byte
}

// Run executes the complete build pipeline.
func (s *DefaultBuildService) Run(ctx context.Context, req BuildRequest) (*BuildResult, error) {
	logger := s.logger
	if logger == nil {
		logger = slog.Default()
	}
	start := s.now()
	r := &run{
		svc:     s,
		req:     req,
		logger:  logger,
		counter: &unresolvedCounter{Recorder: s.recorder},
		result:  &BuildResult{StartTime: start},
	}

	if req.Config == nil {
		return r.finish(errors.ConfigError("config required").Build())
	}
	r.result.OutputPath = req.Config.Output.Directory

	stages := []stage{
		{"load", r.load},
		{"index", r.index},
		{"generate", r.generate},
		{"docset", r.docset},
		{"verify", r.verify},
		{"manifest", r.writeManifest},
	}
	for _, st := range stages {
		if err := ctx.Err(); err != nil {
			return r.finish(err)
		}
		stageStart := time.Now()
		if err := st.run(ctx); err != nil {
			return r.finish(err)
		}
		s.recorder.ObserveStageDuration(st.name, time.Since(stageStart))
	}
	return r.finish(nil)
}

type stage struct {
	name string
	run  func(context.Context) error
}

// finish stamps timing, picks the status and records the outcome.
func (r *run) finish(err error) (*BuildResult, error) {
	res := r.result
	res.EndTime = r.svc.now()
	res.Duration = res.EndTime.Sub(res.StartTime)

	var outcome metrics.BuildOutcome
	switch {
	case errors.IsCanceled(err):
		res.Status = BuildStatusCancelled
		outcome = metrics.OutcomeCanceled
	case err != nil:
		res.Status = BuildStatusFailed
		outcome = metrics.OutcomeFailed
	case res.Unresolved > 0 || (res.Links != nil && !res.Links.OK()):
		res.Status = BuildStatusWarning
		outcome = metrics.OutcomeWarning
	default:
		res.Status = BuildStatusSuccess
		outcome = metrics.OutcomeSuccess
	}
	r.svc.recorder.IncBuildOutcome(outcome)
	r.svc.recorder.ObserveBuildDuration(res.Duration)

	if err != nil {
		r.logger.Error("Build failed",
			slog.String("status", string(res.Status)),
			logfields.Error(err))
		return res, err
	}
	r.logger.Info("Build complete",
		slog.String("status", string(res.Status)),
		slog.Int("classes", res.Classes),
		slog.Int("written", res.PagesWritten),
		slog.Int("unchanged", res.PagesUnchanged),
		slog.Int("unresolved", res.Unresolved),
		logfields.Path(res.OutputPath),
		logfields.DurationMS(float64(res.Duration.Microseconds())/1000))
	return res, nil
}

func (r *run) load(context.Context) error {
	path := r.req.Config.Input
	data, err := os.ReadFile(path)
	if err != nil {
		category := errors.CategoryModel
		if os.IsNotExist(err) {
			category = errors.CategoryNotFound
		}
		return errors.WrapError(err, category, "failed to read class model").
			Fatal().
			WithContext("path", path).
			Build()
	}
	m, err := model.Parse(data)
	if err != nil {
		if classified, ok := errors.AsClassified(err); ok {
			classified.Context().Set("path", path)
		}
		return err
	}
	r.modelRaw = data
	table, err := symtab.Build(m.Classes, symtab.WithLogger(r.logger))
	if err != nil {
		return err
	}
	r.table = table
	r.result.Classes = table.Len()
	r.logger.Debug("Class model loaded", logfields.Path(path), logfields.Count(table.Len()))
	return nil
}

func (r *run) index(context.Context) error {
	r.res = resolver.New(r.table, resolver.Options{
		Logger:   r.logger,
		Recorder: r.counter,
	})
	return nil
}

func (r *run) generate(ctx context.Context) error {
	cfg := r.req.Config
	previous, err := manifest.Read(cfg.Output.Directory)
	if err != nil {
		// An unreadable manifest only costs a full rewrite.
		r.logger.Warn("Ignoring previous manifest", logfields.Error(err))
		previous = nil
	}

	var source *gitinfo.Info
	if cfg.Source.Repository != "" {
		info, err := gitinfo.Describe(cfg.Source.Repository)
		if err != nil {
			r.logger.Debug("No source revision", logfields.Path(cfg.Source.Repository), logfields.Error(err))
		} else {
			source = info
		}
	}

	gen, err := generator.New(cfg, r.table, r.res, generator.Options{
		Logger:   r.logger,
		Recorder: r.counter,
		Markdown: markdown.New(markdown.Options{}),
		Source:   source,
		Previous: previous,
		Now:      r.svc.now,
	})
	if err != nil {
		return err
	}
	out, err := gen.Generate(ctx)
	if err != nil {
		return err
	}

	m := out.Manifest
	m.Inputs.ModelPath = cfg.Input
	m.Inputs.ModelHash = manifest.HashBytes(r.modelRaw)
	m.Inputs.Source = source
	if data, err := yaml.Marshal(cfg); err == nil {
		m.Inputs.ConfigHash = manifest.HashBytes(data)
	}

	r.result.Manifest = m
	r.result.PagesWritten = out.Written
	r.result.PagesUnchanged = out.Unchanged
	r.result.PagesRemoved = out.Removed
	r.result.Unresolved = int(r.counter.n.Load())
	if r.result.Unresolved > 0 {
		r.logger.Warn("Unresolved references", logfields.Count(r.result.Unresolved))
		if r.req.Options.StrictReferences {
			return errors.NewError(errors.CategoryValidation, "unresolved references").
				WithContext("count", r.result.Unresolved).
				Build()
		}
	}
	return nil
}

func (r *run) docset(ctx context.Context) error {
	cfg := r.req.Config
	if !cfg.Docset.Enabled {
		return nil
	}
	path := filepath.Join(cfg.Output.Directory, cfg.Docset.Filename)
	entries := docset.Collect(r.res)
	if err := docset.Write(ctx, path, entries); err != nil {
		return err
	}
	r.result.DocsetPath = path
	r.result.Manifest.Outputs.Docset = cfg.Docset.Filename
	r.logger.Info("Docset written", logfields.Path(path), logfields.Count(len(entries)))
	return nil
}

func (r *run) verify(ctx context.Context) error {
	enabled := r.req.Config.Verify.Enabled
	if r.req.Options.Verify != nil {
		enabled = *r.req.Options.Verify
	}
	if !enabled {
		return nil
	}
	report, err := linkverify.Verify(ctx, r.req.Config.Output.Directory, linkverify.Options{
		CheckFragments: r.req.Options.CheckFragments,
		Logger:         r.logger,
	})
	if err != nil {
		return err
	}
	r.result.Links = report
	return nil
}

func (r *run) writeManifest(context.Context) error {
	m := r.result.Manifest
	m.Stats.Unresolved = r.result.Unresolved
	m.Status = manifest.StatusSuccess
	if r.result.Unresolved > 0 || (r.result.Links != nil && !r.result.Links.OK()) {
		m.Status = manifest.StatusWarning
	}
	m.Duration = r.svc.now().Sub(r.result.StartTime).Milliseconds()
	if err := m.Write(r.req.Config.Output.Directory); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to write build manifest").
			WithContext("path", r.req.Config.Output.Directory).
			Build()
	}
	return nil
}
