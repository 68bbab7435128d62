package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/surfacescore/surfacescore/internal/model"
	"github.com/surfacescore/surfacescore/internal/scoring"
)

// The five progress stages shown during an analysis, in order.
var (
	StageFetch  = Stage{Text: "Fetching website...", Percent: 20, Delay: 400 * time.Millisecond}
	StageHTML   = Stage{Text: "Analyzing HTML structure...", Percent: 40, Delay: 600 * time.Millisecond}
	StageSafari = Stage{Text: "Checking Safari compatibility...", Percent: 60, Delay: 500 * time.Millisecond}
	StageAI     = Stage{Text: "Evaluating Apple Intelligence readiness...", Percent: 80, Delay: 400 * time.Millisecond}
	StageReport = Stage{Text: "Generating report...", Percent: 100, Delay: 300 * time.Millisecond}
)

// PageFetcher downloads a page and extracts its metadata.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (*model.PageInfo, error)
}

// StageStep is a staged step with no work of its own. It exists so the
// progress indicator advances through the intermediate stages.
type StageStep struct {
	name  string
	stage Stage
}

// NewStageStep creates a StageStep.
func NewStageStep(name string, stage Stage) *StageStep {
	return &StageStep{name: name, stage: stage}
}

// Name returns the step name.
func (s *StageStep) Name() string { return s.name }

// Stage returns the progress stage.
func (s *StageStep) Stage() Stage { return s.stage }

// Do does nothing.
func (s *StageStep) Do(context.Context, *model.Analysis) error { return nil }

// FetchStep runs during the "Fetching website..." stage. With a fetcher it
// downloads the page and stores its metadata; a failed fetch is recorded as
// a warning and never fails the analysis. Without a fetcher it only reports
// progress.
type FetchStep struct {
	fetcher PageFetcher
	logger  *slog.Logger
}

// NewFetchStep creates a FetchStep. fetcher may be nil.
func NewFetchStep(fetcher PageFetcher, logger *slog.Logger) *FetchStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &FetchStep{fetcher: fetcher, logger: logger}
}

// Name returns the step name.
func (s *FetchStep) Name() string { return "fetch" }

// Stage returns the progress stage.
func (s *FetchStep) Stage() Stage { return StageFetch }

// Do fetches the page when a fetcher is configured.
func (s *FetchStep) Do(ctx context.Context, a *model.Analysis) error {
	if s.fetcher == nil {
		return nil
	}
	page, err := s.fetcher.Fetch(ctx, a.URL)
	if err != nil {
		s.logger.Debug("page fetch failed", "url", a.URL, "error", err)
		a.AddWarning("page fetch failed: %v", err)
		return nil
	}
	a.Page = page
	return nil
}

// ScoreStep runs during the "Generating report..." stage and fills in
// every score-derived field of the analysis.
type ScoreStep struct {
	scorer *scoring.Scorer
}

// NewScoreStep creates a ScoreStep.
func NewScoreStep(scorer *scoring.Scorer) *ScoreStep {
	return &ScoreStep{scorer: scorer}
}

// Name returns the step name.
func (s *ScoreStep) Name() string { return "score" }

// Stage returns the progress stage.
func (s *ScoreStep) Stage() Stage { return StageReport }

// Do scores the analysis.
func (s *ScoreStep) Do(_ context.Context, a *model.Analysis) error {
	s.scorer.Apply(a)
	return nil
}

// NewAnalysisPipeline builds the standard five-stage pipeline.
func NewAnalysisPipeline(scorer *scoring.Scorer, fetcher PageFetcher, opts ...Option) *Pipeline {
	p := New(opts...)
	p.AddSteps(
		NewFetchStep(fetcher, p.logger),
		NewStageStep("html_structure", StageHTML),
		NewStageStep("safari_compatibility", StageSafari),
		NewStageStep("ai_readiness", StageAI),
		NewScoreStep(scorer),
	)
	return p
}
