package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/surfacescore/surfacescore/internal/model"
)

// Step defines the interface that all pipeline steps must implement.
// Steps run in sequence, each receiving the analysis built so far.
type Step interface {
	// Do executes the step. Non-critical problems should be recorded with
	// Analysis.AddWarning and nil returned; a returned error stops the
	// pipeline.
	Do(ctx context.Context, a *model.Analysis) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Stage is the user-visible progress state shown while a step runs.
type Stage struct {
	// Text is the status line, e.g. "Fetching website...".
	Text string `json:"text"`

	// Percent is the progress bar value once the stage starts.
	Percent int `json:"percent"`

	// Delay is the nominal pause before the step's work is done.
	Delay time.Duration `json:"delay"`
}

// Staged is implemented by steps that report progress.
// The pipeline publishes the stage and waits out its delay before Do.
type Staged interface {
	Stage() Stage
}

// Progress is published each time a staged step starts.
type Progress struct {
	AnalysisID string    `json:"analysis_id"`
	URL        string    `json:"url"`
	Step       string    `json:"step"`
	Text       string    `json:"text"`
	Percent    int       `json:"percent"`
	At         time.Time `json:"at"`
}

// ProgressFunc receives progress events. It is called synchronously from
// the goroutine running the pipeline and must not block for long.
type ProgressFunc func(Progress)

// Pipeline orchestrates the execution of multiple steps.
// It maintains a list of steps and executes them in order.
type Pipeline struct {
	// steps contains the ordered list of steps to execute.
	steps []Step

	// logger is used for structured logging during execution.
	logger *slog.Logger

	// onProgress receives a Progress event as each staged step starts.
	onProgress ProgressFunc

	// delayScale multiplies every stage delay. 0 runs without pauses.
	delayScale float64
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithProgress registers a progress observer.
func WithProgress(fn ProgressFunc) Option {
	return func(p *Pipeline) {
		p.onProgress = fn
	}
}

// WithDelayScale multiplies every stage delay. 0 disables delays and
// negative values are treated as 0.
func WithDelayScale(scale float64) Option {
	return func(p *Pipeline) {
		if scale < 0 {
			scale = 0
		}
		p.delayScale = scale
	}
}

// New creates a new Pipeline with the given options.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps:      make([]Step, 0),
		delayScale: 1,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// AddStep appends a step to the pipeline.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends multiple steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs all steps in order.
//
// Cancellation is checked before each step and during stage delays. A
// cancelled run sets Analysis.Cancelled and returns the context error;
// scores are left unset because the scoring step never ran.
func (p *Pipeline) Execute(ctx context.Context, a *model.Analysis) error {
	start := time.Now()
	defer func() {
		a.Duration = time.Since(start)
	}()

	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			p.logger.Warn("pipeline cancelled", "step", step.Name(), "reason", err)
			a.Cancelled = true
			return err
		}

		if staged, ok := step.(Staged); ok {
			stage := staged.Stage()
			p.publish(a, step.Name(), stage)
			if err := p.wait(ctx, stage.Delay); err != nil {
				p.logger.Warn("pipeline cancelled during stage", "step", step.Name(), "reason", err)
				a.Cancelled = true
				return err
			}
		}

		p.logger.Debug("executing step", "step", step.Name(), "url", a.URL)
		if err := step.Do(ctx, a); err != nil {
			p.logger.Error("step failed", "step", step.Name(), "url", a.URL, "error", err)
			return err
		}
		a.PerformedStages = append(a.PerformedStages, step.Name())
	}
	return nil
}

func (p *Pipeline) publish(a *model.Analysis, step string, stage Stage) {
	if p.onProgress == nil {
		return
	}
	p.onProgress(Progress{
		AnalysisID: a.ID,
		URL:        a.URL,
		Step:       step,
		Text:       stage.Text,
		Percent:    stage.Percent,
		At:         time.Now(),
	})
}

func (p *Pipeline) wait(ctx context.Context, d time.Duration) error {
	d = time.Duration(float64(d) * p.delayScale)
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}

// TotalDelay returns the sum of all scaled stage delays.
func (p *Pipeline) TotalDelay() time.Duration {
	var total time.Duration
	for _, step := range p.steps {
		if staged, ok := step.(Staged); ok {
			total += time.Duration(float64(staged.Stage().Delay) * p.delayScale)
		}
	}
	return total
}
