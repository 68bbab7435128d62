package analyzer

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/surfacescore/surfacescore/internal/model"
	"github.com/surfacescore/surfacescore/internal/pipeline"
)

// PipelineFactory builds a fresh pipeline for one analysis. progress may be
// nil and should be passed to pipeline.WithProgress.
type PipelineFactory func(progress pipeline.ProgressFunc) *pipeline.Pipeline

// CompleteFunc is notified after every analysis that produced scores,
// including cache hits. It is the analytics hook; leaving it unset makes
// analytics a no-op.
type CompleteFunc func(a *model.Analysis)

// Analyzer runs analyses for a single session.
//
// It keeps a cache of completed results keyed by the lowercase input URL
// and allows only one analysis in flight: a call made while another is
// running returns ErrAnalysisInProgress without touching the cache.
//
// Design decision: the cache key is the raw input, trimmed and lowercased,
// not the normalized URL. "https://apple.com" and "https://apple.com/" are
// separate entries, and each gets its own jittered scores.
type Analyzer struct {
	// factory builds a fresh pipeline for each analysis.
	factory PipelineFactory

	// logger is used for per-analysis debug logging.
	logger *slog.Logger

	// onComplete is the analytics hook. Nil disables it.
	onComplete CompleteFunc

	// newID generates analysis IDs; tests replace it for stable output.
	newID func() string

	// busy is set while an analysis runs. It is checked before the cache
	// lookup so a busy session rejects even requests it could answer.
	busy atomic.Bool

	// mu guards cache. Entries are stored and returned as clones.
	mu    sync.RWMutex
	cache map[string]*model.Analysis
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Analyzer) {
		a.logger = logger
	}
}

// WithCompleteHook registers the analytics hook.
func WithCompleteHook(fn CompleteFunc) Option {
	return func(a *Analyzer) {
		a.onComplete = fn
	}
}

// WithIDGenerator replaces the analysis ID generator.
func WithIDGenerator(fn func() string) Option {
	return func(a *Analyzer) {
		a.newID = fn
	}
}

// New creates an Analyzer.
func New(factory PipelineFactory, opts ...Option) *Analyzer {
	a := &Analyzer{
		factory: factory,
		newID:   uuid.NewString,
		cache:   make(map[string]*model.Analysis),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	return a
}

// CacheKey returns the cache key for raw input.
func CacheKey(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// Analyze analyzes raw and returns the result.
//
// The steps, in order: reject if another analysis is running; return a copy
// of the cached result if raw was analyzed before; validate raw (before any
// delay); run the pipeline; cache the result. Failed or cancelled analyses
// are not cached. progress may be nil.
func (a *Analyzer) Analyze(ctx context.Context, raw string, progress pipeline.ProgressFunc) (*model.Analysis, error) {
	if a.busy.Load() {
		return nil, ErrAnalysisInProgress
	}

	key := CacheKey(raw)
	if cached, ok := a.Cached(raw); ok {
		a.logger.Debug("serving cached analysis", "url", cached.URL)
		a.notify(cached)
		return cached, nil
	}

	if !a.busy.CompareAndSwap(false, true) {
		return nil, ErrAnalysisInProgress
	}
	defer a.busy.Store(false)

	target, err := ValidateURL(raw)
	if err != nil {
		return nil, err
	}

	result, err := a.run(ctx, target, progress)
	if err != nil {
		return result, err
	}

	a.mu.Lock()
	a.cache[key] = result.Clone()
	a.mu.Unlock()

	a.notify(result)
	return result, nil
}

// Prepare validates raw and returns an empty analysis for it, for use as a
// pipeline.PrepareFunc.
func (a *Analyzer) Prepare(raw string) (*model.Analysis, error) {
	target, err := ValidateURL(raw)
	if err != nil {
		return nil, err
	}
	return a.newAnalysis(target), nil
}

func (a *Analyzer) newAnalysis(target Target) *model.Analysis {
	result := model.NewAnalysis(target.Href, target.Host)
	result.ID = a.newID()
	return result
}

func (a *Analyzer) run(ctx context.Context, target Target, progress pipeline.ProgressFunc) (*model.Analysis, error) {
	result := a.newAnalysis(target)
	p := a.factory(progress)
	a.logger.Debug("starting analysis", "url", target.Href, "id", result.ID, "steps", p.StepNames())
	if err := p.Execute(ctx, result); err != nil {
		return result, err
	}
	a.logger.Debug("analysis complete", "url", target.Href, "overall", result.Overall, "duration", result.Duration)
	return result, nil
}

func (a *Analyzer) notify(result *model.Analysis) {
	if a.onComplete != nil {
		a.onComplete(result)
	}
}

// Cached returns a copy of the cached analysis for raw, marked FromCache.
func (a *Analyzer) Cached(raw string) (*model.Analysis, bool) {
	a.mu.RLock()
	cached, ok := a.cache[CacheKey(raw)]
	a.mu.RUnlock()
	if !ok {
		return nil, false
	}
	c := cached.Clone()
	c.FromCache = true
	return c, true
}

// Lookup returns the most suitable cached analysis for an export request:
// an exact cache key match first, then any cached analysis of the same URL
// or domain.
func (a *Analyzer) Lookup(raw string) (*model.Analysis, bool) {
	if c, ok := a.Cached(raw); ok {
		return c, true
	}
	needle := CacheKey(raw)
	if t, err := ValidateURL(raw); err == nil {
		needle = t.Href
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	for _, cached := range a.cache {
		if cached.URL == needle || cached.Domain == needle {
			c := cached.Clone()
			c.FromCache = true
			return c, true
		}
	}
	return nil, false
}

// Busy reports whether an analysis is in flight.
func (a *Analyzer) Busy() bool {
	return a.busy.Load()
}

// CacheSize returns the number of cached analyses.
func (a *Analyzer) CacheSize() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.cache)
}

// ClearCache drops all cached analyses.
func (a *Analyzer) ClearCache() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cache = make(map[string]*model.Analysis)
}
