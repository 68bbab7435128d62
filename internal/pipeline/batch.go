package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/surfacescore/surfacescore/internal/model"
)

// DefaultConcurrency is the number of concurrent analyses when none is set.
const DefaultConcurrency = 4

// PrepareFunc turns a raw target into a fresh analysis, validating it.
type PrepareFunc func(target string) (*model.Analysis, error)

// BatchResult is the outcome for one target of a batch.
// Analysis is nil when the target failed preparation.
type BatchResult struct {
	Target   string
	Analysis *model.Analysis
	Err      error
}

// BatchProcessor analyzes many targets concurrently.
// It uses errgroup to bound the number of goroutines.
//
// Design decision: results are streamed through a callback instead of being
// collected. The CLI prints and exports each analysis as soon as it
// finishes, and a slow target does not hold back the output of fast ones.
//
// Design decision: targets are prepared with a PrepareFunc rather than
// through an analyzer's Analyze. A session allows one analysis in flight,
// so a batch validates each target itself and bypasses the session cache.
type BatchProcessor struct {
	// pipelineFactory creates a new pipeline for each target.
	// Pipelines carry progress callbacks and must not be shared.
	pipelineFactory func() *Pipeline

	// prepare validates a target and returns its empty analysis.
	// A prepare error is reported for that target and never aborts the batch.
	prepare PrepareFunc

	// concurrency is the maximum number of analyses running at once.
	concurrency int

	// logger is used for batch-level logging.
	logger *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent analyses.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a new BatchProcessor.
//
// The pipelineFactory function is called once per target, after prepare has
// accepted it. Rejected targets never build a pipeline.
func NewBatchProcessor(pipelineFactory func() *Pipeline, prepare PrepareFunc, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		prepare:         prepare,
		concurrency:     DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(bp)
	}
	if bp.logger == nil {
		bp.logger = slog.Default()
	}
	return bp
}

// ProcessBatchWithCallback analyzes all targets and calls callback as each
// one finishes, with the target's index in targets. The callback runs on the
// worker goroutine and must be safe for concurrent use.
//
// Individual failures are reported through the callback. The returned error
// is only set when ctx was cancelled; targets not yet started then receive a
// result carrying the context error.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	targets []string,
	callback func(result BatchResult, index int),
) error {
	bp.logger.Info("starting batch analysis", "total_targets", len(targets), "concurrency", bp.concurrency)
	start := time.Now()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, target := range targets {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				callback(BatchResult{Target: target, Err: err}, i)
				return err
			}

			a, err := bp.prepare(target)
			if err != nil {
				bp.logger.Warn("target rejected", "target", target, "error", err)
				callback(BatchResult{Target: target, Err: err}, i)
				return nil
			}

			err = bp.pipelineFactory().Execute(ctx, a)
			if err != nil {
				bp.logger.Warn("analysis failed", "target", target, "error", err)
			}
			callback(BatchResult{Target: target, Analysis: a, Err: err}, i)
			return nil
		})
	}

	err := g.Wait()
	bp.logger.Info("batch analysis complete", "total_targets", len(targets), "elapsed", time.Since(start))
	return err
}
