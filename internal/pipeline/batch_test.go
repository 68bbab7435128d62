package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/surfacescore/surfacescore/internal/model"
	"github.com/surfacescore/surfacescore/internal/scoring"
)

var errRejected = errors.New("rejected")

func testPrepare(target string) (*model.Analysis, error) {
	if !strings.HasPrefix(target, "https://") {
		return nil, errRejected
	}
	host := strings.TrimSuffix(strings.TrimPrefix(target, "https://"), "/")
	return model.NewAnalysis(target, host), nil
}

// collect runs a batch and gathers the results in input order.
func collect(ctx context.Context, bp *BatchProcessor, targets []string) ([]BatchResult, error) {
	results := make([]BatchResult, len(targets))
	err := bp.ProcessBatchWithCallback(ctx, targets, func(r BatchResult, i int) {
		results[i] = r
	})
	return results, err
}

func TestBatchProcessorNew(t *testing.T) {
	t.Parallel()

	t.Run("uses default concurrency", func(t *testing.T) {
		t.Parallel()
		bp := NewBatchProcessor(func() *Pipeline { return New() }, testPrepare)
		if bp.concurrency != DefaultConcurrency {
			t.Errorf("expected %d, got %d", DefaultConcurrency, bp.concurrency)
		}
	})

	t.Run("ignores non-positive concurrency", func(t *testing.T) {
		t.Parallel()
		bp := NewBatchProcessor(func() *Pipeline { return New() }, testPrepare, WithConcurrency(0))
		if bp.concurrency != DefaultConcurrency {
			t.Errorf("expected %d, got %d", DefaultConcurrency, bp.concurrency)
		}
	})

	t.Run("applies concurrency option", func(t *testing.T) {
		t.Parallel()
		bp := NewBatchProcessor(func() *Pipeline { return New() }, testPrepare, WithConcurrency(2))
		if bp.concurrency != 2 {
			t.Errorf("expected 2, got %d", bp.concurrency)
		}
	})
}

func TestBatchProcessorResults(t *testing.T) {
	t.Parallel()

	t.Run("returns results in input order", func(t *testing.T) {
		t.Parallel()

		scorer := scoring.NewScorer(nil, scoring.WithFixedJitter(0))
		factory := func() *Pipeline {
			return NewAnalysisPipeline(scorer, nil, WithDelayScale(0))
		}
		bp := NewBatchProcessor(factory, testPrepare, WithConcurrency(3))

		targets := []string{"https://apple.com/", "ftp://bad", "https://github.com/", "https://example.com/"}
		results, err := collect(context.Background(), bp, targets)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(results) != len(targets) {
			t.Fatalf("expected %d results, got %d", len(targets), len(results))
		}
		for i, r := range results {
			if r.Target != targets[i] {
				t.Errorf("result %d target = %q, want %q", i, r.Target, targets[i])
			}
		}

		if !errors.Is(results[1].Err, errRejected) || results[1].Analysis != nil {
			t.Errorf("expected rejected target, got %+v", results[1])
		}
		if results[0].Analysis.Overall != 96 {
			t.Errorf("apple overall = %d, want 96", results[0].Analysis.Overall)
		}
		if results[2].Analysis.Overall != 89 {
			t.Errorf("github overall = %d, want 89", results[2].Analysis.Overall)
		}
		if results[3].Analysis.Overall != 79 {
			t.Errorf("default overall = %d, want 79", results[3].Analysis.Overall)
		}
	})

	t.Run("respects concurrency limit", func(t *testing.T) {
		t.Parallel()

		var running, peak atomic.Int32
		factory := func() *Pipeline {
			p := New()
			p.AddStep(&mockStep{name: "track", doFunc: func(context.Context, *model.Analysis) error {
				n := running.Add(1)
				for {
					old := peak.Load()
					if n <= old || peak.CompareAndSwap(old, n) {
						break
					}
				}
				time.Sleep(10 * time.Millisecond)
				running.Add(-1)
				return nil
			}})
			return p
		}

		bp := NewBatchProcessor(factory, testPrepare, WithConcurrency(2))
		targets := make([]string, 8)
		for i := range targets {
			targets[i] = "https://example.com/"
		}
		if _, err := collect(context.Background(), bp, targets); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if peak.Load() > 2 {
			t.Errorf("peak concurrency %d exceeds limit 2", peak.Load())
		}
	})

	t.Run("cancelled context returns error", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		bp := NewBatchProcessor(func() *Pipeline { return New() }, testPrepare)
		results, err := collect(ctx, bp, []string{"https://a.test/", "https://b.test/"})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		for _, r := range results {
			if r.Target == "" {
				t.Error("cancelled results should still name their target")
			}
		}
	})
}

func TestBatchProcessorProcessBatchWithCallback(t *testing.T) {
	t.Parallel()

	var (
		mu   sync.Mutex
		seen = map[int]string{}
	)
	bp := NewBatchProcessor(func() *Pipeline { return New() }, testPrepare)
	targets := []string{"https://one.test/", "https://two.test/"}
	err := bp.ProcessBatchWithCallback(context.Background(), targets, func(r BatchResult, i int) {
		mu.Lock()
		defer mu.Unlock()
		seen[i] = r.Target
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seen[0] != targets[0] || seen[1] != targets[1] {
		t.Errorf("unexpected callbacks %v", seen)
	}
}
