package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/surfacescore/surfacescore/internal/model"
)

// mockStep is a test helper that implements the Step interface.
type mockStep struct {
	name      string
	doFunc    func(ctx context.Context, a *model.Analysis) error
	callCount int
}

func (m *mockStep) Do(ctx context.Context, a *model.Analysis) error {
	m.callCount++
	if m.doFunc != nil {
		return m.doFunc(ctx, a)
	}
	return nil
}

func (m *mockStep) Name() string {
	return m.name
}

// stagedMockStep adds a progress stage to mockStep.
type stagedMockStep struct {
	mockStep
	stage Stage
}

func (m *stagedMockStep) Stage() Stage {
	return m.stage
}

func newAnalysis() *model.Analysis {
	a := model.NewAnalysis("https://example.com/", "example.com")
	a.ID = "test-id"
	return a
}

func TestPipelineNew(t *testing.T) {
	t.Parallel()

	t.Run("creates pipeline with default settings", func(t *testing.T) {
		t.Parallel()
		p := New()
		if n := len(p.StepNames()); n != 0 {
			t.Errorf("expected 0 steps, got %d", n)
		}
		if p.delayScale != 1 {
			t.Errorf("expected delay scale 1, got %v", p.delayScale)
		}
		if p.logger == nil {
			t.Error("expected default logger")
		}
	})

	t.Run("negative delay scale is treated as zero", func(t *testing.T) {
		t.Parallel()
		p := New(WithDelayScale(-2))
		if p.delayScale != 0 {
			t.Errorf("expected 0, got %v", p.delayScale)
		}
	})
}

func TestPipelineExecute(t *testing.T) {
	t.Parallel()

	t.Run("executes all steps in order", func(t *testing.T) {
		t.Parallel()

		var order []string
		record := func(name string) func(context.Context, *model.Analysis) error {
			return func(context.Context, *model.Analysis) error {
				order = append(order, name)
				return nil
			}
		}

		p := New()
		p.AddSteps(
			&mockStep{name: "first", doFunc: record("first")},
			&mockStep{name: "second", doFunc: record("second")},
			&mockStep{name: "third", doFunc: record("third")},
		)

		a := newAnalysis()
		if err := p.Execute(context.Background(), a); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := []string{"first", "second", "third"}
		for i := range want {
			if order[i] != want[i] {
				t.Errorf("step %d: got %q, want %q", i, order[i], want[i])
			}
		}
		if len(a.PerformedStages) != 3 {
			t.Errorf("expected 3 performed stages, got %v", a.PerformedStages)
		}
	})

	t.Run("stops on first error by default", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("boom")
		last := &mockStep{name: "last"}
		p := New()
		p.AddSteps(
			&mockStep{name: "fails", doFunc: func(context.Context, *model.Analysis) error { return boom }},
			last,
		)

		err := p.Execute(context.Background(), newAnalysis())
		if !errors.Is(err, boom) {
			t.Errorf("expected boom, got %v", err)
		}
		if last.callCount != 0 {
			t.Error("step after failure should not run")
		}
	})

	t.Run("cancelled context marks analysis cancelled", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		step := &mockStep{name: "never"}
		p := New()
		p.AddStep(step)

		a := newAnalysis()
		err := p.Execute(ctx, a)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if !a.Cancelled {
			t.Error("expected analysis to be marked cancelled")
		}
		if step.callCount != 0 {
			t.Error("step should not run after cancellation")
		}
	})

	t.Run("cancellation interrupts a stage delay", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		step := &stagedMockStep{mockStep: mockStep{name: "slow"}, stage: Stage{Text: "waiting", Percent: 50, Delay: time.Minute}}
		p := New()
		p.AddStep(step)

		start := time.Now()
		a := newAnalysis()
		err := p.Execute(ctx, a)
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("expected deadline exceeded, got %v", err)
		}
		if time.Since(start) > 10*time.Second {
			t.Error("delay was not interrupted")
		}
		if step.callCount != 0 {
			t.Error("step body should not run when its delay is interrupted")
		}
		if !a.Cancelled {
			t.Error("expected analysis to be marked cancelled")
		}
	})

	t.Run("records duration", func(t *testing.T) {
		t.Parallel()

		p := New()
		p.AddStep(&stagedMockStep{mockStep: mockStep{name: "s"}, stage: Stage{Delay: 5 * time.Millisecond}})
		a := newAnalysis()
		if err := p.Execute(context.Background(), a); err != nil {
			t.Fatal(err)
		}
		if a.Duration < 5*time.Millisecond {
			t.Errorf("expected duration >= 5ms, got %v", a.Duration)
		}
	})
}

func TestPipelineProgress(t *testing.T) {
	t.Parallel()

	var (
		mu     sync.Mutex
		events []Progress
	)
	p := New(
		WithDelayScale(0),
		WithProgress(func(ev Progress) {
			mu.Lock()
			defer mu.Unlock()
			events = append(events, ev)
		}),
	)
	p.AddSteps(
		&stagedMockStep{mockStep: mockStep{name: "one"}, stage: Stage{Text: "Step one", Percent: 50, Delay: time.Hour}},
		&mockStep{name: "silent"},
		&stagedMockStep{mockStep: mockStep{name: "two"}, stage: Stage{Text: "Step two", Percent: 100, Delay: time.Hour}},
	)

	a := newAnalysis()
	if err := p.Execute(context.Background(), a); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(events) != 2 {
		t.Fatalf("expected 2 progress events, got %d", len(events))
	}
	if events[0].Text != "Step one" || events[0].Percent != 50 || events[0].Step != "one" {
		t.Errorf("unexpected first event %+v", events[0])
	}
	if events[1].Percent != 100 || events[1].AnalysisID != "test-id" || events[1].URL != a.URL {
		t.Errorf("unexpected second event %+v", events[1])
	}
}

func TestPipelineStepNamesAndTotalDelay(t *testing.T) {
	t.Parallel()

	p := NewAnalysisPipeline(nil, nil)
	want := []string{"fetch", "html_structure", "safari_compatibility", "ai_readiness", "score"}
	got := p.StepNames()
	if len(got) != len(want) {
		t.Fatalf("StepNames() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("StepNames()[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	if p.TotalDelay() != 2200*time.Millisecond {
		t.Errorf("TotalDelay() = %v, want 2.2s", p.TotalDelay())
	}
	if half := NewAnalysisPipeline(nil, nil, WithDelayScale(0.5)); half.TotalDelay() != 1100*time.Millisecond {
		t.Errorf("scaled TotalDelay() = %v, want 1.1s", half.TotalDelay())
	}
}
