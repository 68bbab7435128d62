package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/surfacescore/surfacescore/internal/model"
	"github.com/surfacescore/surfacescore/internal/scoring"
)

type fakeFetcher struct {
	page *model.PageInfo
	err  error
	urls []string
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) (*model.PageInfo, error) {
	f.urls = append(f.urls, url)
	return f.page, f.err
}

var analysisStages = []Stage{StageFetch, StageHTML, StageSafari, StageAI, StageReport}

func TestStages(t *testing.T) {
	t.Parallel()

	want := []struct {
		text    string
		percent int
		delay   time.Duration
	}{
		{"Fetching website...", 20, 400 * time.Millisecond},
		{"Analyzing HTML structure...", 40, 600 * time.Millisecond},
		{"Checking Safari compatibility...", 60, 500 * time.Millisecond},
		{"Evaluating Apple Intelligence readiness...", 80, 400 * time.Millisecond},
		{"Generating report...", 100, 300 * time.Millisecond},
	}

	got := analysisStages
	if len(got) != len(want) {
		t.Fatalf("expected %d stages, got %d", len(want), len(got))
	}
	for i, w := range want {
		if got[i].Text != w.text || got[i].Percent != w.percent || got[i].Delay != w.delay {
			t.Errorf("stage %d = %+v, want %+v", i, got[i], w)
		}
	}
}

func TestFetchStep(t *testing.T) {
	t.Parallel()

	t.Run("without fetcher does nothing", func(t *testing.T) {
		t.Parallel()
		a := newAnalysis()
		if err := NewFetchStep(nil, nil).Do(context.Background(), a); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if a.Page != nil || len(a.Warnings) != 0 {
			t.Errorf("expected untouched analysis, got page=%v warnings=%v", a.Page, a.Warnings)
		}
	})

	t.Run("stores fetched page", func(t *testing.T) {
		t.Parallel()
		f := &fakeFetcher{page: &model.PageInfo{Title: "Example", StatusCode: 200}}
		a := newAnalysis()
		if err := NewFetchStep(f, nil).Do(context.Background(), a); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if a.Page == nil || a.Page.Title != "Example" {
			t.Errorf("expected page to be stored, got %+v", a.Page)
		}
		if len(f.urls) != 1 || f.urls[0] != a.URL {
			t.Errorf("expected fetch of %s, got %v", a.URL, f.urls)
		}
	})

	t.Run("fetch failure becomes a warning", func(t *testing.T) {
		t.Parallel()
		f := &fakeFetcher{err: errors.New("connection refused")}
		a := newAnalysis()
		if err := NewFetchStep(f, nil).Do(context.Background(), a); err != nil {
			t.Fatalf("fetch failure must not fail the step: %v", err)
		}
		if len(a.Warnings) != 1 {
			t.Fatalf("expected 1 warning, got %v", a.Warnings)
		}
		if a.Page != nil {
			t.Error("expected no page on failure")
		}
	})
}

func TestScoreStep(t *testing.T) {
	t.Parallel()

	a := model.NewAnalysis("https://github.com/", "github.com")
	step := NewScoreStep(scoring.NewScorer(nil, scoring.WithFixedJitter(0)))
	if err := step.Do(context.Background(), a); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Score(model.CategoryReader) != 90 || a.Score(model.CategoryWCAG) != 88 {
		t.Errorf("unexpected scores %+v", a.Categories)
	}
	// (90+85+92+88)/4 = 88.75
	if a.Overall != 89 {
		t.Errorf("Overall = %d, want 89", a.Overall)
	}
	if step.Stage() != StageReport {
		t.Error("score step must run in the report stage")
	}
}

func TestNewAnalysisPipeline(t *testing.T) {
	t.Parallel()

	var events []Progress
	scorer := scoring.NewScorer(nil, scoring.WithFixedJitter(0))
	f := &fakeFetcher{page: &model.PageInfo{Title: "Wikipedia"}}
	p := NewAnalysisPipeline(scorer, f,
		WithDelayScale(0),
		WithProgress(func(ev Progress) { events = append(events, ev) }),
	)

	a := model.NewAnalysis("https://en.wikipedia.org/", "en.wikipedia.org")
	if err := p.Execute(context.Background(), a); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !a.Scored() {
		t.Fatal("expected analysis to be scored")
	}
	if a.Overall != 93 {
		t.Errorf("Overall = %d, want 93", a.Overall)
	}
	if a.Page == nil || a.Page.Title != "Wikipedia" {
		t.Errorf("expected fetched page, got %+v", a.Page)
	}
	if len(events) != 5 {
		t.Fatalf("expected 5 progress events, got %d", len(events))
	}
	for i, stage := range analysisStages {
		if events[i].Text != stage.Text || events[i].Percent != stage.Percent {
			t.Errorf("event %d = %+v, want %+v", i, events[i], stage)
		}
	}
}
