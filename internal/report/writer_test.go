package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/surfacescore/surfacescore/internal/model"
	"github.com/surfacescore/surfacescore/internal/scoring"
)

// newTestAnalysis returns a scored analysis with deterministic scores.
func newTestAnalysis(url, domain string) *model.Analysis {
	a := model.NewAnalysis(url, domain)
	a.ID = "test-id"
	a.AnalyzedAt = time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	scoring.NewScorer(nil, scoring.WithFixedJitter(0)).Apply(a)
	return a
}

func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes header and scores", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		n, err := NewSimpleWriter(&buf).Write(newTestAnalysis("https://github.com/", "github.com"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != buf.Len() {
			t.Errorf("reported %d bytes, wrote %d", n, buf.Len())
		}

		output := buf.String()
		for _, want := range []string{
			"SURFACESCORE REPORT",
			"https://github.com/",
			"Overall Score:  89/100",
			"Safari Reader Mode",
			"Apple Intelligence",
			"Structured Data",
			"WCAG Compliance",
			"I analyzed github.com with SurfaceScore and got 89/100",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
	})

	t.Run("labels recommendation priority", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(newTestAnalysis("https://example.com/", "example.com")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		// default scores 80/75/78/82 trigger both medium-priority rules
		if !strings.Contains(buf.String(), "[Medium]") {
			t.Errorf("expected a Medium label, got:\n%s", buf.String())
		}
	})

	t.Run("verbose adds page info", func(t *testing.T) {
		t.Parallel()

		a := newTestAnalysis("https://example.com/", "example.com")
		a.Page = &model.PageInfo{StatusCode: 200, Title: "Example Domain", Headings: map[int]int{2: 3, 1: 1}}

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf, WithVerbose(true)).Write(a); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		if !strings.Contains(output, "Example Domain") {
			t.Error("expected page title in verbose output")
		}
		if !strings.Contains(output, "h1=1 h2=3") {
			t.Error("expected sorted heading counts in verbose output")
		}
	})

	t.Run("unscored analysis omits scores", func(t *testing.T) {
		t.Parallel()

		a := model.NewAnalysis("https://example.com/", "example.com")
		a.Cancelled = true

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(a); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		if !strings.Contains(output, "CANCELLED") {
			t.Error("expected cancelled status")
		}
		if strings.Contains(output, "CATEGORY SCORES") {
			t.Error("unscored analysis should not list categories")
		}
	})
}

func TestPriorityLabel(t *testing.T) {
	t.Parallel()

	if got := PriorityLabel(model.PriorityHigh); got != "High" {
		t.Errorf("PriorityLabel(high) = %q", got)
	}
	if got := PriorityLabel(model.PriorityMedium); got != "Medium" {
		t.Errorf("PriorityLabel(medium) = %q", got)
	}
}

func TestScoreBar(t *testing.T) {
	t.Parallel()

	tests := []struct {
		score int
		want  string
	}{
		{100, "[####################]"},
		{60, "[############........]"},
		{0, "[....................]"},
		{150, "[####################]"},
	}
	for _, tt := range tests {
		if got := scoreBar(tt.score); got != tt.want {
			t.Errorf("scoreBar(%d) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("compact output is a single line", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).Write(newTestAnalysis("https://apple.com/", "apple.com")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Count(buf.String(), "\n") != 1 {
			t.Errorf("expected single line output, got %q", buf.String())
		}

		var decoded map[string]any
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if decoded["overall"] != float64(96) {
			t.Errorf("overall = %v, want 96", decoded["overall"])
		}
		if decoded["domain"] != "apple.com" {
			t.Errorf("domain = %v", decoded["domain"])
		}
	})

	t.Run("pretty print indents", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf, WithPrettyPrint()).Write(newTestAnalysis("https://apple.com/", "apple.com")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "\n  \"url\"") {
			t.Errorf("expected indented output, got %s", buf.String())
		}
	})
}

func TestExportWriter(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	var buf bytes.Buffer
	w := NewExportWriter(&buf, func() time.Time { return now })
	if _, err := w.Write(newTestAnalysis("https://github.com/", "github.com")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var got model.ExportReport
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if got.URL != "github.com" {
		t.Errorf("URL = %q, want domain", got.URL)
	}
	if got.Timestamp != "2024-03-01T12:30:00.000Z" {
		t.Errorf("Timestamp = %q", got.Timestamp)
	}
	if got.OverallScore != "89" {
		t.Errorf("OverallScore = %q", got.OverallScore)
	}
	if got.Categories.SafariReaderMode.Score != "90/100" || got.Categories.WCAGCompliance.Score != "88/100" {
		t.Errorf("unexpected category scores %+v", got.Categories)
	}
	if got.GeneratedBy != model.GeneratedBy || got.ReportURL != model.ReportURL {
		t.Errorf("unexpected footer fields %q %q", got.GeneratedBy, got.ReportURL)
	}
	if !strings.Contains(buf.String(), "\"safari_reader_mode\": {") {
		t.Error("export should be pretty-printed")
	}
}

func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("includes tables and chart", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(newTestAnalysis("https://apple.com/", "apple.com")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		for _, want := range []string{
			"# SurfaceScore Report",
			"## Category Scores",
			"```mermaid",
			"pie",
			"Safari Reader Mode",
			"[!TIP]",
			"No recommendations.",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected markdown to contain %q", want)
			}
		}
	})

	t.Run("lower tier gets a stronger alert", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(newTestAnalysis("https://example.com/", "example.com")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		// example.com scores 79 overall, which is the "good" band
		if !strings.Contains(output, "[!IMPORTANT]") {
			t.Errorf("expected IMPORTANT alert, got:\n%s", output)
		}
		if !strings.Contains(output, "| Medium") {
			t.Errorf("expected recommendation table, got:\n%s", output)
		}
	})
}

type failingWriter struct{}

func (failingWriter) Write(*model.Analysis) (int, error) {
	return 0, errors.New("boom")
}

func TestMultiWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes to all", func(t *testing.T) {
		t.Parallel()

		var a, b bytes.Buffer
		n, err := NewMultiWriter(NewJSONWriter(&a), NewSimpleWriter(&b)).Write(newTestAnalysis("https://apple.com/", "apple.com"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != a.Len()+b.Len() {
			t.Errorf("total = %d, want %d", n, a.Len()+b.Len())
		}
	})

	t.Run("stops on first error", func(t *testing.T) {
		t.Parallel()

		var b bytes.Buffer
		_, err := NewMultiWriter(failingWriter{}, NewSimpleWriter(&b)).Write(newTestAnalysis("https://apple.com/", "apple.com"))
		if err == nil {
			t.Fatal("expected error")
		}
		if b.Len() != 0 {
			t.Error("writers after the failing one should not run")
		}
	})
}

func TestExportFileName(t *testing.T) {
	t.Parallel()

	ts := time.UnixMilli(1700000000123)
	tests := []struct {
		domain string
		want   string
	}{
		{"example.com", "surfacescore-example-com-1700000000123.json"},
		{"Sub.Example.COM", "surfacescore-Sub-Example-COM-1700000000123.json"},
		{"localhost:8080", "surfacescore-localhost-8080-1700000000123.json"},
		{"xn--bcher-kva.example", "surfacescore-xn--bcher-kva-example-1700000000123.json"},
	}
	for _, tt := range tests {
		if got := ExportFileName(tt.domain, ts); got != tt.want {
			t.Errorf("ExportFileName(%q) = %q, want %q", tt.domain, got, tt.want)
		}
	}
}
