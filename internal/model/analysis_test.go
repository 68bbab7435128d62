package model

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func sampleAnalysis() *Analysis {
	a := NewAnalysis("https://www.apple.com/", "www.apple.com")
	a.Overall = 95
	a.Categories = []CategoryScore{
		{Category: CategoryReader, Score: 98, Details: []string{"Excellent semantic HTML structure"}},
		{Category: CategoryAI, Score: 96, Details: []string{"Excellent content structure for AI"}},
		{Category: CategoryStructured, Score: 91, Details: []string{"Comprehensive Schema.org markup"}},
		{Category: CategoryWCAG, Score: 95, Details: []string{"Excellent color contrast ratios"}},
	}
	return a
}

func TestAnalysisScore(t *testing.T) {
	t.Parallel()

	a := sampleAnalysis()
	if got := a.Score(CategoryStructured); got != 91 {
		t.Errorf("Score(structured) = %d, want 91", got)
	}
	if !a.Scored() {
		t.Error("expected Scored() to be true")
	}

	empty := NewAnalysis("https://example.com/", "example.com")
	if empty.Score(CategoryReader) != 0 {
		t.Error("expected 0 for unscored analysis")
	}
	if empty.Scored() {
		t.Error("expected Scored() to be false for empty analysis")
	}
}

func TestAnalysisClone(t *testing.T) {
	t.Parallel()

	a := sampleAnalysis()
	a.Page = &PageInfo{Title: "Apple", Headings: map[int]int{1: 1}}
	c := a.Clone()

	c.Categories[0].Details[0] = "mutated"
	c.Page.Headings[1] = 5

	if a.Categories[0].Details[0] == "mutated" {
		t.Error("clone shares detail slices with original")
	}
	if a.Page.Headings[1] != 1 {
		t.Error("clone shares heading map with original")
	}

	var nilAnalysis *Analysis
	if nilAnalysis.Clone() != nil {
		t.Error("expected nil clone of nil analysis")
	}
}

func TestAnalysisFingerprint(t *testing.T) {
	t.Parallel()

	a := sampleAnalysis()
	b := a.Clone()

	if a.Fingerprint() != b.Fingerprint() {
		t.Error("copies of one analysis must share a fingerprint")
	}
	if len(a.Fingerprint()) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(a.Fingerprint()))
	}

	b.Categories[2].Score = 90
	if a.Fingerprint() == b.Fingerprint() {
		t.Error("different scores must change the fingerprint")
	}

	later := a.Clone()
	later.AnalyzedAt = a.AnalyzedAt.Add(time.Minute)
	if a.Fingerprint() == later.Fingerprint() {
		t.Error("a later analysis with equal scores must get its own fingerprint")
	}

	rerun := a.Clone()
	rerun.ID = "other"
	if a.Fingerprint() == rerun.Fingerprint() {
		t.Error("a different analysis ID must change the fingerprint")
	}
}

func TestAnalysisShareText(t *testing.T) {
	t.Parallel()

	got := sampleAnalysis().ShareText()
	want := "I analyzed www.apple.com with SurfaceScore and got 95/100 for Safari & Apple Intelligence compatibility! Check your site: https://surfacescore.com"
	if got != want {
		t.Errorf("ShareText() = %q, want %q", got, want)
	}
}

func TestAnalysisAddWarning(t *testing.T) {
	t.Parallel()

	a := NewAnalysis("https://example.com/", "example.com")
	a.AddWarning("fetch failed: %s", "timeout")
	if len(a.Warnings) != 1 || a.Warnings[0] != "fetch failed: timeout" {
		t.Errorf("unexpected warnings %v", a.Warnings)
	}
}

func TestNewExportReport(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	r := NewExportReport(sampleAnalysis(), now)

	if r.URL != "www.apple.com" {
		t.Errorf("URL = %q, want domain", r.URL)
	}
	if r.Timestamp != "2024-03-01T12:30:00.000Z" {
		t.Errorf("Timestamp = %q", r.Timestamp)
	}
	if r.OverallScore != "95" {
		t.Errorf("OverallScore = %q, want \"95\"", r.OverallScore)
	}
	if r.Categories.StructuredData.Score != "91/100" {
		t.Errorf("structured score = %q", r.Categories.StructuredData.Score)
	}
	if r.GeneratedBy != "SurfaceScore v1.0" || r.ReportURL != "https://surfacescore.com" {
		t.Errorf("unexpected footer fields %q %q", r.GeneratedBy, r.ReportURL)
	}

	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, key := range []string{
		`"overall_score":"95"`,
		`"safari_reader_mode":{"score":"98/100"`,
		`"apple_intelligence"`,
		`"wcag_compliance"`,
		`"generated_by":"SurfaceScore v1.0"`,
	} {
		if !strings.Contains(string(data), key) {
			t.Errorf("expected %s in export JSON %s", key, data)
		}
	}
}
