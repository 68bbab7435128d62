package main

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/surfacescore/surfacescore/internal/database"
	"github.com/surfacescore/surfacescore/internal/model"
	"github.com/surfacescore/surfacescore/internal/scoring"
)

// seedHistory stores one analysis of apple.com per jitter value, oldest first.
func seedHistory(t *testing.T, jitters ...int) string {
	t.Helper()
	dir := t.TempDir()
	db, err := database.Open(dir, database.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	start := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, j := range jitters {
		a := model.NewAnalysis("https://apple.com/", "apple.com")
		a.AnalyzedAt = start.Add(time.Duration(i) * time.Hour)
		scoring.NewScorer(nil, scoring.WithFixedJitter(j)).Apply(a)
		if _, err := db.Save(t.Context(), a); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestNormalizeDomain(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "Example.COM", want: "example.com"},
		{in: "https://www.apple.com/iphone", want: "www.apple.com"},
		{in: "  github.com  ", want: "github.com"},
		{in: "ftp://example.com", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := normalizeDomain(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("normalizeDomain(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCompareRecords(t *testing.T) {
	t.Parallel()

	previous := database.Record{
		ID:      1,
		Domain:  "apple.com",
		Overall: 90,
		Scores: map[model.Category]int{
			model.CategoryReader: 95, model.CategoryAI: 88, model.CategoryStructured: 92, model.CategoryWCAG: 85,
		},
	}
	current := database.Record{
		ID:      2,
		Domain:  "apple.com",
		Overall: 87,
		Scores: map[model.Category]int{
			model.CategoryReader: 90, model.CategoryAI: 88, model.CategoryStructured: 80, model.CategoryWCAG: 90,
		},
	}

	c := compareRecords(previous, current)
	if c.Trend != trendDeclined || c.OverallDelta != -3 {
		t.Errorf("unexpected trend %s (%d)", c.Trend, c.OverallDelta)
	}
	if len(c.Categories) != 4 {
		t.Fatalf("expected 4 categories, got %d", len(c.Categories))
	}
	wantDeltas := []int{-5, 0, -12, 5}
	for i, want := range wantDeltas {
		if c.Categories[i].Delta != want {
			t.Errorf("%s delta = %d, want %d", c.Categories[i].Category, c.Categories[i].Delta, want)
		}
	}

	if got := compareRecords(current, current).Trend; got != trendUnchanged {
		t.Errorf("expected unchanged trend, got %s", got)
	}
	if got := compareRecords(current, previous).Trend; got != trendImproved {
		t.Errorf("expected improved trend, got %s", got)
	}
}

func TestFormatDelta(t *testing.T) {
	t.Parallel()

	for delta, want := range map[int]string{3: "+3", 0: "0", -4: "-4"} {
		if got := formatDelta(delta); got != want {
			t.Errorf("formatDelta(%d) = %q, want %q", delta, got, want)
		}
	}
}

func TestHistoryCmd(t *testing.T) {
	t.Parallel()

	t.Run("lists domains", func(t *testing.T) {
		t.Parallel()

		dir := seedHistory(t, 0)
		stdout, _, err := runRoot(t, "history", "--db-dir", dir, "--list-domains")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(stdout, "Analyzed domains (1)") || !strings.Contains(stdout, "apple.com") {
			t.Errorf("unexpected output %q", stdout)
		}
	})

	t.Run("empty database", func(t *testing.T) {
		t.Parallel()

		stdout, _, err := runRoot(t, "history", "--db-dir", t.TempDir(), "-L")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(stdout, "No analyses found") {
			t.Errorf("unexpected output %q", stdout)
		}
	})

	t.Run("lists history of a domain", func(t *testing.T) {
		t.Parallel()

		dir := seedHistory(t, 0, 2)
		stdout, _, err := runRoot(t, "history", "--db-dir", dir, "https://apple.com")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(stdout, "History for apple.com (2 analyses)") {
			t.Errorf("unexpected output %q", stdout)
		}
		// Base scores with no jitter.
		if !strings.Contains(stdout, "98/96/94/95") {
			t.Errorf("expected per-category scores, got %q", stdout)
		}
	})

	t.Run("lists history as JSON", func(t *testing.T) {
		t.Parallel()

		dir := seedHistory(t, 0, -5)
		stdout, _, err := runRoot(t, "history", "--db-dir", dir, "--json", "apple.com")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var records []database.Record
		if err := json.Unmarshal([]byte(stdout), &records); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(records) != 2 || records[0].Overall >= records[1].Overall {
			t.Errorf("expected newest (lower) record first, got %+v", records)
		}
	})

	t.Run("shows a stored analysis", func(t *testing.T) {
		t.Parallel()

		dir := seedHistory(t, 0)
		stdout, _, err := runRoot(t, "history", "--db-dir", dir, "--id", "1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(stdout, "SURFACESCORE REPORT") || !strings.Contains(stdout, "96/100") {
			t.Errorf("unexpected output %q", stdout)
		}
	})

	t.Run("unknown ID", func(t *testing.T) {
		t.Parallel()

		_, _, err := runRoot(t, "history", "--db-dir", seedHistory(t, 0), "--id", "42")
		if err == nil || !strings.Contains(err.Error(), "no analysis with ID 42") {
			t.Errorf("expected missing ID error, got %v", err)
		}
	})

	t.Run("compares the latest two analyses", func(t *testing.T) {
		t.Parallel()

		dir := seedHistory(t, 0, -4)
		stdout, _, err := runRoot(t, "history", "--db-dir", dir, "--compare", "apple.com")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(stdout, "Score Comparison: apple.com") || !strings.Contains(stdout, "DECLINED") {
			t.Errorf("unexpected output %q", stdout)
		}
		if !strings.Contains(stdout, "-4") {
			t.Errorf("expected deltas, got %q", stdout)
		}
	})

	t.Run("compares in Markdown", func(t *testing.T) {
		t.Parallel()

		dir := seedHistory(t, -3, 1)
		stdout, _, err := runRoot(t, "history", "--db-dir", dir, "--compare", "--markdown", "apple.com")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(stdout, "# Score Comparison: apple.com") || !strings.Contains(stdout, "IMPROVED") {
			t.Errorf("unexpected output %q", stdout)
		}
	})

	t.Run("compare needs two analyses", func(t *testing.T) {
		t.Parallel()

		_, _, err := runRoot(t, "history", "--db-dir", seedHistory(t, 0), "-c", "apple.com")
		if err == nil || !strings.Contains(err.Error(), "need at least two analyses") {
			t.Errorf("expected comparison error, got %v", err)
		}
	})

	t.Run("requires a domain", func(t *testing.T) {
		t.Parallel()

		_, _, err := runRoot(t, "history", "--db-dir", t.TempDir())
		if err == nil || !strings.Contains(err.Error(), "domain is required") {
			t.Errorf("expected missing domain error, got %v", err)
		}
	})
}
