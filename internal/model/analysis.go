package model

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/sha3"
)

// CategoryScore is the result for a single category.
type CategoryScore struct {
	// Category identifies the scored area.
	Category Category `json:"category"`

	// Score is the jittered, clamped score in [60, 100].
	Score int `json:"score"`

	// Details holds the canned bullet points for the score tier.
	Details []string `json:"details"`
}

// Recommendation is a suggested improvement derived from category scores.
type Recommendation struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Priority    Priority `json:"priority"`
}

// Tier describes the overall rating band a score falls into.
type Tier struct {
	// Name is a short machine-friendly label such as "outstanding".
	Name string `json:"name"`

	// Title is the headline shown next to the overall score.
	Title string `json:"title"`

	// Description is the sentence shown under the headline.
	Description string `json:"description"`

	// Color is the hex color associated with the overall score.
	Color string `json:"color"`
}

// PageInfo holds metadata extracted from the fetched page, when fetching is enabled.
// It is informational only and never influences scores.
type PageInfo struct {
	StatusCode      int         `json:"status_code"`
	ContentType     string      `json:"content_type,omitempty"`
	Title           string      `json:"title,omitempty"`
	Description     string      `json:"description,omitempty"`
	Lang            string      `json:"lang,omitempty"`
	Headings        map[int]int `json:"headings,omitempty"`
	Images          int         `json:"images"`
	ImagesWithAlt   int         `json:"images_with_alt"`
	JSONLDBlocks    int         `json:"json_ld_blocks"`
	HasArticle      bool        `json:"has_article"`
	HasMainLandmark bool        `json:"has_main_landmark"`
}

// Analysis is the full result bundle for one analyzed URL.
//
// An Analysis is built up by the pipeline: stages append to
// PerformedStages, the fetch stage fills Page, and the final stage fills
// the scores, recommendations and tier.
type Analysis struct {
	// ID uniquely identifies this analysis run.
	ID string `json:"id"`

	// URL is the normalized URL that was analyzed.
	URL string `json:"url"`

	// Domain is the hostname of URL. Exports label the report with it.
	Domain string `json:"domain"`

	// Overall is the rounded mean of the four category scores.
	Overall int `json:"overall"`

	// Categories holds one entry per category in display order.
	Categories []CategoryScore `json:"categories"`

	// Recommendations lists suggested improvements in rule order.
	Recommendations []Recommendation `json:"recommendations"`

	// Tier is the rating band for Overall.
	Tier Tier `json:"tier"`

	// CriteriaCount is the number of criteria reported as evaluated.
	CriteriaCount int `json:"criteria_count"`

	// AnalyzedAt is when the analysis started.
	AnalyzedAt time.Time `json:"analyzed_at"`

	// Duration is the wall-clock time the pipeline took.
	Duration time.Duration `json:"duration"`

	// FromCache is true when the result was served from the session cache.
	FromCache bool `json:"from_cache"`

	// Cancelled is true when the pipeline stopped before scoring.
	Cancelled bool `json:"cancelled,omitempty"`

	// PerformedStages lists the stage names that ran, in order.
	PerformedStages []string `json:"performed_stages,omitempty"`

	// Warnings collects non-fatal problems, such as a failed page fetch.
	Warnings []string `json:"warnings,omitempty"`

	// Page is set when the page was fetched.
	Page *PageInfo `json:"page,omitempty"`
}

// NewAnalysis returns an empty Analysis for the given URL and domain.
func NewAnalysis(url, domain string) *Analysis {
	return &Analysis{
		URL:        url,
		Domain:     domain,
		AnalyzedAt: time.Now(),
	}
}

// Score returns the score for c, or 0 if the category has not been scored yet.
func (a *Analysis) Score(c Category) int {
	for _, cs := range a.Categories {
		if cs.Category == c {
			return cs.Score
		}
	}
	return 0
}

// Scored reports whether scores have been computed.
func (a *Analysis) Scored() bool {
	return len(a.Categories) == len(Categories())
}

// AddWarning records a non-fatal problem.
func (a *Analysis) AddWarning(format string, args ...any) {
	a.Warnings = append(a.Warnings, fmt.Sprintf(format, args...))
}

// Clone returns a deep copy so cached results cannot be mutated by callers.
func (a *Analysis) Clone() *Analysis {
	if a == nil {
		return nil
	}
	c := *a
	c.Categories = make([]CategoryScore, len(a.Categories))
	for i, cs := range a.Categories {
		cs.Details = append([]string(nil), cs.Details...)
		c.Categories[i] = cs
	}
	c.Recommendations = append([]Recommendation(nil), a.Recommendations...)
	c.PerformedStages = append([]string(nil), a.PerformedStages...)
	c.Warnings = append([]string(nil), a.Warnings...)
	if a.Page != nil {
		p := *a.Page
		if a.Page.Headings != nil {
			p.Headings = make(map[int]int, len(a.Page.Headings))
			for k, v := range a.Page.Headings {
				p.Headings[k] = v
			}
		}
		c.Page = &p
	}
	return &c
}

// Fingerprint returns a SHA3-256 digest of the analysis identity (ID, URL
// and time) and its scores. Saving the same analysis twice yields the same
// fingerprint, so the history database stores it once; a later analysis
// with equal scores is a new entry.
func (a *Analysis) Fingerprint() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s|%s|%s", a.ID, a.URL, a.AnalyzedAt.UTC().Format(time.RFC3339Nano))
	for _, cs := range a.Categories {
		fmt.Fprintf(&b, "|%s=%d", cs.Category, cs.Score)
	}
	fmt.Fprintf(&b, "|overall=%d", a.Overall)
	sum := sha3.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// ShareText returns the message users can paste to share their result.
func (a *Analysis) ShareText() string {
	return fmt.Sprintf(
		"I analyzed %s with SurfaceScore and got %d/100 for Safari & Apple Intelligence compatibility! Check your site: %s",
		a.Domain, a.Overall, ReportURL)
}
