package model

import (
	"fmt"
	"time"
)

const (
	// GeneratedBy is the product tag written into every export.
	GeneratedBy = "SurfaceScore v1.0"

	// ReportURL is the public site linked from exports and share text.
	ReportURL = "https://surfacescore.com"
)

// ExportCategory is a category entry in an exported report.
// Score is a string of the form "NN/100".
type ExportCategory struct {
	Score   string   `json:"score"`
	Details []string `json:"details"`
}

// ExportCategories groups the four exported categories under stable keys.
type ExportCategories struct {
	SafariReaderMode  ExportCategory `json:"safari_reader_mode"`
	AppleIntelligence ExportCategory `json:"apple_intelligence"`
	StructuredData    ExportCategory `json:"structured_data"`
	WCAGCompliance    ExportCategory `json:"wcag_compliance"`
}

// ExportReport is the downloadable JSON document for an analysis.
//
// Scores are strings rather than numbers so files stay compatible with
// the format users have already downloaded.
type ExportReport struct {
	URL          string           `json:"url"`
	Timestamp    string           `json:"timestamp"`
	OverallScore string           `json:"overall_score"`
	Categories   ExportCategories `json:"categories"`
	GeneratedBy  string           `json:"generated_by"`
	ReportURL    string           `json:"report_url"`
}

// NewExportReport converts an analysis into its export form, stamped with now.
func NewExportReport(a *Analysis, now time.Time) *ExportReport {
	r := &ExportReport{
		URL:          a.Domain,
		Timestamp:    now.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		OverallScore: fmt.Sprintf("%d", a.Overall),
		GeneratedBy:  GeneratedBy,
		ReportURL:    ReportURL,
	}
	for _, cs := range a.Categories {
		ec := ExportCategory{
			Score:   fmt.Sprintf("%d/100", cs.Score),
			Details: append([]string{}, cs.Details...),
		}
		switch cs.Category {
		case CategoryReader:
			r.Categories.SafariReaderMode = ec
		case CategoryAI:
			r.Categories.AppleIntelligence = ec
		case CategoryStructured:
			r.Categories.StructuredData = ec
		case CategoryWCAG:
			r.Categories.WCAGCompliance = ec
		}
	}
	return r
}
