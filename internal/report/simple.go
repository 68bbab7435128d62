package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/surfacescore/surfacescore/internal/model"
)

// SimpleWriter outputs a plain-text report for terminal display.
type SimpleWriter struct {
	baseWriter

	// verbose adds page metadata and stage timing.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

var titleCaser = cases.Title(language.English)

// PriorityLabel returns the display label for p, e.g. "High".
func PriorityLabel(p model.Priority) string {
	return titleCaser.String(p.String())
}

// Write outputs the analysis in human-readable format.
func (w *SimpleWriter) Write(a *model.Analysis) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, a)
	w.writeScores(&sb, a)
	w.writeRecommendations(&sb, a)
	if w.verbose {
		w.writePage(&sb, a)
	}
	w.writeWarnings(&sb, a)
	w.writeFooter(&sb, a)

	return io.WriteString(w.output, sb.String())
}

func (w *SimpleWriter) writeHeader(sb *strings.Builder, a *model.Analysis) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                      SURFACESCORE REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "URL:            %s\n", a.URL)
	fmt.Fprintf(sb, "Analyzed:       %s\n", a.AnalyzedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(sb, "Criteria:       %d evaluated\n", a.CriteriaCount)

	switch {
	case a.Cancelled:
		sb.WriteString("Status:         CANCELLED (partial results)\n")
	case a.FromCache:
		sb.WriteString("Status:         Complete (cached)\n")
	default:
		sb.WriteString("Status:         Complete\n")
	}
	sb.WriteString("\n")

	if !a.Scored() {
		return
	}
	fmt.Fprintf(sb, "Overall Score:  %d/100\n", a.Overall)
	if a.Tier.Title != "" {
		fmt.Fprintf(sb, "Rating:         %s\n", a.Tier.Title)
		fmt.Fprintf(sb, "                %s\n", a.Tier.Description)
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeScores(sb *strings.Builder, a *model.Analysis) {
	if !a.Scored() {
		return
	}
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("CATEGORY SCORES\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")

	for _, cs := range a.Categories {
		fmt.Fprintf(sb, "\n%-24s %3d/100  %s\n", cs.Category.Title(), cs.Score, scoreBar(cs.Score))
		for _, d := range cs.Details {
			fmt.Fprintf(sb, "  • %s\n", d)
		}
	}
	sb.WriteString("\n")
}

// scoreBar renders a 20-cell bar for a 0-100 score.
func scoreBar(score int) string {
	filled := score / 5
	if filled < 0 {
		filled = 0
	}
	if filled > 20 {
		filled = 20
	}
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", 20-filled) + "]"
}

func (w *SimpleWriter) writeRecommendations(sb *strings.Builder, a *model.Analysis) {
	if !a.Scored() {
		return
	}
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("RECOMMENDATIONS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if len(a.Recommendations) == 0 {
		sb.WriteString("No recommendations. Keep up the good work.\n\n")
		return
	}
	for i, r := range a.Recommendations {
		fmt.Fprintf(sb, "%d. [%s] %s\n", i+1, PriorityLabel(r.Priority), r.Title)
		fmt.Fprintf(sb, "   %s\n\n", r.Description)
	}
}

func (w *SimpleWriter) writePage(sb *strings.Builder, a *model.Analysis) {
	if a.Page == nil {
		return
	}
	p := a.Page
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("PAGE\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "Status:         %d\n", p.StatusCode)
	if p.Title != "" {
		fmt.Fprintf(sb, "Title:          %s\n", p.Title)
	}
	if p.Lang != "" {
		fmt.Fprintf(sb, "Language:       %s\n", p.Lang)
	}
	fmt.Fprintf(sb, "Images:         %d (%d with alt text)\n", p.Images, p.ImagesWithAlt)
	fmt.Fprintf(sb, "JSON-LD blocks: %d\n", p.JSONLDBlocks)
	if len(p.Headings) > 0 {
		levels := make([]int, 0, len(p.Headings))
		for l := range p.Headings {
			levels = append(levels, l)
		}
		sort.Ints(levels)
		parts := make([]string, 0, len(levels))
		for _, l := range levels {
			parts = append(parts, fmt.Sprintf("h%d=%d", l, p.Headings[l]))
		}
		fmt.Fprintf(sb, "Headings:       %s\n", strings.Join(parts, " "))
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeWarnings(sb *strings.Builder, a *model.Analysis) {
	if len(a.Warnings) == 0 {
		return
	}
	sb.WriteString("Warnings:\n")
	for _, warn := range a.Warnings {
		fmt.Fprintf(sb, "  ! %s\n", warn)
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeFooter(sb *strings.Builder, a *model.Analysis) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	if w.verbose {
		fmt.Fprintf(sb, "Completed in %s\n", a.Duration.Round(time.Millisecond))
	}
	if a.Scored() {
		sb.WriteString(a.ShareText())
		sb.WriteString("\n")
	}
}
