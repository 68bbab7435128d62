package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/surfacescore/surfacescore/internal/model"
)

// MarkdownWriter outputs a shareable Markdown summary.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the analysis in Markdown format.
func (w *MarkdownWriter) Write(a *model.Analysis) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, a)
	if a.Scored() {
		w.writeScores(md, a)
		w.writeDetails(md, a)
		w.writeRecommendations(md, a)
	}
	w.writeWarnings(md, a)
	w.writeFooter(md, a)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, a *model.Analysis) {
	md.H1("SurfaceScore Report")
	md.PlainText("")

	rows := [][]string{
		{"URL", "`" + a.URL + "`"},
		{"Analyzed", a.AnalyzedAt.Format("2006-01-02 15:04:05 MST")},
		{"Criteria Evaluated", strconv.Itoa(a.CriteriaCount)},
		{"Status", statusText(a)},
	}
	if a.Scored() {
		rows = append(rows, []string{"Overall Score", "**" + strconv.Itoa(a.Overall) + "/100**"})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

func statusText(a *model.Analysis) string {
	switch {
	case a.Cancelled:
		return "⚠️ Cancelled (partial results)"
	case a.FromCache:
		return "✅ Complete (cached)"
	default:
		return "✅ Complete"
	}
}

func (w *MarkdownWriter) writeScores(md *markdown.Markdown, a *model.Analysis) {
	md.H2("Category Scores")
	md.PlainText("")

	rows := make([][]string, 0, len(a.Categories))
	for _, cs := range a.Categories {
		rows = append(rows, []string{cs.Category.Title(), strconv.Itoa(cs.Score) + "/100"})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Category", "Score"},
		Rows:   rows,
	})
	md.PlainText("")

	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Score by Category"),
		piechart.WithShowData(true),
	)
	for _, cs := range a.Categories {
		chart.LabelAndIntValue(cs.Category.Title(), uint64(cs.Score))
	}
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")

	w.writeAlert(md, a)
}

// writeAlert writes a GitHub alert matching the rating band.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, a *model.Analysis) {
	text := a.Tier.Title + " " + a.Tier.Description
	switch a.Tier.Name {
	case "outstanding":
		md.Tip(text)
	case "excellent":
		md.Note(text)
	case "good":
		md.Importantf("%s %d recommendation(s) below.", text, len(a.Recommendations))
	default:
		md.Cautionf("%s %d recommendation(s) below.", text, len(a.Recommendations))
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeDetails(md *markdown.Markdown, a *model.Analysis) {
	md.H2("Details")
	md.PlainText("")
	for _, cs := range a.Categories {
		md.H3(cs.Category.Title())
		md.PlainText("")
		md.BulletList(cs.Details...)
		md.PlainText("")
	}
}

func (w *MarkdownWriter) writeRecommendations(md *markdown.Markdown, a *model.Analysis) {
	md.H2("Recommendations")
	md.PlainText("")

	if len(a.Recommendations) == 0 {
		md.PlainText("No recommendations. Keep up the good work.")
		md.PlainText("")
		return
	}

	rows := make([][]string, 0, len(a.Recommendations))
	for _, r := range a.Recommendations {
		rows = append(rows, []string{PriorityLabel(r.Priority), r.Title, r.Description})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Priority", "Title", "Description"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeWarnings(md *markdown.Markdown, a *model.Analysis) {
	if len(a.Warnings) == 0 {
		return
	}
	md.Warningf("%d warning(s) during analysis.", len(a.Warnings))
	md.PlainText("")
	md.BulletList(a.Warnings...)
	md.PlainText("")
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown, a *model.Analysis) {
	md.HorizontalRule()
	md.PlainText("")
	if a.Scored() {
		md.PlainText(a.ShareText())
		md.PlainText("")
	}
	md.PlainTextf("*Report generated by [%s](%s)*", model.GeneratedBy, model.ReportURL)
}
