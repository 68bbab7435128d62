package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/markdown"
	"github.com/spf13/cobra"

	"github.com/surfacescore/surfacescore/internal/analyzer"
	"github.com/surfacescore/surfacescore/internal/config"
	"github.com/surfacescore/surfacescore/internal/database"
	"github.com/surfacescore/surfacescore/internal/model"
	"github.com/surfacescore/surfacescore/internal/report"
)

// Score trend directions.
const (
	trendImproved  = "improved"
	trendDeclined  = "declined"
	trendUnchanged = "unchanged"
)

// NewHistoryCmd creates the history command.
// It reads analyses stored with "surfacescore analyze --save".
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [domain]",
		Short: "Show stored analyses and compare scores over time",
		Long: `History reads analyses stored in the history database.

Without flags it lists every stored analysis of a domain. A URL may be given
instead of a domain; its host is used.

Examples:
  # List all analyzed domains
  surfacescore history --list-domains

  # List stored analyses for a domain
  surfacescore history example.com

  # Show a stored analysis by ID
  surfacescore history --id 3

  # Compare the two most recent analyses of a domain
  surfacescore history --compare example.com

  # Output the comparison in Markdown format
  surfacescore history --compare --markdown example.com`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().BoolP("list-domains", "L", false,
		"List all domains in the database")
	cmd.Flags().Int64P("id", "i", 0,
		"Show the stored analysis with this ID")
	cmd.Flags().BoolP("compare", "c", false,
		"Compare the two most recent analyses of the domain")
	cmd.Flags().BoolP("json", "j", false,
		"Output in JSON format")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output in Markdown format")
	cmd.Flags().String("db-dir", "",
		"Directory of the history database (default: XDG data directory)")

	return cmd
}

// historyOptions are the parsed history flags.
type historyOptions struct {
	domain      string
	listDomains bool
	id          int64
	compare     bool
	json        bool
	markdown    bool
	dbDir       string
}

func parseHistoryFlags(cmd *cobra.Command, args []string) (historyOptions, error) {
	var (
		opts historyOptions
		err  error
	)
	if opts.listDomains, err = cmd.Flags().GetBool("list-domains"); err != nil {
		return opts, err
	}
	if opts.id, err = cmd.Flags().GetInt64("id"); err != nil {
		return opts, err
	}
	if opts.compare, err = cmd.Flags().GetBool("compare"); err != nil {
		return opts, err
	}
	if opts.json, err = cmd.Flags().GetBool("json"); err != nil {
		return opts, err
	}
	if opts.markdown, err = cmd.Flags().GetBool("markdown"); err != nil {
		return opts, err
	}
	if opts.dbDir, err = cmd.Flags().GetString("db-dir"); err != nil {
		return opts, err
	}
	if opts.dbDir == "" {
		opts.dbDir = config.XDGDataDir()
	}

	if opts.json && opts.markdown {
		return opts, config.ErrConflictingReportFormats
	}

	// Validate before opening the database so bad input never creates it.
	if opts.listDomains || opts.id > 0 {
		return opts, nil
	}
	if len(args) == 0 {
		return opts, errors.New("domain is required (use --list-domains to see available domains)")
	}
	opts.domain, err = normalizeDomain(args[0])
	if err != nil {
		return opts, err
	}
	return opts, nil
}

// normalizeDomain accepts a bare domain or a URL and returns the host.
func normalizeDomain(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	target, err := analyzer.ValidateURL(raw)
	if err != nil {
		return "", fmt.Errorf("invalid domain: %s", analyzer.UserMessage(err))
	}
	return target.Host, nil
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	opts, err := parseHistoryFlags(cmd, args)
	if err != nil {
		return err
	}

	db, err := database.Open(opts.dbDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()
	out := cmd.OutOrStdout()

	switch {
	case opts.listDomains:
		return listDomains(ctx, out, db)
	case opts.id > 0:
		return showAnalysis(ctx, out, db, opts)
	case opts.compare:
		return compareLatest(ctx, out, db, opts)
	default:
		return listHistory(ctx, out, db, opts)
	}
}

// listDomains lists every domain that has stored analyses.
func listDomains(ctx context.Context, out io.Writer, db *database.HistoryDB) error {
	domains, err := db.ListDomains(ctx)
	if err != nil {
		return err
	}

	if len(domains) == 0 {
		fmt.Fprintln(out, "No analyses found in the database.")
		fmt.Fprintln(out, "\nUse 'surfacescore analyze --save <url>' to store an analysis.")
		return nil
	}

	fmt.Fprintf(out, "Analyzed domains (%d):\n\n", len(domains))
	for _, d := range domains {
		fmt.Fprintf(out, "  • %s\n", d)
	}
	fmt.Fprintln(out, "\nUse 'surfacescore history <domain>' to see the stored analyses of a domain.")
	return nil
}

// listHistory lists the stored analyses of one domain.
func listHistory(ctx context.Context, out io.Writer, db *database.HistoryDB, opts historyOptions) error {
	records, err := db.History(ctx, opts.domain)
	if err != nil {
		return err
	}

	if opts.json {
		return encodeJSON(out, records)
	}

	if len(records) == 0 {
		fmt.Fprintf(out, "No history found for %s\n", opts.domain)
		fmt.Fprintln(out, "\nUse 'surfacescore analyze --save' to analyze this domain.")
		return nil
	}

	fmt.Fprintf(out, "History for %s (%d analyses):\n\n", opts.domain, len(records))
	fmt.Fprintf(out, "  %-6s  %-20s  %-7s  %s\n", "ID", "Date", "Overall", "Reader/AI/Structured/WCAG")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 66))
	for _, r := range records {
		fmt.Fprintf(out, "  %-6d  %-20s  %-7d  %s\n",
			r.ID,
			r.Timestamp.Local().Format("2006-01-02 15:04:05"),
			r.Overall,
			formatScores(r.Scores),
		)
	}

	fmt.Fprintln(out, "\nUse 'surfacescore history --id <id>' to show a stored analysis.")
	fmt.Fprintln(out, "Use 'surfacescore history --compare <domain>' to compare the latest two analyses.")
	return nil
}

func formatScores(scores map[model.Category]int) string {
	parts := make([]string, 0, len(scores))
	for _, c := range model.Categories() {
		parts = append(parts, strconv.Itoa(scores[c]))
	}
	return strings.Join(parts, "/")
}

// showAnalysis prints one stored analysis in the selected format.
func showAnalysis(ctx context.Context, out io.Writer, db *database.HistoryDB, opts historyOptions) error {
	a, err := db.ByID(ctx, opts.id)
	if err != nil {
		return err
	}
	if a == nil {
		return fmt.Errorf("no analysis with ID %d", opts.id)
	}

	var w report.Writer
	switch {
	case opts.json:
		w = report.NewJSONWriter(out, report.WithPrettyPrint())
	case opts.markdown:
		w = report.NewMarkdownWriter(out)
	default:
		w = report.NewSimpleWriter(out)
	}
	_, err = w.Write(a)
	return err
}

// CategoryChange is the score change of one category between two analyses.
type CategoryChange struct {
	Category string `json:"category"`
	Previous int    `json:"previous"`
	Current  int    `json:"current"`
	Delta    int    `json:"delta"`
}

// Comparison is the difference between two stored analyses of a domain.
type Comparison struct {
	Domain          string           `json:"domain"`
	PreviousID      int64            `json:"previous_id"`
	CurrentID       int64            `json:"current_id"`
	PreviousDate    time.Time        `json:"previous_date"`
	CurrentDate     time.Time        `json:"current_date"`
	PreviousOverall int              `json:"previous_overall"`
	CurrentOverall  int              `json:"current_overall"`
	OverallDelta    int              `json:"overall_delta"`
	Trend           string           `json:"trend"`
	Categories      []CategoryChange `json:"categories"`
}

// compareRecords compares previous with current.
func compareRecords(previous, current database.Record) Comparison {
	c := Comparison{
		Domain:          current.Domain,
		PreviousID:      previous.ID,
		CurrentID:       current.ID,
		PreviousDate:    previous.Timestamp,
		CurrentDate:     current.Timestamp,
		PreviousOverall: previous.Overall,
		CurrentOverall:  current.Overall,
		OverallDelta:    current.Overall - previous.Overall,
	}
	for _, cat := range model.Categories() {
		c.Categories = append(c.Categories, CategoryChange{
			Category: cat.Title(),
			Previous: previous.Scores[cat],
			Current:  current.Scores[cat],
			Delta:    current.Scores[cat] - previous.Scores[cat],
		})
	}

	switch {
	case c.OverallDelta > 0:
		c.Trend = trendImproved
	case c.OverallDelta < 0:
		c.Trend = trendDeclined
	default:
		c.Trend = trendUnchanged
	}
	return c
}

// compareLatest compares the two most recent analyses of a domain.
func compareLatest(ctx context.Context, out io.Writer, db *database.HistoryDB, opts historyOptions) error {
	records, err := db.History(ctx, opts.domain)
	if err != nil {
		return err
	}
	if len(records) < 2 {
		return fmt.Errorf("need at least two analyses of %s to compare, found %d", opts.domain, len(records))
	}

	// History is newest first.
	c := compareRecords(records[1], records[0])

	switch {
	case opts.json:
		return encodeJSON(out, c)
	case opts.markdown:
		return writeComparisonMarkdown(out, c)
	default:
		writeComparisonText(out, c)
		return nil
	}
}

func writeComparisonText(out io.Writer, c Comparison) {
	fmt.Fprintf(out, "Score Comparison: %s\n", c.Domain)
	fmt.Fprintln(out, strings.Repeat("=", 60))

	fmt.Fprintf(out, "\nTrend: %s\n", formatTrend(c.Trend))
	fmt.Fprintf(out, "\nPrevious analysis: #%d %s\n", c.PreviousID, c.PreviousDate.Local().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(out, "Current analysis:  #%d %s\n", c.CurrentID, c.CurrentDate.Local().Format("2006-01-02 15:04:05"))

	fmt.Fprintln(out, "\nScores:")
	fmt.Fprintf(out, "  %-26s  %-8s  %-8s  %-6s\n", "Category", "Previous", "Current", "Change")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 54))
	for _, cc := range c.Categories {
		fmt.Fprintf(out, "  %-26s  %-8d  %-8d  %-6s\n", cc.Category, cc.Previous, cc.Current, formatDelta(cc.Delta))
	}
	fmt.Fprintln(out, "  "+strings.Repeat("-", 54))
	fmt.Fprintf(out, "  %-26s  %-8d  %-8d  %-6s\n", "Overall", c.PreviousOverall, c.CurrentOverall, formatDelta(c.OverallDelta))
}

func writeComparisonMarkdown(out io.Writer, c Comparison) error {
	rows := make([][]string, 0, len(c.Categories)+1)
	for _, cc := range c.Categories {
		rows = append(rows, []string{cc.Category, strconv.Itoa(cc.Previous), strconv.Itoa(cc.Current), formatDelta(cc.Delta)})
	}
	rows = append(rows, []string{
		"**Overall**",
		"**" + strconv.Itoa(c.PreviousOverall) + "**",
		"**" + strconv.Itoa(c.CurrentOverall) + "**",
		"**" + formatDelta(c.OverallDelta) + "**",
	})

	return markdown.NewMarkdown(out).
		H1("Score Comparison: " + c.Domain).
		PlainText("").
		H2("Summary").
		PlainText("").
		PlainTextf("**Trend:** %s", formatTrend(c.Trend)).
		PlainText("").
		PlainTextf("Previous analysis #%d on %s, current analysis #%d on %s.",
			c.PreviousID, c.PreviousDate.Format("2006-01-02 15:04"),
			c.CurrentID, c.CurrentDate.Format("2006-01-02 15:04")).
		PlainText("").
		Table(markdown.TableSet{
			Header: []string{"Category", "Previous", "Current", "Change"},
			Rows:   rows,
		}).
		Build()
}

func encodeJSON(out io.Writer, v any) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// formatTrend formats a trend direction for display.
func formatTrend(trend string) string {
	switch trend {
	case trendImproved:
		return "IMPROVED (score increased)"
	case trendDeclined:
		return "DECLINED (score decreased)"
	default:
		return "UNCHANGED"
	}
}

// formatDelta formats a numeric delta with sign for display.
func formatDelta(delta int) string {
	if delta > 0 {
		return "+" + strconv.Itoa(delta)
	}
	return strconv.Itoa(delta)
}
