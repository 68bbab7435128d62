package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/surfacescore/surfacescore/internal/analyzer"
	"github.com/surfacescore/surfacescore/internal/config"
	"github.com/surfacescore/surfacescore/internal/database"
	"github.com/surfacescore/surfacescore/internal/model"
	"github.com/surfacescore/surfacescore/internal/pipeline"
	"github.com/surfacescore/surfacescore/internal/report"
)

// NewAnalyzeCmd creates the analyze command.
func NewAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [url...]",
		Short: "Analyze one or more websites",
		Long: `Analyze scores websites for Safari Reader mode, Apple Intelligence readiness,
structured data and WCAG compliance.

The analysis walks through five stages and reports its progress on stderr.
A URL that was already analyzed in the same run is served from the cache.

Examples:
  # Analyze a single website
  surfacescore analyze https://example.com

  # Analyze without the stage delays and print JSON
  surfacescore analyze --delay-scale 0 --json https://example.com

  # Write the downloadable export report
  surfacescore analyze --export https://example.com

  # Analyze every URL listed in a file, four at a time
  surfacescore analyze --list urls.txt --batch 4

  # Store the result in the history database
  surfacescore analyze --save https://example.com`,
		RunE: runAnalyzeCmd,
	}

	// Output format flags
	cmd.Flags().BoolP("json", "j", false,
		"Output the full analysis in JSON format")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output the report in Markdown format")
	cmd.Flags().BoolP("export", "e", false,
		"Write the export report (default file name: surfacescore-<domain>-<millis>.json)")
	cmd.Flags().StringP("output", "o", "",
		"Output file path (default: stdout)")

	// Target flags
	cmd.Flags().StringP("list", "l", "",
		"File with one URL per line (blank lines and # comments are skipped)")
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of URLs analyzed concurrently")

	addSettingsFlags(cmd)

	return cmd
}

// runAnalyzeCmd executes the analyze command.
func runAnalyzeCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildAnalyzeConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.ValidateAnalyze(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd)
	ctx, cancel := signalContext(logger)
	defer cancel()

	return runAnalyze(ctx, cfg, logger, cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// buildAnalyzeConfig creates a Config from cobra command flags and the
// configuration file.
func buildAnalyzeConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	if err := readSettingsFlags(cmd, cfg); err != nil {
		return nil, err
	}

	var err error
	if cfg.BatchSize, err = cmd.Flags().GetInt("batch"); err != nil {
		return nil, err
	}
	if cfg.JSONReport, err = cmd.Flags().GetBool("json"); err != nil {
		return nil, err
	}
	if cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown"); err != nil {
		return nil, err
	}
	if cfg.ExportReport, err = cmd.Flags().GetBool("export"); err != nil {
		return nil, err
	}
	if cfg.ReportFile, err = cmd.Flags().GetString("output"); err != nil {
		return nil, err
	}

	if err := loadConfigFile(cmd, cfg); err != nil {
		return nil, err
	}

	cfg.Targets = append(cfg.Targets, args...)

	listFile, err := cmd.Flags().GetString("list")
	if err != nil {
		return nil, err
	}
	if listFile != "" {
		targets, err := readTargets(listFile)
		if err != nil {
			return nil, err
		}
		cfg.Targets = append(cfg.Targets, targets...)
	}

	return cfg, nil
}

// readTargets reads URLs from path, one per line.
func readTargets(path string) ([]string, error) {
	f, err := os.Open(path) //nolint:gosec // User-provided list path is intentional
	if err != nil {
		return nil, fmt.Errorf("failed to open target list: %w", err)
	}
	defer f.Close()

	var targets []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		targets = append(targets, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read target list: %w", err)
	}
	return targets, nil
}

// analyzeRun holds what every analysis of one command invocation shares.
type analyzeRun struct {
	cfg    *config.Config
	logger *slog.Logger
	out    io.Writer
	errOut io.Writer
	writer report.Writer
	db     *database.HistoryDB
	now    func() time.Time

	// stageDelay is the time one fresh analysis spends in stage delays.
	stageDelay time.Duration

	// mu serializes output when analyses finish concurrently.
	mu     sync.Mutex
	failed int
}

// runAnalyze analyzes cfg.Targets and writes the reports.
func runAnalyze(ctx context.Context, cfg *config.Config, logger *slog.Logger, stdout, stderr io.Writer) error {
	rules, err := loadRules(cfg)
	if err != nil {
		return err
	}
	scorer := buildScorer(cfg, rules)
	fetcher := newFetcher(cfg)

	factory := func(progress pipeline.ProgressFunc) *pipeline.Pipeline {
		return pipeline.NewAnalysisPipeline(scorer, fetcher,
			pipeline.WithLogger(logger),
			pipeline.WithDelayScale(cfg.DelayScale),
			pipeline.WithProgress(progress),
		)
	}

	run := &analyzeRun{
		cfg:        cfg,
		logger:     logger,
		out:        stdout,
		errOut:     stderr,
		now:        time.Now,
		stageDelay: factory(nil).TotalDelay(),
	}

	if cfg.SaveToDB {
		db, err := database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		run.db = db
	}

	if cfg.ReportFile != "" && !cfg.ExportReport {
		f, err := createOutputFile(cfg.ReportFile)
		if err != nil {
			return err
		}
		defer f.Close()
		run.out = f
	}
	run.writer = newReportWriter(cfg, run.out)

	a := analyzer.New(factory, analyzer.WithLogger(logger))

	if len(cfg.Targets) == 1 || cfg.BatchSize == 1 {
		err = run.sequential(ctx, a)
	} else {
		err = run.batch(ctx, a, factory)
	}
	if err != nil {
		return err
	}
	if run.failed > 0 {
		return fmt.Errorf("%d of %d analyses failed", run.failed, len(cfg.Targets))
	}
	return nil
}

// sequential analyzes the targets one after another through a single
// Analyzer, so repeated URLs are served from its cache.
func (r *analyzeRun) sequential(ctx context.Context, a *analyzer.Analyzer) error {
	for i, target := range r.cfg.Targets {
		if err := ctx.Err(); err != nil {
			return err
		}

		if _, cached := a.Cached(target); cached || r.stageDelay <= 0 {
			fmt.Fprintf(r.errOut, "Analyzing %s...\n", target)
		} else {
			fmt.Fprintf(r.errOut, "Analyzing %s (about %s)...\n", target, r.stageDelay.Round(time.Millisecond))
		}
		result, err := a.Analyze(ctx, target, r.printProgress)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			r.fail(target, err)
			continue
		}

		if result.FromCache {
			fmt.Fprintf(r.errOut, "Served from cache\n\n")
		} else {
			fmt.Fprintf(r.errOut, "Analysis completed in %s\n\n", result.Duration.Round(time.Millisecond))
		}
		r.finish(ctx, result, i)
	}
	return nil
}

// batch analyzes the targets concurrently.
func (r *analyzeRun) batch(ctx context.Context, a *analyzer.Analyzer, factory analyzer.PipelineFactory) error {
	total := len(r.cfg.Targets)
	fmt.Fprintf(r.errOut, "Starting batch analysis of %d targets (concurrency: %d)...\n\n", total, r.cfg.BatchSize)
	start := time.Now()

	bp := pipeline.NewBatchProcessor(
		func() *pipeline.Pipeline { return factory(nil) },
		a.Prepare,
		pipeline.WithConcurrency(r.cfg.BatchSize),
		pipeline.WithBatchLogger(r.logger),
	)

	err := bp.ProcessBatchWithCallback(ctx, r.cfg.Targets, func(res pipeline.BatchResult, index int) {
		if res.Err != nil {
			if !errors.Is(res.Err, context.Canceled) {
				r.fail(res.Target, res.Err)
			}
			return
		}

		r.mu.Lock()
		fmt.Fprintf(r.errOut, "[%d/%d] Analysis completed: %s\n", index+1, total, res.Analysis.URL)
		r.mu.Unlock()
		r.finish(ctx, res.Analysis, index)
	})

	fmt.Fprintf(r.errOut, "\nBatch analysis completed in %s\n", time.Since(start).Round(time.Millisecond))
	return err
}

func (r *analyzeRun) printProgress(p pipeline.Progress) {
	fmt.Fprintf(r.errOut, "  [%3d%%] %s\n", p.Percent, p.Text)
}

func (r *analyzeRun) fail(target string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed++
	r.logger.Warn("analysis failed", "target", target, "error", err)
	fmt.Fprintf(r.errOut, "Analysis error for %s: %s\n", target, analyzer.UserMessage(err))
}

// finish writes the report for the analysis of target index and stores it.
func (r *analyzeRun) finish(ctx context.Context, a *model.Analysis, index int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.output(a, index); err != nil {
		r.logger.Error("report failed", "target", a.URL, "error", err)
		fmt.Fprintf(r.errOut, "Report error for %s: %v\n", a.URL, err)
	}

	if err := saveAnalysis(ctx, r.db, a, r.logger); err != nil {
		r.logger.Error("failed to save analysis", "target", a.URL, "error", err)
	}
}

func (r *analyzeRun) output(a *model.Analysis, index int) error {
	if !r.cfg.ExportReport {
		_, err := r.writer.Write(a)
		return err
	}

	path := r.exportPath(a, index)

	f, err := createOutputFile(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := report.NewExportWriter(f, r.now).Write(a); err != nil {
		return err
	}
	fmt.Fprintf(r.errOut, "Exported report: %s\n", path)
	return nil
}

// exportPath returns where the export of target index is written: the
// --output path for a single target, otherwise a generated name in the
// directory of --output. With several targets the name carries the target's
// position, since two exports of one host can share a millisecond.
func (r *analyzeRun) exportPath(a *model.Analysis, index int) string {
	if r.cfg.ReportFile != "" && len(r.cfg.Targets) <= 1 {
		return r.cfg.ReportFile
	}

	name := report.ExportFileName(a.Domain, r.now())
	if len(r.cfg.Targets) > 1 {
		name = fmt.Sprintf("%s-%d.json", strings.TrimSuffix(name, ".json"), index+1)
	}
	if r.cfg.ReportFile != "" {
		return filepath.Join(filepath.Dir(r.cfg.ReportFile), name)
	}
	return name
}

// newReportWriter selects the writer for the configured format.
func newReportWriter(cfg *config.Config, output io.Writer) report.Writer {
	switch {
	case cfg.JSONReport:
		return report.NewJSONWriter(output, report.WithPrettyPrint())
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(output)
	default:
		return report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose))
	}
}

// createOutputFile creates or truncates path with owner-only permissions,
// creating parent directories as needed.
func createOutputFile(path string) (*os.File, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // User-provided output path is intentional
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, nil
}

// saveAnalysis stores a in the history database.
// If db is nil, this function is a no-op.
func saveAnalysis(ctx context.Context, db *database.HistoryDB, a *model.Analysis, logger *slog.Logger) error {
	if db == nil || a.FromCache {
		return nil
	}

	saved, err := db.Save(ctx, a)
	if err != nil {
		return fmt.Errorf("failed to save analysis: %w", err)
	}
	if saved {
		logger.Info("analysis saved to database", "target", a.URL)
	} else {
		logger.Debug("analysis already in database", "target", a.URL)
	}
	return nil
}
