package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/surfacescore/surfacescore/internal/config"
	"github.com/surfacescore/surfacescore/internal/fetch"
	"github.com/surfacescore/surfacescore/internal/log"
	"github.com/surfacescore/surfacescore/internal/pipeline"
	"github.com/surfacescore/surfacescore/internal/scoring"
)

// getVerboseFlag reads the persistent --verbose flag.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// setupLogger creates the structured logger for a command and makes it the
// default.
func setupLogger(cmd *cobra.Command) *slog.Logger {
	format, err := cmd.Flags().GetString("log-format")
	if err != nil {
		format = ""
	}
	logger := log.NewSecureLogger(cmd.ErrOrStderr(), getVerboseFlag(cmd), log.ParseFormat(format))
	slog.SetDefault(logger)
	return logger
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		defer signal.Stop(sigCh)
		select {
		case <-sigCh:
			logger.Info("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

// loadConfigFile finds and loads the configuration file, then applies it to
// cfg. Flags the user set explicitly win over file settings.
//
// An explicitly given path that does not exist is an error. Without one, a
// missing file is silently ignored.
func loadConfigFile(cmd *cobra.Command, cfg *config.Config) error {
	explicit := cfg.ConfigFilePath != ""
	path := config.FindConfigFile(cfg.ConfigFilePath)
	if path == "" {
		if explicit {
			return fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
		}
		return nil
	}

	f, err := config.LoadConfigFile(path)
	if err != nil {
		return fmt.Errorf("failed to load config file %s: %w", path, err)
	}
	cfg.ConfigFilePath = path
	f.Apply(cfg, cmd.Flags().Changed)
	return nil
}

// loadRules returns the scoring rules for cfg: the rules file when set,
// otherwise the built-in rules.
func loadRules(cfg *config.Config) (*scoring.Rules, error) {
	if cfg.RulesFile == "" {
		return scoring.DefaultRules(), nil
	}
	rules, err := scoring.LoadRulesFile(cfg.RulesFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load rules %s: %w", cfg.RulesFile, err)
	}
	return rules, nil
}

// buildScorer layers the domains of the config file over the rules.
func buildScorer(cfg *config.Config, rules *scoring.Rules) *scoring.Scorer {
	if cfg.File != nil && len(cfg.File.Domains) > 0 {
		rules = rules.WithDomains(domainRules(cfg.File))
	}
	return scoring.NewScorer(rules)
}

func domainRules(f *config.File) []scoring.DomainRule {
	out := make([]scoring.DomainRule, 0, len(f.Domains))
	for _, d := range f.Domains {
		out = append(out, scoring.DomainRule{
			Match:      d.Match,
			Reader:     d.Reader,
			AI:         d.AI,
			Structured: d.Structured,
			WCAG:       d.WCAG,
		})
	}
	return out
}

// newFetcher returns nil unless page fetching is enabled.
func newFetcher(cfg *config.Config) pipeline.PageFetcher {
	if !cfg.Fetch {
		return nil
	}
	return fetch.New(cfg.Timeout,
		fetch.WithUserAgent(cfg.UserAgent),
		fetch.WithMaxBodySize(cfg.MaxBodySize),
	)
}

// addSettingsFlags registers the flags shared by analyze and serve.
func addSettingsFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("config", "c", "",
		"Path to configuration file (default: .surfacescore in current or home directory)")
	cmd.Flags().Float64("delay-scale", config.DefaultDelayScale,
		"Multiplier for progress stage delays (0 disables them)")
	cmd.Flags().Bool("fetch", false,
		"Download the page to collect metadata (title, headings, images)")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"HTTP timeout for a page fetch")
	cmd.Flags().String("user-agent", config.DefaultUserAgent,
		"User-Agent header sent when fetching pages")
	cmd.Flags().String("rules", "",
		"TOML file replacing the built-in scoring rules")
	cmd.Flags().Bool("save", false,
		"Store analyses in the history database")
	cmd.Flags().String("db-dir", "",
		"Directory of the history database (default: XDG data directory)")
}

// readSettingsFlags copies the shared flags into cfg.
func readSettingsFlags(cmd *cobra.Command, cfg *config.Config) error {
	var err error

	if cfg.ConfigFilePath, err = cmd.Flags().GetString("config"); err != nil {
		return err
	}
	if cfg.DelayScale, err = cmd.Flags().GetFloat64("delay-scale"); err != nil {
		return err
	}
	if cfg.Fetch, err = cmd.Flags().GetBool("fetch"); err != nil {
		return err
	}
	if cfg.Timeout, err = cmd.Flags().GetDuration("timeout"); err != nil {
		return err
	}
	if cfg.UserAgent, err = cmd.Flags().GetString("user-agent"); err != nil {
		return err
	}
	if cfg.RulesFile, err = cmd.Flags().GetString("rules"); err != nil {
		return err
	}
	if cfg.SaveToDB, err = cmd.Flags().GetBool("save"); err != nil {
		return err
	}

	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}
	if dbDir != "" {
		cfg.DBDir = dbDir
	}

	cfg.Verbose = getVerboseFlag(cmd)
	return nil
}
