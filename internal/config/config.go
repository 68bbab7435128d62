package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// DefaultTimeout bounds a single page fetch when fetching is enabled.
	DefaultTimeout = 15 * time.Second

	// DefaultBatchSize is the number of URLs analyzed concurrently in batch mode.
	DefaultBatchSize = 4

	// DefaultDelayScale keeps the progress stage delays at their nominal length.
	// 0 disables the delays entirely.
	DefaultDelayScale = 1.0

	// AppName is the application name used for XDG directory paths.
	AppName = "surfacescore"

	// DefaultUserAgent identifies SurfaceScore in HTTP requests.
	DefaultUserAgent = "SurfaceScore/1.0 (+https://surfacescore.com)"

	// DefaultMaxBodySize limits the response body read during a page fetch.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// DefaultListenAddress is where "surfacescore serve" listens.
	DefaultListenAddress = "127.0.0.1:8080"

	// DefaultSessionTTL is how long an idle server session keeps its cache.
	DefaultSessionTTL = 30 * time.Minute

	// DefaultShutdownTimeout bounds graceful server shutdown.
	DefaultShutdownTimeout = 10 * time.Second
)

// Config holds all configuration options for SurfaceScore.
// It is populated from defaults, the optional YAML config file and CLI
// flags (in increasing priority) and passed explicitly to each component.
type Config struct {
	// Timeout is the HTTP timeout for a page fetch.
	Timeout time.Duration

	// Verbose enables debug logging.
	Verbose bool

	// BatchSize is the number of concurrent analyses when several URLs are given.
	BatchSize int

	// DelayScale multiplies every progress stage delay.
	// 1 reproduces the interactive pacing; 0 runs the pipeline without waiting.
	DelayScale float64

	// Fetch enables downloading the page during the first stage to collect
	// metadata. Scores never depend on it.
	Fetch bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, .surfacescore is searched in the current directory and then
	// in the user's home directory.
	ConfigFilePath string

	// File holds the settings loaded from the configuration file, if any.
	File *File

	// RulesFile replaces the built-in scoring rules when set.
	RulesFile string

	// JSONReport selects JSON output of the full analysis.
	JSONReport bool

	// MarkdownReport selects GitHub Flavored Markdown output.
	MarkdownReport bool

	// ExportReport selects the downloadable export format.
	ExportReport bool

	// ReportFile is the output file path for the report.
	// When empty, the report is written to stdout.
	ReportFile string

	// Targets is the list of URLs to analyze.
	Targets []string

	// DBDir is the directory holding the history database.
	// Defaults to the XDG data directory.
	DBDir string

	// SaveToDB stores each analysis in the history database.
	SaveToDB bool

	// UserAgent is the User-Agent header sent when fetching pages.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes read per fetch.
	MaxBodySize int64

	// ListenAddress is the host:port the HTTP server binds to.
	ListenAddress string

	// SessionTTL is the idle lifetime of a server session.
	SessionTTL time.Duration

	// ShutdownTimeout bounds graceful server shutdown.
	ShutdownTimeout time.Duration
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		Timeout:         DefaultTimeout,
		BatchSize:       DefaultBatchSize,
		DelayScale:      DefaultDelayScale,
		UserAgent:       DefaultUserAgent,
		MaxBodySize:     DefaultMaxBodySize,
		DBDir:           XDGDataDir(),
		ListenAddress:   DefaultListenAddress,
		SessionTTL:      DefaultSessionTTL,
		ShutdownTimeout: DefaultShutdownTimeout,
	}
}

// XDGDataDir returns the XDG data directory for SurfaceScore.
// On Linux: ~/.local/share/surfacescore
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for SurfaceScore.
// On Linux: ~/.config/surfacescore
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks the settings shared by every command.
// It returns the first problem found.
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}
	if c.DelayScale < 0 {
		return ErrInvalidDelayScale
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	formats := 0
	for _, on := range []bool{c.JSONReport, c.MarkdownReport, c.ExportReport} {
		if on {
			formats++
		}
	}
	if formats > 1 {
		return ErrConflictingReportFormats
	}
	return nil
}

// ValidateAnalyze checks the configuration for the analyze command.
func (c *Config) ValidateAnalyze() error {
	if len(c.Targets) == 0 {
		return ErrNoTarget
	}
	return c.Validate()
}

// ValidateServe checks the configuration for the serve command.
func (c *Config) ValidateServe() error {
	if c.ListenAddress == "" {
		return ErrNoListenAddress
	}
	if c.SessionTTL <= 0 {
		return ErrInvalidSessionTTL
	}
	return c.Validate()
}
