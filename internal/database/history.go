package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/surfacescore/surfacescore/internal/model"
)

// FileName is the database file created inside the data directory.
const FileName = "history.db"

// HistoryDB stores completed analyses so scores can be tracked over time.
type HistoryDB struct {
	db     *sql.DB
	dbPath string
}

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the directory and database file when missing.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the history database in dbDir.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else if err := os.MkdirAll(dbDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// mode=rw refuses to create a missing file.
	dsn := dbPath + "?mode=rwc"
	if !opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HistoryDB{db: db, dbPath: dbPath}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := hdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// Path returns the database file path.
func (h *HistoryDB) Path() string {
	return h.dbPath
}

// Close closes the database connection.
func (h *HistoryDB) Close() error {
	return h.db.Close()
}

func (h *HistoryDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS analyses (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		url TEXT NOT NULL,
		domain TEXT NOT NULL,
		overall INTEGER NOT NULL,
		reader INTEGER NOT NULL,
		ai INTEGER NOT NULL,
		structured INTEGER NOT NULL,
		wcag INTEGER NOT NULL,
		fingerprint TEXT NOT NULL UNIQUE,
		report_json TEXT NOT NULL,
		timestamp TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_analyses_domain ON analyses(domain);
	CREATE INDEX IF NOT EXISTS idx_analyses_timestamp ON analyses(timestamp);
	`

	_, err := h.db.ExecContext(context.Background(), schema)
	return err
}

// Record summarizes one stored analysis without loading the full result.
type Record struct {
	ID          int64                  `json:"id"`
	URL         string                 `json:"url"`
	Domain      string                 `json:"domain"`
	Overall     int                    `json:"overall"`
	Scores      map[model.Category]int `json:"scores"`
	Fingerprint string                 `json:"fingerprint"`
	Timestamp   time.Time              `json:"timestamp"`
}

// ErrNotScored is returned when saving an analysis that has no scores.
var ErrNotScored = errors.New("analysis has no scores")

// Save stores a scored analysis. It reports false without error when an
// analysis with the same fingerprint is already stored.
func (h *HistoryDB) Save(ctx context.Context, a *model.Analysis) (bool, error) {
	if !a.Scored() {
		return false, ErrNotScored
	}

	stored := a.Clone()
	stored.FromCache = false
	reportJSON, err := json.Marshal(stored)
	if err != nil {
		return false, fmt.Errorf("failed to serialize analysis: %w", err)
	}

	query := `
	INSERT OR IGNORE INTO analyses
		(url, domain, overall, reader, ai, structured, wcag, fingerprint, report_json, timestamp)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	res, err := h.db.ExecContext(ctx, query,
		a.URL,
		strings.ToLower(a.Domain),
		a.Overall,
		a.Score(model.CategoryReader),
		a.Score(model.CategoryAI),
		a.Score(model.CategoryStructured),
		a.Score(model.CategoryWCAG),
		a.Fingerprint(),
		string(reportJSON),
		a.AnalyzedAt.UTC().Format(timestampLayout),
	)
	if err != nil {
		return false, fmt.Errorf("failed to save analysis: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check saved rows: %w", err)
	}
	return n > 0, nil
}

// Latest returns the most recent analysis for domain, or nil if none exists.
func (h *HistoryDB) Latest(ctx context.Context, domain string) (*model.Analysis, error) {
	query := `
	SELECT report_json FROM analyses
	WHERE domain = ?
	ORDER BY timestamp DESC, id DESC
	LIMIT 1
	`
	return h.queryAnalysis(ctx, query, strings.ToLower(domain))
}

// ByID returns the analysis stored under id, or nil if none exists.
func (h *HistoryDB) ByID(ctx context.Context, id int64) (*model.Analysis, error) {
	return h.queryAnalysis(ctx, `SELECT report_json FROM analyses WHERE id = ?`, id)
}

func (h *HistoryDB) queryAnalysis(ctx context.Context, query string, arg any) (*model.Analysis, error) {
	var reportJSON string
	err := h.db.QueryRowContext(ctx, query, arg).Scan(&reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}

	var a model.Analysis
	if err := json.Unmarshal([]byte(reportJSON), &a); err != nil {
		return nil, fmt.Errorf("failed to parse analysis: %w", err)
	}
	return &a, nil
}

// History returns the stored records for domain, newest first.
func (h *HistoryDB) History(ctx context.Context, domain string) ([]Record, error) {
	query := `
	SELECT id, url, domain, overall, reader, ai, structured, wcag, fingerprint, timestamp
	FROM analyses
	WHERE domain = ?
	ORDER BY timestamp DESC, id DESC
	`

	rows, err := h.db.QueryContext(ctx, query, strings.ToLower(domain))
	if err != nil {
		return nil, fmt.Errorf("failed to get history: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			r                          Record
			reader, ai, structured, wc int
			timestamp                  string
		)
		if err := rows.Scan(&r.ID, &r.URL, &r.Domain, &r.Overall,
			&reader, &ai, &structured, &wc, &r.Fingerprint, &timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		r.Scores = map[model.Category]int{
			model.CategoryReader:     reader,
			model.CategoryAI:         ai,
			model.CategoryStructured: structured,
			model.CategoryWCAG:       wc,
		}
		r.Timestamp = parseTimestamp(timestamp)
		records = append(records, r)
	}

	return records, rows.Err()
}

// ListDomains returns every domain with at least one stored analysis.
func (h *HistoryDB) ListDomains(ctx context.Context) ([]string, error) {
	rows, err := h.db.QueryContext(ctx, `SELECT DISTINCT domain FROM analyses ORDER BY domain`)
	if err != nil {
		return nil, fmt.Errorf("failed to list domains: %w", err)
	}
	defer rows.Close()

	var domains []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("failed to scan domain: %w", err)
		}
		domains = append(domains, d)
	}

	return domains, rows.Err()
}

// Count returns the number of stored analyses.
func (h *HistoryDB) Count(ctx context.Context) (int, error) {
	var n int
	if err := h.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM analyses`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count analyses: %w", err)
	}
	return n, nil
}

// timestampLayout has fixed-width fractional seconds so stored values sort
// lexically in time order.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// timestampFormats lists the formats SQLite may hand back, most specific first.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05.999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// parseTimestamp returns the zero time when no format matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
