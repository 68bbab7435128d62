package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/surfacescore/surfacescore/internal/analyzer"
	"github.com/surfacescore/surfacescore/internal/config"
	"github.com/surfacescore/surfacescore/internal/database"
	"github.com/surfacescore/surfacescore/internal/model"
	"github.com/surfacescore/surfacescore/internal/pipeline"
	"github.com/surfacescore/surfacescore/internal/scoring"
)

// SessionHeader carries the session ID on requests and responses.
const SessionHeader = "X-Session-ID"

// Options configures a Server.
type Options struct {
	// Config supplies the listen address, TTLs and delay scale. Required.
	Config *config.Config

	// Logger defaults to slog.Default.
	Logger *slog.Logger

	// Rules are the base scoring rules. Domains from the config file are
	// layered on top. Nil uses the built-in rules.
	Rules *scoring.Rules

	// ScorerOptions are passed to every scorer the server builds.
	ScorerOptions []scoring.Option

	// Fetcher retrieves pages when set.
	Fetcher pipeline.PageFetcher

	// DB stores completed analyses when set.
	DB *database.HistoryDB

	// Version is reported by the health endpoint.
	Version string
}

// Server is the SurfaceScore HTTP API.
//
// Design decision: every session owns its own analyzer.Analyzer, which
// mirrors one browser tab. The in-flight guard and the result cache are per
// session; two sessions can analyze the same URL at the same time.
//
// Design decision: sessions build a pipeline per analysis from the current
// scorer, so a reloaded config file takes effect on the next analysis of
// every session without recreating them.
type Server struct {
	// cfg holds the listen address, TTLs and the config file path.
	cfg *config.Config

	logger *slog.Logger

	// fetcher downloads pages when --fetch is set. Nil skips fetching.
	fetcher pipeline.PageFetcher

	// db stores fresh analyses when set. Nil disables history.
	db *database.HistoryDB

	version string
	started time.Time

	// baseRules are the rules before config file domains are layered on.
	// ApplyFile rebuilds the scorer from them on every reload.
	baseRules  *scoring.Rules
	scorerOpts []scoring.Option

	// mu guards scorer and delayScale, which change on config reload.
	mu         sync.RWMutex
	scorer     *scoring.Scorer
	delayScale float64

	sessions *analyzer.SessionStore

	// hub streams progress events to WebSocket clients by session ID.
	hub *ProgressHub

	metrics *Metrics
	router  *mux.Router
}

// New creates a Server and registers its routes.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	rules := opts.Rules
	if rules == nil {
		rules = scoring.DefaultRules()
	}

	s := &Server{
		cfg:        opts.Config,
		logger:     logger,
		fetcher:    opts.Fetcher,
		db:         opts.DB,
		version:    opts.Version,
		started:    time.Now(),
		baseRules:  rules,
		scorerOpts: opts.ScorerOptions,
		scorer:     scoring.NewScorer(rules, opts.ScorerOptions...),
		delayScale: opts.Config.DelayScale,
		hub:        NewProgressHub(),
		router:     mux.NewRouter(),
	}
	if opts.Config.File != nil {
		s.ApplyFile(opts.Config.File)
	}
	s.sessions = analyzer.NewSessionStore(opts.Config.SessionTTL, s.newAnalyzer, logger)
	s.metrics = NewMetrics(s.sessions.Count, s.sessions.CachedAnalyses, s.hub.Count)
	s.routes()
	return s
}

func (s *Server) routes() {
	api := s.router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/analyze", s.handleAnalyze).Methods(http.MethodPost)
	api.HandleFunc("/export", s.handleExport).Methods(http.MethodGet)
	api.HandleFunc("/cache", s.handleClearCache).Methods(http.MethodDelete)
	api.HandleFunc("/history/{domain}", s.handleHistory).Methods(http.MethodGet)
	api.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	api.HandleFunc("/neuro/profiles", s.handleNeuroProfiles).Methods(http.MethodGet)
	api.HandleFunc("/neuro/patterns", s.handleNeuroPatterns).Methods(http.MethodGet)
	api.HandleFunc("/neuro/trackers", s.handleNeuroTrackers).Methods(http.MethodGet)
	api.HandleFunc("/neuro/load", s.handleNeuroLoad).Methods(http.MethodPost)
	api.HandleFunc("/neuro/gaze", s.handleNeuroGaze).Methods(http.MethodPost)

	s.router.Handle("/metrics", s.metrics).Methods(http.MethodGet)
	s.router.HandleFunc("/ws/progress", s.handleProgress).Methods(http.MethodGet)

	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		jsonErr(w, http.StatusNotFound, "not found")
	})
	s.router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
	})
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Metrics returns the server's metrics.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// Sessions returns the session store.
func (s *Server) Sessions() *analyzer.SessionStore {
	return s.sessions
}

// ApplyFile replaces the domain table and delay scale with those from f.
// Sessions created earlier pick up the change on their next analysis.
func (s *Server) ApplyFile(f *config.File) {
	extra := make([]scoring.DomainRule, 0, len(f.Domains))
	for _, d := range f.Domains {
		extra = append(extra, scoring.DomainRule{
			Match:      d.Match,
			Reader:     d.Reader,
			AI:         d.AI,
			Structured: d.Structured,
			WCAG:       d.WCAG,
		})
	}
	scorer := scoring.NewScorer(s.baseRules.WithDomains(extra), s.scorerOpts...)

	s.mu.Lock()
	s.scorer = scorer
	if f.Defaults.DelayScale != nil {
		s.delayScale = *f.Defaults.DelayScale
	}
	s.mu.Unlock()

	s.logger.Debug("scoring settings applied", "domains", len(extra))
}

func (s *Server) settings() (*scoring.Scorer, float64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scorer, s.delayScale
}

func (s *Server) newAnalyzer() *analyzer.Analyzer {
	return analyzer.New(s.buildPipeline,
		analyzer.WithLogger(s.logger),
		analyzer.WithCompleteHook(s.onComplete),
	)
}

func (s *Server) buildPipeline(progress pipeline.ProgressFunc) *pipeline.Pipeline {
	scorer, scale := s.settings()
	return pipeline.NewAnalysisPipeline(scorer, s.fetcher,
		pipeline.WithLogger(s.logger),
		pipeline.WithDelayScale(scale),
		pipeline.WithProgress(progress),
	)
}

// onComplete is the analytics hook for every session.
func (s *Server) onComplete(a *model.Analysis) {
	s.metrics.ObserveAnalysis(a.FromCache)
	s.logger.Info("analysis complete", "url", a.URL, "overall", a.Overall, "cached", a.FromCache)

	if s.db == nil || a.FromCache {
		return
	}
	saved, err := s.db.Save(context.Background(), a)
	if err != nil {
		s.logger.Warn("failed to save analysis", "url", a.URL, "error", err)
		return
	}
	if saved {
		s.metrics.ObserveSaved()
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully. When the
// config has a file path, the file is watched and reapplied on change.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.ListenAddress,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go s.sessions.Run(ctx)
	go s.hub.Run(ctx)
	if s.cfg.ConfigFilePath != "" {
		go func() {
			if err := config.Watch(ctx, s.logger, s.cfg.ConfigFilePath, s.ApplyFile); err != nil {
				s.logger.Warn("config watch stopped", "error", err)
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.cfg.ListenAddress)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
