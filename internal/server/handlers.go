package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/surfacescore/surfacescore/internal/analyzer"
	"github.com/surfacescore/surfacescore/internal/model"
	"github.com/surfacescore/surfacescore/internal/neuro"
	"github.com/surfacescore/surfacescore/internal/pipeline"
	"github.com/surfacescore/surfacescore/internal/report"
)

// maxRequestBody caps JSON request bodies.
const maxRequestBody = 64 << 10

type analyzeRequest struct {
	URL string `json:"url"`
}

// AnalyzeResponse is the body of a successful analyze call.
type AnalyzeResponse struct {
	SessionID string          `json:"session_id"`
	Analysis  *model.Analysis `json:"analysis"`
	ShareText string          `json:"share_text"`

	// Gradient is the start and end color of the overall score ring.
	Gradient [2]string `json:"gradient"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is the body of the health endpoint.
type HealthResponse struct {
	Status         string `json:"status"`
	Version        string `json:"version,omitempty"`
	Uptime         string `json:"uptime"`
	Sessions       int    `json:"sessions"`
	CachedAnalyses int    `json:"cached_analyses"`
	History        bool   `json:"history"`
}

// HistoryEntry is one stored analysis in a history listing.
type HistoryEntry struct {
	ID        int64                  `json:"id"`
	URL       string                 `json:"url"`
	Overall   int                    `json:"overall"`
	Scores    map[model.Category]int `json:"scores"`
	Timestamp time.Time              `json:"timestamp"`
}

// LoadResponse is the body of the cognitive load endpoint.
type LoadResponse struct {
	OverallLoad     float64                `json:"overall_load"`
	Recommendations []neuro.Recommendation `json:"recommendations"`
}

// ClearCacheResponse is the body of the cache clearing endpoint.
type ClearCacheResponse struct {
	SessionID string `json:"session_id"`
	Cleared   int    `json:"cleared"`
}

type loadRequest struct {
	neuro.LoadFactors
	InformationDensity float64 `json:"information_density"`
}

// session returns the caller's session, creating one when the header is
// missing or stale, and echoes its ID in the response header.
func (s *Server) session(w http.ResponseWriter, r *http.Request) *analyzer.Session {
	sess, created := s.sessions.GetOrCreate(r.Header.Get(SessionHeader))
	if created {
		s.logger.Debug("session created", "session", sess.ID)
	}
	w.Header().Set(SessionHeader, sess.ID)
	return sess
}

// handleAnalyze serves POST /api/v1/analyze.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody)).Decode(&req); err != nil {
		jsonErr(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sess := s.session(w, r)
	progress := func(p pipeline.Progress) {
		s.hub.Publish(sess.ID, EventProgress, p)
	}

	result, err := sess.Analyzer.Analyze(r.Context(), req.URL, progress)
	switch {
	case err == nil:
	case errors.Is(err, analyzer.ErrAnalysisInProgress):
		s.metrics.ObserveRejection(reasonInProgress)
		jsonErr(w, http.StatusConflict, analyzer.UserMessage(err))
		return
	case errors.Is(err, analyzer.ErrInvalidURL), errors.Is(err, analyzer.ErrUnsupportedScheme):
		s.metrics.ObserveRejection(reasonInvalidURL)
		jsonErr(w, http.StatusBadRequest, analyzer.UserMessage(err))
		return
	case errors.Is(err, context.Canceled):
		// The client went away; nobody is left to answer.
		s.metrics.ObserveFailure()
		return
	default:
		s.metrics.ObserveFailure()
		s.logger.Error("analysis failed", "url", req.URL, "error", err)
		jsonErr(w, http.StatusInternalServerError, analyzer.UserMessage(err))
		return
	}

	s.hub.Publish(sess.ID, EventComplete, result)

	scorer, _ := s.settings()
	from, to := scorer.GradientFor(result.Overall)
	jsonResp(w, http.StatusOK, AnalyzeResponse{
		SessionID: sess.ID,
		Analysis:  result,
		ShareText: result.ShareText(),
		Gradient:  [2]string{from, to},
	})
}

// handleExport serves GET /api/v1/export?url= as a file download.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("url")
	if raw == "" {
		jsonErr(w, http.StatusBadRequest, analyzer.MessageInvalidURL)
		return
	}

	sess := s.session(w, r)
	a, ok := sess.Analyzer.Lookup(raw)
	if !ok {
		jsonErr(w, http.StatusNotFound, "no analysis for this URL in the current session")
		return
	}

	now := time.Now()
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", "attachment; filename="+report.ExportFileName(a.Domain, now))
	if _, err := report.NewExportWriter(w, func() time.Time { return now }).Write(a); err != nil {
		s.logger.Warn("failed to write export", "url", a.URL, "error", err)
	}
}

// handleClearCache serves DELETE /api/v1/cache. It empties the result
// cache of the caller's session so the next analysis of a URL is fresh.
func (s *Server) handleClearCache(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(r.Header.Get(SessionHeader))
	if err != nil {
		jsonErr(w, http.StatusNotFound, "session not found")
		return
	}
	n := sess.Analyzer.CacheSize()
	sess.Analyzer.ClearCache()
	s.logger.Debug("session cache cleared", "session", sess.ID, "entries", n)

	w.Header().Set(SessionHeader, sess.ID)
	jsonResp(w, http.StatusOK, ClearCacheResponse{SessionID: sess.ID, Cleared: n})
}

// handleHistory serves GET /api/v1/history/{domain}.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		jsonErr(w, http.StatusNotFound, "history is disabled")
		return
	}

	domain := mux.Vars(r)["domain"]
	records, err := s.db.History(r.Context(), domain)
	if err != nil {
		s.logger.Error("failed to read history", "domain", domain, "error", err)
		jsonErr(w, http.StatusInternalServerError, "failed to read history")
		return
	}

	out := make([]HistoryEntry, 0, len(records))
	for _, rec := range records {
		out = append(out, HistoryEntry{
			ID:        rec.ID,
			URL:       rec.URL,
			Overall:   rec.Overall,
			Scores:    rec.Scores,
			Timestamp: rec.Timestamp,
		})
	}
	jsonResp(w, http.StatusOK, out)
}

// handleHealth serves GET /api/v1/health.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	jsonResp(w, http.StatusOK, HealthResponse{
		Status:         "ok",
		Version:        s.version,
		Uptime:         time.Since(s.started).Round(time.Second).String(),
		Sessions:       s.sessions.Count(),
		CachedAnalyses: s.sessions.CachedAnalyses(),
		History:        s.db != nil,
	})
}

func (s *Server) handleNeuroProfiles(w http.ResponseWriter, _ *http.Request) {
	jsonResp(w, http.StatusOK, neuro.Profiles())
}

func (s *Server) handleNeuroPatterns(w http.ResponseWriter, _ *http.Request) {
	jsonResp(w, http.StatusOK, neuro.Patterns())
}

func (s *Server) handleNeuroTrackers(w http.ResponseWriter, _ *http.Request) {
	jsonResp(w, http.StatusOK, neuro.TrackerKinds())
}

// handleNeuroLoad serves POST /api/v1/neuro/load.
func (s *Server) handleNeuroLoad(w http.ResponseWriter, r *http.Request) {
	var req loadRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody)).Decode(&req); err != nil {
		jsonErr(w, http.StatusBadRequest, "invalid request body")
		return
	}
	load := neuro.OverallLoad(req.LoadFactors)
	jsonResp(w, http.StatusOK, LoadResponse{
		OverallLoad: load,
		Recommendations: neuro.Recommendations(neuro.CognitiveAnalysis{
			OverallLoad:        load,
			InformationDensity: req.InformationDensity,
		}),
	})
}

// handleNeuroGaze serves POST /api/v1/neuro/gaze.
func (s *Server) handleNeuroGaze(w http.ResponseWriter, r *http.Request) {
	var rec neuro.Recording
	if err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody)).Decode(&rec); err != nil {
		jsonErr(w, http.StatusBadRequest, "invalid request body")
		return
	}
	jsonResp(w, http.StatusOK, neuro.AnalyzeRecording(rec))
}

// handleProgress serves GET /ws/progress?session=.
func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("session")
	if _, err := s.sessions.Get(id); err != nil {
		jsonErr(w, http.StatusNotFound, "session not found")
		return
	}
	s.hub.Serve(w, r, id)
}

func jsonResp(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}
