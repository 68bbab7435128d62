package analyzer

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session is one user's analysis scope. Each session owns an Analyzer, so
// the result cache and the in-flight guard are per session.
type Session struct {
	ID        string
	Analyzer  *Analyzer
	CreatedAt time.Time

	// lastSeen is guarded by the owning SessionStore's mutex.
	lastSeen time.Time
}

// SessionStore is a thread-safe in-memory session registry. Run evicts
// sessions that have been idle for longer than the TTL.
type SessionStore struct {
	mu          sync.Mutex
	sessions    map[string]*Session
	ttl         time.Duration
	newAnalyzer func() *Analyzer
	now         func() time.Time
	logger      *slog.Logger
}

// NewSessionStore creates a SessionStore. newAnalyzer is called once per session.
func NewSessionStore(ttl time.Duration, newAnalyzer func() *Analyzer, logger *slog.Logger) *SessionStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionStore{
		sessions:    make(map[string]*Session),
		ttl:         ttl,
		newAnalyzer: newAnalyzer,
		now:         time.Now,
		logger:      logger,
	}
}

// Create starts a new session with a random ID.
func (s *SessionStore) Create() *Session {
	now := s.now()
	sess := &Session{
		ID:        uuid.NewString(),
		Analyzer:  s.newAnalyzer(),
		CreatedAt: now,
		lastSeen:  now,
	}
	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	return sess
}

// Get returns the session for id and marks it as used. Unknown and
// expired sessions yield ErrSessionNotFound.
func (s *SessionStore) Get(id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	now := s.now()
	if s.expired(sess, now) {
		delete(s.sessions, id)
		return nil, ErrSessionNotFound
	}
	sess.lastSeen = now
	return sess, nil
}

// GetOrCreate returns the session for id, or a new session when id is
// empty or unknown. created reports which happened.
func (s *SessionStore) GetOrCreate(id string) (sess *Session, created bool) {
	if id != "" {
		if existing, err := s.Get(id); err == nil {
			return existing, false
		}
	}
	return s.Create(), true
}

// Count returns the number of sessions held, including expired ones not yet evicted.
func (s *SessionStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// CachedAnalyses returns the total number of cached analyses across sessions.
func (s *SessionStore) CachedAnalyses() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, sess := range s.sessions {
		total += sess.Analyzer.CacheSize()
	}
	return total
}

// Evict removes idle sessions and returns how many were removed.
// Sessions with an analysis in flight are kept.
func (s *SessionStore) Evict(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, sess := range s.sessions {
		if s.expired(sess, now) && !sess.Analyzer.Busy() {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

func (s *SessionStore) expired(sess *Session, now time.Time) bool {
	return !sess.lastSeen.Add(s.ttl).After(now)
}

// Run evicts idle sessions every half TTL (at least once a second) until
// ctx is cancelled.
func (s *SessionStore) Run(ctx context.Context) {
	interval := s.ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			if n := s.Evict(now); n > 0 {
				s.logger.Debug("evicted idle sessions", "count", n)
			}
		}
	}
}
