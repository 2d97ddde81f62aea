package history

import (
	"context"
	"fmt"
	"sync"

	"skillsight/internal/errors"
)

// MemoryStore is the in-process Store used for development, tests, and as
// the fallback when no redis backend is configured.
type MemoryStore struct {
	mu          sync.RWMutex
	scores      map[string][]float64
	sessions    map[string]Session
	seriesLimit int
}

// NewMemoryStore creates an empty in-memory store. seriesLimit bounds each
// score series; non-positive means unlimited.
func NewMemoryStore(seriesLimit int) *MemoryStore {
	return &MemoryStore{
		scores:      make(map[string][]float64),
		sessions:    make(map[string]Session),
		seriesLimit: seriesLimit,
	}
}

func (s *MemoryStore) seriesKey(userID, kind string) string {
	return userID + "|" + kind
}

// AppendScore adds a score to the end of the user's series, dropping the
// oldest entries beyond the retention limit.
func (s *MemoryStore) AppendScore(_ context.Context, userID, kind string, score float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := s.seriesKey(userID, kind)
	series := append(s.scores[key], score)
	if s.seriesLimit > 0 && len(series) > s.seriesLimit {
		series = series[len(series)-s.seriesLimit:]
	}
	s.scores[key] = series
	return nil
}

// Scores returns up to limit most recent scores in chronological order.
func (s *MemoryStore) Scores(_ context.Context, userID, kind string, limit int) ([]float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	series := s.scores[s.seriesKey(userID, kind)]
	if limit > 0 && limit < len(series) {
		series = series[len(series)-limit:]
	}

	out := make([]float64, len(series))
	copy(out, series)
	return out, nil
}

// SaveSession stores a copy of the session.
func (s *MemoryStore) SaveSession(_ context.Context, session *Session) error {
	if session == nil || session.ID == "" {
		return errors.NewHistoryError(errors.ErrCodeHistoryStore, "session has no ID", nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = *session
	return nil
}

// Session returns a copy of the stored session.
func (s *MemoryStore) Session(_ context.Context, id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, errors.NewHistoryError(errors.ErrCodeSessionNotFound,
			fmt.Sprintf("interview session not found: %s", id), nil)
	}
	return &session, nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}
