package repository

import (
	"context"
	"sync"

	"github.com/jonboulle/clockwork"

	"github.com/pomorank/pomorank/internal/domain/model"
	"github.com/pomorank/pomorank/internal/domain/period"
)

// MemoryStore implements Store with a mutex-guarded map. Used by the test
// suite and the "memory" backend.
type MemoryStore struct {
	mu    sync.RWMutex
	rows  map[string]model.UserScore
	clock clockwork.Clock
}

// NewMemoryStore constructs an empty in-memory durable store. A nil clock
// falls back to the real one.
func NewMemoryStore(clock clockwork.Clock) *MemoryStore {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &MemoryStore{
		rows:  make(map[string]model.UserScore),
		clock: clock,
	}
}

// Get returns one user's row.
func (s *MemoryStore) Get(ctx context.Context, userID string) (*model.UserScore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.rows[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return &rec, nil
}

// List returns every row.
func (s *MemoryStore) List(ctx context.Context) ([]model.UserScore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.UserScore, 0, len(s.rows))
	for _, rec := range s.rows {
		out = append(out, rec)
	}
	return out, nil
}

// UserIDs returns every user id present in the store.
func (s *MemoryStore) UserIDs(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.rows))
	for id := range s.rows {
		ids = append(ids, id)
	}
	return ids, nil
}

// Increment adds delta to all four counters, creating the row lazily.
func (s *MemoryStore) Increment(ctx context.Context, userID string, delta int64) (*model.UserScore, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.rows[userID]
	rec.UserID = userID
	rec.Daily += delta
	rec.Weekly += delta
	rec.Monthly += delta
	rec.Yearly += delta
	rec.UpdatedAt = s.clock.Now().UTC()
	s.rows[userID] = rec
	out := rec
	return &out, nil
}

// Save creates or overwrites one row as-is.
func (s *MemoryStore) Save(ctx context.Context, rec *model.UserScore) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[rec.UserID] = *rec
	return nil
}

// Delete removes one row.
func (s *MemoryStore) Delete(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rows, userID)
	return nil
}

// ResetPeriod zeroes one period's column for every row.
func (s *MemoryStore) ResetPeriod(ctx context.Context, p period.Period) error {
	if !p.Valid() {
		return period.ErrInvalidPeriod
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock.Now().UTC()
	for id, rec := range s.rows {
		rec.SetCounter(p, 0)
		rec.UpdatedAt = now
		s.rows[id] = rec
	}
	return nil
}
