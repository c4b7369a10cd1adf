// Package detail defines the TTL-bounded per-user snapshot cache.
package detail

import (
	"context"
	"errors"
	"time"

	"github.com/pomorank/pomorank/internal/domain/model"
)

// Sentinel kinds for detail cache errors.
var (
	ErrMiss        = errors.New("detail cache miss")
	ErrUnavailable = errors.New("detail cache unavailable")
)

// Cache holds a short-lived copy of a user's four counters. It performs no
// I/O against other components; on a miss the caller repopulates it from
// the durable store (or, during reconciliation, from the ranking sets).
type Cache interface {
	// Get returns the cached snapshot or ErrMiss.
	Get(ctx context.Context, userID string) (model.Snapshot, error)

	// Put stores a snapshot for ttl.
	Put(ctx context.Context, userID string, snap model.Snapshot, ttl time.Duration) error

	// Invalidate drops the cached snapshot, if any.
	Invalidate(ctx context.Context, userID string) error
}
