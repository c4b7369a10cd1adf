// Package repository defines the durable system-of-record store for
// per-user counters.
package repository

import (
	"context"

	"github.com/pomorank/pomorank/internal/domain/model"
	"github.com/pomorank/pomorank/internal/domain/period"
)

// Store provides row-level CRUD and bulk column updates over user_scores.
// The durable store is authoritative: callers write here first and treat
// cache writes as best-effort.
type Store interface {
	// Get returns one user's row. Returns ErrNotFound if absent.
	Get(ctx context.Context, userID string) (*model.UserScore, error)

	// List returns every row. Used by the cold-cache rebuild.
	List(ctx context.Context) ([]model.UserScore, error)

	// UserIDs returns every user id present in the store.
	UserIDs(ctx context.Context) ([]string, error)

	// Increment adds delta to all four counters inside one transaction,
	// creating the row lazily, and returns the committed row.
	Increment(ctx context.Context, userID string, delta int64) (*model.UserScore, error)

	// Save creates or overwrites one row as-is. Used by reconciliation.
	Save(ctx context.Context, rec *model.UserScore) error

	// Delete removes one row. Deleting an absent row is not an error.
	Delete(ctx context.Context, userID string) error

	// ResetPeriod zeroes one period's column for every row and bumps
	// updated_at, leaving the other three columns untouched.
	ResetPeriod(ctx context.Context, p period.Period) error
}
