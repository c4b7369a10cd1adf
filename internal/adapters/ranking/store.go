// Package ranking defines the sorted-set ranking store interface and errors.
package ranking

import (
	"context"

	"github.com/pomorank/pomorank/internal/domain/period"
)

// Entry is one member of a period's ranking set.
type Entry struct {
	Rank   int
	UserID string
	Score  int64
}

// Store provides read/write access to the per-period ranking sets.
//
// Ordering is score DESC with user id ASC as the tie-breaker, so repeated
// queries over the same data return the same order. Ranks are 1-based.
type Store interface {
	// Upsert sets the score for a user in one period's set.
	Upsert(ctx context.Context, p period.Period, userID string, score int64) error

	// TopN returns up to n entries ordered best-first with contiguous ranks.
	TopN(ctx context.Context, p period.Period, n int) ([]Entry, error)

	// Rank returns the user's entry with its 1-based rank.
	// Returns ErrNotRanked if the user has no entry for the period.
	Rank(ctx context.Context, p period.Period, userID string) (Entry, error)

	// RangeAround returns the entries whose rank is within window of the
	// user's rank, clipped to [1, cardinality], ordered best-first.
	RangeAround(ctx context.Context, p period.Period, userID string, window int) ([]Entry, error)

	// Cardinality returns the number of members in one period's set.
	Cardinality(ctx context.Context, p period.Period) (int64, error)

	// Members returns every user id present in one period's set.
	Members(ctx context.Context, p period.Period) ([]string, error)

	// Clear removes all members from one period's set.
	Clear(ctx context.Context, p period.Period) error

	// Ping reports whether the backing store is reachable.
	Ping(ctx context.Context) error
}
