package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pomorank/pomorank/internal/adapters/detail"
	"github.com/pomorank/pomorank/internal/adapters/ranking"
	"github.com/pomorank/pomorank/internal/adapters/repository"
	"github.com/pomorank/pomorank/internal/domain/model"
	"github.com/pomorank/pomorank/internal/domain/period"
	"github.com/pomorank/pomorank/internal/domain/types"
	"github.com/pomorank/pomorank/pkg/logger"
	"github.com/pomorank/pomorank/pkg/metrics"
)

// IncrementScore adds delta to all four of the user's counters. The durable
// write commits first and is authoritative: its failure aborts the call with
// no cache mutation, while ranking and detail cache writes afterwards are
// best-effort and repaired by the next reconciliation cycle if they fail.
func (s *Service) IncrementScore(ctx context.Context, userID string, delta int64) (model.Snapshot, error) {
	if strings.TrimSpace(userID) == "" {
		return model.Snapshot{}, fmt.Errorf("%w: missing user_id", ErrValidation)
	}
	if delta <= 0 {
		return model.Snapshot{}, fmt.Errorf("%w: count must be a positive integer", ErrValidation)
	}

	rec, err := s.store.Increment(ctx, userID, delta)
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("increment: %w", err)
	}
	snap := model.SnapshotOf(rec, rec.UpdatedAt)

	for _, p := range period.All() {
		if err := s.rank.Upsert(ctx, p, userID, rec.Counter(p)); err != nil {
			s.log.Warn(ctx, "ranking upsert failed after durable write",
				logger.String("user_id", userID),
				logger.String("period", p.String()),
				logger.Error(err),
			)
		}
	}
	if err := s.cache.Put(ctx, userID, snap, s.detailTTL); err != nil {
		s.log.Warn(ctx, "detail cache write failed after durable write",
			logger.String("user_id", userID),
			logger.Error(err),
		)
	}

	metrics.RecordScoreUpdate()
	return snap, nil
}

// Leaderboard returns up to limit rows for one period, best-first with
// contiguous 1-based ranks. An empty ranking set is treated as a cold cache
// and rebuilt from the durable store before answering. limit is clamped to
// [1, maxLimit].
func (s *Service) Leaderboard(ctx context.Context, p period.Period, limit int) ([]types.Row, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("%w: %w", ErrValidation, period.ErrInvalidPeriod)
	}
	if limit < 1 {
		limit = 1
	}
	if limit > s.maxLimit {
		limit = s.maxLimit
	}

	card, err := s.rank.Cardinality(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("cardinality: %w", err)
	}
	if card == 0 {
		if err := s.Rebuild(ctx); err != nil {
			return nil, err
		}
	}

	entries, err := s.rank.TopN(ctx, p, limit)
	if err != nil {
		return nil, fmt.Errorf("top-n: %w", err)
	}
	metrics.RecordLeaderboardRead(p.String())
	return s.rows(ctx, p, entries)
}

// UserRank returns the user's 1-based rank, score, and the period's total
// population. An unranked user yields a nil rank, never an error.
func (s *Service) UserRank(ctx context.Context, p period.Period, userID string) (types.RankResult, error) {
	if !p.Valid() {
		return types.RankResult{}, fmt.Errorf("%w: %w", ErrValidation, period.ErrInvalidPeriod)
	}
	total, err := s.rank.Cardinality(ctx, p)
	if err != nil {
		return types.RankResult{}, fmt.Errorf("cardinality: %w", err)
	}
	entry, err := s.rank.Rank(ctx, p, userID)
	if errors.Is(err, ranking.ErrNotRanked) {
		return types.RankResult{TotalUsers: total}, nil
	}
	if err != nil {
		return types.RankResult{}, fmt.Errorf("rank: %w", err)
	}
	r := entry.Rank
	return types.RankResult{Rank: &r, Score: entry.Score, TotalUsers: total}, nil
}

// Neighbors returns the rows ranked within window of the user in one
// period. An unranked user yields an empty slice.
func (s *Service) Neighbors(ctx context.Context, p period.Period, userID string, window int) ([]types.Row, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("%w: %w", ErrValidation, period.ErrInvalidPeriod)
	}
	if window < 0 {
		return nil, fmt.Errorf("%w: window must not be negative", ErrValidation)
	}
	entries, err := s.rank.RangeAround(ctx, p, userID, window)
	if errors.Is(err, ranking.ErrNotRanked) {
		return []types.Row{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("range around: %w", err)
	}
	rows := make([]types.Row, 0, len(entries))
	for _, e := range entries {
		snap, err := s.snapshotFor(ctx, e)
		if err != nil {
			return nil, err
		}
		rows = append(rows, rowFrom(e.Rank, e, snap))
	}
	return rows, nil
}

// ResetPeriod zeroes one period's column in the durable store and clears
// its ranking set. The detail cache is not eagerly invalidated; the next
// lazy population after the durable mutation picks up the zero.
func (s *Service) ResetPeriod(ctx context.Context, p period.Period) error {
	if !p.Valid() {
		return fmt.Errorf("%w: %w", ErrValidation, period.ErrInvalidPeriod)
	}
	if err := s.store.ResetPeriod(ctx, p); err != nil {
		return fmt.Errorf("reset durable column: %w", err)
	}
	// A failed clear is surfaced rather than swallowed: reconciliation would
	// push the stale pre-reset scores back into the durable store, so the
	// caller (scheduler or admin) must retry the whole reset.
	if err := s.rank.Clear(ctx, p); err != nil {
		return fmt.Errorf("clear ranking set: %w", err)
	}
	return nil
}

// Rebuild repopulates the ranking sets and detail cache from every durable
// row. Called on a cold cache before serving a leaderboard read.
func (s *Service) Rebuild(ctx context.Context) error {
	recs, err := s.store.List(ctx)
	if err != nil {
		return fmt.Errorf("list durable rows: %w", err)
	}
	now := s.clock.Now().UTC()
	for i := range recs {
		rec := &recs[i]
		for _, p := range period.All() {
			if err := s.rank.Upsert(ctx, p, rec.UserID, rec.Counter(p)); err != nil {
				return fmt.Errorf("rebuild upsert: %w", err)
			}
		}
		if err := s.cache.Put(ctx, rec.UserID, model.SnapshotOf(rec, now), s.detailTTL); err != nil {
			s.log.Warn(ctx, "detail cache write failed during rebuild",
				logger.String("user_id", rec.UserID),
				logger.Error(err),
			)
		}
	}
	metrics.RecordCacheRebuild(len(recs))
	s.log.Info(ctx, "ranking cache rebuilt", logger.Int("users", len(recs)))
	return nil
}

// rows decorates ranking entries with each user's four-period snapshot and
// re-numbers ranks so the returned page is contiguous and 1-based.
func (s *Service) rows(ctx context.Context, p period.Period, entries []ranking.Entry) ([]types.Row, error) {
	rows := make([]types.Row, 0, len(entries))
	for i, e := range entries {
		snap, err := s.snapshotFor(ctx, e)
		if err != nil {
			return nil, err
		}
		rows = append(rows, rowFrom(i+1, e, snap))
	}
	return rows, nil
}

// snapshotFor resolves a user's four-period snapshot through the detail
// cache, falling back to the durable store on a miss and re-caching the
// result. A user missing from the durable store (cache-only drift) is
// served from the ranking entry alone rather than failing the page.
func (s *Service) snapshotFor(ctx context.Context, e ranking.Entry) (model.Snapshot, error) {
	snap, err := s.cache.Get(ctx, e.UserID)
	if err == nil {
		return snap, nil
	}
	if !errors.Is(err, detail.ErrMiss) {
		return model.Snapshot{}, fmt.Errorf("detail cache: %w", err)
	}
	rec, err := s.store.Get(ctx, e.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Snapshot{UserID: e.UserID}, nil
	}
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("durable read: %w", err)
	}
	snap = model.SnapshotOf(rec, rec.UpdatedAt)
	if err := s.cache.Put(ctx, e.UserID, snap, s.detailTTL); err != nil {
		s.log.Warn(ctx, "detail cache repopulation failed",
			logger.String("user_id", e.UserID),
			logger.Error(err),
		)
	}
	return snap, nil
}

func rowFrom(rank int, e ranking.Entry, snap model.Snapshot) types.Row {
	return types.Row{
		Rank:    rank,
		UserID:  e.UserID,
		Score:   e.Score,
		Daily:   snap.Daily,
		Weekly:  snap.Weekly,
		Monthly: snap.Monthly,
		Yearly:  snap.Yearly,
	}
}
