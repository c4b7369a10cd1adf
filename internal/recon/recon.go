// Package recon implements the periodic diff-and-repair pass between the
// ranking-cache user population and the durable store.
package recon

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/pomorank/pomorank/internal/adapters/detail"
	"github.com/pomorank/pomorank/internal/adapters/ranking"
	"github.com/pomorank/pomorank/internal/adapters/repository"
	"github.com/pomorank/pomorank/internal/domain/model"
	"github.com/pomorank/pomorank/internal/domain/period"
	"github.com/pomorank/pomorank/pkg/logger"
	"github.com/pomorank/pomorank/pkg/metrics"
)

// ErrPartial tags a per-user failure inside a cycle. Such failures are
// logged and counted; the cycle continues with the next user.
var ErrPartial = errors.New("partial reconciliation failure")

// Default cycle timings.
const (
	defaultInterval = time.Hour
	defaultRetry    = 5 * time.Minute
)

// Stats summarizes one reconciliation cycle.
type Stats struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Deleted int `json:"deleted"`
	Errors  int `json:"errors"`
}

// Reconciler repairs drift between the ranking store and the durable store.
// The daily ranking set is the canonical "recently active" population: ids
// present only there are created durably, ids present only durably are
// deleted, and ids in both have their counters compared and overwritten
// from the cache side when they differ.
type Reconciler struct {
	rank  ranking.Store
	cache detail.Cache
	store repository.Store

	clock    clockwork.Clock
	interval time.Duration
	retry    time.Duration
	log      logger.Logger

	mu       sync.Mutex
	lastSync time.Time
}

// Option applies a configuration option to the Reconciler.
type Option func(*Reconciler)

// WithInterval sets the time between successful cycles.
func WithInterval(d time.Duration) Option {
	return func(r *Reconciler) {
		if d > 0 {
			r.interval = d
		}
	}
}

// WithRetryBackoff sets the shorter wait used after a failed cycle.
func WithRetryBackoff(d time.Duration) Option {
	return func(r *Reconciler) {
		if d > 0 {
			r.retry = d
		}
	}
}

// WithClock injects a clock so tests can drive the loop.
func WithClock(c clockwork.Clock) Option {
	return func(r *Reconciler) {
		if c != nil {
			r.clock = c
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(r *Reconciler) {
		if l != nil {
			r.log = l
		}
	}
}

// New constructs a Reconciler over the three stores.
func New(rank ranking.Store, cache detail.Cache, store repository.Store, opts ...Option) *Reconciler {
	r := &Reconciler{
		rank:     rank,
		cache:    cache,
		store:    store,
		clock:    clockwork.NewRealClock(),
		interval: defaultInterval,
		retry:    defaultRetry,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.log == nil {
		r.log = logger.Get()
	}
	return r
}

// Run executes cycles until ctx is cancelled. A failed cycle is retried
// after the shorter backoff. The stop check happens only between cycles,
// so cancellation can take up to one cycle to land.
func (r *Reconciler) Run(ctx context.Context) {
	wait := r.interval
	for {
		select {
		case <-ctx.Done():
			return
		case <-r.clock.After(wait):
		}
		if _, err := r.SyncOnce(ctx); err != nil {
			r.log.Error(ctx, "reconciliation cycle failed", logger.Error(err))
			wait = r.retry
			continue
		}
		wait = r.interval
	}
}

// LastSync returns the completion time of the most recent successful cycle,
// zero if none has run.
func (r *Reconciler) LastSync() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastSync
}

// SyncOnce runs one full cycle and returns its stats. A failure computing
// either user population aborts the cycle before any write; per-user
// failures afterwards are counted and skipped.
func (r *Reconciler) SyncOnce(ctx context.Context) (Stats, error) {
	start := r.clock.Now()

	active, err := r.rank.Members(ctx, period.Daily)
	if err != nil {
		return Stats{}, fmt.Errorf("list active users: %w", err)
	}
	durableIDs, err := r.store.UserIDs(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("list durable users: %w", err)
	}

	inActive := make(map[string]struct{}, len(active))
	for _, id := range active {
		inActive[id] = struct{}{}
	}
	inDurable := make(map[string]struct{}, len(durableIDs))
	for _, id := range durableIDs {
		inDurable[id] = struct{}{}
	}

	var stats Stats
	for _, id := range active {
		if _, ok := inDurable[id]; ok {
			r.repairCommon(ctx, id, &stats)
			continue
		}
		r.createMissing(ctx, id, &stats)
	}
	for _, id := range durableIDs {
		if _, ok := inActive[id]; ok {
			continue
		}
		if err := r.store.Delete(ctx, id); err != nil {
			r.countError(ctx, id, "delete", err, &stats)
			continue
		}
		stats.Deleted++
	}

	r.mu.Lock()
	r.lastSync = r.clock.Now()
	r.mu.Unlock()

	metrics.RecordSyncCycle(stats.Created, stats.Updated, stats.Deleted, stats.Errors)
	r.log.Info(ctx, "reconciliation cycle complete",
		logger.Int("created", stats.Created),
		logger.Int("updated", stats.Updated),
		logger.Int("deleted", stats.Deleted),
		logger.Int("errors", stats.Errors),
		logger.Any("took", r.clock.Since(start)),
	)
	return stats, nil
}

// createMissing seeds a durable row for a user the cache knows but the
// durable store does not. Counters come from whatever period sets hold the
// id; a period with no entry is seeded at zero, even if the user once had
// a non-zero value there.
func (r *Reconciler) createMissing(ctx context.Context, id string, stats *Stats) {
	rec := model.UserScore{UserID: id, UpdatedAt: r.clock.Now().UTC()}
	for _, p := range period.All() {
		entry, err := r.rank.Rank(ctx, p, id)
		if errors.Is(err, ranking.ErrNotRanked) {
			continue
		}
		if err != nil {
			r.countError(ctx, id, "seed", err, stats)
			return
		}
		rec.SetCounter(p, entry.Score)
	}
	if err := r.store.Save(ctx, &rec); err != nil {
		r.countError(ctx, id, "create", err, stats)
		return
	}
	stats.Created++
}

// repairCommon compares the cached counters of a user present in both
// populations against the durable row and overwrites the row when any
// counter differs or the cached snapshot is strictly newer.
func (r *Reconciler) repairCommon(ctx context.Context, id string, stats *Stats) {
	snap, err := r.cachedSnapshot(ctx, id)
	if err != nil {
		r.countError(ctx, id, "snapshot", err, stats)
		return
	}
	rec, err := r.store.Get(ctx, id)
	if err != nil {
		r.countError(ctx, id, "read", err, stats)
		return
	}

	durable := model.SnapshotOf(rec, rec.UpdatedAt)
	newer := !snap.CachedAt.IsZero() && snap.CachedAt.UTC().After(rec.UpdatedAt.UTC())
	if snap.Equal(durable) && !newer {
		return
	}

	for _, p := range period.All() {
		rec.SetCounter(p, snap.Counter(p))
	}
	if snap.CachedAt.IsZero() {
		rec.UpdatedAt = r.clock.Now().UTC()
	} else {
		rec.UpdatedAt = snap.CachedAt.UTC()
	}
	if err := r.store.Save(ctx, rec); err != nil {
		r.countError(ctx, id, "update", err, stats)
		return
	}
	stats.Updated++
}

// cachedSnapshot returns the detail-cache view of a user. On a miss the
// counters are derived from the ranking sets instead of the durable store,
// since this snapshot represents the cache side of the diff; a derived
// snapshot carries a zero CachedAt so the newer-timestamp rule cannot fire.
func (r *Reconciler) cachedSnapshot(ctx context.Context, id string) (model.Snapshot, error) {
	snap, err := r.cache.Get(ctx, id)
	if err == nil {
		return snap, nil
	}
	if !errors.Is(err, detail.ErrMiss) {
		return model.Snapshot{}, err
	}
	snap = model.Snapshot{UserID: id}
	for _, p := range period.All() {
		entry, err := r.rank.Rank(ctx, p, id)
		if errors.Is(err, ranking.ErrNotRanked) {
			continue
		}
		if err != nil {
			return model.Snapshot{}, err
		}
		snap.SetCounter(p, entry.Score)
	}
	return snap, nil
}

func (r *Reconciler) countError(ctx context.Context, id, step string, err error, stats *Stats) {
	stats.Errors++
	r.log.Warn(ctx, "skipping user after failure",
		logger.String("user_id", id),
		logger.String("step", step),
		logger.Error(fmt.Errorf("%w: %w", ErrPartial, err)),
	)
}
