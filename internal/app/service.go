// Package service provides the leaderboard service that orchestrates the
// ranking store, detail cache, and durable store, and owns the background
// reconciliation and reset loops.
package service

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/pomorank/pomorank/internal/adapters/detail"
	"github.com/pomorank/pomorank/internal/adapters/ranking"
	"github.com/pomorank/pomorank/internal/adapters/repository"
	"github.com/pomorank/pomorank/internal/domain/period"
	"github.com/pomorank/pomorank/internal/domain/types"
	"github.com/pomorank/pomorank/internal/recon"
	"github.com/pomorank/pomorank/internal/reset"
	"github.com/pomorank/pomorank/pkg/logger"
)

// Default service configuration.
const (
	defaultDetailTTL = 5 * time.Minute
	defaultMaxLimit  = 100
)

// Service implements the API dependencies for the leaderboard system.
type Service struct {
	mu sync.Mutex

	// Stores
	rank  ranking.Store
	cache detail.Cache
	store repository.Store

	// Configuration
	clock        clockwork.Clock
	detailTTL    time.Duration
	maxLimit     int
	syncInterval time.Duration
	syncRetry    time.Duration
	resetHour    int
	resetWeekday time.Weekday
	resetLoc     *time.Location
	pollInterval time.Duration

	// Background loops, built on Start
	reconciler *recon.Reconciler
	scheduler  *reset.Scheduler
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	started    bool

	log logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// WithClock injects a clock shared with the background loops.
func WithClock(c clockwork.Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithDetailTTL bounds detail cache entries. Keep it shorter than the
// reconciliation interval so stale snapshots age out between cycles.
func WithDetailTTL(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.detailTTL = d
		}
	}
}

// WithMaxLimit caps leaderboard query sizes.
func WithMaxLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxLimit = n
		}
	}
}

// WithSyncInterval sets the reconciliation cadence.
func WithSyncInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.syncInterval = d
		}
	}
}

// WithSyncRetry sets the backoff after a failed reconciliation cycle.
func WithSyncRetry(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.syncRetry = d
		}
	}
}

// WithResetHour sets the local hour resets fire at.
func WithResetHour(h int) Option {
	return func(s *Service) {
		if h >= 0 && h <= 23 {
			s.resetHour = h
		}
	}
}

// WithResetWeekday sets the day the weekly reset fires on.
func WithResetWeekday(d time.Weekday) Option {
	return func(s *Service) {
		s.resetWeekday = d
	}
}

// WithResetLocation sets the timezone trigger windows are evaluated in.
func WithResetLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.resetLoc = loc
		}
	}
}

// WithPollInterval sets the scheduler tick interval.
func WithPollInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.pollInterval = d
		}
	}
}

// New constructs a Service over the three stores.
func New(rank ranking.Store, cache detail.Cache, store repository.Store, opts ...Option) *Service {
	s := &Service{
		rank:         rank,
		cache:        cache,
		store:        store,
		clock:        clockwork.NewRealClock(),
		detailTTL:    defaultDetailTTL,
		maxLimit:     defaultMaxLimit,
		resetHour:    -1, // scheduler default applies
		resetWeekday: time.Sunday,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.Get()
	}
	return s
}

// Start launches the reconciliation and reset loops. Foreground operations
// work without Start; only the background repair and schedule need it.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}

	s.ensureReconciler()

	schedOpts := []reset.Option{
		reset.WithClock(s.clock),
		reset.WithLogger(s.log),
		reset.WithWeeklyDay(s.resetWeekday),
	}
	if s.resetHour >= 0 {
		schedOpts = append(schedOpts, reset.WithTriggerHour(s.resetHour))
	}
	if s.resetLoc != nil {
		schedOpts = append(schedOpts, reset.WithLocation(s.resetLoc))
	}
	if s.pollInterval > 0 {
		schedOpts = append(schedOpts, reset.WithPollInterval(s.pollInterval))
	}
	s.scheduler = reset.New(s, schedOpts...)

	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		s.reconciler.Run(loopCtx)
	}()
	go func() {
		defer s.wg.Done()
		s.scheduler.Run(loopCtx)
	}()

	s.started = true
	s.log.Info(ctx, "leaderboard service started",
		logger.Any("detail_ttl", s.detailTTL),
		logger.Int("max_limit", s.maxLimit),
	)
	return nil
}

// Stop cancels the background loops and waits for them to exit.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	cancel := s.cancel
	s.started = false
	s.mu.Unlock()

	cancel()
	s.wg.Wait()
	s.log.Info(context.Background(), "leaderboard service stopped")
}

// ensureReconciler lazily builds the reconciler over the configured stores.
// Callers must hold s.mu.
func (s *Service) ensureReconciler() *recon.Reconciler {
	if s.reconciler != nil {
		return s.reconciler
	}
	opts := []recon.Option{
		recon.WithClock(s.clock),
		recon.WithLogger(s.log),
	}
	if s.syncInterval > 0 {
		opts = append(opts, recon.WithInterval(s.syncInterval))
	}
	if s.syncRetry > 0 {
		opts = append(opts, recon.WithRetryBackoff(s.syncRetry))
	}
	s.reconciler = recon.New(s.rank, s.cache, s.store, opts...)
	return s.reconciler
}

// SyncNow runs one reconciliation cycle synchronously, for POST /admin/sync.
// The reconciler is shared with the background loop, so a manual sync shows
// up as LastSyncTime in /admin/status even before Start.
func (s *Service) SyncNow(ctx context.Context) (recon.Stats, error) {
	s.mu.Lock()
	rc := s.ensureReconciler()
	s.mu.Unlock()
	return rc.SyncOnce(ctx)
}

// ManualReset performs an administrative reset, for POST /admin/reset.
// Yearly is rejected; it is reachable only through the schedule.
func (s *Service) ManualReset(ctx context.Context, p period.Period) error {
	s.mu.Lock()
	sched := s.scheduler
	s.mu.Unlock()
	if sched == nil {
		if !p.ManuallyResettable() {
			return reset.ErrManualPeriod
		}
		return s.ResetPeriod(ctx, p)
	}
	return sched.ForceReset(ctx, p)
}

// Status reports scheduler bookkeeping, the last reconciliation time, and
// ranking store reachability.
func (s *Service) Status(ctx context.Context) types.Status {
	s.mu.Lock()
	rc, sched := s.reconciler, s.scheduler
	s.mu.Unlock()

	st := types.Status{
		LastResets: map[string]time.Time{},
		NextResets: map[string]time.Time{},
	}
	if sched != nil {
		ss := sched.Status()
		st.IsRunning = ss.IsRunning
		st.LastResets = ss.LastResets
		st.NextResets = ss.NextResets
	}
	if rc != nil {
		if t := rc.LastSync(); !t.IsZero() {
			st.LastSyncTime = &t
		}
	}
	st.RedisConnected = s.rank.Ping(ctx) == nil
	return st
}
