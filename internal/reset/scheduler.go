// Package reset implements the time-windowed, idempotent reset scheduler
// for the four rolling counters.
package reset

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/pomorank/pomorank/internal/domain/period"
	"github.com/pomorank/pomorank/pkg/logger"
	"github.com/pomorank/pomorank/pkg/metrics"
)

// ErrManualPeriod rejects manual resets of periods only the schedule may
// touch (yearly).
var ErrManualPeriod = errors.New("period cannot be reset manually")

// Default schedule parameters.
const (
	defaultTriggerHour  = 1
	defaultPollInterval = time.Hour
	defaultTimezone     = "America/New_York"
)

// Resetter zeroes one period's counters in both stores.
type Resetter interface {
	ResetPeriod(ctx context.Context, p period.Period) error
}

// Status is the observable scheduler state for /admin/status.
type Status struct {
	IsRunning  bool                 `json:"is_running"`
	LastResets map[string]time.Time `json:"last_resets"`
	NextResets map[string]time.Time `json:"next_resets"`
}

// Scheduler polls the wall clock and fires due resets. Bookkeeping of the
// last execution per period lives in process memory only; after a restart
// a reset already performed in the current window may run again (see the
// restart-safety note in the README).
type Scheduler struct {
	resetter Resetter
	clock    clockwork.Clock
	loc      *time.Location
	hour     int
	weekday  time.Weekday
	poll     time.Duration
	log      logger.Logger

	mu      sync.Mutex
	last    map[period.Period]time.Time
	running bool
}

// Option applies a configuration option to the Scheduler.
type Option func(*Scheduler)

// WithClock injects a clock so tests can simulate days passing.
func WithClock(c clockwork.Clock) Option {
	return func(s *Scheduler) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithLocation sets the timezone the trigger windows are evaluated in.
func WithLocation(loc *time.Location) Option {
	return func(s *Scheduler) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithTriggerHour sets the local hour (0-23) all four resets fire at.
func WithTriggerHour(h int) Option {
	return func(s *Scheduler) {
		if h >= 0 && h <= 23 {
			s.hour = h
		}
	}
}

// WithWeeklyDay sets the weekday the weekly reset fires on.
func WithWeeklyDay(d time.Weekday) Option {
	return func(s *Scheduler) {
		s.weekday = d
	}
}

// WithPollInterval sets the tick interval of the scheduler loop.
func WithPollInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.poll = d
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.log = l
		}
	}
}

// New constructs a Scheduler driving the given resetter.
func New(resetter Resetter, opts ...Option) *Scheduler {
	loc, err := time.LoadLocation(defaultTimezone)
	if err != nil {
		loc = time.UTC
	}
	s := &Scheduler{
		resetter: resetter,
		clock:    clockwork.NewRealClock(),
		loc:      loc,
		hour:     defaultTriggerHour,
		weekday:  time.Sunday,
		poll:     defaultPollInterval,
		last:     make(map[period.Period]time.Time, 4),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.Get()
	}
	return s
}

// Run polls until ctx is cancelled. Store failures inside a tick are
// logged and retried on the next tick; the loop never crashes the process.
// The stop check happens only between ticks.
func (s *Scheduler) Run(ctx context.Context) {
	s.mu.Lock()
	s.running = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.clock.After(s.poll):
		}
		s.Tick(ctx)
	}
}

// Tick evaluates the four due predicates once and fires any reset that is
// due. Bookkeeping is updated only after a successful reset, so a failed
// one is retried on the next matching tick.
func (s *Scheduler) Tick(ctx context.Context) {
	now := s.clock.Now().In(s.loc)
	for _, p := range period.All() {
		if !s.due(p, now) {
			continue
		}
		if err := s.resetter.ResetPeriod(ctx, p); err != nil {
			s.log.Error(ctx, "scheduled reset failed",
				logger.String("period", p.String()),
				logger.Error(err),
			)
			continue
		}
		s.record(p, now)
		metrics.RecordReset(p.String())
		s.log.Info(ctx, "scheduled reset executed", logger.String("period", p.String()))
	}
}

// ForceReset performs a manual reset, bypassing the due predicate but still
// recording bookkeeping so the next scheduled reset in the same window is
// suppressed. Yearly is reachable only through the schedule.
func (s *Scheduler) ForceReset(ctx context.Context, p period.Period) error {
	if !p.ManuallyResettable() {
		return ErrManualPeriod
	}
	if err := s.resetter.ResetPeriod(ctx, p); err != nil {
		return err
	}
	s.record(p, s.clock.Now().In(s.loc))
	metrics.RecordReset(p.String())
	return nil
}

// Status reports the scheduler's bookkeeping and projected trigger times.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock.Now().In(s.loc)
	st := Status{
		IsRunning:  s.running,
		LastResets: make(map[string]time.Time, 4),
		NextResets: make(map[string]time.Time, 4),
	}
	for _, p := range period.All() {
		if t, ok := s.last[p]; ok {
			st.LastResets[p.String()] = t
		}
		st.NextResets[p.String()] = s.next(p, now)
	}
	return st
}

func (s *Scheduler) record(p period.Period, at time.Time) {
	s.mu.Lock()
	s.last[p] = at
	s.mu.Unlock()
}

func (s *Scheduler) lastFor(p period.Period) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last[p]
}

// due evaluates one period's trigger predicate against the current local
// time and the bookkeeping. A zero bookkeeping entry never suppresses.
func (s *Scheduler) due(p period.Period, now time.Time) bool {
	if now.Hour() != s.hour {
		return false
	}
	last := s.lastFor(p).In(s.loc)
	switch p {
	case period.Daily:
		return !sameDay(last, now)
	case period.Weekly:
		return now.Weekday() == s.weekday && last.Before(s.startOfWeek(now))
	case period.Monthly:
		return now.Day() == 1 && !sameMonth(last, now)
	case period.Yearly:
		return now.Month() == time.January && now.Day() == 1 && last.Year() != now.Year()
	default:
		return false
	}
}

// next projects the next wall-clock trigger for a period, ignoring
// bookkeeping (a suppressed trigger simply becomes a no-op tick).
func (s *Scheduler) next(p period.Period, now time.Time) time.Time {
	at := time.Date(now.Year(), now.Month(), now.Day(), s.hour, 0, 0, 0, s.loc)
	switch p {
	case period.Daily:
		if !at.After(now) {
			at = at.AddDate(0, 0, 1)
		}
	case period.Weekly:
		days := (int(s.weekday) - int(now.Weekday()) + 7) % 7
		at = at.AddDate(0, 0, days)
		if !at.After(now) {
			at = at.AddDate(0, 0, 7)
		}
	case period.Monthly:
		at = time.Date(now.Year(), now.Month(), 1, s.hour, 0, 0, 0, s.loc)
		if !at.After(now) {
			at = at.AddDate(0, 1, 0)
		}
	case period.Yearly:
		at = time.Date(now.Year(), time.January, 1, s.hour, 0, 0, 0, s.loc)
		if !at.After(now) {
			at = at.AddDate(1, 0, 0)
		}
	}
	return at
}

// startOfWeek returns midnight of the most recent configured reset weekday,
// the boundary the weekly bookkeeping is compared against.
func (s *Scheduler) startOfWeek(now time.Time) time.Time {
	days := (int(now.Weekday()) - int(s.weekday) + 7) % 7
	d := now.AddDate(0, 0, -days)
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, s.loc)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func sameMonth(a, b time.Time) bool {
	ay, am, _ := a.Date()
	by, bm, _ := b.Date()
	return ay == by && am == bm
}
