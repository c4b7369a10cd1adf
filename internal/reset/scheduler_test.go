package reset_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/pomorank/pomorank/internal/domain/period"
	"github.com/pomorank/pomorank/internal/reset"
	"github.com/pomorank/pomorank/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// recordingResetter captures every reset the scheduler fires. The mutex
// matters only for the loop tests, where Run fires resets on its own
// goroutine.
type recordingResetter struct {
	mu    sync.Mutex
	calls []period.Period
	fail  error
}

func (r *recordingResetter) ResetPeriod(_ context.Context, p period.Period) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return r.fail
	}
	r.calls = append(r.calls, p)
	return nil
}

func (r *recordingResetter) count(p period.Period) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		if c == p {
			n++
		}
	}
	return n
}

func (r *recordingResetter) empty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls) == 0
}

func (r *recordingResetter) setFail(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fail = err
}

func newScheduler(rr *recordingResetter, clock clockwork.Clock) *reset.Scheduler {
	return reset.New(rr,
		reset.WithClock(clock),
		reset.WithLocation(time.UTC),
		reset.WithTriggerHour(1),
		reset.WithWeeklyDay(time.Sunday),
	)
}

func TestTick_Daily(t *testing.T) {
	ctx := context.Background()

	Convey("Given a scheduler triggering at 01:00 UTC", t, func() {
		// 2024-03-01 is a Friday.
		clock := clockwork.NewFakeClockAt(time.Date(2024, 3, 1, 1, 30, 0, 0, time.UTC))
		rr := &recordingResetter{}
		s := newScheduler(rr, clock)

		Convey("When a tick lands inside the trigger hour", func() {
			s.Tick(ctx)

			Convey("Then the daily reset fires once", func() {
				So(rr.count(period.Daily), ShouldEqual, 1)
			})

			Convey("And a second tick in the same hour is suppressed", func() {
				s.Tick(ctx)
				So(rr.count(period.Daily), ShouldEqual, 1)
			})

			Convey("And the next day's trigger hour fires again", func() {
				clock.Advance(24 * time.Hour)
				s.Tick(ctx)
				So(rr.count(period.Daily), ShouldEqual, 2)
			})
		})

		Convey("When a tick lands outside the trigger hour", func() {
			clock.Advance(11 * time.Hour) // 12:30
			s.Tick(ctx)

			Convey("Then nothing fires", func() {
				So(rr.empty(), ShouldBeTrue)
			})
		})
	})
}

func TestTick_WeeklyMonthlyYearly(t *testing.T) {
	ctx := context.Background()

	Convey("Given a scheduler resetting weekly on Sundays", t, func() {
		// 2024-03-03 is a Sunday.
		clock := clockwork.NewFakeClockAt(time.Date(2024, 3, 3, 1, 0, 0, 0, time.UTC))
		rr := &recordingResetter{}
		s := newScheduler(rr, clock)

		Convey("When a tick lands on Sunday in the trigger hour", func() {
			s.Tick(ctx)

			Convey("Then daily and weekly both fire, monthly and yearly do not", func() {
				So(rr.count(period.Daily), ShouldEqual, 1)
				So(rr.count(period.Weekly), ShouldEqual, 1)
				So(rr.count(period.Monthly), ShouldEqual, 0)
				So(rr.count(period.Yearly), ShouldEqual, 0)
			})

			Convey("And the weekly reset stays suppressed until the next Sunday", func() {
				clock.Advance(24 * time.Hour) // Monday
				s.Tick(ctx)
				So(rr.count(period.Weekly), ShouldEqual, 1)

				clock.Advance(6 * 24 * time.Hour) // next Sunday
				s.Tick(ctx)
				So(rr.count(period.Weekly), ShouldEqual, 2)
			})
		})
	})

	Convey("Given the first of a month", t, func() {
		clock := clockwork.NewFakeClockAt(time.Date(2024, 3, 1, 1, 0, 0, 0, time.UTC))
		rr := &recordingResetter{}
		s := newScheduler(rr, clock)

		Convey("When the trigger-hour tick runs", func() {
			s.Tick(ctx)

			Convey("Then the monthly reset fires and is suppressed the next day", func() {
				So(rr.count(period.Monthly), ShouldEqual, 1)
				clock.Advance(24 * time.Hour)
				s.Tick(ctx)
				So(rr.count(period.Monthly), ShouldEqual, 1)
			})
		})
	})

	Convey("Given January first", t, func() {
		clock := clockwork.NewFakeClockAt(time.Date(2024, 1, 1, 1, 0, 0, 0, time.UTC))
		rr := &recordingResetter{}
		s := newScheduler(rr, clock)

		Convey("When the trigger-hour tick runs", func() {
			s.Tick(ctx)

			Convey("Then every period fires, yearly included", func() {
				So(rr.count(period.Yearly), ShouldEqual, 1)
				So(rr.count(period.Monthly), ShouldEqual, 1)
				So(rr.count(period.Daily), ShouldEqual, 1)
			})

			Convey("And yearly fires again a year later", func() {
				clock.Advance(366 * 24 * time.Hour) // 2024 is a leap year
				s.Tick(ctx)
				So(rr.count(period.Yearly), ShouldEqual, 2)
			})
		})
	})
}

func TestTick_RetryAfterFailure(t *testing.T) {
	ctx := context.Background()

	Convey("Given a resetter that fails", t, func() {
		clock := clockwork.NewFakeClockAt(time.Date(2024, 3, 1, 1, 0, 0, 0, time.UTC))
		rr := &recordingResetter{fail: errors.New("store down")}
		s := newScheduler(rr, clock)

		Convey("When the trigger-hour tick runs and fails", func() {
			s.Tick(ctx)
			So(rr.empty(), ShouldBeTrue)

			Convey("Then bookkeeping is not updated and the next tick retries", func() {
				rr.setFail(nil)
				clock.Advance(30 * time.Minute) // still inside the hour
				s.Tick(ctx)
				So(rr.count(period.Daily), ShouldEqual, 1)
			})
		})
	})
}

func TestForceReset(t *testing.T) {
	ctx := context.Background()

	Convey("Given a scheduler", t, func() {
		clock := clockwork.NewFakeClockAt(time.Date(2024, 3, 1, 0, 30, 0, 0, time.UTC))
		rr := &recordingResetter{}
		s := newScheduler(rr, clock)

		Convey("When a yearly reset is forced", func() {
			err := s.ForceReset(ctx, period.Yearly)

			Convey("Then it is rejected", func() {
				So(errors.Is(err, reset.ErrManualPeriod), ShouldBeTrue)
				So(rr.empty(), ShouldBeTrue)
			})
		})

		Convey("When a daily reset is forced before the trigger hour", func() {
			So(s.ForceReset(ctx, period.Daily), ShouldBeNil)
			So(rr.count(period.Daily), ShouldEqual, 1)

			Convey("Then the same day's scheduled trigger is suppressed", func() {
				clock.Advance(time.Hour) // 01:30, inside the trigger hour
				s.Tick(ctx)
				So(rr.count(period.Daily), ShouldEqual, 1)
			})
		})
	})
}

func TestStatus(t *testing.T) {
	ctx := context.Background()

	Convey("Given a scheduler that has fired a daily reset", t, func() {
		now := time.Date(2024, 3, 1, 1, 0, 0, 0, time.UTC)
		clock := clockwork.NewFakeClockAt(now)
		rr := &recordingResetter{}
		s := newScheduler(rr, clock)
		s.Tick(ctx)

		Convey("When status is read", func() {
			st := s.Status()

			Convey("Then it reports the last daily reset", func() {
				So(st.IsRunning, ShouldBeFalse)
				So(st.LastResets["daily"].Equal(now), ShouldBeTrue)
			})

			Convey("And projects the next triggers forward in time", func() {
				So(st.NextResets["daily"].Equal(now.AddDate(0, 0, 1)), ShouldBeTrue)
				So(st.NextResets["monthly"].Equal(time.Date(2024, 4, 1, 1, 0, 0, 0, time.UTC)), ShouldBeTrue)
				So(st.NextResets["yearly"].Equal(time.Date(2025, 1, 1, 1, 0, 0, 0, time.UTC)), ShouldBeTrue)
				for _, p := range []string{"daily", "weekly", "monthly", "yearly"} {
					So(st.NextResets[p].After(now), ShouldBeTrue)
				}
			})
		})
	})
}

func TestRun_Loop(t *testing.T) {
	Convey("Given a scheduler loop driven by a fake clock", t, func() {
		// 2024-03-15 is a mid-month Friday, so only the daily reset is due.
		clock := clockwork.NewFakeClockAt(time.Date(2024, 3, 15, 0, 30, 0, 0, time.UTC))
		rr := &recordingResetter{}
		s := newScheduler(rr, clock)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		done := make(chan struct{})
		go func() {
			s.Run(ctx)
			close(done)
		}()

		// The loop is parked on its poll timer.
		clock.BlockUntil(1)
		So(s.Status().IsRunning, ShouldBeTrue)

		// The 01:30 tick fires the daily reset.
		clock.Advance(time.Hour)
		clock.BlockUntil(1)
		So(rr.count(period.Daily), ShouldEqual, 1)

		// The 02:30 tick is outside the trigger hour and fires nothing.
		clock.Advance(time.Hour)
		clock.BlockUntil(1)
		So(rr.count(period.Daily), ShouldEqual, 1)

		// Cancellation stops the loop between ticks.
		cancel()
		stopped := false
		select {
		case <-done:
			stopped = true
		case <-time.After(2 * time.Second):
		}
		So(stopped, ShouldBeTrue)
		So(s.Status().IsRunning, ShouldBeFalse)
	})
}
