package detail_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/pomorank/pomorank/internal/adapters/detail"
	"github.com/pomorank/pomorank/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()

	Convey("Given an empty memory cache", t, func() {
		clock := clockwork.NewFakeClock()
		c := detail.NewMemoryCache(clock)

		Convey("When reading an unknown user", func() {
			_, err := c.Get(ctx, "u1")

			Convey("Then it misses", func() {
				So(errors.Is(err, detail.ErrMiss), ShouldBeTrue)
			})
		})

		Convey("When storing and reading a snapshot", func() {
			snap := model.Snapshot{UserID: "u1", Daily: 3, Weekly: 3, Monthly: 3, Yearly: 3, CachedAt: clock.Now().UTC()}
			So(c.Put(ctx, "u1", snap, 5*time.Minute), ShouldBeNil)

			got, err := c.Get(ctx, "u1")

			Convey("Then the stored snapshot comes back", func() {
				So(err, ShouldBeNil)
				So(got, ShouldResemble, snap)
			})
		})

		Convey("When the TTL elapses", func() {
			snap := model.Snapshot{UserID: "u1", Daily: 3}
			So(c.Put(ctx, "u1", snap, 5*time.Minute), ShouldBeNil)
			clock.Advance(5 * time.Minute)

			_, err := c.Get(ctx, "u1")

			Convey("Then the entry has expired", func() {
				So(errors.Is(err, detail.ErrMiss), ShouldBeTrue)
			})
		})

		Convey("When a snapshot is invalidated", func() {
			snap := model.Snapshot{UserID: "u1", Daily: 3}
			So(c.Put(ctx, "u1", snap, 5*time.Minute), ShouldBeNil)
			So(c.Invalidate(ctx, "u1"), ShouldBeNil)

			_, err := c.Get(ctx, "u1")

			Convey("Then it misses", func() {
				So(errors.Is(err, detail.ErrMiss), ShouldBeTrue)
			})
		})

		Convey("When a fresh Put follows an expired one", func() {
			So(c.Put(ctx, "u1", model.Snapshot{UserID: "u1", Daily: 1}, time.Minute), ShouldBeNil)
			clock.Advance(2 * time.Minute)
			So(c.Put(ctx, "u1", model.Snapshot{UserID: "u1", Daily: 2}, time.Minute), ShouldBeNil)

			got, err := c.Get(ctx, "u1")

			Convey("Then the fresh snapshot is served", func() {
				So(err, ShouldBeNil)
				So(got.Daily, ShouldEqual, 2)
			})
		})
	})
}
