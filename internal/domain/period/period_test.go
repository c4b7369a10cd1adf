package period_test

import (
	"errors"
	"testing"

	"github.com/pomorank/pomorank/internal/domain/period"
	. "github.com/smartystreets/goconvey/convey"
)

func TestParse(t *testing.T) {
	Convey("Given the four period names", t, func() {
		Convey("Then each parses to its period", func() {
			for name, want := range map[string]period.Period{
				"daily":   period.Daily,
				"weekly":  period.Weekly,
				"monthly": period.Monthly,
				"yearly":  period.Yearly,
			} {
				p, err := period.Parse(name)
				So(err, ShouldBeNil)
				So(p, ShouldEqual, want)
				So(p.String(), ShouldEqual, name)
			}
		})
	})

	Convey("Given an unknown period name", t, func() {
		_, err := period.Parse("hourly")

		Convey("Then it should fail with ErrInvalidPeriod", func() {
			So(errors.Is(err, period.ErrInvalidPeriod), ShouldBeTrue)
		})
	})

	Convey("Given an empty period name", t, func() {
		_, err := period.Parse("")

		Convey("Then it should fail with ErrInvalidPeriod", func() {
			So(errors.Is(err, period.ErrInvalidPeriod), ShouldBeTrue)
		})
	})
}

func TestAll(t *testing.T) {
	Convey("Given the canonical period list", t, func() {
		all := period.All()

		Convey("Then it contains the four periods in order", func() {
			So(all, ShouldResemble, []period.Period{period.Daily, period.Weekly, period.Monthly, period.Yearly})
		})

		Convey("And every period is valid with a column name", func() {
			for _, p := range all {
				So(p.Valid(), ShouldBeTrue)
				So(p.Column(), ShouldNotBeEmpty)
			}
		})
	})
}

func TestManuallyResettable(t *testing.T) {
	Convey("Given the manual reset policy", t, func() {
		Convey("Then daily, weekly, and monthly are allowed", func() {
			So(period.Daily.ManuallyResettable(), ShouldBeTrue)
			So(period.Weekly.ManuallyResettable(), ShouldBeTrue)
			So(period.Monthly.ManuallyResettable(), ShouldBeTrue)
		})

		Convey("And yearly is reachable only through the schedule", func() {
			So(period.Yearly.ManuallyResettable(), ShouldBeFalse)
		})
	})
}

func TestInvalidPeriodValue(t *testing.T) {
	Convey("Given the zero period value", t, func() {
		var p period.Period

		Convey("Then it is invalid", func() {
			So(p.Valid(), ShouldBeFalse)
			So(p.Column(), ShouldBeEmpty)
		})
	})
}
