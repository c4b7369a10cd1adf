// Package period defines the closed set of leaderboard periods.
package period

import "fmt"

// Period identifies one of the four rolling counters a user accumulates.
// The zero value is not a valid period.
type Period int

const (
	Daily Period = iota + 1
	Weekly
	Monthly
	Yearly
)

// ErrInvalidPeriod is returned when a period name cannot be parsed.
var ErrInvalidPeriod = fmt.Errorf("invalid period")

var names = map[Period]string{
	Daily:   "daily",
	Weekly:  "weekly",
	Monthly: "monthly",
	Yearly:  "yearly",
}

// All returns the four periods in canonical order.
func All() []Period {
	return []Period{Daily, Weekly, Monthly, Yearly}
}

// Parse converts a wire name into a Period.
func Parse(s string) (Period, error) {
	switch s {
	case "daily":
		return Daily, nil
	case "weekly":
		return Weekly, nil
	case "monthly":
		return Monthly, nil
	case "yearly":
		return Yearly, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
	}
}

// String returns the wire name of the period.
func (p Period) String() string {
	if s, ok := names[p]; ok {
		return s
	}
	return fmt.Sprintf("period(%d)", int(p))
}

// Valid reports whether p is one of the four known periods.
func (p Period) Valid() bool {
	_, ok := names[p]
	return ok
}

// Column returns the durable store column holding this period's counter.
// Column names are fixed by the user_scores schema.
func (p Period) Column() string {
	switch p {
	case Daily:
		return "daily"
	case Weekly:
		return "weekly"
	case Monthly:
		return "monthly"
	case Yearly:
		return "yearly"
	default:
		return ""
	}
}

// ManuallyResettable reports whether the administrative reset endpoint may
// target this period. Yearly resets are reachable only through the scheduler.
func (p Period) ManuallyResettable() bool {
	return p == Daily || p == Weekly || p == Monthly
}
