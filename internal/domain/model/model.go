// Package model contains the storage-facing data types shared by the stores
// and the leaderboard service.
package model

import (
	"time"

	"github.com/pomorank/pomorank/internal/domain/period"
)

// UserScore is the durable system-of-record row for one user. A single
// increment adds the same delta to all four counters inside one transaction;
// a reset zeroes exactly one counter.
type UserScore struct {
	UserID    string    `gorm:"primaryKey;size:64" json:"user_id"`
	Daily     int64     `gorm:"not null;default:0" json:"daily"`
	Weekly    int64     `gorm:"not null;default:0" json:"weekly"`
	Monthly   int64     `gorm:"not null;default:0" json:"monthly"`
	Yearly    int64     `gorm:"not null;default:0" json:"yearly"`
	// autoUpdateTime is disabled: the stores stamp UpdatedAt explicitly from
	// the injected clock, and reconciliation persists the cache timestamp,
	// which a convention-managed column would silently overwrite with now().
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime:false" json:"updated_at"`
}

// TableName pins the table name so the schema does not depend on gorm's
// pluralization rules.
func (UserScore) TableName() string { return "user_scores" }

// Counter returns the accumulator for the given period.
func (u *UserScore) Counter(p period.Period) int64 {
	switch p {
	case period.Daily:
		return u.Daily
	case period.Weekly:
		return u.Weekly
	case period.Monthly:
		return u.Monthly
	case period.Yearly:
		return u.Yearly
	default:
		return 0
	}
}

// SetCounter overwrites the accumulator for the given period.
func (u *UserScore) SetCounter(p period.Period, v int64) {
	switch p {
	case period.Daily:
		u.Daily = v
	case period.Weekly:
		u.Weekly = v
	case period.Monthly:
		u.Monthly = v
	case period.Yearly:
		u.Yearly = v
	}
}

// Snapshot is the detail-cache view of a user: all four counters plus the
// time the snapshot was taken. CachedAt is compared against the durable
// row's UpdatedAt during reconciliation, so both are kept in UTC.
type Snapshot struct {
	UserID   string    `json:"user_id"`
	Daily    int64     `json:"daily"`
	Weekly   int64     `json:"weekly"`
	Monthly  int64     `json:"monthly"`
	Yearly   int64     `json:"yearly"`
	CachedAt time.Time `json:"cached_at"`
}

// SnapshotOf builds a Snapshot from a durable row.
func SnapshotOf(u *UserScore, at time.Time) Snapshot {
	return Snapshot{
		UserID:   u.UserID,
		Daily:    u.Daily,
		Weekly:   u.Weekly,
		Monthly:  u.Monthly,
		Yearly:   u.Yearly,
		CachedAt: at.UTC(),
	}
}

// Counter returns the snapshot's accumulator for the given period.
func (s Snapshot) Counter(p period.Period) int64 {
	switch p {
	case period.Daily:
		return s.Daily
	case period.Weekly:
		return s.Weekly
	case period.Monthly:
		return s.Monthly
	case period.Yearly:
		return s.Yearly
	default:
		return 0
	}
}

// SetCounter overwrites the snapshot's accumulator for the given period.
func (s *Snapshot) SetCounter(p period.Period, v int64) {
	switch p {
	case period.Daily:
		s.Daily = v
	case period.Weekly:
		s.Weekly = v
	case period.Monthly:
		s.Monthly = v
	case period.Yearly:
		s.Yearly = v
	}
}

// Equal reports whether two snapshots carry the same four counters.
// Timestamps are compared separately by the reconciler.
func (s Snapshot) Equal(o Snapshot) bool {
	return s.Daily == o.Daily && s.Weekly == o.Weekly &&
		s.Monthly == o.Monthly && s.Yearly == o.Yearly
}
