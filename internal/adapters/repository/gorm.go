package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonboulle/clockwork"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/pomorank/pomorank/internal/domain/model"
	"github.com/pomorank/pomorank/internal/domain/period"
)

// GormStore implements Store on Postgres via gorm.
type GormStore struct {
	db    *gorm.DB
	clock clockwork.Clock
}

// OpenGorm connects to Postgres, migrates the user_scores table, and
// returns the store. A nil clock falls back to the real one.
func OpenGorm(dsn string, clock clockwork.Clock) (*GormStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w: %w", ErrUnavailable, err)
	}
	if err := db.AutoMigrate(&model.UserScore{}); err != nil {
		return nil, fmt.Errorf("migrate user_scores: %w", err)
	}
	return NewGormStore(db, clock), nil
}

// NewGormStore wraps an existing gorm handle.
func NewGormStore(db *gorm.DB, clock clockwork.Clock) *GormStore {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &GormStore{db: db, clock: clock}
}

// Get returns one user's row.
func (s *GormStore) Get(ctx context.Context, userID string) (*model.UserScore, error) {
	var rec model.UserScore
	err := s.db.WithContext(ctx).First(&rec, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user score: %w: %w", ErrUnavailable, err)
	}
	return &rec, nil
}

// List returns every row.
func (s *GormStore) List(ctx context.Context) ([]model.UserScore, error) {
	var recs []model.UserScore
	if err := s.db.WithContext(ctx).Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list user scores: %w: %w", ErrUnavailable, err)
	}
	return recs, nil
}

// UserIDs returns every user id present in the store.
func (s *GormStore) UserIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).Model(&model.UserScore{}).Pluck("user_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("list user ids: %w: %w", ErrUnavailable, err)
	}
	return ids, nil
}

// Increment adds delta to all four counters inside one transaction,
// creating the row lazily. The row lock serializes concurrent increments
// for the same user.
func (s *GormStore) Increment(ctx context.Context, userID string, delta int64) (*model.UserScore, error) {
	var rec model.UserScore
	now := s.clock.Now().UTC()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&rec, "user_id = ?", userID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			rec = model.UserScore{
				UserID: userID,
				Daily:  delta, Weekly: delta, Monthly: delta, Yearly: delta,
				UpdatedAt: now,
			}
			return tx.Create(&rec).Error
		}
		if err != nil {
			return err
		}
		rec.Daily += delta
		rec.Weekly += delta
		rec.Monthly += delta
		rec.Yearly += delta
		rec.UpdatedAt = now
		return tx.Save(&rec).Error
	})
	if err != nil {
		return nil, fmt.Errorf("increment user score: %w: %w", ErrUnavailable, err)
	}
	return &rec, nil
}

// Save creates or overwrites one row as-is.
func (s *GormStore) Save(ctx context.Context, rec *model.UserScore) error {
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			UpdateAll: true,
		}).
		Create(rec).Error
	if err != nil {
		return fmt.Errorf("save user score: %w: %w", ErrUnavailable, err)
	}
	return nil
}

// Delete removes one row. Deleting an absent row is not an error.
func (s *GormStore) Delete(ctx context.Context, userID string) error {
	err := s.db.WithContext(ctx).Delete(&model.UserScore{}, "user_id = ?", userID).Error
	if err != nil {
		return fmt.Errorf("delete user score: %w: %w", ErrUnavailable, err)
	}
	return nil
}

// ResetPeriod zeroes one period's column for every row.
func (s *GormStore) ResetPeriod(ctx context.Context, p period.Period) error {
	if !p.Valid() {
		return period.ErrInvalidPeriod
	}
	err := s.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Model(&model.UserScore{}).
		Updates(map[string]any{
			p.Column():   0,
			"updated_at": s.clock.Now().UTC(),
		}).Error
	if err != nil {
		return fmt.Errorf("reset %s column: %w: %w", p, ErrUnavailable, err)
	}
	return nil
}
