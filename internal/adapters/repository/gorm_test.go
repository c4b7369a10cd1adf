package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/pomorank/pomorank/internal/adapters/repository"
	"github.com/pomorank/pomorank/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

// newDryRunStore opens a gorm handle that builds SQL without executing it.
// sql.Open is lazy and the automatic ping is disabled, so no connection is
// ever attempted.
func newDryRunStore(clock clockwork.Clock) (*repository.GormStore, *gorm.DB, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=localhost user=pomorank dbname=pomorank sslmode=disable",
	}), &gorm.Config{
		DryRun:                 true,
		DisableAutomaticPing:   true,
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, nil, err
	}
	return repository.NewGormStore(db, clock), db, nil
}

func TestGormStore_SavePreservesTimestamp(t *testing.T) {
	ctx := context.Background()

	Convey("Given a row carrying a timestamp older than the wall clock", t, func() {
		at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
		clock := clockwork.NewFakeClockAt(at.Add(48 * time.Hour))
		store, db, err := newDryRunStore(clock)
		So(err, ShouldBeNil)

		var captured *gorm.Statement
		err = db.Callback().Create().After("gorm:create").Register("capture_statement", func(tx *gorm.DB) {
			captured = tx.Statement
		})
		So(err, ShouldBeNil)

		rec := &model.UserScore{
			UserID: "u1",
			Daily:  8, Weekly: 8, Monthly: 8, Yearly: 8,
			UpdatedAt: at,
		}

		Convey("When Save upserts the row", func() {
			So(store.Save(ctx, rec), ShouldBeNil)
			So(captured, ShouldNotBeNil)
			sql := captured.SQL.String()

			Convey("Then the statement is an upsert on user_id", func() {
				So(sql, ShouldContainSubstring, `ON CONFLICT ("user_id") DO UPDATE`)
			})

			Convey("And the conflict branch carries the row's timestamp, not wall-now", func() {
				So(sql, ShouldContainSubstring, `"updated_at"="excluded"."updated_at"`)
				for _, v := range captured.Vars {
					if ts, ok := v.(time.Time); ok {
						So(ts.Equal(at), ShouldBeTrue)
					}
				}
			})
		})
	})
}
