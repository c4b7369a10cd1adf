package ranking_test

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"testing"

	"github.com/pomorank/pomorank/internal/adapters/ranking"
	"github.com/pomorank/pomorank/internal/domain/period"
	. "github.com/smartystreets/goconvey/convey"
)

func TestTreapStore_Upsert(t *testing.T) {
	ctx := context.Background()

	Convey("Given an empty treap store", t, func() {
		s := ranking.NewTreapStore()

		Convey("When upserting a user", func() {
			err := s.Upsert(ctx, period.Daily, "u1", 10)

			Convey("Then the user is ranked first", func() {
				So(err, ShouldBeNil)
				entry, err := s.Rank(ctx, period.Daily, "u1")
				So(err, ShouldBeNil)
				So(entry.Rank, ShouldEqual, 1)
				So(entry.Score, ShouldEqual, 10)
			})

			Convey("And the other periods are untouched", func() {
				_, err := s.Rank(ctx, period.Weekly, "u1")
				So(errors.Is(err, ranking.ErrNotRanked), ShouldBeTrue)
			})
		})

		Convey("When upserting the same user twice", func() {
			So(s.Upsert(ctx, period.Daily, "u1", 10), ShouldBeNil)
			So(s.Upsert(ctx, period.Daily, "u1", 25), ShouldBeNil)

			Convey("Then the score is replaced, not duplicated", func() {
				entry, err := s.Rank(ctx, period.Daily, "u1")
				So(err, ShouldBeNil)
				So(entry.Score, ShouldEqual, 25)
				card, err := s.Cardinality(ctx, period.Daily)
				So(err, ShouldBeNil)
				So(card, ShouldEqual, 1)
			})
		})
	})
}

func TestTreapStore_TopN(t *testing.T) {
	ctx := context.Background()

	Convey("Given a store with three users", t, func() {
		s := ranking.NewTreapStore()
		So(s.Upsert(ctx, period.Weekly, "alice", 30), ShouldBeNil)
		So(s.Upsert(ctx, period.Weekly, "bob", 10), ShouldBeNil)
		So(s.Upsert(ctx, period.Weekly, "carol", 20), ShouldBeNil)

		Convey("When querying the top 2", func() {
			entries, err := s.TopN(ctx, period.Weekly, 2)

			Convey("Then entries are ordered by score desc with contiguous ranks", func() {
				So(err, ShouldBeNil)
				So(entries, ShouldHaveLength, 2)
				So(entries[0].UserID, ShouldEqual, "alice")
				So(entries[0].Rank, ShouldEqual, 1)
				So(entries[1].UserID, ShouldEqual, "carol")
				So(entries[1].Rank, ShouldEqual, 2)
			})
		})

		Convey("When querying more than the cardinality", func() {
			entries, err := s.TopN(ctx, period.Weekly, 50)

			Convey("Then all users are returned", func() {
				So(err, ShouldBeNil)
				So(entries, ShouldHaveLength, 3)
			})
		})

		Convey("When querying with a non-positive limit", func() {
			_, err := s.TopN(ctx, period.Weekly, 0)

			Convey("Then it fails with ErrInvalidLimit", func() {
				So(errors.Is(err, ranking.ErrInvalidLimit), ShouldBeTrue)
			})
		})
	})

	Convey("Given two users with the same score", t, func() {
		s := ranking.NewTreapStore()
		So(s.Upsert(ctx, period.Daily, "zed", 7), ShouldBeNil)
		So(s.Upsert(ctx, period.Daily, "amy", 7), ShouldBeNil)

		Convey("Then ties break deterministically by user id asc", func() {
			entries, err := s.TopN(ctx, period.Daily, 2)
			So(err, ShouldBeNil)
			So(entries[0].UserID, ShouldEqual, "amy")
			So(entries[1].UserID, ShouldEqual, "zed")
		})
	})
}

func TestTreapStore_Rank(t *testing.T) {
	ctx := context.Background()

	Convey("Given a store with many users", t, func() {
		s := ranking.NewTreapStore()
		const n = 200
		rng := rand.New(rand.NewSource(42))
		scores := make(map[string]int64, n)
		for i := 0; i < n; i++ {
			id := fmt.Sprintf("user-%03d", i)
			score := int64(rng.Intn(1000))
			scores[id] = score
			So(s.Upsert(ctx, period.Monthly, id, score), ShouldBeNil)
		}

		Convey("Then every rank matches a reference sort", func() {
			ids := make([]string, 0, n)
			for id := range scores {
				ids = append(ids, id)
			}
			sort.Slice(ids, func(i, j int) bool {
				if scores[ids[i]] != scores[ids[j]] {
					return scores[ids[i]] > scores[ids[j]]
				}
				return ids[i] < ids[j]
			})
			for want, id := range ids {
				entry, err := s.Rank(ctx, period.Monthly, id)
				So(err, ShouldBeNil)
				So(entry.Rank, ShouldEqual, want+1)
			}
		})
	})

	Convey("Given an unknown user", t, func() {
		s := ranking.NewTreapStore()

		Convey("Then Rank fails with ErrNotRanked", func() {
			_, err := s.Rank(ctx, period.Daily, "ghost")
			So(errors.Is(err, ranking.ErrNotRanked), ShouldBeTrue)
		})
	})
}

func TestTreapStore_RangeAround(t *testing.T) {
	ctx := context.Background()

	Convey("Given a store with ten users scored 10..100", t, func() {
		s := ranking.NewTreapStore()
		for i := 1; i <= 10; i++ {
			id := fmt.Sprintf("u%02d", i)
			So(s.Upsert(ctx, period.Yearly, id, int64(i*10)), ShouldBeNil)
		}

		Convey("When querying around a mid-ranked user", func() {
			// u05 has score 50, rank 6.
			entries, err := s.RangeAround(ctx, period.Yearly, "u05", 2)

			Convey("Then the window covers ranks 4..8", func() {
				So(err, ShouldBeNil)
				So(entries, ShouldHaveLength, 5)
				So(entries[0].Rank, ShouldEqual, 4)
				So(entries[4].Rank, ShouldEqual, 8)
			})
		})

		Convey("When querying around the top user", func() {
			entries, err := s.RangeAround(ctx, period.Yearly, "u10", 3)

			Convey("Then the window is clipped at rank 1", func() {
				So(err, ShouldBeNil)
				So(entries, ShouldHaveLength, 4)
				So(entries[0].Rank, ShouldEqual, 1)
				So(entries[0].UserID, ShouldEqual, "u10")
			})
		})

		Convey("When querying around the bottom user", func() {
			entries, err := s.RangeAround(ctx, period.Yearly, "u01", 3)

			Convey("Then the window is clipped at the cardinality", func() {
				So(err, ShouldBeNil)
				So(entries, ShouldHaveLength, 4)
				So(entries[len(entries)-1].Rank, ShouldEqual, 10)
			})
		})

		Convey("When querying around an unknown user", func() {
			_, err := s.RangeAround(ctx, period.Yearly, "ghost", 2)

			Convey("Then it fails with ErrNotRanked", func() {
				So(errors.Is(err, ranking.ErrNotRanked), ShouldBeTrue)
			})
		})
	})
}

func TestTreapStore_Clear(t *testing.T) {
	ctx := context.Background()

	Convey("Given a store with users in two periods", t, func() {
		s := ranking.NewTreapStore()
		So(s.Upsert(ctx, period.Daily, "u1", 5), ShouldBeNil)
		So(s.Upsert(ctx, period.Weekly, "u1", 5), ShouldBeNil)

		Convey("When clearing the daily set", func() {
			So(s.Clear(ctx, period.Daily), ShouldBeNil)

			Convey("Then daily is empty and weekly is untouched", func() {
				card, err := s.Cardinality(ctx, period.Daily)
				So(err, ShouldBeNil)
				So(card, ShouldEqual, 0)
				card, err = s.Cardinality(ctx, period.Weekly)
				So(err, ShouldBeNil)
				So(card, ShouldEqual, 1)
			})
		})
	})
}

func TestTreapStore_Members(t *testing.T) {
	ctx := context.Background()

	Convey("Given a store with three daily members", t, func() {
		s := ranking.NewTreapStore()
		for _, id := range []string{"a", "b", "c"} {
			So(s.Upsert(ctx, period.Daily, id, 1), ShouldBeNil)
		}

		Convey("Then Members returns all of them", func() {
			ids, err := s.Members(ctx, period.Daily)
			So(err, ShouldBeNil)
			sort.Strings(ids)
			So(ids, ShouldResemble, []string{"a", "b", "c"})
		})
	})
}
