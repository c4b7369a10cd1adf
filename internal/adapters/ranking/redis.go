package ranking

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/pomorank/pomorank/internal/domain/period"
)

// rankKeyPrefix namespaces the per-period sorted sets.
const rankKeyPrefix = "pomorank:rank"

// RedisStore implements Store on Redis sorted sets, one key per period.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore wraps an existing Redis client.
func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func rankKey(p period.Period) string {
	return fmt.Sprintf("%s:%s", rankKeyPrefix, p)
}

// wrapUnavailable tags transport failures so callers can map them to the
// StoreUnavailable taxonomy without importing redis.
func wrapUnavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
}

// Upsert sets the score for a user in one period's set.
func (s *RedisStore) Upsert(ctx context.Context, p period.Period, userID string, score int64) error {
	if !p.Valid() {
		return period.ErrInvalidPeriod
	}
	err := s.rdb.ZAdd(ctx, rankKey(p), redis.Z{Score: float64(score), Member: userID}).Err()
	if err != nil {
		return wrapUnavailable("zadd", err)
	}
	return nil
}

// TopN returns up to n entries ordered best-first with contiguous ranks.
// Redis breaks score ties by member in reverse lexical order; the ordering
// is deterministic and stable, which is all the contract promises.
func (s *RedisStore) TopN(ctx context.Context, p period.Period, n int) ([]Entry, error) {
	if n < 1 {
		return nil, ErrInvalidLimit
	}
	if !p.Valid() {
		return nil, period.ErrInvalidPeriod
	}
	zs, err := s.rdb.ZRevRangeWithScores(ctx, rankKey(p), 0, int64(n-1)).Result()
	if err != nil {
		return nil, wrapUnavailable("zrevrange", err)
	}
	return entriesFrom(zs, 1), nil
}

// Rank returns the user's entry with its 1-based rank.
func (s *RedisStore) Rank(ctx context.Context, p period.Period, userID string) (Entry, error) {
	if !p.Valid() {
		return Entry{}, period.ErrInvalidPeriod
	}
	key := rankKey(p)
	rank, err := s.rdb.ZRevRank(ctx, key, userID).Result()
	if errors.Is(err, redis.Nil) {
		return Entry{}, ErrNotRanked
	}
	if err != nil {
		return Entry{}, wrapUnavailable("zrevrank", err)
	}
	score, err := s.rdb.ZScore(ctx, key, userID).Result()
	if errors.Is(err, redis.Nil) {
		// Removed between the two calls; treat as absent.
		return Entry{}, ErrNotRanked
	}
	if err != nil {
		return Entry{}, wrapUnavailable("zscore", err)
	}
	return Entry{Rank: int(rank) + 1, UserID: userID, Score: int64(score)}, nil
}

// RangeAround returns the entries ranked within window of the user,
// clipped to [1, cardinality].
func (s *RedisStore) RangeAround(ctx context.Context, p period.Period, userID string, window int) ([]Entry, error) {
	if window < 0 {
		return nil, ErrInvalidLimit
	}
	if !p.Valid() {
		return nil, period.ErrInvalidPeriod
	}
	key := rankKey(p)
	rank, err := s.rdb.ZRevRank(ctx, key, userID).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotRanked
	}
	if err != nil {
		return nil, wrapUnavailable("zrevrank", err)
	}
	start := rank - int64(window)
	if start < 0 {
		start = 0
	}
	stop := rank + int64(window)
	zs, err := s.rdb.ZRevRangeWithScores(ctx, key, start, stop).Result()
	if err != nil {
		return nil, wrapUnavailable("zrevrange", err)
	}
	return entriesFrom(zs, int(start)+1), nil
}

// Cardinality returns the number of members in one period's set.
func (s *RedisStore) Cardinality(ctx context.Context, p period.Period) (int64, error) {
	if !p.Valid() {
		return 0, period.ErrInvalidPeriod
	}
	n, err := s.rdb.ZCard(ctx, rankKey(p)).Result()
	if err != nil {
		return 0, wrapUnavailable("zcard", err)
	}
	return n, nil
}

// Members returns every user id present in one period's set.
func (s *RedisStore) Members(ctx context.Context, p period.Period) ([]string, error) {
	if !p.Valid() {
		return nil, period.ErrInvalidPeriod
	}
	ids, err := s.rdb.ZRange(ctx, rankKey(p), 0, -1).Result()
	if err != nil {
		return nil, wrapUnavailable("zrange", err)
	}
	return ids, nil
}

// Clear removes all members from one period's set.
func (s *RedisStore) Clear(ctx context.Context, p period.Period) error {
	if !p.Valid() {
		return period.ErrInvalidPeriod
	}
	if err := s.rdb.Del(ctx, rankKey(p)).Err(); err != nil {
		return wrapUnavailable("del", err)
	}
	return nil
}

// Ping reports whether the Redis backend is reachable.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.rdb.Ping(ctx).Err(); err != nil {
		return wrapUnavailable("ping", err)
	}
	return nil
}

func entriesFrom(zs []redis.Z, firstRank int) []Entry {
	out := make([]Entry, 0, len(zs))
	for i, z := range zs {
		id, _ := z.Member.(string)
		out = append(out, Entry{Rank: firstRank + i, UserID: id, Score: int64(z.Score)})
	}
	return out
}
