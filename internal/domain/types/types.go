// Package types contains the read shapes returned by leaderboard queries.
package types

import "time"

// Row is one leaderboard entry: the user's rank and score in the queried
// period plus the full four-period snapshot.
type Row struct {
	Rank    int    `json:"rank"`
	UserID  string `json:"user_id"`
	Score   int64  `json:"score"`
	Daily   int64  `json:"daily"`
	Weekly  int64  `json:"weekly"`
	Monthly int64  `json:"monthly"`
	Yearly  int64  `json:"yearly"`
}

// RankResult answers a single-user rank lookup. Rank is nil when the user
// has no entry for the queried period.
type RankResult struct {
	Rank       *int  `json:"rank"`
	Score      int64 `json:"score"`
	TotalUsers int64 `json:"total_users"`
}

// Status is the /admin/status payload: scheduler bookkeeping, the last
// reconciliation time, and ranking store reachability.
type Status struct {
	IsRunning      bool                 `json:"is_running"`
	LastResets     map[string]time.Time `json:"last_resets"`
	NextResets     map[string]time.Time `json:"next_resets"`
	LastSyncTime   *time.Time           `json:"last_sync_time"`
	RedisConnected bool                 `json:"redis_connected"`
}
