package ranking

import "errors"

// Sentinel kinds for ranking store errors.
var (
	ErrNotRanked    = errors.New("user not ranked")
	ErrInvalidLimit = errors.New("invalid leaderboard limit")
	ErrUnavailable  = errors.New("ranking store unavailable")
)
