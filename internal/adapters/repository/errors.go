package repository

import "errors"

// Sentinel kinds for durable store errors.
var (
	ErrNotFound    = errors.New("user score not found")
	ErrUnavailable = errors.New("durable store unavailable")
)
