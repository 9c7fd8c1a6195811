package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrNotStarted     = errors.New("service not started")
	ErrBackpressure   = errors.New("bout queue is full")
	ErrDuplicateBout  = errors.New("bout already submitted")
	ErrInvalidID      = errors.New("competitor id must not be empty")
	ErrInvalidRating  = errors.New("initial rating must be finite")
	ErrNoSnapshotting = errors.New("snapshot persistence is not configured")
)
