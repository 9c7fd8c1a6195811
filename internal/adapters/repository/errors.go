package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrNotFound       = errors.New("competitor not found")
	ErrExists         = errors.New("competitor already exists")
	ErrInvalidLimit   = errors.New("invalid leaderboard limit")
	ErrSameCompetitor = errors.New("competitor cannot face itself")
	ErrConflict       = errors.New("competitor replaced during update")
)
