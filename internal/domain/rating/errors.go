package rating

import "errors"

// Sentinel kinds for rating errors.
var (
	// ErrIncompatibleCompetitor is returned when the opponent of a pairwise
	// operation is not the same competitor variant as the receiver.
	ErrIncompatibleCompetitor = errors.New("incompatible competitor type")
	// ErrBaseRatingMismatch is returned when two competitors use different
	// base ratings and therefore cannot be compared on the same scale.
	ErrBaseRatingMismatch = errors.New("base rating mismatch")
	// ErrInvalidState is returned when an exported record cannot be turned
	// back into a competitor.
	ErrInvalidState = errors.New("invalid competitor state")
)
