// Package model contains domain models passed between layers.
package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Outcome is the result of a bout from the point of view of CompetitorA.
type Outcome string

// Supported outcomes.
const (
	OutcomeWin Outcome = "win" // CompetitorA beat CompetitorB
	OutcomeTie Outcome = "tie"
)

// Validation errors for bouts.
var (
	ErrMissingBoutID     = errors.New("missing bout_id")
	ErrMissingCompetitor = errors.New("missing competitor id")
	ErrSelfBout          = errors.New("competitor cannot meet itself")
	ErrUnknownOutcome    = errors.New("unknown outcome")
)

// ParseOutcome converts a client supplied string to an Outcome.
// "draw" is accepted as an alias of "tie".
func ParseOutcome(s string) (Outcome, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "win":
		return OutcomeWin, nil
	case "tie", "draw":
		return OutcomeTie, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownOutcome, s)
	}
}

// Bout is a single pairwise result submitted by clients.
type Bout struct {
	BoutID      string    // unique id for idempotency
	CompetitorA string    // winner when Outcome is OutcomeWin
	CompetitorB string    // loser when Outcome is OutcomeWin
	Outcome     Outcome   // win or tie
	TS          time.Time // when the bout was played
}

// Validate checks that the bout can be applied.
func (b Bout) Validate() error { //nolint:gocritic // hugeParam: Bout is passed by value across the queue
	switch {
	case strings.TrimSpace(b.BoutID) == "":
		return ErrMissingBoutID
	case strings.TrimSpace(b.CompetitorA) == "", strings.TrimSpace(b.CompetitorB) == "":
		return ErrMissingCompetitor
	case b.CompetitorA == b.CompetitorB:
		return ErrSelfBout
	}
	if b.Outcome != OutcomeWin && b.Outcome != OutcomeTie {
		return fmt.Errorf("%w: %q", ErrUnknownOutcome, b.Outcome)
	}
	return nil
}
