package rating

import (
	"fmt"
	"math"
)

// Default Elo constants.
const (
	DefaultRating     = 400
	DefaultBaseRating = 400
	DefaultKFactor    = 32
)

// EloCompetitor implements Competitor with the classical Elo update.
//
// Ratings are mapped to odds with 10^(rating/baseRating); a competitor whose
// rating is baseRating points higher is expected to win ten times as often.
// Each competitor applies its own k-factor to its own rating change, so two
// competitors may be configured independently as long as they share a base.
type EloCompetitor struct {
	rating     float64
	baseRating float64
	kFactor    float64
}

var _ Competitor = (*EloCompetitor)(nil)

// NewEloCompetitor creates a competitor with default constants overridden by opts.
func NewEloCompetitor(opts ...Option) *EloCompetitor {
	c := &EloCompetitor{
		rating:     DefaultRating,
		baseRating: DefaultBaseRating,
		kFactor:    DefaultKFactor,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FromState rebuilds a competitor from a record produced by ExportState.
func FromState(s State) (*EloCompetitor, error) {
	switch {
	case !isFinite(s.InitialRating):
		return nil, fmt.Errorf("%w: rating %v", ErrInvalidState, s.InitialRating)
	case !isFinite(s.ClassVars.BaseRating) || s.ClassVars.BaseRating <= 0:
		return nil, fmt.Errorf("%w: base rating %v", ErrInvalidState, s.ClassVars.BaseRating)
	case !isFinite(s.ClassVars.KFactor) || s.ClassVars.KFactor < 0:
		return nil, fmt.Errorf("%w: k-factor %v", ErrInvalidState, s.ClassVars.KFactor)
	}
	return &EloCompetitor{
		rating:     s.InitialRating,
		baseRating: s.ClassVars.BaseRating,
		kFactor:    s.ClassVars.KFactor,
	}, nil
}

// Kind implements Competitor.
func (c *EloCompetitor) Kind() Kind { return KindElo }

// Rating implements Competitor.
func (c *EloCompetitor) Rating() float64 { return c.rating }

// KFactor returns the competitor's k-factor.
func (c *EloCompetitor) KFactor() float64 { return c.kFactor }

// BaseRating returns the competitor's base rating.
func (c *EloCompetitor) BaseRating() float64 { return c.baseRating }

// TransformedRating returns 10^(rating/baseRating).
func (c *EloCompetitor) TransformedRating() float64 {
	return math.Pow(10, c.rating/c.baseRating)
}

// ExportState implements Competitor.
func (c *EloCompetitor) ExportState() State {
	return State{
		InitialRating: c.rating,
		ClassVars: ClassVars{
			KFactor:    c.kFactor,
			BaseRating: c.baseRating,
		},
	}
}

// ExpectedScore implements Competitor.
func (c *EloCompetitor) ExpectedScore(opponent Competitor) (float64, error) {
	o, err := c.opponent(opponent)
	if err != nil {
		return 0, err
	}
	return c.expected(o), nil
}

// Beat implements Competitor.
func (c *EloCompetitor) Beat(loser Competitor) error {
	l, err := c.opponent(loser)
	if err != nil {
		return err
	}
	winEs := c.expected(l)
	loseEs := l.expected(c)

	c.rating += c.kFactor * (1 - winEs)
	l.rating += l.kFactor * (0 - loseEs)
	return nil
}

// Tied implements Competitor.
func (c *EloCompetitor) Tied(opponent Competitor) error {
	o, err := c.opponent(opponent)
	if err != nil {
		return err
	}
	esA := c.expected(o)
	esB := o.expected(c)

	c.rating += c.kFactor * (0.5 - esA)
	o.rating += o.kFactor * (0.5 - esB)
	return nil
}

// String returns a short description for logs.
func (c *EloCompetitor) String() string {
	return fmt.Sprintf("elo(rating=%g k=%g base=%g)", c.rating, c.kFactor, c.baseRating)
}

// Bounds for expected. In float64 the logistic rounds to 1 past a gap of
// about 16 base ratings and to 0 once 10^gap overflows.
var (
	minExpected = math.Nextafter(0, 1)
	maxExpected = math.Nextafter(1, 0)
)

// expected computes tr(c) / (tr(c) + tr(o)) in the equivalent form
// 1 / (1 + 10^((o-c)/base)), which stays defined when either transformed
// rating overflows. The result is clamped to the open interval (0, 1).
func (c *EloCompetitor) expected(o *EloCompetitor) float64 {
	e := 1 / (1 + math.Pow(10, (o.rating-c.rating)/c.baseRating))
	return min(max(e, minExpected), maxExpected)
}

// opponent checks that other can meet c in a bout.
func (c *EloCompetitor) opponent(other Competitor) (*EloCompetitor, error) {
	o, ok := other.(*EloCompetitor)
	if !ok || o == nil {
		return nil, fmt.Errorf("%w: want %s, got %T", ErrIncompatibleCompetitor, KindElo, other)
	}
	if o.baseRating != c.baseRating {
		return nil, fmt.Errorf("%w: %g vs %g", ErrBaseRatingMismatch, c.baseRating, o.baseRating)
	}
	return o, nil
}
