// Package rating implements pairwise skill ratings.
//
// A Competitor owns a numeric rating and the constants that control how the
// rating moves after a bout. Outcome operations mutate both participants in
// place and perform no locking: callers that run bouts concurrently must hold
// exclusive access to both competitors for the duration of an update.
package rating

// Kind names a rating strategy. Competitors of different kinds cannot meet.
type Kind string

// KindElo is the classical two-competitor Elo strategy.
const KindElo Kind = "elo"

// Competitor is a rated participant in pairwise bouts.
type Competitor interface {
	// Kind reports the rating strategy of the competitor.
	Kind() Kind
	// Rating returns the current rating.
	Rating() float64
	// ExpectedScore returns the probability of beating opponent plus half
	// the probability of a draw, in the open interval (0, 1). Near the
	// bounds the rating change of a bout can be smaller than the float64
	// spacing of the ratings and round away to nothing.
	ExpectedScore(opponent Competitor) (float64, error)
	// Beat records a win of the receiver over loser and updates both.
	Beat(loser Competitor) error
	// Tied records a draw with opponent and updates both.
	Tied(opponent Competitor) error
	// ExportState returns a record sufficient to rebuild the competitor.
	ExportState() State
}

// State is the exported form of a competitor.
type State struct {
	InitialRating float64   `json:"initial_rating"`
	ClassVars     ClassVars `json:"class_vars"`
}

// ClassVars holds the tunable constants of a competitor.
type ClassVars struct {
	KFactor    float64 `json:"k_factor"`
	BaseRating float64 `json:"base_rating"`
}

// ExpectedScore returns a's expected score against b.
func ExpectedScore(a, b Competitor) (float64, error) {
	return a.ExpectedScore(b)
}

// ApplyWin updates winner and loser after winner won the bout. Neither
// competitor is modified when an error is returned.
func ApplyWin(winner, loser Competitor) error {
	return winner.Beat(loser)
}

// ApplyTie updates a and b after a drawn bout. Neither competitor is
// modified when an error is returned.
func ApplyTie(a, b Competitor) error {
	return a.Tied(b)
}
