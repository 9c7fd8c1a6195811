// Package types contains common types used across the application
package types

import "github.com/okian/elo/internal/domain/rating"

// Entry represents a leaderboard entry
type Entry struct {
	Rank         int     `json:"rank"`
	CompetitorID string  `json:"competitor_id"`
	Rating       float64 `json:"rating"`
}

// Competitor is the read shape of a single competitor.
type Competitor struct {
	ID     string       `json:"id"`
	Rank   int          `json:"rank"`
	Rating float64      `json:"rating"`
	State  rating.State `json:"state"`
}

// Expectation holds the expected scores of a pairing.
type Expectation struct {
	A         string  `json:"a"`
	B         string  `json:"b"`
	ExpectedA float64 `json:"expected_a"`
	ExpectedB float64 `json:"expected_b"`
}

// BoutResult reports both ratings after a bout was applied.
type BoutResult struct {
	BoutID  string  `json:"bout_id"`
	RatingA float64 `json:"rating_a"`
	RatingB float64 `json:"rating_b"`
	DeltaA  float64 `json:"delta_a"`
	DeltaB  float64 `json:"delta_b"`
}
