package rating

import "math"

// Option applies a configuration option to an EloCompetitor.
type Option func(*EloCompetitor)

// WithInitialRating sets the starting rating. Non-finite values are ignored.
func WithInitialRating(r float64) Option {
	return func(c *EloCompetitor) {
		if isFinite(r) {
			c.rating = r
		}
	}
}

// WithKFactor sets the maximum adjustment of a single bout.
func WithKFactor(k float64) Option {
	return func(c *EloCompetitor) {
		if isFinite(k) && k >= 0 {
			c.kFactor = k
		}
	}
}

// WithBaseRating sets the scale of the logistic transform.
func WithBaseRating(base float64) Option {
	return func(c *EloCompetitor) {
		if isFinite(base) && base > 0 {
			c.baseRating = base
		}
	}
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
