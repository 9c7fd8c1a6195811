// Package repository holds competitor ratings and answers ranking queries.
package repository

import (
	"context"

	"github.com/okian/elo/internal/domain/rating"
)

// Entry represents a leaderboard row.
type Entry struct {
	Rank         int
	CompetitorID string
	Rating       float64
	State        rating.State
}

// ApplyFunc mutates two competitors in place. Returning an error discards
// the mutation.
type ApplyFunc func(a, b *rating.EloCompetitor) error

// Store provides read/write access to the rating state.
type Store interface {
	// Create adds a competitor. Returns ErrExists if the id is taken.
	Create(ctx context.Context, id string, c *rating.EloCompetitor) error

	// Get returns a copy of the competitor. Returns ErrNotFound if unknown.
	Get(ctx context.Context, id string) (*rating.EloCompetitor, error)

	// Apply runs fn with exclusive access to both competitors and writes the
	// result back only when fn returns nil.
	Apply(ctx context.Context, aID, bID string, fn ApplyFunc) error

	// Rank returns the current rank and rating for a competitor.
	// Returns ErrNotFound if the competitor is unknown.
	Rank(ctx context.Context, id string) (Entry, error)

	// TopN returns the top-N entries ordered by rating desc.
	TopN(ctx context.Context, n int) ([]Entry, error)

	// Count returns the number of competitors tracked.
	Count(ctx context.Context) int

	// Snapshot exports every competitor's state keyed by id.
	Snapshot(ctx context.Context) map[string]rating.State

	// Restore replaces the store content with the given states.
	Restore(ctx context.Context, states map[string]rating.State) error
}
