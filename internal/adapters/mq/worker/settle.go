package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/okian/elo/internal/adapters/repository"
	"github.com/okian/elo/internal/domain/model"
	"github.com/okian/elo/internal/domain/rating"
	"github.com/okian/elo/internal/domain/types"
	"github.com/okian/elo/pkg/metrics"
)

// Applier runs two-competitor rating transactions.
type Applier interface {
	Apply(ctx context.Context, aID, bID string, fn repository.ApplyFunc) error
}

// Settle applies the outcome of b to both competitors in one transaction.
// For a win, CompetitorA is the winner.
func Settle(ctx context.Context, store Applier, b model.Bout) (types.BoutResult, error) { //nolint:gocritic // hugeParam: Bout is passed by value across the queue
	if err := b.Validate(); err != nil {
		metrics.RecordBoutRejected(rejectReason(err))
		return types.BoutResult{}, err
	}

	res := types.BoutResult{BoutID: b.BoutID}
	err := store.Apply(ctx, b.CompetitorA, b.CompetitorB, func(a, c *rating.EloCompetitor) error {
		beforeA, beforeB := a.Rating(), c.Rating()

		var err error
		switch b.Outcome {
		case model.OutcomeWin:
			err = rating.ApplyWin(a, c)
		case model.OutcomeTie:
			err = rating.ApplyTie(a, c)
		default:
			err = fmt.Errorf("%w: %q", model.ErrUnknownOutcome, b.Outcome)
		}
		if err != nil {
			return err
		}

		res.RatingA, res.RatingB = a.Rating(), c.Rating()
		res.DeltaA, res.DeltaB = res.RatingA-beforeA, res.RatingB-beforeB
		return nil
	})
	if err != nil {
		metrics.RecordBoutRejected(rejectReason(err))
		return types.BoutResult{}, fmt.Errorf("bout %s: %w", b.BoutID, err)
	}

	metrics.RecordBoutApplied(string(b.Outcome))
	metrics.RecordRatingDelta(res.DeltaA)
	metrics.RecordRatingDelta(res.DeltaB)
	return res, nil
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return "not_found"
	case errors.Is(err, repository.ErrSameCompetitor), errors.Is(err, model.ErrSelfBout):
		return "self_bout"
	case errors.Is(err, rating.ErrIncompatibleCompetitor):
		return "incompatible"
	case errors.Is(err, rating.ErrBaseRatingMismatch):
		return "base_mismatch"
	case errors.Is(err, model.ErrMissingBoutID),
		errors.Is(err, model.ErrMissingCompetitor),
		errors.Is(err, model.ErrUnknownOutcome):
		return "invalid"
	default:
		return "internal"
	}
}
