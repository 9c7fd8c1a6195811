package boutsim

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/okian/elo/pkg/logger"
)

const (
	outcomeWin = "win"
	outcomeTie = "tie"
)

// newRand returns a deterministic source for seed, or a random one when
// seed is zero.
func newRand(seed uint64) *rand.Rand {
	if seed == 0 {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// winProbability is the Elo expected score of strength a against b.
func winProbability(a, b, base float64) float64 {
	return 1 / (1 + math.Pow(10, (b-a)/base))
}

// generateCompetitors creates n competitors with normally distributed
// hidden strengths around zero.
func generateCompetitors(ctx context.Context, n int, spread float64, rng *rand.Rand) []Competitor {
	out := make([]Competitor, n)
	for i := range out {
		out[i] = Competitor{
			ID:       uuid.NewString(),
			Strength: rng.NormFloat64() * spread,
		}
	}
	logger.Get().Info(ctx, "generated competitors", logger.Int("count", n))
	return out
}

// generateBouts pairs random competitors and samples each outcome from the
// expected score of their hidden strengths. For a win the winner is always
// listed as competitor_a.
func generateBouts(ctx context.Context, cfg *Config, comps []Competitor, rng *rand.Rand, stats *Stats) []Bout {
	ts := time.Now().UTC().Format(time.RFC3339)
	bouts := make([]Bout, cfg.Bouts)
	ties := 0

	for i := range bouts {
		ai := rng.IntN(len(comps))
		bi := rng.IntN(len(comps) - 1)
		if bi >= ai {
			bi++
		}
		a, b := comps[ai], comps[bi]

		bout := Bout{BoutID: uuid.NewString(), TS: ts}
		switch {
		case rng.Float64() < cfg.TieRate:
			bout.CompetitorA, bout.CompetitorB, bout.Outcome = a.ID, b.ID, outcomeTie
			ties++
		case rng.Float64() < winProbability(a.Strength, b.Strength, cfg.BaseRating):
			bout.CompetitorA, bout.CompetitorB, bout.Outcome = a.ID, b.ID, outcomeWin
		default:
			bout.CompetitorA, bout.CompetitorB, bout.Outcome = b.ID, a.ID, outcomeWin
		}
		bouts[i] = bout
	}

	stats.BoutsGenerated = len(bouts)
	stats.Ties = ties
	logger.Get().Info(ctx, "generated bouts", logger.Int("count", len(bouts)), logger.Int("ties", ties))
	return bouts
}
