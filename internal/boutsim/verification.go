package boutsim

import (
	"errors"
	"fmt"
	"slices"
)

var errTooFewEntries = errors.New("at least two ranked competitors are required")

// rankCorrelation returns Spearman's rho between the leaderboard order and
// the hidden strength order of the same competitors. Entries whose id is
// not a known competitor are ignored.
func rankCorrelation(leaderboard []Entry, strengths map[string]float64) (float64, error) {
	ids := make([]string, 0, len(leaderboard))
	for _, e := range leaderboard {
		if _, ok := strengths[e.CompetitorID]; ok {
			ids = append(ids, e.CompetitorID)
		}
	}
	n := len(ids)
	if n < 2 {
		return 0, errTooFewEntries
	}

	hidden := slices.Clone(ids)
	slices.SortStableFunc(hidden, func(a, b string) int {
		switch sa, sb := strengths[a], strengths[b]; {
		case sa > sb:
			return -1
		case sa < sb:
			return 1
		default:
			return 0
		}
	})
	hiddenPos := make(map[string]int, n)
	for i, id := range hidden {
		hiddenPos[id] = i
	}

	var sumD2 float64
	for observed, id := range ids {
		d := float64(observed - hiddenPos[id])
		sumD2 += d * d
	}
	nf := float64(n)
	return 1 - 6*sumD2/(nf*(nf*nf-1)), nil
}

// verifyLeaderboardOrder checks ratings never increase and ranks follow
// competition ranking.
func verifyLeaderboardOrder(leaderboard []Entry) error {
	if len(leaderboard) > 0 && leaderboard[0].Rank != 1 {
		return fmt.Errorf("first entry has rank %d", leaderboard[0].Rank)
	}
	for i := 1; i < len(leaderboard); i++ {
		prev, cur := leaderboard[i-1], leaderboard[i]
		if cur.Rating > prev.Rating {
			return fmt.Errorf("entry %d rated %.3f above entry %d at %.3f", i, cur.Rating, i-1, prev.Rating)
		}
		want := i + 1
		if cur.Rating == prev.Rating {
			want = prev.Rank
		}
		if cur.Rank != want {
			return fmt.Errorf("entry %d has rank %d, want %d", i, cur.Rank, want)
		}
	}
	return nil
}
