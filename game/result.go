package game

import (
	"math/rand"
	"sort"
)

// Standing is one competitor's match record. Only the coordinator writes it.
type Standing struct {
	CompetitorID    int64
	Name            string
	Seat            int
	RoundsWon       int
	RoundsLost      int
	Forfeits        int
	Remaining       int
	PowerPlayed     int
	Eliminated      bool
	EliminatedRound int
	Excluded        bool
}

type MatchResult struct {
	Ranking      []int64
	Standings    []Standing
	Rounds       []RoundResult
	RoundsPlayed int
	Excluded     []*SetupError
}

func (r *MatchResult) standing(id int64) (Standing, bool) {
	for _, s := range r.Standings {
		if s.CompetitorID == id {
			return s, true
		}
	}

	return Standing{}, false
}

func (r *MatchResult) RoundsWon(id int64) int {
	s, _ := r.standing(id)
	return s.RoundsWon
}

func (r *MatchResult) Remaining(id int64) int {
	s, _ := r.standing(id)
	return s.Remaining
}

// Winner is the first ranked standing.
func (r *MatchResult) Winner() (Standing, bool) {
	if len(r.Standings) == 0 {
		return Standing{}, false
	}

	return r.Standings[0], true
}

// Aggregate orders standings best first, competitors excluded at setup last: rounds won, remaining hand, power played, then a
// shuffle of whatever is still tied. Ties are shuffled from seat order so the ranking
// depends only on rng's seed. The input slice is not modified.
func Aggregate(standings []Standing, rng *rand.Rand) []Standing {
	out := make([]Standing, len(standings))
	copy(out, standings)

	sort.SliceStable(out, func(i, j int) bool { return out[i].Seat < out[j].Seat })
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Excluded != b.Excluded {
			return b.Excluded
		}

		if a.RoundsWon != b.RoundsWon {
			return a.RoundsWon > b.RoundsWon
		}

		if a.Remaining != b.Remaining {
			return a.Remaining > b.Remaining
		}

		return a.PowerPlayed > b.PowerPlayed
	})

	for start := 0; start < len(out); {
		end := start + 1
		for end < len(out) && sameRank(out[start], out[end]) {
			end++
		}

		if end-start > 1 {
			group := out[start:end]
			rng.Shuffle(len(group), func(i, j int) { group[i], group[j] = group[j], group[i] })
		}

		start = end
	}

	return out
}

func sameRank(a, b Standing) bool {
	return a.Excluded == b.Excluded && a.RoundsWon == b.RoundsWon && a.Remaining == b.Remaining && a.PowerPlayed == b.PowerPlayed
}

func ranking(standings []Standing) []int64 {
	ids := make([]int64, len(standings))
	for i, s := range standings {
		ids[i] = s.CompetitorID
	}

	return ids
}
