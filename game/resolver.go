package game

import (
	"math/rand"
	"sort"
)

// TieBreak names the rule that decided a round.
type TieBreak int

const (
	TieBreakNone TieBreak = iota
	TieBreakHistory
	TieBreakRandom
)

func (t TieBreak) String() string {
	switch t {
	case TieBreakHistory:
		return "rounds won"
	case TieBreakRandom:
		return "random draw"
	}

	return "power"
}

type RoundResult struct {
	Round     int
	Plays     []Play
	WinnerID  int64
	HasWinner bool
	Losers    []int64
	Forfeits  []int64
	TieBreak  TieBreak
}

// ResolveRound picks the round winner: highest power, then most rounds won so far, then
// a draw from rng over the tied plays in seat order. rng is only consumed on a full tie.
// Forfeits lose automatically. The inputs are not modified.
func ResolveRound(round int, plays []Play, forfeits []int64, roundsWon map[int64]int, rng *rand.Rand) RoundResult {
	sorted := make([]Play, len(plays))
	copy(sorted, plays)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Seat < sorted[j].Seat })

	res := RoundResult{
		Round:    round,
		Plays:    sorted,
		Forfeits: append([]int64(nil), forfeits...),
	}

	if len(sorted) > 0 {
		tied := topBy(sorted, func(p Play) int { return p.Item.Power })
		if len(tied) > 1 {
			res.TieBreak = TieBreakHistory
			tied = topBy(tied, func(p Play) int { return roundsWon[p.CompetitorID] })
		}

		if len(tied) > 1 {
			res.TieBreak = TieBreakRandom
			tied = []Play{tied[rng.Intn(len(tied))]}
		}

		res.WinnerID = tied[0].CompetitorID
		res.HasWinner = true
	}

	for _, p := range sorted {
		if res.HasWinner && p.CompetitorID == res.WinnerID {
			continue
		}

		res.Losers = append(res.Losers, p.CompetitorID)
	}

	res.Losers = append(res.Losers, forfeits...)
	return res
}

// topBy keeps the plays sharing the highest key, preserving order.
func topBy(plays []Play, key func(Play) int) []Play {
	var top []Play
	best := 0
	for i, p := range plays {
		k := key(p)
		switch {
		case i == 0 || k > best:
			best = k
			top = []Play{p}
		case k == best:
			top = append(top, p)
		}
	}

	return top
}
