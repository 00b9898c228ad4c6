package game

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
)

func init() {
	log.SetLevel(log.WarnLevel)
}

func testCompetitor(id int64, powers ...int) *Competitor {
	c := &Competitor{ID: id, Name: string(rune('A' + id - 1))}
	for i, p := range powers {
		c.Hand = append(c.Hand, Item{ID: id*100 + int64(i), Name: "card", Category: Lightning, Power: p})
	}

	return c
}

func testMatchConfig(seed int64) MatchConfig {
	return MatchConfig{
		ID:           "test",
		Rounds:       3,
		RoundTimeout: time.Second,
		Rand:         rand.New(rand.NewSource(seed)),
	}
}

// blockFor makes the listed competitors wait out every round.
func blockFor(ids ...int64) ThinkFunc {
	blocked := make(map[int64]bool, len(ids))
	for _, id := range ids {
		blocked[id] = true
	}

	return func(ctx context.Context, c *Competitor, round int) error {
		if !blocked[c.ID] {
			return nil
		}

		<-ctx.Done()
		return ctx.Err()
	}
}

func TestMatch_Run(t *testing.T) {
	tests := map[string]struct {
		Competitors  []*Competitor
		Rounds       int
		RoundsPlayed int
		Winner       int64
	}{
		"highest single card wins": {
			Competitors:  []*Competitor{testCompetitor(1, 7), testCompetitor(2, 9), testCompetitor(3, 5)},
			Rounds:       1,
			RoundsPlayed: 1,
			Winner:       2,
		},
		"hands run out after two rounds": {
			Competitors:  []*Competitor{testCompetitor(1, 4, 4), testCompetitor(2, 5, 5), testCompetitor(3, 6, 6)},
			Rounds:       3,
			RoundsPlayed: 2,
			Winner:       3,
		},
		"short hand drops out and the rest play on": {
			Competitors:  []*Competitor{testCompetitor(1, 10), testCompetitor(2, 5, 5, 9), testCompetitor(3, 6, 6, 10)},
			Rounds:       3,
			RoundsPlayed: 3,
			Winner:       3,
		},
		"many competitors": {
			Competitors: []*Competitor{
				testCompetitor(1, 1, 2, 3), testCompetitor(2, 2, 3, 4), testCompetitor(3, 3, 4, 5),
				testCompetitor(4, 4, 5, 6), testCompetitor(5, 5, 6, 7), testCompetitor(6, 6, 7, 10),
			},
			Rounds:       3,
			RoundsPlayed: 3,
			Winner:       6,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			cfg := testMatchConfig(1)
			cfg.Rounds = test.Rounds

			m, err := NewMatch(cfg, test.Competitors)
			if err != nil {
				t.Fatalf("new match: %v", err)
			}

			res, err := m.Run(context.Background())
			if err != nil {
				t.Fatalf("run: %v", err)
			}

			if res.RoundsPlayed != test.RoundsPlayed {
				t.Fatalf("rounds played = %v, want %v", res.RoundsPlayed, test.RoundsPlayed)
			}

			if w, _ := res.Winner(); w.CompetitorID != test.Winner {
				t.Fatalf("winner = %v, want %v (ranking %v)", w.CompetitorID, test.Winner, res.Ranking)
			}

			if m.State() != MatchComplete {
				t.Fatalf("state = %v, want complete", m.State())
			}

			for id, s := range m.WorkerStates() {
				if s != WorkerDone {
					t.Fatalf("worker %v ended %v, want done", id, s)
				}
			}

			checkMatchInvariants(t, res, test.Competitors, cfg.Rounds)
		})
	}
}

// checkMatchInvariants holds for every completed match.
func checkMatchInvariants(t *testing.T, res *MatchResult, competitors []*Competitor, rounds int) {
	t.Helper()

	if len(res.Ranking) != len(competitors) {
		t.Fatalf("ranking has %v entries, want %v", len(res.Ranking), len(competitors))
	}

	totalWon := 0
	for _, st := range res.Standings {
		totalWon += st.RoundsWon
	}

	if totalWon > rounds {
		t.Fatalf("%v rounds won in a %v round match", totalWon, rounds)
	}

	played := make(map[int64]bool)
	for _, round := range res.Rounds {
		perCompetitor := make(map[int64]bool)
		for _, p := range round.Plays {
			if played[p.Item.ID] {
				t.Fatalf("item %v played twice", p.Item.ID)
			}
			played[p.Item.ID] = true

			if perCompetitor[p.CompetitorID] {
				t.Fatalf("competitor %v played twice in round %v", p.CompetitorID, round.Round)
			}
			perCompetitor[p.CompetitorID] = true
		}
	}

	for _, c := range competitors {
		st, _ := res.standing(c.ID)
		if st.Remaining < 0 || st.Remaining > len(c.Hand) {
			t.Fatalf("%v has %v remaining from a hand of %v", c.Name, st.Remaining, len(c.Hand))
		}
	}
}

func TestMatch_EveryExpectedPlayIsCollected(t *testing.T) {
	competitors := []*Competitor{testCompetitor(1, 3, 4, 5), testCompetitor(2, 5, 4, 3), testCompetitor(3, 4, 4, 4), testCompetitor(4, 2, 9, 2)}

	res, err := RunMatch(context.Background(), testMatchConfig(5), competitors)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	for _, round := range res.Rounds {
		if len(round.Plays) != len(competitors) || len(round.Forfeits) != 0 {
			t.Fatalf("round %v collected %v plays and %v forfeits", round.Round, len(round.Plays), len(round.Forfeits))
		}
	}

	for _, c := range competitors {
		if res.Remaining(c.ID) != 0 {
			t.Fatalf("%v kept %v items", c.Name, res.Remaining(c.ID))
		}
	}
}

func TestMatch_SameSeedSameResult(t *testing.T) {
	build := func() []*Competitor {
		return []*Competitor{testCompetitor(1, 6, 6, 6), testCompetitor(2, 6, 6, 6), testCompetitor(3, 6, 6, 6)}
	}

	first, err := RunMatch(context.Background(), testMatchConfig(77), build())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	for i := 0; i < 5; i++ {
		again, err := RunMatch(context.Background(), testMatchConfig(77), build())
		if err != nil {
			t.Fatalf("run %v: %v", i, err)
		}

		for j := range first.Ranking {
			if first.Ranking[j] != again.Ranking[j] {
				t.Fatalf("ranking %v differs from %v", again.Ranking, first.Ranking)
			}
		}

		for j := range first.Rounds {
			if first.Rounds[j].WinnerID != again.Rounds[j].WinnerID {
				t.Fatalf("round %v won by %v, first run by %v", j+1, again.Rounds[j].WinnerID, first.Rounds[j].WinnerID)
			}
		}
	}
}

func TestMatch_ForfeitPolicies(t *testing.T) {
	tests := map[string]struct {
		Policy          ForfeitPolicy
		Forfeits        int
		Eliminated      bool
		EliminatedRound int
		Remaining       int
	}{
		"forfeit the round": {
			Policy:          ForfeitRound,
			Forfeits:        3,
			Eliminated:      true,
			EliminatedRound: 3,
			Remaining:       0,
		},
		"forfeit eliminates": {
			Policy:          ForfeitEliminates,
			Forfeits:        1,
			Eliminated:      true,
			EliminatedRound: 1,
			Remaining:       2,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			competitors := []*Competitor{testCompetitor(1, 9, 9, 9), testCompetitor(2, 2, 2, 2), testCompetitor(3, 3, 3, 3)}
			cfg := testMatchConfig(1)
			cfg.RoundTimeout = 50 * time.Millisecond
			cfg.ForfeitPolicy = test.Policy
			cfg.Think = blockFor(1)

			m, err := NewMatch(cfg, competitors)
			if err != nil {
				t.Fatalf("new match: %v", err)
			}

			res, err := m.Run(context.Background())
			if err != nil {
				t.Fatalf("run: %v", err)
			}

			st, _ := res.standing(1)
			if st.Forfeits != test.Forfeits || st.Eliminated != test.Eliminated || st.EliminatedRound != test.EliminatedRound {
				t.Fatalf("slow standing = %+v", st)
			}

			if st.Remaining != test.Remaining {
				t.Fatalf("slow remaining = %v, want %v", st.Remaining, test.Remaining)
			}

			if st.RoundsWon != 0 {
				t.Fatalf("slow competitor won %v rounds without playing", st.RoundsWon)
			}

			if w, _ := res.Winner(); w.CompetitorID != 3 {
				t.Fatalf("winner = %v, want 3", w.CompetitorID)
			}

			if s := m.WorkerStates()[1]; s != WorkerDone {
				t.Fatalf("slow worker ended %v, want done", s)
			}

			checkMatchInvariants(t, res, competitors, cfg.Rounds)
		})
	}
}

func TestMatch_CancelStopsEveryWorker(t *testing.T) {
	competitors := []*Competitor{testCompetitor(1, 5, 5), testCompetitor(2, 6, 6), testCompetitor(3, 7, 7)}
	cfg := testMatchConfig(1)
	cfg.RoundTimeout = time.Minute
	cfg.Think = blockFor(1, 2, 3)

	m, err := NewMatch(cfg, competitors)
	if err != nil {
		t.Fatalf("new match: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	var (
		res *MatchResult
		wg  sync.WaitGroup
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		res, err = m.Run(ctx)
	}()

	for m.State() != MatchCollecting {
		time.Sleep(time.Millisecond)
	}

	start := time.Now()
	cancel()
	wg.Wait()

	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("run took %v to return after cancel", elapsed)
	}

	if res != nil {
		t.Fatalf("expected no result, got %+v", res)
	}

	var merr *MatchError
	if !errors.As(err, &merr) || !errors.Is(err, ErrMatchAborted) {
		t.Fatalf("err = %v, want aborted MatchError", err)
	}

	if m.State() != MatchAborted {
		t.Fatalf("state = %v, want aborted", m.State())
	}

	states := m.WorkerStates()
	if len(states) != len(competitors) {
		t.Fatalf("worker states = %v", states)
	}

	for id, s := range states {
		if s != WorkerCancelled {
			t.Fatalf("worker %v ended %v, want cancelled", id, s)
		}
	}
}

func TestMatch_Setup(t *testing.T) {
	t.Run("competitor without a hand is excluded", func(t *testing.T) {
		competitors := []*Competitor{testCompetitor(1, 5), testCompetitor(2), testCompetitor(3, 4)}

		res, err := RunMatch(context.Background(), testMatchConfig(1), competitors)
		if err != nil {
			t.Fatalf("run: %v", err)
		}

		if len(res.Excluded) != 1 || res.Excluded[0].CompetitorID != 2 || !errors.Is(res.Excluded[0], ErrNoHand) {
			t.Fatalf("excluded = %v", res.Excluded)
		}

		if last := res.Standings[len(res.Standings)-1]; last.CompetitorID != 2 || !last.Excluded {
			t.Fatalf("excluded competitor ranked %+v", res.Ranking)
		}
	})

	t.Run("one playable competitor is not enough", func(t *testing.T) {
		competitors := []*Competitor{testCompetitor(1, 5), testCompetitor(2)}

		_, err := RunMatch(context.Background(), testMatchConfig(1), competitors)
		if !errors.Is(err, ErrInsufficientCompetitors) {
			t.Fatalf("err = %v, want ErrInsufficientCompetitors", err)
		}
	})

	t.Run("invalid config", func(t *testing.T) {
		cfg := testMatchConfig(1)
		cfg.Rounds = -1
		if _, err := NewMatch(cfg, []*Competitor{testCompetitor(1, 1), testCompetitor(2, 1)}); !errors.Is(err, ErrInvalidConfig) {
			t.Fatalf("negative rounds err = %v", err)
		}

		if _, err := NewMatch(testMatchConfig(1), []*Competitor{testCompetitor(1, 1), testCompetitor(1, 2)}); !errors.Is(err, ErrInvalidConfig) {
			t.Fatalf("duplicate id err = %v", err)
		}
	})

	t.Run("a match runs once", func(t *testing.T) {
		m, err := NewMatch(testMatchConfig(1), []*Competitor{testCompetitor(1, 1), testCompetitor(2, 2)})
		if err != nil {
			t.Fatalf("new match: %v", err)
		}

		if _, err := m.Run(context.Background()); err != nil {
			t.Fatalf("first run: %v", err)
		}

		if _, err := m.Run(context.Background()); !errors.Is(err, ErrMatchRunning) {
			t.Fatalf("second run err = %v, want ErrMatchRunning", err)
		}
	})
}

func TestParseForfeitPolicy(t *testing.T) {
	tests := map[string]struct {
		Policy ForfeitPolicy
		Err    bool
	}{
		"":              {Policy: ForfeitRound},
		"forfeit-round": {Policy: ForfeitRound},
		"Eliminate":     {Policy: ForfeitEliminates},
		"sudden-death":  {Err: true},
	}

	for in, test := range tests {
		got, err := ParseForfeitPolicy(in)
		if (err != nil) != test.Err || got != test.Policy {
			t.Fatalf("ParseForfeitPolicy(%q) = %v, %v", in, got, err)
		}
	}
}
