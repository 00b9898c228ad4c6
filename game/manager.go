package game

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/deadloct/card-tournament-bot/lib"
	"github.com/deadloct/card-tournament-bot/settings"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const LocalChannel = "local"

type MatchRequest struct {
	Channel       string
	Players       []string
	Rounds        int
	HandSize      int
	RoundTimeout  time.Duration
	ThinkTime     time.Duration
	ForfeitPolicy ForfeitPolicy
	// Seed makes the whole match repeatable. Zero draws a fresh seed.
	Seed   int64
	Sender Sender
}

type ManagerConfig struct {
	Competitors CompetitorStore
	Items       ItemStore
	Hands       HandStore
	// Recorder is optional.
	Recorder   MatchRecorder
	PhraseData []byte
}

// RunningMatch is a match started in a channel. Result and Err are set once Done is closed.
type RunningMatch struct {
	ID      string
	Channel string

	cancel context.CancelFunc
	done   chan struct{}
	result *MatchResult
	err    error
}

func (rm *RunningMatch) Done() <-chan struct{} {
	return rm.done
}

func (rm *RunningMatch) Result() (*MatchResult, error) {
	<-rm.done
	return rm.result, rm.err
}

// Manager runs at most one match per channel and keeps competitor records up to date.
type Manager struct {
	ManagerConfig

	matches map[string]*RunningMatch // channel ID to match
	sync.Mutex
}

func NewManager(cfg ManagerConfig) *Manager {
	return &Manager{
		ManagerConfig: cfg,
		matches:       make(map[string]*RunningMatch),
	}
}

// StartMatch deals hands and runs a match in the background. It fails with
// ErrMatchRunning when the channel already has one.
func (m *Manager) StartMatch(ctx context.Context, req MatchRequest) (*RunningMatch, error) {
	if req.Sender == nil {
		req.Sender = LogSender{}
	}

	ctx, cancel := context.WithCancel(ctx)
	rm := &RunningMatch{
		ID:      uuid.NewString(),
		Channel: req.Channel,
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	m.Lock()
	if _, exists := m.matches[req.Channel]; exists {
		m.Unlock()
		cancel()
		log.Errorf("match already running in channel %v", req.Channel)
		req.Sender.SendNormal("There is already a match running in this channel, wait for it to finish or cancel it first.")
		return nil, fmt.Errorf("channel %v: %w", req.Channel, ErrMatchRunning)
	}
	m.matches[req.Channel] = rm
	m.Unlock()

	log.Infof("starting match %v in channel %v", rm.ID, req.Channel)

	go func() {
		defer close(rm.done)
		defer m.release(req.Channel, rm)
		defer cancel()

		rm.result, rm.err = m.run(ctx, rm.ID, req)
	}()

	return rm, nil
}

// RunLocal plays one match in the calling goroutine.
func (m *Manager) RunLocal(ctx context.Context, req MatchRequest) (*MatchResult, error) {
	if req.Channel == "" {
		req.Channel = LocalChannel
	}

	rm, err := m.StartMatch(ctx, req)
	if err != nil {
		return nil, err
	}

	return rm.Result()
}

// EndMatch cancels the match in channel and reports whether there was one.
func (m *Manager) EndMatch(channel string) bool {
	m.Lock()
	defer m.Unlock()

	rm, exists := m.matches[channel]
	if !exists {
		return false
	}

	log.Infof("ending match %v in channel %v", rm.ID, channel)
	rm.cancel()
	delete(m.matches, channel)
	return true
}

func (m *Manager) Running(channel string) bool {
	m.Lock()
	defer m.Unlock()

	_, exists := m.matches[channel]
	return exists
}

// Stats lists every competitor, best record first.
func (m *Manager) Stats(ctx context.Context) ([]Competitor, error) {
	all, err := m.Competitors.FetchAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch competitors: %w", err)
	}

	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Wins != all[j].Wins {
			return all[i].Wins > all[j].Wins
		}

		if all[i].Losses != all[j].Losses {
			return all[i].Losses < all[j].Losses
		}

		return all[i].Name < all[j].Name
	})

	return all, nil
}

// ResetHands deals fresh hands to the named competitors, or to every competitor when
// names is empty.
func (m *Manager) ResetHands(ctx context.Context, names []string, handSize int) error {
	var targets []Competitor
	if len(uniqueNames(names)) == 0 {
		all, err := m.Competitors.FetchAll(ctx)
		if err != nil {
			return fmt.Errorf("fetch competitors: %w", err)
		}

		targets = all
	} else {
		for _, name := range uniqueNames(names) {
			c, err := m.Competitors.FetchByName(ctx, name)
			if err != nil {
				return err
			}

			targets = append(targets, c)
		}
	}

	for i := range targets {
		if _, err := m.deal(ctx, targets[i].ID, handSize); err != nil {
			return err
		}
	}

	log.Infof("dealt new hands of %v to %v competitors", handSize, len(targets))
	return nil
}

func (m *Manager) ClearStats(ctx context.Context) error {
	if err := m.Competitors.ResetStats(ctx); err != nil {
		return fmt.Errorf("clear stats: %w", err)
	}

	log.Info("cleared competitor stats")
	return nil
}

func (m *Manager) release(channel string, rm *RunningMatch) {
	m.Lock()
	defer m.Unlock()

	if m.matches[channel] == rm {
		delete(m.matches, channel)
	}
}

func (m *Manager) run(ctx context.Context, id string, req MatchRequest) (*MatchResult, error) {
	rng, seed, err := lib.NewRand(req.Seed)
	if err != nil {
		return nil, err
	}

	log.Infof("match %v uses seed %v", id, seed)

	competitors, err := m.prepare(ctx, req)
	if err != nil {
		log.Errorf("error preparing match %v: %v", id, err)
		if errors.Is(err, ErrInsufficientCompetitors) {
			req.Sender.SendNormal("A match needs at least two different players.")
		} else {
			req.Sender.SendNormal("There was an unexpected error dealing the cards.")
		}
		return nil, err
	}

	names := make([]string, len(competitors))
	for i, c := range competitors {
		names[i] = c.DisplayName()
	}

	req.Sender.SendNormal(fmt.Sprintf("Starting a card tournament match between %v.", strings.Join(names, ", ")))

	result, err := RunMatch(ctx, MatchConfig{
		ID:            id,
		Rounds:        req.Rounds,
		RoundTimeout:  req.RoundTimeout,
		ForfeitPolicy: req.ForfeitPolicy,
		Rand:          rng,
		Think:         ThinkDelay(req.ThinkTime),
	}, competitors)
	if err != nil {
		if errors.Is(err, ErrMatchAborted) {
			req.Sender.SendNormal("The match was called off before a winner could be decided.")
		} else {
			req.Sender.SendNormal(fmt.Sprintf("The match could not be played: %v", err))
		}

		return nil, err
	}

	phrases, err := lib.NewPhrases(m.PhraseData, rand.New(rand.NewSource(seed)))
	if err != nil {
		log.Warnf("unable to load phrases: %v", err)
	}

	req.Sender.SendEmbed(RoundReport(result, phrases))
	req.Sender.SendNormal(StandingsReport(result))

	// The match is over; recording must not depend on the channel context.
	m.record(context.WithoutCancel(ctx), id, result)
	return result, nil
}

// prepare resolves every player, deals a fresh hand and loads it back from the store.
func (m *Manager) prepare(ctx context.Context, req MatchRequest) ([]*Competitor, error) {
	names := uniqueNames(req.Players)
	if len(names) < 2 {
		return nil, &MatchError{
			Kind: ErrInsufficientCompetitors,
			Msg:  fmt.Sprintf("need at least 2 distinct players, got %v", len(names)),
		}
	}

	if m.Items != nil {
		deck, err := m.Items.FetchAll(ctx)
		if err != nil {
			return nil, fmt.Errorf("fetch deck: %w", err)
		}

		if len(deck) < req.HandSize {
			log.Warnf("deck has %v items, hands of %v will be short", len(deck), req.HandSize)
		}
	}

	competitors := make([]*Competitor, 0, len(names))
	for _, name := range names {
		c, err := m.resolve(ctx, name)
		if err != nil {
			return nil, err
		}

		hand, err := m.deal(ctx, c.ID, req.HandSize)
		if err != nil {
			return nil, err
		}

		c.Hand = hand
		competitors = append(competitors, &c)
	}

	return competitors, nil
}

func (m *Manager) resolve(ctx context.Context, name string) (Competitor, error) {
	c, err := m.Competitors.FetchByName(ctx, name)
	if err == nil {
		return c, nil
	}

	if !errors.Is(err, ErrNotFound) {
		return Competitor{}, fmt.Errorf("fetch competitor %q: %w", name, err)
	}

	c, err = m.Competitors.Create(ctx, name)
	if errors.Is(err, ErrAlreadyExists) {
		// Created by a match in another channel since the lookup.
		return m.Competitors.FetchByName(ctx, name)
	}

	if err != nil {
		return Competitor{}, fmt.Errorf("create competitor %q: %w", name, err)
	}

	log.Infof("created competitor %v", c.DisplayName())
	return c, nil
}

// deal replaces a competitor's hand with handSize random items and returns the stored hand.
func (m *Manager) deal(ctx context.Context, competitorID int64, handSize int) ([]Item, error) {
	if err := m.Hands.ClearHand(ctx, competitorID); err != nil {
		return nil, fmt.Errorf("clear hand: %w", err)
	}

	items, err := m.Hands.DrawRandomItems(ctx, handSize)
	if err != nil {
		return nil, fmt.Errorf("draw items: %w", err)
	}

	for _, item := range items {
		if err := m.Hands.AssignItem(ctx, competitorID, item.ID); err != nil {
			return nil, fmt.Errorf("assign %v: %w", item, err)
		}
	}

	return m.Hands.GetHand(ctx, competitorID)
}

// record marks first place as a win and every other competitor that played as a loss.
func (m *Manager) record(ctx context.Context, id string, result *MatchResult) {
	for place, st := range result.Standings {
		if st.Excluded {
			continue
		}

		if err := m.Competitors.RecordOutcome(ctx, st.CompetitorID, place == 0); err != nil {
			log.Errorf("error recording outcome for %v: %v", st.Name, err)
		}
	}

	if m.Recorder == nil {
		return
	}

	if err := m.Recorder.SaveMatch(ctx, id, result); err != nil {
		log.Errorf("error saving match %v: %v", id, err)
	}
}

// ThinkDelay makes every competitor wait d before submitting. Zero disables it.
func ThinkDelay(d time.Duration) ThinkFunc {
	if d <= 0 {
		return nil
	}

	return func(ctx context.Context, c *Competitor, round int) error {
		t := time.NewTimer(d)
		defer t.Stop()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			return nil
		}
	}
}

// RoundReport describes every round, one paragraph per round. phrases may be nil.
func RoundReport(result *MatchResult, phrases *lib.Phrases) string {
	names := make(map[int64]string, len(result.Standings))
	for _, st := range result.Standings {
		names[st.CompetitorID] = st.Name
	}

	var b strings.Builder
	for i, round := range result.Rounds {
		if i > 0 {
			b.WriteString("\n\n")
		}

		fmt.Fprintf(&b, "**Round %v**\n", round.Round)
		for _, p := range round.Plays {
			emoji := settings.GetEmoji(settings.EmojiKey(p.Item.Category.String())).EmojiCode()
			fmt.Fprintf(&b, "%v %v plays %v (%v)\n", emoji, names[p.CompetitorID], p.Item.Name, p.Item.Power)
		}

		for _, id := range round.Forfeits {
			fmt.Fprintf(&b, "%v ran out of time\n", names[id])
		}

		b.WriteString(roundSummary(round, names, phrases))
	}

	return b.String()
}

func roundSummary(round RoundResult, names map[int64]string, phrases *lib.Phrases) string {
	if !round.HasWinner {
		return fmt.Sprintf("Nobody played in round %v.", round.Round)
	}

	var winning Play
	for _, p := range round.Plays {
		if p.CompetitorID == round.WinnerID {
			winning = p
		}
	}

	loser := "the field"
	if len(round.Losers) > 0 {
		loser = names[round.Losers[0]]
	}

	summary := fmt.Sprintf("%v takes round %v with %v.", names[round.WinnerID], round.Round, winning.Item.Name)
	if phrases != nil {
		summary = phrases.Phrase(lib.PhraseValues{
			Round:  round.Round,
			Winner: names[round.WinnerID],
			Loser:  loser,
			Item:   winning.Item.Name,
			Power:  winning.Item.Power,
		})
	}

	if round.TieBreak != TieBreakNone {
		summary = fmt.Sprintf("%v (tie broken by %v)", summary, round.TieBreak)
	}

	return summary
}

func StandingsReport(result *MatchResult) string {
	trophy := settings.GetEmoji(settings.EmojiTrophy).EmojiCode()

	var b strings.Builder
	fmt.Fprintf(&b, "%v Final standings after %v rounds", trophy, result.RoundsPlayed)
	for i, st := range result.Standings {
		if st.Excluded {
			fmt.Fprintf(&b, "\n-. %v did not play (no hand)", st.Name)
			continue
		}

		fmt.Fprintf(&b, "\n%v. %v: %v won, %v lost, %v cards left", i+1, st.Name, st.RoundsWon, st.RoundsLost, st.Remaining)
		if st.Forfeits > 0 {
			fmt.Fprintf(&b, ", %v forfeited", st.Forfeits)
		}
	}

	return b.String()
}

// StatsReport formats lifetime records as produced by Stats.
func StatsReport(competitors []Competitor) string {
	if len(competitors) == 0 {
		return "No matches have been played yet."
	}

	lines := make([]string, len(competitors))
	for i := range competitors {
		lines[i] = fmt.Sprintf("%v. %v", i+1, competitors[i].DisplayFullName())
	}

	return strings.Join(lines, "\n")
}

func uniqueNames(names []string) []string {
	seen := make(map[string]bool, len(names))
	var out []string
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			continue
		}

		seen[name] = true
		out = append(out, name)
	}

	return out
}
