package game

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

type MatchState int

const (
	MatchInit MatchState = iota
	MatchRoundOpen
	MatchCollecting
	MatchResolving
	MatchComplete
	MatchAborted
)

func (s MatchState) String() string {
	switch s {
	case MatchInit:
		return "init"
	case MatchRoundOpen:
		return "round-open"
	case MatchCollecting:
		return "collecting"
	case MatchResolving:
		return "resolving"
	case MatchComplete:
		return "complete"
	case MatchAborted:
		return "aborted"
	}

	return "unknown"
}

// ForfeitPolicy decides what happens to a competitor that misses a round deadline.
type ForfeitPolicy int

const (
	// ForfeitRound loses that round only; the competitor keeps playing while it has items.
	ForfeitRound ForfeitPolicy = iota
	// ForfeitEliminates removes the competitor from every later round.
	ForfeitEliminates
)

func (p ForfeitPolicy) String() string {
	if p == ForfeitEliminates {
		return "eliminate"
	}

	return "forfeit-round"
}

func ParseForfeitPolicy(s string) (ForfeitPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "forfeit-round", "round":
		return ForfeitRound, nil
	case "eliminate", "eliminates", "elimination":
		return ForfeitEliminates, nil
	}

	return ForfeitRound, fmt.Errorf("unknown forfeit policy %q", s)
}

const (
	DefaultRounds       = 3
	DefaultRoundTimeout = 10 * time.Second
)

var tracer = otel.Tracer("github.com/deadloct/card-tournament-bot/game")

type MatchConfig struct {
	ID            string
	Rounds        int
	RoundTimeout  time.Duration
	ForfeitPolicy ForfeitPolicy
	// Rand breaks ties. Only the coordinator goroutine touches it.
	Rand  *rand.Rand
	Think ThinkFunc
}

// Match coordinates one match: a worker per competitor, strictly sequential rounds, and a
// final ranking. A Match runs once.
type Match struct {
	MatchConfig

	competitors []*Competitor
	barrier     *RoundBarrier
	plays       *PlayChannel
	workers     []*PlayerWorker
	stops       map[int64]context.CancelCauseFunc
	standings   []Standing
	seats       map[int64]int
	active      map[int64]bool
	rounds      []RoundResult
	excluded    []*SetupError
	round       int
	state       MatchState
	started     bool

	sync.Mutex
}

func NewMatch(cfg MatchConfig, competitors []*Competitor) (*Match, error) {
	if cfg.Rounds == 0 {
		cfg.Rounds = DefaultRounds
	}

	if cfg.Rounds < 0 {
		return nil, &MatchError{Kind: ErrInvalidConfig, Msg: fmt.Sprintf("rounds must be positive, got %v", cfg.Rounds)}
	}

	if cfg.RoundTimeout == 0 {
		cfg.RoundTimeout = DefaultRoundTimeout
	}

	if cfg.RoundTimeout < 0 {
		return nil, &MatchError{Kind: ErrInvalidConfig, Msg: fmt.Sprintf("round timeout must be positive, got %v", cfg.RoundTimeout)}
	}

	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	seats := make(map[int64]int, len(competitors))
	for i, c := range competitors {
		if c == nil {
			return nil, &MatchError{Kind: ErrInvalidConfig, Msg: fmt.Sprintf("competitor %v is nil", i)}
		}

		if _, dup := seats[c.ID]; dup {
			return nil, &MatchError{Kind: ErrInvalidConfig, Msg: fmt.Sprintf("competitor id %v appears twice", c.ID)}
		}

		seats[c.ID] = i
	}

	return &Match{
		MatchConfig: cfg,
		competitors: competitors,
		barrier:     NewRoundBarrier(),
		plays:       NewPlayChannel(len(competitors)),
		stops:       make(map[int64]context.CancelCauseFunc, len(competitors)),
		seats:       seats,
		active:      make(map[int64]bool, len(competitors)),
	}, nil
}

// RunMatch builds a match and runs it to completion.
func RunMatch(ctx context.Context, cfg MatchConfig, competitors []*Competitor) (*MatchResult, error) {
	m, err := NewMatch(cfg, competitors)
	if err != nil {
		return nil, err
	}

	return m.Run(ctx)
}

func (m *Match) State() MatchState {
	m.Lock()
	defer m.Unlock()

	return m.state
}

// WorkerStates reports each spawned worker's state keyed by competitor id. Competitors
// excluded at setup have no worker.
func (m *Match) WorkerStates() map[int64]WorkerState {
	m.Lock()
	defer m.Unlock()

	out := make(map[int64]WorkerState, len(m.workers))
	for _, w := range m.workers {
		out[w.competitor.ID] = w.State()
	}

	return out
}

// Run plays the match and returns either a complete result or a *MatchError. It does not
// return before every worker has stopped.
func (m *Match) Run(ctx context.Context) (*MatchResult, error) {
	m.Lock()
	if m.started {
		m.Unlock()
		return nil, ErrMatchRunning
	}
	m.started = true
	m.Unlock()

	ctx, span := tracer.Start(ctx, "match", trace.WithAttributes(
		attribute.String("match.id", m.ID),
		attribute.Int("match.rounds", m.Rounds),
		attribute.Int("match.competitors", len(m.competitors)),
	))
	defer span.End()

	if err := m.setup(); err != nil {
		m.setState(MatchAborted)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	workerCtx, cancelWorkers := context.WithCancel(ctx)
	defer cancelWorkers()

	var g errgroup.Group
	m.Lock()
	for _, c := range m.competitors {
		if !m.active[c.ID] {
			continue
		}

		wctx, stop := context.WithCancelCause(workerCtx)
		w := NewPlayerWorker(c, m.seats[c.ID], m.barrier, m.plays, m.Think)
		m.stops[c.ID] = stop
		m.workers = append(m.workers, w)
		g.Go(func() error {
			w.Run(wctx)
			return nil
		})
	}
	m.Unlock()

	err := m.play(ctx)
	if err != nil {
		cancelWorkers()
	} else {
		m.barrier.Close()
	}

	g.Wait()
	if n := m.plays.Drain(); n > 0 {
		m.logMessage(log.DebugLevel, "drained %v undelivered plays", n)
	}
	m.plays.Close()

	if err != nil {
		m.setState(MatchAborted)
		m.logMessage(log.WarnLevel, "match aborted: %v", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	result := m.result()
	m.setState(MatchComplete)
	m.logMessage(log.InfoLevel, "match complete after %v rounds, ranking %v", result.RoundsPlayed, result.Ranking)
	return result, nil
}

// setup builds standings and excludes competitors that arrive without a hand.
func (m *Match) setup() error {
	m.Lock()
	defer m.Unlock()

	m.standings = make([]Standing, len(m.competitors))
	for i, c := range m.competitors {
		m.standings[i] = Standing{
			CompetitorID: c.ID,
			Name:         c.DisplayName(),
			Seat:         i,
			Remaining:    len(c.Hand),
		}

		if len(c.Hand) == 0 {
			serr := &SetupError{CompetitorID: c.ID, Name: c.DisplayName()}
			m.excluded = append(m.excluded, serr)
			m.standings[i].Excluded = true
			m.standings[i].Eliminated = true
			m.logMessage(log.WarnLevel, "excluding competitor: %v", serr)
			continue
		}

		m.active[c.ID] = true
	}

	if len(m.active) < 2 {
		return &MatchError{
			Kind: ErrInsufficientCompetitors,
			Msg:  fmt.Sprintf("%v of %v competitors have a hand", len(m.active), len(m.competitors)),
		}
	}

	return nil
}

func (m *Match) play(ctx context.Context) error {
	for m.round < m.Rounds && m.activeCount() >= 2 {
		if err := ctx.Err(); err != nil {
			return &MatchError{Kind: ErrMatchAborted, Round: m.round, Msg: err.Error()}
		}

		if err := m.playRound(ctx); err != nil {
			return err
		}
	}

	if m.round < m.Rounds {
		m.logMessage(log.InfoLevel, "ending early after round %v: %v competitor(s) left", m.round, m.activeCount())
	}

	return nil
}

func (m *Match) playRound(ctx context.Context) error {
	m.Lock()
	m.round++
	round := m.round
	expected := make(map[int64]bool, len(m.active))
	for id := range m.active {
		expected[id] = true
	}
	m.state = MatchRoundOpen
	m.Unlock()

	ctx, span := tracer.Start(ctx, "round", trace.WithAttributes(
		attribute.Int("round.number", round),
		attribute.Int("round.expected", len(expected)),
	))
	defer span.End()

	deadline := time.Now().Add(m.RoundTimeout)
	m.logMessage(log.InfoLevel, "opening round %v of %v with %v competitors", round, m.Rounds, len(expected))
	m.barrier.Open(round, deadline)

	m.setState(MatchCollecting)
	col, err := m.plays.Collect(ctx, round, expected, deadline)
	if err != nil {
		kind := ErrMatchAborted
		if errors.Is(err, ErrChannelClosed) {
			kind = ErrChannelClosed
		}

		span.RecordError(err)
		return &MatchError{Kind: kind, Round: round, Msg: err.Error()}
	}

	if col.TimedOut {
		m.logMessage(log.WarnLevel, "round %v deadline passed with %v of %v plays", round, len(col.Plays), len(expected))
	}

	if col.Stale+col.Duplicates+col.Unexpected > 0 {
		m.logMessage(log.DebugLevel, "round %v dropped %v stale, %v duplicate and %v unexpected plays",
			round, col.Stale, col.Duplicates, col.Unexpected)
	}

	m.setState(MatchResolving)
	res := ResolveRound(round, col.Plays, m.forfeits(expected, col.Plays), m.roundsWon(), m.Rand)
	m.apply(res, expected)

	span.SetAttributes(
		attribute.Int("round.plays", len(col.Plays)),
		attribute.Bool("round.timed_out", col.TimedOut),
		attribute.String("round.tie_break", res.TieBreak.String()),
	)

	if res.HasWinner {
		m.logMessage(log.InfoLevel, "round %v won by %v (%v)", round, m.standingFor(res.WinnerID).Name, res.TieBreak)
	} else {
		m.logMessage(log.InfoLevel, "round %v has no winner", round)
	}

	return nil
}

// forfeits lists expected competitors without a play, in seat order.
func (m *Match) forfeits(expected map[int64]bool, plays []Play) []int64 {
	got := make(map[int64]bool, len(plays))
	for _, p := range plays {
		got[p.CompetitorID] = true
	}

	var out []int64
	for _, c := range m.competitors {
		if expected[c.ID] && !got[c.ID] {
			out = append(out, c.ID)
		}
	}

	return out
}

func (m *Match) roundsWon() map[int64]int {
	m.Lock()
	defer m.Unlock()

	won := make(map[int64]int, len(m.standings))
	for _, s := range m.standings {
		won[s.CompetitorID] = s.RoundsWon
	}

	return won
}

// apply folds a round into the standings. Every expected competitor spent one item this
// round, whether it played or forfeited.
func (m *Match) apply(res RoundResult, expected map[int64]bool) {
	m.Lock()
	defer m.Unlock()

	for id := range expected {
		m.standings[m.seats[id]].Remaining--
	}

	for _, p := range res.Plays {
		m.standings[p.Seat].PowerPlayed += p.Item.Power
	}

	if res.HasWinner {
		m.standings[m.seats[res.WinnerID]].RoundsWon++
	}

	for _, id := range res.Losers {
		m.standings[m.seats[id]].RoundsLost++
	}

	for _, id := range res.Forfeits {
		m.standings[m.seats[id]].Forfeits++
		if m.ForfeitPolicy == ForfeitEliminates {
			m.eliminate(id, res.Round, "missed the deadline")
		}
	}

	for _, c := range m.competitors {
		if m.active[c.ID] && m.standings[m.seats[c.ID]].Remaining <= 0 {
			m.eliminate(c.ID, res.Round, "hand exhausted")
		}
	}

	m.rounds = append(m.rounds, res)
}

// eliminate must be called with the lock held.
func (m *Match) eliminate(id int64, round int, reason string) {
	if !m.active[id] {
		return
	}

	delete(m.active, id)
	st := &m.standings[m.seats[id]]
	st.Eliminated = true
	st.EliminatedRound = round
	if stop, ok := m.stops[id]; ok {
		stop(errEliminated)
	}

	m.logMessage(log.InfoLevel, "%v eliminated after round %v: %v", st.Name, round, reason)
}

func (m *Match) activeCount() int {
	m.Lock()
	defer m.Unlock()

	return len(m.active)
}

func (m *Match) standingFor(id int64) Standing {
	m.Lock()
	defer m.Unlock()

	return m.standings[m.seats[id]]
}

func (m *Match) setState(s MatchState) {
	m.Lock()
	m.state = s
	m.Unlock()
}

// result reads the workers' hands, which is safe once every worker has returned.
func (m *Match) result() *MatchResult {
	m.Lock()
	defer m.Unlock()

	for _, w := range m.workers {
		st := &m.standings[w.seat]
		if actual := w.Remaining(); actual != st.Remaining {
			m.logMessage(log.WarnLevel, "%v has %v items, standings counted %v", st.Name, actual, st.Remaining)
			st.Remaining = actual
		}
	}

	ranked := Aggregate(m.standings, m.Rand)
	return &MatchResult{
		Ranking:      ranking(ranked),
		Standings:    ranked,
		Rounds:       append([]RoundResult(nil), m.rounds...),
		RoundsPlayed: m.round,
		Excluded:     append([]*SetupError(nil), m.excluded...),
	}
}

func (m *Match) logMessage(level log.Level, msg string, args ...interface{}) {
	entry := log.WithField("match", m.ID)
	switch level {
	case log.TraceLevel:
		entry.Tracef(msg, args...)
	case log.DebugLevel:
		entry.Debugf(msg, args...)
	case log.InfoLevel:
		entry.Infof(msg, args...)
	case log.WarnLevel:
		entry.Warnf(msg, args...)
	case log.ErrorLevel:
		entry.Errorf(msg, args...)
	}
}
