package game

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	log "github.com/sirupsen/logrus"
)

type WorkerState int32

const (
	WorkerWaiting WorkerState = iota
	WorkerSelecting
	WorkerSubmitting
	WorkerDone
	WorkerCancelled
)

func (s WorkerState) String() string {
	switch s {
	case WorkerWaiting:
		return "waiting"
	case WorkerSelecting:
		return "selecting"
	case WorkerSubmitting:
		return "submitting"
	case WorkerDone:
		return "done"
	case WorkerCancelled:
		return "cancelled"
	}

	return "unknown"
}

// ThinkFunc runs between drawing an item and submitting it. It must return once ctx is
// done; a non-nil error forfeits the round.
type ThinkFunc func(ctx context.Context, c *Competitor, round int) error

var errEliminated = errors.New("competitor eliminated")

// PlayerWorker plays one competitor's hand, one item per opened round.
type PlayerWorker struct {
	competitor *Competitor
	seat       int
	hand       *Hand
	barrier    *RoundBarrier
	plays      *PlayChannel
	think      ThinkFunc

	state     atomic.Int32
	lastRound int

	mu     sync.Mutex
	played []Item
}

func NewPlayerWorker(c *Competitor, seat int, barrier *RoundBarrier, plays *PlayChannel, think ThinkFunc) *PlayerWorker {
	return &PlayerWorker{
		competitor: c,
		seat:       seat,
		hand:       NewHand(c.Hand),
		barrier:    barrier,
		plays:      plays,
		think:      think,
	}
}

func (w *PlayerWorker) State() WorkerState {
	return WorkerState(w.state.Load())
}

// Remaining is only meaningful once Run has returned.
func (w *PlayerWorker) Remaining() int {
	return w.hand.Len()
}

// Played returns every item the worker drew, in order, including forfeited ones.
func (w *PlayerWorker) Played() []Item {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make([]Item, len(w.played))
	copy(out, w.played)
	return out
}

func (w *PlayerWorker) setState(s WorkerState) {
	w.state.Store(int32(s))
}

// Run loops until the hand is empty, the barrier closes, or ctx is done. Cancelling ctx
// with errEliminated as its cause ends the worker as done rather than cancelled.
func (w *PlayerWorker) Run(ctx context.Context) {
	name := w.competitor.DisplayName()
	log.Debugf("%v joined the match with %v items", name, w.hand.Len())

	for {
		if w.hand.Empty() {
			w.finish(ctx, WorkerDone)
			return
		}

		w.setState(WorkerWaiting)
		sig, err := w.barrier.Wait(ctx, w.lastRound)
		if errors.Is(err, ErrBarrierClosed) {
			w.finish(ctx, WorkerDone)
			return
		}

		if err != nil {
			w.finish(ctx, WorkerCancelled)
			return
		}

		// Every signalled round costs one item; rounds slept through are burned so the
		// coordinator's count stays exact.
		for r := w.lastRound + 1; r < sig.Round && !w.hand.Empty(); r++ {
			item, _ := w.hand.Draw()
			w.record(item)
			log.Warnf("%v missed round %v, discarding %v", name, r, item)
		}

		w.lastRound = sig.Round
		if w.hand.Empty() {
			continue
		}

		w.setState(WorkerSelecting)
		item, _ := w.hand.Draw()
		w.record(item)

		w.setState(WorkerSubmitting)
		err = w.submit(ctx, sig, item)
		switch {
		case err == nil:
			log.Tracef("%v played %v in round %v", name, item, sig.Round)
		case ctx.Err() != nil:
			w.finish(ctx, WorkerCancelled)
			return
		case errors.Is(err, ErrChannelClosed):
			log.Warnf("%v could not submit for round %v: %v", name, sig.Round, err)
			w.setState(WorkerCancelled)
			return
		default:
			log.Infof("%v forfeits round %v: %v", name, sig.Round, err)
		}
	}
}

func (w *PlayerWorker) submit(ctx context.Context, sig Signal, item Item) error {
	subCtx, cancel := context.WithDeadline(ctx, sig.Deadline)
	defer cancel()

	if w.think != nil {
		if err := w.think(subCtx, w.competitor, sig.Round); err != nil {
			return wrapDeadline(err)
		}
	}

	err := w.plays.Submit(subCtx, Play{
		CompetitorID: w.competitor.ID,
		Seat:         w.seat,
		Item:         item,
		Round:        sig.Round,
	})

	return wrapDeadline(err)
}

func (w *PlayerWorker) finish(ctx context.Context, s WorkerState) {
	if s == WorkerCancelled && errors.Is(context.Cause(ctx), errEliminated) {
		s = WorkerDone
	}

	w.setState(s)
	log.Debugf("%v left the match (%v, %v items left)", w.competitor.DisplayName(), s, w.hand.Len())
}

func (w *PlayerWorker) record(item Item) {
	w.mu.Lock()
	w.played = append(w.played, item)
	w.mu.Unlock()
}

func wrapDeadline(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrSubmissionTimeout
	}

	return err
}
