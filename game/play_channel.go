package game

import (
	"context"
	"sync"
	"time"
)

// Collection is what the coordinator gathered for a single round.
type Collection struct {
	Plays      []Play
	TimedOut   bool
	Stale      int
	Duplicates int
	Unexpected int
}

// PlayChannel carries plays from many workers to the single coordinator. The data
// channel is never closed; closing is signalled separately so late senders cannot panic.
type PlayChannel struct {
	plays     chan Play
	done      chan struct{}
	closeOnce sync.Once
}

func NewPlayChannel(capacity int) *PlayChannel {
	if capacity < 1 {
		capacity = 1
	}

	return &PlayChannel{
		plays: make(chan Play, capacity),
		done:  make(chan struct{}),
	}
}

// Submit delivers p or gives up when ctx is done or the channel is closed.
func (c *PlayChannel) Submit(ctx context.Context, p Play) error {
	// A closed channel wins over a free buffer slot.
	select {
	case <-c.done:
		return ErrChannelClosed
	default:
	}

	select {
	case c.plays <- p:
		return nil
	case <-c.done:
		return ErrChannelClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Collect gathers one play per expected competitor for round. It returns as soon as the
// quota is met, or with TimedOut set once deadline passes. Plays for other rounds and
// repeat plays for the same competitor are counted and dropped.
func (c *PlayChannel) Collect(ctx context.Context, round int, expected map[int64]bool, deadline time.Time) (Collection, error) {
	var col Collection
	if len(expected) == 0 {
		return col, nil
	}

	timer := time.NewTimer(time.Until(deadline))
	defer timer.Stop()

	seen := make(map[int64]bool, len(expected))
	for len(seen) < len(expected) {
		select {
		case <-ctx.Done():
			return col, ctx.Err()

		case <-c.done:
			return col, ErrChannelClosed

		case <-timer.C:
			col.TimedOut = true
			return col, nil

		case p := <-c.plays:
			switch {
			case p.Round != round:
				col.Stale++
			case !expected[p.CompetitorID]:
				col.Unexpected++
			case seen[p.CompetitorID]:
				col.Duplicates++
			default:
				seen[p.CompetitorID] = true
				col.Plays = append(col.Plays, p)
			}
		}
	}

	return col, nil
}

// Close marks the channel unusable for both sides.
func (c *PlayChannel) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// Drain discards anything still buffered and reports how much was dropped.
func (c *PlayChannel) Drain() int {
	var n int
	for {
		select {
		case <-c.plays:
			n++
		default:
			return n
		}
	}
}
