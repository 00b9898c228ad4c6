package game

import (
	"context"
	"sync"
	"time"
)

// Signal is what a worker observes when a round opens.
type Signal struct {
	Round    int
	Deadline time.Time
}

// RoundBarrier broadcasts round openings to every waiting worker. Each Open wakes all
// current waiters and installs a fresh wake channel for the next round, so a worker that
// asks for "a round after R" can never observe R twice.
type RoundBarrier struct {
	mu     sync.Mutex
	signal Signal
	wake   chan struct{}
	closed bool
}

func NewRoundBarrier() *RoundBarrier {
	return &RoundBarrier{wake: make(chan struct{})}
}

// Open publishes round and wakes every waiter. Rounds must increase.
func (b *RoundBarrier) Open(round int, deadline time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed || round <= b.signal.Round {
		return
	}

	b.signal = Signal{Round: round, Deadline: deadline}
	close(b.wake)
	b.wake = make(chan struct{})
}

// Close wakes every waiter with ErrBarrierClosed. Later waits fail immediately.
func (b *RoundBarrier) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}

	b.closed = true
	close(b.wake)
}

// Wait blocks until a round later than after is open. A done ctx wins over an open round,
// so a worker stopped between rounds never sees the next one.
func (b *RoundBarrier) Wait(ctx context.Context, after int) (Signal, error) {
	for {
		b.mu.Lock()
		if b.closed {
			b.mu.Unlock()
			return Signal{}, ErrBarrierClosed
		}

		if err := ctx.Err(); err != nil {
			b.mu.Unlock()
			return Signal{}, err
		}

		if b.signal.Round > after {
			sig := b.signal
			b.mu.Unlock()
			return sig, nil
		}

		wake := b.wake
		b.mu.Unlock()

		select {
		case <-ctx.Done():
			return Signal{}, ctx.Err()
		case <-wake:
		}
	}
}

// Round returns the most recently opened round.
func (b *RoundBarrier) Round() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.signal.Round
}
