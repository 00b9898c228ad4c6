package game

import (
	"context"
	"testing"
	"time"
)

func TestPlayerWorker_BurnsMissedRounds(t *testing.T) {
	barrier := NewRoundBarrier()
	plays := NewPlayChannel(1)
	w := NewPlayerWorker(testCompetitor(1, 3, 4, 5, 6), 0, barrier, plays, nil)

	// Rounds 1 and 2 open before the worker ever looks.
	barrier.Open(1, time.Now())
	barrier.Open(2, time.Now())
	barrier.Open(3, time.Now().Add(time.Second))

	done := make(chan struct{})
	go func() {
		w.Run(context.Background())
		close(done)
	}()

	col, err := plays.Collect(context.Background(), 3, map[int64]bool{1: true}, time.Now().Add(time.Second))
	if err != nil {
		t.Fatalf("collect: %v", err)
	}

	if len(col.Plays) != 1 || col.Plays[0].Item.Power != 5 {
		t.Fatalf("round 3 plays = %+v, want the third item", col.Plays)
	}

	barrier.Close()
	<-done

	if w.State() != WorkerDone {
		t.Fatalf("state = %v, want done", w.State())
	}

	if w.Remaining() != 1 || len(w.Played()) != 3 {
		t.Fatalf("remaining %v, played %v", w.Remaining(), w.Played())
	}
}

func TestPlayerWorker_StopStates(t *testing.T) {
	tests := map[string]struct {
		Cause error
		State WorkerState
	}{
		"eliminated": {Cause: errEliminated, State: WorkerDone},
		"cancelled":  {Cause: context.Canceled, State: WorkerCancelled},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			w := NewPlayerWorker(testCompetitor(1, 3), 0, NewRoundBarrier(), NewPlayChannel(1), nil)

			ctx, stop := context.WithCancelCause(context.Background())
			done := make(chan struct{})
			go func() {
				w.Run(ctx)
				close(done)
			}()

			stop(test.Cause)
			<-done

			if w.State() != test.State {
				t.Fatalf("state = %v, want %v", w.State(), test.State)
			}
		})
	}
}
