package game

import (
	"errors"
	"fmt"
)

var (
	ErrNoHand                  = errors.New("competitor has no hand")
	ErrSubmissionTimeout       = errors.New("play not submitted before the round deadline")
	ErrChannelClosed           = errors.New("play channel closed")
	ErrBarrierClosed           = errors.New("round barrier closed")
	ErrMatchAborted            = errors.New("match aborted")
	ErrInsufficientCompetitors = errors.New("not enough competitors to play")
	ErrInvalidConfig           = errors.New("invalid match config")
	ErrNotFound                = errors.New("not found")
	ErrAlreadyExists           = errors.New("already exists")
	ErrMatchRunning            = errors.New("match already running")
)

// SetupError marks a competitor excluded before round 1.
type SetupError struct {
	CompetitorID int64
	Name         string
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("%v (%v): %v", e.Name, e.CompetitorID, ErrNoHand)
}

func (e *SetupError) Unwrap() error { return ErrNoHand }

// MatchError is returned instead of a MatchResult when the match cannot complete.
type MatchError struct {
	Kind  error
	Round int
	Msg   string
}

func (e *MatchError) Error() string {
	if e == nil {
		return ""
	}

	msg := e.Kind.Error()
	if e.Round > 0 {
		msg = fmt.Sprintf("%v in round %v", msg, e.Round)
	}

	if e.Msg != "" {
		msg = fmt.Sprintf("%v: %v", msg, e.Msg)
	}

	return msg
}

func (e *MatchError) Unwrap() error { return e.Kind }
