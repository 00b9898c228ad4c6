package game

import "context"

// CompetitorStore persists competitors and their lifetime results.
// FetchByName returns ErrNotFound when the name is unknown.
type CompetitorStore interface {
	FetchAll(ctx context.Context) ([]Competitor, error)
	FetchByName(ctx context.Context, name string) (Competitor, error)
	Create(ctx context.Context, name string) (Competitor, error)
	RecordOutcome(ctx context.Context, competitorID int64, won bool) error
	ResetStats(ctx context.Context) error
}

// ItemStore persists item definitions. FetchByID returns ErrNotFound when missing.
type ItemStore interface {
	FetchAll(ctx context.Context) ([]Item, error)
	FetchByID(ctx context.Context, id int64) (Item, error)
	Create(ctx context.Context, item Item) (int64, error)
}

// HandStore assigns items to competitors between matches.
type HandStore interface {
	GetHand(ctx context.Context, competitorID int64) ([]Item, error)
	AssignItem(ctx context.Context, competitorID, itemID int64) error
	ClearHand(ctx context.Context, competitorID int64) error
	DrawRandomItems(ctx context.Context, count int) ([]Item, error)
}

// MatchRecorder stores a summary of finished matches. Optional.
type MatchRecorder interface {
	SaveMatch(ctx context.Context, matchID string, result *MatchResult) error
}
