package sqlite

import (
	"context"
	"fmt"

	"github.com/deadloct/card-tournament-bot/game"
)

// Hands assigns items to competitors. A hand keeps the order items were assigned in.
type Hands struct {
	store *Store
}

func (r *Hands) GetHand(ctx context.Context, competitorID int64) ([]game.Item, error) {
	if err := r.store.ready(ctx); err != nil {
		return nil, err
	}

	items, err := queryItems(ctx, r.store.sqlDB, `
SELECT i.id, i.name, i.category, i.power
  FROM hands h
  JOIN items i ON i.id = h.item_id
 WHERE h.competitor_id = ?
 ORDER BY h.id`, competitorID)
	if err != nil {
		return nil, fmt.Errorf("hand for %v: %w", competitorID, err)
	}

	return items, nil
}

// AssignItem appends itemID to the competitor's hand. Assigning an item already in the
// hand returns game.ErrAlreadyExists; an unknown competitor or item returns game.ErrNotFound.
func (r *Hands) AssignItem(ctx context.Context, competitorID, itemID int64) error {
	if err := r.store.ready(ctx); err != nil {
		return err
	}

	_, err := r.store.sqlDB.ExecContext(ctx,
		`INSERT INTO hands (competitor_id, item_id) VALUES (?, ?)`, competitorID, itemID)
	switch {
	case err == nil:
		return nil
	case isUniqueViolation(err):
		return fmt.Errorf("item %v in hand of %v: %w", itemID, competitorID, game.ErrAlreadyExists)
	case isForeignKeyViolation(err):
		return fmt.Errorf("assign item %v to %v: %w", itemID, competitorID, game.ErrNotFound)
	}

	return fmt.Errorf("assign item %v to %v: %w", itemID, competitorID, err)
}

func (r *Hands) ClearHand(ctx context.Context, competitorID int64) error {
	if err := r.store.ready(ctx); err != nil {
		return err
	}

	if _, err := r.store.sqlDB.ExecContext(ctx, `DELETE FROM hands WHERE competitor_id = ?`, competitorID); err != nil {
		return fmt.Errorf("clear hand of %v: %w", competitorID, err)
	}

	return nil
}

// DrawRandomItems samples count distinct items from the whole deck. It returns fewer when
// the deck is smaller than count.
func (r *Hands) DrawRandomItems(ctx context.Context, count int) ([]game.Item, error) {
	if err := r.store.ready(ctx); err != nil {
		return nil, err
	}

	if count <= 0 {
		return nil, nil
	}

	deck, err := r.store.Items().FetchAll(ctx)
	if err != nil {
		return nil, err
	}

	r.store.rngMu.Lock()
	order := r.store.rng.Perm(len(deck))
	r.store.rngMu.Unlock()

	if count > len(order) {
		count = len(order)
	}

	out := make([]game.Item, count)
	for i := range out {
		out[i] = deck[order[i]]
	}

	return out, nil
}
