package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/deadloct/card-tournament-bot/game"
	log "github.com/sirupsen/logrus"
)

// Items persists item definitions.
type Items struct {
	store *Store
}

func (r *Items) FetchAll(ctx context.Context) ([]game.Item, error) {
	if err := r.store.ready(ctx); err != nil {
		return nil, err
	}

	return queryItems(ctx, r.store.sqlDB, `SELECT id, name, category, power FROM items ORDER BY id`)
}

func (r *Items) FetchByID(ctx context.Context, id int64) (game.Item, error) {
	if err := r.store.ready(ctx); err != nil {
		return game.Item{}, err
	}

	var item game.Item
	var category int
	err := r.store.sqlDB.QueryRowContext(ctx,
		`SELECT id, name, category, power FROM items WHERE id = ?`, id,
	).Scan(&item.ID, &item.Name, &category, &item.Power)
	if errors.Is(err, sql.ErrNoRows) {
		return game.Item{}, fmt.Errorf("item %v: %w", id, game.ErrNotFound)
	}

	if err != nil {
		return game.Item{}, fmt.Errorf("get item %v: %w", id, err)
	}

	item.Category = game.Category(category)
	return item, nil
}

// Create validates item and inserts it, returning the new id.
func (r *Items) Create(ctx context.Context, item game.Item) (int64, error) {
	if err := r.store.ready(ctx); err != nil {
		return 0, err
	}

	if err := item.Validate(); err != nil {
		return 0, err
	}

	res, err := r.store.sqlDB.ExecContext(ctx,
		`INSERT INTO items (name, category, power) VALUES (?, ?, ?)`,
		item.Name, int(item.Category), item.Power,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("item %q: %w", item.Name, game.ErrAlreadyExists)
		}

		return 0, fmt.Errorf("create item %q: %w", item.Name, err)
	}

	return res.LastInsertId()
}

// SeedItems inserts any of items not already present by name and reports how many were
// added.
func (s *Store) SeedItems(ctx context.Context, items []game.Item) (int, error) {
	if err := s.ready(ctx); err != nil {
		return 0, err
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin seed: %w", err)
	}
	defer tx.Rollback()

	added := 0
	for _, item := range items {
		if err := item.Validate(); err != nil {
			return 0, fmt.Errorf("seed: %w", err)
		}

		res, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO items (name, category, power) VALUES (?, ?, ?)`,
			item.Name, int(item.Category), item.Power,
		)
		if err != nil {
			return 0, fmt.Errorf("seed item %q: %w", item.Name, err)
		}

		if n, _ := res.RowsAffected(); n > 0 {
			added++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit seed: %w", err)
	}

	log.Debugf("seeded %v of %v items", added, len(items))
	return added, nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func queryItems(ctx context.Context, q queryer, query string, args ...any) ([]game.Item, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var out []game.Item
	for rows.Next() {
		var item game.Item
		var category int
		if err := rows.Scan(&item.ID, &item.Name, &category, &item.Power); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}

		item.Category = game.Category(category)
		out = append(out, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}

	return out, nil
}
