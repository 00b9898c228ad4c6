package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/deadloct/card-tournament-bot/game"
)

// Competitors persists competitors and their lifetime records.
type Competitors struct {
	store *Store
}

func (r *Competitors) FetchAll(ctx context.Context) ([]game.Competitor, error) {
	if err := r.store.ready(ctx); err != nil {
		return nil, err
	}

	rows, err := r.store.sqlDB.QueryContext(ctx, `SELECT id, name, wins, losses FROM competitors ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list competitors: %w", err)
	}
	defer rows.Close()

	var out []game.Competitor
	for rows.Next() {
		var c game.Competitor
		if err := rows.Scan(&c.ID, &c.Name, &c.Wins, &c.Losses); err != nil {
			return nil, fmt.Errorf("scan competitor: %w", err)
		}

		out = append(out, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list competitors: %w", err)
	}

	return out, nil
}

func (r *Competitors) FetchByName(ctx context.Context, name string) (game.Competitor, error) {
	if err := r.store.ready(ctx); err != nil {
		return game.Competitor{}, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return game.Competitor{}, fmt.Errorf("competitor name is required")
	}

	var c game.Competitor
	err := r.store.sqlDB.QueryRowContext(ctx,
		`SELECT id, name, wins, losses FROM competitors WHERE name = ?`, name,
	).Scan(&c.ID, &c.Name, &c.Wins, &c.Losses)
	if errors.Is(err, sql.ErrNoRows) {
		return game.Competitor{}, fmt.Errorf("competitor %q: %w", name, game.ErrNotFound)
	}

	if err != nil {
		return game.Competitor{}, fmt.Errorf("get competitor %q: %w", name, err)
	}

	return c, nil
}

// Create inserts a competitor with an empty record. It returns game.ErrAlreadyExists when
// the name is taken.
func (r *Competitors) Create(ctx context.Context, name string) (game.Competitor, error) {
	if err := r.store.ready(ctx); err != nil {
		return game.Competitor{}, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return game.Competitor{}, fmt.Errorf("competitor name is required")
	}

	res, err := r.store.sqlDB.ExecContext(ctx, `INSERT INTO competitors (name) VALUES (?)`, name)
	if err != nil {
		if isUniqueViolation(err) {
			return game.Competitor{}, fmt.Errorf("competitor %q: %w", name, game.ErrAlreadyExists)
		}

		return game.Competitor{}, fmt.Errorf("create competitor %q: %w", name, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return game.Competitor{}, fmt.Errorf("create competitor %q: %w", name, err)
	}

	return game.Competitor{ID: id, Name: name}, nil
}

func (r *Competitors) RecordOutcome(ctx context.Context, competitorID int64, won bool) error {
	if err := r.store.ready(ctx); err != nil {
		return err
	}

	query := `UPDATE competitors SET losses = losses + 1 WHERE id = ?`
	if won {
		query = `UPDATE competitors SET wins = wins + 1 WHERE id = ?`
	}

	res, err := r.store.sqlDB.ExecContext(ctx, query, competitorID)
	if err != nil {
		return fmt.Errorf("record outcome for %v: %w", competitorID, err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("competitor %v: %w", competitorID, game.ErrNotFound)
	}

	return nil
}

func (r *Competitors) ResetStats(ctx context.Context) error {
	if err := r.store.ready(ctx); err != nil {
		return err
	}

	if _, err := r.store.sqlDB.ExecContext(ctx, `UPDATE competitors SET wins = 0, losses = 0`); err != nil {
		return fmt.Errorf("reset stats: %w", err)
	}

	return nil
}
