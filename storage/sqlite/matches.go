package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/deadloct/card-tournament-bot/game"
)

// MatchSummary is a stored match with its final places.
type MatchSummary struct {
	ID           string
	RoundsPlayed int
	WinnerID     int64
	FinishedAt   time.Time
	Places       []int64
}

// SaveMatch records a finished match and every competitor's place in it.
func (s *Store) SaveMatch(ctx context.Context, matchID string, result *game.MatchResult) error {
	if err := s.ready(ctx); err != nil {
		return err
	}

	matchID = strings.TrimSpace(matchID)
	if matchID == "" {
		return fmt.Errorf("match id is required")
	}

	if result == nil {
		return fmt.Errorf("match %v: result is required", matchID)
	}

	var winner sql.NullInt64
	if w, ok := result.Winner(); ok && !w.Excluded {
		winner = sql.NullInt64{Int64: w.CompetitorID, Valid: true}
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save match: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO matches (id, rounds_played, winner_id, finished_at) VALUES (?, ?, ?, ?)`,
		matchID, result.RoundsPlayed, winner, time.Now().UTC().UnixMilli(),
	); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("match %v: %w", matchID, game.ErrAlreadyExists)
		}

		return fmt.Errorf("save match %v: %w", matchID, err)
	}

	for place, st := range result.Standings {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO match_standings (match_id, competitor_id, place, rounds_won, rounds_lost, forfeits, remaining, excluded)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			matchID, st.CompetitorID, place+1, st.RoundsWon, st.RoundsLost, st.Forfeits, st.Remaining, st.Excluded,
		); err != nil {
			return fmt.Errorf("save standing of %v in %v: %w", st.CompetitorID, matchID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit match %v: %w", matchID, err)
	}

	return nil
}

// GetMatch loads a stored match. It returns game.ErrNotFound for unknown ids.
func (s *Store) GetMatch(ctx context.Context, matchID string) (MatchSummary, error) {
	if err := s.ready(ctx); err != nil {
		return MatchSummary{}, err
	}

	var (
		sum      MatchSummary
		winner   sql.NullInt64
		finished int64
	)

	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT id, rounds_played, winner_id, finished_at FROM matches WHERE id = ?`, matchID,
	).Scan(&sum.ID, &sum.RoundsPlayed, &winner, &finished)
	if errors.Is(err, sql.ErrNoRows) {
		return MatchSummary{}, fmt.Errorf("match %v: %w", matchID, game.ErrNotFound)
	}

	if err != nil {
		return MatchSummary{}, fmt.Errorf("get match %v: %w", matchID, err)
	}

	sum.WinnerID = winner.Int64
	sum.FinishedAt = time.UnixMilli(finished).UTC()

	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT competitor_id FROM match_standings WHERE match_id = ? ORDER BY place`, matchID)
	if err != nil {
		return MatchSummary{}, fmt.Errorf("get places of %v: %w", matchID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return MatchSummary{}, fmt.Errorf("scan place: %w", err)
		}

		sum.Places = append(sum.Places, id)
	}

	return sum, rows.Err()
}
