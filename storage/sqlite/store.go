// Package sqlite stores competitors, items, hands and finished matches in SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/deadloct/card-tournament-bot/game"
	"github.com/deadloct/card-tournament-bot/storage/sqlite/migrations"
	"github.com/deadloct/card-tournament-bot/storage/sqlitemigrate"
	log "github.com/sirupsen/logrus"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// Store owns the database handle. The repositories it hands out share it.
type Store struct {
	sqlDB *sql.DB

	// rng is used by DrawRandomItems, which may run for several channels at once.
	rngMu sync.Mutex
	rng   *rand.Rand
}

var (
	_ game.CompetitorStore = (*Competitors)(nil)
	_ game.ItemStore       = (*Items)(nil)
	_ game.HandStore       = (*Hands)(nil)
	_ game.MatchRecorder   = (*Store)(nil)
)

// Open opens the database at path and applies the embedded migrations. A nil rng is
// replaced by a time-seeded one.
func Open(path string, rng *rand.Rand) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	dsn := filepath.Clean(path) + "?_pragma=foreign_keys(ON)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	if err := sqlitemigrate.Apply(context.Background(), sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	log.Debugf("opened sqlite store at %v", path)
	return &Store{sqlDB: sqlDB, rng: rng}, nil
}

func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}

	return s.sqlDB.Close()
}

func (s *Store) Competitors() *Competitors { return &Competitors{store: s} }

func (s *Store) Items() *Items { return &Items{store: s} }

func (s *Store) Hands() *Hands { return &Hands{store: s} }

func (s *Store) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}

	return nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}

	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

func isForeignKeyViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code() == sqlite3lib.SQLITE_CONSTRAINT_FOREIGNKEY {
		return true
	}

	return strings.Contains(strings.ToLower(err.Error()), "foreign key constraint failed")
}
