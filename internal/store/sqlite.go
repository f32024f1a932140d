package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/moorebrett0/tamapet/internal/pet"
)

// SQLiteStore keeps stats in a single-row SQLite table.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path and migrates it.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func migrate(db *sql.DB) error {
	stmts := []string{
		`PRAGMA journal_mode=WAL;`,
		`CREATE TABLE IF NOT EXISTS pet_stats (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			energy REAL NOT NULL,
			diet REAL NOT NULL,
			sleep REAL NOT NULL,
			exercise REAL NOT NULL,
			saved_at TEXT NOT NULL
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) LoadStats(ctx context.Context) (pet.Stats, bool, error) {
	var st pet.Stats
	err := s.db.QueryRowContext(ctx,
		`SELECT energy, diet, sleep, exercise FROM pet_stats WHERE id = 1`,
	).Scan(&st.Energy, &st.Diet, &st.Sleep, &st.Exercise)
	if errors.Is(err, sql.ErrNoRows) {
		return pet.Stats{}, false, nil
	}
	if err != nil {
		return pet.Stats{}, false, fmt.Errorf("load stats: %w", err)
	}
	return st.Clamped(), true, nil
}

func (s *SQLiteStore) SaveStats(ctx context.Context, st pet.Stats) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO pet_stats (id, energy, diet, sleep, exercise, saved_at)
		VALUES (1, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			energy = excluded.energy,
			diet = excluded.diet,
			sleep = excluded.sleep,
			exercise = excluded.exercise,
			saved_at = excluded.saved_at`,
		st.Energy, st.Diet, st.Sleep, st.Exercise, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("save stats: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
