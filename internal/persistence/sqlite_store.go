package persistence

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	ferrors "git.home.luguber.info/inful/displayctl/internal/foundation/errors"
)

// SQLiteStore keeps the state record in a single-row SQLite table.
// Use ":memory:" for an in-memory database (tests).
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteStore opens (creating if needed) the database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryPersistence, "could not open state database").Build()
	}

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close() // Best effort cleanup on initialization error
		return nil, ferrors.WrapError(err, ferrors.CategoryPersistence, "failed to initialize state schema").Build()
	}
	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS display_state (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		payload BLOB NOT NULL,
		updated_at INTEGER NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) Save(ctx context.Context, state []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO display_state (id, payload, updated_at) VALUES (1, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		state, time.Now().Unix(),
	)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryPersistence, "failed to save display state").Build()
	}
	return nil
}

func (s *SQLiteStore) Load(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var payload []byte
	err := s.db.QueryRowContext(ctx, "SELECT payload FROM display_state WHERE id = 1").Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryPersistence, "failed to load display state").Build()
	}
	return payload, nil
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, "DELETE FROM display_state WHERE id = 1"); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryPersistence, "failed to clear display state").Build()
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
