package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"monworld.ai/internal/sim/world"
)

// SQLiteStore keeps the world document in a single-row table and relies on
// native transactions for atomic replace. A process-local mutex serializes
// mutators; the database serializes any concurrent process.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex
}

func OpenSQLite(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	const schema = `CREATE TABLE IF NOT EXISTS world_state (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		payload TEXT NOT NULL
	);`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	QueryRow(query string, args ...any) *sql.Row
	Exec(query string, args ...any) (sql.Result, error)
}

func (s *SQLiteStore) Read() (*world.State, error) {
	return readRow(s.db)
}

func (s *SQLiteStore) Write(st *world.State) error {
	return writeRow(s.db, st)
}

func (s *SQLiteStore) Update(fn Mutator) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin state tx: %w", err)
	}
	st, err := readRow(tx)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := fn(st); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := writeRow(tx, st); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit state tx: %w", err)
	}
	return nil
}

func (s *SQLiteStore) InitFromSeed(seedPath string) (*world.State, error) {
	var payload string
	err := s.db.QueryRow("SELECT payload FROM world_state WHERE id = 1").Scan(&payload)
	if err == nil {
		return decodeState([]byte(payload))
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("init state: %w", err)
	}
	raw, err := os.ReadFile(seedPath)
	if err != nil {
		return nil, fmt.Errorf("read seed: %w", err)
	}
	seed, err := decodeState(raw)
	if err != nil {
		return nil, fmt.Errorf("seed: %w", err)
	}
	if err := s.Write(seed); err != nil {
		return nil, err
	}
	return seed, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func readRow(q dbtx) (*world.State, error) {
	var payload string
	err := q.QueryRow("SELECT payload FROM world_state WHERE id = 1").Scan(&payload)
	if err == sql.ErrNoRows {
		return world.DefaultState(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read state: %w", err)
	}
	return decodeState([]byte(payload))
}

func writeRow(q dbtx, st *world.State) error {
	raw, err := encodeState(st)
	if err != nil {
		return err
	}
	_, err = q.Exec(`INSERT INTO world_state (id, payload) VALUES (1, ?)
		ON CONFLICT(id) DO UPDATE SET payload = excluded.payload`, string(raw))
	if err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	return nil
}
