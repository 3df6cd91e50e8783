package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

var (
	// ErrIntegrity is returned when an edge references a symbol that does not exist.
	ErrIntegrity = errors.New("call edge references a missing symbol")

	// ErrGenerationMismatch is returned when completing a generation that is not current.
	ErrGenerationMismatch = errors.New("generation is not the current build")
)

// Store is the SQLite-backed symbol and call edge store.
// It is safe for concurrent readers; the ingestion pipeline is its only writer.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the store at path and ensures the schema exists.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return newStore(db, path)
}

// OpenMemory opens a private in-memory store. A single connection is kept so
// every query sees the same database.
func OpenMemory() (*Store, error) {
	db, err := sql.Open("sqlite3", ":memory:?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}
	db.SetMaxOpenConns(1)

	return newStore(db, ":memory:")
}

func newStore(db *sql.DB, path string) (*Store, error) {
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := CreateSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, path: path}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Path returns the database path, or ":memory:".
func (s *Store) Path() string {
	return s.path
}

// DB exposes the underlying connection for tests and diagnostics.
func (s *Store) DB() *sql.DB {
	return s.db
}

// ClearAll removes every symbol, edge and cached chain and resets the
// generation to empty.
func (s *Store) ClearAll(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := clearTx(ctx, tx); err != nil {
		return err
	}

	meta := map[string]string{
		metaGenerationID:    "",
		metaGenerationState: GenerationEmpty,
		metaStartedAt:       "",
		metaCompletedAt:     "",
	}
	if err := setMeta(ctx, tx, meta); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit clear: %w", err)
	}
	return nil
}

func clearTx(ctx context.Context, tx *sql.Tx) error {
	// Edges first so no FK action runs per symbol.
	for _, table := range []string{"call_chains", "call_edges", "symbols"} {
		if _, err := sq.Delete(table).RunWith(tx).ExecContext(ctx); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}

// BeginGeneration marks a new build as in progress and returns its id.
// With clear set, symbols and edges are removed in the same transaction, so
// a failed start leaves the previous contents in place. Queries observe the
// building state and refuse to answer until CompleteGeneration is called.
func (s *Store) BeginGeneration(ctx context.Context, rootPath string, clear bool) (string, error) {
	id := uuid.New().String()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if clear {
		if err := clearTx(ctx, tx); err != nil {
			return "", err
		}
	} else if _, err := sq.Delete("call_chains").RunWith(tx).ExecContext(ctx); err != nil {
		return "", fmt.Errorf("failed to clear cached chains: %w", err)
	}

	meta := map[string]string{
		metaGenerationID:    id,
		metaGenerationState: GenerationBuilding,
		metaRootPath:        rootPath,
		metaStartedAt:       time.Now().UTC().Format(time.RFC3339),
		metaCompletedAt:     "",
	}
	if err := setMeta(ctx, tx, meta); err != nil {
		return "", err
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit generation start: %w", err)
	}
	return id, nil
}

// CompleteGeneration marks generation id ready and records the run report.
func (s *Store) CompleteGeneration(ctx context.Context, id string, report string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var current string
	err = sq.Select("value").From("index_metadata").
		Where(sq.Eq{"key": metaGenerationID}).
		RunWith(tx).QueryRowContext(ctx).Scan(&current)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to read generation: %w", err)
	}
	if current != id {
		return fmt.Errorf("%w: %s", ErrGenerationMismatch, id)
	}

	meta := map[string]string{
		metaGenerationState: GenerationReady,
		metaCompletedAt:     time.Now().UTC().Format(time.RFC3339),
		metaLastReport:      report,
	}
	if err := setMeta(ctx, tx, meta); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit generation: %w", err)
	}
	return nil
}

// Generation returns the current generation metadata.
func (s *Store) Generation(ctx context.Context) (Generation, error) {
	rows, err := sq.Select("key", "value").From("index_metadata").
		RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return Generation{}, fmt.Errorf("failed to query metadata: %w", err)
	}
	defer rows.Close()

	gen := Generation{State: GenerationEmpty}
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return Generation{}, fmt.Errorf("failed to scan metadata: %w", err)
		}
		switch key {
		case metaGenerationID:
			gen.ID = value
		case metaGenerationState:
			gen.State = value
		case metaRootPath:
			gen.RootPath = value
		case metaStartedAt:
			gen.StartedAt = value
		case metaCompletedAt:
			gen.CompletedAt = value
		case metaLastReport:
			gen.LastReport = value
		}
	}
	return gen, rows.Err()
}

// setMeta upserts index_metadata keys inside tx.
func setMeta(ctx context.Context, tx *sql.Tx, kv map[string]string) error {
	for key, value := range kv {
		_, err := sq.Insert("index_metadata").
			Columns("key", "value").
			Values(key, value).
			Suffix("ON CONFLICT(key) DO UPDATE SET value = excluded.value").
			RunWith(tx).
			ExecContext(ctx)
		if err != nil {
			return fmt.Errorf("failed to set metadata %s: %w", key, err)
		}
	}
	return nil
}
