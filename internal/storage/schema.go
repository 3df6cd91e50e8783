package storage

import (
	"database/sql"
	"fmt"
)

// SchemaVersion is recorded in index_metadata when the schema is created.
const SchemaVersion = "1"

// CreateSchema creates all tables and indexes for the call graph store.
// Uses a transaction so schema creation succeeds or fails as a whole.
// Every statement is IF NOT EXISTS, so it is safe to run on an existing database.
//
// Must be called with SQLite PRAGMA foreign_keys = ON.
func CreateSchema(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin schema transaction: %w", err)
	}
	defer tx.Rollback() // Safe to call even after commit

	if _, err := tx.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// Create all tables in dependency order
	tables := []struct {
		name string
		ddl  string
	}{
		{"symbols", createSymbolsTable},
		{"call_edges", createCallEdgesTable},
		{"call_chains", createCallChainsTable},
		{"index_metadata", createIndexMetadataTable},
	}

	for _, table := range tables {
		if _, err := tx.Exec(table.ddl); err != nil {
			return fmt.Errorf("failed to create %s table: %w", table.name, err)
		}
	}

	for i, idx := range getAllIndexes() {
		if _, err := tx.Exec(idx); err != nil {
			return fmt.Errorf("failed to create index %d: %w", i, err)
		}
	}

	bootstrap := []struct{ key, value string }{
		{metaSchemaVersion, SchemaVersion},
		{metaGenerationState, GenerationEmpty},
	}
	for _, kv := range bootstrap {
		if _, err := tx.Exec(
			"INSERT OR IGNORE INTO index_metadata (key, value) VALUES (?, ?)", kv.key, kv.value,
		); err != nil {
			return fmt.Errorf("failed to bootstrap metadata %s: %w", kv.key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit schema: %w", err)
	}
	return nil
}

// GetSchemaVersion returns the schema version recorded in index_metadata.
func GetSchemaVersion(db *sql.DB) (string, error) {
	var version string
	err := db.QueryRow("SELECT value FROM index_metadata WHERE key = ?", metaSchemaVersion).Scan(&version)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, nil
}

const createSymbolsTable = `
CREATE TABLE IF NOT EXISTS symbols (
    id TEXT PRIMARY KEY,
    file TEXT NOT NULL,
    name TEXT NOT NULL,
    kind TEXT NOT NULL CHECK (kind IN ('function', 'method', 'constructor')),
    start_line INTEGER NOT NULL,
    end_line INTEGER NOT NULL,
    start_byte INTEGER NOT NULL,
    end_byte INTEGER NOT NULL,
    container TEXT,
    signature TEXT NOT NULL DEFAULT '',
    language TEXT NOT NULL,
    is_exported INTEGER NOT NULL DEFAULT 0,
    code_excerpt TEXT NOT NULL DEFAULT ''
)`

const createCallEdgesTable = `
CREATE TABLE IF NOT EXISTS call_edges (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    caller_id TEXT NOT NULL,
    caller_name TEXT NOT NULL,
    caller_file TEXT NOT NULL,
    callee_name TEXT NOT NULL,
    callee_id TEXT,
    callee_file TEXT,
    call_site_line INTEGER NOT NULL,
    call_site_column INTEGER NOT NULL,
    language TEXT NOT NULL,
    resolved INTEGER NOT NULL DEFAULT 0,
    FOREIGN KEY (caller_id) REFERENCES symbols(id) ON DELETE CASCADE,
    FOREIGN KEY (callee_id) REFERENCES symbols(id) ON DELETE SET NULL
)`

const createCallChainsTable = `
CREATE TABLE IF NOT EXISTS call_chains (
    root_name TEXT NOT NULL,
    max_depth INTEGER NOT NULL,
    path_index INTEGER NOT NULL,
    path_ids TEXT NOT NULL,
    depth INTEGER NOT NULL,
    rendered TEXT NOT NULL,
    cycle INTEGER NOT NULL DEFAULT 0,
    generation_id TEXT NOT NULL,
    PRIMARY KEY (root_name, max_depth, path_index)
)`

const createIndexMetadataTable = `
CREATE TABLE IF NOT EXISTS index_metadata (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
)`

// getAllIndexes returns the secondary indexes. Name lookups back resolution
// and caller/callee queries; id lookups back graph traversal.
func getAllIndexes() []string {
	return []string{
		"CREATE INDEX IF NOT EXISTS idx_symbols_name ON symbols(name)",
		"CREATE INDEX IF NOT EXISTS idx_symbols_file ON symbols(file)",
		"CREATE INDEX IF NOT EXISTS idx_symbols_kind ON symbols(kind)",
		"CREATE INDEX IF NOT EXISTS idx_symbols_language ON symbols(language)",
		"CREATE INDEX IF NOT EXISTS idx_call_edges_caller_id ON call_edges(caller_id)",
		"CREATE INDEX IF NOT EXISTS idx_call_edges_callee_id ON call_edges(callee_id)",
		"CREATE INDEX IF NOT EXISTS idx_call_edges_caller_name ON call_edges(caller_name)",
		"CREATE INDEX IF NOT EXISTS idx_call_edges_callee_name ON call_edges(callee_name)",
		"CREATE INDEX IF NOT EXISTS idx_call_chains_root ON call_chains(root_name, max_depth)",
	}
}

// index_metadata keys.
const (
	metaSchemaVersion   = "schema_version"
	metaGenerationID    = "generation_id"
	metaGenerationState = "generation_state"
	metaRootPath        = "root_path"
	metaStartedAt       = "started_at"
	metaCompletedAt     = "completed_at"
	metaLastReport      = "last_report"
)
