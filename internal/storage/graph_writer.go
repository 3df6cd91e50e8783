package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/mattn/go-sqlite3"
)

// EdgeWriteResult reports how a batch of call edges was applied.
type EdgeWriteResult struct {
	Inserted int
	Resolved int // inserted edges with a callee id
	Dropped  int // edges whose caller or callee symbol does not exist
}

var symbolColumns = []string{
	"id", "file", "name", "kind",
	"start_line", "end_line", "start_byte", "end_byte",
	"container", "signature", "language", "is_exported", "code_excerpt",
}

const symbolUpsert = `ON CONFLICT(id) DO UPDATE SET
    file = excluded.file,
    name = excluded.name,
    kind = excluded.kind,
    start_line = excluded.start_line,
    end_line = excluded.end_line,
    start_byte = excluded.start_byte,
    end_byte = excluded.end_byte,
    container = excluded.container,
    signature = excluded.signature,
    language = excluded.language,
    is_exported = excluded.is_exported,
    code_excerpt = excluded.code_excerpt`

var edgeColumns = []string{
	"caller_id", "caller_name", "caller_file",
	"callee_name", "callee_id", "callee_file",
	"call_site_line", "call_site_column", "language", "resolved",
}

// InsertSymbol inserts or replaces one symbol. Re-inserting the same id is a no-op
// apart from refreshing its columns.
func (s *Store) InsertSymbol(ctx context.Context, sym Symbol) error {
	return s.InsertSymbols(ctx, []Symbol{sym})
}

// InsertSymbols writes a batch of symbols in a single transaction.
func (s *Store) InsertSymbols(ctx context.Context, symbols []Symbol) error {
	if len(symbols) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // Safe to call even after commit

	if err := insertSymbolsTx(ctx, tx, symbols); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit symbols: %w", err)
	}
	return nil
}

// InsertCallEdge inserts one edge. A dangling caller or callee reference is
// rejected with ErrIntegrity and nothing is written.
func (s *Store) InsertCallEdge(ctx context.Context, edge CallEdge) error {
	res, err := s.InsertCallEdges(ctx, []CallEdge{edge})
	if err != nil {
		return err
	}
	if res.Dropped > 0 {
		return fmt.Errorf("%w: caller %s calls %s", ErrIntegrity, edge.CallerID, edge.CalleeName)
	}
	return nil
}

// InsertCallEdges writes a batch of edges in a single transaction. Edges that
// violate referential integrity are dropped and counted; the rest commit.
func (s *Store) InsertCallEdges(ctx context.Context, edges []CallEdge) (EdgeWriteResult, error) {
	if len(edges) == 0 {
		return EdgeWriteResult{}, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return EdgeWriteResult{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := insertEdgesTx(ctx, tx, edges)
	if err != nil {
		return EdgeWriteResult{}, err
	}

	if err := tx.Commit(); err != nil {
		return EdgeWriteResult{}, fmt.Errorf("failed to commit call edges: %w", err)
	}
	return res, nil
}

func insertSymbolsTx(ctx context.Context, tx *sql.Tx, symbols []Symbol) error {
	for _, sym := range symbols {
		_, err := sq.Insert("symbols").
			Columns(symbolColumns...).
			Values(
				sym.ID, sym.File, sym.Name, sym.Kind,
				sym.StartLine, sym.EndLine, sym.StartByte, sym.EndByte,
				sym.Container, sym.Signature, sym.Language, sym.IsExported, sym.CodeExcerpt,
			).
			Suffix(symbolUpsert).
			RunWith(tx).
			ExecContext(ctx)
		if err != nil {
			return fmt.Errorf("failed to insert symbol %s (%s): %w", sym.Name, sym.File, err)
		}
	}
	return nil
}

// insertEdgesTx relies on the foreign keys: a failing statement is rolled back
// on its own without aborting the transaction, so dangling edges are skipped.
func insertEdgesTx(ctx context.Context, tx *sql.Tx, edges []CallEdge) (EdgeWriteResult, error) {
	var res EdgeWriteResult
	for _, e := range edges {
		_, err := sq.Insert("call_edges").
			Columns(edgeColumns...).
			Values(
				e.CallerID, e.CallerName, e.CallerFile,
				e.CalleeName, e.CalleeID, e.CalleeFile,
				e.CallSiteLine, e.CallSiteColumn, e.Language, e.CalleeID != nil,
			).
			RunWith(tx).
			ExecContext(ctx)
		if isForeignKeyViolation(err) {
			res.Dropped++
			continue
		}
		if err != nil {
			return res, fmt.Errorf("failed to insert call edge %s -> %s: %w", e.CallerName, e.CalleeName, err)
		}
		res.Inserted++
		if e.CalleeID != nil {
			res.Resolved++
		}
	}
	return res, nil
}

func isForeignKeyViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey
	}
	return false
}
