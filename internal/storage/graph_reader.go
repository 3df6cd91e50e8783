package storage

import (
	"context"
	"database/sql"
	"fmt"
	"iter"
	"strings"

	sq "github.com/Masterminds/squirrel"
)

// idBatchSize bounds the number of bound parameters in IN (...) lookups.
const idBatchSize = 500

// rowScanner is implemented by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSymbol(r rowScanner) (Symbol, error) {
	var sym Symbol
	var container sql.NullString
	err := r.Scan(
		&sym.ID, &sym.File, &sym.Name, &sym.Kind,
		&sym.StartLine, &sym.EndLine, &sym.StartByte, &sym.EndByte,
		&container, &sym.Signature, &sym.Language, &sym.IsExported, &sym.CodeExcerpt,
	)
	if err != nil {
		return Symbol{}, fmt.Errorf("failed to scan symbol: %w", err)
	}
	if container.Valid {
		sym.Container = &container.String
	}
	return sym, nil
}

func scanEdge(r rowScanner) (CallEdge, error) {
	var e CallEdge
	var calleeID, calleeFile sql.NullString
	err := r.Scan(
		&e.ID, &e.CallerID, &e.CallerName, &e.CallerFile,
		&e.CalleeName, &calleeID, &calleeFile,
		&e.CallSiteLine, &e.CallSiteColumn, &e.Language, &e.Resolved,
	)
	if err != nil {
		return CallEdge{}, fmt.Errorf("failed to scan call edge: %w", err)
	}
	if calleeID.Valid {
		e.CalleeID = &calleeID.String
	}
	if calleeFile.Valid {
		e.CalleeFile = &calleeFile.String
	}
	return e, nil
}

func (s *Store) querySymbols(ctx context.Context, q sq.SelectBuilder) ([]Symbol, error) {
	rows, err := q.RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query symbols: %w", err)
	}
	defer rows.Close()

	var out []Symbol
	for rows.Next() {
		sym, err := scanSymbol(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sym)
	}
	return out, rows.Err()
}

func (s *Store) queryEdges(ctx context.Context, q sq.SelectBuilder) ([]CallEdge, error) {
	rows, err := q.RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query call edges: %w", err)
	}
	defer rows.Close()

	var out []CallEdge
	for rows.Next() {
		e, err := scanEdge(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func selectSymbols() sq.SelectBuilder {
	return sq.Select(symbolColumns...).From("symbols")
}

func selectEdges() sq.SelectBuilder {
	return sq.Select(append([]string{"id"}, edgeColumns...)...).From("call_edges")
}

// SearchSymbols returns symbols whose name contains pattern, case-insensitively,
// ordered by name then file. limit <= 0 means no limit.
func (s *Store) SearchSymbols(ctx context.Context, pattern string, limit int) ([]Symbol, error) {
	q := selectSymbols().
		Where(sq.Expr(`name LIKE ? ESCAPE '\'`, "%"+escapeLike(pattern)+"%")).
		OrderBy("name", "file", "start_byte")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	return s.querySymbols(ctx, q)
}

// escapeLike makes %, _ and \ match literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// SymbolsByName returns every symbol with exactly this name, in resolver order.
func (s *Store) SymbolsByName(ctx context.Context, name string) ([]Symbol, error) {
	return s.querySymbols(ctx, selectSymbols().
		Where(sq.Eq{"name": name}).
		OrderBy("file", "start_byte", "id"))
}

// SymbolsByIDs looks up many symbols with batched IN queries.
func (s *Store) SymbolsByIDs(ctx context.Context, ids []string) (map[string]Symbol, error) {
	out := make(map[string]Symbol, len(ids))
	for start := 0; start < len(ids); start += idBatchSize {
		end := min(start+idBatchSize, len(ids))
		syms, err := s.querySymbols(ctx, selectSymbols().Where(sq.Eq{"id": ids[start:end]}))
		if err != nil {
			return nil, err
		}
		for _, sym := range syms {
			out[sym.ID] = sym
		}
	}
	return out, nil
}

// GetCallersOf returns the raw edges whose callee name is name, in call-site order.
func (s *Store) GetCallersOf(ctx context.Context, name string) ([]CallEdge, error) {
	return s.queryEdges(ctx, selectEdges().
		Where(sq.Eq{"callee_name": name}).
		OrderBy("caller_file", "call_site_line", "call_site_column", "id"))
}

// GetCalleesOf returns the raw edges whose caller name is name, in call-site order.
func (s *Store) GetCalleesOf(ctx context.Context, name string) ([]CallEdge, error) {
	return s.queryEdges(ctx, selectEdges().
		Where(sq.Eq{"caller_name": name}).
		OrderBy("caller_file", "call_site_line", "call_site_column", "id"))
}

// AggregateCallers groups edges into name by calling symbol. CallCount counts
// distinct call sites, so a site resolved to several targets counts once.
func (s *Store) AggregateCallers(ctx context.Context, name string) ([]CallerGroup, error) {
	rows, err := sq.Select(
		"e.caller_id", "e.caller_name", "e.caller_file", "s.start_line",
		"COUNT(DISTINCT e.call_site_line || ':' || e.call_site_column)",
	).
		From("call_edges e").
		Join("symbols s ON s.id = e.caller_id").
		Where(sq.Eq{"e.callee_name": name}).
		GroupBy("e.caller_id").
		OrderBy("e.caller_file", "s.start_line", "e.caller_id").
		RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate callers: %w", err)
	}
	defer rows.Close()

	var out []CallerGroup
	for rows.Next() {
		var g CallerGroup
		if err := rows.Scan(&g.SymbolID, &g.Name, &g.File, &g.Line, &g.CallCount); err != nil {
			return nil, fmt.Errorf("failed to scan caller group: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// AggregateCallees groups the edges leaving symbols named name by target.
// Resolved targets group by symbol id, unresolved ones by callee name.
func (s *Store) AggregateCallees(ctx context.Context, name string) ([]CalleeGroup, error) {
	rows, err := sq.Select(
		"e.callee_id", "e.callee_name", "e.callee_file", "s.start_line",
		"COUNT(DISTINCT e.call_site_line || ':' || e.call_site_column)",
	).
		From("call_edges e").
		LeftJoin("symbols s ON s.id = e.callee_id").
		Where(sq.Eq{"e.caller_name": name}).
		GroupBy("COALESCE(e.callee_id, 'name:' || e.callee_name)").
		OrderBy("e.callee_name", "e.callee_file", "e.callee_id").
		RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate callees: %w", err)
	}
	defer rows.Close()

	var out []CalleeGroup
	for rows.Next() {
		var g CalleeGroup
		var id, file sql.NullString
		var line sql.NullInt64
		if err := rows.Scan(&id, &g.Name, &file, &line, &g.CallCount); err != nil {
			return nil, fmt.Errorf("failed to scan callee group: %w", err)
		}
		if id.Valid {
			g.SymbolID = &id.String
		}
		if file.Valid {
			g.File = &file.String
		}
		if line.Valid {
			l := int(line.Int64)
			g.Line = &l
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// CalleeIDs returns the distinct resolved targets of symbol id.
func (s *Store) CalleeIDs(ctx context.Context, id string) ([]string, error) {
	return s.adjacentIDs(ctx, "callee_id", "caller_id", id)
}

// CallerIDs returns the distinct symbols with a resolved edge into id.
func (s *Store) CallerIDs(ctx context.Context, id string) ([]string, error) {
	return s.adjacentIDs(ctx, "caller_id", "callee_id", id)
}

func (s *Store) adjacentIDs(ctx context.Context, want, match, id string) ([]string, error) {
	rows, err := sq.Select(want).Distinct().
		From("call_edges").
		Where(sq.Eq{match: id}).
		Where(sq.NotEq{want: nil}).
		OrderBy(want).
		RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query adjacent symbols: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan adjacent symbol: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// NameIndex snapshots name -> symbols for the resolver.
func (s *Store) NameIndex(ctx context.Context) (NameIndex, error) {
	rows, err := sq.Select("name", "id", "file", "language", "start_byte").
		From("symbols").
		OrderBy("name", "file", "start_byte", "id").
		RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load name index: %w", err)
	}
	defer rows.Close()

	idx := make(NameIndex)
	for rows.Next() {
		var name string
		var ref SymbolRef
		if err := rows.Scan(&name, &ref.ID, &ref.File, &ref.Language, &ref.StartByte); err != nil {
			return nil, fmt.Errorf("failed to scan name index: %w", err)
		}
		idx[name] = append(idx[name], ref)
	}
	return idx, rows.Err()
}

// EntryPointNames returns the distinct names of symbols that no resolved
// edge points to, in name order.
func (s *Store) EntryPointNames(ctx context.Context) ([]string, error) {
	rows, err := sq.Select("DISTINCT s.name").From("symbols s").
		Where("NOT EXISTS (SELECT 1 FROM call_edges e WHERE e.callee_id = s.id)").
		OrderBy("s.name").
		RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query entry points: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan entry point: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Symbols streams every symbol ordered by file and position. The iteration
// holds a connection; do not issue other queries on an in-memory store
// until it finishes.
func (s *Store) Symbols(ctx context.Context) iter.Seq2[Symbol, error] {
	return func(yield func(Symbol, error) bool) {
		rows, err := selectSymbols().OrderBy("file", "start_byte", "id").
			RunWith(s.db).QueryContext(ctx)
		if err != nil {
			yield(Symbol{}, fmt.Errorf("failed to query symbols: %w", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			sym, err := scanSymbol(rows)
			if !yield(sym, err) || err != nil {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(Symbol{}, err)
		}
	}
}

// CallEdges streams every call edge in insertion order.
func (s *Store) CallEdges(ctx context.Context) iter.Seq2[CallEdge, error] {
	return func(yield func(CallEdge, error) bool) {
		rows, err := selectEdges().OrderBy("id").RunWith(s.db).QueryContext(ctx)
		if err != nil {
			yield(CallEdge{}, fmt.Errorf("failed to query call edges: %w", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			e, err := scanEdge(rows)
			if !yield(e, err) || err != nil {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(CallEdge{}, err)
		}
	}
}

// GetStatistics returns totals for symbols, edges and files.
func (s *Store) GetStatistics(ctx context.Context) (*Statistics, error) {
	stats := &Statistics{
		ByLanguage:      map[string]int{},
		ByKind:          map[string]int{},
		EdgesByLanguage: map[string]int{},
	}

	err := sq.Select(
		"COUNT(*)",
		"COUNT(DISTINCT file)",
		"COALESCE(SUM(kind = 'function'), 0)",
		"COALESCE(SUM(kind = 'method'), 0)",
		"COALESCE(SUM(kind = 'constructor'), 0)",
	).From("symbols").RunWith(s.db).QueryRowContext(ctx).
		Scan(&stats.TotalSymbols, &stats.TotalFiles, &stats.TotalFunctions, &stats.TotalMethods, &stats.TotalCtors)
	if err != nil {
		return nil, fmt.Errorf("failed to count symbols: %w", err)
	}

	err = sq.Select("COUNT(*)", "COALESCE(SUM(resolved), 0)").
		From("call_edges").RunWith(s.db).QueryRowContext(ctx).
		Scan(&stats.TotalEdges, &stats.ResolvedEdges)
	if err != nil {
		return nil, fmt.Errorf("failed to count call edges: %w", err)
	}
	stats.UnresolvedEdges = stats.TotalEdges - stats.ResolvedEdges

	if err := s.countBy(ctx, "symbols", "language", stats.ByLanguage); err != nil {
		return nil, err
	}
	if err := s.countBy(ctx, "symbols", "kind", stats.ByKind); err != nil {
		return nil, err
	}
	if err := s.countBy(ctx, "call_edges", "language", stats.EdgesByLanguage); err != nil {
		return nil, err
	}

	gen, err := s.Generation(ctx)
	if err != nil {
		return nil, err
	}
	stats.Generation = gen

	return stats, nil
}

// countBy fills into with row counts of table grouped by column.
func (s *Store) countBy(ctx context.Context, table, column string, into map[string]int) error {
	rows, err := sq.Select(column, "COUNT(*)").From(table).
		GroupBy(column).RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to count %s by %s: %w", table, column, err)
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return fmt.Errorf("failed to scan %s count: %w", column, err)
		}
		into[key] = n
	}
	return rows.Err()
}
