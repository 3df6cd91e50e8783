package storage

import (
	"context"
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"
)

// SaveCallChains replaces the cached chains for (root, maxDepth).
// Cached chains are derived data; ClearAll and BeginGeneration drop them.
func (s *Store) SaveCallChains(ctx context.Context, root string, maxDepth int, chains []CallChain) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = sq.Delete("call_chains").
		Where(sq.Eq{"root_name": root, "max_depth": maxDepth}).
		RunWith(tx).ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to clear cached chains: %w", err)
	}

	for i, c := range chains {
		ids, err := json.Marshal(c.PathIDs)
		if err != nil {
			return fmt.Errorf("failed to encode chain path: %w", err)
		}
		_, err = sq.Insert("call_chains").
			Columns("root_name", "max_depth", "path_index", "path_ids", "depth", "rendered", "cycle", "generation_id").
			Values(root, maxDepth, i, string(ids), c.Depth, c.Rendered, c.Cycle, c.GenerationID).
			RunWith(tx).ExecContext(ctx)
		if err != nil {
			return fmt.Errorf("failed to insert cached chain: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit cached chains: %w", err)
	}
	return nil
}

// LoadCallChains returns cached chains for (root, maxDepth) computed on
// generationID. ok is false when nothing usable is cached.
func (s *Store) LoadCallChains(ctx context.Context, root string, maxDepth int, generationID string) ([]CallChain, bool, error) {
	rows, err := sq.Select("path_index", "path_ids", "depth", "rendered", "cycle", "generation_id").
		From("call_chains").
		Where(sq.Eq{"root_name": root, "max_depth": maxDepth}).
		OrderBy("path_index").
		RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("failed to query cached chains: %w", err)
	}
	defer rows.Close()

	var out []CallChain
	for rows.Next() {
		c := CallChain{RootName: root, MaxDepth: maxDepth}
		var ids string
		if err := rows.Scan(&c.PathIndex, &ids, &c.Depth, &c.Rendered, &c.Cycle, &c.GenerationID); err != nil {
			return nil, false, fmt.Errorf("failed to scan cached chain: %w", err)
		}
		if c.GenerationID != generationID {
			return nil, false, nil
		}
		if err := json.Unmarshal([]byte(ids), &c.PathIDs); err != nil {
			return nil, false, fmt.Errorf("failed to decode chain path: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, false, err
	}
	return out, len(out) > 0, nil
}
