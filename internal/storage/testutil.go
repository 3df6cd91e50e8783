package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// NewTestStore creates an in-memory store with the full schema.
// Cleanup is registered with t.Cleanup().
//
// Example:
//
//	func TestSomething(t *testing.T) {
//	    store := storage.NewTestStore(t)
//	    // ... test code ...
//	}
func NewTestStore(t testing.TB) *Store {
	t.Helper()

	store, err := OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return store
}

// NewTestStoreFile creates a file-backed store in t.TempDir().
// Use this when a test needs persistence across Open calls.
func NewTestStoreFile(t testing.TB) (*Store, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "callgraph.db")
	store, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return store, path
}

// TestSymbol builds a symbol with deterministic placeholder positions.
func TestSymbol(id, file, name string) Symbol {
	return Symbol{
		ID:        id,
		File:      file,
		Name:      name,
		Kind:      KindFunction,
		StartLine: 1,
		EndLine:   3,
		Signature: "func " + name + "()",
		Language:  "go",
	}
}

// TestEdge builds a resolved edge from caller to callee, or an unresolved one
// when callee is nil.
func TestEdge(caller Symbol, callee *Symbol, line int) CallEdge {
	e := CallEdge{
		CallerID:     caller.ID,
		CallerName:   caller.Name,
		CallerFile:   caller.File,
		CallSiteLine: line,
		Language:     caller.Language,
	}
	if callee != nil {
		e.CalleeName = callee.Name
		e.CalleeID = &callee.ID
		e.CalleeFile = &callee.File
		e.Resolved = true
	}
	return e
}
