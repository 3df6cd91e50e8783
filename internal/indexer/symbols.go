package indexer

import (
	"strconv"

	"github.com/google/uuid"
	"github.com/mvp-joe/project-callgraph/internal/indexer/parsers"
	"github.com/mvp-joe/project-callgraph/internal/storage"
)

// symbolNamespace scopes UUIDv5 symbol ids to this project.
var symbolNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/mvp-joe/project-callgraph/symbol"))

// SymbolID derives a stable id from where a definition lives, so the two
// passes and repeated runs agree without sharing state.
func SymbolID(relPath, name string, kind parsers.Kind, startByte int) string {
	key := relPath + "\x00" + name + "\x00" + string(kind) + "\x00" + strconv.Itoa(startByte)
	return uuid.NewSHA1(symbolNamespace, []byte(key)).String()
}

// toSymbols converts extracted definitions into store rows, index-aligned
// with fe.Definitions.
func toSymbols(file SourceFile, fe *parsers.FileExtraction) []storage.Symbol {
	out := make([]storage.Symbol, len(fe.Definitions))
	for i, d := range fe.Definitions {
		sym := storage.Symbol{
			ID:          SymbolID(file.RelPath, d.Name, d.Kind, d.StartByte),
			File:        file.RelPath,
			Name:        d.Name,
			Kind:        string(d.Kind),
			StartLine:   d.StartLine,
			EndLine:     d.EndLine,
			StartByte:   d.StartByte,
			EndByte:     d.EndByte,
			Signature:   d.Signature,
			Language:    string(fe.Language),
			IsExported:  d.Exported,
			CodeExcerpt: d.Excerpt,
		}
		if d.Container != "" {
			container := d.Container
			sym.Container = &container
		}
		out[i] = sym
	}
	return out
}
