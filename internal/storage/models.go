package storage

// Domain models that mirror SQL tables in schema.go.
// These are lightweight data transfer structs, NOT ORM models.

// Symbol kinds.
const (
	KindFunction    = "function"
	KindMethod      = "method"
	KindConstructor = "constructor"
)

// Symbol is a named function, method or constructor definition.
// Maps to the symbols table.
type Symbol struct {
	ID          string  // id: UUIDv5 over file, name, kind and start byte
	File        string  // file: root-relative, slash separated
	Name        string  // name: bare identifier
	Kind        string  // kind: function, method, constructor
	StartLine   int     // start_line: 1-based
	EndLine     int     // end_line: 1-based, inclusive
	StartByte   int     // start_byte
	EndByte     int     // end_byte
	Container   *string // container: receiver/class/namespace (nullable)
	Signature   string  // signature: first line of the definition
	Language    string  // language: python, c, cpp, java, rust, javascript, typescript, go
	IsExported  bool    // is_exported
	CodeExcerpt string  // code_excerpt: definition text, capped
}

// QualifiedName renders container.name, or name at top level.
func (s Symbol) QualifiedName() string {
	if s.Container == nil || *s.Container == "" {
		return s.Name
	}
	return *s.Container + "." + s.Name
}

// CallEdge is one call site paired with one resolved target, or with none.
// Maps to the call_edges table.
type CallEdge struct {
	ID             int64   // id: row id, not stable across runs
	CallerID       string  // caller_id: FK to symbols
	CallerName     string  // caller_name: denormalized
	CallerFile     string  // caller_file: denormalized
	CalleeName     string  // callee_name: name as written at the call site
	CalleeID       *string // callee_id: FK to symbols (nullable when unresolved)
	CalleeFile     *string // callee_file: denormalized (nullable)
	CallSiteLine   int     // call_site_line: 1-based
	CallSiteColumn int     // call_site_column: 0-based
	Language       string  // language: of the caller
	Resolved       bool    // resolved: callee_id is set
}

// CallChain is one materialized chain path cached by the query engine.
// Maps to the call_chains table.
type CallChain struct {
	RootName     string   // root_name
	MaxDepth     int      // max_depth: the cap the chain was computed with
	PathIndex    int      // path_index: order within the result
	PathIDs      []string // path_ids: JSON array of symbol ids
	Depth        int      // depth: number of edges
	Rendered     string   // rendered: "a -> b -> c"
	Cycle        bool     // cycle: path stopped at a back edge
	GenerationID string   // generation_id: the index generation it was computed on
}

// SymbolRef is the slice of a Symbol the resolver needs.
type SymbolRef struct {
	ID        string
	File      string
	Language  string
	StartByte int
}

// NameIndex maps a bare name to every symbol defining it, ordered by
// (file, start_byte, id). It is built once per run and never mutated.
type NameIndex map[string][]SymbolRef

// CallerGroup aggregates the call sites of one caller symbol.
type CallerGroup struct {
	SymbolID  string
	Name      string
	File      string
	Line      int
	CallCount int // distinct call sites
}

// CalleeGroup aggregates the call sites targeting one callee. Unresolved
// callees are grouped by name and have no SymbolID.
type CalleeGroup struct {
	SymbolID  *string
	Name      string
	File      *string
	Line      *int
	CallCount int
}

// Statistics summarizes the store contents.
type Statistics struct {
	TotalSymbols    int
	TotalFunctions  int
	TotalMethods    int
	TotalCtors      int
	TotalEdges      int
	ResolvedEdges   int
	UnresolvedEdges int
	TotalFiles      int
	ByLanguage      map[string]int // symbols per language
	ByKind          map[string]int // symbols per kind
	EdgesByLanguage map[string]int
	Generation      Generation
}

// Generation states.
const (
	GenerationEmpty    = "empty"
	GenerationBuilding = "building"
	GenerationReady    = "ready"
)

// Generation describes the current index build.
type Generation struct {
	ID          string
	State       string
	RootPath    string
	StartedAt   string // RFC3339, empty if never started
	CompletedAt string
	LastReport  string // JSON report of the last completed run
}
