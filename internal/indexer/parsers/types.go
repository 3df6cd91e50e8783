package parsers

import (
	"errors"
	"fmt"
)

// Language identifies one of the supported source languages.
type Language string

const (
	LangPython     Language = "python"
	LangC          Language = "c"
	LangCpp        Language = "cpp"
	LangJava       Language = "java"
	LangRust       Language = "rust"
	LangJavaScript Language = "javascript"
	LangTypeScript Language = "typescript"
	LangGo         Language = "go"
)

// Kind classifies a definition.
type Kind string

const (
	KindFunction    Kind = "function"
	KindMethod      Kind = "method"
	KindConstructor Kind = "constructor"
)

const (
	// MaxSignatureLength caps the first-line signature kept for a definition.
	MaxSignatureLength = 200

	// MaxExcerptBytes caps the code excerpt stored with a definition.
	MaxExcerptBytes = 2048
)

// ErrParse is the sentinel wrapped by every ParseError.
var ErrParse = errors.New("parse error")

// ParseError reports a file the adapter could not extract.
// The ingestion pipeline skips such files and counts them.
type ParseError struct {
	Path   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s: %s", e.Path, e.Reason)
}

func (e *ParseError) Unwrap() error {
	return ErrParse
}

// Definition is a named function, method or constructor found in a file.
type Definition struct {
	Name      string // bare identifier, e.g. "Add"
	Kind      Kind
	Container string // receiver, class, impl type or namespace; empty at top level
	Signature string
	Exported  bool

	StartLine int // 1-based
	EndLine   int
	StartByte int
	EndByte   int

	Excerpt string
}

// QualifiedName renders Container.Name, or just Name at top level.
func (d Definition) QualifiedName() string {
	if d.Container == "" {
		return d.Name
	}
	return d.Container + "." + d.Name
}

// CallSite is a call expression attributed to its innermost enclosing definition.
type CallSite struct {
	Callee string // trailing identifier of the callee expression
	Line   int    // 1-based
	Column int    // 0-based
	Caller int    // index into FileExtraction.Definitions
}

// FileExtraction is everything the adapter pulls out of one file.
type FileExtraction struct {
	Path        string
	Language    Language
	Definitions []Definition
	Calls       []CallSite

	// HasSyntaxErrors is set when tree-sitter recovered from errors.
	// Extraction is still best-effort in that case.
	HasSyntaxErrors bool
}
