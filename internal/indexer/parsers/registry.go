package parsers

import (
	"path/filepath"
	"sort"
	"strings"
)

// grammars is the closed set of supported languages. Tree-sitter languages
// are immutable and shared; parsers are created per call.
var grammars = []grammar{
	newPythonGrammar(),
	newCGrammar(),
	newCppGrammar(),
	newJavaGrammar(),
	newRustGrammar(),
	newJavaScriptGrammar(),
	newTypeScriptGrammar(),
	newGoGrammar(),
}

var byExtension = func() map[string]grammar {
	m := make(map[string]grammar)
	for _, g := range grammars {
		for _, ext := range g.Extensions() {
			m[ext] = g
		}
	}
	return m
}()

// Languages returns the supported languages in registry order.
func Languages() []Language {
	out := make([]Language, 0, len(grammars))
	for _, g := range grammars {
		out = append(out, g.Language())
	}
	return out
}

// SupportedExtensions returns every recognized file extension, sorted.
func SupportedExtensions() []string {
	out := make([]string, 0, len(byExtension))
	for ext := range byExtension {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// DetectLanguage maps a path to its language by extension.
func DetectLanguage(path string) (Language, bool) {
	g, ok := byExtension[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return "", false
	}
	return g.Language(), true
}

// Supported reports whether path has a recognized extension.
func Supported(path string) bool {
	_, ok := DetectLanguage(path)
	return ok
}

// Extract parses source as the language implied by path's extension and
// returns its definitions and call sites. It never fails on a syntactically
// recovered tree; it returns a *ParseError for unsupported extensions,
// invalid UTF-8 or when no tree is produced.
func Extract(path string, source []byte) (*FileExtraction, error) {
	ext := strings.ToLower(filepath.Ext(path))
	g, ok := byExtension[ext]
	if !ok {
		return nil, &ParseError{Path: path, Reason: "unsupported file extension " + ext}
	}
	return extract(g, path, ext, source)
}
