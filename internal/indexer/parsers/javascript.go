package parsers

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
	javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
)

// newJavaScriptGrammar reuses the TypeScript walker rules with the
// JavaScript grammar, which also parses JSX.
func newJavaScriptGrammar() *ecmaGrammar {
	js := sitter.NewLanguage(javascript.Language())
	return &ecmaGrammar{
		lang:       LangJavaScript,
		extensions: []string{".js", ".jsx", ".mjs", ".cjs"},
		languages:  map[string]*sitter.Language{},
		fallback:   js,
	}
}
