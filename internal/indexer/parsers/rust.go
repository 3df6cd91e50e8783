package parsers

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
	rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
)

// rustGrammar extracts fn items. Functions inside impl or trait blocks are
// methods of the implemented type; mod blocks only name a namespace.
type rustGrammar struct {
	language *sitter.Language
}

func newRustGrammar() *rustGrammar {
	return &rustGrammar{language: sitter.NewLanguage(rust.Language())}
}

func (g *rustGrammar) Language() Language                    { return LangRust }
func (g *rustGrammar) Extensions() []string                  { return []string{".rs"} }
func (g *rustGrammar) sitterLanguage(string) *sitter.Language { return g.language }

func (g *rustGrammar) definition(n *sitter.Node, src []byte, sc scope) (Definition, bool) {
	if n.Kind() != "function_item" {
		return Definition{}, false
	}
	name := extractNodeText(n.ChildByFieldName("name"), src)
	if name == "" {
		return Definition{}, false
	}

	def := Definition{
		Name:      name,
		Kind:      KindFunction,
		Container: sc.name,
		Exported:  hasChildOfType(n, "visibility_modifier"),
	}
	if sc.typeLike {
		def.Kind = KindMethod
	}
	return def, true
}

func (g *rustGrammar) container(n *sitter.Node, src []byte) (scope, bool) {
	switch n.Kind() {
	case "impl_item":
		name := trailingName(n.ChildByFieldName("type"), src)
		return scope{name: name, typeLike: true}, name != ""
	case "trait_item":
		name := extractNodeText(n.ChildByFieldName("name"), src)
		return scope{name: name, typeLike: true}, name != ""
	case "mod_item":
		name := extractNodeText(n.ChildByFieldName("name"), src)
		return scope{name: name}, name != ""
	}
	return scope{}, false
}

func (g *rustGrammar) callee(n *sitter.Node, src []byte) (string, bool) {
	if n.Kind() != "call_expression" {
		return "", false
	}
	return trailingName(n.ChildByFieldName("function"), src), true
}
