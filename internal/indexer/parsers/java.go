package parsers

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	java "github.com/tree-sitter/tree-sitter-java/bindings/go"
)

// javaGrammar extracts methods and constructors. "new Foo()" counts as a
// call to Foo so constructor declarations can be resolved.
type javaGrammar struct {
	language *sitter.Language
}

func newJavaGrammar() *javaGrammar {
	return &javaGrammar{language: sitter.NewLanguage(java.Language())}
}

func (g *javaGrammar) Language() Language                    { return LangJava }
func (g *javaGrammar) Extensions() []string                  { return []string{".java"} }
func (g *javaGrammar) sitterLanguage(string) *sitter.Language { return g.language }

func (g *javaGrammar) definition(n *sitter.Node, src []byte, sc scope) (Definition, bool) {
	var kind Kind
	switch n.Kind() {
	case "method_declaration":
		kind = KindMethod
	case "constructor_declaration":
		kind = KindConstructor
	default:
		return Definition{}, false
	}
	// abstract and interface methods declare nothing callable
	if n.ChildByFieldName("body") == nil {
		return Definition{}, false
	}

	name := extractNodeText(n.ChildByFieldName("name"), src)
	if name == "" {
		return Definition{}, false
	}
	return Definition{
		Name:      name,
		Kind:      kind,
		Container: sc.name,
		Exported:  javaPublic(n, src),
	}, true
}

func (g *javaGrammar) container(n *sitter.Node, src []byte) (scope, bool) {
	switch n.Kind() {
	case "class_declaration", "interface_declaration", "enum_declaration", "record_declaration":
		name := extractNodeText(n.ChildByFieldName("name"), src)
		return scope{name: name, typeLike: true}, name != ""
	}
	return scope{}, false
}

func (g *javaGrammar) callee(n *sitter.Node, src []byte) (string, bool) {
	switch n.Kind() {
	case "method_invocation":
		return extractNodeText(n.ChildByFieldName("name"), src), true
	case "object_creation_expression":
		return trailingName(n.ChildByFieldName("type"), src), true
	}
	return "", false
}

func javaPublic(n *sitter.Node, src []byte) bool {
	mods := findChildByType(n, "modifiers")
	if mods == nil {
		return false
	}
	for _, tok := range strings.Fields(extractNodeText(mods, src)) {
		if tok == "public" {
			return true
		}
	}
	return false
}
