package parsers

import (
	"strings"
	"unicode"
	"unicode/utf8"

	sitter "github.com/tree-sitter/go-tree-sitter"
	golang "github.com/tree-sitter/tree-sitter-go/bindings/go"
)

// goGrammar extracts functions and methods. A method's container is its
// receiver type without the pointer or type parameters.
type goGrammar struct {
	language *sitter.Language
}

func newGoGrammar() *goGrammar {
	return &goGrammar{language: sitter.NewLanguage(golang.Language())}
}

func (g *goGrammar) Language() Language                    { return LangGo }
func (g *goGrammar) Extensions() []string                  { return []string{".go"} }
func (g *goGrammar) sitterLanguage(string) *sitter.Language { return g.language }

func (g *goGrammar) definition(n *sitter.Node, src []byte, _ scope) (Definition, bool) {
	var def Definition
	switch n.Kind() {
	case "function_declaration":
		def.Kind = KindFunction
	case "method_declaration":
		def.Kind = KindMethod
		def.Container = receiverType(n.ChildByFieldName("receiver"), src)
	default:
		return Definition{}, false
	}

	def.Name = extractNodeText(n.ChildByFieldName("name"), src)
	if def.Name == "" {
		return Definition{}, false
	}
	def.Exported = goExported(def.Name)
	return def, true
}

func (g *goGrammar) container(*sitter.Node, []byte) (scope, bool) {
	return scope{}, false
}

func (g *goGrammar) callee(n *sitter.Node, src []byte) (string, bool) {
	if n.Kind() != "call_expression" {
		return "", false
	}
	fn := n.ChildByFieldName("function")
	if fn != nil && fn.Kind() == "index_expression" {
		// Explicit instantiation: F[T](x).
		fn = fn.ChildByFieldName("operand")
	}
	return trailingName(fn, src), true
}

// receiverType turns "(s *Stack[T])" into "Stack".
func receiverType(params *sitter.Node, src []byte) string {
	if params == nil {
		return ""
	}
	decl := findChildByType(params, "parameter_declaration")
	if decl == nil {
		return ""
	}
	name := extractNodeText(decl.ChildByFieldName("type"), src)
	name = strings.TrimLeft(name, "*")
	if i := strings.Index(name, "["); i >= 0 {
		name = name[:i]
	}
	return strings.TrimSpace(name)
}

func goExported(name string) bool {
	r, _ := utf8.DecodeRuneInString(name)
	return unicode.IsUpper(r)
}
