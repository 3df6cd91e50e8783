package parsers

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	python "github.com/tree-sitter/tree-sitter-python/bindings/go"
)

// pythonGrammar extracts def/async def functions and class methods.
type pythonGrammar struct {
	language *sitter.Language
}

func newPythonGrammar() *pythonGrammar {
	return &pythonGrammar{language: sitter.NewLanguage(python.Language())}
}

func (g *pythonGrammar) Language() Language                    { return LangPython }
func (g *pythonGrammar) Extensions() []string                  { return []string{".py"} }
func (g *pythonGrammar) sitterLanguage(string) *sitter.Language { return g.language }

func (g *pythonGrammar) definition(n *sitter.Node, src []byte, sc scope) (Definition, bool) {
	if n.Kind() != "function_definition" {
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
		Exported:  pythonExported(name),
	}
	if sc.typeLike {
		def.Kind = KindMethod
		if name == "__init__" {
			def.Kind = KindConstructor
		}
	}
	return def, true
}

func (g *pythonGrammar) container(n *sitter.Node, src []byte) (scope, bool) {
	if n.Kind() != "class_definition" {
		return scope{}, false
	}
	name := extractNodeText(n.ChildByFieldName("name"), src)
	return scope{name: name, typeLike: true}, name != ""
}

func (g *pythonGrammar) callee(n *sitter.Node, src []byte) (string, bool) {
	if n.Kind() != "call" {
		return "", false
	}
	return trailingName(n.ChildByFieldName("function"), src), true
}

// pythonExported treats _private names as unexported; dunders stay public.
func pythonExported(name string) bool {
	if strings.HasPrefix(name, "__") && strings.HasSuffix(name, "__") {
		return true
	}
	return !strings.HasPrefix(name, "_")
}
