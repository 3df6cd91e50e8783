package parsers

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
	cpp "github.com/tree-sitter/tree-sitter-cpp/bindings/go"
)

// cppGrammar extracts free functions, in-class and out-of-line methods
// (A::b), constructors, destructors and operators.
type cppGrammar struct {
	language *sitter.Language
}

func newCppGrammar() *cppGrammar {
	return &cppGrammar{language: sitter.NewLanguage(cpp.Language())}
}

func (g *cppGrammar) Language() Language { return LangCpp }

func (g *cppGrammar) Extensions() []string {
	return []string{".cpp", ".cc", ".cxx", ".hpp", ".hxx", ".hh"}
}

func (g *cppGrammar) sitterLanguage(string) *sitter.Language { return g.language }

func (g *cppGrammar) definition(n *sitter.Node, src []byte, sc scope) (Definition, bool) {
	if n.Kind() != "function_definition" {
		return Definition{}, false
	}
	decl := functionDeclarator(n.ChildByFieldName("declarator"))
	if decl == nil {
		return Definition{}, false
	}

	def := Definition{
		Kind:      KindFunction,
		Container: sc.name,
		Exported:  !isStatic(n, src),
	}
	method := sc.typeLike

	target := decl.ChildByFieldName("declarator")
	if target != nil && target.Kind() == "qualified_identifier" {
		// Out-of-line definition: the qualifier names the class.
		var last *sitter.Node
		def.Container, last = qualifiedParts(target, src)
		target = last
		method = def.Container != ""
	}

	switch {
	case target == nil:
		return Definition{}, false
	case target.Kind() == "template_function":
		def.Name = trailingName(target, src)
	default:
		def.Name = extractNodeText(target, src)
	}
	if def.Name == "" {
		return Definition{}, false
	}

	if method {
		def.Kind = KindMethod
		if def.Name == lastSegment(def.Container) {
			def.Kind = KindConstructor
		}
	}
	return def, true
}

func (g *cppGrammar) container(n *sitter.Node, src []byte) (scope, bool) {
	switch n.Kind() {
	case "class_specifier", "struct_specifier", "union_specifier":
		if n.ChildByFieldName("body") == nil {
			return scope{}, false
		}
		name := extractNodeText(n.ChildByFieldName("name"), src)
		return scope{name: name, typeLike: true}, name != ""
	case "namespace_definition":
		name := extractNodeText(n.ChildByFieldName("name"), src)
		return scope{name: name}, name != ""
	}
	return scope{}, false
}

func (g *cppGrammar) callee(n *sitter.Node, src []byte) (string, bool) {
	if n.Kind() != "call_expression" {
		return "", false
	}
	return trailingName(n.ChildByFieldName("function"), src), true
}
