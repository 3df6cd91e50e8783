package parsers

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
	c "github.com/tree-sitter/tree-sitter-c/bindings/go"
)

// cGrammar extracts C function definitions. Headers (.h) are treated as C.
type cGrammar struct {
	language *sitter.Language
}

func newCGrammar() *cGrammar {
	return &cGrammar{language: sitter.NewLanguage(c.Language())}
}

func (g *cGrammar) Language() Language                    { return LangC }
func (g *cGrammar) Extensions() []string                  { return []string{".c", ".h"} }
func (g *cGrammar) sitterLanguage(string) *sitter.Language { return g.language }

func (g *cGrammar) definition(n *sitter.Node, src []byte, _ scope) (Definition, bool) {
	if n.Kind() != "function_definition" {
		return Definition{}, false
	}
	decl := functionDeclarator(n.ChildByFieldName("declarator"))
	if decl == nil {
		return Definition{}, false
	}
	name := trailingName(decl.ChildByFieldName("declarator"), src)
	if name == "" {
		return Definition{}, false
	}

	return Definition{
		Name:     name,
		Kind:     KindFunction,
		Exported: !isStatic(n, src),
	}, true
}

func (g *cGrammar) container(*sitter.Node, []byte) (scope, bool) {
	return scope{}, false
}

func (g *cGrammar) callee(n *sitter.Node, src []byte) (string, bool) {
	if n.Kind() != "call_expression" {
		return "", false
	}
	return trailingName(n.ChildByFieldName("function"), src), true
}

// functionDeclarator unwraps pointer, reference and parenthesized declarators
// down to the function_declarator, e.g. for "char *name(void)".
func functionDeclarator(n *sitter.Node) *sitter.Node {
	for n != nil {
		switch n.Kind() {
		case "function_declarator":
			return n
		case "pointer_declarator", "reference_declarator", "parenthesized_declarator", "attributed_declarator":
			next := n.ChildByFieldName("declarator")
			if next == nil && n.NamedChildCount() > 0 {
				next = n.NamedChild(n.NamedChildCount() - 1)
			}
			n = next
		default:
			return nil
		}
	}
	return nil
}

// isStatic reports a "static" storage class on a definition.
func isStatic(n *sitter.Node, src []byte) bool {
	for i := uint(0); i < n.ChildCount(); i++ {
		child := n.Child(i)
		if child.Kind() == "storage_class_specifier" && extractNodeText(child, src) == "static" {
			return true
		}
	}
	return false
}
