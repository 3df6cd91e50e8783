package parsers

import (
	"bytes"
	"strings"
	"unicode/utf8"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// scope is the innermost named container enclosing a node.
// typeLike distinguishes classes, impl blocks and structs from namespaces and modules.
type scope struct {
	name     string
	typeLike bool
}

// grammar is implemented once per language. The shared walker drives it.
//
// definition reports whether n is a named definition; anonymous functions
// return false so their calls fall through to the enclosing definition.
// container reports whether n opens a scope for the definitions below it.
// callee reports the trailing identifier when n is a call site.
type grammar interface {
	Language() Language
	Extensions() []string
	sitterLanguage(ext string) *sitter.Language
	definition(n *sitter.Node, src []byte, sc scope) (Definition, bool)
	container(n *sitter.Node, src []byte) (scope, bool)
	callee(n *sitter.Node, src []byte) (string, bool)
}

// extract parses source with g and walks the tree once.
func extract(g grammar, path, ext string, source []byte) (*FileExtraction, error) {
	if !utf8.Valid(source) {
		return nil, &ParseError{Path: path, Reason: "source is not valid UTF-8"}
	}

	parser := sitter.NewParser()
	defer parser.Close()

	if err := parser.SetLanguage(g.sitterLanguage(ext)); err != nil {
		return nil, &ParseError{Path: path, Reason: err.Error()}
	}

	tree := parser.Parse(source, nil)
	if tree == nil {
		return nil, &ParseError{Path: path, Reason: "tree-sitter returned no tree"}
	}
	defer tree.Close()

	root := tree.RootNode()
	w := &walker{
		g:      g,
		source: source,
		out: &FileExtraction{
			Path:            path,
			Language:        g.Language(),
			Definitions:     []Definition{},
			Calls:           []CallSite{},
			HasSyntaxErrors: root.HasError(),
		},
	}
	w.walk(root, scope{}, -1)

	return w.out, nil
}

type walker struct {
	g      grammar
	source []byte
	out    *FileExtraction
}

// walk visits n in document order. caller is the index of the innermost
// named definition enclosing n, or -1 at file level.
func (w *walker) walk(n *sitter.Node, sc scope, caller int) {
	if n == nil {
		return
	}

	childScope := sc
	childCaller := caller

	if def, ok := w.g.definition(n, w.source, sc); ok {
		w.fillSpan(&def, n)
		w.out.Definitions = append(w.out.Definitions, def)
		childCaller = len(w.out.Definitions) - 1
		// Definitions nested in a body are local, not members of sc.
		childScope = scope{}
	} else if s, ok := w.g.container(n, w.source); ok {
		childScope = s
	}

	if name, ok := w.g.callee(n, w.source); ok && caller >= 0 && name != "" {
		pos := n.StartPosition()
		w.out.Calls = append(w.out.Calls, CallSite{
			Callee: name,
			Line:   int(pos.Row) + 1,
			Column: int(pos.Column),
			Caller: caller,
		})
	}

	for i := uint(0); i < n.ChildCount(); i++ {
		w.walk(n.Child(i), childScope, childCaller)
	}
}

func (w *walker) fillSpan(def *Definition, n *sitter.Node) {
	def.StartLine = int(n.StartPosition().Row) + 1
	def.EndLine = int(n.EndPosition().Row) + 1
	def.StartByte = int(n.StartByte())
	def.EndByte = int(n.EndByte())
	def.Signature = signatureAt(w.source, def.StartByte)
	def.Excerpt = excerpt(w.source[def.StartByte:def.EndByte])
}

// signatureAt returns the source line containing offset, trimmed, with an
// opening brace and anything after it removed.
func signatureAt(source []byte, offset int) string {
	start := bytes.LastIndexByte(source[:offset], '\n') + 1
	end := bytes.IndexByte(source[offset:], '\n')
	if end < 0 {
		end = len(source)
	} else {
		end += offset
	}

	line := string(source[start:end])
	if i := strings.Index(line, "{"); i >= 0 {
		line = line[:i]
	}
	line = strings.TrimSpace(line)

	if len(line) > MaxSignatureLength {
		line = truncateUTF8(line, MaxSignatureLength) + "..."
	}
	return line
}

func excerpt(code []byte) string {
	if len(code) <= MaxExcerptBytes {
		return string(code)
	}
	return truncateUTF8(string(code), MaxExcerptBytes)
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune.
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// extractNodeText extracts the text content of a tree-sitter node.
func extractNodeText(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	return string(source[node.StartByte():node.EndByte()])
}

// findChildByType finds the first child node with the given type.
func findChildByType(node *sitter.Node, nodeType string) *sitter.Node {
	if node == nil {
		return nil
	}

	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child.Kind() == nodeType {
			return child
		}
	}
	return nil
}

// hasChildOfType reports whether any direct child (named or anonymous) has the given type.
func hasChildOfType(node *sitter.Node, nodeType string) bool {
	return findChildByType(node, nodeType) != nil
}

// trailingName reduces a callee expression to its last identifier:
// a.b.c -> c, ns::f -> f, obj->m -> m, f::<T> -> f, f<int> -> f.
// Shapes without a name (calls on call results, subscripts, parenthesized
// lambdas) yield "".
func trailingName(n *sitter.Node, src []byte) string {
	if n == nil {
		return ""
	}

	switch n.Kind() {
	case "identifier", "field_identifier", "property_identifier",
		"private_property_identifier", "type_identifier", "destructor_name",
		"operator_name", "constant", "simple_identifier":
		return extractNodeText(n, src)

	case "member_expression":
		return trailingName(n.ChildByFieldName("property"), src)
	case "attribute":
		return trailingName(n.ChildByFieldName("attribute"), src)
	case "selector_expression":
		return trailingName(n.ChildByFieldName("field"), src)
	case "field_expression":
		return trailingName(n.ChildByFieldName("field"), src)
	case "scoped_identifier", "qualified_identifier", "template_function", "template_method":
		return trailingName(n.ChildByFieldName("name"), src)
	case "generic_function":
		return trailingName(n.ChildByFieldName("function"), src)
	case "scoped_type_identifier":
		return trailingName(n.ChildByFieldName("name"), src)
	case "generic_type":
		if t := n.ChildByFieldName("type"); t != nil {
			return trailingName(t, src)
		}
		return trailingName(findChildByType(n, "type_identifier"), src)
	}

	return ""
}

// qualifiedParts splits a C++ qualified_identifier into its scope and final name.
func qualifiedParts(n *sitter.Node, src []byte) (string, *sitter.Node) {
	var parts []string
	for n != nil && n.Kind() == "qualified_identifier" {
		if s := n.ChildByFieldName("scope"); s != nil {
			parts = append(parts, extractNodeText(s, src))
		}
		n = n.ChildByFieldName("name")
	}
	return strings.Join(parts, "::"), n
}

// lastSegment returns the part of a "::" or "." qualified name after the final separator.
func lastSegment(name string) string {
	if i := strings.LastIndex(name, "::"); i >= 0 {
		name = name[i+2:]
	}
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return name
}
