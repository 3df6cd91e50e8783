package parsers

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
	typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

// ecmaGrammar covers JavaScript and TypeScript, whose definition and call
// shapes are the same. Interface method signatures have no body and are skipped.
type ecmaGrammar struct {
	lang       Language
	extensions []string
	languages  map[string]*sitter.Language // by extension
	fallback   *sitter.Language
}

func newTypeScriptGrammar() *ecmaGrammar {
	ts := sitter.NewLanguage(typescript.LanguageTypescript())
	return &ecmaGrammar{
		lang:       LangTypeScript,
		extensions: []string{".ts", ".tsx"},
		languages: map[string]*sitter.Language{
			".ts":  ts,
			".tsx": sitter.NewLanguage(typescript.LanguageTSX()),
		},
		fallback: ts,
	}
}

func (g *ecmaGrammar) Language() Language   { return g.lang }
func (g *ecmaGrammar) Extensions() []string { return g.extensions }

func (g *ecmaGrammar) sitterLanguage(ext string) *sitter.Language {
	if l, ok := g.languages[ext]; ok {
		return l
	}
	return g.fallback
}

func (g *ecmaGrammar) definition(n *sitter.Node, src []byte, sc scope) (Definition, bool) {
	def := Definition{Kind: KindFunction}

	switch n.Kind() {
	case "function_declaration", "generator_function_declaration":
		def.Name = extractNodeText(n.ChildByFieldName("name"), src)

	case "method_definition":
		def.Name = methodName(n.ChildByFieldName("name"), src)
		def.Container = sc.name
		def.Kind = KindMethod
		if def.Name == "constructor" {
			def.Kind = KindConstructor
		}

	case "arrow_function", "function_expression", "function", "generator_function":
		var member bool
		def.Name, member = boundName(n, src)
		if member && sc.typeLike {
			def.Container = sc.name
			def.Kind = KindMethod
		}

	default:
		return Definition{}, false
	}

	if def.Name == "" {
		return Definition{}, false
	}
	def.Exported = insideExport(n)
	return def, true
}

func (g *ecmaGrammar) container(n *sitter.Node, src []byte) (scope, bool) {
	switch n.Kind() {
	case "class_declaration", "class", "abstract_class_declaration":
		name := extractNodeText(n.ChildByFieldName("name"), src)
		return scope{name: name, typeLike: true}, name != ""
	}
	return scope{}, false
}

func (g *ecmaGrammar) callee(n *sitter.Node, src []byte) (string, bool) {
	if n.Kind() != "call_expression" {
		return "", false
	}
	return trailingName(n.ChildByFieldName("function"), src), true
}

// methodName accepts plain, private (#x) and string-literal method names;
// computed names are skipped.
func methodName(n *sitter.Node, src []byte) string {
	if n == nil {
		return ""
	}
	switch n.Kind() {
	case "property_identifier", "private_property_identifier", "identifier":
		return extractNodeText(n, src)
	case "string":
		text := extractNodeText(n, src)
		if len(text) >= 2 {
			return text[1 : len(text)-1]
		}
	}
	return ""
}

// boundName names an anonymous function by what it is assigned to:
// const f = () => {}, {f: function() {}}, obj.f = () => {}, or a class field.
// member reports a class field binding.
func boundName(n *sitter.Node, src []byte) (string, bool) {
	parent := n.Parent()
	if parent == nil {
		return "", false
	}

	switch parent.Kind() {
	case "variable_declarator":
		name := parent.ChildByFieldName("name")
		if name != nil && name.Kind() == "identifier" {
			return extractNodeText(name, src), false
		}
	case "pair":
		return methodName(parent.ChildByFieldName("key"), src), false
	case "assignment_expression":
		return trailingName(parent.ChildByFieldName("left"), src), false
	case "public_field_definition":
		return methodName(parent.ChildByFieldName("name"), src), true
	case "field_definition":
		return methodName(parent.ChildByFieldName("property"), src), true
	}
	return "", false
}

// insideExport reports whether n sits under an export statement without an
// intervening function body.
func insideExport(n *sitter.Node) bool {
	for p := n.Parent(); p != nil; p = p.Parent() {
		switch p.Kind() {
		case "export_statement":
			return true
		case "statement_block", "program":
			return false
		}
	}
	return false
}
