// Package parsing extracts symbols and import edges from TypeScript/
// JavaScript source via tree-sitter, with a best-effort secondary pass for
// import resolution using go-fast. This is the sole structurally-analyzed
// language family, per spec.md §1's non-goal on cross-language analysis.
package parsing

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

// Kind mirrors graphdb.SymbolKind without importing it, keeping parsing
// dependency-free of the store layer.
type Kind string

const (
	KindFunction Kind = "function"
	KindClass    Kind = "class"
	KindMethod   Kind = "method"
	KindUnknown  Kind = "unknown"
)

// Symbol is one extracted top-level function, class, or method. Lines are
// 1-based inclusive, and include the attached leading doc comment in the
// start position (spec.md §4.4 step 2).
type Symbol struct {
	Name      string
	Kind      Kind
	StartLine int
	EndLine   int
}

// ImportRef is a raw import/re-export source string as written in the
// file, resolved to an in-tree file by the caller (internal/indexer owns
// path resolution, since it knows the project root and extension set).
type ImportRef struct {
	Source string
}

// ParseResult is the structural extraction for one file.
type ParseResult struct {
	Symbols []Symbol
	Imports []ImportRef
}

const queryString = `
(function_declaration name: (identifier) @function.name) @function
(generator_function_declaration name: (identifier) @function.name) @function
(variable_declarator
	name: (identifier) @function.name
	value: [(arrow_function) (function_expression) (generator_function)]) @function
(method_definition name: (property_identifier) @method.name) @method
(class_declaration name: (_) @class.name) @class
(import_statement source: (string) @import.source) @import
(export_statement source: (string) @import.source) @import
`

// Parser wraps one tree-sitter parser+query pair per extension family.
type Parser struct {
	ts *tree_sitter.Parser
	js *tree_sitter.Parser
	tsQuery *tree_sitter.Query
	jsQuery *tree_sitter.Query
}

// New builds the TypeScript and JavaScript grammars (grounded verbatim on
// the teacher's internal/parser/parser_language_setup.go, narrowed to the
// two grammars this spec's single primary language needs).
func New() (*Parser, error) {
	p := &Parser{}

	tsParser := tree_sitter.NewParser()
	tsLang := tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript())
	if err := tsParser.SetLanguage(tsLang); err != nil {
		return nil, err
	}
	tsQuery, _ := tree_sitter.NewQuery(tsLang, queryString)
	p.ts, p.tsQuery = tsParser, tsQuery

	jsParser := tree_sitter.NewParser()
	jsLang := tree_sitter.NewLanguage(tree_sitter_javascript.Language())
	if err := jsParser.SetLanguage(jsLang); err != nil {
		return nil, err
	}
	jsQuery, _ := tree_sitter.NewQuery(jsLang, queryString)
	p.js, p.jsQuery = jsParser, jsQuery

	return p, nil
}

// Close releases the underlying tree-sitter parsers.
func (p *Parser) Close() {
	if p.ts != nil {
		p.ts.Close()
	}
	if p.js != nil {
		p.js.Close()
	}
}

// Parse extracts symbols and raw import sources from content, selecting the
// grammar by extension ("ts"/"tsx" use TypeScript, "js"/"jsx" use
// JavaScript). An unrecognized extension or a parse failure returns a
// ParseResult with no symbols — the per-file "no symbols" demotion of
// spec.md §4.4's failure semantics — never an error.
func (p *Parser) Parse(ext string, content []byte) ParseResult {
	var parser *tree_sitter.Parser
	var query *tree_sitter.Query
	switch strings.TrimPrefix(ext, ".") {
	case "ts", "tsx":
		parser, query = p.ts, p.tsQuery
	case "js", "jsx":
		parser, query = p.js, p.jsQuery
	default:
		return ParseResult{}
	}
	if parser == nil || query == nil {
		return ParseResult{}
	}

	tree := parser.Parse(content, nil)
	if tree == nil {
		return ParseResult{}
	}
	defer tree.Close()

	result := extract(query, tree.RootNode(), content)
	result.Imports = mergeImports(result.Imports, FallbackImports(content))
	return result
}

func extract(query *tree_sitter.Query, root *tree_sitter.Node, content []byte) ParseResult {
	qc := tree_sitter.NewQueryCursor()
	defer qc.Close()

	matches := qc.Matches(query, root, content)
	names := query.CaptureNames()

	var out ParseResult
	nameByCapture := make(map[string]string, 4)

	for {
		match := matches.Next()
		if match == nil {
			break
		}
		for k := range nameByCapture {
			delete(nameByCapture, k)
		}
		for _, c := range match.Captures {
			cname := names[c.Index]
			if strings.HasSuffix(cname, ".name") {
				nameByCapture[cname] = nodeText(c.Node, content)
			}
		}
		for _, c := range match.Captures {
			node := c.Node
			switch names[c.Index] {
			case "function":
				out.Symbols = append(out.Symbols, symbolFrom(node, content, KindFunction, nameByCapture["function.name"]))
			case "method":
				out.Symbols = append(out.Symbols, symbolFrom(node, content, KindMethod, nameByCapture["method.name"]))
			case "class":
				out.Symbols = append(out.Symbols, symbolFrom(node, content, KindClass, nameByCapture["class.name"]))
			case "import":
				if src, ok := importSource(node, content); ok {
					out.Imports = append(out.Imports, ImportRef{Source: src})
				}
			}
		}
	}

	qualifyMethods(out.Symbols)
	return out
}

func nodeText(n tree_sitter.Node, content []byte) string {
	return string(content[n.StartByte():n.EndByte()])
}

func symbolFrom(n tree_sitter.Node, content []byte, kind Kind, name string) Symbol {
	start := int(n.StartPosition().Row) + 1
	end := int(n.EndPosition().Row) + 1
	// Pull the start up over comments directly above the declaration (or
	// above its export/variable-declaration wrapper).
	anchor := &n
	for p := anchor.Parent(); p != nil && (p.Kind() == "export_statement" || p.Kind() == "lexical_declaration" || p.Kind() == "variable_declaration"); p = anchor.Parent() {
		anchor = p
	}
	for prev := anchor.PrevSibling(); prev != nil && prev.Kind() == "comment" && int(prev.EndPosition().Row)+2 >= start; prev = prev.PrevSibling() {
		start = int(prev.StartPosition().Row) + 1
	}
	if start > end {
		start, end = end, start
	}
	return Symbol{Name: name, Kind: kind, StartLine: start, EndLine: end}
}

func importSource(n tree_sitter.Node, content []byte) (string, bool) {
	for i := uint(0); i < n.ChildCount(); i++ {
		child := n.Child(i)
		if child == nil {
			continue
		}
		if child.Kind() == "string" {
			raw := nodeText(*child, content)
			return strings.Trim(raw, `'"`+"`"), true
		}
	}
	return "", false
}

// qualifyMethods rewrites bare method names to "EnclosingClass.method" by
// nesting order: a method whose line range falls within a class's range is
// qualified by that class (spec.md §3: "Method names are qualified
// Class.method").
func qualifyMethods(symbols []Symbol) {
	var classes []Symbol
	for _, s := range symbols {
		if s.Kind == KindClass {
			classes = append(classes, s)
		}
	}
	for i, s := range symbols {
		if s.Kind != KindMethod {
			continue
		}
		var enclosing *Symbol
		for ci := range classes {
			c := &classes[ci]
			if c.StartLine <= s.StartLine && s.EndLine <= c.EndLine {
				if enclosing == nil || c.StartLine > enclosing.StartLine {
					enclosing = c
				}
			}
		}
		if enclosing != nil && !strings.Contains(s.Name, ".") {
			symbols[i].Name = enclosing.Name + "." + s.Name
		}
	}
}
