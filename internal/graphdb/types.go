// Package graphdb is the persistent relational store of Files, Symbols,
// and import Edges (spec.md §4.2), backed by SQLite.
package graphdb

// SymbolKind enumerates the structural kinds the indexer extracts.
type SymbolKind string

const (
	KindFunction SymbolKind = "function"
	KindClass    SymbolKind = "class"
	KindMethod   SymbolKind = "method"
	KindUnknown  SymbolKind = "unknown"
)

// File is a row in the files table.
type File struct {
	ID   int64
	Path string
}

// Symbol is a row in the symbols table. Method names are qualified
// "Class.method" per the data model (spec.md §3).
type Symbol struct {
	ID        int64
	File      string
	Name      string
	Kind      SymbolKind
	StartLine int
	EndLine   int
}

// Edge is a row in the edges table; kind is always "import".
type Edge struct {
	From string
	To   string
	Kind string
}
