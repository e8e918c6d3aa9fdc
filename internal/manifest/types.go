// Package manifest manages the snippet manifest: two JSON documents
// (FileMeta list, SemanticEntry list) rewritten atomically at the end of
// every indexing pass, plus an optional ANN sink for the semantic text.
package manifest

// FileMeta is the file-level record persisted to index.json.
type FileMeta struct {
	Path      string            `json:"path"`
	Content   string            `json:"content"`
	MtimeMs   int64             `json:"mtimeMs"`
	Symbols   []SymbolMeta      `json:"symbols"`
	Namespace string            `json:"namespace,omitempty"`
	Tenant    string            `json:"tenant,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// SymbolMeta mirrors graphdb.Symbol in the manifest's own JSON shape (the
// manifest and graph store are independently rewritten but must agree on
// file sets per invariant I5).
type SymbolMeta struct {
	Name      string `json:"name"`
	Kind      string `json:"kind"`
	StartLine int    `json:"startLine"`
	EndLine   int    `json:"endLine"`
}

// SemanticEntry is one chunk of symbol text persisted to
// semantic_entries.json. ID is "<file>:<symbol>" or
// "<file>:<symbol>:chunk<N>".
type SemanticEntry struct {
	ID        string            `json:"id"`
	File      string            `json:"file"`
	Symbol    string            `json:"symbol"`
	StartLine int               `json:"startLine"`
	EndLine   int               `json:"endLine"`
	Text      string            `json:"text"`
	Namespace string            `json:"namespace,omitempty"`
	Tenant    string            `json:"tenant,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}
