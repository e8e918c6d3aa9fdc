// Package semanticengine is the out-of-process semantic search client plus
// its in-process fallback, per spec.md §4.6. The orchestrator treats both
// identically through the Engine interface: an external HTTP engine when
// reachable at startup, or the token-frequency fallback when it is not.
package semanticengine

import (
	"context"
	"strconv"
)

// Candidate is one semantic search hit, in the shape the external engine's
// /search endpoint and the fallback engine both return.
type Candidate struct {
	File      string  `json:"file"`
	Symbol    string  `json:"symbol"`
	StartLine int     `json:"startLine"`
	EndLine   int     `json:"endLine"`
	Score     float64 `json:"score"`
	Snippet   string  `json:"snippet"`
}

// ID is the candidate's stable identity for reranker correlation.
func (c Candidate) ID() string {
	return c.File + ":" + c.Symbol + ":" + strconv.Itoa(c.StartLine)
}

// Engine performs a semantic search over the indexed snippet manifest.
// Failed requests return an empty candidate set rather than an error -
// search must never crash the RPC surface (spec.md §4.6).
type Engine interface {
	Search(ctx context.Context, query string, topK int) ([]Candidate, error)
}
