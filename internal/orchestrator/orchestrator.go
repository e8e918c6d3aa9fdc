// Package orchestrator composes the profiler, semantic engine, reranker,
// ranker, and packer into the single search() and getFile() operations
// that the RPC surface calls into (spec.md §4.9).
package orchestrator

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/codectx-dev/codectx/internal/errs"
	"github.com/codectx-dev/codectx/internal/graphdb"
	"github.com/codectx-dev/codectx/internal/manifest"
	"github.com/codectx-dev/codectx/internal/profiler"
	"github.com/codectx-dev/codectx/internal/ranker"
	"github.com/codectx-dev/codectx/internal/semanticengine"
)

// Reranker is the subset of semanticengine.RerankClient the orchestrator
// needs; nil disables reranking.
type Reranker interface {
	Rerank(ctx context.Context, candidates []semanticengine.Candidate) (map[string]float64, error)
}

// WeightsSource supplies the current ranking weights for every query, so
// feedback-driven updates take effect without restarting the orchestrator.
type WeightsSource interface {
	Current() (ranker.Weights, error)
}

// SearchResult is one packed, ranked hit returned to the caller.
type SearchResult struct {
	File      string            `json:"file"`
	Symbol    string            `json:"symbol"`
	StartLine int               `json:"startLine"`
	EndLine   int               `json:"endLine"`
	Snippet   string            `json:"snippet"`
	Score     float64           `json:"score"`
	Signals   ranker.Signals    `json:"signals"`
}

// Orchestrator wires C6-C7-C8 into search() and exposes getFile() over an
// in-memory FileMeta map loaded once at startup.
type Orchestrator struct {
	engine   semanticengine.Engine
	reranker Reranker
	weights  WeightsSource
	graph    *graphdb.Store
	packOpts profiler.Preset // only TokenBudget/Note are read from the preset; packing strategy is fixed per deployment

	strategy      ranker.Strategy
	mmrLambda     float64
	charsPerToken int

	mu    sync.RWMutex
	files map[string]manifest.FileMeta
}

// New builds an Orchestrator. strategy selects the packing algorithm
// ("greedy" or "mmr"); charsPerToken defaults to 4 when <= 0.
func New(engine semanticengine.Engine, reranker Reranker, weights WeightsSource, graph *graphdb.Store, strategy ranker.Strategy, mmrLambda float64, charsPerToken int) *Orchestrator {
	if charsPerToken <= 0 {
		charsPerToken = 4
	}
	return &Orchestrator{
		engine:        engine,
		reranker:      reranker,
		weights:       weights,
		graph:         graph,
		strategy:      strategy,
		mmrLambda:     mmrLambda,
		charsPerToken: charsPerToken,
		files:         map[string]manifest.FileMeta{},
	}
}

// LoadFiles populates the in-memory FileMeta map read by getFile. Called
// once at startup and after every indexing pass completes (spec.md §5:
// index-update completion happens-before any subsequent query).
func (o *Orchestrator) LoadFiles(metas []manifest.FileMeta) {
	next := make(map[string]manifest.FileMeta, len(metas))
	for _, m := range metas {
		next[m.Path] = m
	}
	o.mu.Lock()
	o.files = next
	o.mu.Unlock()
}

// GetFile returns the indexed content of path. A file not present in the
// FileMeta map reports os.ErrNotExist (spec.md §4.9: "ENOENT signals the
// file is not indexed").
func (o *Orchestrator) GetFile(path string) (manifest.FileMeta, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	meta, ok := o.files[path]
	if !ok {
		return manifest.FileMeta{}, fmt.Errorf("get file %s: %w", path, os.ErrNotExist)
	}
	return meta, nil
}

// Search runs the full query pipeline: profile -> fetch -> rerank (best
// effort) -> rank -> pack -> clamp.
func (o *Orchestrator) Search(ctx context.Context, query string, requestedTopK int) (result []SearchResult, err error) {
	defer errs.Recover(&err)

	profile := profiler.Profile(query, requestedTopK)

	fetchSize := profile.EffectiveTopK
	if requestedTopK > fetchSize {
		fetchSize = requestedTopK
	}

	candidates, err := o.engine.Search(ctx, query, fetchSize)
	if err != nil {
		return nil, fmt.Errorf("semantic search: %w", err)
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	var rerankerScores map[string]float64
	if o.reranker != nil {
		if scores, rerankErr := o.reranker.Rerank(ctx, candidates); rerankErr == nil {
			rerankerScores = scores
		}
		// a failed rerank call falls back to the semantic signal inside
		// ranker.Rank; it must never fail the search.
	}

	degrees := o.degreesFor(ctx, candidates)

	weights, err := o.weights.Current()
	if err != nil {
		return nil, fmt.Errorf("load weights: %w", err)
	}

	ranked := ranker.Rank(candidates, query, weights, rerankerScores, degrees)

	packed := ranker.Pack(ranked, ranker.PackOptions{
		Strategy:      o.strategy,
		TokenBudget:   profile.Preset.TokenBudget,
		CharsPerToken: o.charsPerToken,
		MMRLambda:     o.mmrLambda,
		EffectiveTopK: profile.EffectiveTopK,
	})

	if len(packed) > profile.EffectiveTopK {
		packed = packed[:profile.EffectiveTopK]
	}

	out := make([]SearchResult, 0, len(packed))
	for _, p := range packed {
		out = append(out, SearchResult{
			File:      p.File,
			Symbol:    p.Symbol,
			StartLine: p.StartLine,
			EndLine:   p.EndLine,
			Snippet:   p.Snippet,
			Score:     p.Score,
			Signals:   p.Signals,
		})
	}
	return out, nil
}

// degreesFor looks up graph degree for every distinct file among
// candidates; a nil graph store (no graph.db configured) yields a nil map,
// which ranker.graphSignal treats as "signal always 0".
func (o *Orchestrator) degreesFor(ctx context.Context, candidates []semanticengine.Candidate) map[string]int {
	if o.graph == nil {
		return nil
	}
	degrees := make(map[string]int, len(candidates))
	seen := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		if seen[c.File] {
			continue
		}
		seen[c.File] = true
		d, err := o.graph.Degree(ctx, c.File)
		if err != nil {
			continue // missing degree just reads as 0 for that file
		}
		degrees[c.File] = d
	}
	return degrees
}
