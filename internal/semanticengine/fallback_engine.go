package semanticengine

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/surgebase/porter2"

	"github.com/codectx-dev/codectx/internal/manifest"
)

// FallbackEngine is the in-process engine spec.md §4.6 requires when the
// external engine is unreachable at startup: token-frequency scoring over
// the SemanticEntry manifest, returning the same result shape as
// HTTPEngine. Terms are porter2-stemmed before comparison (grounded on the
// teacher's internal/semantic/stemmer.go, which stems both sides of every
// lexical comparison it makes) so "authenticate" and "authentication"
// overlap the way the teacher's own lexical signal treats them - this
// resolves the spec's open question on fallback scoring normalization.
type FallbackEngine struct {
	mu      sync.RWMutex
	entries []manifest.SemanticEntry
}

func NewFallbackEngine() *FallbackEngine {
	return &FallbackEngine{}
}

// SetEntries replaces the corpus the fallback engine searches. The
// orchestrator calls this after every indexing pass.
func (f *FallbackEngine) SetEntries(entries []manifest.SemanticEntry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = entries
}

func (f *FallbackEngine) Search(ctx context.Context, query string, topK int) ([]Candidate, error) {
	queryStems := stemTokens(query)
	if len(queryStems) == 0 || topK <= 0 {
		return nil, nil
	}

	f.mu.RLock()
	entries := f.entries
	f.mu.RUnlock()

	candidates := make([]Candidate, 0, len(entries))
	for _, e := range entries {
		score := overlapScore(queryStems, stemTokens(e.Text))
		if score <= 0 {
			continue
		}
		candidates = append(candidates, Candidate{
			File: e.File, Symbol: e.Symbol, StartLine: e.StartLine, EndLine: e.EndLine,
			Score: score, Snippet: e.Text,
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		if candidates[i].File != candidates[j].File {
			return candidates[i].File < candidates[j].File
		}
		return candidates[i].StartLine < candidates[j].StartLine
	})

	if len(candidates) > topK {
		candidates = candidates[:topK]
	}
	return candidates, nil
}

func stemTokens(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
	stems := make([]string, 0, len(fields))
	for _, f := range fields {
		if f == "" {
			continue
		}
		stems = append(stems, porter2.Stem(f))
	}
	return stems
}

// overlapScore is the share of query stems present in the document's
// stemmed token set, clamped to [0,1].
func overlapScore(queryStems, docStems []string) float64 {
	if len(queryStems) == 0 {
		return 0
	}
	docSet := make(map[string]bool, len(docStems))
	for _, s := range docStems {
		docSet[s] = true
	}
	hits := 0
	for _, q := range queryStems {
		if docSet[q] {
			hits++
		}
	}
	return float64(hits) / float64(len(queryStems))
}
