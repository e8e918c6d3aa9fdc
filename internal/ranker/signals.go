// Package ranker computes the hybrid semantic/lexical/graph/reranker score
// for each candidate and packs the ranked list into a token budget
// (spec.md §4.7).
package ranker

import (
	"strings"

	"github.com/surgebase/porter2"

	"github.com/codectx-dev/codectx/internal/semanticengine"
)

// Weights mirrors config.WeightsDefault without importing internal/config,
// keeping this package dependency-free of configuration loading.
type Weights struct {
	Semantic float64
	Lexical  float64
	Graph    float64
	Reranker float64
}

// Signals is the per-candidate breakdown that fed the composite score.
type Signals struct {
	Semantic float64
	Lexical  float64
	Graph    float64
	Reranker float64
}

// ScoredCandidate pairs a semantic engine candidate with its computed
// signals and composite score.
type ScoredCandidate struct {
	semanticengine.Candidate
	Signals Signals
	Score   float64
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// lexicalSignal is the share of query terms present as substrings of the
// lower-cased snippet (spec.md §4.7). Both sides are porter2-stemmed before
// the substring test, matching the stemming convention the teacher applies
// everywhere it compares lexical tokens (internal/semantic/stemmer.go).
func lexicalSignal(queryTokens []string, snippet string) float64 {
	if len(queryTokens) == 0 {
		return 0
	}
	lower := stemJoin(strings.Fields(strings.ToLower(snippet)))
	hits := 0
	for _, t := range queryTokens {
		if strings.Contains(lower, porter2.Stem(t)) {
			hits++
		}
	}
	return float64(hits) / float64(len(queryTokens))
}

func stemJoin(words []string) string {
	stemmed := make([]string, len(words))
	for i, w := range words {
		stemmed[i] = porter2.Stem(w)
	}
	return strings.Join(stemmed, " ")
}

// queryTokens lower-cases and splits query on non-word characters,
// filtering empty tokens, matching the lexical signal's token rule.
func queryTokens(query string) []string {
	fields := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		isWord := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_'
		return !isWord
	})
	out := fields[:0:0]
	for _, f := range fields {
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

// graphSignal is degree(file) normalized by maxDegree (the largest degree
// seen in this result set, floored at 1), or 0 when no degree lookup was
// provided.
func graphSignal(file string, degrees map[string]int, maxDegree int) float64 {
	if degrees == nil {
		return 0
	}
	if maxDegree < 1 {
		maxDegree = 1
	}
	return float64(degrees[file]) / float64(maxDegree)
}

func maxDegreeIn(degrees map[string]int) int {
	max := 1
	for _, d := range degrees {
		if d > max {
			max = d
		}
	}
	return max
}
