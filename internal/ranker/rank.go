package ranker

import (
	"sort"

	"github.com/codectx-dev/codectx/internal/semanticengine"
)

// Rank computes per-candidate signals and a composite weighted score, then
// sorts descending with deterministic tie-breaking: original semantic
// score, then file, then startLine (spec.md §4.7).
//
// rerankerScores and degrees may be nil: a nil rerankerScores map makes the
// reranker signal equal to the semantic signal (spec.md §4.6's fallback);
// a nil degrees map makes the graph signal 0 for every candidate.
func Rank(candidates []semanticengine.Candidate, query string, weights Weights, rerankerScores map[string]float64, degrees map[string]int) []ScoredCandidate {
	tokens := queryTokens(query)
	maxDegree := maxDegreeIn(degrees)

	scored := make([]ScoredCandidate, 0, len(candidates))
	for _, c := range candidates {
		semantic := clamp01(c.Score)
		lexical := lexicalSignal(tokens, c.Snippet)
		graph := graphSignal(c.File, degrees, maxDegree)

		reranker := semantic
		if rerankerScores != nil {
			if v, ok := rerankerScores[c.ID()]; ok {
				reranker = v
			}
		}

		signals := Signals{Semantic: semantic, Lexical: lexical, Graph: graph, Reranker: reranker}
		score := weights.Semantic*signals.Semantic +
			weights.Lexical*signals.Lexical +
			weights.Graph*signals.Graph +
			weights.Reranker*signals.Reranker

		scored = append(scored, ScoredCandidate{Candidate: c, Signals: signals, Score: score})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		a, b := scored[i], scored[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Signals.Semantic != b.Signals.Semantic {
			return a.Signals.Semantic > b.Signals.Semantic
		}
		if a.File != b.File {
			return a.File < b.File
		}
		return a.StartLine < b.StartLine
	})
	return scored
}
