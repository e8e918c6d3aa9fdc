package ranker

import (
	"testing"

	"github.com/codectx-dev/codectx/internal/semanticengine"
)

func defaultWeights() Weights {
	return Weights{Semantic: 0.6, Lexical: 0.25, Graph: 0.1, Reranker: 0.05}
}

func TestRankSortsByCompositeScoreDescending(t *testing.T) {
	candidates := []semanticengine.Candidate{
		{File: "low.ts", Symbol: "f", StartLine: 1, Score: 0.1, Snippet: "unrelated"},
		{File: "high.ts", Symbol: "g", StartLine: 1, Score: 0.9, Snippet: "parse import statement"},
	}
	ranked := Rank(candidates, "parse import", defaultWeights(), nil, nil)
	if ranked[0].File != "high.ts" {
		t.Fatalf("expected high.ts first, got %s", ranked[0].File)
	}
}

func TestRankTieBreaksBySemanticThenFileThenStartLine(t *testing.T) {
	candidates := []semanticengine.Candidate{
		{File: "b.ts", Symbol: "f", StartLine: 5, Score: 0, Snippet: ""},
		{File: "a.ts", Symbol: "g", StartLine: 1, Score: 0, Snippet: ""},
		{File: "a.ts", Symbol: "h", StartLine: 2, Score: 0, Snippet: ""},
	}
	weights := Weights{}
	ranked := Rank(candidates, "", weights, nil, nil)
	if len(ranked) != 3 {
		t.Fatalf("expected 3 results, got %d", len(ranked))
	}
	if ranked[0].File != "a.ts" || ranked[0].StartLine != 1 {
		t.Fatalf("expected a.ts:1 first, got %s:%d", ranked[0].File, ranked[0].StartLine)
	}
	if ranked[1].File != "a.ts" || ranked[1].StartLine != 2 {
		t.Fatalf("expected a.ts:2 second, got %s:%d", ranked[1].File, ranked[1].StartLine)
	}
	if ranked[2].File != "b.ts" {
		t.Fatalf("expected b.ts last, got %s", ranked[2].File)
	}
}

func TestRankUsesRerankerScoreWhenPresent(t *testing.T) {
	candidates := []semanticengine.Candidate{
		{File: "a.ts", Symbol: "f", StartLine: 1, Score: 0.2},
	}
	id := candidates[0].ID()
	ranked := Rank(candidates, "", Weights{Reranker: 1}, map[string]float64{id: 0.95}, nil)
	if ranked[0].Signals.Reranker != 0.95 {
		t.Fatalf("expected reranker signal 0.95, got %v", ranked[0].Signals.Reranker)
	}
}

func TestRankFallsBackToSemanticWithoutRerankerScores(t *testing.T) {
	candidates := []semanticengine.Candidate{
		{File: "a.ts", Symbol: "f", StartLine: 1, Score: 0.3},
	}
	ranked := Rank(candidates, "", Weights{Reranker: 1}, nil, nil)
	if ranked[0].Signals.Reranker != 0.3 {
		t.Fatalf("expected reranker signal to fall back to semantic 0.3, got %v", ranked[0].Signals.Reranker)
	}
}
