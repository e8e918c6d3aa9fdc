package orchestrator

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/codectx-dev/codectx/internal/manifest"
	"github.com/codectx-dev/codectx/internal/ranker"
	"github.com/codectx-dev/codectx/internal/semanticengine"
)

type stubEngine struct {
	candidates []semanticengine.Candidate
	err        error
}

func (s *stubEngine) Search(ctx context.Context, query string, topK int) ([]semanticengine.Candidate, error) {
	return s.candidates, s.err
}

type stubWeights struct{ w ranker.Weights }

func (s stubWeights) Current() (ranker.Weights, error) { return s.w, nil }

type failingReranker struct{}

func (failingReranker) Rerank(ctx context.Context, candidates []semanticengine.Candidate) (map[string]float64, error) {
	return nil, errors.New("reranker unreachable")
}

func defaultWeights() ranker.Weights {
	return ranker.Weights{Semantic: 0.6, Lexical: 0.25, Graph: 0.1, Reranker: 0.05}
}

func TestSearchReturnsRankedResults(t *testing.T) {
	engine := &stubEngine{candidates: []semanticengine.Candidate{
		{File: "a.ts", Symbol: "f", StartLine: 1, EndLine: 2, Score: 0.9, Snippet: "function f() {}"},
		{File: "b.ts", Symbol: "g", StartLine: 1, EndLine: 2, Score: 0.1, Snippet: "function g() {}"},
	}}
	o := New(engine, nil, stubWeights{defaultWeights()}, nil, ranker.StrategyGreedy, 0.5, 4)

	results, err := o.Search(context.Background(), "f", 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("expected at least one result")
	}
	if results[0].File != "a.ts" {
		t.Fatalf("expected a.ts ranked first, got %s", results[0].File)
	}
}

func TestSearchEmptyCandidatesReturnsEmptyResult(t *testing.T) {
	engine := &stubEngine{candidates: nil}
	o := New(engine, nil, stubWeights{defaultWeights()}, nil, ranker.StrategyGreedy, 0.5, 4)

	results, err := o.Search(context.Background(), "anything", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected empty results, got %d", len(results))
	}
}

func TestSearchToleratesFailingReranker(t *testing.T) {
	engine := &stubEngine{candidates: []semanticengine.Candidate{
		{File: "a.ts", Symbol: "f", StartLine: 1, Score: 0.5, Snippet: "f"},
	}}
	o := New(engine, failingReranker{}, stubWeights{defaultWeights()}, nil, ranker.StrategyGreedy, 0.5, 4)

	results, err := o.Search(context.Background(), "f", 1)
	if err != nil {
		t.Fatalf("expected Search to tolerate reranker failure, got %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
}

func TestSearchPropagatesEngineError(t *testing.T) {
	engine := &stubEngine{err: errors.New("engine down")}
	o := New(engine, nil, stubWeights{defaultWeights()}, nil, ranker.StrategyGreedy, 0.5, 4)

	_, err := o.Search(context.Background(), "f", 1)
	if err == nil {
		t.Fatal("expected error when engine search fails")
	}
}

func TestGetFileReturnsLoadedMeta(t *testing.T) {
	o := New(&stubEngine{}, nil, stubWeights{defaultWeights()}, nil, ranker.StrategyGreedy, 0.5, 4)
	o.LoadFiles([]manifest.FileMeta{{Path: "a.ts", Content: "contents"}})

	meta, err := o.GetFile("a.ts")
	if err != nil {
		t.Fatalf("GetFile: %v", err)
	}
	if meta.Content != "contents" {
		t.Fatalf("expected loaded content, got %q", meta.Content)
	}
}

func TestGetFileUnindexedReturnsErrNotExist(t *testing.T) {
	o := New(&stubEngine{}, nil, stubWeights{defaultWeights()}, nil, ranker.StrategyGreedy, 0.5, 4)

	_, err := o.GetFile("missing.ts")
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected ErrNotExist, got %v", err)
	}
}
