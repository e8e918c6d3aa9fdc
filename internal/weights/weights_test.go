package weights

import (
	"testing"
)

func TestNewCreatesDefaultsWhenMissing(t *testing.T) {
	dir := t.TempDir()
	m, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	w, err := m.Current()
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	d := Default()
	if w != d {
		t.Fatalf("expected defaults %+v, got %+v", d, w)
	}
}

func TestFeedbackUpIncreasesSemanticDecreasesLexical(t *testing.T) {
	dir := t.TempDir()
	m, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	before := Default()
	after, err := m.Feedback(FeedbackUp)
	if err != nil {
		t.Fatalf("Feedback: %v", err)
	}
	if after.Semantic <= before.Semantic {
		t.Fatalf("expected semantic to rise, before=%v after=%v", before.Semantic, after.Semantic)
	}
	if after.Lexical >= before.Lexical {
		t.Fatalf("expected lexical to fall, before=%v after=%v", before.Lexical, after.Lexical)
	}
}

func TestFeedbackRenormalizesToSumOne(t *testing.T) {
	dir := t.TempDir()
	m, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	after, err := m.Feedback(FeedbackDown)
	if err != nil {
		t.Fatalf("Feedback: %v", err)
	}
	sum := after.Semantic + after.Lexical + after.Graph + after.Reranker
	if diff := sum - 1; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("expected weights to sum to 1, got %v", sum)
	}
}

func TestFeedbackPersistsAcrossManagers(t *testing.T) {
	dir := t.TempDir()
	m1, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	want, err := m1.Feedback(FeedbackUp)
	if err != nil {
		t.Fatalf("Feedback: %v", err)
	}

	m2, err := New(dir)
	if err != nil {
		t.Fatalf("New second manager: %v", err)
	}
	got, err := m2.Current()
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if got != want {
		t.Fatalf("expected persisted weights %+v, got %+v", want, got)
	}
}

func TestFeedbackRejectsUnknownPolarity(t *testing.T) {
	dir := t.TempDir()
	m, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := m.Feedback(Feedback("sideways")); err == nil {
		t.Fatal("expected error for unknown feedback polarity")
	}
}
