package semanticengine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codectx-dev/codectx/internal/manifest"
)

func TestFallbackEngineRanksByStemmedOverlap(t *testing.T) {
	engine := NewFallbackEngine()
	engine.SetEntries([]manifest.SemanticEntry{
		{File: "auth.ts", Symbol: "authenticate", Text: "function authenticate(user) { return authenticating(user) }"},
		{File: "order.ts", Symbol: "createOrder", Text: "function createOrder(items) { return build(items) }"},
	})

	results, err := engine.Search(context.Background(), "authentication flow", 5)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "auth.ts", results[0].File)
}

func TestFallbackEngineEmptyQueryReturnsNoResults(t *testing.T) {
	engine := NewFallbackEngine()
	engine.SetEntries([]manifest.SemanticEntry{{File: "a.ts", Text: "hello world"}})

	results, err := engine.Search(context.Background(), "   ", 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestFallbackEngineRespectsTopK(t *testing.T) {
	engine := NewFallbackEngine()
	engine.SetEntries([]manifest.SemanticEntry{
		{File: "a.ts", Text: "order order order"},
		{File: "b.ts", Text: "order service"},
		{File: "c.ts", Text: "order item"},
	})

	results, err := engine.Search(context.Background(), "order", 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}
