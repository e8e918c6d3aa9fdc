package rpc

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codectx-dev/codectx/internal/graphdb"
)

func seededGraphServices(t *testing.T) *Services {
	t.Helper()
	return newTestServices(t, t.TempDir(), graphdb.RebuildInput{
		Files: []string{"a.ts", "b.ts"},
		Symbols: []graphdb.Symbol{
			{File: "a.ts", Name: "createOrder", Kind: graphdb.KindFunction, StartLine: 1, EndLine: 5},
			{File: "b.ts", Name: "helper", Kind: graphdb.KindFunction, StartLine: 1, EndLine: 2},
		},
		Edges: []graphdb.Edge{
			{From: "b.ts", To: "a.ts", Kind: "import"},
		},
	})
}

func TestHandlePlanRefactorReturnsBundle(t *testing.T) {
	svc := seededGraphServices(t)
	h := handlePlanRefactor(svc)
	res, err := h(context.Background(), []byte(`{"file":"a.ts"}`))
	require.NoError(t, err)
	m := res.(map[string]any)
	assert.Equal(t, "a.ts", m["file"])
	assert.Len(t, m["dependents"], 1)
}

func TestHandleCompareVersionsReportsAddedAndRemoved(t *testing.T) {
	svc := seededGraphServices(t)
	h := handleCompareVersions(svc)
	res, err := h(context.Background(), []byte(`{"before":"one\ntwo","after":"one\nthree"}`))
	require.NoError(t, err)
	m := res.(map[string]any)
	assert.Equal(t, []string{"three"}, m["linesAdded"])
	assert.Equal(t, []string{"two"}, m["linesRemoved"])
}

func TestHandleSummarizeArchitectureCountsAndRanks(t *testing.T) {
	svc := seededGraphServices(t)
	h := handleSummarizeArchitecture(svc)
	res, err := h(context.Background(), []byte(`{}`))
	require.NoError(t, err)
	m := res.(map[string]any)
	assert.Equal(t, 2, m["files"])
	assert.Equal(t, 2, m["symbols"])
}

func TestHandleDetectSmellsFlagsOverlongSymbol(t *testing.T) {
	svc := newTestServices(t, t.TempDir(), graphdb.RebuildInput{
		Files: []string{"big.ts"},
		Symbols: []graphdb.Symbol{
			{File: "big.ts", Name: "hugeFunc", Kind: graphdb.KindFunction, StartLine: 1, EndLine: 200},
		},
	})
	h := handleDetectSmells(svc)
	res, err := h(context.Background(), []byte(`{}`))
	require.NoError(t, err)
	m := res.(map[string]any)
	overlong := m["overlongSymbols"].([]graphdb.Symbol)
	require.Len(t, overlong, 1)
	assert.Equal(t, "hugeFunc", overlong[0].Name)
}

func TestHandleAnalyzePerformanceRisk(t *testing.T) {
	svc := seededGraphServices(t)
	h := handleAnalyzePerformance(svc)
	res, err := h(context.Background(), []byte(`{"file":"a.ts"}`))
	require.NoError(t, err)
	m := res.(map[string]any)
	assert.Equal(t, "low", m["couplingRisk"])
	assert.Equal(t, 1, m["dependentsCount"])
}
