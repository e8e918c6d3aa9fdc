package rpc

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codectx-dev/codectx/internal/graphdb"
)

func TestHandleGenPatchProducesUnifiedDiff(t *testing.T) {
	svc := newTestServices(t, t.TempDir(), graphdb.RebuildInput{})
	h := handleGenPatch(svc)
	res, err := h(context.Background(), []byte(`{"file":"a.ts","content":"line1\nline2\n"}`))
	require.NoError(t, err)
	m := res.(map[string]any)
	assert.Contains(t, m["patch"], "+line1")
}

func TestHandleApplyPatchWritesWithinAllowedRoot(t *testing.T) {
	root := t.TempDir()
	svc := newTestServices(t, root, graphdb.RebuildInput{})
	h := handleApplyPatch(svc)

	res, err := h(context.Background(), []byte(`{"file":"out.txt","content":"hello"}`))
	require.NoError(t, err)
	m := res.(map[string]any)
	assert.Equal(t, 5, m["bytesWritten"])

	data, err := os.ReadFile(filepath.Join(root, "out.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestHandleApplyPatchDeniesOutsideRoot(t *testing.T) {
	root := t.TempDir()
	svc := newTestServices(t, root, graphdb.RebuildInput{})
	h := handleApplyPatch(svc)

	_, err := h(context.Background(), []byte(`{"file":"../escape.txt","content":"x"}`))
	require.Error(t, err)
}

func TestHandleAutoDocsSuggestsOnlyExported(t *testing.T) {
	svc := newTestServices(t, t.TempDir(), graphdb.RebuildInput{
		Files: []string{"a.ts"},
		Symbols: []graphdb.Symbol{
			{File: "a.ts", Name: "Exported", Kind: graphdb.KindFunction, StartLine: 1, EndLine: 2},
			{File: "a.ts", Name: "unexported", Kind: graphdb.KindFunction, StartLine: 3, EndLine: 4},
		},
	})
	h := handleAutoDocs(svc)
	res, err := h(context.Background(), []byte(`{"file":"a.ts"}`))
	require.NoError(t, err)
	m := res.(map[string]any)
	suggestions := m["suggestions"].(map[string]string)
	_, hasExported := suggestions["Exported"]
	_, hasUnexported := suggestions["unexported"]
	assert.True(t, hasExported)
	assert.False(t, hasUnexported)
}

func TestHandleSuggestTestsNamesExportedSymbols(t *testing.T) {
	svc := newTestServices(t, t.TempDir(), graphdb.RebuildInput{
		Files: []string{"a.ts"},
		Symbols: []graphdb.Symbol{
			{File: "a.ts", Name: "Exported", Kind: graphdb.KindFunction, StartLine: 1, EndLine: 2},
		},
	})
	h := handleSuggestTests(svc)
	res, err := h(context.Background(), []byte(`{"file":"a.ts"}`))
	require.NoError(t, err)
	m := res.(map[string]any)
	assert.Equal(t, []string{"TestExported"}, m["testNames"])
}
