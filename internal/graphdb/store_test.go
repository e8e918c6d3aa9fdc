package graphdb

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func openTest(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "graph.db")
	s, err := Open(path, 3, 10*time.Millisecond)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRebuildAndQueries(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	in := RebuildInput{
		Files: []string{"a.ts", "b.ts"},
		Symbols: []Symbol{
			{File: "a.ts", Name: "OrderService.createOrder", Kind: KindMethod, StartLine: 5, EndLine: 10},
			{File: "b.ts", Name: "helper", Kind: KindFunction, StartLine: 1, EndLine: 2},
		},
		Edges: []Edge{
			{From: "b.ts", To: "a.ts", Kind: "import"},
			{From: "b.ts", To: "b.ts", Kind: "import"}, // self-loop, must be dropped
		},
	}
	require.NoError(t, s.Rebuild(ctx, in))

	syms, err := s.ListSymbols(ctx, "")
	require.NoError(t, err)
	require.Len(t, syms, 2)

	deps, err := s.ListDependents(ctx, "a.ts")
	require.NoError(t, err)
	require.Equal(t, []string{"b.ts"}, deps)

	imports, err := s.ListImports(ctx, "b.ts")
	require.NoError(t, err)
	require.Equal(t, []string{"a.ts"}, imports)

	refs, err := s.FindRefs(ctx, "createorder")
	require.NoError(t, err)
	require.Empty(t, refs) // case-sensitive substring; lowercase query shouldn't match

	refs, err = s.FindRefs(ctx, "createOrder")
	require.NoError(t, err)
	require.Equal(t, []string{"b.ts"}, refs)

	degA, err := s.Degree(ctx, "a.ts")
	require.NoError(t, err)
	require.Equal(t, 1, degA)

	counts, err := s.Counts(ctx)
	require.NoError(t, err)
	require.Equal(t, Counts{Files: 2, Symbols: 2, Edges: 1}, counts)
}

func TestRebuildIsIdempotentOnUnchangedInput(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	in := RebuildInput{
		Files:   []string{"a.ts"},
		Symbols: []Symbol{{File: "a.ts", Name: "f", Kind: KindFunction, StartLine: 1, EndLine: 2}},
	}
	require.NoError(t, s.Rebuild(ctx, in))
	require.NoError(t, s.Rebuild(ctx, in))

	counts, err := s.Counts(ctx)
	require.NoError(t, err)
	require.Equal(t, Counts{Files: 1, Symbols: 1, Edges: 0}, counts)
}

func TestEmptyRebuildYieldsEmptyCounts(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	require.NoError(t, s.Rebuild(ctx, RebuildInput{}))
	counts, err := s.Counts(ctx)
	require.NoError(t, err)
	require.Equal(t, Counts{}, counts)
}
