package rpc

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/codectx-dev/codectx/internal/graphdb"
	"github.com/codectx-dev/codectx/internal/manifest"
	"github.com/codectx-dev/codectx/internal/orchestrator"
	"github.com/codectx-dev/codectx/internal/policy"
	"github.com/codectx-dev/codectx/internal/ranker"
	"github.com/codectx-dev/codectx/internal/semanticengine"
	"github.com/codectx-dev/codectx/internal/weights"
)

// fakeManifest is a minimal ManifestSource for tests that don't need a real
// indexing pass on disk.
type fakeManifest struct {
	files   []manifest.FileMeta
	entries []manifest.SemanticEntry
}

func (f *fakeManifest) LoadPrevious() ([]manifest.FileMeta, []manifest.SemanticEntry) {
	return f.files, f.entries
}

// newTestServices builds a fully wired Services backed by a temp-dir SQLite
// graph store, a temp-dir weights file, and the in-process fallback
// semantic engine, and seeds the graph with the given symbols/edges.
func newTestServices(t *testing.T, root string, rebuild graphdb.RebuildInput) *Services {
	t.Helper()
	dir := t.TempDir()

	graph, err := graphdb.Open(filepath.Join(dir, "graph.db"), 3, 10*time.Millisecond)
	require.NoError(t, err)
	t.Cleanup(func() { graph.Close() })
	require.NoError(t, graph.Rebuild(context.Background(), rebuild))

	wm, err := weights.New(dir)
	require.NoError(t, err)

	filter := policy.New([]string{root}, nil, nil, 1<<20)

	engine := semanticengine.NewFallbackEngine()
	orch := orchestrator.New(engine, nil, wm, graph, ranker.StrategyGreedy, 0.5, 4)

	man := &fakeManifest{}

	return &Services{
		Orchestrator: orch,
		Graph:        graph,
		Filter:       filter,
		Manifest:     man,
		Weights:      wm,
		ProjectRoot:  root,
	}
}
