package rpc

import (
	"context"

	"go.uber.org/zap"

	"github.com/codectx-dev/codectx/internal/graphdb"
	"github.com/codectx-dev/codectx/internal/manifest"
	"github.com/codectx-dev/codectx/internal/orchestrator"
	"github.com/codectx-dev/codectx/internal/policy"
	"github.com/codectx-dev/codectx/internal/version"
	"github.com/codectx-dev/codectx/internal/weights"
)

// ManifestSource is the subset of manifest.Store the RPC surface needs for
// resources/list and resources/read: the previous pass's FileMeta list.
type ManifestSource interface {
	LoadPrevious() ([]manifest.FileMeta, []manifest.SemanticEntry)
}

// Services bundles every component the RPC method registry dispatches
// into. All fields are required except ShutdownFunc (nil shutdown is a
// no-op beyond responding) and Log (nil logs nowhere).
type Services struct {
	Orchestrator *orchestrator.Orchestrator
	Graph        *graphdb.Store
	Filter       *policy.Filter
	Manifest     ManifestSource
	Weights      *weights.Manager
	ProjectRoot  string

	// ShutdownFunc starts the process-level shutdown. cmd/codectx sets it
	// to cancel the serve context, which stops both transports and closes
	// the watcher. Closing the watcher does not drain debounced jobs that
	// have not fired yet.
	ShutdownFunc func(ctx context.Context)

	Log *zap.Logger
}

func (s *Services) logger() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}

// RegisterAll wires every spec.md §4.10 method into d.
func RegisterAll(d *Dispatcher, svc *Services) {
	registerLifecycle(d, svc)
	registerTools(d, svc)
	registerResources(d, svc)
	registerPrompts(d, svc)
}

// serverInfo is the fixed identity reported from initialize.
func serverInfo() map[string]any {
	return map[string]any{
		"name":    "codectx",
		"version": version.Version,
	}
}
