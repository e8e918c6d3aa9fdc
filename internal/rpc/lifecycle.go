package rpc

import (
	"context"
	"encoding/json"
)

func registerLifecycle(d *Dispatcher, svc *Services) {
	d.Register("initialize", func(ctx context.Context, params json.RawMessage) (any, error) {
		return map[string]any{
			"protocolVersion": "2024-11-05",
			"capabilities": map[string]any{
				"tools":     map[string]any{},
				"resources": map[string]any{},
				"prompts":   map[string]any{},
			},
			"serverInfo": serverInfo(),
		}, nil
	})

	d.Register("ping", func(ctx context.Context, params json.RawMessage) (any, error) {
		return map[string]any{"pong": true}, nil
	})

	d.Register("shutdown", func(ctx context.Context, params json.RawMessage) (any, error) {
		if svc.ShutdownFunc != nil {
			svc.ShutdownFunc(ctx)
		}
		return map[string]any{"ok": true}, nil
	})

	// Notifications: acknowledged by doing nothing, per spec.md §4.10
	// ("notifications initialized/sessionConfigured silently ignored").
	noop := func(ctx context.Context, params json.RawMessage) (any, error) { return nil, nil }
	d.Register("initialized", noop)
	d.Register("sessionConfigured", noop)
}
