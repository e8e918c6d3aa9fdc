package rpc

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/codectx-dev/codectx/internal/errs"
)

// Tool is one entry in the tools/list registry and the single dispatch
// target tools/call routes into by name.
type Tool struct {
	Name        string
	Description string
	InputSchema *jsonschema.Schema
	Handler     HandlerFunc
}

func objectSchema(properties map[string]*jsonschema.Schema, required ...string) *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:       "object",
		Properties: properties,
		Required:   required,
	}
}

func stringProp(description string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "string", Description: description}
}

func intProp(description string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "integer", Description: description}
}

type callParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

func allTools(svc *Services) []Tool {
	var tools []Tool
	tools = append(tools, searchTools(svc)...)
	tools = append(tools, graphTools(svc)...)
	tools = append(tools, patchTools(svc)...)
	tools = append(tools, execTools(svc)...)
	tools = append(tools, telemetryTools(svc)...)
	tools = append(tools, miscTools(svc)...)
	return tools
}

func registerTools(d *Dispatcher, svc *Services) {
	tools := allTools(svc)
	byName := make(map[string]Tool, len(tools))
	for _, t := range tools {
		byName[t.Name] = t
	}

	d.Register("tools/list", func(ctx context.Context, params json.RawMessage) (any, error) {
		list := make([]map[string]any, 0, len(tools))
		for _, t := range tools {
			list = append(list, map[string]any{
				"name":        t.Name,
				"description": t.Description,
				"inputSchema": t.InputSchema,
			})
		}
		return map[string]any{"tools": list}, nil
	})

	d.Register("tools/call", func(ctx context.Context, params json.RawMessage) (any, error) {
		var call callParams
		if err := json.Unmarshal(params, &call); err != nil {
			return nil, errs.NewRPCError(errs.CodeInternal, "invalid tools/call params: "+err.Error(), nil)
		}
		tool, ok := byName[call.Name]
		if !ok {
			return nil, errs.NewRPCError(errs.CodeMethodNotFound, fmt.Sprintf("tool not found: %s", call.Name), nil)
		}
		return tool.Handler(ctx, call.Arguments)
	})
}
