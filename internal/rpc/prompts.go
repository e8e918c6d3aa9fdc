package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/codectx-dev/codectx/internal/errs"
	"github.com/codectx-dev/codectx/internal/graphdb"
)

const previewLines = 40

type promptDef struct {
	name        string
	description string
	build       func(ctx context.Context, svc *Services, file, symbol string) (string, error)
}

var prompts = []promptDef{
	{name: "refactor", description: "Context bundle for planning a refactor of one file.", build: buildRefactorPrompt},
	{name: "test", description: "Context bundle for writing tests against one file.", build: buildTestPrompt},
	{name: "perf", description: "Context bundle for a performance investigation of one file.", build: buildPerfPrompt},
}

func registerPrompts(d *Dispatcher, svc *Services) {
	d.Register("prompts/list", func(ctx context.Context, params json.RawMessage) (any, error) {
		list := make([]map[string]any, 0, len(prompts))
		for _, p := range prompts {
			list = append(list, map[string]any{
				"name":        p.name,
				"description": p.description,
				"arguments": []map[string]any{
					{"name": "file", "description": "repo-relative file path", "required": true},
					{"name": "symbol", "description": "symbol name to focus on (optional)", "required": false},
				},
			})
		}
		return map[string]any{"prompts": list}, nil
	})

	d.Register("prompts/call", func(ctx context.Context, params json.RawMessage) (any, error) {
		var p struct {
			Name      string `json:"name"`
			Arguments struct {
				File   string `json:"file"`
				Symbol string `json:"symbol"`
			} `json:"arguments"`
		}
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, errs.NewRPCError(errs.CodeInternal, "invalid prompts/call params: "+err.Error(), nil)
		}

		def, ok := findPrompt(p.Name)
		if !ok {
			return nil, errs.NewRPCError(errs.CodeMethodNotFound, "prompt not found: "+p.Name, nil)
		}

		text, err := def.build(ctx, svc, p.Arguments.File, p.Arguments.Symbol)
		if err != nil {
			return nil, err
		}

		return map[string]any{
			"messages": []map[string]any{
				{
					"role": "user",
					"content": map[string]any{
						"type": "text",
						"text": text,
					},
				},
			},
		}, nil
	})
}

func findPrompt(name string) (promptDef, bool) {
	for _, p := range prompts {
		if p.name == name {
			return p, true
		}
	}
	return promptDef{}, false
}

// filePreview builds a shared context block (truncated file content, local
// symbols, imports, dependents) common to every prompt template.
func filePreview(ctx context.Context, svc *Services, file string) (string, error) {
	meta, err := svc.Orchestrator.GetFile(file)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", errs.NewRPCError(errs.CodeReadFailure, "file not indexed: "+file, nil)
		}
		return "", err
	}

	lines := strings.Split(meta.Content, "\n")
	if len(lines) > previewLines {
		lines = lines[:previewLines]
	}

	symbols, err := svc.Graph.ListSymbols(ctx, file)
	if err != nil {
		return "", &errs.IOError{Op: "prompts.symbols", Err: err}
	}
	imports, err := svc.Graph.ListImports(ctx, file)
	if err != nil {
		return "", &errs.IOError{Op: "prompts.imports", Err: err}
	}
	dependents, err := svc.Graph.ListDependents(ctx, file)
	if err != nil {
		return "", &errs.IOError{Op: "prompts.dependents", Err: err}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "File: %s\n\n", file)
	fmt.Fprintf(&b, "Preview (first %d lines):\n%s\n\n", previewLines, strings.Join(lines, "\n"))
	fmt.Fprintf(&b, "Local symbols: %v\n", symbolNames(symbols))
	fmt.Fprintf(&b, "Imports: %v\n", imports)
	fmt.Fprintf(&b, "Dependents: %v\n", dependents)
	return b.String(), nil
}

func symbolNames(symbols []graphdb.Symbol) []string {
	names := make([]string, len(symbols))
	for i, s := range symbols {
		names[i] = s.Name
	}
	return names
}

func buildRefactorPrompt(ctx context.Context, svc *Services, file, symbol string) (string, error) {
	base, err := filePreview(ctx, svc, file)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString("Task: plan a safe refactor of the target below.\n\n")
	b.WriteString(base)
	b.WriteString("\nConsider every dependent before changing an exported symbol's signature or name.\n")
	return b.String(), nil
}

func buildTestPrompt(ctx context.Context, svc *Services, file, symbol string) (string, error) {
	base, err := filePreview(ctx, svc, file)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString("Task: write tests covering the target below.\n\n")
	b.WriteString(base)
	if symbol != "" {
		refs, err := svc.Graph.FindRefs(ctx, symbol)
		if err == nil {
			fmt.Fprintf(&b, "\nCallers of %s: %v\n", symbol, refs)
		}
	}
	b.WriteString("\nCover the success path, the error path, and at least one boundary case.\n")
	return b.String(), nil
}

func buildPerfPrompt(ctx context.Context, svc *Services, file, symbol string) (string, error) {
	base, err := filePreview(ctx, svc, file)
	if err != nil {
		return "", err
	}
	degree, err := svc.Graph.Degree(ctx, file)
	if err != nil {
		return "", &errs.IOError{Op: "prompts.degree", Err: err}
	}
	var b strings.Builder
	b.WriteString("Task: investigate performance characteristics of the target below.\n\n")
	b.WriteString(base)
	fmt.Fprintf(&b, "\nImport/dependent degree: %d\n", degree)
	return b.String(), nil
}
