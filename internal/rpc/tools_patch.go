package rpc

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/codectx-dev/codectx/internal/errs"
)

func patchTools(svc *Services) []Tool {
	return []Tool{
		{
			Name:        "gen_patch",
			Description: "Produce a unified diff between the indexed content of a file and a proposed replacement.",
			InputSchema: objectSchema(map[string]*jsonschema.Schema{
				"file":    stringProp("repo-relative file path"),
				"content": stringProp("proposed new file content"),
			}, "file", "content"),
			Handler: handleGenPatch(svc),
		},
		{
			Name:        "apply_patch",
			Description: "Write new content to a file inside an allowed root, subject to the policy filter.",
			InputSchema: objectSchema(map[string]*jsonschema.Schema{
				"file":    stringProp("repo-relative file path"),
				"content": stringProp("new file content to write"),
			}, "file", "content"),
			Handler: handleApplyPatch(svc),
		},
		{
			Name:        "auto_docs",
			Description: "Suggest a one-line doc comment for each exported symbol in a file lacking one.",
			InputSchema: objectSchema(map[string]*jsonschema.Schema{
				"file": stringProp("repo-relative file path"),
			}, "file"),
			Handler: handleAutoDocs(svc),
		},
		{
			Name:        "suggest_tests",
			Description: "Suggest test function names for a file's exported symbols.",
			InputSchema: objectSchema(map[string]*jsonschema.Schema{
				"file": stringProp("repo-relative file path"),
			}, "file"),
			Handler: handleSuggestTests(svc),
		},
	}
}

type genPatchParams struct {
	File    string `json:"file"`
	Content string `json:"content"`
}

func handleGenPatch(svc *Services) HandlerFunc {
	return func(ctx context.Context, params json.RawMessage) (any, error) {
		var p genPatchParams
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, errs.NewRPCError(errs.CodeInternal, "invalid gen_patch params: "+err.Error(), nil)
		}
		meta, err := svc.Orchestrator.GetFile(p.File)
		var before string
		if err == nil {
			before = meta.Content
		}

		diff := difflib.UnifiedDiff{
			A:        difflib.SplitLines(before),
			B:        difflib.SplitLines(p.Content),
			FromFile: p.File,
			ToFile:   p.File,
			Context:  3,
		}
		text, err := difflib.GetUnifiedDiffString(diff)
		if err != nil {
			return nil, &errs.IOError{Op: "gen_patch", Err: err}
		}

		return map[string]any{"patch": text}, nil
	}
}

type applyPatchParams struct {
	File    string `json:"file"`
	Content string `json:"content"`
}

func handleApplyPatch(svc *Services) HandlerFunc {
	return func(ctx context.Context, params json.RawMessage) (any, error) {
		var p applyPatchParams
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, errs.NewRPCError(errs.CodeInternal, "invalid apply_patch params: "+err.Error(), nil)
		}

		absPath := filepath.Join(svc.ProjectRoot, p.File)
		if decision := svc.Filter.CheckPath(absPath); !decision.Allowed {
			return nil, classifyDenial(p.File, decision.Reason)
		}

		if err := os.WriteFile(absPath, []byte(p.Content), 0o644); err != nil {
			return nil, &errs.IOError{Op: "apply_patch", Err: err}
		}

		return map[string]any{"file": p.File, "bytesWritten": len(p.Content)}, nil
	}
}

type autoDocsParams struct {
	File string `json:"file"`
}

func handleAutoDocs(svc *Services) HandlerFunc {
	return func(ctx context.Context, params json.RawMessage) (any, error) {
		var p autoDocsParams
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, errs.NewRPCError(errs.CodeInternal, "invalid auto_docs params: "+err.Error(), nil)
		}
		symbols, err := svc.Graph.ListSymbols(ctx, p.File)
		if err != nil {
			return nil, &errs.IOError{Op: "auto_docs", Err: err}
		}

		suggestions := make(map[string]string, len(symbols))
		for _, s := range symbols {
			if !isExported(s.Name) {
				continue
			}
			suggestions[s.Name] = s.Name + " does ..."
		}
		return map[string]any{"suggestions": suggestions}, nil
	}
}

type suggestTestsParams struct {
	File string `json:"file"`
}

func handleSuggestTests(svc *Services) HandlerFunc {
	return func(ctx context.Context, params json.RawMessage) (any, error) {
		var p suggestTestsParams
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, errs.NewRPCError(errs.CodeInternal, "invalid suggest_tests params: "+err.Error(), nil)
		}
		symbols, err := svc.Graph.ListSymbols(ctx, p.File)
		if err != nil {
			return nil, &errs.IOError{Op: "suggest_tests", Err: err}
		}

		var names []string
		for _, s := range symbols {
			if !isExported(s.Name) {
				continue
			}
			names = append(names, "Test"+strings.ToUpper(s.Name[:1])+s.Name[1:])
		}
		return map[string]any{"testNames": names}, nil
	}
}

func isExported(name string) bool {
	return name != "" && strings.ToUpper(name[:1]) == name[:1]
}
