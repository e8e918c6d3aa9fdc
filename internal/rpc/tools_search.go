package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"sort"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/hbollon/go-edlib"

	"github.com/codectx-dev/codectx/internal/errs"
	"github.com/codectx-dev/codectx/internal/graphdb"
)

func searchTools(svc *Services) []Tool {
	return []Tool{
		{
			Name:        "search_code",
			Description: "Hybrid semantic/lexical/graph search over the indexed codebase.",
			InputSchema: objectSchema(map[string]*jsonschema.Schema{
				"query": stringProp("free-text search query"),
				"topK":  intProp("maximum number of results (optional; profiler-derived default otherwise)"),
			}, "query"),
			Handler: handleSearchCode(svc),
		},
		{
			Name:        "get_file",
			Description: "Read one indexed file's content and recorded symbols.",
			InputSchema: objectSchema(map[string]*jsonschema.Schema{
				"path": stringProp("repo-relative file path"),
			}, "path"),
			Handler: handleGetFile(svc),
		},
		{
			Name:        "list_symbols",
			Description: "List symbols for one file, or every indexed file when path is omitted.",
			InputSchema: objectSchema(map[string]*jsonschema.Schema{
				"path": stringProp("repo-relative file path (optional)"),
			}),
			Handler: handleListSymbols(svc),
		},
		{
			Name:        "find_refs",
			Description: "Find files that import a file containing a symbol matching name (case-sensitive substring).",
			InputSchema: objectSchema(map[string]*jsonschema.Schema{
				"name": stringProp("symbol name substring"),
			}, "name"),
			Handler: handleFindRefs(svc),
		},
	}
}

type searchCodeParams struct {
	Query string `json:"query"`
	TopK  int    `json:"topK"`
}

func handleSearchCode(svc *Services) HandlerFunc {
	return func(ctx context.Context, params json.RawMessage) (any, error) {
		var p searchCodeParams
		if len(params) > 0 {
			if err := json.Unmarshal(params, &p); err != nil {
				return nil, errs.NewRPCError(errs.CodeInternal, "invalid search_code params: "+err.Error(), nil)
			}
		}
		results, err := svc.Orchestrator.Search(ctx, p.Query, p.TopK)
		if err != nil {
			return nil, err
		}
		return map[string]any{"results": results}, nil
	}
}

type getFileParams struct {
	Path string `json:"path"`
}

func handleGetFile(svc *Services) HandlerFunc {
	return func(ctx context.Context, params json.RawMessage) (any, error) {
		var p getFileParams
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, errs.NewRPCError(errs.CodeInternal, "invalid get_file params: "+err.Error(), nil)
		}
		meta, err := svc.Orchestrator.GetFile(p.Path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, errs.NewRPCError(errs.CodeReadFailure, "file not indexed: "+p.Path, nil)
			}
			return nil, err
		}
		return meta, nil
	}
}

type listSymbolsParams struct {
	Path string `json:"path"`
}

func handleListSymbols(svc *Services) HandlerFunc {
	return func(ctx context.Context, params json.RawMessage) (any, error) {
		var p listSymbolsParams
		if len(params) > 0 {
			if err := json.Unmarshal(params, &p); err != nil {
				return nil, errs.NewRPCError(errs.CodeInternal, "invalid list_symbols params: "+err.Error(), nil)
			}
		}
		symbols, err := svc.Graph.ListSymbols(ctx, p.Path)
		if err != nil {
			return nil, &errs.IOError{Op: "list_symbols", Err: err}
		}
		return map[string]any{"symbols": symbols}, nil
	}
}

type findRefsParams struct {
	Name string `json:"name"`
}

func handleFindRefs(svc *Services) HandlerFunc {
	return func(ctx context.Context, params json.RawMessage) (any, error) {
		var p findRefsParams
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, errs.NewRPCError(errs.CodeInternal, "invalid find_refs params: "+err.Error(), nil)
		}
		refs, err := svc.Graph.FindRefs(ctx, p.Name)
		if err != nil {
			return nil, &errs.IOError{Op: "find_refs", Err: err}
		}
		if len(refs) > 0 {
			return map[string]any{"refs": refs}, nil
		}

		suggestions := suggestSymbolNames(ctx, svc.Graph, p.Name)
		if len(suggestions) == 0 {
			return map[string]any{"refs": []string{}}, nil
		}
		return nil, errs.NewRPCError(errs.CodeInternal, "no references found for "+p.Name,
			map[string]any{"suggestions": suggestions})
	}
}

// suggestSymbolNames returns up to 5 known symbol names most similar to
// name by Jaro-Winkler similarity, additive-only: it never changes
// find_refs's own substring-match result set, only populates the error's
// "did you mean" data when that set is empty.
func suggestSymbolNames(ctx context.Context, graph *graphdb.Store, name string) []string {
	symbols, err := graph.ListSymbols(ctx, "")
	if err != nil || len(symbols) == 0 {
		return nil
	}

	type scored struct {
		name  string
		score float32
	}
	seen := make(map[string]bool, len(symbols))
	var candidates []scored
	for _, s := range symbols {
		if seen[s.Name] {
			continue
		}
		seen[s.Name] = true
		score, err := edlib.StringsSimilarity(name, s.Name, edlib.JaroWinkler)
		if err != nil {
			continue
		}
		candidates = append(candidates, scored{s.Name, score})
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].score > candidates[j].score })

	const maxSuggestions = 5
	out := make([]string, 0, maxSuggestions)
	for _, c := range candidates {
		if len(out) >= maxSuggestions {
			break
		}
		if c.score < 0.6 {
			break
		}
		out = append(out, c.name)
	}
	return out
}
