package rpc

import (
	"context"
	"encoding/json"
	"sort"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/codectx-dev/codectx/internal/errs"
	"github.com/codectx-dev/codectx/internal/graphdb"
)

func graphTools(svc *Services) []Tool {
	return []Tool{
		{
			Name:        "plan_refactor",
			Description: "Gather a refactor-planning context bundle for a file: its symbols, imports, and dependents.",
			InputSchema: objectSchema(map[string]*jsonschema.Schema{
				"file": stringProp("repo-relative file path"),
			}, "file"),
			Handler: handlePlanRefactor(svc),
		},
		{
			Name:        "compare_versions",
			Description: "Line-level diff summary between two versions of the same file's text.",
			InputSchema: objectSchema(map[string]*jsonschema.Schema{
				"before": stringProp("previous file content"),
				"after":  stringProp("new file content"),
			}, "before", "after"),
			Handler: handleCompareVersions(svc),
		},
		{
			Name:        "summarize_architecture",
			Description: "Tally indexed files, symbols, and import edges; surfaces the highest-degree (most connected) files.",
			InputSchema: objectSchema(nil),
			Handler:     handleSummarizeArchitecture(svc),
		},
		{
			Name:        "detect_smells",
			Description: "Heuristic code smell scan: overlong symbols and files with an unusually large symbol count.",
			InputSchema: objectSchema(map[string]*jsonschema.Schema{
				"path": stringProp("repo-relative file path (optional; scans every file when omitted)"),
			}),
			Handler: handleDetectSmells(svc),
		},
		{
			Name:        "analyze_performance",
			Description: "Flags files whose import degree suggests a hot-path coupling risk.",
			InputSchema: objectSchema(map[string]*jsonschema.Schema{
				"file": stringProp("repo-relative file path"),
			}, "file"),
			Handler: handleAnalyzePerformance(svc),
		},
	}
}

type planRefactorParams struct {
	File string `json:"file"`
}

func handlePlanRefactor(svc *Services) HandlerFunc {
	return func(ctx context.Context, params json.RawMessage) (any, error) {
		var p planRefactorParams
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, errs.NewRPCError(errs.CodeInternal, "invalid plan_refactor params: "+err.Error(), nil)
		}
		symbols, err := svc.Graph.ListSymbols(ctx, p.File)
		if err != nil {
			return nil, &errs.IOError{Op: "plan_refactor.symbols", Err: err}
		}
		imports, err := svc.Graph.ListImports(ctx, p.File)
		if err != nil {
			return nil, &errs.IOError{Op: "plan_refactor.imports", Err: err}
		}
		dependents, err := svc.Graph.ListDependents(ctx, p.File)
		if err != nil {
			return nil, &errs.IOError{Op: "plan_refactor.dependents", Err: err}
		}
		return map[string]any{
			"file":       p.File,
			"symbols":    symbols,
			"imports":    imports,
			"dependents": dependents,
			"note":       "review each dependent before renaming or moving an exported symbol",
		}, nil
	}
}

type compareVersionsParams struct {
	Before string `json:"before"`
	After  string `json:"after"`
}

func handleCompareVersions(svc *Services) HandlerFunc {
	return func(ctx context.Context, params json.RawMessage) (any, error) {
		var p compareVersionsParams
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, errs.NewRPCError(errs.CodeInternal, "invalid compare_versions params: "+err.Error(), nil)
		}
		added, removed := lineDiff(p.Before, p.After)
		return map[string]any{
			"linesAdded":   added,
			"linesRemoved": removed,
		}, nil
	}
}

// lineDiff is a minimal line-set diff (not sequence-aligned): it reports
// lines present in after but not before, and vice versa. Good enough for a
// "what changed" summary without a full LCS diff implementation.
func lineDiff(before, after string) (added, removed []string) {
	beforeLines := splitLinesCounted(before)
	afterLines := splitLinesCounted(after)

	for line, afterCount := range afterLines {
		if beforeCount := beforeLines[line]; afterCount > beforeCount {
			added = append(added, line)
		}
	}
	for line, beforeCount := range beforeLines {
		if afterCount := afterLines[line]; beforeCount > afterCount {
			removed = append(removed, line)
		}
	}
	sort.Strings(added)
	sort.Strings(removed)
	return added, removed
}

func splitLinesCounted(text string) map[string]int {
	counts := make(map[string]int)
	for _, line := range strings.Split(text, "\n") {
		counts[line]++
	}
	return counts
}

func handleSummarizeArchitecture(svc *Services) HandlerFunc {
	return func(ctx context.Context, params json.RawMessage) (any, error) {
		counts, err := svc.Graph.Counts(ctx)
		if err != nil {
			return nil, &errs.IOError{Op: "summarize_architecture", Err: err}
		}
		files, err := svc.Graph.AllFiles(ctx)
		if err != nil {
			return nil, &errs.IOError{Op: "summarize_architecture.files", Err: err}
		}

		type ranked struct {
			File   string `json:"file"`
			Degree int    `json:"degree"`
		}
		var top []ranked
		for _, f := range files {
			d, err := svc.Graph.Degree(ctx, f)
			if err != nil {
				continue
			}
			top = append(top, ranked{File: f, Degree: d})
		}
		sort.Slice(top, func(i, j int) bool { return top[i].Degree > top[j].Degree })
		if len(top) > 10 {
			top = top[:10]
		}

		return map[string]any{
			"files":          counts.Files,
			"symbols":        counts.Symbols,
			"edges":          counts.Edges,
			"mostConnected":  top,
		}, nil
	}
}

type detectSmellsParams struct {
	Path string `json:"path"`
}

// longSymbolLines is the line-span threshold past which a symbol is
// flagged as an overlong-function smell.
const longSymbolLines = 120

// crowdedFileSymbols is the per-file symbol count past which a file is
// flagged as doing too much.
const crowdedFileSymbols = 40

func handleDetectSmells(svc *Services) HandlerFunc {
	return func(ctx context.Context, params json.RawMessage) (any, error) {
		var p detectSmellsParams
		if len(params) > 0 {
			if err := json.Unmarshal(params, &p); err != nil {
				return nil, errs.NewRPCError(errs.CodeInternal, "invalid detect_smells params: "+err.Error(), nil)
			}
		}
		symbols, err := svc.Graph.ListSymbols(ctx, p.Path)
		if err != nil {
			return nil, &errs.IOError{Op: "detect_smells", Err: err}
		}

		var overlong []graphdb.Symbol
		perFile := make(map[string]int)
		for _, s := range symbols {
			if s.EndLine-s.StartLine > longSymbolLines {
				overlong = append(overlong, s)
			}
			perFile[s.File]++
		}

		var crowded []string
		for file, count := range perFile {
			if count > crowdedFileSymbols {
				crowded = append(crowded, file)
			}
		}
		sort.Strings(crowded)

		return map[string]any{
			"overlongSymbols": overlong,
			"crowdedFiles":    crowded,
		}, nil
	}
}

type analyzePerformanceParams struct {
	File string `json:"file"`
}

func handleAnalyzePerformance(svc *Services) HandlerFunc {
	return func(ctx context.Context, params json.RawMessage) (any, error) {
		var p analyzePerformanceParams
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, errs.NewRPCError(errs.CodeInternal, "invalid analyze_performance params: "+err.Error(), nil)
		}
		degree, err := svc.Graph.Degree(ctx, p.File)
		if err != nil {
			return nil, &errs.IOError{Op: "analyze_performance", Err: err}
		}
		dependents, err := svc.Graph.ListDependents(ctx, p.File)
		if err != nil {
			return nil, &errs.IOError{Op: "analyze_performance.dependents", Err: err}
		}

		risk := "low"
		if len(dependents) > 10 {
			risk = "high"
		} else if len(dependents) > 3 {
			risk = "medium"
		}

		return map[string]any{
			"file":            p.File,
			"degree":          degree,
			"dependentsCount": len(dependents),
			"couplingRisk":    risk,
		}, nil
	}
}
