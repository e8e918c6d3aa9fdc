package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/codectx-dev/codectx/internal/errs"
	"github.com/codectx-dev/codectx/internal/weights"
)

func miscTools(svc *Services) []Tool {
	return []Tool{
		{
			Name:        "langchain_query",
			Description: "Answer a free-text question by summarizing the top search results for it.",
			InputSchema: objectSchema(map[string]*jsonschema.Schema{
				"query": stringProp("natural-language question about the codebase"),
			}, "query"),
			Handler: handleLangchainQuery(svc),
		},
		{
			Name:        "submit_feedback",
			Description: "Nudge ranking weights up or down based on whether a result was useful.",
			InputSchema: objectSchema(map[string]*jsonschema.Schema{
				"direction": stringProp("\"up\" or \"down\""),
			}, "direction"),
			Handler: handleSubmitFeedback(svc),
		},
		{
			Name:        "get_weights",
			Description: "Return the current persisted ranking signal weights.",
			InputSchema: objectSchema(nil),
			Handler:     handleGetWeights(svc),
		},
	}
}

type langchainQueryParams struct {
	Query string `json:"query"`
}

func handleLangchainQuery(svc *Services) HandlerFunc {
	return func(ctx context.Context, params json.RawMessage) (any, error) {
		var p langchainQueryParams
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, errs.NewRPCError(errs.CodeInternal, "invalid langchain_query params: "+err.Error(), nil)
		}
		results, err := svc.Orchestrator.Search(ctx, p.Query, 0)
		if err != nil {
			return nil, err
		}
		if len(results) == 0 {
			return map[string]any{"answer": "no indexed content matched that question", "sources": []string{}}, nil
		}

		var b strings.Builder
		sources := make([]string, 0, len(results))
		for i, r := range results {
			fmt.Fprintf(&b, "%d. %s (%s:%d-%d)\n%s\n\n", i+1, r.Symbol, r.File, r.StartLine, r.EndLine, r.Snippet)
			sources = append(sources, fmt.Sprintf("%s:%d-%d", r.File, r.StartLine, r.EndLine))
		}

		return map[string]any{"answer": b.String(), "sources": sources}, nil
	}
}

type submitFeedbackParams struct {
	Direction string `json:"direction"`
}

func handleSubmitFeedback(svc *Services) HandlerFunc {
	return func(ctx context.Context, params json.RawMessage) (any, error) {
		var p submitFeedbackParams
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, errs.NewRPCError(errs.CodeInternal, "invalid submit_feedback params: "+err.Error(), nil)
		}

		var fb weights.Feedback
		switch strings.ToLower(p.Direction) {
		case "up":
			fb = weights.FeedbackUp
		case "down":
			fb = weights.FeedbackDown
		default:
			return nil, errs.NewRPCError(errs.CodeInternal, "direction must be \"up\" or \"down\"", nil)
		}

		w, err := svc.Weights.Feedback(fb)
		if err != nil {
			return nil, &errs.IOError{Op: "submit_feedback", Err: err}
		}
		return w, nil
	}
}

func handleGetWeights(svc *Services) HandlerFunc {
	return func(ctx context.Context, params json.RawMessage) (any, error) {
		w, err := svc.Weights.Current()
		if err != nil {
			return nil, &errs.IOError{Op: "get_weights", Err: err}
		}
		return w, nil
	}
}
