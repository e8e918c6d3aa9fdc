package rpc

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/codectx-dev/codectx/internal/errs"
)

const fileURIPrefix = "file://"

func toFileURI(relPath string) string {
	return fileURIPrefix + relPath
}

func fromFileURI(uri string) string {
	return strings.TrimPrefix(uri, fileURIPrefix)
}

func registerResources(d *Dispatcher, svc *Services) {
	d.Register("resources/list", func(ctx context.Context, params json.RawMessage) (any, error) {
		metas, _ := svc.Manifest.LoadPrevious()
		list := make([]map[string]any, 0, len(metas))
		for _, m := range metas {
			list = append(list, map[string]any{
				"uri":      toFileURI(m.Path),
				"name":     m.Path,
				"mimeType": "text/plain",
			})
		}
		return map[string]any{"resources": list}, nil
	})

	d.Register("resources/read", func(ctx context.Context, params json.RawMessage) (any, error) {
		var p struct {
			URI string `json:"uri"`
		}
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, errs.NewRPCError(errs.CodeInternal, "invalid resources/read params: "+err.Error(), nil)
		}
		relPath := fromFileURI(p.URI)
		absPath := filepath.Join(svc.ProjectRoot, relPath)

		decision, notFound := svc.Filter.CheckRead(absPath)
		if notFound {
			return nil, errs.NewRPCError(errs.CodeReadFailure, "resource not found: "+relPath, map[string]string{"path": relPath})
		}
		if !decision.Allowed {
			return nil, classifyDenial(relPath, decision.Reason)
		}

		content, err := os.ReadFile(absPath)
		if err != nil {
			return nil, (&errs.IOError{Op: "resources/read", Err: err}).ToRPC()
		}

		return map[string]any{
			"contents": []map[string]any{
				{
					"uri":      p.URI,
					"mimeType": "text/plain",
					"text":     string(content),
				},
			},
		}, nil
	})

	d.Register("roots/list", func(ctx context.Context, params json.RawMessage) (any, error) {
		roots := svc.Filter.AllowedRoots()
		list := make([]map[string]any, 0, len(roots))
		for _, r := range roots {
			list = append(list, map[string]any{
				"uri":  toFileURI(r),
				"name": filepath.Base(r),
			})
		}
		return map[string]any{"roots": list}, nil
	})
}

// classifyDenial maps a policy Decision's free-text reason to the specific
// RPC code spec.md §4.10 distinguishes: outside every allowed root is
// -32001, every other deny reason (extension, glob, size) is -32002.
func classifyDenial(path, reason string) *errs.RPCError {
	if reason == "outside allowed roots" {
		return (&errs.RootError{Path: path}).ToRPC()
	}
	return (&errs.PolicyError{Path: path, Reason: reason}).ToRPC()
}
