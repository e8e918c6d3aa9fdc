package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"
)

// LoadKDL overlays a .codectx.kdl file (if present under projectRoot) onto
// cfg. Missing file is not an error; malformed file is.
func LoadKDL(cfg *Config, projectRoot string) error {
	kdlPath := filepath.Join(projectRoot, ".codectx.kdl")
	content, err := os.ReadFile(kdlPath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read .codectx.kdl: %w", err)
	}

	doc, err := kdl.Parse(strings.NewReader(string(content)))
	if err != nil {
		return fmt.Errorf("parse .codectx.kdl: %w", err)
	}

	for _, n := range doc.Nodes {
		switch nodeName(n) {
		case "project":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "root":
					if s, ok := firstStringArg(cn); ok {
						cfg.Project.Root = s
					}
				case "data_dir":
					if s, ok := firstStringArg(cn); ok {
						cfg.Project.DataDir = s
					}
				case "namespace":
					if s, ok := firstStringArg(cn); ok {
						cfg.Project.Namespace = s
					}
				case "tenant":
					if s, ok := firstStringArg(cn); ok {
						cfg.Project.Tenant = s
					}
				}
			}
		case "index":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "extensions":
					if args := collectStringArgs(cn); len(args) > 0 {
						cfg.Index.Extensions = args
					}
				case "max_file_size":
					if v, ok := firstIntArg(cn); ok {
						cfg.Index.MaxFileSize = int64(v)
					}
				case "deny_extensions":
					if args := collectStringArgs(cn); len(args) > 0 {
						cfg.Index.DenyExtensions = args
					}
				case "deny_globs":
					cfg.Index.DenyGlobs = collectStringArgs(cn)
				case "mode":
					if s, ok := firstStringArg(cn); ok {
						cfg.Index.Mode = s
					}
				case "watch_debounce_ms":
					if v, ok := firstIntArg(cn); ok {
						cfg.Index.WatchDebounceMs = v
					}
				case "chunk_token_limit":
					if v, ok := firstIntArg(cn); ok {
						cfg.Index.ChunkTokenLimit = v
					}
				case "overlap_tokens":
					if v, ok := firstIntArg(cn); ok {
						cfg.Index.OverlapTokens = v
					}
				case "chars_per_token":
					if v, ok := firstIntArg(cn); ok {
						cfg.Index.CharsPerToken = v
					}
				}
			}
		case "performance":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "parallel_file_workers":
					if v, ok := firstIntArg(cn); ok {
						cfg.Indexing.ParallelFileWorkers = v
					}
				case "graph_lock_retries":
					if v, ok := firstIntArg(cn); ok {
						cfg.Indexing.GraphLockRetries = v
					}
				}
			}
		case "server":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "http_port":
					if v, ok := firstIntArg(cn); ok {
						cfg.Server.HTTPPort = v
					}
				case "fast_start":
					if b, ok := firstBoolArg(cn); ok {
						cfg.Server.FastStart = b
					}
				case "sqlite_db":
					if s, ok := firstStringArg(cn); ok {
						cfg.Server.SqliteDB = s
					}
				}
			}
		case "engine":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "url":
					if s, ok := firstStringArg(cn); ok {
						cfg.Engine.URL = s
					}
				}
			}
		case "reranker":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "enabled":
					if b, ok := firstBoolArg(cn); ok {
						cfg.Reranker.Enabled = b
					}
				case "endpoint":
					if s, ok := firstStringArg(cn); ok {
						cfg.Reranker.Endpoint = s
					}
				}
			}
		case "allowed_roots":
			cfg.AllowedRoots = append(cfg.AllowedRoots, collectStringArgs(n)...)
		}
	}

	return nil
}

func nodeName(n *document.Node) string {
	if n == nil || n.Name == nil {
		return ""
	}
	return n.Name.NodeNameString()
}

func firstIntArg(n *document.Node) (int, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func firstStringArg(n *document.Node) (string, bool) {
	if len(n.Arguments) == 0 {
		return "", false
	}
	if s, ok := n.Arguments[0].Value.(string); ok {
		return s, true
	}
	return "", false
}

func firstBoolArg(n *document.Node) (bool, bool) {
	if len(n.Arguments) == 0 {
		return false, false
	}
	if b, ok := n.Arguments[0].Value.(bool); ok {
		return b, true
	}
	return false, false
}

func collectStringArgs(n *document.Node) []string {
	if n == nil {
		return nil
	}
	out := make([]string, 0, len(n.Arguments))
	for _, a := range n.Arguments {
		if s, ok := a.Value.(string); ok {
			out = append(out, s)
		}
	}
	if len(out) == 0 && len(n.Children) > 0 {
		out = make([]string, 0, len(n.Children))
		for _, child := range n.Children {
			if s, ok := firstStringArg(child); ok {
				out = append(out, s)
			} else if child.Name != nil {
				if s, ok := child.Name.Value.(string); ok {
					out = append(out, s)
				}
			}
		}
	}
	return out
}
