package config

import (
	"os"
	"strconv"
)

// LoadEnv overlays environment variables onto cfg, per spec.md §6. Env
// always wins over .codectx.kdl, matching the teacher's config-merge
// precedence (file defaults, then environment last).
func LoadEnv(cfg *Config) {
	if v := os.Getenv("INDEX_ROOT"); v != "" {
		cfg.Project.Root = v
	}
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Project.DataDir = v
	}
	if v := os.Getenv("SQLITE_DB"); v != "" {
		cfg.Server.SqliteDB = v
	}
	if v := os.Getenv("ENGINE_URL"); v != "" {
		cfg.Engine.URL = v
	}
	if v := os.Getenv("MCP_HTTP_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.HTTPPort = n
		}
	}
	if v := os.Getenv("MCP_FAST_START"); v == "1" {
		cfg.Server.FastStart = true
	}
	if v := os.Getenv("INDEX_MODE"); v != "" {
		cfg.Index.Mode = v
	}
	if v := os.Getenv("INDEX_NAMESPACE"); v != "" {
		cfg.Project.Namespace = v
	}
	if v := os.Getenv("INDEX_TENANT"); v != "" {
		cfg.Project.Tenant = v
	}
}
