package config

import (
	"fmt"
	"runtime"

	"github.com/codectx-dev/codectx/pkg/pathutil"
)

// Validate checks cfg for internal consistency and fills in
// runtime-dependent defaults (worker counts, allowed roots).
func Validate(cfg *Config) error {
	if cfg.Project.Root == "" {
		return fmt.Errorf("project root cannot be empty")
	}
	root, err := pathutil.Canonicalize(cfg.Project.Root)
	if err != nil {
		return fmt.Errorf("resolve project root: %w", err)
	}
	cfg.Project.Root = root

	if cfg.Index.MaxFileSize <= 0 {
		return fmt.Errorf("index.max_file_size must be positive, got %d", cfg.Index.MaxFileSize)
	}
	if len(cfg.Index.Extensions) == 0 {
		return fmt.Errorf("index.extensions cannot be empty")
	}
	if cfg.Index.Mode != "full" && cfg.Index.Mode != "incremental" {
		return fmt.Errorf("index.mode must be \"full\" or \"incremental\", got %q", cfg.Index.Mode)
	}
	if cfg.Index.WatchDebounceMs <= 0 {
		cfg.Index.WatchDebounceMs = 500
	}
	if cfg.Index.ChunkTokenLimit <= 0 {
		return fmt.Errorf("index.chunk_token_limit must be positive")
	}
	if cfg.Index.CharsPerToken <= 0 {
		cfg.Index.CharsPerToken = 4
	}

	if cfg.Indexing.ParallelFileWorkers <= 0 {
		cfg.Indexing.ParallelFileWorkers = runtime.NumCPU()
	}
	if cfg.Indexing.GraphLockRetries <= 0 {
		cfg.Indexing.GraphLockRetries = 3
	}

	if cfg.Server.HTTPPort <= 0 {
		cfg.Server.HTTPPort = 7450
	}

	sum := cfg.Weights.Semantic + cfg.Weights.Lexical + cfg.Weights.Graph + cfg.Weights.Reranker
	if sum <= 0 {
		return fmt.Errorf("default weights must sum to a positive value")
	}

	if len(cfg.AllowedRoots) == 0 {
		cfg.AllowedRoots = []string{cfg.Project.Root}
	}
	for i, r := range cfg.AllowedRoots {
		abs, err := pathutil.Canonicalize(r)
		if err != nil {
			return fmt.Errorf("resolve allowed root %q: %w", r, err)
		}
		cfg.AllowedRoots[i] = abs
	}

	return nil
}
