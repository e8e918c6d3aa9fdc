// Package config loads the server's configuration from an optional
// .codectx.kdl file plus environment variable overrides, in that order.
package config

import "time"

// Config is the fully resolved configuration for one indexed project.
type Config struct {
	Project     Project
	Index       Index
	Indexing    IndexingTuning
	Server      Server
	Engine      Engine
	Reranker    Reranker
	Weights     WeightsDefault
	AllowedRoots []string
}

type Project struct {
	Root      string
	DataDir   string
	Namespace string
	Tenant    string
	Metadata  map[string]string
}

// Index controls what the policy filter and indexer consider eligible.
type Index struct {
	Extensions       []string // default: .ts .tsx .js .jsx
	MaxFileSize      int64    // bytes, default 50 MiB
	DenyExtensions   []string // default: .env .key .pem
	DenyGlobs        []string
	Mode             string // "full" | "incremental"
	WatchDebounceMs  int
	ChunkTokenLimit  int
	OverlapTokens    int
	CharsPerToken    int
}

// IndexingTuning controls worker concurrency and retry behavior.
type IndexingTuning struct {
	ParallelFileWorkers int
	GraphLockRetries    int
	GraphLockBackoff    time.Duration
}

// Server controls the RPC transports.
type Server struct {
	HTTPPort  int
	FastStart bool
	SqliteDB  string
}

// Engine describes the external semantic engine.
type Engine struct {
	URL              string
	RequestTimeout   time.Duration
	HealthTimeout    time.Duration
	HealthProbeEvery time.Duration
}

// Reranker describes the optional reranker endpoint.
type Reranker struct {
	Enabled  bool
	Endpoint string
	Timeout  time.Duration
}

type WeightsDefault struct {
	Semantic float64
	Lexical  float64
	Graph    float64
	Reranker float64
}

// Default returns the configuration baseline before KDL/env overlays.
func Default(root string) *Config {
	return &Config{
		Project: Project{
			Root:    root,
			DataDir: ".codectx",
		},
		Index: Index{
			Extensions:      []string{".ts", ".tsx", ".js", ".jsx"},
			MaxFileSize:     50 * 1024 * 1024,
			DenyExtensions:  []string{".env", ".key", ".pem"},
			Mode:            "incremental",
			WatchDebounceMs: 500,
			ChunkTokenLimit: 200,
			OverlapTokens:   20,
			CharsPerToken:   4,
		},
		Indexing: IndexingTuning{
			ParallelFileWorkers: 0, // 0 == auto (NumCPU)
			GraphLockRetries:    3,
			GraphLockBackoff:    50 * time.Millisecond,
		},
		Server: Server{
			HTTPPort:  7450,
			FastStart: false,
			SqliteDB:  "graph.db",
		},
		Engine: Engine{
			URL:              "http://127.0.0.1:7451",
			RequestTimeout:   5 * time.Second,
			HealthTimeout:    20 * time.Second,
			HealthProbeEvery: 500 * time.Millisecond,
		},
		Weights: WeightsDefault{
			Semantic: 0.6,
			Lexical:  0.25,
			Graph:    0.1,
			Reranker: 0.05,
		},
	}
}
