package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/codectx-dev/codectx/internal/config"
	"github.com/codectx-dev/codectx/internal/graphdb"
	"github.com/codectx-dev/codectx/internal/indexer"
	"github.com/codectx-dev/codectx/internal/manifest"
	"github.com/codectx-dev/codectx/internal/obslog"
	"github.com/codectx-dev/codectx/internal/orchestrator"
	"github.com/codectx-dev/codectx/internal/parsing"
	"github.com/codectx-dev/codectx/internal/policy"
	"github.com/codectx-dev/codectx/internal/ranker"
	"github.com/codectx-dev/codectx/internal/rpc"
	"github.com/codectx-dev/codectx/internal/semanticengine"
	"github.com/codectx-dev/codectx/internal/version"
	"github.com/codectx-dev/codectx/internal/watcher"
	"github.com/codectx-dev/codectx/internal/weights"
)

func main() {
	app := &cli.App{
		Name:    "codectx",
		Usage:   "local code-context MCP service",
		Version: version.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "root", Aliases: []string{"r"}, Usage: "project root to index", Value: "."},
			&cli.BoolFlag{Name: "debug", Usage: "verbose logging"},
		},
		Commands: []*cli.Command{
			{
				Name:   "index",
				Usage:  "run one indexing pass and exit",
				Action: indexCommand,
			},
			{
				Name:   "serve",
				Usage:  "start the JSON-RPC surface (stdio + HTTP)",
				Action: serveCommand,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "codectx:", err)
		os.Exit(1)
	}
}

// components bundles everything both subcommands need, built once from
// resolved configuration.
type components struct {
	cfg     *config.Config
	dataDir string
	filter  *policy.Filter
	parser  *parsing.Parser
	graph   *graphdb.Store
	man     *manifest.Store
	ix      *indexer.Indexer
	log     *zap.Logger
}

func buildComponents(c *cli.Context) (*components, error) {
	root := c.String("root")
	cfg := config.Default(root)
	if err := config.LoadKDL(cfg, root); err != nil {
		return nil, err
	}
	config.LoadEnv(cfg)
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	dataDir := cfg.Project.DataDir
	if !filepath.IsAbs(dataDir) {
		dataDir = filepath.Join(cfg.Project.Root, dataDir)
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	if err := obslog.Init(obslog.Options{
		Debug:     c.Bool("debug"),
		FilePath:  filepath.Join(dataDir, "codectx.log"),
		StdioMode: c.Command.Name != "index",
	}); err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	log := obslog.Named("main")

	filter := policy.New(cfg.AllowedRoots, cfg.Index.DenyExtensions, cfg.Index.DenyGlobs, cfg.Index.MaxFileSize)

	parser, err := parsing.New()
	if err != nil {
		return nil, fmt.Errorf("init parser: %w", err)
	}

	graph, err := graphdb.Open(filepath.Join(dataDir, cfg.Server.SqliteDB), cfg.Indexing.GraphLockRetries, cfg.Indexing.GraphLockBackoff)
	if err != nil {
		return nil, fmt.Errorf("open graph store: %w", err)
	}

	man := manifest.New(dataDir, nil)

	ix := indexer.New(cfg, cfg.Project.Root, filter, parser, graph, man)

	return &components{cfg: cfg, dataDir: dataDir, filter: filter, parser: parser, graph: graph, man: man, ix: ix, log: log}, nil
}

func indexCommand(c *cli.Context) error {
	comp, err := buildComponents(c)
	if err != nil {
		return err
	}
	defer comp.graph.Close()

	result, err := comp.ix.Run(c.Context)
	if err != nil {
		return fmt.Errorf("indexing pass failed: %w", err)
	}
	comp.log.Info("index command complete",
		zap.Int("files", result.FilesIndexed),
		zap.Int("symbols", result.SymbolsFound),
		zap.Int("edges", result.EdgesFound),
		zap.Int("reused", result.Reused),
	)
	return nil
}

func serveCommand(c *cli.Context) error {
	comp, err := buildComponents(c)
	if err != nil {
		return err
	}
	defer comp.graph.Close()

	ctx, cancel := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	engine := buildEngine(ctx, comp.cfg, comp.log)
	reranker := buildReranker(comp.cfg)
	weightsMgr, err := weights.New(comp.dataDir)
	if err != nil {
		return fmt.Errorf("init weights manager: %w", err)
	}

	orch := orchestrator.New(engine, reranker, weightsMgr, comp.graph, ranker.StrategyGreedy, 0.5, comp.cfg.Index.CharsPerToken)
	reloadFromManifest(orch, engine, comp.man)

	runIndex := func(ctx context.Context) error {
		if _, err := comp.ix.Run(ctx); err != nil {
			return err
		}
		reloadFromManifest(orch, engine, comp.man)
		return nil
	}

	if comp.cfg.Server.FastStart {
		// Serve right away; the initial pass runs in the background.
		go func() {
			if err := runIndex(ctx); err != nil {
				comp.log.Warn("initial indexing pass failed", zap.Error(err))
			}
		}()
	} else {
		if _, err := comp.ix.Run(ctx); err != nil {
			comp.log.Warn("initial indexing pass failed", zap.Error(err))
		}
		reloadFromManifest(orch, engine, comp.man)
	}

	debounce := time.Duration(comp.cfg.Index.WatchDebounceMs) * time.Millisecond
	w, err := watcher.New(comp.cfg.Project.Root, comp.filter, debounce, watcher.NewInProcessRunner(runIndex))
	if err != nil {
		return fmt.Errorf("init watcher: %w", err)
	}
	if err := w.Start(); err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	defer w.Stop()

	dispatcher := rpc.NewDispatcher(comp.log)
	svc := &rpc.Services{
		Orchestrator: orch,
		Graph:        comp.graph,
		Filter:       comp.filter,
		Manifest:     comp.man,
		Weights:      weightsMgr,
		ProjectRoot:  comp.cfg.Project.Root,
		ShutdownFunc: func(ctx context.Context) { cancel() },
		Log:          comp.log,
	}
	rpc.RegisterAll(dispatcher, svc)

	stdio := rpc.NewStdioServer(dispatcher, os.Stdin, os.Stdout, comp.log)
	httpHandler := rpc.NewHTTPHandler(dispatcher, comp.log)
	httpServer := &http.Server{
		Addr:    fmt.Sprintf("127.0.0.1:%d", comp.cfg.Server.HTTPPort),
		Handler: httpHandler,
	}

	errCh := make(chan error, 2)
	go func() { errCh <- stdio.Serve(ctx) }()
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			comp.log.Error("transport failed", zap.Error(err))
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = httpServer.Shutdown(shutdownCtx)
	obslog.Sync()
	return nil
}

// buildEngine prefers the configured external semantic engine, falling
// back to the in-process lexical-overlap engine when it never becomes
// healthy within cfg.Engine.HealthTimeout (spec.md §4.6).
func buildEngine(ctx context.Context, cfg *config.Config, log *zap.Logger) semanticengine.Engine {
	if cfg.Engine.URL == "" {
		return semanticengine.NewFallbackEngine()
	}
	httpEngine := semanticengine.NewHTTPEngine(cfg.Engine.URL, cfg.Engine.RequestTimeout)
	if semanticengine.WaitForHealth(ctx, httpEngine, cfg.Engine.HealthTimeout, cfg.Engine.HealthProbeEvery) {
		return httpEngine
	}
	log.Warn("semantic engine never became healthy, using fallback engine", zap.String("url", cfg.Engine.URL))
	return semanticengine.NewFallbackEngine()
}

func buildReranker(cfg *config.Config) orchestrator.Reranker {
	if !cfg.Reranker.Enabled {
		return nil
	}
	return semanticengine.NewRerankClient(cfg.Reranker.Endpoint, cfg.Reranker.Timeout)
}

// reloadFromManifest refreshes the orchestrator's in-memory file map and,
// when the fallback engine is active, its lexical index, from the
// manifest's most recently written pass.
func reloadFromManifest(orch *orchestrator.Orchestrator, engine semanticengine.Engine, man *manifest.Store) {
	files, entries := man.LoadPrevious()
	orch.LoadFiles(files)
	if fallback, ok := engine.(*semanticengine.FallbackEngine); ok {
		fallback.SetEntries(entries)
	}
}
