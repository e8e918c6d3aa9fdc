// Package obslog provides the server's structured logger. It always writes
// to stderr (or a file) and never to stdout, because stdout carries the
// line-framed JSON-RPC stdio transport when that transport is active.
package obslog

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu  sync.RWMutex
	log *zap.Logger = zap.NewNop()
)

// Options configures the process-wide logger.
type Options struct {
	Debug     bool
	FilePath  string // when set, logs also go to this file (JSONL)
	StdioMode bool   // when true, caller has promised never to write to stdout
}

// Init builds the process-wide logger. Safe to call once at startup; until
// it is called, the logger is a zap.NewNop() no-op.
func Init(opts Options) error {
	level := zapcore.InfoLevel
	if opts.Debug {
		level = zapcore.DebugLevel
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.Lock(os.Stderr), level),
	}

	if opts.FilePath != "" {
		f, err := os.OpenFile(opts.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err == nil {
			cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(f), level))
		}
	}

	l := zap.New(zapcore.NewTee(cores...))

	mu.Lock()
	log = l
	mu.Unlock()
	return nil
}

// L returns the current process-wide logger.
func L() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return log
}

// Named returns a child logger scoped to a component (e.g. "indexer",
// "watcher", "rpc") mirroring the teacher's LogIndexing/LogMCP split, but as
// structured fields rather than distinct package-level functions.
func Named(component string) *zap.Logger {
	return L().Named(component)
}

// Sync flushes buffered log entries; call on shutdown.
func Sync() {
	_ = L().Sync()
}
