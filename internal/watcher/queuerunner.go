package watcher

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/codectx-dev/codectx/internal/obslog"
)

// QueueRunner enqueues a job rather than indexing in-process; a separate
// QueueWorker drains the same FileQueue and invokes the real indexer call
// (spec.md §4.5: "(b) an enqueue to a durable work queue when configured,
// whose worker executes the same indexer call").
type QueueRunner struct {
	queue *FileQueue
}

func NewQueueRunner(queue *FileQueue) *QueueRunner {
	return &QueueRunner{queue: queue}
}

func (r *QueueRunner) Run(ctx context.Context) error {
	return r.queue.Enqueue(Job{EnqueuedAtMs: time.Now().UnixMilli()})
}

// QueueWorker polls a FileQueue and runs the indexer for each job it pops.
// Job coalescing already happened at enqueue time inside Watcher, so the
// worker drains whatever is queued without its own debounce logic.
type QueueWorker struct {
	queue    *FileQueue
	run      func(ctx context.Context) error
	interval time.Duration
	log      *zap.Logger
}

// NewQueueWorker builds a worker that polls every interval (default 1s).
func NewQueueWorker(queue *FileQueue, run func(ctx context.Context) error, interval time.Duration) *QueueWorker {
	if interval <= 0 {
		interval = time.Second
	}
	return &QueueWorker{queue: queue, run: run, interval: interval, log: obslog.Named("queue_worker")}
}

// Start blocks, draining the queue until ctx is cancelled.
func (w *QueueWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.drain(ctx)
		}
	}
}

func (w *QueueWorker) drain(ctx context.Context) {
	for {
		job, ok, err := w.queue.Dequeue()
		if err != nil {
			w.log.Warn("dequeue failed", zap.Error(err))
			return
		}
		if !ok {
			return
		}
		if err := w.run(ctx); err != nil {
			w.log.Warn("queued index run failed", zap.Error(err), zap.Int64("enqueuedAtMs", job.EnqueuedAtMs))
		}
	}
}
