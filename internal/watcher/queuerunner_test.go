package watcher

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueRunnerEnqueuesAndWorkerDrains(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queue.jsonl")
	queue := NewFileQueue(path)
	runner := NewQueueRunner(queue)

	require.NoError(t, runner.Run(context.Background()))
	require.NoError(t, runner.Run(context.Background()))

	var calls int32
	worker := NewQueueWorker(queue, func(ctx context.Context) error {
		atomic.AddInt32(&calls, 1)
		return nil
	}, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	go worker.Start(ctx)
	defer cancel()

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&calls) == 2
	}, time.Second, 5*time.Millisecond)

	_, ok, err := queue.Dequeue()
	require.NoError(t, err)
	assert.False(t, ok, "worker should have drained both enqueued jobs")
}
