package watcher

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileQueueEnqueueDequeueOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queue.jsonl")
	q := NewFileQueue(path)

	require.NoError(t, q.Enqueue(Job{EnqueuedAtMs: 1}))
	require.NoError(t, q.Enqueue(Job{EnqueuedAtMs: 2}))

	job, ok, err := q.Dequeue()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(1), job.EnqueuedAtMs)

	job, ok, err = q.Dequeue()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(2), job.EnqueuedAtMs)

	_, ok, err = q.Dequeue()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFileQueueDequeueMissingFileIsEmpty(t *testing.T) {
	q := NewFileQueue(filepath.Join(t.TempDir(), "missing.jsonl"))
	_, ok, err := q.Dequeue()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFileQueueSkipsMalformedHeadRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queue.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("not json\n{\"enqueuedAtMs\":5}\n"), 0644))
	q := NewFileQueue(path)

	_, ok, err := q.Dequeue()
	require.NoError(t, err)
	assert.False(t, ok, "malformed head record is dropped, not returned")

	job, ok, err := q.Dequeue()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(5), job.EnqueuedAtMs)
}
