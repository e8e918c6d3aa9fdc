package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syncedBuffer is a bytes.Buffer safe for the Bridge's writer goroutine and
// a test-side reader goroutine to share.
type syncedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (s *syncedBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *syncedBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

func TestBridgeCallResolvesOnMatchingResponse(t *testing.T) {
	var childIn syncedBuffer
	b := NewBridge(&childIn, nil)

	pr, pw := io.Pipe()
	readLoopDone := make(chan struct{})
	go func() {
		b.ReadLoop(pr)
		close(readLoopDone)
	}()

	type callResult struct {
		resp *Response
		err  error
	}
	resultCh := make(chan callResult, 1)
	go func() {
		resp, err := b.Call(context.Background(), Request{JSONRPC: "2.0", ID: json.RawMessage(`7`), Method: "echo"})
		resultCh <- callResult{resp, err}
	}()

	require.Eventually(t, func() bool { return childIn.String() != "" }, time.Second, time.Millisecond)

	var req Request
	require.NoError(t, json.Unmarshal(bytes.TrimSpace([]byte(childIn.String())), &req))
	resp := Response{JSONRPC: "2.0", ID: req.ID, Result: map[string]string{"ok": "yes"}}
	data, err := json.Marshal(resp)
	require.NoError(t, err)
	_, err = pw.Write(append(data, '\n'))
	require.NoError(t, err)

	result := <-resultCh
	require.NoError(t, result.err)
	require.NotNil(t, result.resp)
	assert.Nil(t, result.resp.Error)
	assert.Equal(t, json.RawMessage(`7`), result.resp.ID)

	pw.Close()
	<-readLoopDone
}

func TestBridgeCallTimesOutWithInternalError(t *testing.T) {
	var childIn bytes.Buffer
	b := NewBridge(&childIn, nil)
	b.timeoutForTest(10 * time.Millisecond)

	resp, err := b.Call(context.Background(), Request{JSONRPC: "2.0", ID: json.RawMessage(`9`), Method: "slow"})
	require.NoError(t, err)
	require.NotNil(t, resp)
	require.NotNil(t, resp.Error)
	assert.Equal(t, -32000, resp.Error.Code)
}

func TestBridgeCallForwardsNotificationWithoutWaiting(t *testing.T) {
	var childIn bytes.Buffer
	b := NewBridge(&childIn, nil)

	resp, err := b.Call(context.Background(), Request{JSONRPC: "2.0", Method: "note"})
	require.NoError(t, err)
	assert.Nil(t, resp)
	assert.Contains(t, childIn.String(), `"method":"note"`)
}

func TestBridgeResolveWithNoPendingCallerIsNoop(t *testing.T) {
	var childIn bytes.Buffer
	b := NewBridge(&childIn, nil)
	assert.NotPanics(t, func() {
		b.resolve("missing", &Response{JSONRPC: "2.0", ID: json.RawMessage(`1`)})
	})
}
