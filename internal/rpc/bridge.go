package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"
)

// bridgeTimeout is the per-request correlator timeout (spec.md §5/§4.10).
const bridgeTimeout = 30 * time.Second

// Bridge fronts an HTTP surface onto a stdio child process: every incoming
// request with an id is forwarded to the child over stdin, and the
// response with the matching id read from the child's stdout resolves the
// caller's pending promise. Notifications are forwarded without
// correlation. This lets the HTTP transport be implemented by a single
// stdio-speaking process without duplicating the method registry
// (spec.md §4.10, "HTTP↔stdio bridge (optional deployment)").
type Bridge struct {
	childIn  io.Writer
	writeMu  sync.Mutex

	mu      sync.Mutex
	pending map[string]chan *Response

	timeout time.Duration
	log     *zap.Logger
}

// NewBridge builds a bridge writing requests to childIn. Call ReadLoop in a
// goroutine to consume the child's responses.
func NewBridge(childIn io.Writer, log *zap.Logger) *Bridge {
	if log == nil {
		log = zap.NewNop()
	}
	return &Bridge{childIn: childIn, pending: make(map[string]chan *Response), timeout: bridgeTimeout, log: log}
}

// timeoutForTest overrides the per-call timeout; production callers never
// need this, it exists so tests don't wait 30s to exercise the timeout path.
func (b *Bridge) timeoutForTest(d time.Duration) {
	b.timeout = d
}

// ReadLoop consumes newline-framed responses from childOut until it returns
// EOF or an error, resolving each pending call by id.
func (b *Bridge) ReadLoop(childOut io.Reader) error {
	dec := json.NewDecoder(childOut)
	for {
		var resp Response
		if err := dec.Decode(&resp); err != nil {
			return err
		}
		b.resolve(string(resp.ID), &resp)
	}
}

// Call forwards req to the child and waits for its matching response, or
// times out after bridgeTimeout with a CodeInternal error (-32000).
func (b *Bridge) Call(ctx context.Context, req Request) (*Response, error) {
	if req.IsNotification() {
		return nil, b.send(req)
	}

	key := string(req.ID)
	ch := make(chan *Response, 1)
	b.mu.Lock()
	b.pending[key] = ch
	b.mu.Unlock()
	defer b.cleanup(key)

	if err := b.send(req); err != nil {
		return nil, err
	}

	timer := time.NewTimer(b.timeout)
	defer timer.Stop()

	select {
	case resp := <-ch:
		return resp, nil
	case <-timer.C:
		return newError(req.ID, -32000, "bridge call timed out after 30s", nil), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (b *Bridge) send(req Request) error {
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal bridged request: %w", err)
	}
	data = append(data, '\n')

	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	_, err = b.childIn.Write(data)
	return err
}

func (b *Bridge) resolve(key string, resp *Response) {
	b.mu.Lock()
	ch, ok := b.pending[key]
	if ok {
		delete(b.pending, key)
	}
	b.mu.Unlock()

	if ok {
		ch <- resp
	} else {
		b.log.Debug("bridge response with no pending caller", zap.String("id", key))
	}
}

func (b *Bridge) cleanup(key string) {
	b.mu.Lock()
	delete(b.pending, key)
	b.mu.Unlock()
}
