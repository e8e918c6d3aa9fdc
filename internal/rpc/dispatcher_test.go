package rpc

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codectx-dev/codectx/internal/errs"
)

func TestDispatchReturnsResultForKnownMethod(t *testing.T) {
	d := NewDispatcher(nil)
	d.Register("echo", func(ctx context.Context, params json.RawMessage) (any, error) {
		return map[string]string{"ok": "yes"}, nil
	})

	resp := d.Dispatch(context.Background(), Request{JSONRPC: "2.0", ID: json.RawMessage(`1`), Method: "echo"})
	require.NotNil(t, resp)
	assert.Nil(t, resp.Error)
	assert.Equal(t, json.RawMessage(`1`), resp.ID)
}

func TestDispatchUnknownMethodIsMethodNotFound(t *testing.T) {
	d := NewDispatcher(nil)
	resp := d.Dispatch(context.Background(), Request{JSONRPC: "2.0", ID: json.RawMessage(`2`), Method: "nope"})
	require.NotNil(t, resp)
	require.NotNil(t, resp.Error)
	assert.Equal(t, errs.CodeMethodNotFound, resp.Error.Code)
}

func TestDispatchNotificationNeverReturnsResponse(t *testing.T) {
	d := NewDispatcher(nil)
	called := false
	d.Register("note", func(ctx context.Context, params json.RawMessage) (any, error) {
		called = true
		return nil, nil
	})

	resp := d.Dispatch(context.Background(), Request{JSONRPC: "2.0", Method: "note"})
	assert.Nil(t, resp)
	assert.True(t, called)
}

func TestDispatchNotificationHandlerErrorStillReturnsNil(t *testing.T) {
	d := NewDispatcher(nil)
	d.Register("note", func(ctx context.Context, params json.RawMessage) (any, error) {
		return nil, errs.NewRPCError(errs.CodeInternal, "boom", nil)
	})

	resp := d.Dispatch(context.Background(), Request{JSONRPC: "2.0", Method: "note"})
	assert.Nil(t, resp)
}

func TestDispatchRecoversPanicAsInternalError(t *testing.T) {
	d := NewDispatcher(nil)
	d.Register("boom", func(ctx context.Context, params json.RawMessage) (any, error) {
		panic("kaboom")
	})

	resp := d.Dispatch(context.Background(), Request{JSONRPC: "2.0", ID: json.RawMessage(`3`), Method: "boom"})
	require.NotNil(t, resp)
	require.NotNil(t, resp.Error)
	assert.Equal(t, errs.CodeInternal, resp.Error.Code)
}

func TestRequestIsNotification(t *testing.T) {
	assert.True(t, Request{}.IsNotification())
	assert.False(t, Request{ID: json.RawMessage(`1`)}.IsNotification())
}
