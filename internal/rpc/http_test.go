package rpc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoDispatcher() *Dispatcher {
	d := NewDispatcher(nil)
	d.Register("echo", func(ctx context.Context, params json.RawMessage) (any, error) {
		return map[string]string{"ok": "yes"}, nil
	})
	return d
}

func TestHTTPHandlerWrongPathIs404(t *testing.T) {
	h := NewHTTPHandler(echoDispatcher(), nil)
	req := httptest.NewRequest(http.MethodPost, "/nope", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHTTPHandlerWrongMethodIs405(t *testing.T) {
	h := NewHTTPHandler(echoDispatcher(), nil)
	req := httptest.NewRequest(http.MethodGet, "/mcp", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, http.MethodPost, rec.Header().Get("Allow"))
}

func TestHTTPHandlerSingleRequestReturns200(t *testing.T) {
	h := NewHTTPHandler(echoDispatcher(), nil)
	body := `{"jsonrpc":"2.0","id":1,"method":"echo"}`
	req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Nil(t, resp.Error)
}

func TestHTTPHandlerNotificationReturns204(t *testing.T) {
	h := NewHTTPHandler(echoDispatcher(), nil)
	body := `{"jsonrpc":"2.0","method":"echo"}`
	req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestHTTPHandlerBatchPreservesRequestOrder(t *testing.T) {
	d := NewDispatcher(nil)
	d.Register("slow", func(ctx context.Context, params json.RawMessage) (any, error) {
		return map[string]string{"who": "slow"}, nil
	})
	d.Register("fast", func(ctx context.Context, params json.RawMessage) (any, error) {
		return map[string]string{"who": "fast"}, nil
	})
	h := NewHTTPHandler(d, nil)

	body := `[{"jsonrpc":"2.0","id":1,"method":"slow"},{"jsonrpc":"2.0","id":2,"method":"fast"}]`
	req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resps []Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resps))
	require.Len(t, resps, 2)
	assert.Equal(t, json.RawMessage(`1`), resps[0].ID)
	assert.Equal(t, json.RawMessage(`2`), resps[1].ID)
}

func TestHTTPHandlerEmptyBodyIs400(t *testing.T) {
	h := NewHTTPHandler(echoDispatcher(), nil)
	req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(""))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
