package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync"

	"go.uber.org/zap"
)

// HTTPHandler serves POST /mcp with either a single JSON-RPC request object
// or a batch array (spec.md §4.10). Client disconnection cancels every
// per-request handler, since each runs against the request's own context.
type HTTPHandler struct {
	dispatcher *Dispatcher
	log        *zap.Logger
}

// NewHTTPHandler wraps dispatcher as an http.Handler mounted at /mcp.
func NewHTTPHandler(dispatcher *Dispatcher, log *zap.Logger) *HTTPHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &HTTPHandler{dispatcher: dispatcher, log: log}
}

func (h *HTTPHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/mcp" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	if trimmed[0] == '[' {
		h.serveBatch(ctx, w, trimmed)
		return
	}
	h.serveSingle(ctx, w, trimmed)
}

func (h *HTTPHandler) serveSingle(ctx context.Context, w http.ResponseWriter, body []byte) {
	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSON(w, http.StatusOK, newError(nil, -32700, "parse error: "+err.Error(), nil))
		return
	}

	resp := h.dispatcher.Dispatch(ctx, req)
	if resp == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// serveBatch dispatches every element of the array concurrently, matching
// spec.md §5's "HTTP response order matches element order within a batch
// after handler completion": element i of the response array corresponds
// to element i of the request array, not the order handlers finished in.
func (h *HTTPHandler) serveBatch(ctx context.Context, w http.ResponseWriter, body []byte) {
	var rawItems []json.RawMessage
	if err := json.Unmarshal(body, &rawItems); err != nil {
		writeJSON(w, http.StatusOK, newError(nil, -32700, "parse error: "+err.Error(), nil))
		return
	}

	responses := make([]*Response, len(rawItems))
	var wg sync.WaitGroup
	for i, raw := range rawItems {
		wg.Add(1)
		go func(i int, raw json.RawMessage) {
			defer wg.Done()
			var req Request
			if err := json.Unmarshal(raw, &req); err != nil {
				responses[i] = newError(nil, -32700, "parse error: "+err.Error(), nil)
				return
			}
			responses[i] = h.dispatcher.Dispatch(ctx, req)
		}(i, raw)
	}
	wg.Wait()

	out := make([]*Response, 0, len(responses))
	for _, r := range responses {
		if r != nil {
			out = append(out, r)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
