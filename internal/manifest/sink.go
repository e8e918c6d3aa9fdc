package manifest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// ANNSink upserts one SemanticEntry's embedding into an external (or
// embedded) vector index. Implementations must never block the index pass
// on failure: Store.Write swallows every Upsert error.
type ANNSink interface {
	Upsert(entry SemanticEntry) error
}

// upsertPayload is the wire shape POSTed to an HTTPVectorSink. Extra
// metadata fields are opaque to the receiver, mirroring the reranker
// contract's treatment of unspecified fields (spec.md §9, Open Questions).
type upsertPayload struct {
	ID       string            `json:"id"`
	Vector   [EmbeddingDim]float32 `json:"vector"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// HTTPVectorSink POSTs upserts to a configured external vector service.
// This is the stdlib-justified leaf of the manifest: no retrieved example
// repo ships an HTTP client for a vector-store upsert wire format, so a
// plain net/http POST is the smallest faithful implementation of spec.md
// §4.3's "upserted to an external vector service" (see DESIGN.md).
type HTTPVectorSink struct {
	Endpoint string
	Client   *http.Client
}

// NewHTTPVectorSink builds a sink with a bounded request timeout.
func NewHTTPVectorSink(endpoint string, timeout time.Duration) *HTTPVectorSink {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPVectorSink{Endpoint: endpoint, Client: &http.Client{Timeout: timeout}}
}

func (h *HTTPVectorSink) Upsert(entry SemanticEntry) error {
	payload := upsertPayload{
		ID:     entry.ID,
		Vector: Embed(entry.Text),
		Metadata: map[string]string{
			"file":   entry.File,
			"symbol": entry.Symbol,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), h.Client.Timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.Endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := h.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("vector sink upsert failed: status %d", resp.StatusCode)
	}
	return nil
}
