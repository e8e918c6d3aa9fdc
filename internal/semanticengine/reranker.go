package semanticengine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// RerankClient is the optional reranker described in spec.md §4.6: POST
// candidates to a rerank endpoint, read back scores keyed by candidate ID.
// A failure (transport error, bad status, bad body) returns a nil map and
// an error - callers swallow it, so the reranker weight effectively falls
// back to the semantic signal.
type RerankClient struct {
	endpoint string
	client   *http.Client
}

func NewRerankClient(endpoint string, timeout time.Duration) *RerankClient {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &RerankClient{endpoint: endpoint, client: &http.Client{Timeout: timeout}}
}

type rerankItem struct {
	ID       string            `json:"id"`
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type rerankRequest struct {
	Candidates []rerankItem `json:"candidates"`
}

// rerankResult's extra fields are opaque pass-through per spec.md §9's
// Open Questions: this server only reads Score, never validates or echoes
// the rest of the payload shape a given reranker implementation sends.
type rerankResult struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

// Rerank returns a map from Candidate.ID() to reranker score.
func (r *RerankClient) Rerank(ctx context.Context, candidates []Candidate) (map[string]float64, error) {
	items := make([]rerankItem, 0, len(candidates))
	for _, c := range candidates {
		items = append(items, rerankItem{
			ID:   c.ID(),
			Text: c.Snippet,
			Metadata: map[string]string{
				"file":   c.File,
				"symbol": c.Symbol,
			},
		})
	}

	body, err := json.Marshal(rerankRequest{Candidates: items})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("reranker returned status %d", resp.StatusCode)
	}

	var results []rerankResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, err
	}
	scores := make(map[string]float64, len(results))
	for _, r := range results {
		scores[r.ID] = r.Score
	}
	return scores, nil
}
