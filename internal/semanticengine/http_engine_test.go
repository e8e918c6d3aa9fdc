package semanticengine

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPEngineSearchParsesResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "order", r.URL.Query().Get("q"))
		assert.Equal(t, "5", r.URL.Query().Get("top_k"))
		_ = json.NewEncoder(w).Encode(searchResponse{
			Query: "order",
			Results: []Candidate{
				{File: "a.ts", Symbol: "f", Score: 0.8},
			},
		})
	}))
	defer srv.Close()

	engine := NewHTTPEngine(srv.URL, time.Second)
	results, err := engine.Search(context.Background(), "order", 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "a.ts", results[0].File)
}

func TestHTTPEngineSearchUnreachableReturnsEmptyNotError(t *testing.T) {
	engine := NewHTTPEngine("http://127.0.0.1:1/not-listening", 50*time.Millisecond)
	results, err := engine.Search(context.Background(), "x", 5)
	assert.NoError(t, err)
	assert.Empty(t, results)
}

func TestWaitForHealthSucceedsOnceReachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	engine := NewHTTPEngine(srv.URL, time.Second)
	ok := WaitForHealth(context.Background(), engine, time.Second, 10*time.Millisecond)
	assert.True(t, ok)
}

func TestWaitForHealthTimesOutWhenUnreachable(t *testing.T) {
	engine := NewHTTPEngine("http://127.0.0.1:1/not-listening", 20*time.Millisecond)
	ok := WaitForHealth(context.Background(), engine, 60*time.Millisecond, 10*time.Millisecond)
	assert.False(t, ok)
}
