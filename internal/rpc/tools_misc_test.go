package rpc

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codectx-dev/codectx/internal/graphdb"
	"github.com/codectx-dev/codectx/internal/ranker"
)

func TestHandleLangchainQueryNoMatchesStillSucceeds(t *testing.T) {
	svc := newTestServices(t, t.TempDir(), graphdb.RebuildInput{})
	h := handleLangchainQuery(svc)
	res, err := h(context.Background(), []byte(`{"query":"anything"}`))
	require.NoError(t, err)
	m := res.(map[string]any)
	assert.Equal(t, "no indexed content matched that question", m["answer"])
}

func TestHandleSubmitFeedbackRejectsBadDirection(t *testing.T) {
	svc := newTestServices(t, t.TempDir(), graphdb.RebuildInput{})
	h := handleSubmitFeedback(svc)
	_, err := h(context.Background(), []byte(`{"direction":"sideways"}`))
	require.Error(t, err)
}

func TestHandleSubmitFeedbackUpNudgesSemanticWeight(t *testing.T) {
	svc := newTestServices(t, t.TempDir(), graphdb.RebuildInput{})
	before, err := svc.Weights.Current()
	require.NoError(t, err)

	h := handleSubmitFeedback(svc)
	res, err := h(context.Background(), []byte(`{"direction":"up"}`))
	require.NoError(t, err)

	after := res.(ranker.Weights)
	assert.Greater(t, after.Semantic, before.Semantic)
}

func TestHandleGetWeightsReturnsDefaults(t *testing.T) {
	svc := newTestServices(t, t.TempDir(), graphdb.RebuildInput{})
	h := handleGetWeights(svc)
	res, err := h(context.Background(), []byte(`{}`))
	require.NoError(t, err)
	w := res.(ranker.Weights)
	assert.InDelta(t, 0.6, w.Semantic, 0.001)
}
