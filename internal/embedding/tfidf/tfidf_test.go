package tfidf

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrepareAndEmbed(t *testing.T) {
	e := New()
	corpus := []string{
		"the quick brown fox jumps",
		"the lazy dog sleeps all day",
		"foxes hunt at dawn",
	}
	require.NoError(t, e.Prepare(corpus))
	require.Greater(t, e.Dimension(), 0)

	vec, err := e.Embed(context.Background(), "quick brown fox")
	require.NoError(t, err)
	require.Len(t, vec, e.Dimension())

	// unit norm
	norm := 0.0
	for _, v := range vec {
		norm += v * v
	}
	assert.InDelta(t, 1.0, norm, 1e-9)
}

func TestEmbedIsDeterministic(t *testing.T) {
	e := New()
	require.NoError(t, e.Prepare([]string{"alpha beta gamma", "beta gamma delta"}))
	a, err := e.Embed(context.Background(), "beta gamma")
	require.NoError(t, err)
	b, err := e.Embed(context.Background(), "beta gamma")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestEmbedUnknownTokensYieldsZeroVector(t *testing.T) {
	e := New()
	require.NoError(t, e.Prepare([]string{"alpha beta gamma"}))
	vec, err := e.Embed(context.Background(), "unrelated words entirely")
	require.NoError(t, err)
	for _, v := range vec {
		assert.Zero(t, v)
	}
}

func TestErrors(t *testing.T) {
	e := New()
	_, err := e.Embed(context.Background(), "anything")
	assert.Error(t, err)

	assert.Error(t, e.Prepare(nil))
}
