package sparse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragchat/internal/domain"
)

func TestScoresPreferTermOverlap(t *testing.T) {
	ix := New()
	ix.Build([]domain.Chunk{
		{ID: "cats", Text: "cats purr and cats nap in the sun"},
		{ID: "dogs", Text: "dogs bark loudly at the postman every morning"},
		{ID: "fish", Text: "goldfish swim quiet circles in a bowl"},
	})
	require.Equal(t, 3, ix.Len())

	scores := ix.Scores("why do cats purr")
	assert.Greater(t, scores["cats"], scores["dogs"])
	assert.Greater(t, scores["cats"], scores["fish"])
	assert.Zero(t, scores["fish"])
}

func TestScoresOnEmptyIndex(t *testing.T) {
	ix := New()
	scores := ix.Scores("anything")
	assert.Empty(t, scores)
}

func TestBuildReplacesCorpus(t *testing.T) {
	ix := New()
	ix.Build([]domain.Chunk{{ID: "a", Text: "alpha beta"}})
	ix.Build([]domain.Chunk{{ID: "b", Text: "gamma delta"}})
	require.Equal(t, 1, ix.Len())
	_, ok := ix.Scores("gamma")["a"]
	assert.False(t, ok)
}
