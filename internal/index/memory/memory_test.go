package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragchat/internal/domain"
)

func mustInsert(t *testing.T, ix *Index, id, source string, vec []float64) {
	t.Helper()
	require.NoError(t, ix.Insert(domain.Chunk{ID: id, Source: source, Text: "chunk " + id}, vec))
}

func TestSelfSimilarityRankOne(t *testing.T) {
	ix, err := New(3)
	require.NoError(t, err)
	mustInsert(t, ix, "a", "doc1", []float64{0.2, 0.5, 0.1})
	mustInsert(t, ix, "b", "doc1", []float64{0.9, 0.0, 0.4})

	res, err := ix.Search([]float64{0.9, 0.0, 0.4}, 1, nil)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "b", res[0].Chunk.ID)
	assert.Equal(t, 1, res[0].Rank)
	assert.InDelta(t, 1.0, res[0].Score, 1e-9)
}

func TestSearchOrderingScenario(t *testing.T) {
	ix, err := New(2)
	require.NoError(t, err)
	mustInsert(t, ix, "1", "doc", []float64{1, 0})
	mustInsert(t, ix, "2", "doc", []float64{0, 1})

	res, err := ix.Search([]float64{0.9, 0.1}, 2, nil)
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, "1", res[0].Chunk.ID)
	assert.Equal(t, "2", res[1].Chunk.ID)
	assert.Greater(t, res[0].Score, res[1].Score)
}

func TestSearchRespectsKAndFilter(t *testing.T) {
	ix, err := New(2)
	require.NoError(t, err)
	mustInsert(t, ix, "a", "doc1", []float64{1, 0})
	mustInsert(t, ix, "b", "doc2", []float64{1, 0.1})
	mustInsert(t, ix, "c", "doc1", []float64{1, 0.2})

	res, err := ix.Search([]float64{1, 0}, 2, nil)
	require.NoError(t, err)
	assert.Len(t, res, 2)

	res, err = ix.Search([]float64{1, 0}, 5, &domain.Filter{Sources: []string{"doc1"}})
	require.NoError(t, err)
	require.Len(t, res, 2)
	for _, r := range res {
		assert.Equal(t, "doc1", r.Chunk.Source)
	}

	// fewer matches than k is not an error
	res, err = ix.Search([]float64{1, 0}, 10, &domain.Filter{Sources: []string{"doc2"}})
	require.NoError(t, err)
	assert.Len(t, res, 1)
}

func TestTiesBrokenByAscendingID(t *testing.T) {
	ix, err := New(2)
	require.NoError(t, err)
	// identical vectors, identical scores
	mustInsert(t, ix, "z", "doc", []float64{1, 1})
	mustInsert(t, ix, "a", "doc", []float64{1, 1})
	mustInsert(t, ix, "m", "doc", []float64{1, 1})

	res, err := ix.Search([]float64{1, 1}, 3, nil)
	require.NoError(t, err)
	require.Len(t, res, 3)
	assert.Equal(t, []string{"a", "m", "z"}, []string{res[0].Chunk.ID, res[1].Chunk.ID, res[2].Chunk.ID})
}

func TestInsertDeleteSearch(t *testing.T) {
	ix, err := New(2)
	require.NoError(t, err)
	mustInsert(t, ix, "a", "doc", []float64{1, 0})
	mustInsert(t, ix, "b", "doc", []float64{0, 1})

	require.NoError(t, ix.Delete("a"))
	assert.Equal(t, 1, ix.Len())

	res, err := ix.Search([]float64{1, 0}, 5, nil)
	require.NoError(t, err)
	for _, r := range res {
		assert.NotEqual(t, "a", r.Chunk.ID)
	}

	// absent id is a no-op
	require.NoError(t, ix.Delete("a"))
	assert.Equal(t, 1, ix.Len())
}

func TestInsertErrors(t *testing.T) {
	ix, err := New(2)
	require.NoError(t, err)
	mustInsert(t, ix, "a", "doc", []float64{1, 0})

	err = ix.Insert(domain.Chunk{ID: "a"}, []float64{0, 1})
	assert.ErrorIs(t, err, domain.ErrDuplicateID)

	err = ix.Insert(domain.Chunk{ID: "b"}, []float64{1, 0, 0})
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)

	_, err = ix.Search([]float64{1}, 3, nil)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestEmptyIndexSearch(t *testing.T) {
	ix, err := New(4)
	require.NoError(t, err)
	res, err := ix.Search([]float64{1, 0, 0, 0}, 5, nil)
	require.NoError(t, err)
	assert.Empty(t, res)
}

func TestInvalidDimension(t *testing.T) {
	_, err := New(0)
	assert.Error(t, err)
}
