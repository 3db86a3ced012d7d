package assemble

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragchat/internal/domain"
)

func scored(id, text string, rank int) domain.ScoredChunk {
	return domain.ScoredChunk{
		Chunk: domain.Chunk{ID: id, Text: text},
		Rank:  rank,
	}
}

func TestAssembleAllChunksFit(t *testing.T) {
	a := New(nil)
	chunks := []domain.ScoredChunk{
		scored("a", "one two three", 1),
		scored("b", "four five", 2),
		scored("c", "six", 3),
	}
	got := a.Assemble(chunks, 100)
	require.Len(t, got.Chunks, 3)
	assert.Equal(t, 6, got.Used)
	for i, cc := range got.Chunks {
		assert.False(t, cc.Truncated)
		assert.Equal(t, chunks[i].Chunk.ID, cc.Chunk.ID)
		assert.Equal(t, chunks[i].Chunk.Text, cc.Text)
	}
}

func TestAssembleStopsAtBudget(t *testing.T) {
	a := New(nil)
	chunks := []domain.ScoredChunk{
		scored("a", "one two three", 1),
		scored("b", "four five six seven", 2),
		scored("c", "eight", 3),
	}
	got := a.Assemble(chunks, 4)
	// first chunk fits, second would exceed: stop, never skip ahead
	require.Len(t, got.Chunks, 1)
	assert.Equal(t, "a", got.Chunks[0].Chunk.ID)
	assert.Equal(t, 3, got.Used)
}

func TestAssembleTruncatesOversizedTopChunk(t *testing.T) {
	a := New(nil)
	chunks := []domain.ScoredChunk{
		scored("a", "one two three four five six", 1),
		scored("b", "seven", 2),
	}
	got := a.Assemble(chunks, 3)
	require.Len(t, got.Chunks, 1)
	assert.True(t, got.Chunks[0].Truncated)
	assert.Equal(t, "one two three", got.Chunks[0].Text)
	assert.Equal(t, 3, got.Used)
}

func TestAssembleZeroBudget(t *testing.T) {
	a := New(nil)
	got := a.Assemble([]domain.ScoredChunk{scored("a", "text", 1)}, 0)
	assert.Empty(t, got.Chunks)
	assert.True(t, got.Empty())
}

func TestAssembleDeterministic(t *testing.T) {
	a := New(nil)
	chunks := []domain.ScoredChunk{
		scored("a", "one two", 1),
		scored("b", "three four five", 2),
	}
	first := a.Assemble(chunks, 5)
	second := a.Assemble(chunks, 5)
	assert.Equal(t, first, second)
}

func TestWordMeasure(t *testing.T) {
	m := WordMeasure{}
	assert.Equal(t, 3, m.Count("  one   two three "))
	assert.Equal(t, "one two", m.Truncate("one two three", 2))
	assert.Equal(t, "one two three", m.Truncate("one two three", 9))
	assert.Equal(t, "", m.Truncate("one", 0))
}
