package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragchat/internal/chunker"
	"ragchat/internal/embedding/tfidf"
	"ragchat/internal/summarizer"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestIngestBuildsSearchableIndex(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "widgets.txt",
		"Widgets spin clockwise under load. Widget oil must be changed yearly. A widget hums when healthy.")
	writeFile(t, dir, "gadgets.txt",
		"Gadgets blink at night. Gadget batteries last a week. Never submerge a gadget.")
	writeFile(t, dir, "ignored.pdf", "binary stuff")

	emb := tfidf.New()
	svc := NewService(chunker.NewSentenceChunker(2, 0), emb, summarizer.NewFrequencySummarizer(), 2, nil)

	res, err := svc.Ingest(context.Background(), []string{filepath.Join(dir, "*")})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Documents)
	assert.Greater(t, res.Chunks, 2)
	assert.Equal(t, res.Chunks, res.Index.Len())
	assert.Equal(t, res.Chunks, res.Sparse.Len())
	assert.NotEmpty(t, res.Summary)

	// the built index answers queries about the corpus
	vec, err := emb.Embed(context.Background(), "widget oil changed yearly")
	require.NoError(t, err)
	hits, err := res.Index.Search(vec, 1, nil)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Contains(t, hits[0].Chunk.Text, "Widget oil")
}

func TestIngestNoDocuments(t *testing.T) {
	svc := NewService(chunker.NewSentenceChunker(2, 0), tfidf.New(), nil, 0, nil)
	_, err := svc.Ingest(context.Background(), []string{filepath.Join(t.TempDir(), "*")})
	assert.Error(t, err)
}

func TestIngestEmptyDocuments(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "empty.txt", "   ")
	svc := NewService(chunker.NewSentenceChunker(2, 0), tfidf.New(), nil, 0, nil)
	_, err := svc.Ingest(context.Background(), []string{filepath.Join(dir, "*.txt")})
	assert.Error(t, err)
}
