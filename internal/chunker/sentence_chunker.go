// Package chunker splits documents into indexable chunks.
package chunker

import (
	"strings"

	"github.com/google/uuid"

	"ragchat/internal/domain"
	"ragchat/internal/text"
)

// SentenceChunker groups consecutive sentences into chunks with overlap.
type SentenceChunker struct {
	sentencesPerChunk int
	overlapSentences  int
}

func NewSentenceChunker(sentencesPerChunk, overlapSentences int) *SentenceChunker {
	if sentencesPerChunk <= 0 {
		sentencesPerChunk = 5
	}
	if overlapSentences < 0 {
		overlapSentences = 0
	}
	if overlapSentences >= sentencesPerChunk {
		overlapSentences = sentencesPerChunk - 1
	}
	return &SentenceChunker{
		sentencesPerChunk: sentencesPerChunk,
		overlapSentences:  overlapSentences,
	}
}

func (c *SentenceChunker) Chunk(document domain.Document) ([]domain.Chunk, error) {
	sentences := text.SplitSentences(document.Content)
	if len(sentences) == 0 {
		return nil, nil
	}
	var chunks []domain.Chunk
	i := 0
	pos := 0
	for i < len(sentences) {
		end := i + c.sentencesPerChunk
		if end > len(sentences) {
			end = len(sentences)
		}
		chunks = append(chunks, domain.Chunk{
			ID:       uuid.NewString(),
			Source:   document.Path,
			Position: pos,
			Text:     strings.Join(sentences[i:end], " "),
		})
		if end == len(sentences) {
			break
		}
		i = end - c.overlapSentences
		pos++
	}
	return chunks, nil
}
