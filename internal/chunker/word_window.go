package chunker

import (
	"strings"

	"github.com/google/uuid"

	"ragchat/internal/domain"
)

// WordWindowChunker slides a fixed-size word window over the document with
// overlap between consecutive windows.
type WordWindowChunker struct {
	size    int
	overlap int
}

func NewWordWindowChunker(size, overlap int) *WordWindowChunker {
	if size <= 0 {
		size = 512
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size - 1
	}
	return &WordWindowChunker{size: size, overlap: overlap}
}

func (c *WordWindowChunker) Chunk(document domain.Document) ([]domain.Chunk, error) {
	words := strings.Fields(document.Content)
	if len(words) == 0 {
		return nil, nil
	}
	step := c.size - c.overlap
	var chunks []domain.Chunk
	pos := 0
	for start := 0; start < len(words); start += step {
		end := start + c.size
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, domain.Chunk{
			ID:       uuid.NewString(),
			Source:   document.Path,
			Position: pos,
			Text:     strings.Join(words[start:end], " "),
		})
		if end == len(words) {
			break
		}
		pos++
	}
	return chunks, nil
}
