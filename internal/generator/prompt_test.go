package generator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"ragchat/internal/domain"
)

func TestBuildSystemPrompt(t *testing.T) {
	assembled := domain.AssembledContext{
		Chunks: []domain.ContextChunk{
			{
				ScoredChunk: domain.ScoredChunk{Chunk: domain.Chunk{ID: "c1", Source: "guide.txt"}},
				Text:        "The widget spins clockwise.",
			},
			{
				ScoredChunk: domain.ScoredChunk{Chunk: domain.Chunk{ID: "c2", Source: "faq.txt"}},
				Text:        "Widgets need oil every",
				Truncated:   true,
			},
		},
	}
	prompt := BuildSystemPrompt(assembled)
	assert.Contains(t, prompt, "[1] (source: guide.txt)")
	assert.Contains(t, prompt, "The widget spins clockwise.")
	assert.Contains(t, prompt, "[2] (source: faq.txt)")
	assert.Contains(t, prompt, "Widgets need oil every …")
	assert.Contains(t, prompt, "Cite the context blocks")
}

func TestBuildSystemPromptEmptyContext(t *testing.T) {
	prompt := BuildSystemPrompt(domain.AssembledContext{})
	assert.Contains(t, prompt, "Context:")
}
