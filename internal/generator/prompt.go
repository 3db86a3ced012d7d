package generator

import (
	"fmt"
	"strings"

	"ragchat/internal/domain"
)

// BuildSystemPrompt renders the assembled context into the grounding
// instructions for the model. Each chunk gets a numbered block so the
// model can cite sources as [n].
func BuildSystemPrompt(assembled domain.AssembledContext) string {
	var b strings.Builder
	b.WriteString("You are a documentation assistant. Answer the question using only the context below.\n")
	b.WriteString("Cite the context blocks you used as [n]. If the context does not contain the answer, say so.\n\n")
	b.WriteString("Context:\n")
	for i, cc := range assembled.Chunks {
		fmt.Fprintf(&b, "[%d] (source: %s)\n", i+1, cc.Chunk.Source)
		b.WriteString(cc.Text)
		if cc.Truncated {
			b.WriteString(" …")
		}
		b.WriteString("\n\n")
	}
	return b.String()
}
