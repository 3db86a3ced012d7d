// Package assemble turns ranked chunks into a bounded prompt context.
package assemble

import "ragchat/internal/domain"

// Measure defines the budget unit. Count sizes a text; Truncate cuts a text
// down to at most budget units.
type Measure interface {
	Count(text string) int
	Truncate(text string, budget int) string
}

// Assembler greedily packs chunks in rank order into a budget. A chunk is
// never split to partially fit, with one exception: when the top-ranked
// chunk alone exceeds the budget it is truncated and flagged, so a nonzero
// budget always yields at least one chunk.
type Assembler struct {
	measure Measure
}

func New(measure Measure) *Assembler {
	if measure == nil {
		measure = WordMeasure{}
	}
	return &Assembler{measure: measure}
}

// Assemble builds the context. Input order is taken as rank order.
func (a *Assembler) Assemble(chunks []domain.ScoredChunk, budget int) domain.AssembledContext {
	out := domain.AssembledContext{Budget: budget}
	if budget <= 0 || len(chunks) == 0 {
		return out
	}
	for i, sc := range chunks {
		size := a.measure.Count(sc.Chunk.Text)
		if out.Used+size > budget {
			if i == 0 {
				truncated := a.measure.Truncate(sc.Chunk.Text, budget)
				out.Chunks = append(out.Chunks, domain.ContextChunk{
					ScoredChunk: sc,
					Text:        truncated,
					Truncated:   true,
				})
				out.Used = a.measure.Count(truncated)
			}
			break
		}
		out.Chunks = append(out.Chunks, domain.ContextChunk{
			ScoredChunk: sc,
			Text:        sc.Chunk.Text,
		})
		out.Used += size
	}
	return out
}
