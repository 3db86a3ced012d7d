// Package sparse scores chunks lexically with BM25. It backs the optional
// hybrid fusion channel of the retriever; the dense index stays the source
// of truth for candidate selection.
package sparse

import (
	"math"
	"sync"

	"ragchat/internal/domain"
	"ragchat/internal/text"
)

const (
	defaultK1 = 1.5
	defaultB  = 0.75
)

// Index is an in-memory BM25-Okapi scorer over chunk texts. Built once per
// ingest; reads are safe to run concurrently.
type Index struct {
	mu    sync.RWMutex
	k1    float64
	b     float64
	docs  map[string][]string
	df    map[string]int
	avgdl float64
}

func New() *Index {
	return &Index{
		k1:   defaultK1,
		b:    defaultB,
		docs: make(map[string][]string),
		df:   make(map[string]int),
	}
}

// Build replaces the indexed corpus with the given chunks.
func (ix *Index) Build(chunks []domain.Chunk) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.docs = make(map[string][]string, len(chunks))
	ix.df = make(map[string]int)
	total := 0
	for _, c := range chunks {
		tokens := text.Tokenize(c.Text)
		ix.docs[c.ID] = tokens
		total += len(tokens)
		seen := make(map[string]struct{}, len(tokens))
		for _, tok := range tokens {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			ix.df[tok]++
		}
	}
	if len(chunks) > 0 {
		ix.avgdl = float64(total) / float64(len(chunks))
	} else {
		ix.avgdl = 0
	}
}

// Len returns the number of indexed chunks.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.docs)
}

// Scores returns the BM25 score of every indexed chunk for the query,
// keyed by chunk id. Chunks with no term overlap score zero.
func (ix *Index) Scores(query string) map[string]float64 {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	qTokens := text.Tokenize(query)
	out := make(map[string]float64, len(ix.docs))
	n := float64(len(ix.docs))
	for id, tokens := range ix.docs {
		score := 0.0
		if len(tokens) > 0 && ix.avgdl > 0 {
			tf := make(map[string]int, len(tokens))
			for _, tok := range tokens {
				tf[tok]++
			}
			dl := float64(len(tokens))
			for _, q := range qTokens {
				f := float64(tf[q])
				if f == 0 {
					continue
				}
				idf := math.Log((n-float64(ix.df[q])+0.5)/(float64(ix.df[q])+0.5) + 1)
				score += idf * (f * (ix.k1 + 1)) / (f + ix.k1*(1-ix.b+ix.b*dl/ix.avgdl))
			}
		}
		out[id] = score
	}
	return out
}
