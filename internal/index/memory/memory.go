// Package memory provides an exact in-memory vector index using brute-force
// cosine similarity. Vectors are L2-normalized on the way in so similarity is
// a plain dot product.
package memory

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"ragchat/internal/domain"
)

// Index is the in-memory implementation of domain.Index. A single RWMutex
// gives the single-writer/multiple-reader discipline: searches never observe
// a partially inserted entry.
type Index struct {
	mu        sync.RWMutex
	dimension int
	slots     map[string]int
	chunks    []domain.Chunk
	vectors   [][]float64
}

// New creates an empty index with a fixed vector dimension.
func New(dimension int) (*Index, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("invalid dimension %d", dimension)
	}
	return &Index{dimension: dimension, slots: make(map[string]int)}, nil
}

// Dimension returns the fixed vector dimension of this index.
func (ix *Index) Dimension() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.dimension
}

// Len returns the number of stored chunks.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.chunks)
}

// Insert stores a chunk and its embedding vector.
func (ix *Index) Insert(chunk domain.Chunk, vector []float64) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if len(vector) != ix.dimension {
		return fmt.Errorf("%w: got %d, index has %d", domain.ErrDimensionMismatch, len(vector), ix.dimension)
	}
	if _, ok := ix.slots[chunk.ID]; ok {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateID, chunk.ID)
	}
	ix.slots[chunk.ID] = len(ix.chunks)
	ix.chunks = append(ix.chunks, chunk)
	ix.vectors = append(ix.vectors, normalize(vector))
	return nil
}

// Delete removes the entry for id. Deleting an absent id is a no-op.
func (ix *Index) Delete(id string) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	slot, ok := ix.slots[id]
	if !ok {
		return nil
	}
	last := len(ix.chunks) - 1
	if slot != last {
		ix.chunks[slot] = ix.chunks[last]
		ix.vectors[slot] = ix.vectors[last]
		ix.slots[ix.chunks[slot].ID] = slot
	}
	ix.chunks = ix.chunks[:last]
	ix.vectors = ix.vectors[:last]
	delete(ix.slots, id)
	return nil
}

// Search scans every stored vector and returns up to k chunks ranked by
// descending cosine similarity, ties broken by ascending chunk id.
func (ix *Index) Search(vector []float64, k int, filter *domain.Filter) ([]domain.ScoredChunk, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if len(vector) != ix.dimension {
		return nil, fmt.Errorf("%w: got %d, index has %d", domain.ErrDimensionMismatch, len(vector), ix.dimension)
	}
	if k <= 0 {
		return nil, nil
	}
	q := normalize(vector)
	candidates := make([]domain.ScoredChunk, 0, len(ix.chunks))
	for i, c := range ix.chunks {
		if !filter.Match(c) {
			continue
		}
		candidates = append(candidates, domain.ScoredChunk{
			Chunk: c,
			Score: dot(ix.vectors[i], q),
		})
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].Chunk.ID < candidates[j].Chunk.ID
	})
	if k < len(candidates) {
		candidates = candidates[:k]
	}
	for i := range candidates {
		candidates[i].Rank = i + 1
	}
	return candidates, nil
}

// Each calls fn for every stored (chunk, vector) pair, e.g. to copy the
// index into another backend. The read lock is held for the whole walk.
func (ix *Index) Each(fn func(domain.Chunk, []float64) error) error {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	for i, c := range ix.chunks {
		if err := fn(c, ix.vectors[i]); err != nil {
			return err
		}
	}
	return nil
}

func dot(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

func normalize(v []float64) []float64 {
	norm := 0.0
	for _, x := range v {
		norm += x * x
	}
	out := make([]float64, len(v))
	if norm == 0 {
		return out
	}
	inv := 1.0 / math.Sqrt(norm)
	for i, x := range v {
		out[i] = x * inv
	}
	return out
}
