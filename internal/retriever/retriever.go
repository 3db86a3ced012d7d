// Package retriever orchestrates query embedding, index search, threshold
// filtering and optional re-ranking.
package retriever

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"

	"ragchat/internal/domain"
	"ragchat/internal/index/sparse"
	"ragchat/internal/text"
)

// Config tunes the retrieval stages.
type Config struct {
	// MinSimilarity drops chunks scoring below it. Zero disables the cut.
	MinSimilarity float64
	// Rerank reorders survivors by lexical overlap with the query.
	Rerank bool
	// Hybrid blends the dense scores with a BM25 channel. Requires a
	// sparse index; reorders only, the dense result set stays closed.
	Hybrid       bool
	DenseWeight  float64
	SparseWeight float64
}

type Retriever struct {
	embedder domain.Embedder
	index    domain.Index
	sparse   *sparse.Index
	cfg      Config
	log      *zap.SugaredLogger
}

// New builds a retriever. The sparse index may be nil, which disables
// hybrid fusion.
func New(embedder domain.Embedder, index domain.Index, sp *sparse.Index, cfg Config, log *zap.SugaredLogger) *Retriever {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if cfg.DenseWeight == 0 && cfg.SparseWeight == 0 {
		cfg.DenseWeight, cfg.SparseWeight = 0.5, 0.5
	}
	return &Retriever{embedder: embedder, index: index, sparse: sp, cfg: cfg, log: log}
}

// Retrieve runs one query end to end. An empty result is valid when the
// corpus holds nothing sufficiently similar.
func (r *Retriever) Retrieve(ctx context.Context, q domain.Query) ([]domain.ScoredChunk, error) {
	k := q.K
	if k <= 0 {
		k = 5
	}
	vec, err := r.embedder.Embed(ctx, q.Text)
	if err != nil {
		if errors.Is(err, domain.ErrEmbedding) || errors.Is(err, domain.ErrTimeout) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrEmbedding, err)
	}
	results, err := r.index.Search(vec, k, q.Filter)
	if err != nil {
		return nil, err
	}
	if r.cfg.MinSimilarity > 0 {
		kept := results[:0]
		for _, sc := range results {
			if sc.Score >= r.cfg.MinSimilarity {
				kept = append(kept, sc)
			}
		}
		results = kept
	}
	if r.cfg.Hybrid && r.sparse != nil && len(results) > 1 {
		r.fuse(q.Text, results)
	}
	if r.cfg.Rerank && len(results) > 1 {
		rerank(q.Text, results)
	}
	for i := range results {
		results[i].Rank = i + 1
	}
	r.log.Debugw("retrieved", "query", q.Text, "k", k, "results", len(results))
	return results, nil
}

// fuse reorders the dense result set by a weighted sum of per-channel
// z-scores (dense cosine and BM25). Scores keep their cosine values; only
// the order changes, so the result set stays closed-world.
func (r *Retriever) fuse(query string, results []domain.ScoredChunk) {
	sparseScores := r.sparse.Scores(query)
	dense := make([]float64, len(results))
	lexical := make([]float64, len(results))
	for i, sc := range results {
		dense[i] = sc.Score
		lexical[i] = sparseScores[sc.Chunk.ID]
	}
	zd := zscore(dense)
	zl := zscore(lexical)
	fused := make(map[string]float64, len(results))
	for i, sc := range results {
		fused[sc.Chunk.ID] = r.cfg.DenseWeight*zd[i] + r.cfg.SparseWeight*zl[i]
	}
	sort.SliceStable(results, func(i, j int) bool {
		fi, fj := fused[results[i].Chunk.ID], fused[results[j].Chunk.ID]
		if fi != fj {
			return fi > fj
		}
		return results[i].Chunk.ID < results[j].Chunk.ID
	})
}

// rerank reorders by the Ochiai coefficient between query and chunk token
// sets. It never introduces chunks absent from the first-stage result.
func rerank(query string, results []domain.ScoredChunk) {
	qset := text.TokenSet(query)
	overlap := make([]float64, len(results))
	for i, sc := range results {
		overlap[i] = ochiai(qset, sc.Chunk.Text)
	}
	idx := make([]int, len(results))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return overlap[idx[a]] > overlap[idx[b]] })
	reordered := make([]domain.ScoredChunk, len(results))
	for i, j := range idx {
		reordered[i] = results[j]
	}
	copy(results, reordered)
}

// ochiai is |A∩B| / sqrt(|A|·|B|) over distinct token sets.
func ochiai(qset map[string]struct{}, chunkText string) float64 {
	cset := text.TokenSet(chunkText)
	if len(qset) == 0 || len(cset) == 0 {
		return 0
	}
	inter := 0
	for tok := range cset {
		if _, ok := qset[tok]; ok {
			inter++
		}
	}
	return float64(inter) / math.Sqrt(float64(len(qset))*float64(len(cset)))
}

func zscore(vals []float64) []float64 {
	out := make([]float64, len(vals))
	if len(vals) == 0 {
		return out
	}
	mean := 0.0
	for _, v := range vals {
		mean += v
	}
	mean /= float64(len(vals))
	variance := 0.0
	for _, v := range vals {
		variance += (v - mean) * (v - mean)
	}
	std := math.Sqrt(variance / float64(len(vals)))
	for i, v := range vals {
		out[i] = (v - mean) / (std + 1e-6)
	}
	return out
}
