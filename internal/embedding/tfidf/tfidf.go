// Package tfidf implements a local, deterministic TF-IDF embedder. It needs
// no network access, which also makes it the offline fallback when no API
// key is configured.
package tfidf

import (
	"context"
	"errors"
	"math"
	"sort"

	"ragchat/internal/text"
)

// Embedder builds a vocabulary and IDF weights from the ingested corpus and
// embeds text as an L2-normalized TF-IDF vector over that vocabulary.
type Embedder struct {
	vocabulary map[string]int
	idf        []float64
	dimension  int
	prepared   bool
}

func New() *Embedder {
	return &Embedder{vocabulary: make(map[string]int)}
}

func (e *Embedder) Name() string { return "tfidf" }

// Prepare builds the vocabulary and IDF values from the provided corpus.
func (e *Embedder) Prepare(corpus []string) error {
	if len(corpus) == 0 {
		return errors.New("empty corpus for tf-idf prepare")
	}
	df := make(map[string]int)
	for _, doc := range corpus {
		seen := make(map[string]struct{})
		for _, tok := range tokenize(doc) {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			df[tok]++
		}
	}
	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	if len(terms) == 0 {
		return errors.New("no tokens found in corpus")
	}
	// Stable term order keeps vector components reproducible across runs.
	sort.Strings(terms)
	e.vocabulary = make(map[string]int, len(terms))
	e.idf = make([]float64, len(terms))
	n := float64(len(corpus))
	for i, term := range terms {
		e.vocabulary[term] = i
		e.idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1.0
	}
	e.dimension = len(terms)
	e.prepared = true
	return nil
}

func (e *Embedder) Dimension() int { return e.dimension }

// Embed computes the TF-IDF embedding for the given text.
func (e *Embedder) Embed(_ context.Context, input string) ([]float64, error) {
	if !e.prepared {
		return nil, errors.New("tf-idf embedder not prepared")
	}
	vec := make([]float64, e.dimension)
	tf := make(map[int]int)
	total := 0
	for _, tok := range tokenize(input) {
		if idx, ok := e.vocabulary[tok]; ok {
			tf[idx]++
			total++
		}
	}
	if total == 0 {
		return vec, nil
	}
	for idx, count := range tf {
		vec[idx] = float64(count) / float64(total) * e.idf[idx]
	}
	norm := 0.0
	for _, v := range vec {
		norm += v * v
	}
	if norm > 0 {
		inv := 1.0 / math.Sqrt(norm)
		for i := range vec {
			vec[i] *= inv
		}
	}
	return vec, nil
}

func tokenize(s string) []string {
	raw := text.Tokenize(s)
	out := raw[:0]
	for _, t := range raw {
		if text.IsStopword(t) {
			continue
		}
		out = append(out, t)
	}
	return out
}
