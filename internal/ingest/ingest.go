// Package ingest loads documents, chunks them and builds the dense and
// sparse indexes the retriever searches.
package ingest

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"ragchat/internal/domain"
	"ragchat/internal/index/memory"
	"ragchat/internal/index/sparse"
)

// Service turns text files into a searchable corpus. It holds no state
// between runs; every Ingest call builds a fresh index pair.
type Service struct {
	chunker             domain.Chunker
	embedder            domain.Embedder
	summarizer          domain.Summarizer
	summaryMaxSentences int
	log                 *zap.SugaredLogger
}

// Result is the outcome of one ingest run.
type Result struct {
	Index     *memory.Index
	Sparse    *sparse.Index
	Summary   string
	Documents int
	Chunks    int
}

func NewService(chunker domain.Chunker, embedder domain.Embedder, summarizer domain.Summarizer, summaryMaxSentences int, log *zap.SugaredLogger) *Service {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Service{
		chunker:             chunker,
		embedder:            embedder,
		summarizer:          summarizer,
		summaryMaxSentences: summaryMaxSentences,
		log:                 log,
	}
}

// Ingest loads the given paths (globs allowed), chunks and embeds every
// document and returns the built indexes plus a corpus summary.
func (s *Service) Ingest(ctx context.Context, paths []string) (*Result, error) {
	documents, err := loadDocuments(paths)
	if err != nil {
		return nil, err
	}
	if len(documents) == 0 {
		return nil, fmt.Errorf("no .txt or .md documents found")
	}

	var allChunks []domain.Chunk
	var corpus []string
	var fullText strings.Builder
	for _, d := range documents {
		chunks, err := s.chunker.Chunk(d)
		if err != nil {
			return nil, fmt.Errorf("chunk %s: %w", d.Path, err)
		}
		for _, ch := range chunks {
			allChunks = append(allChunks, ch)
			corpus = append(corpus, ch.Text)
		}
		fullText.WriteString(d.Content)
		fullText.WriteString("\n")
	}
	if len(allChunks) == 0 {
		return nil, fmt.Errorf("documents produced no chunks")
	}

	if err := s.embedder.Prepare(corpus); err != nil {
		return nil, fmt.Errorf("prepare embedder: %w", err)
	}

	vectors := make([][]float64, len(allChunks))
	for i, ch := range allChunks {
		vec, err := s.embedder.Embed(ctx, ch.Text)
		if err != nil {
			return nil, fmt.Errorf("embed chunk %s: %w", ch.ID, err)
		}
		vectors[i] = vec
	}

	dim := s.embedder.Dimension()
	if dim == 0 && len(vectors) > 0 {
		dim = len(vectors[0])
	}
	ix, err := memory.New(dim)
	if err != nil {
		return nil, err
	}
	for i, ch := range allChunks {
		if err := ix.Insert(ch, vectors[i]); err != nil {
			return nil, err
		}
	}

	sp := sparse.New()
	sp.Build(allChunks)

	summary := ""
	if s.summarizer != nil {
		summary, err = s.summarizer.Summarize(fullText.String(), s.summaryMaxSentences)
		if err != nil {
			return nil, fmt.Errorf("summarize corpus: %w", err)
		}
	}

	s.log.Infow("ingested", "documents", len(documents), "chunks", len(allChunks), "dimension", dim)
	return &Result{
		Index:     ix,
		Sparse:    sp,
		Summary:   summary,
		Documents: len(documents),
		Chunks:    len(allChunks),
	}, nil
}

func loadDocuments(paths []string) ([]domain.Document, error) {
	var documents []domain.Document
	for _, p := range paths {
		matches, _ := filepath.Glob(p)
		if matches == nil {
			matches = []string{p}
		}
		for _, m := range matches {
			lower := strings.ToLower(m)
			if !strings.HasSuffix(lower, ".txt") && !strings.HasSuffix(lower, ".md") {
				continue
			}
			data, err := os.ReadFile(m)
			if err != nil {
				return nil, err
			}
			documents = append(documents, domain.Document{
				ID:      hashString(m),
				Path:    m,
				Content: string(data),
			})
		}
	}
	return documents, nil
}

func hashString(s string) string {
	h := sha1.Sum([]byte(s))
	return hex.EncodeToString(h[:8])
}
