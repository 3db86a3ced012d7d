// Package pipeline wires retrieval, context assembly and generation into
// the surface the CLI consumes: one-shot grounded answers plus the doctor
// and hello health probes.
package pipeline

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"ragchat/internal/assemble"
	"ragchat/internal/domain"
	"ragchat/internal/retriever"
)

// Pipeline holds no per-query state; every call is request-scoped over the
// shared, long-lived collaborators.
type Pipeline struct {
	embedder  domain.Embedder
	index     domain.Index
	retriever *retriever.Retriever
	assembler *assemble.Assembler
	generator domain.Generator
	log       *zap.SugaredLogger
}

func New(embedder domain.Embedder, index domain.Index, r *retriever.Retriever, a *assemble.Assembler, g domain.Generator, log *zap.SugaredLogger) *Pipeline {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Pipeline{
		embedder:  embedder,
		index:     index,
		retriever: r,
		assembler: a,
		generator: g,
		log:       log,
	}
}

// RetrieveAndAnswer runs a question through retrieve, assemble and generate.
// It either returns an answer with its grounding citations or a StageError
// naming the stage that failed. A non-empty corpus never produces a silent
// ungrounded answer: an empty assembled context surfaces as ErrNoContext.
func (p *Pipeline) RetrieveAndAnswer(ctx context.Context, question string, k, budget int, timeout time.Duration) (*domain.Answer, error) {
	if p.index.Len() == 0 {
		return nil, domain.NewStageError("index", domain.ErrEmptyCorpus)
	}
	chunks, err := p.retriever.Retrieve(ctx, domain.Query{Text: question, K: k})
	if err != nil {
		return nil, domain.NewStageError("retrieve", err)
	}
	assembled := p.assembler.Assemble(chunks, budget)
	if assembled.Empty() {
		return nil, domain.NewStageError("assemble", domain.ErrNoContext)
	}
	genCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		genCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	text, err := p.generator.Generate(genCtx, assembled, question)
	if err != nil {
		if errors.Is(genCtx.Err(), context.DeadlineExceeded) && !errors.Is(err, domain.ErrTimeout) {
			err = domain.ErrTimeout
		}
		return nil, domain.NewStageError("generate", err)
	}
	citations := make([]string, len(assembled.Chunks))
	for i, cc := range assembled.Chunks {
		citations[i] = cc.Chunk.ID
	}
	p.log.Infow("answered", "question", question, "chunks", len(assembled.Chunks), "budget_used", assembled.Used)
	return &domain.Answer{Text: text, Citations: citations}, nil
}
