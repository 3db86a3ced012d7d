package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragchat/internal/assemble"
	"ragchat/internal/domain"
	"ragchat/internal/index/memory"
	"ragchat/internal/retriever"
)

type fakeEmbedder struct {
	dim int
	err error
}

func (f *fakeEmbedder) Name() string                  { return "fake" }
func (f *fakeEmbedder) Prepare(corpus []string) error { return nil }
func (f *fakeEmbedder) Dimension() int                { return f.dim }

func (f *fakeEmbedder) Embed(_ context.Context, input string) ([]float64, error) {
	if f.err != nil {
		return nil, f.err
	}
	// spread characters over the vector so distinct texts differ
	vec := make([]float64, f.dim)
	for i, r := range input {
		vec[i%f.dim] += float64(r)
	}
	return vec, nil
}

type fakeGenerator struct {
	reply   string
	err     error
	pingErr error
	pinged  bool
	called  bool
}

func (f *fakeGenerator) Generate(ctx context.Context, assembled domain.AssembledContext, question string) (string, error) {
	f.called = true
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeGenerator) Ping(ctx context.Context) error {
	f.pinged = true
	return f.pingErr
}

func newTestPipeline(t *testing.T, emb domain.Embedder, gen domain.Generator, seed []domain.Chunk) *Pipeline {
	t.Helper()
	ix, err := memory.New(emb.Dimension())
	require.NoError(t, err)
	for _, c := range seed {
		vec, err := emb.Embed(context.Background(), c.Text)
		require.NoError(t, err)
		require.NoError(t, ix.Insert(c, vec))
	}
	r := retriever.New(emb, ix, nil, retriever.Config{}, nil)
	return New(emb, ix, r, assemble.New(nil), gen, nil)
}

func seedChunks() []domain.Chunk {
	return []domain.Chunk{
		{ID: "c1", Source: "doc.txt", Text: "widgets spin clockwise"},
		{ID: "c2", Source: "doc.txt", Text: "gadgets hum quietly at night"},
	}
}

func TestRetrieveAndAnswerReturnsCitations(t *testing.T) {
	emb := &fakeEmbedder{dim: 8}
	gen := &fakeGenerator{reply: "They spin clockwise [1]."}
	p := newTestPipeline(t, emb, gen, seedChunks())

	answer, err := p.RetrieveAndAnswer(context.Background(), "widgets spin clockwise", 2, 100, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "They spin clockwise [1].", answer.Text)
	assert.NotEmpty(t, answer.Citations)
	assert.Contains(t, answer.Citations, "c1")
}

func TestRetrieveAndAnswerEmptyCorpus(t *testing.T) {
	emb := &fakeEmbedder{dim: 8}
	p := newTestPipeline(t, emb, &fakeGenerator{reply: "x"}, nil)

	_, err := p.RetrieveAndAnswer(context.Background(), "anything", 3, 100, time.Second)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmptyCorpus)

	var stage *domain.StageError
	require.ErrorAs(t, err, &stage)
	assert.Equal(t, "index", stage.Stage)
}

func TestRetrieveAndAnswerNoContextIsExplicit(t *testing.T) {
	emb := &fakeEmbedder{dim: 8}
	gen := &fakeGenerator{reply: "x"}
	p := newTestPipeline(t, emb, gen, seedChunks())

	// zero budget: nothing can be assembled, must not fall through to
	// an ungrounded generation
	_, err := p.RetrieveAndAnswer(context.Background(), "widgets", 2, 0, time.Second)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNoContext)
	assert.False(t, gen.called)
}

func TestRetrieveAndAnswerGenerationFailure(t *testing.T) {
	emb := &fakeEmbedder{dim: 8}
	gen := &fakeGenerator{err: domain.ErrGeneration}
	p := newTestPipeline(t, emb, gen, seedChunks())

	_, err := p.RetrieveAndAnswer(context.Background(), "widgets", 2, 100, time.Second)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrGeneration)

	var stage *domain.StageError
	require.ErrorAs(t, err, &stage)
	assert.Equal(t, "generate", stage.Stage)
}

func TestCheckHealthEmbedderDown(t *testing.T) {
	emb := &fakeEmbedder{dim: 8, err: errors.New("connection refused")}
	gen := &fakeGenerator{}
	p := newTestPipeline(t, &fakeEmbedder{dim: 8}, gen, seedChunks())
	p.embedder = emb
	p.retriever = retriever.New(emb, p.index, nil, retriever.Config{}, nil)

	report := p.CheckHealth(context.Background(), false)
	assert.False(t, report.OK)
	assert.Equal(t, domain.StatusFailed, report.Embedder.Status)
	assert.Equal(t, domain.StatusSkipped, report.Index.Status)
	assert.Equal(t, domain.StatusSkipped, report.Generator.Status)
	assert.False(t, gen.pinged)
}

func TestCheckHealthDoctorPingsGenerator(t *testing.T) {
	emb := &fakeEmbedder{dim: 8}
	gen := &fakeGenerator{}
	p := newTestPipeline(t, emb, gen, seedChunks())

	report := p.CheckHealth(context.Background(), false)
	assert.True(t, report.OK)
	assert.Equal(t, domain.StatusOK, report.Embedder.Status)
	assert.Equal(t, domain.StatusOK, report.Index.Status)
	assert.Equal(t, domain.StatusOK, report.Generator.Status)
	assert.True(t, gen.pinged)
	assert.False(t, gen.called, "doctor must not run a full generation")
}

func TestCheckHealthEmptyIndex(t *testing.T) {
	emb := &fakeEmbedder{dim: 8}
	gen := &fakeGenerator{}
	p := newTestPipeline(t, emb, gen, nil)

	report := p.CheckHealth(context.Background(), false)
	assert.False(t, report.OK)
	assert.Equal(t, domain.StatusOK, report.Embedder.Status)
	assert.Equal(t, domain.StatusFailed, report.Index.Status)
	assert.Equal(t, domain.StatusSkipped, report.Generator.Status)
}

func TestCheckHealthFullRunsSmokeTest(t *testing.T) {
	emb := &fakeEmbedder{dim: 8}
	gen := &fakeGenerator{reply: "covered topics"}
	p := newTestPipeline(t, emb, gen, seedChunks())

	report := p.CheckHealth(context.Background(), true)
	assert.True(t, report.OK)
	assert.Equal(t, domain.StatusOK, report.Generator.Status)
	assert.True(t, gen.called)
}

func TestCheckHealthFullGeneratorBroken(t *testing.T) {
	emb := &fakeEmbedder{dim: 8}
	gen := &fakeGenerator{err: domain.ErrGeneration}
	p := newTestPipeline(t, emb, gen, seedChunks())

	report := p.CheckHealth(context.Background(), true)
	assert.False(t, report.OK)
	assert.Equal(t, domain.StatusOK, report.Embedder.Status)
	assert.Equal(t, domain.StatusOK, report.Index.Status)
	assert.Equal(t, domain.StatusFailed, report.Generator.Status)
}
