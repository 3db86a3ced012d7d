package domain

import "context"

// Embedder converts free text into a numeric vector representation.
// Implementations may require a preparation phase over the corpus.
type Embedder interface {
	Name() string
	Prepare(corpus []string) error
	Dimension() int
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Generator invokes a language model with the assembled context and the
// user question. Timeouts are supplied through the context.
type Generator interface {
	Generate(ctx context.Context, assembled AssembledContext, question string) (string, error)
}

// Pinger is an optional cheap liveness probe implemented by remote
// collaborators so that doctor runs stay side-effect free.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Chunker splits documents into chunks suitable for retrieval indexing.
type Chunker interface {
	Chunk(document Document) ([]Chunk, error)
}

// Index stores (vector, chunk) pairs and supports nearest-neighbor search.
// The vector dimension is fixed when the index is created. Reads are safe
// to run concurrently; writes are mutually exclusive with reads.
type Index interface {
	// Insert fails with ErrDimensionMismatch on a wrong-sized vector and
	// with ErrDuplicateID when the id is already present. Updating requires
	// an explicit delete-then-insert.
	Insert(chunk Chunk, vector []float64) error
	// Delete removes the entry; deleting an absent id is a no-op.
	Delete(id string) error
	// Search returns up to k chunks ranked by descending cosine similarity,
	// ties broken by ascending chunk id. The filter is applied before
	// ranking. Fewer than k matches is not an error.
	Search(vector []float64, k int, filter *Filter) ([]ScoredChunk, error)
	Len() int
	Dimension() int
}

// Summarizer produces a brief summary of the provided text.
type Summarizer interface {
	Summarize(text string, maxSentences int) (string, error)
}
