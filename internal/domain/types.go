package domain

// Document represents a single text file loaded into the system.
type Document struct {
	ID      string
	Path    string
	Content string
}

// Chunk is an immutable unit of indexed content. The embedding vector is
// stored alongside the chunk by the index, keyed by ID.
type Chunk struct {
	ID       string
	Source   string
	Position int
	Text     string
}

// Filter restricts a search to chunks from a given set of source documents.
// A nil filter matches everything.
type Filter struct {
	Sources []string
}

// Match reports whether the chunk passes the filter.
func (f *Filter) Match(c Chunk) bool {
	if f == nil || len(f.Sources) == 0 {
		return true
	}
	for _, s := range f.Sources {
		if c.Source == s {
			return true
		}
	}
	return false
}

// Query is a single retrieval request.
type Query struct {
	Text   string
	K      int
	Filter *Filter
}

// ScoredChunk is a chunk with its similarity score and 1-based rank within
// one query's results.
type ScoredChunk struct {
	Chunk Chunk
	Score float64
	Rank  int
}

// ContextChunk is a chunk placed into an assembled context. Text may be a
// truncated copy of the chunk text when the top result alone exceeded the
// budget.
type ContextChunk struct {
	ScoredChunk
	Text      string
	Truncated bool
}

// AssembledContext is a budgeted prompt context built from ranked chunks.
type AssembledContext struct {
	Chunks []ContextChunk
	Budget int
	Used   int
}

// Empty reports whether no chunk made it into the context.
func (a AssembledContext) Empty() bool { return len(a.Chunks) == 0 }

// Answer is the generator output plus the chunk ids it was grounded on.
type Answer struct {
	Text      string
	Citations []string
}

// StageStatus is the outcome of a single health-check stage.
type StageStatus string

const (
	StatusOK      StageStatus = "ok"
	StatusFailed  StageStatus = "failed"
	StatusSkipped StageStatus = "skipped"
)

// CheckResult is the status of one pipeline stage in a health report.
type CheckResult struct {
	Status StageStatus
	Detail string
}

// HealthReport is the per-stage result of a doctor or hello run. OK is true
// only when every stage passed.
type HealthReport struct {
	Embedder  CheckResult
	Index     CheckResult
	Generator CheckResult
	OK        bool
}
