package domain

import (
	"errors"
	"fmt"
)

// Structural and collaborator error taxonomy. Index and retriever errors are
// never retried internally; embedder/generator retries live inside those
// collaborators and surface here only once exhausted.
var (
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	ErrDuplicateID       = errors.New("duplicate chunk id")
	ErrEmbedding         = errors.New("embedding failed")
	ErrGeneration        = errors.New("generation failed")
	ErrTimeout           = errors.New("operation timed out")
	ErrEmptyCorpus       = errors.New("no chunks indexed")
	ErrNoContext         = errors.New("no chunk passed the similarity threshold")
)

// StageError identifies which pipeline stage a failure came from.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// NewStageError wraps err with the name of the failing stage.
func NewStageError(stage string, err error) *StageError {
	return &StageError{Stage: stage, Err: err}
}
