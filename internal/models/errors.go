package models

import (
	"errors"
	"fmt"
)

// Sentinel errors of the pipeline. Retrieval never returns an error for an
// empty corpus or a sub-threshold query; those are empty results.
var (
	// ErrNoTextLayer means the PDF carries no recoverable text. Ingestion of
	// that document aborts; other documents in the batch continue.
	ErrNoTextLayer = errors.New("no text layer recoverable from document")

	// ErrEmbeddingVersionMismatch signals vectors from different embedding
	// model versions meeting in one index. Fatal: a deployment inconsistency,
	// never silently tolerated.
	ErrEmbeddingVersionMismatch = errors.New("embedding model version mismatch")

	// ErrDocumentNotFound is returned by stores for unknown document ids.
	ErrDocumentNotFound = errors.New("document not found")

	// ErrArtifactNotFound is returned by artifact stores for unknown hashes.
	ErrArtifactNotFound = errors.New("artifact not found")
)

// GenerationError wraps a failed generative-model call. Recoverable: the
// caller may retry with the same assembled context.
type GenerationError struct {
	Stage string // which orchestrator entry point failed
	Err   error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed during %s: %v", e.Stage, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// PartialSynthesisError reports that one segment of a multi-segment audio
// artifact failed. The whole artifact is aborted; callers never receive
// truncated audio.
type PartialSynthesisError struct {
	Segment int
	Total   int
	Err     error
}

func (e *PartialSynthesisError) Error() string {
	return fmt.Sprintf("synthesis of segment %d/%d failed: %v", e.Segment+1, e.Total, e.Err)
}

func (e *PartialSynthesisError) Unwrap() error { return e.Err }
