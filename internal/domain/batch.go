package domain

import "context"

// BatchItem is one document of a batch run.
type BatchItem struct {
	Name    string
	Request GenerationRequest
}

// BatchOutcome is the per-document result of a batch run. Exactly one of
// Result and Err is set.
type BatchOutcome struct {
	Name      string
	Result    *GenerationResult
	Err       error
	Persisted bool
}

// BatchService runs the generation pipeline over many documents.
type BatchService interface {
	// GenerateAll processes every item and returns one outcome per item in
	// input order. A failing document never stops the rest of the batch.
	GenerateAll(ctx context.Context, items []BatchItem) []BatchOutcome
}
