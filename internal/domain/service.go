package domain

import "context"

// GenerationService defines the core business operation of the module
type GenerationService interface {
	// Generate runs the full pipeline for one request. Partial validity is
	// reported through GenerationResult.PartialSuccess, not as an error.
	Generate(ctx context.Context, req GenerationRequest) (*GenerationResult, error)
}

// QuestionRepository persists accepted questions. It is the storage
// collaborator that consumes a GenerationResult after the pipeline returns.
type QuestionRepository interface {
	// SaveQuestions stores every question of one generation atomically.
	SaveQuestions(ctx context.Context, generationID string, questions []GeneratedQuestion) error

	// GetQuestionsByGeneration loads the questions stored for a generation.
	GetQuestionsByGeneration(ctx context.Context, generationID string) ([]GeneratedQuestion, error)
}

// ExtractedContent is what a document-extraction collaborator hands over.
// The pipeline only consumes Text.
type ExtractedContent struct {
	Text         string
	WasTruncated bool
	CharCount    int
}

// ContentExtractor turns an uploaded document into plain text. Extraction
// failures are reported by the extractor and never reach the pipeline.
type ContentExtractor interface {
	Extract(ctx context.Context, filename string, data []byte) (*ExtractedContent, error)
}

// TransactionManager runs fn inside a storage transaction
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
