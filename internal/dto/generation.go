package dto

import (
	"strings"

	"quiz-forge/internal/domain"
)

// GenerateQuestionsRequest is the body of POST /api/questions/generate
type GenerateQuestionsRequest struct {
	Content          string   `json:"content" form:"content"`
	Count            int      `json:"count" form:"count"`
	Types            []string `json:"types" form:"types"`
	Difficulties     []string `json:"difficulties" form:"difficulties"`
	AnswerCount      int      `json:"answer_count" form:"answer_count"`
	GenerateFeedback bool     `json:"generate_feedback" form:"generate_feedback"`
	// Persist stores the accepted questions when a database is configured.
	Persist bool `json:"persist" form:"persist"`
}

// ToDomain converts the request body into a domain.GenerationRequest.
func (r GenerateQuestionsRequest) ToDomain(requesterID string) domain.GenerationRequest {
	req := domain.GenerationRequest{
		Content:          r.Content,
		Count:            r.Count,
		AnswerCount:      r.AnswerCount,
		GenerateFeedback: r.GenerateFeedback,
		RequesterID:      requesterID,
	}
	for _, t := range splitList(r.Types) {
		req.Types = append(req.Types, domain.QuestionType(t))
	}
	for _, d := range splitList(r.Difficulties) {
		req.Difficulties = append(req.Difficulties, domain.Difficulty(d))
	}
	return req
}

// splitList accepts both ["mc","tf"] and ["mc,tf"] so form posts work.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

// AnswerResponse represents one answer option in the API response
type AnswerResponse struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
	Feedback  string `json:"feedback,omitempty"`
}

// QuestionResponse represents a generated question in the API response
type QuestionResponse struct {
	Type              string           `json:"type"`
	Difficulty        string           `json:"difficulty"`
	Stem              string           `json:"stem"`
	Answers           []AnswerResponse `json:"answers"`
	FeedbackCorrect   string           `json:"feedback_correct,omitempty"`
	FeedbackIncorrect string           `json:"feedback_incorrect,omitempty"`
}

// ValidationSummary reports how many raw items the validator accepted.
type ValidationSummary struct {
	TotalGenerated   int                    `json:"total_generated"`
	ValidCount       int                    `json:"valid_count"`
	InvalidCount     int                    `json:"invalid_count"`
	PartialSuccess   bool                   `json:"partial_success"`
	ValidationErrors []domain.QuestionError `json:"validation_errors"`
}

// TokenUsageResponse mirrors the provider token accounting
type TokenUsageResponse struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// GenerateQuestionsResponse is the body returned for a successful generation
type GenerateQuestionsResponse struct {
	GenerationID         string             `json:"generation_id"`
	Questions            []QuestionResponse `json:"questions"`
	Validation           ValidationSummary  `json:"validation"`
	TokenUsage           TokenUsageResponse `json:"token_usage"`
	ContentTruncated     bool               `json:"content_truncated"`
	EstimatedInputTokens int                `json:"estimated_input_tokens"`
	Model                string             `json:"model"`
	Attempts             int                `json:"attempts"`
	Persisted            bool               `json:"persisted"`
}

// GenerationQuestionsResponse is the body of GET /api/generations/:id/questions
type GenerationQuestionsResponse struct {
	GenerationID string             `json:"generation_id"`
	Questions    []QuestionResponse `json:"questions"`
}

// HealthResponse is the body of GET /api/health
type HealthResponse struct {
	Status      string `json:"status"`
	Model       string `json:"model"`
	Persistence bool   `json:"persistence"`
}

// ErrorResponse represents an error in the API response
type ErrorResponse struct {
	Error string `json:"error"`
}

// NewGenerateQuestionsResponse converts a domain result into its API form.
func NewGenerateQuestionsResponse(result *domain.GenerationResult, persisted bool) GenerateQuestionsResponse {
	errs := result.ValidationErrors
	if errs == nil {
		errs = []domain.QuestionError{}
	}
	return GenerateQuestionsResponse{
		GenerationID: result.GenerationID,
		Questions:    NewQuestionResponses(result.Questions),
		Validation: ValidationSummary{
			TotalGenerated:   result.TotalGenerated,
			ValidCount:       result.ValidCount,
			InvalidCount:     result.InvalidCount,
			PartialSuccess:   result.PartialSuccess,
			ValidationErrors: errs,
		},
		TokenUsage: TokenUsageResponse{
			PromptTokens:     result.TokenUsage.PromptTokens,
			CompletionTokens: result.TokenUsage.CompletionTokens,
			TotalTokens:      result.TokenUsage.TotalTokens,
		},
		ContentTruncated:     result.ContentTruncated,
		EstimatedInputTokens: result.EstimatedInputTokens,
		Model:                result.Model,
		Attempts:             result.Attempts,
		Persisted:            persisted,
	}
}

// NewQuestionResponses converts domain questions into their API form.
func NewQuestionResponses(questions []domain.GeneratedQuestion) []QuestionResponse {
	out := make([]QuestionResponse, 0, len(questions))
	for _, q := range questions {
		answers := make([]AnswerResponse, 0, len(q.Answers))
		for _, a := range q.Answers {
			answers = append(answers, AnswerResponse{Text: a.Text, IsCorrect: a.IsCorrect, Feedback: a.Feedback})
		}
		out = append(out, QuestionResponse{
			Type:              string(q.Type),
			Difficulty:        string(q.Difficulty),
			Stem:              q.Stem,
			Answers:           answers,
			FeedbackCorrect:   q.FeedbackCorrect,
			FeedbackIncorrect: q.FeedbackIncorrect,
		})
	}
	return out
}
