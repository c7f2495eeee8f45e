package service

import (
	"context"
	"quiz-forge/internal/config"
	"quiz-forge/internal/content"
	"quiz-forge/internal/domain"
	"quiz-forge/internal/llm"
	"quiz-forge/internal/parser"
	"quiz-forge/internal/prompt"
	"quiz-forge/internal/ratelimit"
	"quiz-forge/internal/util"
	"quiz-forge/internal/validation"
	"time"

	"go.uber.org/zap"
)

// ModelClient is the part of llm.Client the pipeline depends on.
type ModelClient interface {
	Invoke(ctx context.Context, p prompt.Prompt, maxCompletionTokens int) (*llm.Completion, error)
	ModelID() string
}

// generationService implements the domain.GenerationService interface.
type generationService struct {
	limiter          *ratelimit.Limiter
	normalizer       *content.Normalizer
	client           ModelClient
	requestValidator *validation.Validator
	validator        *validation.QuestionValidator
	cfg              config.GenerationConfig
	logger           *zap.Logger
}

// NewGenerationService creates a new instance of generationService.
func NewGenerationService(
	limiter *ratelimit.Limiter,
	normalizer *content.Normalizer,
	client ModelClient,
	cfg config.GenerationConfig,
	logger *zap.Logger,
) domain.GenerationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &generationService{
		limiter:          limiter,
		normalizer:       normalizer,
		client:           client,
		requestValidator: validation.NewValidator(),
		validator:        validation.NewQuestionValidator(),
		cfg:              cfg,
		logger:           logger,
	}
}

// Generate runs rate limit check, normalization, prompt compilation, the
// model call, response recovery and question validation in that order.
func (s *generationService) Generate(ctx context.Context, req domain.GenerationRequest) (*domain.GenerationResult, error) {
	start := time.Now()

	if errs := s.requestValidator.ValidateGenerationRequest(req); len(errs) > 0 {
		return nil, domain.NewError(domain.CodeInvalidInput, "invalid generation request", errs).
			WithContext("errors", errs)
	}
	req = req.WithDefaults()

	generationID := util.NewULID()
	log := s.logger.With(
		zap.String("generation_id", generationID),
		zap.String("requester_id", req.RequesterID),
	)
	log.Info("Starting question generation",
		zap.Int("count", req.Count),
		zap.Any("types", req.Types),
		zap.Any("difficulties", req.Difficulties),
		zap.Int("answer_count", req.AnswerCount),
		zap.Bool("feedback", req.GenerateFeedback))

	if err := s.limiter.Check(ctx, req.RequesterID); err != nil {
		return nil, err
	}

	normalized, err := s.normalizer.Normalize(req.Content)
	if err != nil {
		log.Warn("Content rejected", zap.Error(err))
		return nil, err
	}
	if normalized.Truncated {
		log.Info("Content truncated to budget",
			zap.Int("original_chars", normalized.OriginalChars),
			zap.Int("kept_chars", len([]rune(normalized.Text))))
	}

	p := prompt.Compile(normalized.Text, prompt.ParamsFromRequest(req))
	maxTokens := s.completionBudget(req.Count)
	log.Debug("Prompt compiled",
		zap.Int("system_chars", len(p.System)),
		zap.Int("user_chars", len(p.User)),
		zap.Int("estimated_input_tokens", normalized.EstimatedTokens),
		zap.Int("max_completion_tokens", maxTokens))

	completion, err := s.client.Invoke(ctx, p, maxTokens)
	if err != nil {
		log.Error("Model call failed", zap.Error(err))
		return nil, err
	}
	// provider quota is spent from here on, whatever the parse outcome
	s.limiter.Increment(ctx, req.RequesterID)

	raw, err := parser.Parse(completion.Content)
	if err != nil {
		log.Error("Failed to recover questions from model response", zap.Error(err))
		return nil, err
	}

	result, err := s.validator.ValidateQuestions(raw)
	if err != nil {
		log.Error("No valid questions in model response", zap.Error(err))
		return nil, err
	}

	result.GenerationID = generationID
	result.TokenUsage = completion.Usage
	result.ContentTruncated = normalized.Truncated
	result.EstimatedInputTokens = normalized.EstimatedTokens
	result.Model = completion.Model
	if result.Model == "" {
		result.Model = s.client.ModelID()
	}
	result.Attempts = completion.Attempts

	log.Info("Question generation finished",
		zap.Int("total_generated", result.TotalGenerated),
		zap.Int("valid", result.ValidCount),
		zap.Int("invalid", result.InvalidCount),
		zap.Bool("partial_success", result.PartialSuccess),
		zap.Int("total_tokens", result.TokenUsage.TotalTokens),
		zap.Int("attempts", result.Attempts),
		zap.Duration("duration", time.Since(start)))

	return result, nil
}

// completionBudget sizes max_completion_tokens from the question count.
func (s *generationService) completionBudget(count int) int {
	budget := s.cfg.BaseCompletionTokens + s.cfg.TokensPerQuestion*count
	if s.cfg.MaxCompletionTokens > 0 && budget > s.cfg.MaxCompletionTokens {
		budget = s.cfg.MaxCompletionTokens
	}
	return budget
}
