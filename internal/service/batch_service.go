package service

import (
	"context"
	"time"

	"quiz-forge/internal/domain"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const DefaultBatchConcurrency = 2

// batchService implements the domain.BatchService interface.
type batchService struct {
	generator   domain.GenerationService
	repo        domain.QuestionRepository
	concurrency int
	logger      *zap.Logger
}

// NewBatchService creates a new instance of batchService. repo may be nil
// to skip persistence.
func NewBatchService(
	generator domain.GenerationService,
	repo domain.QuestionRepository,
	concurrency int,
	logger *zap.Logger,
) domain.BatchService {
	if concurrency <= 0 {
		concurrency = DefaultBatchConcurrency
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &batchService{
		generator:   generator,
		repo:        repo,
		concurrency: concurrency,
		logger:      logger,
	}
}

// GenerateAll implements domain.BatchService
func (s *batchService) GenerateAll(ctx context.Context, items []domain.BatchItem) []domain.BatchOutcome {
	start := time.Now()
	s.logger.Info("Starting batch generation",
		zap.Int("documents", len(items)),
		zap.Int("concurrency", s.concurrency))

	outcomes := make([]domain.BatchOutcome, len(items))

	// errors are recorded per outcome, so the group never cancels siblings
	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			outcomes[i] = s.process(ctx, item)
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, o := range outcomes {
		if o.Err != nil {
			failed++
		}
	}
	s.logger.Info("Batch generation finished",
		zap.Int("documents", len(items)),
		zap.Int("failed", failed),
		zap.Duration("duration", time.Since(start)))
	return outcomes
}

func (s *batchService) process(ctx context.Context, item domain.BatchItem) domain.BatchOutcome {
	out := domain.BatchOutcome{Name: item.Name}
	if err := ctx.Err(); err != nil {
		out.Err = domain.NewError(domain.CodeTimeout, "batch cancelled before document was processed", err)
		return out
	}

	result, err := s.generator.Generate(ctx, item.Request)
	if err != nil {
		s.logger.Error("Failed to generate questions for document",
			zap.String("document", item.Name),
			zap.String("code", string(domain.CodeOf(err))),
			zap.Error(err))
		out.Err = err
		return out
	}
	out.Result = result

	if s.repo == nil {
		return out
	}
	if err := s.repo.SaveQuestions(ctx, result.GenerationID, result.Questions); err != nil {
		s.logger.Error("Failed to save generated questions",
			zap.String("document", item.Name),
			zap.String("generation_id", result.GenerationID),
			zap.Error(err))
		return out
	}
	out.Persisted = true
	return out
}
