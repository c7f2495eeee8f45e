package handler

import (
	"io"

	"quiz-forge/internal/domain"
	"quiz-forge/internal/dto"
	"quiz-forge/internal/logger"
	"quiz-forge/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// GenerationHandler handles question generation HTTP requests
type GenerationHandler struct {
	service   domain.GenerationService
	repo      domain.QuestionRepository
	extractor domain.ContentExtractor
	model     string
}

// NewGenerationHandler creates a new GenerationHandler instance. repo may be
// nil, in which case persistence requests are ignored.
func NewGenerationHandler(
	service domain.GenerationService,
	repo domain.QuestionRepository,
	extractor domain.ContentExtractor,
	model string,
) *GenerationHandler {
	return &GenerationHandler{
		service:   service,
		repo:      repo,
		extractor: extractor,
		model:     model,
	}
}

// RegisterRoutes mounts the handler on the given router group
func (h *GenerationHandler) RegisterRoutes(api fiber.Router) {
	vm := middleware.NewValidationMiddleware()

	api.Get("/health", h.Health)
	api.Post("/questions/generate", h.GenerateQuestions)
	api.Post("/questions/generate/upload", h.GenerateFromUpload)
	api.Get("/generations/:id/questions", vm.ValidateGenerationID(), h.GetGenerationQuestions)
}

// GenerateQuestions godoc
// @Summary Generate quiz questions
// @Description Generates questions from the supplied content with the configured model
// @Tags generation
// @Accept json
// @Produce json
// @Param X-Requester-ID header string false "Caller id used for rate limiting"
// @Param request body dto.GenerateQuestionsRequest true "Generation request"
// @Success 200 {object} dto.GenerateQuestionsResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 429 {object} middleware.ErrorResponse
// @Failure 502 {object} middleware.ErrorResponse
// @Failure 503 {object} middleware.ErrorResponse
// @Router /questions/generate [post]
func (h *GenerationHandler) GenerateQuestions(c *fiber.Ctx) error {
	var req dto.GenerateQuestionsRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewInvalidInputError("invalid request body").WithContext("cause", err.Error())
	}
	return h.generate(c, req)
}

// GenerateFromUpload godoc
// @Summary Generate quiz questions from an uploaded document
// @Description Extracts text from a .txt, .md or .html upload and generates questions from it
// @Tags generation
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Source document"
// @Success 200 {object} dto.GenerateQuestionsResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Router /questions/generate/upload [post]
func (h *GenerationHandler) GenerateFromUpload(c *fiber.Ctx) error {
	if h.extractor == nil {
		return domain.NewConfigurationError("document upload is not enabled")
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return domain.NewInvalidInputError("a file upload is required").WithContext("field", "file")
	}

	f, err := fileHeader.Open()
	if err != nil {
		return domain.NewInternalError("failed to open upload", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return domain.NewInternalError("failed to read upload", err)
	}

	extracted, err := h.extractor.Extract(c.UserContext(), fileHeader.Filename, data)
	if err != nil {
		return err
	}

	var req dto.GenerateQuestionsRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewInvalidInputError("invalid form fields").WithContext("cause", err.Error())
	}
	req.Content = extracted.Text

	logger.Get().Debug("Extracted uploaded document",
		zap.String("filename", fileHeader.Filename),
		zap.Int("chars", extracted.CharCount),
		zap.Bool("truncated", extracted.WasTruncated),
	)
	return h.generate(c, req)
}

func (h *GenerationHandler) generate(c *fiber.Ctx, req dto.GenerateQuestionsRequest) error {
	result, err := h.service.Generate(c.UserContext(), req.ToDomain(middleware.RequesterID(c)))
	if err != nil {
		return err
	}

	persisted := false
	if req.Persist && h.repo != nil {
		if err := h.repo.SaveQuestions(c.UserContext(), result.GenerationID, result.Questions); err != nil {
			logger.Get().Error("Failed to persist generated questions",
				zap.String("generation_id", result.GenerationID),
				zap.Error(err),
			)
		} else {
			persisted = true
		}
	}

	return c.JSON(dto.NewGenerateQuestionsResponse(result, persisted))
}

// GetGenerationQuestions godoc
// @Summary Get stored questions of a generation
// @Tags generation
// @Produce json
// @Param id path string true "Generation ID"
// @Success 200 {object} dto.GenerationQuestionsResponse
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /generations/{id}/questions [get]
func (h *GenerationHandler) GetGenerationQuestions(c *fiber.Ctx) error {
	id := c.Params("id")
	if h.repo == nil {
		return domain.NewError(domain.CodeNotFound, "question storage is not configured", nil)
	}

	questions, err := h.repo.GetQuestionsByGeneration(c.UserContext(), id)
	if err != nil {
		return domain.NewInternalError("failed to load generation", err)
	}
	if len(questions) == 0 {
		return domain.NewError(domain.CodeNotFound, "generation not found", nil).WithContext("generation_id", id)
	}

	return c.JSON(dto.GenerationQuestionsResponse{
		GenerationID: id,
		Questions:    dto.NewQuestionResponses(questions),
	})
}

// Health godoc
// @Summary Health check
// @Tags system
// @Produce json
// @Success 200 {object} dto.HealthResponse
// @Router /health [get]
func (h *GenerationHandler) Health(c *fiber.Ctx) error {
	return c.JSON(dto.HealthResponse{
		Status:      "ok",
		Model:       h.model,
		Persistence: h.repo != nil,
	})
}
