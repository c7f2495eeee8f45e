package validation

import (
	"quiz-forge/internal/domain"
	"regexp"
	"strings"
)

const maxRequesterIDLength = 128

var (
	validULID        = regexp.MustCompile(`^[0-9A-HJKMNP-TV-Z]{26}$`)
	validRequesterID = regexp.MustCompile(`^[A-Za-z0-9._:@-]+$`)
)

// Validator provides request validation functionality
type Validator struct{}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateGenerationRequest checks the caller-supplied fields of a request.
// It must run before GenerationRequest.WithDefaults, which drops unknown
// types and difficulties.
func (v *Validator) ValidateGenerationRequest(req domain.GenerationRequest) domain.ValidationErrors {
	var errors domain.ValidationErrors

	if strings.TrimSpace(req.Content) == "" {
		errors = append(errors, domain.NewMissingFieldError("content"))
	}

	if req.Count < domain.MinQuestionCount || req.Count > domain.MaxQuestionCount {
		errors = append(errors, domain.NewOutOfRangeError("count", req.Count, domain.MinQuestionCount, domain.MaxQuestionCount))
	}

	for _, t := range req.Types {
		if !domain.QuestionType(strings.ToLower(strings.TrimSpace(string(t)))).IsValid() {
			errors = append(errors, domain.NewInvalidFormatError("types", t))
		}
	}

	for _, d := range req.Difficulties {
		if !domain.Difficulty(strings.ToLower(strings.TrimSpace(string(d)))).IsValid() {
			errors = append(errors, domain.NewInvalidFormatError("difficulty", d))
		}
	}

	// zero means "use the default"
	if req.AnswerCount != 0 && (req.AnswerCount < domain.MinAnswerCount || req.AnswerCount > domain.MaxAnswerCount) {
		errors = append(errors, domain.NewOutOfRangeError("answer_count", req.AnswerCount, domain.MinAnswerCount, domain.MaxAnswerCount))
	}

	if id := strings.TrimSpace(req.RequesterID); id != "" {
		if len(id) > maxRequesterIDLength {
			errors = append(errors, domain.NewOutOfRangeError("requester_id", len(id), 1, maxRequesterIDLength))
		} else if !validRequesterID.MatchString(id) {
			errors = append(errors, domain.NewInvalidFormatError("requester_id", id))
		}
	}

	return errors
}

// ValidateGenerationID validates a generation id path parameter
func (v *Validator) ValidateGenerationID(id string) domain.ValidationErrors {
	var errors domain.ValidationErrors

	if strings.TrimSpace(id) == "" {
		errors = append(errors, domain.NewMissingFieldError("generation_id"))
	} else if !isValidULID(id) {
		errors = append(errors, domain.NewInvalidFormatError("generation_id", id))
	}

	return errors
}

// isValidULID checks if the string is a valid ULID format
func isValidULID(s string) bool {
	return validULID.MatchString(s)
}
