package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrorCode represents a specific type of error in the domain
type ErrorCode string

const (
	// Common errors
	CodeInternal     ErrorCode = "INTERNAL_ERROR"
	CodeInvalidInput ErrorCode = "INVALID_INPUT"
	CodeNotFound     ErrorCode = "NOT_FOUND"

	// Request validation errors
	CodeValidation    ErrorCode = "VALIDATION_FAILED"
	CodeMissingField  ErrorCode = "MISSING_FIELD"
	CodeInvalidFormat ErrorCode = "INVALID_FORMAT"
	CodeOutOfRange    ErrorCode = "OUT_OF_RANGE"

	// Generation pipeline errors
	CodeConfiguration       ErrorCode = "CONFIGURATION_ERROR"
	CodeContent             ErrorCode = "CONTENT_ERROR"
	CodeRateLimited         ErrorCode = "RATE_LIMITED"
	CodeConnection          ErrorCode = "CONNECTION_ERROR"
	CodeTimeout             ErrorCode = "TIMEOUT"
	CodeServer              ErrorCode = "SERVER_ERROR"
	CodeAuth                ErrorCode = "AUTH_ERROR"
	CodeProviderRateLimited ErrorCode = "PROVIDER_RATE_LIMITED"
	CodeMalformedResponse   ErrorCode = "MALFORMED_RESPONSE"
	CodeProviderRejected    ErrorCode = "PROVIDER_REJECTED"
	CodeParse               ErrorCode = "PARSE_ERROR"
	CodeNoQuestions         ErrorCode = "VALIDATION_ERROR"
)

// DomainError represents a domain-specific error
type DomainError struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Cause   error                  `json:"-"`
	Context map[string]interface{} `json:"details,omitempty"`
}

func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error { return e.Cause }

// MarshalJSON implements the json.Marshaler interface
func (e *DomainError) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		Code    string                 `json:"code"`
		Message string                 `json:"message"`
		Details map[string]interface{} `json:"details,omitempty"`
	}{
		Code:    string(e.Code),
		Message: e.Message,
		Details: e.Context,
	})
}

// WithContext attaches a diagnostic key/value pair and returns the error.
func (e *DomainError) WithContext(key string, value interface{}) *DomainError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// Retryable reports whether the failure is transient and the same input may
// succeed on a later attempt.
func (e *DomainError) Retryable() bool {
	switch e.Code {
	case CodeConnection, CodeTimeout, CodeServer:
		return true
	}
	return false
}

// NewError creates a new DomainError
func NewError(code ErrorCode, message string, cause error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// CodeOf returns the ErrorCode of err, or CodeInternal when err is not a DomainError.
func CodeOf(err error) ErrorCode {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// IsRetryable reports whether err is a retryable DomainError.
func IsRetryable(err error) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Retryable()
	}
	return false
}

// Helper functions for common errors
func NewInvalidInputError(message string) *DomainError {
	return NewError(CodeInvalidInput, message, nil)
}

func NewInternalError(message string, err error) *DomainError {
	return NewError(CodeInternal, message, err)
}

func NewConfigurationError(message string) *DomainError {
	return NewError(CodeConfiguration, message, nil)
}

func NewContentError(message string) *DomainError {
	return NewError(CodeContent, message, nil)
}

func NewRateLimitError(limit int64) *DomainError {
	return NewError(CodeRateLimited,
		fmt.Sprintf("Rate limit exceeded: at most %d generations per hour are allowed. Please try again later.", limit), nil).
		WithContext("limit", limit)
}

func NewParseError(message string, cause error) *DomainError {
	return NewError(CodeParse, message, cause)
}
