package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"quiz-forge/internal/domain"
)

func newConfigurationError(message string) *domain.DomainError {
	return domain.NewConfigurationError(message)
}

func newAuthError(cause error) *domain.DomainError {
	return domain.NewError(domain.CodeAuth,
		"model provider rejected the API key; check the configured credential", cause)
}

func newProviderRateLimitError(cause error) *domain.DomainError {
	return domain.NewError(domain.CodeProviderRateLimited,
		"model provider rate limit reached; wait a moment before trying again", cause)
}

func newServerError(status int, cause error) *domain.DomainError {
	return domain.NewError(domain.CodeServer,
		fmt.Sprintf("model provider returned server error %d", status), cause).
		WithContext("status", status)
}

func newRejectedError(status int, cause error) *domain.DomainError {
	return domain.NewError(domain.CodeProviderRejected,
		fmt.Sprintf("model provider rejected the request with status %d", status), cause).
		WithContext("status", status)
}

func newMalformedError(message string) *domain.DomainError {
	return domain.NewError(domain.CodeMalformedResponse, message, nil)
}

func newTimeoutError(cause error) *domain.DomainError {
	return domain.NewError(domain.CodeTimeout, "model request timed out", cause)
}

func newConnectionError(cause error) *domain.DomainError {
	return domain.NewError(domain.CodeConnection, "could not reach the model provider", cause)
}

// classifyStatus maps an HTTP status from the completion endpoint.
func classifyStatus(status int, cause error) *domain.DomainError {
	switch {
	case status == 401:
		return newAuthError(cause)
	case status == 429:
		return newProviderRateLimitError(cause)
	case status == 408 || status == 504:
		return newTimeoutError(cause)
	case status >= 500:
		return newServerError(status, cause)
	default:
		return newRejectedError(status, cause)
	}
}

// classifyTransportError maps errors that carry no HTTP status.
func classifyTransportError(err error) *domain.DomainError {
	if errors.Is(err, context.DeadlineExceeded) {
		return newTimeoutError(err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return newTimeoutError(err)
	}
	return newConnectionError(err)
}
