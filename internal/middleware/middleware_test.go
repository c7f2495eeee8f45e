package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"quiz-forge/internal/domain"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp() *fiber.App {
	return fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
}

func decodeError(t *testing.T, resp *http.Response) ErrorResponse {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out ErrorResponse
	require.NoError(t, json.Unmarshal(body, &out))
	return out
}

func TestErrorHandler_DomainErrorStatus(t *testing.T) {
	tests := []struct {
		code   domain.ErrorCode
		status int
	}{
		{domain.CodeInvalidInput, http.StatusBadRequest},
		{domain.CodeContent, http.StatusBadRequest},
		{domain.CodeRateLimited, http.StatusTooManyRequests},
		{domain.CodeTimeout, http.StatusServiceUnavailable},
		{domain.CodeConnection, http.StatusServiceUnavailable},
		{domain.CodeServer, http.StatusServiceUnavailable},
		{domain.CodeParse, http.StatusBadGateway},
		{domain.CodeNoQuestions, http.StatusBadGateway},
		{domain.CodeAuth, http.StatusBadGateway},
		{domain.CodeProviderRateLimited, http.StatusBadGateway},
		{domain.CodeConfiguration, http.StatusInternalServerError},
		{domain.CodeNotFound, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			app := newTestApp()
			app.Get("/", func(c *fiber.Ctx) error {
				return domain.NewError(tt.code, "failure", nil).WithContext("k", "v")
			})

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)

			body := decodeError(t, resp)
			assert.Equal(t, string(tt.code), body.Code)
			assert.Equal(t, "v", body.Details["k"])
		})
	}
}

func TestErrorHandler_ValidationErrors(t *testing.T) {
	app := newTestApp()
	app.Get("/", func(c *fiber.Ctx) error {
		return domain.ValidationErrors{domain.NewMissingFieldError("content")}
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body ValidationErrorResponse
	raw, _ := io.ReadAll(resp.Body)
	require.NoError(t, json.Unmarshal(raw, &body))
	require.Len(t, body.Errors, 1)
	assert.Equal(t, "content", body.Errors[0].Field)
}

func TestErrorHandler_UnknownError(t *testing.T) {
	app := newTestApp()
	app.Get("/", func(c *fiber.Ctx) error { return errors.New("boom") })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, string(domain.CodeInternal), decodeError(t, resp).Code)
}

func TestRequesterIdentity(t *testing.T) {
	handler := func(c *fiber.Ctx) error { return c.SendString(RequesterID(c)) }

	app := newTestApp()
	app.Get("/", RequesterIdentity(false), handler)
	ipApp := newTestApp()
	ipApp.Get("/", RequesterIdentity(true), handler)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequesterIDHeader, "  user-7 ")
	resp, err := app.Test(req)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "user-7", string(body))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	assert.Empty(t, string(body))

	resp, err = ipApp.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "ip:")
}

func TestTimeout_SetsDeadline(t *testing.T) {
	app := newTestApp()
	app.Get("/", Timeout(time.Minute), func(c *fiber.Ctx) error {
		_, ok := c.UserContext().Deadline()
		if !ok {
			return errors.New("no deadline")
		}
		return c.SendStatus(http.StatusNoContent)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestTimeout_ExpiredContext(t *testing.T) {
	app := newTestApp()
	app.Get("/", Timeout(time.Nanosecond), func(c *fiber.Ctx) error {
		<-c.UserContext().Done()
		if errors.Is(c.UserContext().Err(), context.DeadlineExceeded) {
			return domain.NewError(domain.CodeTimeout, "deadline", nil)
		}
		return nil
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestValidateGenerationID(t *testing.T) {
	vm := NewValidationMiddleware()
	app := newTestApp()
	app.Get("/g/:id", vm.ValidateGenerationID(), func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/g/01ARZ3NDEKTSV4RRFFQ69G5FAV", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/g/not-an-id", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRequestLogger_PassesErrorThrough(t *testing.T) {
	app := newTestApp()
	app.Use(RequestLogger())
	app.Get("/", func(c *fiber.Ctx) error { return domain.NewRateLimitError(30) })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}
