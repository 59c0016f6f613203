package models

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"
)

// Error codes carried in AppError.Code and in the JSON error body.
const (
	CodeValidation   = "VALIDATION_ERROR"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeNotFound     = "NOT_FOUND"
	CodeConflict     = "CONFLICT"
	CodeInternal     = "INTERNAL_ERROR"
)

// ErrorResponse represents a standardized API error response
type ErrorResponse struct {
	Error      string `json:"error"`
	Code       string `json:"code,omitempty"`
	StatusCode int    `json:"statusCode"`
}

// AppError represents a custom application error
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Status returns the HTTP status associated with the error code.
func (e *AppError) Status() int {
	switch e.Code {
	case CodeValidation:
		return fiber.StatusBadRequest
	case CodeUnauthorized:
		return fiber.StatusUnauthorized
	case CodeForbidden:
		return fiber.StatusForbidden
	case CodeNotFound:
		return fiber.StatusNotFound
	case CodeConflict:
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

// Predefined error constructors
func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s with ID %v not found", resource, id),
	}
}

func NewValidationError(message string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: message,
	}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Code:    CodeUnauthorized,
		Message: message,
	}
}

// NewForbiddenError is returned when the caller is authenticated but not permitted.
func NewForbiddenError(message string) *AppError {
	return &AppError{
		Code:    CodeForbidden,
		Message: message,
	}
}

func NewConflictError(message string) *AppError {
	return &AppError{
		Code:    CodeConflict,
		Message: message,
	}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: "Internal server error",
		Err:     err,
	}
}

// StatusFor maps an error to the HTTP status it should be reported with.
func StatusFor(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status()
	}
	return fiber.StatusInternalServerError
}

// RespondWithError writes a standardized error response. Internal causes are
// logged and never written to the client.
func RespondWithError(c *fiber.Ctx, status int, err error) error {
	response := ErrorResponse{StatusCode: status}

	var appErr *AppError
	switch {
	case errors.As(err, &appErr) && appErr.Code != CodeInternal:
		response.Error = appErr.Message
		response.Code = appErr.Code
	case status < fiber.StatusInternalServerError && err != nil:
		response.Error = err.Error()
	default:
		response.Error = "Internal server error"
		response.Code = CodeInternal
		if err != nil {
			slog.Default().ErrorContext(c.UserContext(), "request failed with internal error",
				slog.String("path", c.Path()),
				slog.String("error", err.Error()),
			)
		}
	}

	return c.Status(status).JSON(response)
}
