package models

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Error codes returned in ErrorResponse.Code.
const (
	CodeValidation   = "VALIDATION_ERROR"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeNotFound     = "NOT_FOUND"
	CodeInternal     = "INTERNAL_ERROR"
)

var codeStatus = map[string]int{
	CodeValidation:   fiber.StatusBadRequest,
	CodeUnauthorized: fiber.StatusUnauthorized,
	CodeForbidden:    fiber.StatusForbidden,
	CodeNotFound:     fiber.StatusNotFound,
}

// ErrNotFound is returned by stores when no record matches.
var ErrNotFound = errors.New("record not found")

// FieldError names one rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error  string       `json:"error"`
	Code   string       `json:"code,omitempty"`
	Errors []FieldError `json:"errors,omitempty"`
}

// AppError is a failure the HTTP layer knows how to answer. Message and
// Fields are shown to clients; Err is for logs only.
type AppError struct {
	Code    string
	Message string
	Fields  []FieldError
	Err     error
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *AppError) Unwrap() error { return e.Err }

// Status is the HTTP status for e.Code. Unknown codes are 500.
func (e *AppError) Status() int {
	if status, ok := codeStatus[e.Code]; ok {
		return status
	}
	return fiber.StatusInternalServerError
}

// Response is the client-facing body for e.
func (e *AppError) Response() ErrorResponse {
	return ErrorResponse{Error: e.Message, Code: e.Code, Errors: e.Fields}
}

func NewNotFoundError(resource string, id any) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s with ID %v not found", resource, id),
		Err:     ErrNotFound,
	}
}

func NewValidationError(message string, fields ...FieldError) *AppError {
	return &AppError{Code: CodeValidation, Message: message, Fields: fields}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{Code: CodeUnauthorized, Message: message}
}

func NewForbiddenError(message string) *AppError {
	return &AppError{Code: CodeForbidden, Message: message}
}

func NewInternalError(err error) *AppError {
	return &AppError{Code: CodeInternal, Message: "Internal server error", Err: err}
}

// AsAppError finds the first AppError in err's chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	ok := errors.As(err, &appErr)
	return appErr, ok
}

// IsCode reports whether err carries an AppError with code.
func IsCode(err error, code string) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}

// RespondWithError writes err as an ErrorResponse with status. Causes wrapped
// inside an AppError are never serialized; a bare error is sent as a generic
// internal error.
func RespondWithError(c *fiber.Ctx, status int, err error) error {
	appErr, ok := AsAppError(err)
	if !ok {
		appErr = NewInternalError(err)
	}
	return c.Status(status).JSON(appErr.Response())
}
