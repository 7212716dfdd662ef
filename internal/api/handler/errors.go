package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/mcoot/pokearena/internal/api/apierr"
)

// Re-export from apierr for convenience
type APIError = apierr.APIError
type ErrorResponse = apierr.ErrorResponse

// Re-export error codes
const (
	CodeInvalidRequest     = apierr.CodeInvalidRequest
	CodeValidationFailed   = apierr.CodeValidationFailed
	CodeUnauthorized       = apierr.CodeUnauthorized
	CodeForbidden          = apierr.CodeForbidden
	CodeInvalidCredentials = apierr.CodeInvalidCredentials
	CodeUserNotFound       = apierr.CodeUserNotFound
	CodeCreatureNotFound   = apierr.CodeCreatureNotFound
	CodeEmailExists        = apierr.CodeEmailExists
	CodeUsernameExists     = apierr.CodeUsernameExists
	CodeFavoriteExists     = apierr.CodeFavoriteExists
	CodeFavoritesFull      = apierr.CodeFavoritesFull
	CodeDailyLimitReached  = apierr.CodeDailyLimitReached
	CodeInternalError      = apierr.CodeInternalError
)

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	apierr.WriteError(w, err)
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return apierr.NewInvalidRequestError(message)
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return apierr.NewUnauthorizedError()
}

// NewForbiddenError creates a forbidden error
func NewForbiddenError(message string) error {
	return apierr.NewForbiddenError(message)
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return apierr.NewInternalError()
}

// maxBodyBytes bounds request bodies
const maxBodyBytes = 1 << 20

// decodeJSON reads a JSON request body into v. An empty body leaves v untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return NewInvalidRequestError("invalid request body")
	}
	return nil
}
