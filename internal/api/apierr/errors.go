package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/pokearena/internal/model"
)

// APIError represents an API error response
type APIError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest     = "INVALID_REQUEST"
	CodeValidationFailed   = "VALIDATION_FAILED"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeForbidden          = "FORBIDDEN"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeUserNotFound       = "USER_NOT_FOUND"
	CodeCreatureNotFound   = "CREATURE_NOT_FOUND"
	CodeNotFound           = "NOT_FOUND"
	CodeEmailExists        = "EMAIL_EXISTS"
	CodeUsernameExists     = "USERNAME_EXISTS"
	CodeFavoriteExists     = "FAVORITE_EXISTS"
	CodeFavoritesFull      = "FAVORITES_FULL"
	CodeDailyLimitReached  = "DAILY_LIMIT_REACHED"
	CodeUpstreamError      = "UPSTREAM_ERROR"
	CodeInternalError      = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// Status returns the HTTP status an error maps to
func Status(err error) int {
	return toHTTPError(err).status
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	var verr *model.ValidationError
	if errors.As(err, &verr) {
		return &httpError{http.StatusBadRequest, APIError{CodeValidationFailed, "Validation failed", verr.Fields}}
	}

	// Specific errors first, then their kinds
	switch {
	case errors.Is(err, model.ErrInvalidCredentials):
		return &httpError{http.StatusUnauthorized, APIError{Code: CodeInvalidCredentials, Message: "Invalid email or password"}}
	case errors.Is(err, model.ErrUnauthorized):
		return &httpError{http.StatusUnauthorized, APIError{Code: CodeUnauthorized, Message: "Invalid or expired session"}}

	case errors.Is(err, model.ErrUserNotFound):
		return &httpError{http.StatusNotFound, APIError{Code: CodeUserNotFound, Message: "User not found"}}
	case errors.Is(err, model.ErrCreatureNotFound):
		return &httpError{http.StatusNotFound, APIError{Code: CodeCreatureNotFound, Message: "Pokémon not found"}}
	case errors.Is(err, model.ErrNotFound):
		return &httpError{http.StatusNotFound, APIError{Code: CodeNotFound, Message: "Not found"}}

	case errors.Is(err, model.ErrEmailExists):
		return &httpError{http.StatusConflict, APIError{Code: CodeEmailExists, Message: "Email already registered"}}
	case errors.Is(err, model.ErrUsernameExists):
		return &httpError{http.StatusConflict, APIError{Code: CodeUsernameExists, Message: "Username already exists"}}
	case errors.Is(err, model.ErrFavoriteExists):
		return &httpError{http.StatusConflict, APIError{Code: CodeFavoriteExists, Message: "Already in favorites"}}

	case errors.Is(err, model.ErrFavoritesFull):
		return &httpError{http.StatusBadRequest, APIError{Code: CodeFavoritesFull, Message: "Maximum 10 favorites allowed"}}
	case errors.Is(err, model.ErrDailyBattleLimit):
		return &httpError{http.StatusForbidden, APIError{Code: CodeDailyLimitReached, Message: "Daily battle limit reached"}}

	case errors.Is(err, model.ErrUpstream):
		return &httpError{http.StatusBadGateway, APIError{Code: CodeUpstreamError, Message: "Creature data provider unavailable"}}

	default:
		return &httpError{http.StatusInternalServerError, APIError{Code: CodeInternalError, Message: "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{Code: CodeInvalidRequest, Message: message}}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return &httpError{http.StatusUnauthorized, APIError{Code: CodeUnauthorized, Message: "Authentication required"}}
}

// NewForbiddenError creates a forbidden error
func NewForbiddenError(message string) error {
	return &httpError{http.StatusForbidden, APIError{Code: CodeForbidden, Message: message}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{Code: CodeInternalError, Message: "Internal server error"}}
}
