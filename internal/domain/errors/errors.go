package errors

import (
	"errors"
	"net/http"
)

// Domain errors
var (
	ErrNotFound      = errors.New("resource not found")
	ErrAlreadyExists = errors.New("resource already exists")
	ErrInvalidInput  = errors.New("invalid input")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrRateLimited   = errors.New("rate limited")

	// Sign-in token lifecycle
	ErrTokenNotFound    = errors.New("sign-in token not found")
	ErrTokenExpired     = errors.New("sign-in token expired")
	ErrTokenAlreadyUsed = errors.New("sign-in token already used")
	ErrConflict         = errors.New("conflict")

	ErrDelivery       = errors.New("sign-in link delivery failed")
	ErrSessionInvalid = errors.New("session invalid")
)

// Error codes returned to clients
const (
	CodeInvalidInput  = "ERR_INVALID_INPUT"
	CodeUnauthorized  = "ERR_UNAUTHORIZED"
	CodeInvalidToken  = "ERR_INVALID_TOKEN"
	CodeNotFound      = "ERR_NOT_FOUND"
	CodeConflict      = "ERR_CONFLICT"
	CodeRateLimited   = "ERR_RATE_LIMITED"
	CodeDelivery      = "ERR_DELIVERY"
	CodeInternalError = "ERR_INTERNAL"
)

// AppError represents application error with HTTP status
type AppError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new app error
func NewAppError(status int, code, message string, err error) *AppError {
	return &AppError{
		Status:  status,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common error constructors
func NotFound(message string) *AppError {
	return NewAppError(http.StatusNotFound, CodeNotFound, message, ErrNotFound)
}

func BadRequest(message string) *AppError {
	return NewAppError(http.StatusBadRequest, CodeInvalidInput, message, ErrInvalidInput)
}

func Unauthorized(message string) *AppError {
	return NewAppError(http.StatusUnauthorized, CodeUnauthorized, message, ErrUnauthorized)
}

// InvalidToken hides which of the token failures occurred.
func InvalidToken(err error) *AppError {
	return NewAppError(http.StatusUnauthorized, CodeInvalidToken, "invalid or expired sign-in link", err)
}

func Conflict(message string) *AppError {
	return NewAppError(http.StatusConflict, CodeConflict, message, ErrConflict)
}

func TooManyRequests(message string) *AppError {
	return NewAppError(http.StatusTooManyRequests, CodeRateLimited, message, ErrRateLimited)
}

func ServiceUnavailable(message string, err error) *AppError {
	return NewAppError(http.StatusServiceUnavailable, CodeDelivery, message, err)
}

func InternalError(err error) *AppError {
	return NewAppError(http.StatusInternalServerError, CodeInternalError, "internal server error", err)
}

// IsTokenError reports whether err is any of the sign-in token failures.
func IsTokenError(err error) bool {
	return errors.Is(err, ErrTokenNotFound) ||
		errors.Is(err, ErrTokenExpired) ||
		errors.Is(err, ErrTokenAlreadyUsed)
}
