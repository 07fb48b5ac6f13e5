package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinels for errors.Is checks across layers.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("conflict")
	ErrRateLimited  = errors.New("rate limited")
	ErrUpstream     = errors.New("upstream failure")

	// ErrEmptyQuery is returned when a search or autocomplete request carries
	// a blank query.
	ErrEmptyQuery = errors.New("empty query")

	// ErrSearchUnavailable is returned when the search backend cannot answer.
	// Callers decide whether to resubmit; nothing retries on their behalf.
	ErrSearchUnavailable = errors.New("search unavailable")
)

// AppError is an error with a stable machine code and an HTTP status.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound creates a 404 error.
func NotFound(resource, id string) *AppError {
	return &AppError{
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s with id %s not found", resource, id),
		Status:  http.StatusNotFound,
		Err:     ErrNotFound,
	}
}

// InvalidInput creates a 400 error.
func InvalidInput(message string) *AppError {
	return &AppError{Code: "INVALID_INPUT", Message: message, Status: http.StatusBadRequest, Err: ErrInvalidInput}
}

// Conflict creates a 409 error.
func Conflict(message string) *AppError {
	return &AppError{Code: "CONFLICT", Message: message, Status: http.StatusConflict, Err: ErrConflict}
}

// RateLimited creates a 429 error.
func RateLimited() *AppError {
	return &AppError{Code: "RATE_LIMITED", Message: "too many requests", Status: http.StatusTooManyRequests, Err: ErrRateLimited}
}

// EmptyQuery creates a 400 error prompting the user to enter a search term.
func EmptyQuery() *AppError {
	return &AppError{Code: "EMPTY_QUERY", Message: "enter a search term", Status: http.StatusBadRequest, Err: ErrEmptyQuery}
}

// SearchUnavailable creates a 503 error for a failed search backend call.
func SearchUnavailable(err error) *AppError {
	wrapped := ErrSearchUnavailable
	if err != nil {
		wrapped = fmt.Errorf("%w: %w", ErrSearchUnavailable, err)
	}
	return &AppError{
		Code:    "SEARCH_UNAVAILABLE",
		Message: "search is temporarily unavailable, please try again",
		Status:  http.StatusServiceUnavailable,
		Err:     wrapped,
	}
}

// Upstream creates a 502 error for a dependency that answered with a server
// error. An empty code becomes UPSTREAM_ERROR.
func Upstream(service, code, message string) *AppError {
	if code == "" {
		code = "UPSTREAM_ERROR"
	}
	return &AppError{
		Code:    code,
		Message: service + ": " + message,
		Status:  http.StatusBadGateway,
		Err:     ErrUpstream,
	}
}

var sentinels = []struct {
	err    error
	status int
	code   string
}{
	{ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
	{ErrEmptyQuery, http.StatusBadRequest, "EMPTY_QUERY"},
	{ErrInvalidInput, http.StatusBadRequest, "INVALID_INPUT"},
	{ErrConflict, http.StatusConflict, "CONFLICT"},
	{ErrRateLimited, http.StatusTooManyRequests, "RATE_LIMITED"},
	{ErrSearchUnavailable, http.StatusServiceUnavailable, "SEARCH_UNAVAILABLE"},
	{ErrUpstream, http.StatusBadGateway, "UPSTREAM_ERROR"},
}

// Classify returns the HTTP status, code and client-facing message for err.
// Unknown errors are reported as a generic 500 so internals never leak.
func Classify(err error) (status int, code, message string) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status, appErr.Code, appErr.Message
	}
	for _, s := range sentinels {
		if errors.Is(err, s.err) {
			msg := s.err.Error()
			if s.err == ErrInvalidInput {
				msg = err.Error()
			}
			return s.status, s.code, msg
		}
	}
	return http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred"
}

// HTTPStatus returns the HTTP status code for err.
func HTTPStatus(err error) int {
	status, _, _ := Classify(err)
	return status
}
