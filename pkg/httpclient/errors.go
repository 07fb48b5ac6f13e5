package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/Gangoo91/Elec-Mate-Merge-sub265/pkg/errors"
)

const maxErrorBody = 64 << 10

// StatusError is a non-2xx response whose body was not an error envelope.
type StatusError struct {
	Service string
	Status  int
	Body    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned status %d: %s", e.Service, e.Status, e.Body)
}

// Unwrap lets 5xx responses match apperrors.ErrUpstream.
func (e *StatusError) Unwrap() error {
	if e.Status >= http.StatusInternalServerError {
		return apperrors.ErrUpstream
	}
	return nil
}

type errorEnvelope struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// ParseResponseError consumes and closes the body of a non-2xx response and
// turns it into an error. Bodies in the {"error":{code,message}} envelope
// become an *apperrors.AppError keeping the peer's code; anything else
// becomes a *StatusError.
func ParseResponseError(resp *http.Response, service string) error {
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return fmt.Errorf("%s returned status %d (read body: %w)", service, resp.StatusCode, err)
	}

	var env errorEnvelope
	if json.Unmarshal(body, &env) != nil || env.Error == nil {
		return &StatusError{Service: service, Status: resp.StatusCode, Body: string(body)}
	}
	return fromEnvelope(resp.StatusCode, env.Error.Code, env.Error.Message, service)
}

func fromEnvelope(status int, code, message, service string) error {
	if status >= http.StatusInternalServerError {
		return apperrors.Upstream(service, code, message)
	}

	var sentinel error
	switch status {
	case http.StatusNotFound:
		sentinel = apperrors.ErrNotFound
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		sentinel = apperrors.ErrInvalidInput
	case http.StatusConflict:
		sentinel = apperrors.ErrConflict
	case http.StatusTooManyRequests:
		sentinel = apperrors.ErrRateLimited
	}
	return &apperrors.AppError{
		Code:    code,
		Message: service + ": " + message,
		Status:  status,
		Err:     sentinel,
	}
}
