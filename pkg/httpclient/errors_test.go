package httpclient

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Gangoo91/Elec-Mate-Merge-sub265/pkg/errors"
)

func response(status int, body string) *http.Response {
	return &http.Response{StatusCode: status, Body: io.NopCloser(strings.NewReader(body))}
}

func envelope(code, message string) string {
	return `{"error":{"code":"` + code + `","message":"` + message + `"}}`
}

func TestParseResponseError_Envelope(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		code       string
		wantStatus int
		sentinel   error
	}{
		{"not found", http.StatusNotFound, "NOT_FOUND", http.StatusNotFound, apperrors.ErrNotFound},
		{"bad request", http.StatusBadRequest, "EMPTY_QUERY", http.StatusBadRequest, apperrors.ErrInvalidInput},
		{"unprocessable", http.StatusUnprocessableEntity, "VALIDATION_ERROR", http.StatusUnprocessableEntity, apperrors.ErrInvalidInput},
		{"conflict", http.StatusConflict, "CONFLICT", http.StatusConflict, apperrors.ErrConflict},
		{"rate limited", http.StatusTooManyRequests, "RATE_LIMITED", http.StatusTooManyRequests, apperrors.ErrRateLimited},
		{"unavailable", http.StatusServiceUnavailable, "SEARCH_UNAVAILABLE", http.StatusBadGateway, apperrors.ErrUpstream},
		{"internal", http.StatusInternalServerError, "INTERNAL_ERROR", http.StatusBadGateway, apperrors.ErrUpstream},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ParseResponseError(response(tt.status, envelope(tt.code, "nope")), "materials-search")

			var appErr *apperrors.AppError
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, tt.code, appErr.Code)
			assert.Equal(t, tt.wantStatus, appErr.Status)
			assert.Equal(t, "materials-search: nope", appErr.Message)
			assert.ErrorIs(t, err, tt.sentinel)
		})
	}
}

func TestParseResponseError_OtherClientStatusKeepsStatus(t *testing.T) {
	err := ParseResponseError(response(http.StatusForbidden, envelope("FORBIDDEN", "denied")), "catalog-service")

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusForbidden, appErr.Status)
	assert.Nil(t, appErr.Err)
}

func TestParseResponseError_NonEnvelopeBodies(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		upstream bool
	}{
		{"plain text", http.StatusBadGateway, "bad gateway", true},
		{"html", http.StatusServiceUnavailable, "<html>maintenance</html>", true},
		{"empty", http.StatusNotFound, "", false},
		{"null error", http.StatusBadRequest, `{"error":null}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ParseResponseError(response(tt.status, tt.body), "catalog-service")

			var se *StatusError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tt.status, se.Status)
			assert.Equal(t, tt.body, se.Body)
			assert.Equal(t, tt.upstream, errors.Is(err, apperrors.ErrUpstream))
			assert.Contains(t, err.Error(), "catalog-service returned status")
		})
	}
}

func TestParseResponseError_LimitsBody(t *testing.T) {
	err := ParseResponseError(response(http.StatusBadGateway, strings.Repeat("x", maxErrorBody+100)), "catalog-service")

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Len(t, se.Body, maxErrorBody)
}
