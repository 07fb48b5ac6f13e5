package httputil

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Gangoo91/Elec-Mate-Merge-sub265/pkg/errors"
	"github.com/Gangoo91/Elec-Mate-Merge-sub265/pkg/logger"
	"github.com/Gangoo91/Elec-Mate-Merge-sub265/pkg/validator"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) *ErrorResponse {
	t.Helper()
	var resp Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.NotNil(t, resp.Error)
	return resp.Error
}

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, http.StatusCreated, Response{Data: map[string]any{"suggestions": []string{"LED Downlight 6W"}}})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"data":{"suggestions":["LED Downlight 6W"]}}`, rec.Body.String())
}

func TestResponse_OmitsEmptyHalves(t *testing.T) {
	data, err := json.Marshal(Response{Data: []int{}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":[]}`, string(data))

	data, err = json.Marshal(Response{Error: &ErrorResponse{Code: "X", Message: "m"}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"error":{"code":"X","message":"m"}}`, string(data))
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		code    string
		message string
	}{
		{"empty query", apperrors.EmptyQuery(), http.StatusBadRequest, "EMPTY_QUERY", "enter a search term"},
		{"search unavailable", apperrors.SearchUnavailable(errors.New("dial tcp: refused")), http.StatusServiceUnavailable, "SEARCH_UNAVAILABLE", "search is temporarily unavailable, please try again"},
		{"not found", apperrors.NotFound("material", "9"), http.StatusNotFound, "NOT_FOUND", "material with id 9 not found"},
		{"conflict", apperrors.Conflict("reindex already in progress"), http.StatusConflict, "CONFLICT", "reindex already in progress"},
		{"wrapped sentinel", fmt.Errorf("lookup: %w", apperrors.ErrNotFound), http.StatusNotFound, "NOT_FOUND", "resource not found"},
		{"invalid input detail", fmt.Errorf("limit must be positive: %w", apperrors.ErrInvalidInput), http.StatusBadRequest, "INVALID_INPUT", "limit must be positive: invalid input"},
		{"unknown", errors.New("pgx: closed pool"), http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/v1/materials/search?q=x", nil)

			WriteError(rec, req, tt.err, discardLogger())

			assert.Equal(t, tt.status, rec.Code)
			e := decodeError(t, rec)
			assert.Equal(t, tt.code, e.Code)
			assert.Equal(t, tt.message, e.Message)
		})
	}
}

func TestWriteError_LogsServerErrors(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(slog.NewJSONHandler(&buf, nil))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/materials/search", nil)
	WriteError(httptest.NewRecorder(), req, apperrors.SearchUnavailable(errors.New("es down")), l)
	assert.Contains(t, buf.String(), "es down")
	assert.Contains(t, buf.String(), "SEARCH_UNAVAILABLE")

	buf.Reset()
	WriteError(httptest.NewRecorder(), req, apperrors.EmptyQuery(), l)
	assert.Empty(t, buf.String())
}

func TestWriteError_RequestID(t *testing.T) {
	ctx := logger.WithCorrelationID(context.Background(), "corr-123")
	req := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	WriteError(rec, req, apperrors.ErrNotFound, discardLogger())
	assert.Equal(t, "corr-123", decodeError(t, rec).RequestID)

	rec = httptest.NewRecorder()
	WriteError(rec, httptest.NewRequest(http.MethodGet, "/", nil), apperrors.ErrNotFound, discardLogger())
	assert.NotContains(t, rec.Body.String(), "request_id")
}

func TestWriteValidationError(t *testing.T) {
	type addToQuote struct {
		MaterialID int64 `json:"material_id" validate:"required,gt=0"`
	}

	t.Run("field errors", func(t *testing.T) {
		rec := httptest.NewRecorder()
		WriteValidationError(rec, validator.Validate(addToQuote{}))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		e := decodeError(t, rec)
		assert.Equal(t, "VALIDATION_ERROR", e.Code)
		assert.Equal(t, map[string]string{"material_id": "is required"}, e.Fields)
	})

	t.Run("body too large", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"material_id":123456789}`))
		req.Body = http.MaxBytesReader(rec, req.Body, 8)

		var dst addToQuote
		WriteValidationError(rec, validator.DecodeAndValidate(req, &dst))

		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
		e := decodeError(t, rec)
		assert.Equal(t, "BODY_TOO_LARGE", e.Code)
		assert.Equal(t, "request body exceeds 8 bytes", e.Message)
	})

	t.Run("malformed", func(t *testing.T) {
		rec := httptest.NewRecorder()
		WriteValidationError(rec, errors.New("decode request body: unexpected EOF"))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		e := decodeError(t, rec)
		assert.Equal(t, "INVALID_INPUT", e.Code)
		assert.Contains(t, e.Message, "unexpected EOF")
	})
}

func TestParseID(t *testing.T) {
	rec := httptest.NewRecorder()
	id, ok := ParseID(rec, "42")
	assert.True(t, ok)
	assert.Equal(t, int64(42), id)

	for _, raw := range []string{"0", "-3", "abc", ""} {
		t.Run("invalid "+raw, func(t *testing.T) {
			rec := httptest.NewRecorder()
			_, ok := ParseID(rec, raw)

			assert.False(t, ok)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			e := decodeError(t, rec)
			assert.Equal(t, "INVALID_PARAMETER", e.Code)
			assert.Equal(t, "invalid id: "+raw, e.Message)
		})
	}
}

func TestQueryInt(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		want   int
		wantOK bool
	}{
		{"missing uses default", "", 50, true},
		{"in range", "?limit=7", 7, true},
		{"lower bound", "?limit=1", 1, true},
		{"below range", "?limit=0", 0, false},
		{"above range", "?limit=101", 0, false},
		{"malformed", "?limit=ten", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/v1/materials/search"+tt.query, nil)

			got, ok := QueryInt(rec, req, "limit", 50, 1, 100)

			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
			if !tt.wantOK {
				e := decodeError(t, rec)
				assert.Equal(t, "limit must be an integer between 1 and 100", e.Message)
			}
		})
	}
}
