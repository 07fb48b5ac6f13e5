package autocomplete

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Gangoo91/Elec-Mate-Merge-sub265/pkg/errors"
	"github.com/Gangoo91/Elec-Mate-Merge-sub265/pkg/httpclient"
)

func newTestClient() *httpclient.Client {
	return httpclient.New(httpclient.Config{
		Timeout:         time.Second,
		MaxRetries:      0,
		MaxConnsPerHost: 2,
	})
}

func TestHTTPSuggester_Suggest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/materials/autocomplete", r.URL.Path)
		assert.Equal(t, "twin", r.URL.Query().Get("q"))
		assert.Equal(t, "4", r.URL.Query().Get("max_suggestions"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"suggestions":[{"name":"2.5mm Twin and Earth Cable","category":"Cables","score":0.72}]}}`))
	}))
	defer srv.Close()

	sug := NewHTTPSuggester(newTestClient(), srv.URL+"/")
	out, err := sug.Suggest(context.Background(), "twin", 4)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "2.5mm Twin and Earth Cable", out[0].Name)
	assert.Equal(t, "Cables", out[0].Category)
	assert.InDelta(t, 0.72, out[0].Score, 1e-9)
}

func TestHTTPSuggester_EmptyData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data":{}}`))
	}))
	defer srv.Close()

	out, err := NewHTTPSuggester(newTestClient(), srv.URL).Suggest(context.Background(), "zz", 0)
	require.NoError(t, err)
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

func TestHTTPSuggester_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":"EMPTY_QUERY","message":"enter a search term"}}`))
	}))
	defer srv.Close()

	_, err := NewHTTPSuggester(newTestClient(), srv.URL).Suggest(context.Background(), "", 5)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}
