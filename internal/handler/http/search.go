package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Gangoo91/Elec-Mate-Merge-sub265/internal/domain"
	"github.com/Gangoo91/Elec-Mate-Merge-sub265/internal/service"
	"github.com/Gangoo91/Elec-Mate-Merge-sub265/pkg/httputil"
	"github.com/Gangoo91/Elec-Mate-Merge-sub265/pkg/validator"
)

const (
	maxBodyBytes     = 1 << 20
	maxBulkBodyBytes = 10 << 20

	maxQueryLimit    = 1000
	maxMinChars      = 10
	maxDebounceMs    = 5000
	defaultMissDays  = 7
	defaultMissLimit = 20
)

// SearchHandler handles HTTP requests for material search endpoints.
type SearchHandler struct {
	service *service.SearchService
	logger  *slog.Logger
}

// NewSearchHandler creates a new search HTTP handler.
func NewSearchHandler(svc *service.SearchService, logger *slog.Logger) *SearchHandler {
	return &SearchHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// BulkIndexRequest is the JSON request body for bulk indexing materials.
type BulkIndexRequest struct {
	Materials []service.IndexMaterialInput `json:"materials" validate:"required,min=1,max=1000,dive"`
}

// AddToQuoteRequest is the JSON request body for adding a material to a quote.
type AddToQuoteRequest struct {
	MaterialID int64  `json:"material_id" validate:"required,gt=0"`
	Quantity   int    `json:"quantity"`
	Query      string `json:"query" validate:"max=200"`
}

// --- Handlers ---

// Search handles GET /api/v1/materials/search
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	limit, ok := httputil.QueryInt(w, r, "limit", 0, 0, maxQueryLimit)
	if !ok {
		return
	}

	params := r.URL.Query()
	query := &domain.SearchQuery{
		Text:  params.Get("q"),
		Limit: limit,
	}
	if v := params.Get("category"); v != "" {
		query.CategoryFilter = &v
	}
	if v := params.Get("supplier"); v != "" {
		query.SupplierFilter = &v
	}

	result, err := h.service.Search(r.Context(), query)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: result})
}

// Autocomplete handles GET /api/v1/materials/autocomplete. debounce_ms is
// validated but otherwise belongs to the client; the server answers every
// request it receives.
func (h *SearchHandler) Autocomplete(w http.ResponseWriter, r *http.Request) {
	limits := h.service.Limits()

	minChars, ok := httputil.QueryInt(w, r, "min_chars", limits.MinChars, 1, maxMinChars)
	if !ok {
		return
	}
	maxSuggestions, ok := httputil.QueryInt(w, r, "max_suggestions", limits.MaxSuggestions, 1, domain.MaxAutocompleteLimit)
	if !ok {
		return
	}
	if _, ok := httputil.QueryInt(w, r, "debounce_ms", 0, 0, maxDebounceMs); !ok {
		return
	}

	suggestions := h.service.Suggest(r.Context(), r.URL.Query().Get("q"), service.SuggestOptions{
		MinChars:       minChars,
		MaxSuggestions: maxSuggestions,
	})

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]any{"suggestions": suggestions}})
}

// DidYouMean handles GET /api/v1/materials/did-you-mean
func (h *SearchHandler) DidYouMean(w http.ResponseWriter, r *http.Request) {
	suggestions, err := h.service.DidYouMean(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]any{"suggestions": suggestions}})
}

// Highlight handles GET /api/v1/materials/highlight
func (h *SearchHandler) Highlight(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	spans := h.service.Highlight(params.Get("text"), params.Get("q"))
	if spans == nil {
		spans = []domain.Span{}
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]any{"spans": spans}})
}

// GetMaterial handles GET /api/v1/materials/{id}
func (h *SearchHandler) GetMaterial(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	m, err := h.service.GetMaterial(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: m})
}

// AddToQuote handles POST /api/v1/materials/quote-items
func (h *SearchHandler) AddToQuote(w http.ResponseWriter, r *http.Request) {
	var req AddToQuoteRequest
	if !decodeBody(w, r, &req, maxBodyBytes) {
		return
	}

	item, err := h.service.AddToQuote(r.Context(), &service.AddToQuoteInput{
		MaterialID: req.MaterialID,
		Quantity:   req.Quantity,
		Query:      req.Query,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: item})
}

// IndexMaterial handles POST /api/v1/materials/index
func (h *SearchHandler) IndexMaterial(w http.ResponseWriter, r *http.Request) {
	var req service.IndexMaterialInput
	if !decodeBody(w, r, &req, maxBodyBytes) {
		return
	}

	if err := h.service.IndexMaterial(r.Context(), &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]any{"id": req.ID, "status": "indexed"}})
}

// BulkIndex handles POST /api/v1/materials/bulk
func (h *SearchHandler) BulkIndex(w http.ResponseWriter, r *http.Request) {
	var req BulkIndexRequest
	if !decodeBody(w, r, &req, maxBulkBodyBytes) {
		return
	}

	n, err := h.service.BulkIndex(r.Context(), req.Materials)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]any{"indexed": n, "status": "ok"}})
}

// DeleteMaterial handles DELETE /api/v1/materials/{id}
func (h *SearchHandler) DeleteMaterial(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.service.DeleteMaterial(r.Context(), id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]any{"id": id, "status": "deleted"}})
}

// Reindex handles POST /api/v1/materials/reindex. The reindex outlives the
// request; a second call while one is running gets 409.
func (h *SearchHandler) Reindex(w http.ResponseWriter, r *http.Request) {
	ctx := context.WithoutCancel(r.Context())
	if err := h.service.StartReindex(ctx, nil); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusAccepted, httputil.Response{Data: map[string]string{"status": "reindex started"}})
}

// TopMisses handles GET /api/v1/materials/misses
func (h *SearchHandler) TopMisses(w http.ResponseWriter, r *http.Request) {
	days, ok := httputil.QueryInt(w, r, "days", defaultMissDays, 1, 365)
	if !ok {
		return
	}
	limit, ok := httputil.QueryInt(w, r, "limit", defaultMissLimit, 1, 100)
	if !ok {
		return
	}

	since := time.Now().AddDate(0, 0, -days)
	misses, err := h.service.TopMisses(r.Context(), since, limit)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]any{"misses": misses}})
}

// decodeBody reads a size-limited JSON body into dst and validates it,
// writing a 400 response and returning false on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any, maxBytes int64) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := validator.DecodeAndValidate(r, dst); err != nil {
		httputil.WriteValidationError(w, err)
		return false
	}
	return true
}
