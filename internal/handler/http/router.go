package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Gangoo91/Elec-Mate-Merge-sub265/internal/service"
	"github.com/Gangoo91/Elec-Mate-Merge-sub265/pkg/health"
	"github.com/Gangoo91/Elec-Mate-Merge-sub265/pkg/middleware"
)

// ServiceName labels HTTP metrics and trace spans.
const ServiceName = "materials-search"

// highlightMaxAge is the Cache-Control max-age for highlight responses,
// which depend only on their query string.
const highlightMaxAge = 5 * time.Minute

// RouterConfig holds the HTTP-layer settings.
type RouterConfig struct {
	CORS              middleware.CORSConfig
	AutocompleteRPS   float64
	AutocompleteBurst int
	PprofAllowedCIDRs []string
	RequestTimeout    time.Duration
}

// NewRouter creates a chi router with all material search routes registered.
// ctx bounds the lifetime of the rate limiter's cleanup loop.
func NewRouter(
	ctx context.Context,
	searchService *service.SearchService,
	healthHandler *health.Handler,
	cfg RouterConfig,
	logger *slog.Logger,
) http.Handler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.Tracing(ServiceName))
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(cfg.RequestTimeout))
	r.Use(middleware.PrometheusMetrics(ServiceName))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	middleware.RegisterPprof(r, cfg.PprofAllowedCIDRs, logger)

	searchHandler := NewSearchHandler(searchService, logger)

	r.Route("/api/v1/materials", func(r chi.Router) {
		r.Get("/search", searchHandler.Search)
		r.Get("/did-you-mean", searchHandler.DidYouMean)
		r.With(middleware.CacheControl(highlightMaxAge)).Get("/highlight", searchHandler.Highlight)
		r.Get("/misses", searchHandler.TopMisses)
		r.Get("/{id}", searchHandler.GetMaterial)

		r.Group(func(r chi.Router) {
			if cfg.AutocompleteRPS > 0 {
				r.Use(middleware.RateLimit(ctx, cfg.AutocompleteRPS, cfg.AutocompleteBurst, logger))
			}
			r.Get("/autocomplete", searchHandler.Autocomplete)
		})

		r.Group(func(r chi.Router) {
			r.Use(ContentTypeJSON)
			r.Post("/quote-items", searchHandler.AddToQuote)
			r.Post("/index", searchHandler.IndexMaterial)
			r.Post("/bulk", searchHandler.BulkIndex)
			r.Post("/reindex", searchHandler.Reindex)
			r.Delete("/{id}", searchHandler.DeleteMaterial)
		})
	})

	return r
}

// ContentTypeJSON enforces that requests with a body have Content-Type: application/json.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > 0 || r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			ct := r.Header.Get("Content-Type")
			if ct != "" && !strings.HasPrefix(ct, "application/json") {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnsupportedMediaType)
				_, _ = w.Write([]byte(`{"error":{"code":"UNSUPPORTED_MEDIA_TYPE","message":"Content-Type must be application/json"}}`))
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
