package service

import (
	"context"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/sony/gobreaker/v2"

	"github.com/Gangoo91/Elec-Mate-Merge-sub265/internal/catalog"
	"github.com/Gangoo91/Elec-Mate-Merge-sub265/internal/domain"
	"github.com/Gangoo91/Elec-Mate-Merge-sub265/internal/engine"
	"github.com/Gangoo91/Elec-Mate-Merge-sub265/internal/highlight"
	"github.com/Gangoo91/Elec-Mate-Merge-sub265/internal/quote"
	"github.com/Gangoo91/Elec-Mate-Merge-sub265/internal/repository"
	"github.com/Gangoo91/Elec-Mate-Merge-sub265/internal/textmatch"
	apperrors "github.com/Gangoo91/Elec-Mate-Merge-sub265/pkg/errors"
	"github.com/Gangoo91/Elec-Mate-Merge-sub265/pkg/httpclient"
	"github.com/Gangoo91/Elec-Mate-Merge-sub265/pkg/logger"
)

// ResponseCache caches search and autocomplete responses under a corpus
// version. cache.Redis implements it.
type ResponseCache interface {
	Version(ctx context.Context) (int64, error)
	BumpVersion(ctx context.Context) (int64, error)
	GetSearch(ctx context.Context, version int64, q *domain.SearchQuery) (*domain.SearchResponse, bool, error)
	SetSearch(ctx context.Context, version int64, q *domain.SearchQuery, resp *domain.SearchResponse) error
	GetSuggest(ctx context.Context, version int64, partial string, limit int) ([]domain.AutocompleteSuggestion, bool, error)
	SetSuggest(ctx context.Context, version int64, partial string, limit int, suggestions []domain.AutocompleteSuggestion) error
}

// Limits bounds request sizes.
type Limits struct {
	DefaultSearchLimit int
	MaxSearchLimit     int
	MinChars           int
	MaxSuggestions     int
}

// DefaultLimits returns the limits used when none are configured.
func DefaultLimits() Limits {
	return Limits{
		DefaultSearchLimit: domain.DefaultSearchLimit,
		MaxSearchLimit:     domain.MaxSearchLimit,
		MinChars:           domain.DefaultAutocompleteMinChars,
		MaxSuggestions:     domain.DefaultAutocompleteLimit,
	}
}

// SearchService validates requests, guards the search backend with a circuit
// breaker, caches responses, and records searches that found nothing.
type SearchService struct {
	engine  engine.SearchEngine
	logger  *slog.Logger
	breaker *gobreaker.CircuitBreaker[any]
	limits  Limits

	cache  ResponseCache
	misses repository.SearchMissRepository
	quotes quote.Publisher
	source catalog.Source

	reindexing atomic.Bool
}

// Option configures a SearchService.
type Option func(*SearchService)

// WithCache enables response caching.
func WithCache(c ResponseCache) Option {
	return func(s *SearchService) { s.cache = c }
}

// WithMissLog records zero-result searches.
func WithMissLog(r repository.SearchMissRepository) Option {
	return func(s *SearchService) { s.misses = r }
}

// WithQuotePublisher sets where accepted line items are sent.
func WithQuotePublisher(p quote.Publisher) Option {
	return func(s *SearchService) { s.quotes = p }
}

// WithSource sets the catalog that Reindex loads from.
func WithSource(src catalog.Source) Option {
	return func(s *SearchService) { s.source = src }
}

// WithLimits overrides the request size bounds. Zero fields keep their defaults.
func WithLimits(l Limits) Option {
	return func(s *SearchService) {
		if l.DefaultSearchLimit > 0 {
			s.limits.DefaultSearchLimit = l.DefaultSearchLimit
		}
		if l.MaxSearchLimit > 0 {
			s.limits.MaxSearchLimit = l.MaxSearchLimit
		}
		if l.MinChars > 0 {
			s.limits.MinChars = l.MinChars
		}
		if l.MaxSuggestions > 0 {
			s.limits.MaxSuggestions = l.MaxSuggestions
		}
	}
}

// WithBreaker replaces the default engine circuit breaker settings.
func WithBreaker(cfg httpclient.CircuitBreakerConfig) Option {
	return func(s *SearchService) { s.breaker = newEngineBreaker(cfg, s.logger) }
}

// NewSearchService creates a new search service.
func NewSearchService(eng engine.SearchEngine, logger *slog.Logger, opts ...Option) *SearchService {
	s := &SearchService{
		engine: eng,
		logger: logger,
		limits: DefaultLimits(),
		quotes: quote.Discard{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.breaker == nil {
		s.breaker = newEngineBreaker(httpclient.DefaultCircuitBreakerConfig("search-engine"), logger)
	}
	return s
}

// Limits returns the effective request bounds.
func (s *SearchService) Limits() Limits { return s.limits }

// Search runs a material search. A blank query is rejected with EmptyQuery
// and a failing backend surfaces as SearchUnavailable. An empty result set is
// not an error; the response then carries "did you mean" suggestions.
func (s *SearchService) Search(ctx context.Context, query *domain.SearchQuery) (*domain.SearchResponse, error) {
	if query == nil || strings.TrimSpace(query.Text) == "" {
		return nil, apperrors.EmptyQuery()
	}
	q := *query
	q.Limit = domain.ClampLimit(q.Limit, s.limits.DefaultSearchLimit, s.limits.MaxSearchLimit)

	start := time.Now()
	defer func() { searchDuration.WithLabelValues("search").Observe(time.Since(start).Seconds()) }()

	version, cacheable := s.cacheVersion(ctx)
	if cacheable {
		if resp, ok, err := s.cache.GetSearch(ctx, version, &q); err != nil {
			s.logCacheError(ctx, "search", err)
		} else if ok {
			cacheLookups.WithLabelValues("search", "hit").Inc()
			return resp, nil
		}
		cacheLookups.WithLabelValues("search", "miss").Inc()
	}

	resp, err := guarded(ctx, s.breaker, func() (*domain.SearchResponse, error) {
		return s.engine.Search(ctx, &q)
	})
	if err != nil {
		s.observeFailure(ctx, "search failed", q.Text, err)
		return nil, err
	}

	outcome := outcomeOK
	if resp.Total == 0 {
		outcome = outcomeNoResults
		s.recordMiss(ctx, &q, resp.Suggestions)
	}
	searchesTotal.WithLabelValues(resp.SearchMethod, outcome).Inc()

	if cacheable {
		if err := s.cache.SetSearch(ctx, version, &q, resp); err != nil {
			s.logCacheError(ctx, "search", err)
		}
	}

	logger.WithContext(ctx, s.logger).DebugContext(ctx, "search executed",
		slog.String("query", q.Text),
		slog.String("method", resp.SearchMethod),
		slog.Int("total", resp.Total),
		slog.Int64("took_ms", resp.TookMs),
	)

	return resp, nil
}

// SuggestOptions are the per-request autocomplete parameters. Zero values
// fall back to the service limits.
type SuggestOptions struct {
	MinChars       int
	MaxSuggestions int
}

// Suggest returns autocomplete suggestions for partial. Input shorter than
// the minimum length yields an empty list without touching the backend.
// Autocomplete is advisory: backend failures are logged and also yield an
// empty list.
func (s *SearchService) Suggest(ctx context.Context, partial string, opts SuggestOptions) []domain.AutocompleteSuggestion {
	minChars := opts.MinChars
	if minChars <= 0 {
		minChars = s.limits.MinChars
	}
	limit := domain.ClampLimit(opts.MaxSuggestions, s.limits.MaxSuggestions, domain.MaxAutocompleteLimit)

	trimmed := strings.TrimSpace(partial)
	if trimmed == "" || utf8.RuneCountInString(trimmed) < minChars {
		autocompleteTotal.WithLabelValues(outcomeBelowMin).Inc()
		return []domain.AutocompleteSuggestion{}
	}

	start := time.Now()
	defer func() { searchDuration.WithLabelValues("suggest").Observe(time.Since(start).Seconds()) }()

	version, cacheable := s.cacheVersion(ctx)
	if cacheable {
		if out, ok, err := s.cache.GetSuggest(ctx, version, trimmed, limit); err != nil {
			s.logCacheError(ctx, "suggest", err)
		} else if ok {
			cacheLookups.WithLabelValues("suggest", "hit").Inc()
			autocompleteTotal.WithLabelValues(outcomeOK).Inc()
			return out
		}
		cacheLookups.WithLabelValues("suggest", "miss").Inc()
	}

	out, err := guarded(ctx, s.breaker, func() ([]domain.AutocompleteSuggestion, error) {
		return s.engine.Suggest(ctx, trimmed, limit)
	})
	if err != nil {
		autocompleteTotal.WithLabelValues(outcomeError).Inc()
		logger.WithContext(ctx, s.logger).WarnContext(ctx, "autocomplete failed, returning no suggestions",
			slog.String("partial", trimmed),
			slog.String("error", err.Error()),
		)
		return []domain.AutocompleteSuggestion{}
	}
	if out == nil {
		out = []domain.AutocompleteSuggestion{}
	}
	autocompleteTotal.WithLabelValues(outcomeOK).Inc()

	if cacheable {
		if err := s.cache.SetSuggest(ctx, version, trimmed, limit, out); err != nil {
			s.logCacheError(ctx, "suggest", err)
		}
	}
	return out
}

// DidYouMean returns up to five material names resembling query. It never
// runs a search.
func (s *SearchService) DidYouMean(ctx context.Context, query string) ([]string, error) {
	if strings.TrimSpace(query) == "" {
		return nil, apperrors.EmptyQuery()
	}
	out, err := guarded(ctx, s.breaker, func() ([]string, error) {
		return s.engine.Alternatives(ctx, query, domain.MaxDidYouMean)
	})
	if err != nil {
		s.observeFailure(ctx, "did-you-mean failed", query, err)
		return nil, err
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}

// Highlight splits text into matched and unmatched spans for query.
func (s *SearchService) Highlight(text, query string) []domain.Span {
	return highlight.Highlight(text, query)
}

// TopMisses returns the most frequent zero-result queries since the given time.
func (s *SearchService) TopMisses(ctx context.Context, since time.Time, limit int) ([]domain.MissCount, error) {
	if s.misses == nil {
		return []domain.MissCount{}, nil
	}
	return s.misses.TopMisses(ctx, since, domain.ClampLimit(limit, 20, 100))
}

func (s *SearchService) cacheVersion(ctx context.Context) (int64, bool) {
	if s.cache == nil {
		return 0, false
	}
	v, err := s.cache.Version(ctx)
	if err != nil {
		s.logCacheError(ctx, "version", err)
		return 0, false
	}
	return v, true
}

func (s *SearchService) logCacheError(ctx context.Context, op string, err error) {
	cacheLookups.WithLabelValues(op, "error").Inc()
	logger.WithContext(ctx, s.logger).WarnContext(ctx, "response cache unavailable",
		slog.String("operation", op),
		slog.String("error", err.Error()),
	)
}

func (s *SearchService) observeFailure(ctx context.Context, msg, query string, err error) {
	if ctx.Err() == nil && apperrors.HTTPStatus(err) >= 500 {
		searchesTotal.WithLabelValues("", outcomeUnavailable).Inc()
		logger.WithContext(ctx, s.logger).ErrorContext(ctx, msg,
			slog.String("query", query),
			slog.String("breaker_state", s.breaker.State().String()),
			slog.String("error", err.Error()),
		)
	}
}

func (s *SearchService) recordMiss(ctx context.Context, q *domain.SearchQuery, suggestions []string) {
	if s.misses == nil {
		return
	}
	miss := &domain.SearchMiss{
		Query:       q.Text,
		Normalized:  textmatch.Normalize(q.Text),
		Category:    q.CategoryFilter,
		Supplier:    q.SupplierFilter,
		Suggestions: suggestions,
	}
	if err := s.misses.Record(ctx, miss); err != nil {
		logger.WithContext(ctx, s.logger).WarnContext(ctx, "failed to record search miss",
			slog.String("query", q.Text),
			slog.String("error", err.Error()),
		)
	}
}
