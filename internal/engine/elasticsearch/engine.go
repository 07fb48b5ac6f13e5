package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/Gangoo91/Elec-Mate-Merge-sub265/internal/domain"
	"github.com/Gangoo91/Elec-Mate-Merge-sub265/internal/engine"
	"github.com/Gangoo91/Elec-Mate-Merge-sub265/internal/textmatch"
	apperrors "github.com/Gangoo91/Elec-Mate-Merge-sub265/pkg/errors"
)

const (
	defaultFuzzyFloor   = 0.3
	defaultSuggestFloor = 0.15

	// candidateFactor widens the fetched window so client-side re-ranking
	// has enough candidates to fill the limit.
	candidateFactor = 3
	maxCandidates   = 300

	ensureIndexTimeout = 30 * time.Second
)

// Engine is an Elasticsearch-backed implementation of the SearchEngine
// interface. Elasticsearch retrieves and filters candidates; tiers and
// similarities are assigned client-side with the same rules as the
// in-memory engine so both backends rank identically.
type Engine struct {
	client       *elasticsearch.Client
	indexName    string
	logger       *slog.Logger
	fuzzyFloor   float64
	suggestFloor float64
}

var _ engine.SearchEngine = (*Engine)(nil)

// Option configures an Engine.
type Option func(*Engine)

// WithFuzzyFloor sets the minimum score a fuzzy match must reach.
func WithFuzzyFloor(f float64) Option {
	return func(e *Engine) { e.fuzzyFloor = f }
}

// WithSuggestFloor sets the minimum score a "did you mean" name must reach.
func WithSuggestFloor(f float64) Option {
	return func(e *Engine) { e.suggestFloor = f }
}

// New creates a new Elasticsearch engine connected to the given URL.
// It ensures the materials index exists, creating it if necessary.
// If indexName is empty, DefaultIndexName is used. The client does not
// retry; callers decide whether a failed search is resubmitted.
func New(esURL string, indexName string, logger *slog.Logger, opts ...Option) (*Engine, error) {
	if indexName == "" {
		indexName = DefaultIndexName
	}

	cfg := elasticsearch.Config{
		Addresses:    []string{esURL},
		DisableRetry: true,
	}

	client, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch: failed to create client: %w", err)
	}

	e := &Engine{
		client:       client,
		indexName:    indexName,
		logger:       logger,
		fuzzyFloor:   defaultFuzzyFloor,
		suggestFloor: defaultSuggestFloor,
	}
	for _, opt := range opts {
		opt(e)
	}

	ctx, cancel := context.WithTimeout(context.Background(), ensureIndexTimeout)
	defer cancel()
	if err := e.ensureIndex(ctx); err != nil {
		return nil, fmt.Errorf("elasticsearch: ensure index %s: %w", e.indexName, err)
	}

	return e, nil
}

// Ping checks whether the cluster answers.
func (e *Engine) Ping(ctx context.Context) error {
	_, err := e.do(ctx, "ping", esapi.PingRequest{}, nil)
	return err
}

// ensureIndex creates the materials index unless it already exists.
func (e *Engine) ensureIndex(ctx context.Context) error {
	status, err := e.do(ctx, "index exists", esapi.IndicesExistsRequest{Index: []string{e.indexName}}, nil, http.StatusNotFound)
	if err != nil {
		return err
	}
	if status == http.StatusOK {
		e.logger.Info("elasticsearch index already exists", "index", e.indexName)
		return nil
	}

	req := esapi.IndicesCreateRequest{Index: e.indexName, Body: bytes.NewReader(buildIndexMapping())}
	if _, err := e.do(ctx, "create index", req, nil); err != nil {
		return err
	}
	e.logger.Info("elasticsearch index created", "index", e.indexName)
	return nil
}

func docID(id int64) string { return strconv.FormatInt(id, 10) }

// Index adds or replaces one material and refreshes, so it is searchable
// on return.
func (e *Engine) Index(ctx context.Context, material *domain.Material) error {
	if material == nil {
		return errors.New("elasticsearch index: material is nil")
	}
	m := *material
	m.Normalize()
	if m.Name == "" {
		return errors.New("elasticsearch index: material name is required")
	}

	body, err := jsonBody(m)
	if err != nil {
		return fmt.Errorf("elasticsearch index: encode material %d: %w", m.ID, err)
	}
	req := esapi.IndexRequest{Index: e.indexName, DocumentID: docID(m.ID), Body: body, Refresh: "true"}
	if _, err := e.do(ctx, "index", req, nil); err != nil {
		return err
	}
	e.logger.DebugContext(ctx, "indexed material", "id", m.ID, "name", m.Name)
	return nil
}

// Delete removes a material. Deleting an absent ID is not an error.
func (e *Engine) Delete(ctx context.Context, id int64) error {
	req := esapi.DeleteRequest{Index: e.indexName, DocumentID: docID(id), Refresh: "true"}
	if _, err := e.do(ctx, "delete", req, nil, http.StatusNotFound); err != nil {
		return err
	}
	e.logger.DebugContext(ctx, "deleted material", "id", id)
	return nil
}

// Get returns the indexed material with the given ID.
func (e *Engine) Get(ctx context.Context, id int64) (*domain.Material, error) {
	var doc esHit
	status, err := e.do(ctx, "get", esapi.GetRequest{Index: e.indexName, DocumentID: docID(id)}, &doc, http.StatusNotFound)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, engine.ErrNotFound
	}
	return &doc.Source, nil
}

// Count returns the number of indexed materials.
func (e *Engine) Count(ctx context.Context) (int, error) {
	var resp struct {
		Count int `json:"count"`
	}
	if _, err := e.do(ctx, "count", esapi.CountRequest{Index: []string{e.indexName}}, &resp); err != nil {
		return 0, err
	}
	return resp.Count, nil
}

// Search executes a search query against Elasticsearch, then re-ranks the
// candidates into exact-tier and fuzzy-tier results.
func (e *Engine) Search(ctx context.Context, query *domain.SearchQuery) (*domain.SearchResponse, error) {
	start := time.Now()

	if query == nil {
		return nil, apperrors.EmptyQuery()
	}
	q := textmatch.Prepare(query.Text)
	if q.Text == "" {
		return nil, apperrors.EmptyQuery()
	}
	limit := query.EffectiveLimit()

	hits, err := e.search(ctx, "search", buildSearchQuery(query, q.Text, min(limit*candidateFactor, maxCandidates)))
	if err != nil {
		return nil, err
	}

	results := make([]domain.SearchResult, 0, len(hits))
	exact := 0
	var fuzzy []domain.SearchResult
	for i := range hits {
		m := hits[i].Source
		if !query.Accepts(&m) {
			continue
		}
		name := textmatch.Prepare(m.Name)
		if score, tier, ok := engine.ExactScore(name.Text, textmatch.Normalize(m.Brand), textmatch.Normalize(m.Description), q.Text); ok {
			results = append(results, engine.NewResult(m, score, tier, query.Text))
			exact++
			continue
		}
		if score, ok := engine.FuzzyScore(q, name, e.fuzzyFloor); ok {
			fuzzy = append(fuzzy, engine.NewResult(m, score, domain.TierFuzzy, query.Text))
		}
	}
	if exact < limit {
		results = append(results, fuzzy...)
	}

	resp := engine.Respond(results, limit)
	if resp.Total == 0 {
		suggestions, err := e.alternatives(ctx, q, domain.MaxDidYouMean)
		if err != nil {
			return nil, err
		}
		resp.Suggestions = suggestions
	}
	resp.TookMs = time.Since(start).Milliseconds()
	return resp, nil
}

// DeleteIndex drops the whole index. An absent index is not an error.
func (e *Engine) DeleteIndex(ctx context.Context) error {
	if _, err := e.do(ctx, "delete index", esapi.IndicesDeleteRequest{Index: []string{e.indexName}}, nil, http.StatusNotFound); err != nil {
		return err
	}
	e.logger.InfoContext(ctx, "elasticsearch index deleted", "index", e.indexName)
	return nil
}

type bulkItem struct {
	ID     string `json:"_id"`
	Status int    `json:"status"`
	Error  *struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error"`
}

// BulkIndex adds or replaces materials in one NDJSON bulk request. Any
// rejected document fails the call with every rejection listed.
func (e *Engine) BulkIndex(ctx context.Context, materials []domain.Material) error {
	if len(materials) == 0 {
		return nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for i := range materials {
		m := materials[i]
		m.Normalize()
		if m.Name == "" {
			return fmt.Errorf("elasticsearch bulk index: material %d has no name", m.ID)
		}
		if err := enc.Encode(object{"index": object{"_id": docID(m.ID)}}); err != nil {
			return fmt.Errorf("elasticsearch bulk index: encode action: %w", err)
		}
		if err := enc.Encode(m); err != nil {
			return fmt.Errorf("elasticsearch bulk index: encode material %d: %w", m.ID, err)
		}
	}

	var resp struct {
		Errors bool                  `json:"errors"`
		Items  []map[string]bulkItem `json:"items"`
	}
	req := esapi.BulkRequest{Index: e.indexName, Body: &buf, Refresh: "true"}
	if _, err := e.do(ctx, "bulk index", req, &resp); err != nil {
		return err
	}
	if resp.Errors {
		var rejected []string
		for _, item := range resp.Items {
			for _, r := range item {
				if r.Error != nil {
					rejected = append(rejected, fmt.Sprintf("id=%s: %s: %s", r.ID, r.Error.Type, r.Error.Reason))
				}
			}
		}
		return fmt.Errorf("elasticsearch bulk index: %d rejected: %s", len(rejected), strings.Join(rejected, "; "))
	}

	e.logger.InfoContext(ctx, "bulk indexed materials", "count", len(materials))
	return nil
}

// Replace bulk indexes materials, then deletes every document whose ID is not
// among them. Searches running in between may see both old and new documents.
func (e *Engine) Replace(ctx context.Context, materials []domain.Material) error {
	if err := e.BulkIndex(ctx, materials); err != nil {
		return err
	}

	ids := make([]string, len(materials))
	for i := range materials {
		ids[i] = docID(materials[i].ID)
	}
	body, err := jsonBody(replaceQuery(ids))
	if err != nil {
		return fmt.Errorf("elasticsearch replace: encode query: %w", err)
	}

	refresh := true
	req := esapi.DeleteByQueryRequest{Index: []string{e.indexName}, Body: body, Refresh: &refresh, Conflicts: "proceed"}
	var resp struct {
		Deleted int `json:"deleted"`
	}
	if _, err := e.do(ctx, "replace", req, &resp); err != nil {
		return err
	}
	e.logger.InfoContext(ctx, "index replaced", "indexed", len(materials), "removed", resp.Deleted)
	return nil
}
