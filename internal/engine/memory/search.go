package memory

import (
	"context"
	"time"

	"github.com/Gangoo91/Elec-Mate-Merge-sub265/internal/domain"
	"github.com/Gangoo91/Elec-Mate-Merge-sub265/internal/engine"
	"github.com/Gangoo91/Elec-Mate-Merge-sub265/internal/textmatch"
	apperrors "github.com/Gangoo91/Elec-Mate-Merge-sub265/pkg/errors"
)

// Search executes a search query against the in-memory index. Exact-tier
// matching runs first; typo-tolerant matching only runs while the result set
// is short of the limit.
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

	e.mu.RLock()
	defer e.mu.RUnlock()

	results, exactIDs, err := e.exactTier(ctx, query, q.Text)
	if err != nil {
		return nil, err
	}
	if len(results) < limit {
		fuzzy, err := e.fuzzyTier(ctx, query, q, exactIDs)
		if err != nil {
			return nil, err
		}
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

// exactTier scores every filtered document whose name, brand or description
// contains the normalized query.
func (e *Engine) exactTier(ctx context.Context, query *domain.SearchQuery, text string) ([]domain.SearchResult, map[int64]struct{}, error) {
	results := make([]domain.SearchResult, 0)
	hits := make(map[int64]struct{})

	n := 0
	for id, doc := range e.docs {
		n++
		if n%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, nil, err
			}
		}
		if !query.Accepts(&doc.material) {
			continue
		}
		score, tier, ok := engine.ExactScore(doc.name.Text, doc.brand, doc.desc, text)
		if !ok {
			continue
		}
		hits[id] = struct{}{}
		results = append(results, engine.NewResult(doc.material, score, tier, query.Text))
	}
	return results, hits, nil
}

// fuzzyTier scores filtered documents sharing at least one trigram with the
// query, skipping exact-tier hits.
func (e *Engine) fuzzyTier(ctx context.Context, query *domain.SearchQuery, q textmatch.Prepared, skip map[int64]struct{}) ([]domain.SearchResult, error) {
	candidates := make(map[int64]struct{})
	for _, g := range q.Trigrams {
		for id := range e.postings[g] {
			if _, done := skip[id]; !done {
				candidates[id] = struct{}{}
			}
		}
	}

	results := make([]domain.SearchResult, 0)
	n := 0
	for id := range candidates {
		n++
		if n%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		doc := e.docs[id]
		if !query.Accepts(&doc.material) {
			continue
		}
		score, ok := engine.FuzzyScore(q, doc.name, e.fuzzyFloor)
		if !ok {
			continue
		}
		results = append(results, engine.NewResult(doc.material, score, domain.TierFuzzy, query.Text))
	}
	return results, nil
}
