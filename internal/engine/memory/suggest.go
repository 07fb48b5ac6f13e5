package memory

import (
	"context"
	"strings"

	"github.com/tchap/go-patricia/v2/patricia"

	"github.com/Gangoo91/Elec-Mate-Merge-sub265/internal/domain"
	"github.com/Gangoo91/Elec-Mate-Merge-sub265/internal/engine"
	"github.com/Gangoo91/Elec-Mate-Merge-sub265/internal/textmatch"
)

// Suggest returns up to limit completions for partial, one per distinct
// name ignoring case. Word-start completions come from the prefix trie;
// mid-word substrings are scanned only when the trie comes up short.
func (e *Engine) Suggest(ctx context.Context, partial string, limit int) ([]domain.AutocompleteSuggestion, error) {
	p := textmatch.Normalize(partial)
	if p == "" {
		return []domain.AutocompleteSuggestion{}, nil
	}
	limit = domain.ClampLimit(limit, domain.DefaultAutocompleteLimit, domain.MaxAutocompleteLimit)

	e.mu.RLock()
	defer e.mu.RUnlock()

	hits := make(map[int64]struct{})
	err := e.prefixes.VisitSubtree(patricia.Prefix(p), func(_ patricia.Prefix, item patricia.Item) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		for id := range item.(idSet) {
			hits[id] = struct{}{}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(hits) < limit {
		n := 0
		for id, doc := range e.docs {
			n++
			if n%ctxCheckEvery == 0 {
				if err := ctx.Err(); err != nil {
					return nil, err
				}
			}
			if strings.Contains(doc.name.Text, p) {
				hits[id] = struct{}{}
			}
		}
	}

	ranked := make([]engine.Ranked, 0, len(hits))
	for id := range hits {
		doc := e.docs[id]
		score, ok := engine.CompletionScore(doc.name.Text, p)
		if !ok {
			continue
		}
		ranked = append(ranked, engine.Ranked{
			ID:       id,
			Name:     doc.material.Name,
			Category: doc.material.Category,
			Score:    score,
		})
	}

	top := engine.TopNames(ranked, limit)
	out := make([]domain.AutocompleteSuggestion, 0, len(top))
	for _, r := range top {
		out = append(out, domain.AutocompleteSuggestion{Name: r.Name, Category: r.Category, Score: r.Score})
	}
	return out, nil
}

// Alternatives returns up to n names loosely resembling query, for use when
// a search found nothing. Filters are not applied and the query itself is
// never suggested.
func (e *Engine) Alternatives(ctx context.Context, query string, n int) ([]string, error) {
	q := textmatch.Prepare(query)
	if q.Text == "" {
		return []string{}, nil
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.alternatives(ctx, q, n)
}

// alternatives must be called with the read lock held.
func (e *Engine) alternatives(ctx context.Context, q textmatch.Prepared, n int) ([]string, error) {
	n = domain.ClampLimit(n, domain.MaxDidYouMean, domain.MaxDidYouMean)

	ranked := make([]engine.Ranked, 0)
	i := 0
	for id, doc := range e.docs {
		i++
		if i%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if doc.name.Text == q.Text {
			continue
		}
		score := textmatch.LooseSimilarity(q, doc.name)
		if score < e.suggestFloor {
			continue
		}
		ranked = append(ranked, engine.Ranked{ID: id, Name: doc.material.Name, Score: engine.Round(score)})
	}

	top := engine.TopNames(ranked, n)
	out := make([]string, 0, len(top))
	for _, r := range top {
		out = append(out, r.Name)
	}
	return out, nil
}
