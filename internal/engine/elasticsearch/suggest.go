package elasticsearch

import (
	"context"

	"github.com/Gangoo91/Elec-Mate-Merge-sub265/internal/domain"
	"github.com/Gangoo91/Elec-Mate-Merge-sub265/internal/engine"
	"github.com/Gangoo91/Elec-Mate-Merge-sub265/internal/textmatch"
)

// alternativesWindow is how many fuzzy name matches are fetched before
// loose re-ranking for "did you mean".
const alternativesWindow = 50

// Suggest returns autocomplete suggestions for the given partial query.
// It queries the name.autocomplete field and re-scores the hits so word
// starts and whole-name completions rank like the in-memory engine.
func (e *Engine) Suggest(ctx context.Context, partial string, limit int) ([]domain.AutocompleteSuggestion, error) {
	p := textmatch.Normalize(partial)
	if p == "" {
		return []domain.AutocompleteSuggestion{}, nil
	}
	limit = domain.ClampLimit(limit, domain.DefaultAutocompleteLimit, domain.MaxAutocompleteLimit)

	hits, err := e.search(ctx, "suggest", suggestQuery(p, min(limit*candidateFactor, maxCandidates)))
	if err != nil {
		return nil, err
	}

	ranked := make([]engine.Ranked, 0, len(hits))
	for _, hit := range hits {
		score, ok := engine.CompletionScore(textmatch.Normalize(hit.Source.Name), p)
		if !ok {
			continue
		}
		ranked = append(ranked, engine.Ranked{
			ID:       hit.Source.ID,
			Name:     hit.Source.Name,
			Category: hit.Source.Category,
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

// Alternatives returns up to n names loosely resembling query. Filters are
// not applied and the query itself is never suggested.
func (e *Engine) Alternatives(ctx context.Context, query string, n int) ([]string, error) {
	q := textmatch.Prepare(query)
	if q.Text == "" {
		return []string{}, nil
	}
	return e.alternatives(ctx, q, n)
}

func (e *Engine) alternatives(ctx context.Context, q textmatch.Prepared, n int) ([]string, error) {
	n = domain.ClampLimit(n, domain.MaxDidYouMean, domain.MaxDidYouMean)

	hits, err := e.search(ctx, "alternatives", alternativesQuery(q.Text, alternativesWindow))
	if err != nil {
		return nil, err
	}

	ranked := make([]engine.Ranked, 0, len(hits))
	for _, hit := range hits {
		name := textmatch.Prepare(hit.Source.Name)
		if name.Text == q.Text {
			continue
		}
		score := textmatch.LooseSimilarity(q, name)
		if score < e.suggestFloor {
			continue
		}
		ranked = append(ranked, engine.Ranked{ID: hit.Source.ID, Name: hit.Source.Name, Score: engine.Round(score)})
	}

	top := engine.TopNames(ranked, n)
	out := make([]string, 0, len(top))
	for _, r := range top {
		out = append(out, r.Name)
	}
	return out, nil
}
