package engine

import (
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/Gangoo91/Elec-Mate-Merge-sub265/internal/domain"
	"github.com/Gangoo91/Elec-Mate-Merge-sub265/internal/highlight"
	"github.com/Gangoo91/Elec-Mate-Merge-sub265/internal/textmatch"
)

// Search scores. Name matches land in [0.70, 1.0]; fuzzy matches are capped
// below that band so they never outrank a name substring hit.
const (
	scoreExact         = 1.0
	scorePrefixBase    = 0.85
	scoreSubstringBase = 0.70
	scoreTightness     = 0.14
	scoreBrand         = 0.65
	scoreDescription   = 0.55
	FuzzyCeiling       = 0.69
)

// Autocomplete scores: a completion of the whole name beats one starting at
// a later word, which beats a mid-word substring.
const (
	completeName      = 0.9
	completeWord      = 0.7
	completeSubstring = 0.5
	completeTightness = 0.1
)

// ExactScore scores a normalized query against a material's normalized
// name, brand and description. ok is false when none contains the query.
func ExactScore(name, brand, desc, query string) (score float64, tier domain.MatchTier, ok bool) {
	tightness := scoreTightness * ratio(query, name)
	switch {
	case name == query:
		return scoreExact, domain.TierExact, true
	case strings.HasPrefix(name, query):
		return Round(scorePrefixBase + tightness), domain.TierPrefix, true
	case strings.Contains(name, query):
		return Round(scoreSubstringBase + tightness), domain.TierSubstring, true
	case brand != "" && strings.Contains(brand, query):
		return scoreBrand, domain.TierField, true
	case desc != "" && strings.Contains(desc, query):
		return scoreDescription, domain.TierField, true
	}
	return 0, 0, false
}

// FuzzyScore returns the typo-tolerant similarity of query to name, mapped
// linearly from [floor, 1] onto [floor, FuzzyCeiling] so stronger matches
// keep ranking above weaker ones. ok is false below floor.
func FuzzyScore(query, name textmatch.Prepared, floor float64) (float64, bool) {
	s := textmatch.Similarity(query, name)
	if s < floor || s == 0 {
		return 0, false
	}
	if floor >= FuzzyCeiling {
		return Round(math.Min(s, FuzzyCeiling)), true
	}
	return Round(floor + (s-floor)*(FuzzyCeiling-floor)/(1-floor)), true
}

// CompletionScore scores name as a completion of partial, both normalized.
func CompletionScore(name, partial string) (float64, bool) {
	if partial == "" {
		return 0, false
	}
	tightness := completeTightness * ratio(partial, name)
	switch {
	case strings.HasPrefix(name, partial):
		return Round(completeName + tightness), true
	case strings.Contains(name, " "+partial):
		return Round(completeWord + tightness), true
	case strings.Contains(name, partial):
		return Round(completeSubstring + tightness), true
	}
	return 0, false
}

// NewResult builds a result for m. Fuzzy results highlight the whole words
// holding the query's characters; the rest highlight literal occurrences.
func NewResult(m domain.Material, score float64, tier domain.MatchTier, query string) domain.SearchResult {
	r := domain.SearchResult{
		Material:     m,
		Similarity:   score,
		IsFuzzyMatch: tier == domain.TierFuzzy,
		Tier:         tier,
	}
	if r.IsFuzzyMatch {
		r.Highlights = highlight.FuzzySnippets(m.Name, query)
	} else {
		r.Highlights = highlight.Matched(m.Name, query)
	}
	if r.Highlights == nil {
		r.Highlights = []string{}
	}
	return r
}

// SortResults orders by similarity, then non-fuzzy first, then tier, then
// shorter name, then ID.
func SortResults(results []domain.SearchResult) {
	sort.Slice(results, func(i, j int) bool {
		a, b := &results[i], &results[j]
		if a.Similarity != b.Similarity {
			return a.Similarity > b.Similarity
		}
		if a.IsFuzzyMatch != b.IsFuzzyMatch {
			return !a.IsFuzzyMatch
		}
		if a.Tier != b.Tier {
			return a.Tier < b.Tier
		}
		if la, lb := utf8.RuneCountInString(a.Name), utf8.RuneCountInString(b.Name); la != lb {
			return la < lb
		}
		return a.ID < b.ID
	})
}

// Respond sorts and truncates results into a response and sets its method.
func Respond(results []domain.SearchResult, limit int) *domain.SearchResponse {
	if results == nil {
		results = []domain.SearchResult{}
	}
	SortResults(results)
	if len(results) > limit {
		results = results[:limit]
	}
	resp := &domain.SearchResponse{
		Materials:    results,
		SearchMethod: domain.MethodExact,
		Total:        len(results),
	}
	for i := range results {
		if results[i].IsFuzzyMatch {
			resp.SearchMethod = domain.MethodFuzzyTrigram
			break
		}
	}
	return resp
}

// Ranked is a scored material name awaiting de-duplication.
type Ranked struct {
	ID       int64
	Name     string
	Category string
	Score    float64
}

// TopNames sorts by score, then shorter name, then ID, keeps the first entry
// of each case-insensitive name and returns at most n entries.
func TopNames(ranked []Ranked, n int) []Ranked {
	if n <= 0 {
		return []Ranked{}
	}
	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if la, lb := utf8.RuneCountInString(a.Name), utf8.RuneCountInString(b.Name); la != lb {
			return la < lb
		}
		return a.ID < b.ID
	})
	seen := make(map[string]struct{}, len(ranked))
	out := make([]Ranked, 0, min(n, len(ranked)))
	for _, r := range ranked {
		if len(out) == n {
			break
		}
		key := strings.ToLower(r.Name)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, r)
	}
	return out
}

// Round trims a score to four decimal places so ties compare equal.
func Round(f float64) float64 {
	return math.Round(f*1e4) / 1e4
}

func ratio(query, name string) float64 {
	n := utf8.RuneCountInString(name)
	if n == 0 {
		return 0
	}
	return float64(utf8.RuneCountInString(query)) / float64(n)
}
