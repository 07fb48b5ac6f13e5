package domain

import "fmt"

// Search methods reported on a SearchResponse.
const (
	MethodExact        = "exact"
	MethodFuzzyTrigram = "fuzzy_trigram"
)

// Result size bounds.
const (
	DefaultSearchLimit = 50
	MaxSearchLimit     = 100
	MaxDidYouMean      = 5

	DefaultAutocompleteMinChars = 2
	DefaultAutocompleteLimit    = 8
	MaxAutocompleteLimit        = 20
)

// MatchTier orders how a result matched the query. Lower values rank first
// when similarities tie.
type MatchTier int

const (
	TierExact MatchTier = iota
	TierPrefix
	TierSubstring
	TierField
	TierFuzzy
)

var tierNames = [...]string{"exact", "prefix", "substring", "field", "fuzzy"}

func (t MatchTier) String() string {
	if t < 0 || int(t) >= len(tierNames) {
		return "unknown"
	}
	return tierNames[t]
}

// MarshalText renders the tier by name in JSON.
func (t MatchTier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText parses a tier name.
func (t *MatchTier) UnmarshalText(b []byte) error {
	for i, name := range tierNames {
		if name == string(b) {
			*t = MatchTier(i)
			return nil
		}
	}
	return fmt.Errorf("unknown match tier %q", b)
}

// SearchQuery holds the parameters of a single search request.
type SearchQuery struct {
	Text           string  `json:"query"`
	CategoryFilter *string `json:"category,omitempty"`
	SupplierFilter *string `json:"supplier,omitempty"`
	Limit          int     `json:"limit"`
}

// Accepts reports whether m passes the query's exact-match filters.
func (q *SearchQuery) Accepts(m *Material) bool {
	if q.CategoryFilter != nil && *q.CategoryFilter != "" && m.Category != *q.CategoryFilter {
		return false
	}
	if q.SupplierFilter != nil && *q.SupplierFilter != "" && m.Supplier != *q.SupplierFilter {
		return false
	}
	return true
}

// EffectiveLimit returns Limit bounded to (0, MaxSearchLimit], defaulting to
// DefaultSearchLimit.
func (q *SearchQuery) EffectiveLimit() int {
	return ClampLimit(q.Limit, DefaultSearchLimit, MaxSearchLimit)
}

// ClampLimit returns def for non-positive n and caps n at ceiling.
func ClampLimit(n, def, ceiling int) int {
	if n <= 0 {
		return def
	}
	if n > ceiling {
		return ceiling
	}
	return n
}

// SearchResult is a material annotated with how well it matched.
type SearchResult struct {
	Material
	Similarity   float64   `json:"similarity"`
	IsFuzzyMatch bool      `json:"is_fuzzy_match"`
	Tier         MatchTier `json:"match_tier"`
	Highlights   []string  `json:"highlights"`
}

// SearchResponse is the full answer to a search request.
type SearchResponse struct {
	Materials    []SearchResult `json:"materials"`
	SearchMethod string         `json:"search_method"`
	Suggestions  []string       `json:"suggestions,omitempty"`
	Total        int            `json:"total"`
	TookMs       int64          `json:"took_ms"`
}

// AutocompleteSuggestion is one candidate completion for a partial query.
type AutocompleteSuggestion struct {
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Score    float64 `json:"score"`
}

// Span is a piece of display text, flagged when it matched the query.
type Span struct {
	Text    string `json:"text"`
	Matched bool   `json:"matched"`
}
