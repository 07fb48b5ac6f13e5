package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Gangoo91/Elec-Mate-Merge-sub265/internal/domain"
	"github.com/Gangoo91/Elec-Mate-Merge-sub265/internal/textmatch"
)

func TestExactScore_Tiers(t *testing.T) {
	tests := []struct {
		name, brand, desc, query string
		tier                     domain.MatchTier
		min, max                 float64
	}{
		{"socket tester", "", "", "socket tester", domain.TierExact, 1, 1},
		{"socket tester", "", "", "socket", domain.TierPrefix, 0.85, 0.99},
		{"13a socket outlet", "", "", "socket", domain.TierSubstring, 0.70, 0.84},
		{"mcb 32a type b", "hager", "", "hager", domain.TierField, 0.65, 0.65},
		{"mcb 32a type b", "", "miniature circuit breaker", "breaker", domain.TierField, 0.55, 0.55},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			score, tier, ok := ExactScore(tt.name, tt.brand, tt.desc, tt.query)
			require.True(t, ok)
			assert.Equal(t, tt.tier, tier)
			assert.GreaterOrEqual(t, score, tt.min)
			assert.LessOrEqual(t, score, tt.max)
		})
	}

	_, _, ok := ExactScore("led downlight", "", "", "socket")
	assert.False(t, ok)
}

func TestExactScore_TighterMatchScoresHigher(t *testing.T) {
	short, _, _ := ExactScore("13a socket", "", "", "socket")
	long, _, _ := ExactScore("13a switched socket double", "", "", "socket")
	assert.Greater(t, short, long)
}

func TestFuzzyScore_CappedBelowExactBand(t *testing.T) {
	score, ok := FuzzyScore(textmatch.Prepare("sockt outlet"), textmatch.Prepare("Socket Outlet"), 0.3)
	require.True(t, ok)
	assert.LessOrEqual(t, score, FuzzyCeiling)
	assert.GreaterOrEqual(t, score, 0.3)

	perfect, ok := FuzzyScore(textmatch.Prepare("outlet socket"), textmatch.Prepare("Socket Outlet"), 0.3)
	require.True(t, ok)
	assert.Equal(t, FuzzyCeiling, perfect)

	_, ok = FuzzyScore(textmatch.Prepare("zzqqxx123"), textmatch.Prepare("Socket Outlet"), 0.3)
	assert.False(t, ok)
}

func TestFuzzyScore_StrongMatchesStayOrdered(t *testing.T) {
	q := textmatch.Prepare("scoket")
	tight, ok := FuzzyScore(q, textmatch.Prepare("Socket"), 0.3)
	require.True(t, ok)
	looser, ok := FuzzyScore(q, textmatch.Prepare("Socket Outlet Switched"), 0.3)
	require.True(t, ok)

	assert.Greater(t, tight, looser)
	assert.Less(t, tight, FuzzyCeiling)
}

func TestFuzzyScore_HighFloorClamps(t *testing.T) {
	score, ok := FuzzyScore(textmatch.Prepare("outlet socket"), textmatch.Prepare("Socket Outlet"), 0.8)
	require.True(t, ok)
	assert.Equal(t, FuzzyCeiling, score)
}

func TestCompletionScore(t *testing.T) {
	name, ok := CompletionScore("socket tester", "soc")
	require.True(t, ok)
	word, ok := CompletionScore("13a socket outlet", "soc")
	require.True(t, ok)
	mid, ok := CompletionScore("1 gang light switch", "witch")
	require.True(t, ok)

	assert.Greater(t, name, word)
	assert.Greater(t, word, mid)
	assert.GreaterOrEqual(t, mid, 0.5)

	_, ok = CompletionScore("socket tester", "")
	assert.False(t, ok)
	_, ok = CompletionScore("socket tester", "cable")
	assert.False(t, ok)
}

func TestNewResult_Highlights(t *testing.T) {
	m := domain.Material{ID: 1, Name: "13A Socket Outlet"}

	exact := NewResult(m, 0.75, domain.TierSubstring, "socket")
	assert.False(t, exact.IsFuzzyMatch)
	assert.Equal(t, []string{"Socket"}, exact.Highlights)

	fuzzy := NewResult(m, 0.6, domain.TierFuzzy, "sockt")
	assert.True(t, fuzzy.IsFuzzyMatch)
	assert.Equal(t, []string{"Socket"}, fuzzy.Highlights)

	field := NewResult(m, 0.65, domain.TierField, "hager")
	assert.NotNil(t, field.Highlights)
	assert.Empty(t, field.Highlights)
}

func TestRespond_SortsTruncatesAndSetsMethod(t *testing.T) {
	results := []domain.SearchResult{
		{Material: domain.Material{ID: 3, Name: "Socket Long Name"}, Similarity: 0.6, IsFuzzyMatch: true, Tier: domain.TierFuzzy},
		{Material: domain.Material{ID: 2, Name: "Socket B"}, Similarity: 0.75, Tier: domain.TierSubstring},
		{Material: domain.Material{ID: 1, Name: "Socket"}, Similarity: 0.75, Tier: domain.TierSubstring},
	}

	resp := Respond(results, 2)
	require.Len(t, resp.Materials, 2)
	assert.Equal(t, 2, resp.Total)
	assert.Equal(t, int64(1), resp.Materials[0].ID)
	assert.Equal(t, int64(2), resp.Materials[1].ID)
	assert.Equal(t, domain.MethodExact, resp.SearchMethod)

	resp = Respond(results, 10)
	assert.Equal(t, domain.MethodFuzzyTrigram, resp.SearchMethod)

	resp = Respond(nil, 10)
	assert.NotNil(t, resp.Materials)
	assert.Equal(t, domain.MethodExact, resp.SearchMethod)
}

func TestSortResults_NonFuzzyWinsTies(t *testing.T) {
	results := []domain.SearchResult{
		{Material: domain.Material{ID: 1, Name: "A"}, Similarity: 0.65, IsFuzzyMatch: true, Tier: domain.TierFuzzy},
		{Material: domain.Material{ID: 2, Name: "Longer Name"}, Similarity: 0.65, Tier: domain.TierField},
	}
	SortResults(results)
	assert.False(t, results[0].IsFuzzyMatch)
}

func TestTopNames_DeduplicatesIgnoringCase(t *testing.T) {
	ranked := []Ranked{
		{ID: 2, Name: "led downlight", Score: 0.9},
		{ID: 1, Name: "LED Downlight", Score: 0.9},
		{ID: 3, Name: "Socket", Score: 0.5},
		{ID: 4, Name: "Cable", Score: 0.7},
	}

	top := TopNames(ranked, 2)
	require.Len(t, top, 2)
	assert.Equal(t, int64(1), top[0].ID)
	assert.Equal(t, "Cable", top[1].Name)

	assert.Empty(t, TopNames(ranked, 0))
}
