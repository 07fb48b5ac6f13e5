package elasticsearch

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Gangoo91/Elec-Mate-Merge-sub265/internal/domain"
)

func TestBuildFilters(t *testing.T) {
	category := "Cables"
	empty := ""

	assert.Empty(t, buildFilters(&domain.SearchQuery{}))
	assert.Empty(t, buildFilters(&domain.SearchQuery{CategoryFilter: &empty}))

	filters := buildFilters(&domain.SearchQuery{CategoryFilter: &category})
	require.Len(t, filters, 1)
	term := filters[0].(map[string]interface{})["term"].(map[string]interface{})
	assert.Equal(t, "Cables", term["category"])
}

func TestBuildSearchQuery_IncludesFuzzyClauseAndFilters(t *testing.T) {
	supplier := "CEF"
	body := buildSearchQuery(&domain.SearchQuery{SupplierFilter: &supplier}, "sockt", 150)

	data, err := json.Marshal(body)
	require.NoError(t, err)
	s := string(data)

	assert.Contains(t, s, `"fuzziness":"AUTO"`)
	assert.Contains(t, s, `"supplier":"CEF"`)
	assert.Contains(t, s, `"size":150`)
	assert.Contains(t, s, `"minimum_should_match":1`)
}

func TestBuildIndexMapping(t *testing.T) {
	var def struct {
		Settings struct {
			Analysis struct {
				Analyzer map[string]struct {
					CharFilter []string `json:"char_filter"`
					Filter     []string `json:"filter"`
				} `json:"analyzer"`
			} `json:"analysis"`
		} `json:"settings"`
		Mappings struct {
			Dynamic    string                    `json:"dynamic"`
			Properties map[string]map[string]any `json:"properties"`
		} `json:"mappings"`
	}
	require.NoError(t, json.Unmarshal(buildIndexMapping(), &def))

	assert.Equal(t, "strict", def.Mappings.Dynamic)
	for _, field := range []string{"id", "name", "category", "supplier", "price", "stock_status", "brand", "description", "product_url"} {
		assert.Contains(t, def.Mappings.Properties, field)
	}
	assert.Equal(t, false, def.Mappings.Properties["price"]["index"])
	assert.Equal(t, "material_search", def.Mappings.Properties["name"]["search_analyzer"])

	analyzers := def.Settings.Analysis.Analyzer
	assert.Equal(t, []string{"lowercase", "asciifolding", "trade_synonyms"}, analyzers["material_search"].Filter)
	assert.Equal(t, []string{"lowercase", "asciifolding"}, analyzers["material"].Filter, "synonyms apply at search time only")
	assert.Equal(t, []string{"size_units"}, analyzers["prefix"].CharFilter)
}
