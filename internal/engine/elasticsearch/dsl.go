package elasticsearch

import "github.com/Gangoo91/Elec-Mate-Merge-sub265/internal/domain"

type list = []any

func byScore() list { return list{object{"_score": "desc"}} }

// buildSearchQuery retrieves candidates for one search. Any should clause
// qualifies a document; the fuzzy clause lets misspellings through for the
// client-side fuzzy tier.
func buildSearchQuery(query *domain.SearchQuery, text string, size int) object {
	should := list{
		object{"match_phrase": object{"name": object{"query": text, "boost": 4}}},
		object{"match": object{"name.autocomplete": object{"query": text, "operator": "and", "boost": 2}}},
		object{"match_phrase": object{"brand": text}},
		object{"match_phrase": object{"description": text}},
		object{"match": object{"name": object{"query": text, "fuzziness": "AUTO", "operator": "or"}}},
	}

	boolQuery := object{"should": should, "minimum_should_match": 1}
	if filters := buildFilters(query); len(filters) > 0 {
		boolQuery["filter"] = filters
	}
	return object{
		"query": object{"bool": boolQuery},
		"size":  size,
		"sort":  byScore(),
	}
}

// buildFilters turns the category and supplier filters into term clauses.
func buildFilters(query *domain.SearchQuery) list {
	var filters list
	for _, f := range []struct {
		field string
		value *string
	}{
		{"category", query.CategoryFilter},
		{"supplier", query.SupplierFilter},
	} {
		if f.value != nil && *f.value != "" {
			filters = append(filters, object{"term": object{f.field: *f.value}})
		}
	}
	return filters
}

// suggestQuery matches names by word prefix, or by substring anywhere in the
// folded keyword for mid-word completions.
func suggestQuery(prefix string, size int) object {
	return object{
		"query": object{"bool": object{
			"should": list{
				object{"match": object{"name.autocomplete": object{"query": prefix, "operator": "and"}}},
				object{"wildcard": object{"name.keyword": object{"value": "*" + prefix + "*"}}},
			},
			"minimum_should_match": 1,
		}},
		"size":    size,
		"_source": []string{"id", "name", "category"},
		"sort":    byScore(),
	}
}

// alternativesQuery casts a wide fuzzy net for "did you mean" names.
func alternativesQuery(text string, size int) object {
	return object{
		"query": object{"match": object{"name": object{
			"query":         text,
			"fuzziness":     2,
			"prefix_length": 0,
			"operator":      "or",
		}}},
		"size":    size,
		"_source": []string{"id", "name"},
	}
}

// replaceQuery matches every document not in ids.
func replaceQuery(ids []string) object {
	return object{"query": object{"bool": object{
		"must_not": list{object{"ids": object{"values": ids}}},
	}}}
}
