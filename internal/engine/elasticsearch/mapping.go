package elasticsearch

import "encoding/json"

// DefaultIndexName is used when no index name is configured.
const DefaultIndexName = "materials"

// tradeSynonyms expands abbreviations electricians type into the words
// supplier catalogues use.
var tradeSynonyms = []string{
	"t&e, t and e, twin and earth",
	"swa, steel wire armoured",
	"mcb, miniature circuit breaker",
	"rcbo, residual current breaker with overcurrent",
	"rcd, residual current device",
	"cu, consumer unit",
	"fcu, fused connection unit",
	"led, light emitting diode",
}

type object = map[string]any

// folding lowercases and strips accents so "Câble" matches "cable".
var folding = []string{"lowercase", "asciifolding"}

func analysisSettings() object {
	return object{
		"char_filter": object{
			// "2.5mm²" and "2.5 mm" index as the same token.
			"size_units": object{
				"type":        "pattern_replace",
				"pattern":     `(\d)\s*mm²?`,
				"replacement": "$1mm",
			},
		},
		"filter": object{
			"trade_synonyms": object{
				"type":     "synonym_graph",
				"synonyms": tradeSynonyms,
			},
		},
		"tokenizer": object{
			"prefix_grams": object{
				"type":        "edge_ngram",
				"min_gram":    1,
				"max_gram":    20,
				"token_chars": []string{"letter", "digit", "punctuation"},
			},
		},
		"analyzer": object{
			"material": object{
				"type":        "custom",
				"char_filter": []string{"size_units"},
				"tokenizer":   "standard",
				"filter":      folding,
			},
			"material_search": object{
				"type":        "custom",
				"char_filter": []string{"size_units"},
				"tokenizer":   "standard",
				"filter":      append(append([]string{}, folding...), "trade_synonyms"),
			},
			"prefix": object{
				"type":        "custom",
				"char_filter": []string{"size_units"},
				"tokenizer":   "prefix_grams",
				"filter":      folding,
			},
		},
		"normalizer": object{
			"folded": object{"type": "custom", "filter": folding},
		},
	}
}

func text(analyzer string) object {
	return object{"type": "text", "analyzer": analyzer, "search_analyzer": "material_search"}
}

func keyword(indexed bool) object {
	m := object{"type": "keyword"}
	if !indexed {
		m["index"] = false
	}
	return m
}

// indexDefinition is the settings and mapping the materials index is
// created with. Category, supplier and stock status are exact-match filter
// fields; name carries a folded keyword for exact hits and an edge n-gram
// subfield for autocomplete.
func indexDefinition() object {
	name := text("material")
	name["fields"] = object{
		"keyword": object{"type": "keyword", "normalizer": "folded", "ignore_above": 256},
		"autocomplete": object{
			"type":            "text",
			"analyzer":        "prefix",
			"search_analyzer": "material",
		},
	}

	return object{
		"settings": object{
			"number_of_shards":   1,
			"number_of_replicas": 0,
			"analysis":           analysisSettings(),
		},
		"mappings": object{
			"dynamic": "strict",
			"properties": object{
				"id":           object{"type": "long"},
				"name":         name,
				"category":     keyword(true),
				"supplier":     keyword(true),
				"stock_status": keyword(true),
				"brand":        text("material"),
				"description":  text("material"),
				"price":        keyword(false),
				"product_url":  keyword(false),
			},
		},
	}
}

func buildIndexMapping() []byte {
	b, err := json.Marshal(indexDefinition())
	if err != nil {
		panic("elasticsearch: encode index definition: " + err.Error())
	}
	return b
}
