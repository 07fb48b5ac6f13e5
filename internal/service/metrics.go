package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	searchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "materials_searches_total",
			Help: "Total number of material searches by search method and outcome",
		},
		[]string{"method", "outcome"},
	)

	searchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "materials_search_duration_seconds",
			Help:    "Duration of material search and autocomplete calls in seconds",
			Buckets: []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"operation"},
	)

	autocompleteTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "materials_autocomplete_total",
			Help: "Total number of autocomplete requests by outcome",
		},
		[]string{"outcome"},
	)

	cacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "materials_cache_lookups_total",
			Help: "Response cache lookups by operation and result",
		},
		[]string{"operation", "result"},
	)

	quoteItemsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "materials_quote_items_total",
			Help: "Total number of materials added to quotes",
		},
	)
)

// Outcome label values.
const (
	outcomeOK          = "ok"
	outcomeNoResults   = "no_results"
	outcomeUnavailable = "unavailable"
	outcomeBelowMin    = "below_min_chars"
	outcomeError       = "error"
)
