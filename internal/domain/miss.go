package domain

import "time"

// SearchMiss records a search that returned no materials, kept to calibrate
// the similarity floors against real queries.
type SearchMiss struct {
	ID          int64     `json:"id"`
	Query       string    `json:"query"`
	Normalized  string    `json:"normalized"`
	Category    *string   `json:"category,omitempty"`
	Supplier    *string   `json:"supplier,omitempty"`
	Suggestions []string  `json:"suggestions"`
	CreatedAt   time.Time `json:"created_at"`
}

// MissCount aggregates misses by normalized query.
type MissCount struct {
	Normalized string    `json:"query"`
	Count      int64     `json:"count"`
	LastSeen   time.Time `json:"last_seen"`
}
