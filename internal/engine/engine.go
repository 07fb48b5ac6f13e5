package engine

import (
	"context"
	"errors"

	"github.com/Gangoo91/Elec-Mate-Merge-sub265/internal/domain"
)

// ErrNotFound is returned by Get when no material has the requested ID.
var ErrNotFound = errors.New("material not found")

// SearchEngine defines the interface for indexing and searching materials.
// Implementations may use the in-memory trigram index or Elasticsearch.
type SearchEngine interface {
	// Index adds or replaces a single material in the search index.
	Index(ctx context.Context, material *domain.Material) error

	// BulkIndex adds or replaces multiple materials in the search index.
	BulkIndex(ctx context.Context, materials []domain.Material) error

	// Replace makes materials the entire contents of the index. Materials
	// absent from the slice are removed.
	Replace(ctx context.Context, materials []domain.Material) error

	// Delete removes a material from the search index by its ID.
	Delete(ctx context.Context, id int64) error

	// Get returns the indexed material with the given ID.
	Get(ctx context.Context, id int64) (*domain.Material, error)

	// Search executes a search query, falling back to typo-tolerant matching
	// and "did you mean" suggestions when exact matching comes up short.
	Search(ctx context.Context, query *domain.SearchQuery) (*domain.SearchResponse, error)

	// Suggest returns up to limit completions for a partial query.
	Suggest(ctx context.Context, partial string, limit int) ([]domain.AutocompleteSuggestion, error)

	// Alternatives returns up to n material names resembling query.
	// It never runs a search itself.
	Alternatives(ctx context.Context, query string, n int) ([]string, error)

	// Count returns the number of indexed materials.
	Count(ctx context.Context) (int, error)
}
