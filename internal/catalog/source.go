// Package catalog loads the materials corpus from the systems that own it.
package catalog

import (
	"context"
	"fmt"

	"github.com/Gangoo91/Elec-Mate-Merge-sub265/internal/domain"
	"github.com/Gangoo91/Elec-Mate-Merge-sub265/internal/repository"
)

// DefaultPageSize is how many materials a source fetches per round trip.
const DefaultPageSize = 500

// Source yields the complete materials catalog.
type Source interface {
	Name() string
	Load(ctx context.Context) ([]domain.Material, error)
}

// PostgresSource reads the catalog table page by page.
type PostgresSource struct {
	reader   repository.MaterialReader
	pageSize int
}

// NewPostgresSource creates a source over a catalog reader. A non-positive
// page size uses DefaultPageSize.
func NewPostgresSource(reader repository.MaterialReader, pageSize int) *PostgresSource {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &PostgresSource{reader: reader, pageSize: pageSize}
}

// Name implements Source.
func (s *PostgresSource) Name() string { return "postgres" }

// Load reads every material in ID order.
func (s *PostgresSource) Load(ctx context.Context) ([]domain.Material, error) {
	var (
		all     []domain.Material
		afterID int64
	)
	for {
		page, err := s.reader.ListAfter(ctx, afterID, s.pageSize)
		if err != nil {
			return nil, fmt.Errorf("load catalog after id %d: %w", afterID, err)
		}
		all = append(all, page...)
		if len(page) < s.pageSize {
			return all, nil
		}
		afterID = page[len(page)-1].ID
	}
}
