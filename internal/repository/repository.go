package repository

import (
	"context"
	"time"

	"github.com/Gangoo91/Elec-Mate-Merge-sub265/internal/domain"
)

// MaterialReader reads the externally owned materials catalog.
type MaterialReader interface {
	// ListAfter returns up to limit materials with ID greater than afterID, in ID order.
	ListAfter(ctx context.Context, afterID int64, limit int) ([]domain.Material, error)

	// GetByID retrieves a single material.
	GetByID(ctx context.Context, id int64) (*domain.Material, error)
}

// SearchMissRepository stores searches that found nothing.
type SearchMissRepository interface {
	// Record inserts a miss and sets its ID and CreatedAt.
	Record(ctx context.Context, miss *domain.SearchMiss) error

	// TopMisses returns the most frequent missed queries since the given time.
	TopMisses(ctx context.Context, since time.Time, limit int) ([]domain.MissCount, error)
}
