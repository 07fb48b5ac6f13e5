package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/Gangoo91/Elec-Mate-Merge-sub265/internal/domain"
	"github.com/Gangoo91/Elec-Mate-Merge-sub265/internal/engine"
	apperrors "github.com/Gangoo91/Elec-Mate-Merge-sub265/pkg/errors"
	"github.com/Gangoo91/Elec-Mate-Merge-sub265/pkg/logger"
)

// IndexMaterialInput holds the parameters for indexing a material.
type IndexMaterialInput struct {
	ID          int64  `json:"id" validate:"required,gt=0"`
	Name        string `json:"name" validate:"required,notblank,max=500"`
	Category    string `json:"category" validate:"max=200"`
	Supplier    string `json:"supplier" validate:"max=200"`
	Price       string `json:"price" validate:"max=50"`
	StockStatus string `json:"stock_status"`
	Brand       string `json:"brand" validate:"max=200"`
	Description string `json:"description" validate:"max=5000"`
	ProductURL  string `json:"product_url" validate:"omitempty,url"`
}

// Material converts the input into a domain material. Stock states are
// parsed leniently, as catalog feeds spell them inconsistently.
func (in *IndexMaterialInput) Material() domain.Material {
	m := domain.Material{
		ID:          in.ID,
		Name:        in.Name,
		Category:    in.Category,
		Supplier:    in.Supplier,
		Price:       in.Price,
		StockStatus: domain.ParseStockStatusLenient(in.StockStatus),
		Brand:       in.Brand,
		Description: in.Description,
		ProductURL:  in.ProductURL,
	}
	m.Normalize()
	return m
}

// IndexMaterial indexes a single material.
func (s *SearchService) IndexMaterial(ctx context.Context, input *IndexMaterialInput) error {
	if input.ID <= 0 {
		return apperrors.InvalidInput("index material: id is required")
	}
	if strings.TrimSpace(input.Name) == "" {
		return apperrors.InvalidInput("index material: name is required")
	}

	m := input.Material()
	if err := s.engine.Index(ctx, &m); err != nil {
		return fmt.Errorf("index material: %w", err)
	}
	s.corpusChanged(ctx)

	s.logger.InfoContext(ctx, "material indexed",
		slog.Int64("material_id", m.ID),
		slog.String("name", m.Name),
	)
	return nil
}

// BulkIndex indexes multiple materials. Inputs without an ID or name are
// skipped; the number indexed is returned.
func (s *SearchService) BulkIndex(ctx context.Context, inputs []IndexMaterialInput) (int, error) {
	materials := make([]domain.Material, 0, len(inputs))
	for i := range inputs {
		if inputs[i].ID <= 0 || strings.TrimSpace(inputs[i].Name) == "" {
			continue
		}
		materials = append(materials, inputs[i].Material())
	}
	if len(materials) == 0 {
		return 0, nil
	}

	if err := s.engine.BulkIndex(ctx, materials); err != nil {
		return 0, fmt.Errorf("bulk index: %w", err)
	}
	s.corpusChanged(ctx)

	s.logger.InfoContext(ctx, "bulk index completed",
		slog.Int("count", len(materials)),
		slog.Int("skipped", len(inputs)-len(materials)),
	)
	return len(materials), nil
}

// DeleteMaterial removes a material from the index.
func (s *SearchService) DeleteMaterial(ctx context.Context, id int64) error {
	if id <= 0 {
		return apperrors.InvalidInput("delete material: id is required")
	}

	if err := s.engine.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete material: %w", err)
	}
	s.corpusChanged(ctx)

	s.logger.InfoContext(ctx, "material deleted from index",
		slog.Int64("material_id", id),
	)
	return nil
}

// GetMaterial returns an indexed material.
func (s *SearchService) GetMaterial(ctx context.Context, id int64) (*domain.Material, error) {
	m, err := s.engine.Get(ctx, id)
	if err != nil {
		if errors.Is(err, engine.ErrNotFound) {
			return nil, apperrors.NotFound("material", strconv.FormatInt(id, 10))
		}
		return nil, apperrors.SearchUnavailable(err)
	}
	return m, nil
}

// ReindexResult summarizes a completed reindex.
type ReindexResult struct {
	Source  string `json:"source"`
	Indexed int    `json:"indexed"`
	TookMs  int64  `json:"took_ms"`
}

// Reindex replaces the index with the full catalog loaded from the
// configured source. Only one reindex runs at a time.
func (s *SearchService) Reindex(ctx context.Context) (*ReindexResult, error) {
	if err := s.claimReindex(); err != nil {
		return nil, err
	}
	defer s.reindexing.Store(false)
	return s.reindex(ctx)
}

// StartReindex claims the reindex slot and runs the reindex in the
// background. done, when non-nil, receives the outcome.
func (s *SearchService) StartReindex(ctx context.Context, done func(*ReindexResult, error)) error {
	if err := s.claimReindex(); err != nil {
		return err
	}
	go func() {
		defer s.reindexing.Store(false)
		res, err := s.reindex(ctx)
		if err != nil {
			logger.WithContext(ctx, s.logger).ErrorContext(ctx, "background reindex failed",
				slog.String("error", err.Error()),
			)
		}
		if done != nil {
			done(res, err)
		}
	}()
	return nil
}

func (s *SearchService) claimReindex() error {
	if s.source == nil {
		return apperrors.InvalidInput("reindex: no catalog source configured")
	}
	if !s.reindexing.CompareAndSwap(false, true) {
		return apperrors.Conflict("reindex already in progress")
	}
	return nil
}

func (s *SearchService) reindex(ctx context.Context) (*ReindexResult, error) {
	start := time.Now()
	s.logger.InfoContext(ctx, "reindex started", slog.String("source", s.source.Name()))

	materials, err := s.source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("reindex from %s: %w", s.source.Name(), err)
	}
	if err := s.engine.Replace(ctx, materials); err != nil {
		return nil, fmt.Errorf("reindex: replace index: %w", err)
	}
	s.corpusChanged(ctx)

	res := &ReindexResult{
		Source:  s.source.Name(),
		Indexed: len(materials),
		TookMs:  time.Since(start).Milliseconds(),
	}
	s.logger.InfoContext(ctx, "reindex completed",
		slog.String("source", res.Source),
		slog.Int("indexed", res.Indexed),
		slog.Int64("took_ms", res.TookMs),
	)
	return res, nil
}

// corpusChanged invalidates cached responses after an index mutation.
func (s *SearchService) corpusChanged(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if _, err := s.cache.BumpVersion(ctx); err != nil {
		s.logger.WarnContext(ctx, "failed to invalidate response cache",
			slog.String("error", err.Error()),
		)
	}
}
