package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"

	"github.com/Gangoo91/Elec-Mate-Merge-sub265/internal/domain"
	"github.com/Gangoo91/Elec-Mate-Merge-sub265/pkg/database"
	apperrors "github.com/Gangoo91/Elec-Mate-Merge-sub265/pkg/errors"
)

const materialColumns = `id, name, COALESCE(category, ''), COALESCE(supplier, ''), COALESCE(price, ''),
		COALESCE(stock_status, ''), COALESCE(brand, ''), COALESCE(description, ''), COALESCE(product_url, '')`

// MaterialRepository implements repository.MaterialReader over the catalog's
// materials table. It never writes.
type MaterialRepository struct {
	pool database.DBTX
}

// NewMaterialRepository creates a new PostgreSQL-backed catalog reader.
func NewMaterialRepository(pool database.DBTX) *MaterialRepository {
	return &MaterialRepository{pool: pool}
}

// ListAfter returns the next page of materials by keyset on ID.
func (r *MaterialRepository) ListAfter(ctx context.Context, afterID int64, limit int) (_ []domain.Material, err error) {
	query := `
		SELECT ` + materialColumns + `
		FROM materials
		WHERE id > $1
		ORDER BY id
		LIMIT $2`

	ctx, end := database.TraceQuery(ctx, "ListMaterials", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("list materials: %w", err)
	}
	defer rows.Close()

	materials := make([]domain.Material, 0, limit)
	for rows.Next() {
		m, err := scanMaterial(rows)
		if err != nil {
			return nil, err
		}
		materials = append(materials, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate material rows: %w", err)
	}

	return materials, nil
}

// GetByID retrieves a material by its ID.
func (r *MaterialRepository) GetByID(ctx context.Context, id int64) (_ *domain.Material, err error) {
	query := `
		SELECT ` + materialColumns + `
		FROM materials
		WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "GetMaterial", query)
	defer func() { end(err) }()

	m, err := scanMaterial(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("material", strconv.FormatInt(id, 10))
		}
		return nil, err
	}
	return m, nil
}

func scanMaterial(row pgx.Row) (*domain.Material, error) {
	var (
		m     domain.Material
		stock string
	)
	if err := row.Scan(
		&m.ID,
		&m.Name,
		&m.Category,
		&m.Supplier,
		&m.Price,
		&stock,
		&m.Brand,
		&m.Description,
		&m.ProductURL,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan material: %w", err)
	}
	m.StockStatus = domain.ParseStockStatusLenient(stock)
	m.Normalize()
	return &m, nil
}
