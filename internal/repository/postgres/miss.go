package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Gangoo91/Elec-Mate-Merge-sub265/internal/domain"
	"github.com/Gangoo91/Elec-Mate-Merge-sub265/pkg/database"
)

// SearchMissRepository implements repository.SearchMissRepository using PostgreSQL.
type SearchMissRepository struct {
	pool database.DBTX
}

// NewSearchMissRepository creates a new PostgreSQL-backed search miss log.
func NewSearchMissRepository(pool database.DBTX) *SearchMissRepository {
	return &SearchMissRepository{pool: pool}
}

// Record inserts a search miss.
func (r *SearchMissRepository) Record(ctx context.Context, miss *domain.SearchMiss) (err error) {
	query := `
		INSERT INTO search_misses (query, normalized, category, supplier, suggestions)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	ctx, end := database.TraceQuery(ctx, "RecordSearchMiss", query)
	defer func() { end(err) }()

	suggestions := miss.Suggestions
	if suggestions == nil {
		suggestions = []string{}
	}

	err = r.pool.QueryRow(ctx, query,
		miss.Query,
		miss.Normalized,
		miss.Category,
		miss.Supplier,
		suggestions,
	).Scan(&miss.ID, &miss.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert search miss: %w", err)
	}
	return nil
}

// TopMisses groups misses by normalized query, most frequent first.
func (r *SearchMissRepository) TopMisses(ctx context.Context, since time.Time, limit int) (_ []domain.MissCount, err error) {
	query := `
		SELECT normalized, COUNT(*) AS misses, MAX(created_at) AS last_seen
		FROM search_misses
		WHERE created_at >= $1
		GROUP BY normalized
		ORDER BY misses DESC, last_seen DESC
		LIMIT $2`

	ctx, end := database.TraceQuery(ctx, "TopSearchMisses", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, since, limit)
	if err != nil {
		return nil, fmt.Errorf("query top search misses: %w", err)
	}
	defer rows.Close()

	out := make([]domain.MissCount, 0)
	for rows.Next() {
		var mc domain.MissCount
		if err := rows.Scan(&mc.Normalized, &mc.Count, &mc.LastSeen); err != nil {
			return nil, fmt.Errorf("scan search miss count: %w", err)
		}
		out = append(out, mc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate search miss rows: %w", err)
	}
	return out, nil
}
