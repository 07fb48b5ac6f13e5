package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Gangoo91/Elec-Mate-Merge-sub265/internal/domain"
	"github.com/Gangoo91/Elec-Mate-Merge-sub265/pkg/database"
)

func TestSearchMissRepository_Record(t *testing.T) {
	mock := database.NewMockPool(t)

	repo := NewSearchMissRepository(mock)
	cat := "Lighting"
	miss := &domain.SearchMiss{
		Query:       "zzqqxx",
		Normalized:  "zzqqxx",
		Category:    &cat,
		Suggestions: nil,
	}
	created := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

	mock.ExpectQuery("INSERT INTO search_misses").
		WithArgs("zzqqxx", "zzqqxx", &cat, (*string)(nil), []string{}).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(int64(7), created))

	require.NoError(t, repo.Record(context.Background(), miss))
	assert.Equal(t, int64(7), miss.ID)
	assert.Equal(t, created, miss.CreatedAt)
}

func TestSearchMissRepository_Record_Error(t *testing.T) {
	mock := database.NewMockPool(t)

	repo := NewSearchMissRepository(mock)
	mock.ExpectQuery("INSERT INTO search_misses").
		WithArgs("x", "x", (*string)(nil), (*string)(nil), []string{"LED"}).
		WillReturnError(errors.New("relation \"search_misses\" does not exist"))

	err := repo.Record(context.Background(), &domain.SearchMiss{Query: "x", Normalized: "x", Suggestions: []string{"LED"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert search miss")
}

func TestSearchMissRepository_TopMisses(t *testing.T) {
	mock := database.NewMockPool(t)

	repo := NewSearchMissRepository(mock)
	since := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	last := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("FROM search_misses").
		WithArgs(since, 10).
		WillReturnRows(pgxmock.NewRows([]string{"normalized", "misses", "last_seen"}).
			AddRow("rcbo 40a", int64(12), last).
			AddRow("fp200", int64(3), last))

	got, err := repo.TopMisses(context.Background(), since, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "rcbo 40a", got[0].Normalized)
	assert.Equal(t, int64(12), got[0].Count)
}
