package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Gangoo91/Elec-Mate-Merge-sub265/internal/domain"
)

type fakeReader struct {
	materials []domain.Material
	calls     []int64
	err       error
}

func (f *fakeReader) ListAfter(_ context.Context, afterID int64, limit int) ([]domain.Material, error) {
	f.calls = append(f.calls, afterID)
	if f.err != nil {
		return nil, f.err
	}
	out := make([]domain.Material, 0, limit)
	for _, m := range f.materials {
		if m.ID > afterID && len(out) < limit {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeReader) GetByID(_ context.Context, id int64) (*domain.Material, error) {
	for _, m := range f.materials {
		if m.ID == id {
			return &m, nil
		}
	}
	return nil, errors.New("not found")
}

func makeMaterials(n int) []domain.Material {
	out := make([]domain.Material, n)
	for i := range out {
		out[i] = domain.Material{ID: int64(i + 1), Name: "Material", StockStatus: domain.StockInStock}
	}
	return out
}

func TestPostgresSource_PagesByKeyset(t *testing.T) {
	r := &fakeReader{materials: makeMaterials(5)}
	src := NewPostgresSource(r, 2)

	got, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 5)
	assert.Equal(t, []int64{0, 2, 4}, r.calls)
	assert.Equal(t, "postgres", src.Name())
}

func TestPostgresSource_ExactMultipleOfPageSize(t *testing.T) {
	r := &fakeReader{materials: makeMaterials(4)}
	src := NewPostgresSource(r, 2)

	got, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 4)
	assert.Equal(t, []int64{0, 2, 4}, r.calls)
}

func TestPostgresSource_Error(t *testing.T) {
	r := &fakeReader{err: errors.New("connection refused")}

	_, err := NewPostgresSource(r, 0).Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load catalog after id 0")
}
