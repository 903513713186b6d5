package index

import (
	"math"
	"testing"

	"github.com/DRSN-tech/visual-matcher/internal/domain"
	"github.com/DRSN-tech/visual-matcher/pkg/e"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testProducts(n int) []domain.Product {
	products := make([]domain.Product, 0, n)
	ids := []string{"p1", "p2", "p3", "p4", "p5"}
	for i := 0; i < n; i++ {
		products = append(products, *domain.NewProduct(ids[i], "product "+ids[i], "shoes", true, ids[i]+".jpg", nil))
	}
	return products
}

func unitMatrix(t *testing.T, vectors [][]float32) *Matrix {
	t.Helper()
	m, err := NewMatrix(vectors)
	require.NoError(t, err)
	require.NoError(t, m.NormalizeRows())
	return m
}

func TestNewSnapshot(t *testing.T) {
	m := unitMatrix(t, [][]float32{{1, 0}, {0, 1}})

	snap, err := NewSnapshot(testProducts(2), m, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, snap.Size())
	assert.Equal(t, "p2", snap.Product(1).ID)

	row, ok := snap.RowByID("p2")
	require.True(t, ok)
	assert.Equal(t, 1, row)

	_, ok = snap.RowByID("missing")
	assert.False(t, ok)
}

func TestNewSnapshotAlignment(t *testing.T) {
	m := unitMatrix(t, [][]float32{{1, 0}, {0, 1}})

	_, err := NewSnapshot(testProducts(3), m, nil)
	assert.ErrorIs(t, err, e.ErrAlignment)
}

func TestNewSnapshotCorruptValues(t *testing.T) {
	m, err := MatrixFromFlat([]float32{1, 0, float32(math.NaN()), 0}, 2, 2)
	require.NoError(t, err)

	_, err = NewSnapshot(testProducts(2), m, nil)
	assert.ErrorIs(t, err, e.ErrCorruptEmbedding)
}

func TestNewSnapshotNotUnitNorm(t *testing.T) {
	m, err := MatrixFromFlat([]float32{1, 0, 3, 4}, 2, 2)
	require.NoError(t, err)

	_, err = NewSnapshot(testProducts(2), m, nil)
	assert.ErrorIs(t, err, e.ErrCorruptEmbedding)
}

func TestNewSnapshotDimension(t *testing.T) {
	m := unitMatrix(t, [][]float32{{1, 0}, {0, 1}})

	_, err := NewSnapshot(testProducts(2), m, []int{1280, 2048})
	assert.ErrorIs(t, err, e.ErrUnexpectedDimension)

	_, err = NewSnapshot(testProducts(2), m, []int{2})
	assert.NoError(t, err)
}

func TestHolder(t *testing.T) {
	h := NewHolder()

	assert.False(t, h.Loaded())
	_, err := h.Active()
	assert.ErrorIs(t, err, e.ErrIndexNotLoaded)

	m := unitMatrix(t, [][]float32{{1, 0}})
	snap, err := NewSnapshot(testProducts(1), m, nil)
	require.NoError(t, err)

	prev := h.Swap(snap)
	assert.Nil(t, prev)
	assert.True(t, h.Loaded())

	active, err := h.Active()
	require.NoError(t, err)
	assert.Same(t, snap, active)

	m2 := unitMatrix(t, [][]float32{{0, 1}})
	snap2, err := NewSnapshot(testProducts(1), m2, nil)
	require.NoError(t, err)

	prev = h.Swap(snap2)
	assert.Same(t, snap, prev)

	active, err = h.Active()
	require.NoError(t, err)
	assert.Same(t, snap2, active)
}
