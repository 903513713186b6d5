package index

import (
	"context"
	"testing"

	"github.com/DRSN-tech/visual-matcher/internal/domain"
	"github.com/DRSN-tech/visual-matcher/pkg/e"
	"github.com/DRSN-tech/visual-matcher/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEngine() *Engine {
	return NewEngine(0, logger.NewSlogLogger())
}

// Снапшот с тремя продуктами: p1 вдоль первой оси, p2 вдоль второй,
// p3 по диагонали между ними.
func threeProductSnapshot(t *testing.T) *Snapshot {
	t.Helper()

	products := []domain.Product{
		*domain.NewProduct("p1", "sneakers", "shoes", true, "p1.jpg", nil),
		*domain.NewProduct("p2", "backpack", "bags", true, "p2.jpg", nil),
		*domain.NewProduct("p3", "slippers", "shoes", false, "p3.jpg", nil),
	}

	m := unitMatrix(t, [][]float32{
		{1, 0},
		{0, 1},
		{0.7, 0.7},
	})

	snap, err := NewSnapshot(products, m, nil)
	require.NoError(t, err)
	return snap
}

func TestSearchRankingAndThreshold(t *testing.T) {
	snap := threeProductSnapshot(t)

	matches, err := testEngine().Search(context.Background(), snap, []float32{1, 0}, 2, 0.5)
	require.NoError(t, err)

	// p2 ортогонален запросу и отсекается порогом.
	require.Len(t, matches, 2)
	assert.Equal(t, 0, matches[0].Row)
	assert.InDelta(t, 1.0, matches[0].Score, 1e-4)
	assert.Equal(t, 2, matches[1].Row)
	assert.InDelta(t, 0.7071, matches[1].Score, 1e-3)
}

func TestSearchThresholdBeforeTruncation(t *testing.T) {
	snap := threeProductSnapshot(t)

	// Порог оставляет одну строку, даже если topK позволяет больше.
	matches, err := testEngine().Search(context.Background(), snap, []float32{1, 0}, 3, 0.9)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, 0, matches[0].Row)
}

func TestSearchTieBreak(t *testing.T) {
	products := testProducts(3)
	m := unitMatrix(t, [][]float32{
		{0, 1},
		{1, 0},
		{1, 0},
	})
	snap, err := NewSnapshot(products, m, nil)
	require.NoError(t, err)

	matches, err := testEngine().Search(context.Background(), snap, []float32{1, 0}, 3, -1)
	require.NoError(t, err)

	// Одинаковая близость строк 1 и 2: выигрывает меньший номер.
	require.Len(t, matches, 3)
	assert.Equal(t, 1, matches[0].Row)
	assert.Equal(t, 2, matches[1].Row)
	assert.Equal(t, 0, matches[2].Row)
}

func TestSearchTopKZero(t *testing.T) {
	snap := threeProductSnapshot(t)

	matches, err := testEngine().Search(context.Background(), snap, []float32{1, 0}, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestSearchUnnormalizedQuery(t *testing.T) {
	snap := threeProductSnapshot(t)

	// Запрос нормализуется движком: масштаб не влияет на результат.
	matches, err := testEngine().Search(context.Background(), snap, []float32{42, 0}, 1, 0)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.InDelta(t, 1.0, matches[0].Score, 1e-4)
}

func TestSearchErrors(t *testing.T) {
	snap := threeProductSnapshot(t)
	en := testEngine()

	_, err := en.Search(context.Background(), snap, []float32{0, 0}, 3, 0)
	assert.ErrorIs(t, err, e.ErrDegenerateVector)

	_, err = en.Search(context.Background(), snap, []float32{1, 0, 0}, 3, 0)
	assert.ErrorIs(t, err, e.ErrDimensionMismatch)
}

func TestSearchCancelled(t *testing.T) {
	snap := threeProductSnapshot(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewEngine(1, logger.NewSlogLogger()).Search(ctx, snap, []float32{1, 0}, 3, 0)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSearchByCategory(t *testing.T) {
	snap := threeProductSnapshot(t)

	matches, err := testEngine().SearchByCategory(context.Background(), snap, []float32{0, 1}, "SHOES", 10)
	require.NoError(t, err)

	// Только обувь, без порога: и ортогональный p1 попадает в выдачу.
	require.Len(t, matches, 2)
	assert.Equal(t, 2, matches[0].Row)
	assert.Equal(t, 0, matches[1].Row)
}

func TestSearchByCategoryEmpty(t *testing.T) {
	snap := threeProductSnapshot(t)

	matches, err := testEngine().SearchByCategory(context.Background(), snap, []float32{0, 1}, "furniture", 10)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestRecommend(t *testing.T) {
	snap := threeProductSnapshot(t)

	matches, err := testEngine().Recommend(context.Background(), snap, "p1", 10)
	require.NoError(t, err)

	// Собственная строка исключена.
	require.Len(t, matches, 2)
	for _, m := range matches {
		assert.NotEqual(t, 0, m.Row)
	}
	assert.Equal(t, 2, matches[0].Row)
	assert.Equal(t, 1, matches[1].Row)
}

func TestRecommendUnknownProduct(t *testing.T) {
	snap := threeProductSnapshot(t)
	en := testEngine()

	_, err := en.Recommend(context.Background(), snap, "ghost", 10)
	assert.ErrorIs(t, err, e.ErrProductNotFound)

	// Неизвестный ID важнее пустого topK.
	_, err = en.Recommend(context.Background(), snap, "ghost", 0)
	assert.ErrorIs(t, err, e.ErrProductNotFound)
}

func TestRecommendTopKZero(t *testing.T) {
	snap := threeProductSnapshot(t)

	matches, err := testEngine().Recommend(context.Background(), snap, "p1", 0)
	require.NoError(t, err)
	assert.Empty(t, matches)
}
