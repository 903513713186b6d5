package usecase

import (
	"context"
	"testing"

	"github.com/DRSN-tech/visual-matcher/internal/cfg"
	"github.com/DRSN-tech/visual-matcher/internal/domain"
	"github.com/DRSN-tech/visual-matcher/internal/index"
	"github.com/DRSN-tech/visual-matcher/pkg/e"
	"github.com/DRSN-tech/visual-matcher/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildCatalog(n int) []domain.Product {
	ids := []string{"p1", "p2", "p3", "p4", "p5"}
	products := make([]domain.Product, 0, n)
	for i := 0; i < n; i++ {
		products = append(products, *domain.NewProduct(ids[i], "product "+ids[i], "shoes", true, ids[i]+".jpg", nil))
	}
	return products
}

type indexUCFixture struct {
	uc      *IndexUseCase
	matrix  *memMatrixArtifact
	catalog *memCatalogArtifact
	events  *fakeEvents
	cache   *fakeCache
	holder  *index.Holder
}

func newIndexUCFixture(source CatalogSource, images BuildImagesInfra, ml MlServiceInfra) *indexUCFixture {
	f := &indexUCFixture{
		matrix:  &memMatrixArtifact{},
		catalog: &memCatalogArtifact{},
		events:  &fakeEvents{},
		cache:   &fakeCache{},
		holder:  index.NewHolder(),
	}
	f.uc = NewIndexUC(
		source, f.matrix, f.catalog, images, ml, f.events, f.cache, f.holder,
		&cfg.IndexCfg{DefaultTopK: 11, RecsTopK: 5, ScanBatch: 64},
		&cfg.BuilderCfg{MaxConcurrent: 3},
		logger.NewSlogLogger(),
	)
	return f
}

func TestBuildSkipsFailedRecords(t *testing.T) {
	catalog := buildCatalog(5)

	ml := &fakeML{vectors: map[string][]float32{
		"p1.jpg": {1, 0, 0},
		"p2.jpg": {0, 2, 0},
		"p3.jpg": {0, 0, 3},
		"p4.jpg": {1, 1, 0},
		"p5.jpg": {0, 1, 1},
	}}
	// p3 остаётся без изображения и выпадает из индекса.
	images := &fakeBuildImages{failPaths: map[string]bool{"p3.jpg": true}}

	f := newIndexUCFixture(&fakeCatalogSource{products: catalog}, images, ml)

	res, err := f.uc.Build(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 5, res.Total)
	assert.Equal(t, 4, res.Valid)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 3, res.Dimension)

	// Таблица валидных продуктов сохраняет исходный порядок без p3.
	saved, err := f.catalog.Load()
	require.NoError(t, err)
	require.Len(t, saved, 4)
	assert.Equal(t, []string{"p1", "p2", "p4", "p5"},
		[]string{saved[0].ID, saved[1].ID, saved[2].ID, saved[3].ID})

	// Матрица выровнена со списком: строка p2 — нормализованный {0,2,0}.
	m, err := f.matrix.Load()
	require.NoError(t, err)
	require.Equal(t, 4, m.Rows())
	assert.InDelta(t, 1.0, float64(m.Row(1)[1]), 1e-6)

	f.events.mu.Lock()
	defer f.events.mu.Unlock()
	require.Len(t, f.events.built, 1)
	assert.Equal(t, 1, f.events.built[0].Skipped)
}

func TestBuildDegenerateVectorSkipped(t *testing.T) {
	catalog := buildCatalog(2)

	ml := &fakeML{vectors: map[string][]float32{
		"p1.jpg": {1, 0},
		"p2.jpg": {0, 0}, // нулевая норма
	}}

	f := newIndexUCFixture(&fakeCatalogSource{products: catalog}, &fakeBuildImages{}, ml)

	res, err := f.uc.Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Valid)
	assert.Equal(t, 1, res.Skipped)
}

func TestBuildAllFailed(t *testing.T) {
	catalog := buildCatalog(2)
	ml := &fakeML{vectors: map[string][]float32{}}

	f := newIndexUCFixture(&fakeCatalogSource{products: catalog}, &fakeBuildImages{}, ml)

	_, err := f.uc.Build(context.Background())
	assert.ErrorIs(t, err, e.ErrEmptyIndex)
}

func TestBuildEmptyCatalog(t *testing.T) {
	f := newIndexUCFixture(&fakeCatalogSource{}, &fakeBuildImages{}, &fakeML{})

	_, err := f.uc.Build(context.Background())
	assert.ErrorIs(t, err, e.ErrCatalogEmpty)
}

func TestBuildRejectsUnacceptedDimension(t *testing.T) {
	catalog := buildCatalog(1)
	ml := &fakeML{vectors: map[string][]float32{"p1.jpg": {1, 0}}}

	f := newIndexUCFixture(&fakeCatalogSource{products: catalog}, &fakeBuildImages{}, ml)
	f.uc.indexCfg.AcceptedDims = []int{1280}

	_, err := f.uc.Build(context.Background())
	assert.ErrorIs(t, err, e.ErrUnexpectedDimension)
}

func TestReload(t *testing.T) {
	catalog := buildCatalog(3)
	ml := &fakeML{vectors: map[string][]float32{
		"p1.jpg": {1, 0},
		"p2.jpg": {0, 1},
		"p3.jpg": {1, 1},
	}}

	f := newIndexUCFixture(&fakeCatalogSource{products: catalog}, &fakeBuildImages{}, ml)

	_, err := f.uc.Build(context.Background())
	require.NoError(t, err)
	assert.False(t, f.holder.Loaded())

	res, err := f.uc.Reload(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, res.Products)
	assert.Equal(t, 2, res.Dimension)
	assert.True(t, f.holder.Loaded())

	snap, err := f.holder.Active()
	require.NoError(t, err)
	assert.Equal(t, 3, snap.Size())

	// Кэш рекомендаций сбрасывается при каждой загрузке.
	f.cache.mu.Lock()
	defer f.cache.mu.Unlock()
	assert.Equal(t, 1, f.cache.flushed)
}

func TestReloadKeepsPreviousSnapshotOnError(t *testing.T) {
	catalog := buildCatalog(2)
	ml := &fakeML{vectors: map[string][]float32{
		"p1.jpg": {1, 0},
		"p2.jpg": {0, 1},
	}}

	f := newIndexUCFixture(&fakeCatalogSource{products: catalog}, &fakeBuildImages{}, ml)

	_, err := f.uc.Build(context.Background())
	require.NoError(t, err)
	_, err = f.uc.Reload(context.Background())
	require.NoError(t, err)

	before, err := f.holder.Active()
	require.NoError(t, err)

	// Рассинхронизированная пара артефактов отклоняется валидацией,
	// прежний снапшот продолжает обслуживать запросы.
	f.catalog.Save(buildCatalog(1))
	_, err = f.uc.Reload(context.Background())
	assert.ErrorIs(t, err, e.ErrAlignment)

	after, err := f.holder.Active()
	require.NoError(t, err)
	assert.Same(t, before, after)
}
