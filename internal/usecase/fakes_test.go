package usecase

import (
	"context"
	"fmt"
	"sync"

	"github.com/DRSN-tech/visual-matcher/internal/domain"
	"github.com/DRSN-tech/visual-matcher/internal/index"
	"github.com/DRSN-tech/visual-matcher/pkg/e"
)

type fakeCatalogSource struct {
	products []domain.Product
	err      error
}

func (f *fakeCatalogSource) ListProducts(context.Context) ([]domain.Product, error) {
	return f.products, f.err
}

type memMatrixArtifact struct {
	mu      sync.Mutex
	matrix  *index.Matrix
	loadErr error
}

func (a *memMatrixArtifact) Save(m *index.Matrix) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.matrix = m
	return nil
}

func (a *memMatrixArtifact) Load() (*index.Matrix, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.loadErr != nil {
		return nil, a.loadErr
	}
	if a.matrix == nil {
		return nil, fmt.Errorf("no matrix saved")
	}
	return a.matrix, nil
}

type memCatalogArtifact struct {
	mu       sync.Mutex
	products []domain.Product
}

func (a *memCatalogArtifact) Save(products []domain.Product) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.products = products
	return nil
}

func (a *memCatalogArtifact) Load() ([]domain.Product, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.products == nil {
		return nil, fmt.Errorf("no catalog saved")
	}
	return a.products, nil
}

// fakeBuildImages возвращает путь изображения как его содержимое,
// чтобы экстрактор мог сопоставить вектор конкретной записи.
type fakeBuildImages struct {
	failPaths map[string]bool
}

func (f *fakeBuildImages) FetchCatalogImage(_ context.Context, imagePath string) ([]byte, error) {
	if f.failPaths[imagePath] {
		return nil, e.ErrImageNotFound
	}
	return []byte(imagePath), nil
}

type fakeML struct {
	vectors map[string][]float32 // ключ — содержимое изображения
	fail    map[string]bool
	fixed   []float32 // возвращается, когда vectors == nil
}

func (f *fakeML) Vectorize(_ context.Context, image []byte) (*VectorizeRes, error) {
	key := string(image)
	if f.fail[key] {
		return nil, e.ErrExtraction
	}
	if f.vectors == nil {
		return NewVectorizeRes(f.fixed, "test-model"), nil
	}
	v, ok := f.vectors[key]
	if !ok {
		return nil, e.ErrExtraction
	}
	return NewVectorizeRes(v, "test-model"), nil
}

type fakeEvents struct {
	mu       sync.Mutex
	searches []*SearchEvent
	built    []*IndexBuiltEvent
}

func (f *fakeEvents) PublishSearch(_ context.Context, event *SearchEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searches = append(f.searches, event)
	return nil
}

func (f *fakeEvents) PublishIndexBuilt(_ context.Context, event *IndexBuiltEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.built = append(f.built, event)
	return nil
}

type fakeCache struct {
	mu      sync.Mutex
	store   map[string][]QueryResult
	flushed int
}

func (f *fakeCache) key(productID string, topK int) string {
	return fmt.Sprintf("%s:%d", productID, topK)
}

func (f *fakeCache) GetRecommendations(_ context.Context, productID string, topK int) ([]QueryResult, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	results, ok := f.store[f.key(productID, topK)]
	return results, ok, nil
}

func (f *fakeCache) SetRecommendations(_ context.Context, productID string, topK int, results []QueryResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.store == nil {
		f.store = make(map[string][]QueryResult)
	}
	f.store[f.key(productID, topK)] = results
	return nil
}

func (f *fakeCache) Flush(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.store = nil
	f.flushed++
	return nil
}

type fakeQueryImages struct {
	mu      sync.Mutex
	fetched map[string]*QueryImage
	stored  int
}

func (f *fakeQueryImages) FetchURL(_ context.Context, url string) (*QueryImage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	img, ok := f.fetched[url]
	if !ok {
		return nil, e.ErrImageNotFound
	}
	return img, nil
}

func (f *fakeQueryImages) StoreQueryImage(_ context.Context, _ string, _ *QueryImage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stored++
	return nil
}
