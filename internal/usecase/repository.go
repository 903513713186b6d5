package usecase

import (
	"context"

	"github.com/DRSN-tech/visual-matcher/internal/domain"
	"github.com/DRSN-tech/visual-matcher/internal/index"
)

// CatalogSource — источник сырого каталога для сборщика индекса
// (таблица products в PostgreSQL или CSV-файл).
type CatalogSource interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
}

// MatrixArtifact — бинарный артефакт матрицы эмбеддингов.
type MatrixArtifact interface {
	Save(m *index.Matrix) error
	Load() (*index.Matrix, error)
}

// CatalogArtifact — таблица валидных продуктов, выровненная с матрицей.
type CatalogArtifact interface {
	Save(products []domain.Product) error
	Load() ([]domain.Product, error)
}

// ImageRepository — изображения каталога и поисковых запросов в S3.
type ImageRepository interface {
	Fetch(ctx context.Context, objectKey string) ([]byte, error)
	Upload(ctx context.Context, image *domain.Image) (string, error)
}

// CacheRepository — кэш результатов рекомендаций.
type CacheRepository interface {
	GetRecommendations(ctx context.Context, productID string, topK int) ([]QueryResult, bool, error)
	SetRecommendations(ctx context.Context, productID string, topK int, results []QueryResult) error
	Flush(ctx context.Context) error
}
