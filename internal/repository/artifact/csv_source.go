package artifact

import (
	"context"

	"github.com/DRSN-tech/visual-matcher/internal/domain"
)

// CSVSource адаптирует CSV-файл каталога под источник продуктов сборщика.
// Формат файла совпадает с форматом таблицы валидных продуктов.
type CSVSource struct {
	repo *CatalogRepo
}

func NewCSVSource(path string) *CSVSource {
	return &CSVSource{
		repo: NewCatalogRepo(path),
	}
}

func (s *CSVSource) ListProducts(_ context.Context) ([]domain.Product, error) {
	return s.repo.Load()
}
