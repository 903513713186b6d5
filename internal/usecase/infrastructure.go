package usecase

import "context"

// MlServiceInfra — внешний экстрактор эмбеддингов (чёрный ящик:
// изображение на входе, вектор фиксированной размерности на выходе).
type MlServiceInfra interface {
	Vectorize(ctx context.Context, image []byte) (*VectorizeRes, error)
}

// QueryImagesInfra — работа с изображениями поисковых запросов.
type QueryImagesInfra interface {
	FetchURL(ctx context.Context, url string) (*QueryImage, error)
	StoreQueryImage(ctx context.Context, queryID string, image *QueryImage) error
}

// EventsInfra — публикация аналитических событий.
type EventsInfra interface {
	PublishSearch(ctx context.Context, event *SearchEvent) error
	PublishIndexBuilt(ctx context.Context, event *IndexBuiltEvent) error
}
