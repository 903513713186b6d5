package e

import "fmt"

var (
	// Ошибки целостности индекса
	ErrAlignment           = fmt.Errorf("matrix row count does not match record count")
	ErrCorruptEmbedding    = fmt.Errorf("embedding contains non-finite value")
	ErrUnexpectedDimension = fmt.Errorf("unexpected embedding dimension")
	ErrEmptyIndex          = fmt.Errorf("index build produced zero usable vectors")
	ErrIndexNotLoaded      = fmt.Errorf("index is not loaded")

	// Ошибки векторных операций
	ErrDegenerateVector  = fmt.Errorf("vector has zero or non-finite norm")
	ErrDimensionMismatch = fmt.Errorf("vector dimension mismatch")

	// Ошибки запросов
	ErrProductNotFound = fmt.Errorf("product not found")
	ErrNoQueryInput    = fmt.Errorf("either file, image_url or embedding must be provided")

	// Ошибки сборки индекса
	ErrExtraction    = fmt.Errorf("embedding extraction failed")
	ErrImageNotFound = fmt.Errorf("image not found")
	ErrCatalogEmpty  = fmt.Errorf("catalog has no records")

	// 400 Bad Request
	ErrStatusBadRequest     = fmt.Errorf("bad request")
	ErrExpectedMultipart    = fmt.Errorf("expected multipart/form-data")
	ErrInvalidTopK          = fmt.Errorf("top_k must be a non-negative integer")
	ErrInvalidThreshold     = fmt.Errorf("threshold must be a number in [-1, 1]")
	ErrFileTooLarge         = fmt.Errorf("file too large")
	ErrUnsupportedMediaType = fmt.Errorf("unsupported media type")

	// Конфигурация
	ErrIncorrectEnvVariable = fmt.Errorf("incorrect environment variable")

	// 500 Internal Server Error
	ErrInternalServerError = fmt.Errorf("internal server error")
)

// Wrap оборачивает ошибку
func Wrap(msg string, err error) error {
	return fmt.Errorf("%s: %w", msg, err)
}
