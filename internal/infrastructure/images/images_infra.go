// Package images реализует работу с изображениями: скачивание изображения
// запроса по ссылке, сохранение изображений запросов в S3 и получение
// изображений каталога при сборке индекса.
package images

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/DRSN-tech/visual-matcher/internal/cfg"
	"github.com/DRSN-tech/visual-matcher/internal/domain"
	"github.com/DRSN-tech/visual-matcher/internal/infrastructure"
	"github.com/DRSN-tech/visual-matcher/internal/usecase"
	"github.com/DRSN-tech/visual-matcher/pkg/e"
	"github.com/DRSN-tech/visual-matcher/pkg/logger"
	"github.com/google/uuid"
)

const (
	fetchTimeout = 10 * time.Second
	maxFetchSize = 15 << 20
)

// QueryImages управляет изображениями поисковых запросов.
type QueryImages struct {
	imageRepo usecase.ImageRepository
	client    *http.Client
	cfg       *cfg.MinIOCfg
	logger    logger.Logger
}

func NewQueryImages(imageRepo usecase.ImageRepository, cfg *cfg.MinIOCfg, logger logger.Logger) *QueryImages {
	return &QueryImages{
		imageRepo: imageRepo,
		client:    &http.Client{Timeout: fetchTimeout},
		cfg:       cfg,
		logger:    logger,
	}
}

// FetchURL скачивает изображение запроса по внешней ссылке.
func (q *QueryImages) FetchURL(ctx context.Context, url string) (*usecase.QueryImage, error) {
	const op = "QueryImages.FetchURL"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	resp, err := q.client.Do(req)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, e.Wrap(op, fmt.Errorf("unexpected status %d for %s", resp.StatusCode, url))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchSize+1))
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	if len(data) > maxFetchSize {
		return nil, e.Wrap(op, e.ErrFileTooLarge)
	}

	mimeType := http.DetectContentType(data[:min(len(data), 512)])

	return usecase.NewQueryImage(data, mimeType, url), nil
}

// StoreQueryImage сохраняет изображение запроса в бакет журналирования.
func (q *QueryImages) StoreQueryImage(ctx context.Context, queryID string, image *usecase.QueryImage) error {
	const op = "QueryImages.StoreQueryImage"

	ext, err := infrastructure.GetExtensionFromMIME(image.MimeType)
	if err != nil {
		q.logger.Warnf("%s: unsupported query image type %s, storing as-is", op, image.MimeType)
	}

	size := int64(len(image.Data))
	objKey := fmt.Sprintf("queries/%s-%s.%s", time.Now().UTC().Format("2006-01-02"), queryID, ext)
	img := domain.NewImage(uuid.NewString(), q.cfg.QueriesBucket, objKey, image.Data, &size, &image.MimeType)

	if _, err := q.imageRepo.Upload(ctx, img); err != nil {
		return e.Wrap(op, err)
	}

	return nil
}

// MinioSource отдаёт изображения каталога из S3 по basename пути записи.
type MinioSource struct {
	imageRepo usecase.ImageRepository
}

func NewMinioSource(imageRepo usecase.ImageRepository) *MinioSource {
	return &MinioSource{imageRepo: imageRepo}
}

// FetchCatalogImage получает изображение записи каталога из бакета.
// Ключом объекта служит basename пути: исходные таблицы встречаются и с
// абсолютными, и с относительными путями.
func (m *MinioSource) FetchCatalogImage(ctx context.Context, imagePath string) ([]byte, error) {
	return m.imageRepo.Fetch(ctx, filepath.Base(imagePath))
}

// DirSource отдаёт изображения каталога из локальной директории.
type DirSource struct {
	dir string
}

func NewDirSource(dir string) *DirSource {
	return &DirSource{dir: dir}
}

func (d *DirSource) FetchCatalogImage(_ context.Context, imagePath string) ([]byte, error) {
	return os.ReadFile(filepath.Join(d.dir, filepath.Base(imagePath)))
}
