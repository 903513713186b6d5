package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/DRSN-tech/visual-matcher/internal/cfg"
	"github.com/DRSN-tech/visual-matcher/internal/domain"
	"github.com/DRSN-tech/visual-matcher/internal/index"
	"github.com/DRSN-tech/visual-matcher/pkg/e"
	"github.com/DRSN-tech/visual-matcher/pkg/logger"
)

// BuildImagesInfra — источник изображений каталога при сборке индекса.
type BuildImagesInfra interface {
	FetchCatalogImage(ctx context.Context, imagePath string) ([]byte, error)
}

// IndexUseCase реализует офлайн-сборку индекса и загрузку артефактов
// в активный снапшот.
type IndexUseCase struct {
	catalogSource   CatalogSource
	matrixArtifact  MatrixArtifact
	catalogArtifact CatalogArtifact
	buildImages     BuildImagesInfra
	mlService       MlServiceInfra
	events          EventsInfra
	cacheRepo       CacheRepository
	holder          *index.Holder
	indexCfg        *cfg.IndexCfg
	builderCfg      *cfg.BuilderCfg
	logger          logger.Logger
}

func NewIndexUC(
	catalogSource CatalogSource,
	matrixArtifact MatrixArtifact,
	catalogArtifact CatalogArtifact,
	buildImages BuildImagesInfra,
	mlService MlServiceInfra,
	events EventsInfra,
	cacheRepo CacheRepository,
	holder *index.Holder,
	indexCfg *cfg.IndexCfg,
	builderCfg *cfg.BuilderCfg,
	logger logger.Logger,
) *IndexUseCase {
	return &IndexUseCase{
		catalogSource:   catalogSource,
		matrixArtifact:  matrixArtifact,
		catalogArtifact: catalogArtifact,
		buildImages:     buildImages,
		mlService:       mlService,
		events:          events,
		cacheRepo:       cacheRepo,
		holder:          holder,
		indexCfg:        indexCfg,
		builderCfg:      builderCfg,
		logger:          logger,
	}
}

// buildSlot — результат обработки одной записи каталога. Слоты выделяются
// по исходным позициям записей, поэтому параллельная обработка не меняет
// порядок: матрица собирается последовательным проходом по слотам.
type buildSlot struct {
	vector []float32
	ok     bool
}

// Build собирает индекс из сырого каталога: для каждой записи извлекается
// эмбеддинг её изображения; запись и вектор добавляются в артефакты только
// парой, что сохраняет инвариант выравнивания при пропусках. Ошибка
// обработки одной записи не прерывает сборку — запись пропускается с
// предупреждением в логе. Фатальны только пустой итог и ошибки записи
// артефактов.
func (u *IndexUseCase) Build(ctx context.Context) (*BuildRes, error) {
	const op = "IndexUseCase.Build"

	catalog, err := u.catalogSource.ListProducts(ctx)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	if len(catalog) == 0 {
		return nil, e.Wrap(op, e.ErrCatalogEmpty)
	}

	u.logger.Infof("index build started: %d catalog records", len(catalog))

	slots := u.extractAll(ctx, catalog)
	if err := ctx.Err(); err != nil {
		return nil, e.Wrap(op, err)
	}

	vectors := make([][]float32, 0, len(catalog))
	validProducts := make([]domain.Product, 0, len(catalog))
	for i, slot := range slots {
		if !slot.ok {
			continue
		}
		vectors = append(vectors, slot.vector)
		validProducts = append(validProducts, catalog[i])
	}

	if len(vectors) == 0 {
		return nil, e.Wrap(op, e.ErrEmptyIndex)
	}

	matrix, err := index.NewMatrix(vectors)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	if err := matrix.NormalizeRows(); err != nil {
		return nil, e.Wrap(op, err)
	}

	// Валидация собранной пары до записи на диск: битый артефакт не должен
	// попасть в файлы, с которыми потом работает загрузчик.
	if _, err := index.NewSnapshot(validProducts, matrix, u.indexCfg.AcceptedDims); err != nil {
		return nil, e.Wrap(op, err)
	}

	if err := u.matrixArtifact.Save(matrix); err != nil {
		return nil, e.Wrap(op, err)
	}
	if err := u.catalogArtifact.Save(validProducts); err != nil {
		return nil, e.Wrap(op, err)
	}

	res := &BuildRes{
		Total:     len(catalog),
		Valid:     len(validProducts),
		Skipped:   len(catalog) - len(validProducts),
		Dimension: matrix.Dim(),
	}

	u.logger.Infof("index build finished: %d/%d records, dim %d", res.Valid, res.Total, res.Dimension)

	if err := u.events.PublishIndexBuilt(ctx, &IndexBuiltEvent{
		Total:     res.Total,
		Valid:     res.Valid,
		Skipped:   res.Skipped,
		Dimension: res.Dimension,
		Timestamp: time.Now().UTC(),
	}); err != nil {
		u.logger.Warnf("Failed to publish index built event: %v", e.Wrap(op, err))
	}

	return res, nil
}

// extractAll обрабатывает записи каталога параллельно с ограничением
// одновременных запросов к экстрактору.
func (u *IndexUseCase) extractAll(ctx context.Context, catalog []domain.Product) []buildSlot {
	slots := make([]buildSlot, len(catalog))
	sem := make(chan struct{}, u.builderCfg.MaxConcurrent)

	var wg sync.WaitGroup
	for i, product := range catalog {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if ctx.Err() != nil {
				return
			}

			vector, err := u.extractOne(ctx, product)
			if err != nil {
				u.logger.Warnf("skipping product %s (%s): %v", product.ID, product.Name, err)
				return
			}

			slots[i] = buildSlot{vector: vector, ok: true}
		}()
	}
	wg.Wait()

	return slots
}

// extractOne получает изображение записи и извлекает его эмбеддинг.
// Вектор с нулевой или не конечной нормой отбраковывается здесь же,
// чтобы одна деградировавшая запись не валила всю сборку.
func (u *IndexUseCase) extractOne(ctx context.Context, product domain.Product) ([]float32, error) {
	data, err := u.buildImages.FetchCatalogImage(ctx, product.ImagePath)
	if err != nil {
		return nil, e.Wrap(product.ImagePath, e.ErrImageNotFound)
	}

	res, err := u.mlService.Vectorize(ctx, data)
	if err != nil {
		return nil, e.Wrap(product.ImagePath, e.ErrExtraction)
	}

	if _, err := index.Normalize(res.Vector); err != nil {
		return nil, e.Wrap(product.ImagePath, err)
	}

	return res.Vector, nil
}

// Reload загружает артефакты индекса, валидирует их и атомарно подменяет
// активный снапшот. При любой ошибке прежний снапшот остаётся в работе.
func (u *IndexUseCase) Reload(ctx context.Context) (*ReloadRes, error) {
	const op = "IndexUseCase.Reload"

	matrix, err := u.matrixArtifact.Load()
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	products, err := u.catalogArtifact.Load()
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	snap, err := index.NewSnapshot(products, matrix, u.indexCfg.AcceptedDims)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	u.holder.Swap(snap)
	u.logger.Infof("index snapshot loaded: %d products, dim %d", snap.Size(), matrix.Dim())

	// Кэш рекомендаций построен по прежнему снапшоту и больше не валиден.
	if err := u.cacheRepo.Flush(ctx); err != nil {
		u.logger.Warnf("Failed to flush recommendations cache: %v", e.Wrap(op, err))
	}

	return &ReloadRes{
		Products:  snap.Size(),
		Dimension: matrix.Dim(),
	}, nil
}
