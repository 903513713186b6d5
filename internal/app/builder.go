package app

import (
	"context"
	"time"

	config "github.com/DRSN-tech/visual-matcher/internal/cfg"
	"github.com/DRSN-tech/visual-matcher/internal/infrastructure/kafka"
	ml_service "github.com/DRSN-tech/visual-matcher/internal/infrastructure/ml-service"
	"github.com/DRSN-tech/visual-matcher/internal/index"
	"github.com/DRSN-tech/visual-matcher/internal/repository/artifact"
	s3Repo "github.com/DRSN-tech/visual-matcher/internal/repository/minio"
	"github.com/DRSN-tech/visual-matcher/internal/repository/redis"
	"github.com/DRSN-tech/visual-matcher/internal/usecase"
	"github.com/DRSN-tech/visual-matcher/pkg/clients"
	"github.com/DRSN-tech/visual-matcher/pkg/closer"
	"github.com/DRSN-tech/visual-matcher/pkg/e"
	"github.com/DRSN-tech/visual-matcher/pkg/logger"
	"github.com/jimlawless/whereami"
)

// RunBuild выполняет офлайн-сборку индекса: обходит сырой каталог,
// извлекает векторы и записывает артефакты на диск.
func RunBuild(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	cl := closer.NewCloser(2 * time.Second)
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := cl.Close(closeCtx); err != nil {
			log.Warnf("builder shutdown finished with errors: %v", err)
		}
	}()

	minioClient, err := clients.NewMinIOClient(cfg)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}
	imageRepo := s3Repo.NewImageRepo(minioClient, cfg.Minio)

	catalogSource, err := initCatalogSource(cfg, log, cl)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	buildImages, err := initBuildImages(cfg, imageRepo)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	producer, err := kafka.NewProducer(log, cfg.Kafka)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}
	if err := producer.EnsureTopic(10 * time.Second); err != nil {
		log.Warnf("kafka topic unavailable, build events will be dropped: %v", err)
	}
	cl.Add(func(_ context.Context) error {
		return producer.Close()
	})

	redisClient := clients.NewRedisClient(cfg.Redis)
	cl.Add(func(_ context.Context) error {
		return redisClient.Client.Close()
	})
	cacheRepo := redis.NewCacheRepo(redisClient, cfg.Redis, log)

	ml := ml_service.NewMLService(cfg.Ml, log)

	indexUC := usecase.NewIndexUC(
		catalogSource,
		artifact.NewMatrixRepo(cfg.Index.MatrixPath),
		artifact.NewCatalogRepo(cfg.Index.CatalogPath),
		buildImages, ml, producer, cacheRepo,
		index.NewHolder(), cfg.Index, cfg.Builder, log,
	)

	res, err := indexUC.Build(ctx)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	log.Infof("index built: %d/%d records valid (%d skipped), dim %d",
		res.Valid, res.Total, res.Skipped, res.Dimension)

	return nil
}
