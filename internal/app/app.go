package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/DRSN-tech/visual-matcher/internal/cfg"
	v1Http "github.com/DRSN-tech/visual-matcher/internal/delivery/v1/http"
	"github.com/DRSN-tech/visual-matcher/internal/infrastructure/images"
	"github.com/DRSN-tech/visual-matcher/internal/infrastructure/kafka"
	ml_service "github.com/DRSN-tech/visual-matcher/internal/infrastructure/ml-service"
	"github.com/DRSN-tech/visual-matcher/internal/index"
	"github.com/DRSN-tech/visual-matcher/internal/repository/artifact"
	s3Repo "github.com/DRSN-tech/visual-matcher/internal/repository/minio"
	"github.com/DRSN-tech/visual-matcher/internal/repository/pgdb"
	"github.com/DRSN-tech/visual-matcher/internal/repository/redis"
	"github.com/DRSN-tech/visual-matcher/internal/usecase"
	"github.com/DRSN-tech/visual-matcher/pkg/clients"
	"github.com/DRSN-tech/visual-matcher/pkg/closer"
	"github.com/DRSN-tech/visual-matcher/pkg/e"
	"github.com/DRSN-tech/visual-matcher/pkg/logger"
	"github.com/DRSN-tech/visual-matcher/pkg/postgres"
	"github.com/go-chi/chi/v5"
	"github.com/jimlawless/whereami"
)

// App собирает зависимости сервиса и управляет его жизненным циклом.
type App struct {
	cfg     *config.Config
	logger  logger.Logger
	closer  *closer.Closer
	httpSrv *v1Http.Server
	indexUC usecase.IndexUC
}

func NewApp(cfg *config.Config, log logger.Logger) (*App, error) {
	cl := closer.NewCloser(2 * time.Second)

	minioClient, err := clients.NewMinIOClient(cfg)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	minioCtx, minioCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer minioCancel()
	for _, bucket := range []string{cfg.Minio.BucketName, cfg.Minio.QueriesBucket} {
		if err := clients.EnsureBucket(minioCtx, minioClient, bucket); err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
	}

	imageRepo := s3Repo.NewImageRepo(minioClient, cfg.Minio)

	redisClient := clients.NewRedisClient(cfg.Redis)
	redisCtx, redisCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer redisCancel()
	if err := redisClient.Ping(redisCtx); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	cl.Add(func(_ context.Context) error {
		return redisClient.Client.Close()
	})
	cacheRepo := redis.NewCacheRepo(redisClient, cfg.Redis, log)

	catalogSource, err := initCatalogSource(cfg, log, cl)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	buildImages, err := initBuildImages(cfg, imageRepo)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	producer, err := kafka.NewProducer(log, cfg.Kafka)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	if err := producer.EnsureTopic(10 * time.Second); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	cl.Add(func(_ context.Context) error {
		return producer.Close()
	})

	ml := ml_service.NewMLService(cfg.Ml, log)
	queryImages := images.NewQueryImages(imageRepo, cfg.Minio, log)

	holder := index.NewHolder()
	engine := index.NewEngine(cfg.Index.ScanBatch, log)

	matrixArtifact := artifact.NewMatrixRepo(cfg.Index.MatrixPath)
	catalogArtifact := artifact.NewCatalogRepo(cfg.Index.CatalogPath)

	matcherUC := usecase.NewMatcherUC(holder, engine, ml, queryImages, cacheRepo, producer, cfg.Index, log)
	indexUC := usecase.NewIndexUC(
		catalogSource, matrixArtifact, catalogArtifact,
		buildImages, ml, producer, cacheRepo,
		holder, cfg.Index, cfg.Builder, log,
	)

	r := chi.NewRouter()
	router := v1Http.NewRouter(r, log)
	router.Init(matcherUC, indexUC)

	httpSrv := v1Http.NewServer(r, cfg.Http)
	cl.Add(func(ctx context.Context) error {
		return httpSrv.Stop(ctx)
	})

	return &App{
		cfg:     cfg,
		logger:  log,
		closer:  cl,
		httpSrv: httpSrv,
		indexUC: indexUC,
	}, nil
}

func (a *App) Run() error {
	// Сервис стартует и без артефактов: до первой успешной загрузки
	// поисковые ручки отвечают 503.
	reloadCtx, reloadCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if res, err := a.indexUC.Reload(reloadCtx); err != nil {
		a.logger.Warnf("index not loaded at startup: %v", err)
	} else {
		a.logger.Infof("index loaded: %d products, dim %d", res.Products, res.Dimension)
	}
	reloadCancel()

	errCh := make(chan error, 1)
	go func() {
		a.logger.Infof("HTTP server started on port %s", a.cfg.Http.Port)
		if err := a.httpSrv.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Errorf(err, "HTTP server failed")
			errCh <- err
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	var appErr error
	select {
	case appErr = <-errCh:
		a.logger.Errorf(appErr, "HTTP server fatal error")
	case <-shutdown:
		a.logger.Infof("Received shutdown signal, stopping gracefully...")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := a.closer.Close(shutdownCtx); err != nil {
		a.logger.Warnf("shutdown finished with errors: %v", err)
	} else {
		a.logger.Infof("Application shutdown complete")
	}

	return appErr
}

// initCatalogSource выбирает источник сырого каталога для сборщика.
func initCatalogSource(cfg *config.Config, log logger.Logger, cl *closer.Closer) (usecase.CatalogSource, error) {
	switch cfg.Builder.CatalogSource {
	case "postgres":
		db, err := initPGDB(log, cfg)
		if err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
		cl.Add(func(_ context.Context) error {
			db.Close()
			return nil
		})

		return pgdb.NewCatalogRepo(db.Pool), nil
	case "csv":
		return artifact.NewCSVSource(cfg.Builder.RawCatalogPath), nil
	default:
		return nil, e.Wrap("CATALOG_SOURCE: "+cfg.Builder.CatalogSource, e.ErrIncorrectEnvVariable)
	}
}

// initBuildImages выбирает источник изображений каталога для сборщика.
func initBuildImages(cfg *config.Config, imageRepo usecase.ImageRepository) (usecase.BuildImagesInfra, error) {
	switch cfg.Builder.ImageSource {
	case "minio":
		return images.NewMinioSource(imageRepo), nil
	case "dir":
		return images.NewDirSource(cfg.Builder.ImagesDir), nil
	default:
		return nil, e.Wrap("IMAGE_SOURCE: "+cfg.Builder.ImageSource, e.ErrIncorrectEnvVariable)
	}
}

func initPGDB(log logger.Logger, cfg *config.Config) (*postgres.PgDatabase, error) {
	db, err := postgres.Connect(cfg.Db)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if err := db.RunMigrations(log); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if err := db.Ping(); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return db, nil
}
