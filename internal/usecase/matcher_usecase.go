package usecase

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/DRSN-tech/visual-matcher/internal/cfg"
	"github.com/DRSN-tech/visual-matcher/internal/domain"
	"github.com/DRSN-tech/visual-matcher/internal/index"
	"github.com/DRSN-tech/visual-matcher/pkg/e"
	"github.com/DRSN-tech/visual-matcher/pkg/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MatcherUseCase реализует поисковые операции поверх активного снапшота.
// Все операции — чистое чтение: снапшот берётся из Holder в начале
// запроса и используется до конца, подмена индекса его не затрагивает.
type MatcherUseCase struct {
	holder    *index.Holder
	engine    *index.Engine
	mlService MlServiceInfra
	images    QueryImagesInfra
	cacheRepo CacheRepository
	events    EventsInfra
	cfg       *cfg.IndexCfg
	logger    logger.Logger
}

func NewMatcherUC(
	holder *index.Holder,
	engine *index.Engine,
	mlService MlServiceInfra,
	images QueryImagesInfra,
	cacheRepo CacheRepository,
	events EventsInfra,
	cfg *cfg.IndexCfg,
	logger logger.Logger,
) *MatcherUseCase {
	return &MatcherUseCase{
		holder:    holder,
		engine:    engine,
		mlService: mlService,
		images:    images,
		cacheRepo: cacheRepo,
		events:    events,
		cfg:       cfg,
		logger:    logger,
	}
}

// Search выполняет глобальный поиск ближайших записей каталога.
func (m *MatcherUseCase) Search(ctx context.Context, req *SearchReq) (*SearchRes, error) {
	const op = "MatcherUseCase.Search"

	snap, err := m.holder.Active()
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	query, err := m.resolveQuery(ctx, req.Image, req.ImageURL, req.Embedding)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	topK := m.effectiveTopK(req.TopK, m.cfg.DefaultTopK)

	matches, err := m.engine.Search(ctx, snap, query.embedding, topK, req.Threshold)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	res := NewSearchRes(uuid.NewString(), m.toQueryResults(snap, matches))
	m.logQuery(res, query, req.TopK, req.Threshold, "")

	return res, nil
}

// SearchByCategory выполняет поиск внутри одной категории каталога.
func (m *MatcherUseCase) SearchByCategory(ctx context.Context, req *SearchByCategoryReq) (*SearchRes, error) {
	const op = "MatcherUseCase.SearchByCategory"

	snap, err := m.holder.Active()
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	query, err := m.resolveQuery(ctx, req.Image, req.ImageURL, req.Embedding)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	topK := m.effectiveTopK(req.TopK, m.cfg.DefaultTopK)

	matches, err := m.engine.SearchByCategory(ctx, snap, query.embedding, req.Category, topK)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	res := NewSearchRes(uuid.NewString(), m.toQueryResults(snap, matches))
	m.logQuery(res, query, req.TopK, 0, req.Category)

	return res, nil
}

// Recommend возвращает записи, ближайшие к эмбеддингу продукта каталога.
// Сам продукт в выдачу не попадает. Результат кэшируется до следующей
// перезагрузки индекса.
func (m *MatcherUseCase) Recommend(ctx context.Context, req *RecommendReq) (*SearchRes, error) {
	const op = "MatcherUseCase.Recommend"

	snap, err := m.holder.Active()
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	topK := m.effectiveTopK(req.TopK, m.cfg.RecsTopK)

	if cached, ok, err := m.cacheRepo.GetRecommendations(ctx, req.ProductID, topK); err != nil {
		m.logger.Warnf("recommendations cache lookup failed: %v", e.Wrap(op, err))
	} else if ok {
		return NewSearchRes(uuid.NewString(), cached), nil
	}

	matches, err := m.engine.Recommend(ctx, snap, req.ProductID, topK)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	results := m.toQueryResults(snap, matches)

	// Фоновое добавление результата в кэш
	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
		defer cancel()

		if err := m.cacheRepo.SetRecommendations(bgCtx, req.ProductID, topK, results); err != nil {
			m.logger.Warnf("Failed to cache recommendations in background: %v", e.Wrap(op, err))
		}
	}()

	return NewSearchRes(uuid.NewString(), results), nil
}

// ListProducts возвращает записи активного снапшота с фильтрами по
// категории, доступности и лимиту.
func (m *MatcherUseCase) ListProducts(ctx context.Context, req *ListProductsReq) (*ListProductsRes, error) {
	const op = "MatcherUseCase.ListProducts"

	snap, err := m.holder.Active()
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	filterCategory := req.Category != "" && !strings.EqualFold(req.Category, "all")

	products := make([]ProductInfo, 0, snap.Size())
	for _, p := range snap.Products() {
		if filterCategory && !p.MatchesCategory(req.Category) {
			continue
		}
		if req.Available != nil && p.Available != *req.Available {
			continue
		}

		products = append(products, toProductInfo(p))
		if req.Limit > 0 && len(products) >= req.Limit {
			break
		}
	}

	return &ListProductsRes{
		Products:  products,
		Total:     len(products),
		Timestamp: time.Now().UTC(),
	}, nil
}

// Categories возвращает "All" и отсортированный список уникальных категорий.
func (m *MatcherUseCase) Categories(ctx context.Context) (*CategoriesRes, error) {
	const op = "MatcherUseCase.Categories"

	snap, err := m.holder.Active()
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	seen := make(map[string]struct{})
	unique := make([]string, 0)
	for _, p := range snap.Products() {
		if _, ok := seen[p.Category]; ok {
			continue
		}
		seen[p.Category] = struct{}{}
		unique = append(unique, p.Category)
	}
	sort.Strings(unique)

	return &CategoriesRes{
		Categories: append([]string{"All"}, unique...),
		Timestamp:  time.Now().UTC(),
	}, nil
}

// Health сообщает состояние сервиса и загруженность индекса.
func (m *MatcherUseCase) Health(ctx context.Context) *HealthRes {
	res := &HealthRes{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
	}

	if snap, err := m.holder.Active(); err == nil {
		res.IndexLoaded = true
		res.ProductCount = snap.Size()
		res.Dimension = snap.Matrix().Dim()
	}

	return res
}

// resolvedQuery — эмбеддинг запроса вместе с данными для логирования.
type resolvedQuery struct {
	embedding []float32
	inputType string
	inputName string
	image     *QueryImage
}

// resolveQuery приводит запрос к эмбеддингу: готовый вектор используется
// как есть, изображение (загруженное или по ссылке) векторизуется
// внешним экстрактором.
func (m *MatcherUseCase) resolveQuery(ctx context.Context, image *QueryImage, imageURL string, embedding []float32) (*resolvedQuery, error) {
	switch {
	case len(embedding) > 0:
		return &resolvedQuery{embedding: embedding, inputType: "embedding"}, nil

	case image != nil:
		vec, err := m.mlService.Vectorize(ctx, image.Data)
		if err != nil {
			return nil, err
		}
		return &resolvedQuery{
			embedding: vec.Vector,
			inputType: "file",
			inputName: image.Name,
			image:     image,
		}, nil

	case imageURL != "":
		fetched, err := m.images.FetchURL(ctx, imageURL)
		if err != nil {
			return nil, err
		}
		vec, err := m.mlService.Vectorize(ctx, fetched.Data)
		if err != nil {
			return nil, err
		}
		return &resolvedQuery{
			embedding: vec.Vector,
			inputType: "url",
			inputName: imageURL,
			image:     fetched,
		}, nil

	default:
		return nil, e.ErrNoQueryInput
	}
}

// logQuery в фоне сохраняет изображение запроса и публикует аналитическое
// событие. Ошибки логирования не влияют на ответ пользователю.
func (m *MatcherUseCase) logQuery(res *SearchRes, query *resolvedQuery, topK int, threshold float64, category string) {
	const op = "MatcherUseCase.logQuery"

	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if query.image != nil {
			if err := m.images.StoreQueryImage(bgCtx, res.QueryID, query.image); err != nil {
				m.logger.Warnf("Failed to store query image: %v", e.Wrap(op, err))
			}
		}

		event := &SearchEvent{
			QueryID:      res.QueryID,
			InputType:    query.inputType,
			InputName:    query.inputName,
			TopK:         topK,
			Threshold:    threshold,
			Category:     category,
			ResultsCount: res.TotalResults,
			Timestamp:    res.Timestamp,
		}
		if err := m.events.PublishSearch(bgCtx, event); err != nil {
			m.logger.Warnf("Failed to publish search event: %v", e.Wrap(op, err))
		}
	}()
}

// effectiveTopK подставляет значение по умолчанию, когда запрос его не задал.
func (m *MatcherUseCase) effectiveTopK(requested, fallback int) int {
	if requested == 0 {
		return fallback
	}
	return requested
}

// toQueryResults копирует записи каталога в результаты запроса с
// округлёнными полями близости.
func (m *MatcherUseCase) toQueryResults(snap *index.Snapshot, matches []index.Match) []QueryResult {
	results := make([]QueryResult, 0, len(matches))
	for _, match := range matches {
		p := snap.Product(match.Row)
		results = append(results, QueryResult{
			ID:                   p.ID,
			Name:                 p.Name,
			Category:             p.Category,
			Available:            p.Available,
			ImagePath:            p.ImagePath,
			Extra:                p.Extra,
			Similarity:           roundScore(match.Score, 4),
			SimilarityPercentage: roundScore(match.Score*100, 2),
		})
	}

	return results
}

// roundScore округляет значение близости до заданного числа знаков.
func roundScore(score float64, places int32) float64 {
	return decimal.NewFromFloat(score).Round(places).InexactFloat64()
}

func toProductInfo(p domain.Product) ProductInfo {
	return ProductInfo{
		ID:        p.ID,
		Name:      p.Name,
		Category:  p.Category,
		Available: p.Available,
		ImagePath: p.ImagePath,
		Extra:     p.Extra,
	}
}
