package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/DRSN-tech/visual-matcher/internal/cfg"
	"github.com/DRSN-tech/visual-matcher/internal/usecase"
	"github.com/DRSN-tech/visual-matcher/pkg/clients"
	"github.com/DRSN-tech/visual-matcher/pkg/e"
	"github.com/DRSN-tech/visual-matcher/pkg/logger"
	"github.com/jimlawless/whereami"
	"github.com/redis/go-redis/v9"
)

// recsKeyPattern — пространство ключей кэша рекомендаций.
// После пересборки индекса всё пространство инвалидируется целиком.
const recsKeyPattern = "recs:*"

type CacheRepo struct {
	client *clients.RedisClient
	cfg    *cfg.RedisCfg
	logger logger.Logger
}

func NewCacheRepo(client *clients.RedisClient, cfg *cfg.RedisCfg, logger logger.Logger) *CacheRepo {
	return &CacheRepo{
		client: client,
		cfg:    cfg,
		logger: logger,
	}
}

// GetRecommendations возвращает закэшированный список рекомендаций.
// Второй результат — признак попадания: промах кэша не является ошибкой.
func (r *CacheRepo) GetRecommendations(ctx context.Context, productID string, topK int) ([]usecase.QueryResult, bool, error) {
	key := r.recsKey(productID, topK)

	data, err := r.client.Client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, e.Wrap(whereami.WhereAmI(), err)
	}

	var results []usecase.QueryResult
	if err := json.Unmarshal(data, &results); err != nil {
		r.logger.Warnf("Redis unmarshal failed: %v", e.Wrap(whereami.WhereAmI(), err))
		if err := r.client.Client.Del(context.Background(), key).Err(); err != nil {
			r.logger.Warnf("Redis del failed: %v", e.Wrap(whereami.WhereAmI(), err))
		}

		return nil, false, nil
	}

	return results, true, nil
}

// SetRecommendations кэширует список рекомендаций с TTL из конфигурации.
// Ошибки сериализации/записи не фатальны и только логируются.
func (r *CacheRepo) SetRecommendations(ctx context.Context, productID string, topK int, results []usecase.QueryResult) error {
	data, err := json.Marshal(results)
	if err != nil {
		r.logger.Warnf("Failed to marshal recommendations for caching (Product ID: %s): %v",
			productID, e.Wrap(whereami.WhereAmI(), err))
		return nil
	}

	key := r.recsKey(productID, topK)
	if err := r.client.Client.Set(ctx, key, data, r.cfg.RecsTTL).Err(); err != nil {
		r.logger.Warnf("Redis SET failed: %v", e.Wrap(whereami.WhereAmI(), err))
	}

	return nil
}

// Flush удаляет все ключи кэша рекомендаций.
// Вызывается после перезагрузки снапшота индекса.
func (r *CacheRepo) Flush(ctx context.Context) error {
	iter := r.client.Client.Scan(ctx, 0, recsKeyPattern, 0).Iterator()

	pipeline := r.client.Client.Pipeline()
	for iter.Next(ctx) {
		pipeline.Del(ctx, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if _, err := pipeline.Exec(ctx); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// recsKey возвращает Redis-ключ для рекомендаций одного продукта.
func (r *CacheRepo) recsKey(productID string, topK int) string {
	return fmt.Sprintf("recs:%s:%d", productID, topK)
}
