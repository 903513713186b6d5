package usecase

import "context"

// MatcherUC — запросы к активному снапшоту индекса.
type MatcherUC interface {
	Search(ctx context.Context, req *SearchReq) (*SearchRes, error)
	SearchByCategory(ctx context.Context, req *SearchByCategoryReq) (*SearchRes, error)
	Recommend(ctx context.Context, req *RecommendReq) (*SearchRes, error)
	ListProducts(ctx context.Context, req *ListProductsReq) (*ListProductsRes, error)
	Categories(ctx context.Context) (*CategoriesRes, error)
	Health(ctx context.Context) *HealthRes
}

// IndexUC — офлайн-сборка индекса и загрузка артефактов в снапшот.
type IndexUC interface {
	Build(ctx context.Context) (*BuildRes, error)
	Reload(ctx context.Context) (*ReloadRes, error)
}
