package http

import (
	_ "github.com/DRSN-tech/visual-matcher/docs" // Импорт сгенерированных файлов
	"github.com/DRSN-tech/visual-matcher/internal/usecase"
	"github.com/DRSN-tech/visual-matcher/pkg/logger"
	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

type Router struct {
	router *chi.Mux
	logger logger.Logger
}

func NewRouter(router *chi.Mux, logger logger.Logger) *Router {
	return &Router{router: router, logger: logger}
}

func (r *Router) Init(matcherUC usecase.MatcherUC, indexUC usecase.IndexUC) {
	r.router.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("http://localhost:8080/swagger/doc.json"), // ссылка на JSON
	))

	handler := NewMatcherHandler(matcherUC, indexUC, r.logger)

	r.router.Get("/health", handler.health)

	r.router.Route("/api/v1", func(v1 chi.Router) {
		registerMatcherRoutes(v1, handler)
	})
}

func registerMatcherRoutes(router chi.Router, handler *MatcherHandler) {
	router.Get("/health", handler.health)

	router.Route("/search", func(s chi.Router) {
		s.Post("/", handler.search)
		s.Post("/category", handler.searchByCategory)
	})

	router.Route("/products", func(pr chi.Router) {
		pr.Get("/", handler.listProducts)
		pr.Get("/{id}/recommendations", handler.recommendations)
	})

	router.Get("/categories", handler.categories)

	router.Post("/index/reload", handler.reloadIndex)
}
