package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/DRSN-tech/visual-matcher/internal/usecase"
	"github.com/DRSN-tech/visual-matcher/pkg/e"
	"github.com/DRSN-tech/visual-matcher/pkg/logger"
	"github.com/go-chi/chi/v5"
)

type MatcherHandler struct {
	matcherUsecase usecase.MatcherUC
	indexUsecase   usecase.IndexUC
	logger         logger.Logger
}

func NewMatcherHandler(matcherUsecase usecase.MatcherUC, indexUsecase usecase.IndexUC, logger logger.Logger) *MatcherHandler {
	return &MatcherHandler{matcherUsecase: matcherUsecase, indexUsecase: indexUsecase, logger: logger}
}

// search
//
//	@Summary		Визуальный поиск по каталогу
//	@Description	Ищет визуально похожие товары по изображению, URL изображения или готовому вектору
//	@Tags			search
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			image		formData	file	false	"Изображение запроса"
//	@Param			image_url	formData	string	false	"URL изображения"
//	@Param			embedding	formData	string	false	"Готовый вектор запроса (JSON-массив чисел)"
//	@Param			top_k		formData	integer	false	"Максимальное число результатов"
//	@Param			threshold	formData	number	false	"Минимальная косинусная близость"
//	@Success		200			{object}	usecase.SearchRes
//	@Failure		400			{object}	ErrorResponse	"Ошибка валидации"
//	@Failure		503			{object}	ErrorResponse	"Индекс не загружен"
//	@Router			/search [post]
func (m *MatcherHandler) search(w http.ResponseWriter, r *http.Request) {
	req, err := m.parseSearchRequest(w, r)
	if err != nil {
		m.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	res, err := m.matcherUsecase.Search(r.Context(), req)
	if err != nil {
		m.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, res)
}

// searchByCategory
//
//	@Summary		Визуальный поиск внутри категории
//	@Description	Ищет визуально похожие товары, ограничиваясь одной категорией каталога
//	@Tags			search
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			category	formData	string	true	"Категория каталога"
//	@Param			image		formData	file	false	"Изображение запроса"
//	@Param			image_url	formData	string	false	"URL изображения"
//	@Param			embedding	formData	string	false	"Готовый вектор запроса (JSON-массив чисел)"
//	@Param			top_k		formData	integer	false	"Максимальное число результатов"
//	@Success		200			{object}	usecase.SearchRes
//	@Failure		400			{object}	ErrorResponse	"Ошибка валидации"
//	@Failure		503			{object}	ErrorResponse	"Индекс не загружен"
//	@Router			/search/category [post]
func (m *MatcherHandler) searchByCategory(w http.ResponseWriter, r *http.Request) {
	req, err := m.parseSearchRequest(w, r)
	if err != nil {
		m.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	category := r.FormValue("category")
	if strings.TrimSpace(category) == "" {
		m.logger.Warnf("%d %s: empty category", http.StatusBadRequest, e.ErrStatusBadRequest.Error())
		WriteError(w, e.ErrStatusBadRequest)
		return
	}

	res, err := m.matcherUsecase.SearchByCategory(r.Context(), &usecase.SearchByCategoryReq{
		Image:     req.Image,
		ImageURL:  req.ImageURL,
		Embedding: req.Embedding,
		Category:  category,
		TopK:      req.TopK,
	})
	if err != nil {
		m.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, res)
}

// recommendations
//
//	@Summary		Рекомендации для товара
//	@Description	Возвращает визуально похожие товары каталога для заданного товара
//	@Tags			products
//	@Produce		json
//	@Param			id		path		string	true	"ID товара"
//	@Param			top_k	query		integer	false	"Максимальное число рекомендаций"
//	@Success		200		{object}	usecase.SearchRes
//	@Failure		404		{object}	ErrorResponse	"Товар не найден"
//	@Failure		503		{object}	ErrorResponse	"Индекс не загружен"
//	@Router			/products/{id}/recommendations [get]
func (m *MatcherHandler) recommendations(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "id")

	topK, err := parseTopK(r.URL.Query().Get("top_k"))
	if err != nil {
		m.logger.Warnf("%d %s: %s", http.StatusBadRequest, e.ErrStatusBadRequest.Error(), err.Error())
		WriteError(w, err)
		return
	}

	res, err := m.matcherUsecase.Recommend(r.Context(), &usecase.RecommendReq{
		ProductID: productID,
		TopK:      topK,
	})
	if err != nil {
		m.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, res)
}

// listProducts
//
//	@Summary		Список товаров каталога
//	@Description	Возвращает товары активного снапшота с фильтрами по категории и доступности
//	@Tags			products
//	@Produce		json
//	@Param			category	query		string	false	"Категория (пусто или all — без фильтра)"
//	@Param			available	query		boolean	false	"Фильтр доступности"
//	@Param			limit		query		integer	false	"Максимальное число записей"
//	@Success		200			{object}	usecase.ListProductsRes
//	@Failure		503			{object}	ErrorResponse	"Индекс не загружен"
//	@Router			/products [get]
func (m *MatcherHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	req := &usecase.ListProductsReq{
		Category: r.URL.Query().Get("category"),
	}

	if v := r.URL.Query().Get("available"); v != "" {
		available, err := strconv.ParseBool(v)
		if err != nil {
			m.logger.Warnf("%d %s: available=%s", http.StatusBadRequest, e.ErrStatusBadRequest.Error(), v)
			WriteError(w, e.ErrStatusBadRequest)
			return
		}
		req.Available = &available
	}

	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			m.logger.Warnf("%d %s: limit=%s", http.StatusBadRequest, e.ErrStatusBadRequest.Error(), v)
			WriteError(w, e.ErrStatusBadRequest)
			return
		}
		req.Limit = limit
	}

	res, err := m.matcherUsecase.ListProducts(r.Context(), req)
	if err != nil {
		m.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, res)
}

// categories
//
//	@Summary		Список категорий каталога
//	@Produce		json
//	@Tags			products
//	@Success		200	{object}	usecase.CategoriesRes
//	@Failure		503	{object}	ErrorResponse	"Индекс не загружен"
//	@Router			/categories [get]
func (m *MatcherHandler) categories(w http.ResponseWriter, r *http.Request) {
	res, err := m.matcherUsecase.Categories(r.Context())
	if err != nil {
		m.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, res)
}

// health
//
//	@Summary		Состояние сервиса
//	@Produce		json
//	@Tags			service
//	@Success		200	{object}	usecase.HealthRes
//	@Router			/health [get]
func (m *MatcherHandler) health(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(w, http.StatusOK, m.matcherUsecase.Health(r.Context()))
}

// reloadIndex
//
//	@Summary		Перезагрузка индекса
//	@Description	Загружает артефакты индекса с диска и атомарно подменяет активный снапшот
//	@Produce		json
//	@Tags			service
//	@Success		200	{object}	usecase.ReloadRes
//	@Failure		422	{object}	ErrorResponse	"Артефакты не прошли валидацию"
//	@Router			/index/reload [post]
func (m *MatcherHandler) reloadIndex(w http.ResponseWriter, r *http.Request) {
	res, err := m.indexUsecase.Reload(r.Context())
	if err != nil {
		m.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, res)
}

// parseSearchRequest разбирает общую часть поисковых запросов:
// источник запроса (файл, URL или вектор) и параметры ранжирования.
func (m *MatcherHandler) parseSearchRequest(w http.ResponseWriter, r *http.Request) (*usecase.SearchReq, error) {
	const (
		maxTotalRequestSize = 50 << 20
		maxMemory           = 32 << 20
	)

	r.Body = http.MaxBytesReader(w, r.Body, maxTotalRequestSize)

	if err := ensureMultipartForm(r, maxMemory); err != nil {
		return nil, err
	}

	image, err := parseQueryImage(r)
	if err != nil {
		return nil, err
	}

	embedding, err := parseEmbedding(r.FormValue("embedding"))
	if err != nil {
		return nil, err
	}

	topK, err := parseTopK(r.FormValue("top_k"))
	if err != nil {
		return nil, err
	}

	threshold, err := parseThreshold(r.FormValue("threshold"))
	if err != nil {
		return nil, err
	}

	return &usecase.SearchReq{
		Image:     image,
		ImageURL:  r.FormValue("image_url"),
		Embedding: embedding,
		TopK:      topK,
		Threshold: threshold,
	}, nil
}
