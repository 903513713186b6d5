package usecase

import "time"

// MATCHER USECASE

// QueryImage представляет изображение запроса, загруженное через multipart/form-data.
type QueryImage struct {
	Data     []byte // байты изображения
	MimeType string // Content-Type из multipart (image/jpeg)
	Name     string // оригинальное имя файла (для логов)
}

// SearchReq — запрос визуального поиска. Ровно один источник запроса
// должен быть задан: Image, ImageURL или готовый Embedding.
type SearchReq struct {
	Image     *QueryImage
	ImageURL  string
	Embedding []float32
	TopK      int
	Threshold float64
}

// SearchByCategoryReq — поиск, ограниченный одной категорией каталога.
type SearchByCategoryReq struct {
	Image     *QueryImage
	ImageURL  string
	Embedding []float32
	Category  string
	TopK      int
}

// RecommendReq — запрос рекомендаций для продукта каталога.
type RecommendReq struct {
	ProductID string
	TopK      int
}

// QueryResult — запись каталога с вычисленной близостью к запросу.
type QueryResult struct {
	ID                   string            `json:"id"`
	Name                 string            `json:"name"`
	Category             string            `json:"category"`
	Available            bool              `json:"available"`
	ImagePath            string            `json:"image_path"`
	Extra                map[string]string `json:"extra,omitempty"`
	Similarity           float64           `json:"similarity"`
	SimilarityPercentage float64           `json:"similarity_percentage"`
}

// SearchRes — упорядоченная выдача одного поискового запроса.
type SearchRes struct {
	QueryID      string        `json:"query_id"`
	Results      []QueryResult `json:"results"`
	TotalResults int           `json:"total_results"`
	Timestamp    time.Time     `json:"timestamp"`
}

// ListProductsReq — фильтры списка продуктов. Category == "" или "all"
// означает все категории, Available == nil — без фильтра доступности,
// Limit <= 0 — без ограничения.
type ListProductsReq struct {
	Category  string
	Available *bool
	Limit     int
}

// ProductInfo — DTO записи каталога для внешнего использования.
type ProductInfo struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Category  string            `json:"category"`
	Available bool              `json:"available"`
	ImagePath string            `json:"image_path"`
	Extra     map[string]string `json:"extra,omitempty"`
}

type ListProductsRes struct {
	Products  []ProductInfo `json:"products"`
	Total     int           `json:"total"`
	Timestamp time.Time     `json:"timestamp"`
}

type CategoriesRes struct {
	Categories []string  `json:"categories"`
	Timestamp  time.Time `json:"timestamp"`
}

type HealthRes struct {
	Status       string    `json:"status"`
	IndexLoaded  bool      `json:"index_loaded"`
	ProductCount int       `json:"product_count"`
	Dimension    int       `json:"dimension"`
	Timestamp    time.Time `json:"timestamp"`
}

// INDEX USECASE

// BuildRes — итог офлайн-сборки индекса.
type BuildRes struct {
	Total     int // записей в исходном каталоге
	Valid     int // записей с успешно извлечённым вектором
	Skipped   int
	Dimension int
}

// ReloadRes — итог загрузки артефактов в активный снапшот.
type ReloadRes struct {
	Products  int `json:"products"`
	Dimension int `json:"dimension"`
}

// INFRASTRUCTURE

// VectorizeRes — результат векторизации одного изображения.
type VectorizeRes struct {
	Vector       []float32
	ModelVersion string
}

// SearchEvent — событие поискового запроса для аналитики.
type SearchEvent struct {
	QueryID      string    `json:"query_id"`
	InputType    string    `json:"input_type"` // file | url | embedding
	InputName    string    `json:"input_name"`
	TopK         int       `json:"top_k"`
	Threshold    float64   `json:"threshold"`
	Category     string    `json:"category,omitempty"`
	ResultsCount int       `json:"results_count"`
	Timestamp    time.Time `json:"timestamp"`
}

// IndexBuiltEvent — событие успешной сборки индекса.
type IndexBuiltEvent struct {
	Total     int       `json:"total"`
	Valid     int       `json:"valid"`
	Skipped   int       `json:"skipped"`
	Dimension int       `json:"dimension"`
	Timestamp time.Time `json:"timestamp"`
}

// MAPPERS

func NewVectorizeRes(vector []float32, modelVersion string) *VectorizeRes {
	return &VectorizeRes{
		Vector:       vector,
		ModelVersion: modelVersion,
	}
}

func NewQueryImage(data []byte, mimeType string, name string) *QueryImage {
	return &QueryImage{
		Data:     data,
		MimeType: mimeType,
		Name:     name,
	}
}

func NewSearchRes(queryID string, results []QueryResult) *SearchRes {
	return &SearchRes{
		QueryID:      queryID,
		Results:      results,
		TotalResults: len(results),
		Timestamp:    time.Now().UTC(),
	}
}
