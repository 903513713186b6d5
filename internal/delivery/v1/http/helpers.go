package http

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/DRSN-tech/visual-matcher/internal/usecase"
	"github.com/DRSN-tech/visual-matcher/pkg/e"
	"github.com/jimlawless/whereami"
	"github.com/shopspring/decimal"
)

type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func NewErrorResponse(code int, message string) *ErrorResponse {
	return &ErrorResponse{
		Code:    code,
		Message: message,
	}
}

func ToHTTPResponse(err error) (int, string) {
	switch {
	case errors.Is(err, e.ErrIndexNotLoaded):
		return http.StatusServiceUnavailable, e.ErrIndexNotLoaded.Error()
	case errors.Is(err, e.ErrProductNotFound):
		return http.StatusNotFound, e.ErrProductNotFound.Error()
	case errors.Is(err, e.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, e.ErrFileTooLarge.Error()
	case errors.Is(err, e.ErrUnsupportedMediaType):
		return http.StatusUnsupportedMediaType, e.ErrUnsupportedMediaType.Error()
	case errors.Is(err, e.ErrStatusBadRequest):
		return http.StatusBadRequest, e.ErrStatusBadRequest.Error()
	case errors.Is(err, e.ErrExpectedMultipart):
		return http.StatusBadRequest, e.ErrExpectedMultipart.Error()
	case errors.Is(err, e.ErrNoQueryInput):
		return http.StatusBadRequest, e.ErrNoQueryInput.Error()
	case errors.Is(err, e.ErrInvalidTopK):
		return http.StatusBadRequest, e.ErrInvalidTopK.Error()
	case errors.Is(err, e.ErrInvalidThreshold):
		return http.StatusBadRequest, e.ErrInvalidThreshold.Error()
	case errors.Is(err, e.ErrDimensionMismatch):
		return http.StatusBadRequest, e.ErrDimensionMismatch.Error()
	case errors.Is(err, e.ErrDegenerateVector):
		return http.StatusBadRequest, e.ErrDegenerateVector.Error()
	case errors.Is(err, e.ErrImageNotFound):
		return http.StatusBadRequest, e.ErrImageNotFound.Error()
	case errors.Is(err, e.ErrEmptyIndex):
		return http.StatusUnprocessableEntity, e.ErrEmptyIndex.Error()
	case errors.Is(err, e.ErrAlignment):
		return http.StatusUnprocessableEntity, e.ErrAlignment.Error()
	case errors.Is(err, e.ErrCorruptEmbedding):
		return http.StatusUnprocessableEntity, e.ErrCorruptEmbedding.Error()
	case errors.Is(err, e.ErrUnexpectedDimension):
		return http.StatusUnprocessableEntity, e.ErrUnexpectedDimension.Error()
	case errors.Is(err, e.ErrExtraction):
		return http.StatusBadGateway, e.ErrExtraction.Error()
	default:
		return http.StatusInternalServerError, e.ErrInternalServerError.Error()
	}
}

func WriteError(w http.ResponseWriter, err error) {
	code, msg := ToHTTPResponse(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(NewErrorResponse(code, msg))
}

func WriteSuccess(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func ensureMultipartForm(r *http.Request, maxMemory int64) error {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return e.Wrap(whereami.WhereAmI(), e.ErrExpectedMultipart)
	}
	return r.ParseMultipartForm(maxMemory)
}

// parseQueryImage читает первый файл из поля image; отсутствие файла
// не является ошибкой (запрос может содержать image_url или embedding).
func parseQueryImage(r *http.Request) (*usecase.QueryImage, error) {
	const maxFileSize = 15 << 20

	if r.MultipartForm == nil {
		return nil, nil
	}

	files := r.MultipartForm.File["image"]
	if len(files) == 0 {
		return nil, nil
	}

	data, mimeType, err := readFile(files[0], maxFileSize)
	if err != nil {
		return nil, err
	}

	return usecase.NewQueryImage(data, mimeType, files[0].Filename), nil
}

func readFile(fh *multipart.FileHeader, maxSize int64) ([]byte, string, error) {
	src, err := fh.Open()
	if err != nil {
		return nil, "", e.ErrInternalServerError
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return nil, "", e.ErrInternalServerError
	}
	if int64(len(data)) > maxSize {
		return nil, "", e.Wrap(fh.Filename, e.ErrFileTooLarge)
	}

	mimeType := http.DetectContentType(data[:min(len(data), 512)])
	return data, mimeType, nil
}

// parseEmbedding разбирает необязательное поле embedding — JSON-массив чисел.
func parseEmbedding(s string) ([]float32, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}

	var embedding []float32
	if err := json.Unmarshal([]byte(s), &embedding); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), e.ErrStatusBadRequest)
	}
	if len(embedding) == 0 {
		return nil, e.Wrap(whereami.WhereAmI(), e.ErrStatusBadRequest)
	}

	return embedding, nil
}

// parseTopK разбирает необязательный параметр top_k; 0 означает
// «использовать значение по умолчанию».
func parseTopK(s string) (int, error) {
	if strings.TrimSpace(s) == "" {
		return 0, nil
	}

	topK, err := strconv.Atoi(s)
	if err != nil || topK < 0 {
		return 0, e.Wrap(s, e.ErrInvalidTopK)
	}

	return topK, nil
}

// parseThreshold разбирает необязательный порог близости из диапазона [-1, 1].
func parseThreshold(s string) (float64, error) {
	if strings.TrimSpace(s) == "" {
		return 0, nil
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, e.Wrap(s, e.ErrInvalidThreshold)
	}

	if d.LessThan(decimal.NewFromInt(-1)) || d.GreaterThan(decimal.NewFromInt(1)) {
		return 0, e.Wrap(s, e.ErrInvalidThreshold)
	}

	return d.InexactFloat64(), nil
}
