package ml_service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/DRSN-tech/visual-matcher/internal/cfg"
	"github.com/DRSN-tech/visual-matcher/internal/usecase"
	"github.com/DRSN-tech/visual-matcher/pkg/e"
	"github.com/DRSN-tech/visual-matcher/pkg/jitter"
	"github.com/DRSN-tech/visual-matcher/pkg/logger"
)

// MLService — клиент внешнего ML-сервиса, извлекающего эмбеддинг
// изображения. Сервис потребляется как чёрный ящик: изображение на входе,
// вектор фиксированной размерности на выходе.
type MLService struct {
	client        *http.Client
	addr          string
	maxConcurrent int
	maxRetries    int
	sem           chan struct{}
	logger        logger.Logger
}

func NewMLService(cfg *cfg.MLServiceCfg, logger logger.Logger) *MLService {
	return &MLService{
		client:        &http.Client{Timeout: cfg.Timeout},
		addr:          cfg.Addr,
		maxConcurrent: cfg.MaxConcurrent,
		maxRetries:    cfg.MaxRetries,
		sem:           make(chan struct{}, cfg.MaxConcurrent),
		logger:        logger,
	}
}

type vectorizeResponse struct {
	Vector       []float32 `json:"vector"`
	ModelVersion string    `json:"model_version"`
}

// Vectorize выполняет векторизацию изображения с retry-логикой и
// экспоненциальной задержкой.
func (m *MLService) Vectorize(ctx context.Context, image []byte) (*usecase.VectorizeRes, error) {
	const (
		op         = "MLService.Vectorize"
		baseJitter = 1 * time.Second
		maxJitter  = 30 * time.Second
	)

	var lastErr error
	for attempt := 0; attempt < m.maxRetries; attempt++ {
		res, err := m.vectorizeOnce(ctx, image)
		if err == nil {
			return res, nil
		}
		lastErr = err

		if attempt == m.maxRetries-1 {
			break
		}

		sleepTime := jitter.ExponentialBackoff(
			baseJitter,
			maxJitter,
			attempt,
			jitter.DefaultJitter,
		)

		m.logger.Warnf("vectorization failed, retrying in %v (attempt %d): %v", sleepTime, attempt+1, err)
		select {
		case <-time.After(sleepTime):
		case <-ctx.Done():
			return nil, e.Wrap(op, ctx.Err())
		}
	}

	return nil, e.Wrap(op, fmt.Errorf("all %d attempts failed: %w", m.maxRetries, lastErr))
}

// vectorizeOnce отправляет изображение на векторизацию с ограничением
// числа одновременных запросов к сервису.
func (m *MLService) vectorizeOnce(ctx context.Context, image []byte) (*usecase.VectorizeRes, error) {
	const op = "MLService.vectorizeOnce"

	select {
	case m.sem <- struct{}{}:
		defer func() { <-m.sem }()
	case <-ctx.Done():
		return nil, e.Wrap(op, ctx.Err())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.addr+"/vectorize", bytes.NewReader(image))
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, e.Wrap(op, fmt.Errorf("ml-service status %d: %s", resp.StatusCode, body))
	}

	var decoded vectorizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, e.Wrap(op, err)
	}

	if len(decoded.Vector) == 0 {
		return nil, e.Wrap(op, e.ErrExtraction)
	}

	return usecase.NewVectorizeRes(decoded.Vector, decoded.ModelVersion), nil
}
