package ml_service

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DRSN-tech/visual-matcher/internal/cfg"
	"github.com/DRSN-tech/visual-matcher/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testService(addr string, maxRetries int) *MLService {
	return NewMLService(&cfg.MLServiceCfg{
		Addr:          addr,
		MaxConcurrent: 2,
		MaxRetries:    maxRetries,
		Timeout:       5 * time.Second,
	}, logger.NewSlogLogger())
}

func TestVectorize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/vectorize", r.URL.Path)

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.Equal(t, []byte("image-bytes"), body)

		json.NewEncoder(w).Encode(map[string]any{
			"vector":        []float32{0.1, 0.2, 0.3},
			"model_version": "v2",
		})
	}))
	defer srv.Close()

	res, err := testService(srv.URL, 1).Vectorize(context.Background(), []byte("image-bytes"))
	require.NoError(t, err)

	assert.Equal(t, []float32{0.1, 0.2, 0.3}, res.Vector)
	assert.Equal(t, "v2", res.ModelVersion)
}

func TestVectorizeRetriesOnFailure(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"vector": []float32{1}, "model_version": "v1"})
	}))
	defer srv.Close()

	res, err := testService(srv.URL, 3).Vectorize(context.Background(), []byte("x"))
	require.NoError(t, err)

	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, []float32{1}, res.Vector)
}

func TestVectorizeAllAttemptsFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := testService(srv.URL, 1).Vectorize(context.Background(), []byte("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "attempts failed")
}

func TestVectorizeEmptyVector(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"vector": []float32{}, "model_version": "v1"})
	}))
	defer srv.Close()

	_, err := testService(srv.URL, 1).Vectorize(context.Background(), []byte("x"))
	assert.Error(t, err)
}

func TestVectorizeCancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testService(srv.URL, 3).Vectorize(ctx, []byte("x"))
	assert.ErrorIs(t, err, context.Canceled)
}
