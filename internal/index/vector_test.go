package index

import (
	"math"
	"testing"

	"github.com/DRSN-tech/visual-matcher/pkg/e"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	v, err := Normalize([]float32{3, 4})
	require.NoError(t, err)
	assert.InDelta(t, 0.6, float64(v[0]), 1e-6)
	assert.InDelta(t, 0.8, float64(v[1]), 1e-6)

	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-6)
}

func TestNormalizeIdempotent(t *testing.T) {
	v, err := Normalize([]float32{1, 2, 3, 4})
	require.NoError(t, err)

	again, err := Normalize(v)
	require.NoError(t, err)

	for i := range v {
		assert.InDelta(t, float64(v[i]), float64(again[i]), 1e-6)
	}
}

func TestNormalizeDegenerate(t *testing.T) {
	cases := map[string][]float32{
		"empty":    {},
		"zero":     {0, 0, 0},
		"nan":      {float32(math.NaN()), 1},
		"infinite": {float32(math.Inf(1)), 1},
	}

	for name, v := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Normalize(v)
			assert.ErrorIs(t, err, e.ErrDegenerateVector)
		})
	}
}

func TestCosine(t *testing.T) {
	a := []float32{1, 0}
	b := []float32{0, 1}

	same, err := Cosine(a, a)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, same, 1e-6)

	orth, err := Cosine(a, b)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, orth, 1e-6)

	opp, err := Cosine(a, []float32{-1, 0})
	require.NoError(t, err)
	assert.InDelta(t, -1.0, opp, 1e-6)
}

func TestCosineBounds(t *testing.T) {
	// Длинный вектор с накоплением ошибок округления не должен
	// выходить за [-1, 1].
	v := make([]float32, 2048)
	for i := range v {
		v[i] = 1
	}
	v, err := Normalize(v)
	require.NoError(t, err)

	score, err := Cosine(v, v)
	require.NoError(t, err)
	assert.LessOrEqual(t, score, 1.0)
	assert.GreaterOrEqual(t, score, -1.0)
}

func TestCosineDimensionMismatch(t *testing.T) {
	_, err := Cosine([]float32{1, 0}, []float32{1, 0, 0})
	assert.ErrorIs(t, err, e.ErrDimensionMismatch)
}
