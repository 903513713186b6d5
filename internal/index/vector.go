// Package index реализует точный (brute-force) индекс эмбеддингов:
// примитивы векторных операций, матрицу, снапшот и движок поиска.
package index

import (
	"math"

	"github.com/DRSN-tech/visual-matcher/pkg/e"
	"github.com/viant/vec/search"
)

// Normalize возвращает копию вектора, приведённую к единичной L2-норме.
// Возвращает e.ErrDegenerateVector, если норма нулевая или не конечная.
func Normalize(v []float32) ([]float32, error) {
	if len(v) == 0 {
		return nil, e.ErrDegenerateVector
	}

	mag := search.Float32s(v).Magnitude()
	if mag == 0 || math.IsNaN(float64(mag)) || math.IsInf(float64(mag), 0) {
		return nil, e.ErrDegenerateVector
	}

	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = x / mag
	}

	return out, nil
}

// Cosine возвращает косинусную близость двух УЖЕ нормализованных векторов.
// Для единичных векторов она равна их скалярному произведению, поэтому
// магнитуды передаются ядру как 1 — это точное равенство, а не приближение.
// Возвращает e.ErrDimensionMismatch при разной длине векторов.
func Cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, e.ErrDimensionMismatch
	}
	if len(a) == 0 {
		return 0, e.ErrDegenerateVector
	}

	sim := 1 - float64(search.Float32s(a).CosineDistanceWithMagnitudesNeon(b, 1, 1))

	return clampScore(sim), nil
}

// clampScore удерживает результат в [-1, 1]: накопление ошибок float32
// на длинных векторах может вывести скалярное произведение чуть за границу.
func clampScore(s float64) float64 {
	if s > 1 {
		return 1
	}
	if s < -1 {
		return -1
	}
	return s
}

// isFinite сообщает, является ли значение конечным числом.
func isFinite(x float32) bool {
	f := float64(x)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
