package index

import (
	"fmt"

	"github.com/DRSN-tech/visual-matcher/pkg/e"
)

// Matrix — упорядоченный набор векторов одинаковой размерности,
// хранящийся одним непрерывным срезом в row-major порядке.
type Matrix struct {
	data []float32
	rows int
	dim  int
}

// NewMatrix складывает векторы в матрицу.
// Все векторы обязаны иметь одинаковую размерность.
func NewMatrix(vectors [][]float32) (*Matrix, error) {
	const op = "index.NewMatrix"

	if len(vectors) == 0 {
		return nil, e.Wrap(op, e.ErrEmptyIndex)
	}

	dim := len(vectors[0])
	if dim == 0 {
		return nil, e.Wrap(op, e.ErrUnexpectedDimension)
	}

	data := make([]float32, 0, len(vectors)*dim)
	for i, v := range vectors {
		if len(v) != dim {
			return nil, e.Wrap(fmt.Sprintf("%s: row %d", op, i), e.ErrDimensionMismatch)
		}
		data = append(data, v...)
	}

	return &Matrix{data: data, rows: len(vectors), dim: dim}, nil
}

// MatrixFromFlat оборачивает уже выложенные row-major данные без копирования.
func MatrixFromFlat(data []float32, rows, dim int) (*Matrix, error) {
	const op = "index.MatrixFromFlat"

	if rows <= 0 || dim <= 0 {
		return nil, e.Wrap(op, e.ErrUnexpectedDimension)
	}
	if len(data) != rows*dim {
		return nil, e.Wrap(op, e.ErrDimensionMismatch)
	}

	return &Matrix{data: data, rows: rows, dim: dim}, nil
}

// Row возвращает i-ю строку матрицы. Срез указывает на общие данные,
// вызывающая сторона не должна его изменять.
func (m *Matrix) Row(i int) []float32 {
	return m.data[i*m.dim : (i+1)*m.dim]
}

func (m *Matrix) Rows() int { return m.rows }

func (m *Matrix) Dim() int { return m.dim }

// NormalizeRows приводит каждую строку к единичной норме на месте.
func (m *Matrix) NormalizeRows() error {
	const op = "Matrix.NormalizeRows"

	for i := 0; i < m.rows; i++ {
		row := m.Row(i)
		normalized, err := Normalize(row)
		if err != nil {
			return e.Wrap(fmt.Sprintf("%s: row %d", op, i), err)
		}
		copy(row, normalized)
	}

	return nil
}
