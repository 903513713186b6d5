package index

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/DRSN-tech/visual-matcher/internal/domain"
	"github.com/DRSN-tech/visual-matcher/pkg/e"
)

// Допустимое отклонение нормы строки от единицы при валидации снапшота.
const normTolerance = 1e-3

// Snapshot — согласованная неизменяемая пара (таблица продуктов, матрица
// эмбеддингов). Строка i матрицы описывает продукт i таблицы — это
// центральный инвариант выравнивания всей системы. Снапшот создаётся
// только через NewSnapshot и после создания не мутируется.
type Snapshot struct {
	products []domain.Product
	matrix   *Matrix
	idIndex  map[string]int
}

// NewSnapshot валидирует пару (products, matrix) и собирает снапшот.
// Проверки:
//   - число строк матрицы равно числу записей таблицы (e.ErrAlignment);
//   - все значения матрицы конечны (e.ErrCorruptEmbedding);
//   - размерность положительна и входит в accepted, если список задан
//     (e.ErrUnexpectedDimension);
//   - каждая строка имеет L2-норму ≈ 1 (e.ErrCorruptEmbedding).
func NewSnapshot(products []domain.Product, matrix *Matrix, acceptedDims []int) (*Snapshot, error) {
	const op = "index.NewSnapshot"

	if matrix == nil || matrix.Rows() != len(products) {
		rows := 0
		if matrix != nil {
			rows = matrix.Rows()
		}
		return nil, e.Wrap(fmt.Sprintf("%s: %d rows vs %d records", op, rows, len(products)), e.ErrAlignment)
	}

	if matrix.Dim() <= 0 || !dimAccepted(matrix.Dim(), acceptedDims) {
		return nil, e.Wrap(fmt.Sprintf("%s: dim %d", op, matrix.Dim()), e.ErrUnexpectedDimension)
	}

	for i := 0; i < matrix.Rows(); i++ {
		row := matrix.Row(i)

		var sumSq float64
		for _, x := range row {
			if !isFinite(x) {
				return nil, e.Wrap(fmt.Sprintf("%s: row %d", op, i), e.ErrCorruptEmbedding)
			}
			sumSq += float64(x) * float64(x)
		}

		if math.Abs(math.Sqrt(sumSq)-1) > normTolerance {
			return nil, e.Wrap(fmt.Sprintf("%s: row %d is not unit-norm", op, i), e.ErrCorruptEmbedding)
		}
	}

	idIndex := make(map[string]int, len(products))
	for i, p := range products {
		idIndex[p.ID] = i
	}

	return &Snapshot{
		products: products,
		matrix:   matrix,
		idIndex:  idIndex,
	}, nil
}

func dimAccepted(dim int, accepted []int) bool {
	if len(accepted) == 0 {
		return dim > 0
	}
	for _, d := range accepted {
		if dim == d {
			return true
		}
	}
	return false
}

// Products возвращает записи каталога снапшота. Вызывающая сторона не
// должна изменять срез.
func (s *Snapshot) Products() []domain.Product { return s.products }

// Product возвращает копию записи с индексом i.
func (s *Snapshot) Product(i int) domain.Product { return s.products[i] }

// Matrix возвращает матрицу эмбеддингов снапшота.
func (s *Snapshot) Matrix() *Matrix { return s.matrix }

// Size возвращает число записей в снапшоте.
func (s *Snapshot) Size() int { return len(s.products) }

// RowByID возвращает номер строки для продукта с данным ID.
func (s *Snapshot) RowByID(id string) (int, bool) {
	row, ok := s.idIndex[id]
	return row, ok
}

// Holder хранит активный снапшот процесса и атомарно подменяет его при
// перезагрузке индекса. Читатели продолжают работать со снапшотом,
// полученным до подмены; частично обновлённое состояние не наблюдаемо.
type Holder struct {
	current atomic.Pointer[Snapshot]
}

func NewHolder() *Holder {
	return &Holder{}
}

// Active возвращает активный снапшот или e.ErrIndexNotLoaded.
func (h *Holder) Active() (*Snapshot, error) {
	snap := h.current.Load()
	if snap == nil {
		return nil, e.ErrIndexNotLoaded
	}
	return snap, nil
}

// Loaded сообщает, загружен ли снапшот.
func (h *Holder) Loaded() bool {
	return h.current.Load() != nil
}

// Swap атомарно делает snap активным и возвращает предыдущий снапшот.
func (h *Holder) Swap(snap *Snapshot) *Snapshot {
	return h.current.Swap(snap)
}
