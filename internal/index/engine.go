package index

import (
	"context"
	"math"
	"sort"

	"github.com/DRSN-tech/visual-matcher/pkg/e"
	"github.com/DRSN-tech/visual-matcher/pkg/logger"
)

// Match — одна строка снапшота, прошедшая фильтры запроса.
type Match struct {
	Row   int     // номер строки матрицы (он же индекс записи каталога)
	Score float64 // косинусная близость к запросу
}

// Engine выполняет ранжирующие запросы к снапшоту. Движок не хранит
// состояния между запросами: снапшот передаётся в каждый вызов, поэтому
// любое число параллельных запросов безопасно.
type Engine struct {
	scanBatch int
	logger    logger.Logger
}

// NewEngine создаёт движок. scanBatch — число строк между проверками
// отмены контекста при линейном скане.
func NewEngine(scanBatch int, logger logger.Logger) *Engine {
	const defaultScanBatch = 1024

	if scanBatch <= 0 {
		scanBatch = defaultScanBatch
	}

	return &Engine{scanBatch: scanBatch, logger: logger}
}

// Search возвращает не более topK строк с близостью >= threshold,
// отсортированных по убыванию близости. При равных значениях первой идёт
// строка с меньшим номером. Порог применяется ДО усечения по topK, чтобы
// разреженная выдача не добивалась нерелевантными записями.
// topK <= 0 даёт пустой результат.
func (en *Engine) Search(ctx context.Context, snap *Snapshot, query []float32, topK int, threshold float64) ([]Match, error) {
	const op = "Engine.Search"

	if topK <= 0 {
		return []Match{}, nil
	}

	q, err := en.prepareQuery(snap, query)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	matches, err := en.scan(ctx, snap, q, nil, threshold, -1)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return rank(matches, topK), nil
}

// SearchByCategory ранжирует только записи, чья категория совпадает с
// заданной без учёта регистра. Порога близости нет. Отсутствие записей
// в категории — пустой результат, не ошибка.
func (en *Engine) SearchByCategory(ctx context.Context, snap *Snapshot, query []float32, category string, topK int) ([]Match, error) {
	const op = "Engine.SearchByCategory"

	if topK <= 0 {
		return []Match{}, nil
	}

	q, err := en.prepareQuery(snap, query)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	candidates := make([]int, 0)
	for i, p := range snap.Products() {
		if p.MatchesCategory(category) {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		return []Match{}, nil
	}

	matches, err := en.scan(ctx, snap, q, candidates, math.Inf(-1), -1)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return rank(matches, topK), nil
}

// Recommend ранжирует записи по близости к эмбеддингу продукта productID.
// Собственная строка продукта полностью исключается из результата.
// Неизвестный productID — e.ErrProductNotFound.
func (en *Engine) Recommend(ctx context.Context, snap *Snapshot, productID string, topK int) ([]Match, error) {
	const op = "Engine.Recommend"

	// Неизвестный продукт — ошибка независимо от topK.
	selfRow, ok := snap.RowByID(productID)
	if !ok {
		return nil, e.Wrap(op, e.ErrProductNotFound)
	}

	if topK <= 0 {
		return []Match{}, nil
	}

	// Строки снапшота уже нормализованы, нормализация запроса не нужна.
	query := snap.Matrix().Row(selfRow)

	matches, err := en.scan(ctx, snap, query, nil, math.Inf(-1), selfRow)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return rank(matches, topK), nil
}

// prepareQuery нормализует вектор запроса и сверяет его размерность
// с размерностью снапшота.
func (en *Engine) prepareQuery(snap *Snapshot, query []float32) ([]float32, error) {
	q, err := Normalize(query)
	if err != nil {
		return nil, err
	}

	if len(q) != snap.Matrix().Dim() {
		return nil, e.ErrDimensionMismatch
	}

	return q, nil
}

// scan считает близость запроса к каждой строке-кандидату и отбирает
// строки с score >= threshold. candidates == nil означает все строки,
// skipRow >= 0 — строка, исключаемая из выдачи. Между батчами строк
// проверяется отмена контекста.
func (en *Engine) scan(ctx context.Context, snap *Snapshot, query []float32, candidates []int, threshold float64, skipRow int) ([]Match, error) {
	matrix := snap.Matrix()

	total := matrix.Rows()
	if candidates != nil {
		total = len(candidates)
	}

	matches := make([]Match, 0, total)
	for i := 0; i < total; i++ {
		if i%en.scanBatch == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		row := i
		if candidates != nil {
			row = candidates[i]
		}
		if row == skipRow {
			continue
		}

		score, err := Cosine(query, matrix.Row(row))
		if err != nil {
			return nil, err
		}

		if score >= threshold {
			matches = append(matches, Match{Row: row, Score: score})
		}
	}

	return matches, nil
}

// rank сортирует совпадения по убыванию близости (при равенстве — по
// возрастанию номера строки, детерминированно) и усекает до topK.
func rank(matches []Match, topK int) []Match {
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Row < matches[j].Row
	})

	if len(matches) > topK {
		matches = matches[:topK]
	}

	return matches
}
