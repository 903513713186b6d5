package artifact

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/DRSN-tech/visual-matcher/internal/domain"
	"github.com/DRSN-tech/visual-matcher/pkg/e"
)

// Обязательные столбцы таблицы продуктов. Прочие столбцы считаются
// сквозными атрибутами и сохраняются в Product.Extra как есть.
var requiredColumns = []string{"id", "name", "category", "available", "image_path"}

// CatalogRepo читает и пишет таблицу продуктов в CSV.
// Порядок строк значим: он же — порядок строк матрицы эмбеддингов.
type CatalogRepo struct {
	path string
}

func NewCatalogRepo(path string) *CatalogRepo {
	return &CatalogRepo{path: path}
}

// Save атомарно записывает таблицу продуктов. Обязательные столбцы идут
// первыми, сквозные — следом в отсортированном порядке имён, чтобы файл
// был детерминированным.
func (r *CatalogRepo) Save(products []domain.Product) error {
	const op = "CatalogRepo.Save"

	if len(products) == 0 {
		return e.Wrap(op, e.ErrCatalogEmpty)
	}

	extraCols := collectExtraColumns(products)
	header := append(append([]string{}, requiredColumns...), extraCols...)

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(header); err != nil {
		return e.Wrap(op, err)
	}

	row := make([]string, len(header))
	for _, p := range products {
		row[0] = p.ID
		row[1] = p.Name
		row[2] = p.Category
		row[3] = strconv.FormatBool(p.Available)
		row[4] = p.ImagePath
		for i, col := range extraCols {
			row[5+i] = p.Extra[col]
		}

		if err := w.Write(row); err != nil {
			return e.Wrap(op, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return e.Wrap(op, err)
	}

	if err := atomicWrite(r.path, buf.Bytes()); err != nil {
		return e.Wrap(op, err)
	}

	return nil
}

// Load читает таблицу продуктов, сохраняя порядок строк файла.
func (r *CatalogRepo) Load() ([]domain.Product, error) {
	const op = "CatalogRepo.Load"

	f, err := os.Open(r.path)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)

	header, err := reader.Read()
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	colIdx := make(map[string]int, len(header))
	for i, col := range header {
		colIdx[col] = i
	}
	for _, col := range requiredColumns {
		if _, ok := colIdx[col]; !ok {
			return nil, e.Wrap(op, fmt.Errorf("missing required column %q", col))
		}
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	if len(records) == 0 {
		return nil, e.Wrap(op, e.ErrCatalogEmpty)
	}

	products := make([]domain.Product, 0, len(records))
	for i, rec := range records {
		available, err := strconv.ParseBool(rec[colIdx["available"]])
		if err != nil {
			return nil, e.Wrap(fmt.Sprintf("%s: row %d: available", op, i), err)
		}

		extra := make(map[string]string)
		for col, idx := range colIdx {
			if isRequiredColumn(col) {
				continue
			}
			extra[col] = rec[idx]
		}

		products = append(products, *domain.NewProduct(
			rec[colIdx["id"]],
			rec[colIdx["name"]],
			rec[colIdx["category"]],
			available,
			rec[colIdx["image_path"]],
			extra,
		))
	}

	return products, nil
}

func isRequiredColumn(col string) bool {
	for _, c := range requiredColumns {
		if col == c {
			return true
		}
	}
	return false
}

// collectExtraColumns собирает объединение имён сквозных столбцов всех записей.
func collectExtraColumns(products []domain.Product) []string {
	seen := make(map[string]struct{})
	for _, p := range products {
		for col := range p.Extra {
			seen[col] = struct{}{}
		}
	}

	cols := make([]string, 0, len(seen))
	for col := range seen {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	return cols
}
