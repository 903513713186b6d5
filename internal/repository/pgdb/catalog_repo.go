package pgdb

import (
	"context"

	"github.com/DRSN-tech/visual-matcher/internal/domain"
	"github.com/DRSN-tech/visual-matcher/pkg/e"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
)

// CatalogRepo читает сырой каталог продуктов из PostgreSQL.
// Используется сборщиком индекса как альтернатива CSV-источнику.
type CatalogRepo struct {
	pool *pgxpool.Pool
}

func NewCatalogRepo(pool *pgxpool.Pool) *CatalogRepo {
	return &CatalogRepo{
		pool: pool,
	}
}

// ListProducts возвращает все продукты каталога в стабильном порядке.
// Порядок важен: сборщик выравнивает строки матрицы по этому списку.
func (c *CatalogRepo) ListProducts(ctx context.Context) ([]domain.Product, error) {
	query := `
		SELECT id, name, category, available, image_path, extra
		FROM products
		ORDER BY id
	`

	rows, err := c.pool.Query(ctx, query)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	result := make([]domain.Product, 0)
	for rows.Next() {
		var product domain.Product
		if err := rows.Scan(
			&product.ID, &product.Name, &product.Category,
			&product.Available, &product.ImagePath, &product.Extra,
		); err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}

		result = append(result, product)
	}
	if err := rows.Err(); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if len(result) == 0 {
		return nil, e.ErrCatalogEmpty
	}

	return result, nil
}
