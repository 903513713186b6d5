package domain

import "strings"

// Product описывает одну запись каталога товаров.
// Extra хранит прочие столбцы исходной таблицы без интерпретации,
// чтобы они без потерь проходили до ответа API.
type Product struct {
	ID        string
	Name      string
	Category  string
	Available bool
	ImagePath string
	Extra     map[string]string
}

func NewProduct(id, name, category string, available bool, imagePath string, extra map[string]string) *Product {
	return &Product{
		ID:        id,
		Name:      name,
		Category:  category,
		Available: available,
		ImagePath: imagePath,
		Extra:     extra,
	}
}

// MatchesCategory сравнивает категорию продукта без учёта регистра.
func (p *Product) MatchesCategory(category string) bool {
	return strings.EqualFold(p.Category, category)
}
