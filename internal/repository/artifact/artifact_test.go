package artifact

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/DRSN-tech/visual-matcher/internal/domain"
	"github.com/DRSN-tech/visual-matcher/internal/index"
	"github.com/DRSN-tech/visual-matcher/pkg/e"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatrixRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "embeddings.bin")
	repo := NewMatrixRepo(path)

	m, err := index.NewMatrix([][]float32{
		{0.6, 0.8, 0},
		{0, 1, 0},
		{-0.28, 0, 0.96},
	})
	require.NoError(t, err)
	require.NoError(t, repo.Save(m))

	loaded, err := repo.Load()
	require.NoError(t, err)

	assert.Equal(t, m.Rows(), loaded.Rows())
	assert.Equal(t, m.Dim(), loaded.Dim())
	for i := 0; i < m.Rows(); i++ {
		assert.Equal(t, m.Row(i), loaded.Row(i), "row %d", i)
	}
}

func TestMatrixLoadCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "embeddings.bin")

	t.Run("truncated", func(t *testing.T) {
		require.NoError(t, os.WriteFile(path, []byte{1, 2, 3}, 0o644))
		_, err := NewMatrixRepo(path).Load()
		assert.ErrorIs(t, err, e.ErrCorruptEmbedding)
	})

	t.Run("bad magic", func(t *testing.T) {
		require.NoError(t, os.WriteFile(path, make([]byte, 32), 0o644))
		_, err := NewMatrixRepo(path).Load()
		assert.ErrorIs(t, err, e.ErrCorruptEmbedding)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := NewMatrixRepo(filepath.Join(t.TempDir(), "nope.bin")).Load()
		assert.Error(t, err)
	})
}

func TestMatrixSaveReplacesAtomically(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "embeddings.bin")
	repo := NewMatrixRepo(path)

	first, err := index.NewMatrix([][]float32{{1, 0}})
	require.NoError(t, err)
	require.NoError(t, repo.Save(first))

	second, err := index.NewMatrix([][]float32{{0, 1}, {1, 0}})
	require.NoError(t, err)
	require.NoError(t, repo.Save(second))

	loaded, err := repo.Load()
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.Rows())

	// Временных файлов после rename не остаётся.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestCatalogRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "valid_products.csv")
	repo := NewCatalogRepo(path)

	products := []domain.Product{
		*domain.NewProduct("p1", "sneakers, white", "shoes", true, "img/p1.jpg",
			map[string]string{"brand": "acme", "price": "59.90"}),
		*domain.NewProduct("p2", "backpack", "bags", false, "img/p2.jpg",
			map[string]string{"brand": "other", "price": ""}),
	}

	require.NoError(t, repo.Save(products))

	loaded, err := repo.Load()
	require.NoError(t, err)

	require.Len(t, loaded, 2)
	assert.Equal(t, "p1", loaded[0].ID)
	assert.Equal(t, "sneakers, white", loaded[0].Name)
	assert.True(t, loaded[0].Available)
	assert.Equal(t, "acme", loaded[0].Extra["brand"])
	assert.Equal(t, "59.90", loaded[0].Extra["price"])
	assert.Equal(t, "p2", loaded[1].ID)
	assert.False(t, loaded[1].Available)
}

func TestCatalogSaveEmpty(t *testing.T) {
	repo := NewCatalogRepo(filepath.Join(t.TempDir(), "valid_products.csv"))
	err := repo.Save(nil)
	assert.ErrorIs(t, err, e.ErrCatalogEmpty)
}

func TestCatalogLoadMissingColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	require.NoError(t, os.WriteFile(path, []byte("id,name\np1,sneakers\n"), 0o644))

	_, err := NewCatalogRepo(path).Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "category")
}

func TestCatalogLoadEmptyBody(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, os.WriteFile(path, []byte("id,name,category,available,image_path\n"), 0o644))

	_, err := NewCatalogRepo(path).Load()
	assert.ErrorIs(t, err, e.ErrCatalogEmpty)
}

func TestCSVSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products.csv")
	body := "id,name,category,available,image_path,brand\n" +
		"p1,sneakers,shoes,true,p1.jpg,acme\n" +
		"p2,backpack,bags,false,p2.jpg,other\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	products, err := NewCSVSource(path).ListProducts(t.Context())
	require.NoError(t, err)

	require.Len(t, products, 2)
	assert.Equal(t, "shoes", products[0].Category)
	assert.Equal(t, "other", products[1].Extra["brand"])
}
