// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package directory

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ommathur/quickpick/pkg/types"
)

// --- test helpers ---

func testStore(t *testing.T, pageSize int) *Store {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "index", "directory.db"), pageSize)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleRecords() []types.ProductLinkRecord {
	return []types.ProductLinkRecord{
		{
			Name: "Milk 1L", Category: "Dairy", SubCategory: "Milk",
			BlinkitLinks: "https://blinkit.com/prn/u1, https://blinkit.com/prn/u2",
			ZeptoLinks:   "https://www.zeptonow.com/pn/u3",
		},
		{
			Name: "Curd 400g", Category: "Dairy", SubCategory: " Curd ",
			BigBasketLinks: "https://www.bigbasket.com/pd/4",
		},
		{Name: "Bread", Category: "  Bakery ", SubCategory: "Loaves"},
		{Name: "Loose Salt", Category: ""},
	}
}

func seeded(t *testing.T, pageSize int) *Store {
	t.Helper()
	s := testStore(t, pageSize)
	n, err := s.Import(context.Background(), sampleRecords())
	require.NoError(t, err)
	require.Equal(t, 4, n)
	return s
}

// --- schema ---

func TestNewSQLiteCreatesSchema(t *testing.T) {
	s := testStore(t, 0)
	var count int
	err := s.db.QueryRow(`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='products'`).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, defaultPageSize, s.pageSize)
}

func TestNewSQLiteRequiresPath(t *testing.T) {
	_, err := NewSQLite("", 0)
	assert.Error(t, err)
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(types.DirectoryConfig{Driver: "mysql", DSN: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported directory driver")
}

func TestOpenSQLiteDefaultPath(t *testing.T) {
	orig := DefaultSQLitePath
	DefaultSQLitePath = filepath.Join(t.TempDir(), "data", "directory.db")
	t.Cleanup(func() { DefaultSQLitePath = orig })

	s, err := Open(types.DirectoryConfig{Driver: types.DriverSQLite})
	require.NoError(t, err)
	defer s.Close()
	assert.FileExists(t, DefaultSQLitePath)
}

func TestOpenPostgresRequiresDSN(t *testing.T) {
	_, err := Open(types.DirectoryConfig{Driver: types.DriverPostgres})
	assert.Error(t, err)
}

// --- lookup ---

func TestLookup(t *testing.T) {
	s := seeded(t, 0)
	ctx := context.Background()

	tests := []struct {
		name     string
		query    string
		wantName string
		wantErr  bool
	}{
		{"exact", "Milk 1L", "Milk 1L", false},
		{"case-insensitive", "milk 1l", "Milk 1L", false},
		{"pattern with single match", "Curd%", "Curd 400g", false},
		{"no match", "Unknown Item", "", true},
		{"ambiguous pattern", "%l%", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := s.Lookup(ctx, tt.query)
			if tt.wantErr {
				assert.ErrorIs(t, err, types.ErrProductNotFound)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, rec.Name)
		})
	}
}

func TestLookupReturnsLinkColumns(t *testing.T) {
	s := seeded(t, 0)
	rec, err := s.Lookup(context.Background(), "Milk 1L")
	require.NoError(t, err)
	assert.Equal(t, "https://blinkit.com/prn/u1, https://blinkit.com/prn/u2", rec.BlinkitLinks)
	assert.Empty(t, rec.BigBasketLinks)
	assert.Equal(t, "https://www.zeptonow.com/pn/u3", rec.ZeptoLinks)
	assert.Equal(t, "Dairy", rec.Category)
}

func TestLookupClosedDatabase(t *testing.T) {
	s := testStore(t, 0)
	require.NoError(t, s.Close())
	_, err := s.Lookup(context.Background(), "Milk 1L")
	assert.ErrorIs(t, err, types.ErrProductNotFound)
}

// --- browsing ---

func TestCategoriesTrimmedAndUnique(t *testing.T) {
	s := seeded(t, 0)
	got, err := s.Categories(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Dairy", "Bakery"}, got)
}

func TestProductsPaginates(t *testing.T) {
	// Page size 1 forces one query per row plus the final short page.
	s := seeded(t, 1)
	got, err := s.Products(context.Background(), "Dairy")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Curd 400g", got[0].Name)
	assert.Equal(t, "Curd", got[0].SubCategory, "sub-category should be trimmed")
	assert.Equal(t, "Milk 1L", got[1].Name)
}

func TestProductsUnknownCategory(t *testing.T) {
	s := seeded(t, 0)
	got, err := s.Products(context.Background(), "Frozen")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSubcategoriesAndFilter(t *testing.T) {
	products := []types.ProductSummary{
		{Name: "Curd", SubCategory: "Curd"},
		{Name: "Milk", SubCategory: "Milk"},
		{Name: "Toned Milk", SubCategory: "Milk"},
		{Name: "Paneer", SubCategory: ""},
	}
	assert.Equal(t, []string{"Curd", "Milk"}, Subcategories(products))
	assert.Len(t, FilterSubcategory(products, "Milk"), 2)
	assert.Len(t, FilterSubcategory(products, ""), 4)
	assert.Empty(t, FilterSubcategory(products, "Ghee"))
}

// --- import ---

func TestImportUpserts(t *testing.T) {
	s := seeded(t, 0)
	ctx := context.Background()

	_, err := s.Import(ctx, []types.ProductLinkRecord{
		{Name: "milk 1l", Category: "Dairy", ZeptoLinks: "https://www.zeptonow.com/pn/new"},
	})
	require.NoError(t, err)

	rec, err := s.Lookup(ctx, "Milk 1L")
	require.NoError(t, err)
	assert.Equal(t, "https://www.zeptonow.com/pn/new", rec.ZeptoLinks)
	assert.Empty(t, rec.BlinkitLinks)
}

func TestLoadSeed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "products.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`products:
  - product_name: Milk 1L
    category: Dairy
    blinkit_link: "https://blinkit.com/prn/u1,https://blinkit.com/prn/u2"
  - product_name: Bread
`), 0o644))

	recs, err := LoadSeed(path)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "https://blinkit.com/prn/u1,https://blinkit.com/prn/u2", recs[0].BlinkitLinks)
	assert.Equal(t, "Bread", recs[1].Name)
}

func TestLoadSeedRejectsNamelessProduct(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("products:\n  - category: Dairy\n"), 0o644))
	_, err := LoadSeed(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no product_name")
}

func TestRebind(t *testing.T) {
	assert.Equal(t, "a = ? AND b = ?", sqliteDialect.rebind("a = ? AND b = ?"))
	assert.Equal(t, "a = $1 AND b = $2", postgresDialect.rebind("a = ? AND b = ?"))
}
