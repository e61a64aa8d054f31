// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package directory reads product-to-URL mappings from the product
// directory, either a local SQLite file or the hosted PostgreSQL table.
package directory

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/ommathur/quickpick/pkg/types"
)

const defaultPageSize = 1000

// DefaultSQLitePath is used when the SQLite driver is selected without a DSN.
var DefaultSQLitePath = filepath.Join("data", "directory.db")

// Directory is the read side of the product directory.
type Directory interface {
	// Lookup returns the single record whose name matches the
	// case-insensitive pattern. Zero or several matches, or a query
	// failure, yield types.ErrProductNotFound.
	Lookup(ctx context.Context, name string) (types.ProductLinkRecord, error)

	// Categories returns the distinct, trimmed, non-empty categories.
	Categories(ctx context.Context) ([]string, error)

	// Products lists the products of one category ordered by sub-category.
	Products(ctx context.Context, category string) ([]types.ProductSummary, error)

	Close() error
}

// dialect captures the SQL differences between the two backends.
type dialect struct {
	name     types.DirectoryDriver
	like     string
	numbered bool
}

var (
	sqliteDialect   = dialect{name: types.DriverSQLite, like: "LIKE"}
	postgresDialect = dialect{name: types.DriverPostgres, like: "ILIKE", numbered: true}
)

// rebind rewrites ? placeholders as $1, $2, ... for numbered dialects.
func (d dialect) rebind(query string) string {
	if !d.numbered {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Store is the database/sql implementation of Directory.
type Store struct {
	db       *sql.DB
	d        dialect
	pageSize int
}

var _ Directory = (*Store)(nil)

// Open opens the directory selected by cfg.Driver.
func Open(cfg types.DirectoryConfig) (*Store, error) {
	switch cfg.Driver {
	case types.DriverSQLite, "":
		path := cfg.DSN
		if path == "" {
			path = DefaultSQLitePath
		}
		return NewSQLite(path, cfg.PageSize)
	case types.DriverPostgres:
		if cfg.DSN == "" {
			return nil, fmt.Errorf("postgres directory requires a DSN")
		}
		db, err := sql.Open("postgres", cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("opening database: %w", err)
		}
		return NewPostgres(db, cfg.PageSize), nil
	default:
		return nil, fmt.Errorf("unsupported directory driver %q: use sqlite3 or postgres", cfg.Driver)
	}
}

// NewSQLite opens or creates a SQLite directory at path and creates the
// schema if it does not exist.
func NewSQLite(path string, pageSize int) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite directory requires a file path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating directory for %s: %w", path, err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, d: sqliteDialect, pageSize: pageOrDefault(pageSize)}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// NewPostgres wraps an open PostgreSQL handle. The products table is owned
// by the hosted project and is not created here.
func NewPostgres(db *sql.DB, pageSize int) *Store {
	return &Store{db: db, d: postgresDialect, pageSize: pageOrDefault(pageSize)}
}

func pageOrDefault(n int) int {
	if n <= 0 {
		return defaultPageSize
	}
	return n
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Lookup implements Directory.
func (s *Store) Lookup(ctx context.Context, name string) (types.ProductLinkRecord, error) {
	query := s.d.rebind(`SELECT product_name, COALESCE(category, ''), COALESCE(sub_category, ''),
		COALESCE(blinkit_link, ''), COALESCE(bigbasket_link, ''), COALESCE(zepto_link, '')
		FROM products WHERE product_name ` + s.d.like + ` ? LIMIT 2`)

	rows, err := s.db.QueryContext(ctx, query, name)
	if err != nil {
		return types.ProductLinkRecord{}, fmt.Errorf("%w: %q: %w", types.ErrProductNotFound, name, err)
	}
	defer rows.Close()

	var matches []types.ProductLinkRecord
	for rows.Next() {
		var r types.ProductLinkRecord
		if err := rows.Scan(&r.Name, &r.Category, &r.SubCategory,
			&r.BlinkitLinks, &r.BigBasketLinks, &r.ZeptoLinks); err != nil {
			return types.ProductLinkRecord{}, fmt.Errorf("%w: %q: %w", types.ErrProductNotFound, name, err)
		}
		matches = append(matches, r)
	}
	if err := rows.Err(); err != nil {
		return types.ProductLinkRecord{}, fmt.Errorf("%w: %q: %w", types.ErrProductNotFound, name, err)
	}

	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return types.ProductLinkRecord{}, fmt.Errorf("%w: %q", types.ErrProductNotFound, name)
	default:
		return types.ProductLinkRecord{}, fmt.Errorf("%w: %q matches more than one product", types.ErrProductNotFound, name)
	}
}

// Categories implements Directory.
func (s *Store) Categories(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT category FROM products WHERE category IS NOT NULL ORDER BY category`)
	if err != nil {
		return nil, fmt.Errorf("querying categories: %w", err)
	}
	defer rows.Close()

	var raw []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scanning category: %w", err)
		}
		raw = append(raw, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading categories: %w", err)
	}
	return uniqueTrimmed(raw), nil
}

// Products implements Directory. Rows are read in pages of s.pageSize
// until a short page is returned.
func (s *Store) Products(ctx context.Context, category string) ([]types.ProductSummary, error) {
	query := s.d.rebind(`SELECT product_name, COALESCE(sub_category, '') FROM products
		WHERE category = ? ORDER BY sub_category, product_name LIMIT ? OFFSET ?`)

	var all []types.ProductSummary
	for offset := 0; ; offset += s.pageSize {
		n, err := s.productPage(ctx, query, category, offset, &all)
		if err != nil {
			return nil, err
		}
		if n < s.pageSize {
			return all, nil
		}
	}
}

func (s *Store) productPage(ctx context.Context, query, category string, offset int, out *[]types.ProductSummary) (int, error) {
	rows, err := s.db.QueryContext(ctx, query, category, s.pageSize, offset)
	if err != nil {
		return 0, fmt.Errorf("querying products of %q: %w", category, err)
	}
	defer rows.Close()

	n := 0
	for rows.Next() {
		var p types.ProductSummary
		if err := rows.Scan(&p.Name, &p.SubCategory); err != nil {
			return n, fmt.Errorf("scanning product: %w", err)
		}
		p.Name = strings.TrimSpace(p.Name)
		p.SubCategory = strings.TrimSpace(p.SubCategory)
		*out = append(*out, p)
		n++
	}
	if err := rows.Err(); err != nil {
		return n, fmt.Errorf("reading products of %q: %w", category, err)
	}
	return n, nil
}

// Subcategories returns the unique non-empty sub-categories of products in
// first-seen order.
func Subcategories(products []types.ProductSummary) []string {
	subs := make([]string, len(products))
	for i, p := range products {
		subs[i] = p.SubCategory
	}
	return uniqueTrimmed(subs)
}

// FilterSubcategory returns the products in sub. An empty sub keeps all.
func FilterSubcategory(products []types.ProductSummary, sub string) []types.ProductSummary {
	if sub == "" {
		return products
	}
	var out []types.ProductSummary
	for _, p := range products {
		if p.SubCategory == sub {
			out = append(out, p)
		}
	}
	return out
}

func uniqueTrimmed(values []string) []string {
	seen := make(map[string]bool, len(values))
	var out []string
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
