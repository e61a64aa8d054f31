// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package directory

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/ommathur/quickpick/pkg/types"
)

// Seed is the YAML layout accepted by LoadSeed:
//
//	products:
//	  - product_name: Amul Taaza Milk 1L
//	    category: Dairy
//	    blinkit_link: https://blinkit.com/prn/x, https://blinkit.com/prn/y
type Seed struct {
	Products []types.ProductLinkRecord `yaml:"products"`
}

// LoadSeed reads directory records from a YAML file.
func LoadSeed(path string) ([]types.ProductLinkRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}
	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parsing seed file %s: %w", path, err)
	}
	for i, r := range seed.Products {
		if strings.TrimSpace(r.Name) == "" {
			return nil, fmt.Errorf("seed file %s: product %d has no product_name", path, i+1)
		}
	}
	return seed.Products, nil
}

// Import upserts records by product name in one transaction and returns
// the number written. On PostgreSQL the products table must carry a unique
// constraint on product_name.
func (s *Store) Import(ctx context.Context, records []types.ProductLinkRecord) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, s.d.rebind(
		`INSERT INTO products (product_name, category, sub_category, blinkit_link, bigbasket_link, zepto_link)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(product_name) DO UPDATE SET
			category=excluded.category, sub_category=excluded.sub_category,
			blinkit_link=excluded.blinkit_link, bigbasket_link=excluded.bigbasket_link,
			zepto_link=excluded.zepto_link`))
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx,
			strings.TrimSpace(r.Name), r.Category, r.SubCategory,
			r.BlinkitLinks, r.BigBasketLinks, r.ZeptoLinks,
		); err != nil {
			return 0, fmt.Errorf("inserting %q: %w", r.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing import: %w", err)
	}
	return len(records), nil
}
