// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package directory

import "fmt"

// createSchema mirrors the hosted products table. Names are unique without
// regard to ASCII case so Import can upsert by name.
func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS products (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			product_name TEXT NOT NULL UNIQUE COLLATE NOCASE,
			category TEXT,
			sub_category TEXT,
			blinkit_link TEXT,
			bigbasket_link TEXT,
			zepto_link TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_products_category ON products(category, sub_category)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}
