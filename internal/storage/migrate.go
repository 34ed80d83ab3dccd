package storage

import (
	"context"
	_ "embed"
	"fmt"

	"lexstream/internal/model"
)

//go:embed schema.sql
var schemaSQL string

// Migrate applies the schema and seeds the category taxonomy. Safe to run
// repeatedly; the seed is an idempotent upsert on the category name.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}

	for _, c := range model.Taxonomy {
		_, err := s.db.Exec(ctx,
			`INSERT INTO legal_categories (name, slug) VALUES ($1, $2)
			 ON CONFLICT (name) DO UPDATE SET slug = EXCLUDED.slug`,
			c.Name, c.Slug)
		if err != nil {
			return fmt.Errorf("seed category %q: %w", c.Name, err)
		}
	}
	return nil
}
