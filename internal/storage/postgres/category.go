package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

type CategoryStore struct {
	db *sqlx.DB
}

func NewCategoryStore(db *sqlx.DB) *CategoryStore {
	return &CategoryStore{db: db}
}

// IDByName resolves a category by exact name. A missing category is not an
// error: it returns nil.
func (s *CategoryStore) IDByName(ctx context.Context, name string) (*int64, error) {
	var id int64
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &id,
		`SELECT id FROM categories WHERE name = $1`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// Ensure returns the id of the named category, creating it if needed.
func (s *CategoryStore) Ensure(ctx context.Context, name string) (int64, error) {
	var id int64
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &id, `
		INSERT INTO categories (name) VALUES ($1)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id`, name)
	return id, err
}
