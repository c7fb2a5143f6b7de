package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) FindMatch(ctx context.Context, description string) (string, error) {
	query := `
		SELECT category_id
		FROM category_mappings
		WHERE $1 ILIKE '%' || pattern || '%'
		ORDER BY LENGTH(pattern) DESC, created_at DESC
		LIMIT 1
	`

	var categoryID string

	err := s.db.QueryRowContext(ctx, query, description).Scan(&categoryID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}

		return "", fmt.Errorf("finding match: %w", err)
	}

	return categoryID, nil
}

func (s *Store) CreateMapping(ctx context.Context, pattern, categoryID string) error {
	query := `
		INSERT INTO category_mappings (pattern, category_id, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (LOWER(pattern)) DO UPDATE
		SET category_id = EXCLUDED.category_id, created_at = NOW()
	`

	if _, err := s.db.ExecContext(ctx, query, pattern, categoryID); err != nil {
		return fmt.Errorf("creating mapping: %w", err)
	}

	return nil
}
