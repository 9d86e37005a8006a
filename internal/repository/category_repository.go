package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/acchub/acchub/internal/models"
)

type CategoryRepository struct {
	db *sql.DB
}

func NewCategoryRepository(db *sql.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

func (r *CategoryRepository) List(ctx context.Context) ([]models.Category, error) {
	const query = `
SELECT id, name, COALESCE(image_url, ''), created_at
FROM categories
ORDER BY name ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.ImageURL, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *CategoryRepository) GetByID(ctx context.Context, id int64) (*models.Category, error) {
	const query = `
SELECT id, name, COALESCE(image_url, ''), created_at
FROM categories WHERE id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

// GetByName looks a category up case-insensitively; the Discord generate
// command resolves user input with it.
func (r *CategoryRepository) GetByName(ctx context.Context, name string) (*models.Category, error) {
	const query = `
SELECT id, name, COALESCE(image_url, ''), created_at
FROM categories WHERE lower(name) = lower($1)`
	return r.scanOne(r.db.QueryRowContext(ctx, query, name))
}

func (r *CategoryRepository) Create(ctx context.Context, category *models.Category) (*models.Category, error) {
	const query = `
INSERT INTO categories (name, image_url)
VALUES ($1, NULLIF($2, ''))
RETURNING id, created_at`
	if err := r.db.QueryRowContext(ctx, query, category.Name, category.ImageURL).
		Scan(&category.ID, &category.CreatedAt); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return category, nil
}

func (r *CategoryRepository) Update(ctx context.Context, category *models.Category) (*models.Category, error) {
	const query = `
UPDATE categories
SET name = $1, image_url = NULLIF($2, '')
WHERE id = $3`
	if _, err := r.db.ExecContext(ctx, query, category.Name, category.ImageURL, category.ID); err != nil {
		return nil, fmt.Errorf("update category: %w", err)
	}
	return r.GetByID(ctx, category.ID)
}

func (r *CategoryRepository) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM categories WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}

func (r *CategoryRepository) scanOne(row *sql.Row) (*models.Category, error) {
	var c models.Category
	if err := row.Scan(&c.ID, &c.Name, &c.ImageURL, &c.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan category: %w", err)
	}
	return &c, nil
}
