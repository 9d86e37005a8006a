package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/acchub/acchub/internal/models"
)

type APIKeyRepository struct {
	db *sql.DB
}

func NewAPIKeyRepository(db *sql.DB) *APIKeyRepository {
	return &APIKeyRepository{db: db}
}

func (r *APIKeyRepository) List(ctx context.Context) ([]models.APIKey, error) {
	const query = `SELECT id, name, key, created_at FROM api_keys ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list api keys: %w", err)
	}
	defer rows.Close()

	var keys []models.APIKey
	for rows.Next() {
		var key models.APIKey
		if err := rows.Scan(&key.ID, &key.Name, &key.Key, &key.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan api key: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

func (r *APIKeyRepository) Create(ctx context.Context, key *models.APIKey) (*models.APIKey, error) {
	const query = `INSERT INTO api_keys (name, key) VALUES ($1, $2) RETURNING id, created_at`
	if err := r.db.QueryRowContext(ctx, query, key.Name, key.Key).Scan(&key.ID, &key.CreatedAt); err != nil {
		return nil, fmt.Errorf("create api key: %w", err)
	}
	return key, nil
}

func (r *APIKeyRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM api_keys WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete api key: %w", err)
	}
	return nil
}
