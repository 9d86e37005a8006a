package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/acchub/acchub/internal/models"
)

type HistoryRepository struct {
	db *sql.DB
}

func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

func (r *HistoryRepository) List(ctx context.Context, limit int) ([]models.GenerationHistory, error) {
	if limit <= 0 {
		limit = 100
	}
	const query = `
SELECT id, category_name, email, generated_at, COALESCE(ip_address, '')
FROM generation_history
ORDER BY generated_at DESC, id DESC
LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	var entries []models.GenerationHistory
	for rows.Next() {
		var entry models.GenerationHistory
		if err := rows.Scan(&entry.ID, &entry.CategoryName, &entry.Email, &entry.GeneratedAt, &entry.IPAddress); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// ListSince returns the newest entries generated at or after since. A zero
// since means no lower bound.
func (r *HistoryRepository) ListSince(ctx context.Context, since time.Time, limit int) ([]models.GenerationHistory, error) {
	if limit <= 0 {
		limit = 100
	}
	const query = `
SELECT id, category_name, email, generated_at, COALESCE(ip_address, '')
FROM generation_history
WHERE generated_at >= $1
ORDER BY generated_at DESC, id DESC
LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, since, limit)
	if err != nil {
		return nil, fmt.Errorf("list history since: %w", err)
	}
	defer rows.Close()

	var entries []models.GenerationHistory
	for rows.Next() {
		var entry models.GenerationHistory
		if err := rows.Scan(&entry.ID, &entry.CategoryName, &entry.Email, &entry.GeneratedAt, &entry.IPAddress); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (r *HistoryRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM generation_history`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count history: %w", err)
	}
	return n, nil
}

func (r *HistoryRepository) CountSince(ctx context.Context, since time.Time) (int64, error) {
	const query = `SELECT count(*) FROM generation_history WHERE generated_at >= $1`
	var n int64
	if err := r.db.QueryRowContext(ctx, query, since).Scan(&n); err != nil {
		return 0, fmt.Errorf("count history since: %w", err)
	}
	return n, nil
}
