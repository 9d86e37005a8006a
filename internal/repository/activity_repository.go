package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/acchub/acchub/internal/models"
)

type ActivityRepository struct {
	db *sql.DB
}

func NewActivityRepository(db *sql.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

func (r *ActivityRepository) Log(ctx context.Context, entry *models.ActivityLog) error {
	const query = `
INSERT INTO activity_log (action, entity_type, entity_id, actor, details)
VALUES ($1, NULLIF($2, ''), $3, NULLIF($4, ''), NULLIF($5, ''))`
	entityID := sql.NullInt64{Int64: entry.EntityID, Valid: entry.EntityID != 0}
	if _, err := r.db.ExecContext(ctx, query, entry.Action, entry.EntityType, entityID, entry.Actor, entry.Details); err != nil {
		return fmt.Errorf("log activity: %w", err)
	}
	return nil
}

func (r *ActivityRepository) List(ctx context.Context, limit int) ([]models.ActivityLog, error) {
	if limit <= 0 {
		limit = 100
	}
	const query = `
SELECT id, action, COALESCE(entity_type, ''), COALESCE(entity_id, 0),
       COALESCE(actor, ''), COALESCE(details, ''), created_at
FROM activity_log
ORDER BY id DESC
LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	defer rows.Close()

	var entries []models.ActivityLog
	for rows.Next() {
		var entry models.ActivityLog
		if err := rows.Scan(&entry.ID, &entry.Action, &entry.EntityType, &entry.EntityID, &entry.Actor, &entry.Details, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
