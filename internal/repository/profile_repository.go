package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/acchub/acchub/internal/models"
)

const profileColumns = `user_id, plan, COALESCE(username, ''), COALESCE(email, ''), created_at, updated_at`

type ProfileRepository struct {
	db *sql.DB
}

func NewProfileRepository(db *sql.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) Get(ctx context.Context, userID string) (*models.UserProfile, error) {
	query := `SELECT ` + profileColumns + ` FROM users_profile WHERE user_id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, userID))
}

func (r *ProfileRepository) GetByEmail(ctx context.Context, email string) (*models.UserProfile, error) {
	query := `SELECT ` + profileColumns + ` FROM users_profile WHERE lower(email) = lower($1)`
	return r.scanOne(r.db.QueryRowContext(ctx, query, email))
}

// Ensure creates the profile on first sight and refreshes username/email on
// later calls without touching the plan.
func (r *ProfileRepository) Ensure(ctx context.Context, userID, username, email string) (*models.UserProfile, error) {
	const query = `
INSERT INTO users_profile (user_id, plan, username, email)
VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''))
ON CONFLICT (user_id) DO UPDATE SET
    username = COALESCE(NULLIF(EXCLUDED.username, ''), users_profile.username),
    email = COALESCE(NULLIF(EXCLUDED.email, ''), users_profile.email),
    updated_at = now()`
	if _, err := r.db.ExecContext(ctx, query, userID, models.PlanFree, username, email); err != nil {
		return nil, fmt.Errorf("ensure profile: %w", err)
	}
	return r.Get(ctx, userID)
}

func (r *ProfileRepository) SetPlan(ctx context.Context, userID string, plan models.Plan) error {
	const query = `
INSERT INTO users_profile (user_id, plan)
VALUES ($1, $2)
ON CONFLICT (user_id) DO UPDATE SET plan = EXCLUDED.plan, updated_at = now()`
	if _, err := r.db.ExecContext(ctx, query, userID, plan); err != nil {
		return fmt.Errorf("set plan: %w", err)
	}
	return nil
}

func (r *ProfileRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM users_profile`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count profiles: %w", err)
	}
	return n, nil
}

func (r *ProfileRepository) scanOne(row *sql.Row) (*models.UserProfile, error) {
	var profile models.UserProfile
	if err := row.Scan(&profile.UserID, &profile.Plan, &profile.Username, &profile.Email, &profile.CreatedAt, &profile.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan profile: %w", err)
	}
	return &profile, nil
}
