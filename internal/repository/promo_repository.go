package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/acchub/acchub/internal/models"
)

const promoColumns = `id, code, plan, max_uses, current_uses, expires_at, created_at`

type PromoRepository struct {
	db *sql.DB
}

func NewPromoRepository(db *sql.DB) *PromoRepository {
	return &PromoRepository{db: db}
}

func (r *PromoRepository) GetByCode(ctx context.Context, code string) (*models.PromoCode, error) {
	query := `SELECT ` + promoColumns + ` FROM promo_codes WHERE upper(code) = upper($1)`
	return r.scanOne(r.db.QueryRowContext(ctx, query, code))
}

func (r *PromoRepository) GetByID(ctx context.Context, id int64) (*models.PromoCode, error) {
	query := `SELECT ` + promoColumns + ` FROM promo_codes WHERE id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *PromoRepository) List(ctx context.Context) ([]models.PromoCode, error) {
	query := `SELECT ` + promoColumns + ` FROM promo_codes ORDER BY id DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list promo codes: %w", err)
	}
	defer rows.Close()

	var promos []models.PromoCode
	for rows.Next() {
		var promo models.PromoCode
		if err := rows.Scan(&promo.ID, &promo.Code, &promo.Plan, &promo.MaxUses, &promo.CurrentUses, &promo.ExpiresAt, &promo.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan promo list: %w", err)
		}
		promos = append(promos, promo)
	}
	return promos, rows.Err()
}

func (r *PromoRepository) Create(ctx context.Context, promo *models.PromoCode) (*models.PromoCode, error) {
	const query = `
INSERT INTO promo_codes (code, plan, max_uses, current_uses, expires_at)
VALUES (upper($1), $2, $3, 0, $4)
RETURNING id, created_at`
	if err := r.db.QueryRowContext(ctx, query, promo.Code, promo.Plan, promo.MaxUses, promo.ExpiresAt).
		Scan(&promo.ID, &promo.CreatedAt); err != nil {
		return nil, fmt.Errorf("create promo: %w", err)
	}
	return r.GetByID(ctx, promo.ID)
}

func (r *PromoRepository) Update(ctx context.Context, promo *models.PromoCode) (*models.PromoCode, error) {
	const query = `
UPDATE promo_codes
SET code = upper($1), plan = $2, max_uses = $3, current_uses = $4, expires_at = $5
WHERE id = $6`
	if _, err := r.db.ExecContext(ctx, query,
		promo.Code, promo.Plan, promo.MaxUses, promo.CurrentUses, promo.ExpiresAt, promo.ID,
	); err != nil {
		return nil, fmt.Errorf("update promo: %w", err)
	}
	return r.GetByID(ctx, promo.ID)
}

func (r *PromoRepository) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM promo_codes WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete promo: %w", err)
	}
	return nil
}

// ConsumeAndUpgrade burns one use of the code and sets the user's plan, both
// in one transaction. The bounded conditional increment keeps current_uses
// from ever exceeding max_uses under concurrent redemption; a false return
// means the code was exhausted before this caller got it.
func (r *PromoRepository) ConsumeAndUpgrade(ctx context.Context, promoID int64, userID string, plan models.Plan) (bool, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	const consume = `
UPDATE promo_codes SET current_uses = current_uses + 1
WHERE id = $1 AND current_uses < max_uses`
	res, err := tx.ExecContext(ctx, consume, promoID)
	if err != nil {
		return false, fmt.Errorf("increment promo uses: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("promo uses rows affected: %w", err)
	}
	if affected == 0 {
		return false, nil
	}

	const upgrade = `
INSERT INTO users_profile (user_id, plan)
VALUES ($1, $2)
ON CONFLICT (user_id) DO UPDATE SET plan = EXCLUDED.plan, updated_at = now()`
	if _, err := tx.ExecContext(ctx, upgrade, userID, plan); err != nil {
		return false, fmt.Errorf("upgrade user plan: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit redemption: %w", err)
	}
	return true, nil
}

func (r *PromoRepository) scanOne(row *sql.Row) (*models.PromoCode, error) {
	var promo models.PromoCode
	if err := row.Scan(&promo.ID, &promo.Code, &promo.Plan, &promo.MaxUses, &promo.CurrentUses, &promo.ExpiresAt, &promo.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan promo: %w", err)
	}
	return &promo, nil
}
