package service

import (
	"context"
	"time"

	"github.com/acchub/acchub/internal/models"
)

// Store interfaces are satisfied by the repository types. Services depend on
// these rather than the concrete repositories so tests can substitute
// in-memory stores.

type CategoryStore interface {
	List(ctx context.Context) ([]models.Category, error)
	GetByID(ctx context.Context, id int64) (*models.Category, error)
	GetByName(ctx context.Context, name string) (*models.Category, error)
	Create(ctx context.Context, category *models.Category) (*models.Category, error)
	Update(ctx context.Context, category *models.Category) (*models.Category, error)
	Delete(ctx context.Context, id int64) error
}

type AccountStore interface {
	List(ctx context.Context) ([]models.Account, error)
	GetByID(ctx context.Context, id int64) (*models.Account, error)
	Create(ctx context.Context, account *models.Account) (*models.Account, error)
	BulkInsert(ctx context.Context, accounts []models.Account) (int, error)
	Update(ctx context.Context, account *models.Account) (*models.Account, error)
	Delete(ctx context.Context, ids []int64) (int64, error)
	SetUsed(ctx context.Context, ids []int64, used bool) error
	UpdateValidation(ctx context.Context, id int64, status models.ValidationStatus, notes, validatedBy string) error
	CountStock(ctx context.Context, categoryID int64, tier models.Plan) (int, error)
	Counts(ctx context.Context) (total, used int64, err error)
	Claim(ctx context.Context, categoryID int64, tier models.Plan, ip string) (*models.Account, error)
}

type PromoStore interface {
	GetByCode(ctx context.Context, code string) (*models.PromoCode, error)
	GetByID(ctx context.Context, id int64) (*models.PromoCode, error)
	List(ctx context.Context) ([]models.PromoCode, error)
	Create(ctx context.Context, promo *models.PromoCode) (*models.PromoCode, error)
	Update(ctx context.Context, promo *models.PromoCode) (*models.PromoCode, error)
	Delete(ctx context.Context, id int64) error
	ConsumeAndUpgrade(ctx context.Context, promoID int64, userID string, plan models.Plan) (bool, error)
}

type ProfileStore interface {
	Get(ctx context.Context, userID string) (*models.UserProfile, error)
	GetByEmail(ctx context.Context, email string) (*models.UserProfile, error)
	Ensure(ctx context.Context, userID, username, email string) (*models.UserProfile, error)
	SetPlan(ctx context.Context, userID string, plan models.Plan) error
	Count(ctx context.Context) (int64, error)
}

type HistoryStore interface {
	List(ctx context.Context, limit int) ([]models.GenerationHistory, error)
	ListSince(ctx context.Context, since time.Time, limit int) ([]models.GenerationHistory, error)
	Count(ctx context.Context) (int64, error)
	CountSince(ctx context.Context, since time.Time) (int64, error)
}

type ActivityStore interface {
	Log(ctx context.Context, entry *models.ActivityLog) error
	List(ctx context.Context, limit int) ([]models.ActivityLog, error)
}

type SettingsStore interface {
	Get(ctx context.Context) (*models.Settings, error)
	Save(ctx context.Context, settings *models.Settings) (*models.Settings, error)
}

type APIKeyStore interface {
	List(ctx context.Context) ([]models.APIKey, error)
	Create(ctx context.Context, key *models.APIKey) (*models.APIKey, error)
	Delete(ctx context.Context, id int64) error
}
