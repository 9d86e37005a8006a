package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/acchub/acchub/internal/export"
	"github.com/acchub/acchub/internal/models"
	"github.com/acchub/acchub/internal/validator"
)

var ErrAccountNotFound = errors.New("account not found")

type AccountService struct {
	log        *slog.Logger
	accounts   AccountStore
	categories CategoryStore
	activity   ActivityStore
}

func NewAccountService(log *slog.Logger, accounts AccountStore, categories CategoryStore, activity ActivityStore) *AccountService {
	return &AccountService{log: log, accounts: accounts, categories: categories, activity: activity}
}

func (s *AccountService) List(ctx context.Context) ([]models.Account, error) {
	return s.accounts.List(ctx)
}

func (s *AccountService) Get(ctx context.Context, id int64) (*models.Account, error) {
	return s.accounts.GetByID(ctx, id)
}

func (s *AccountService) Create(ctx context.Context, account *models.Account) (*models.Account, error) {
	if err := s.normalize(ctx, account); err != nil {
		return nil, err
	}
	return s.accounts.Create(ctx, account)
}

func (s *AccountService) Update(ctx context.Context, account *models.Account) (*models.Account, error) {
	existing, err := s.accounts.GetByID(ctx, account.ID)
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	if existing == nil {
		return nil, ErrAccountNotFound
	}
	if err := s.normalize(ctx, account); err != nil {
		return nil, err
	}
	return s.accounts.Update(ctx, account)
}

func (s *AccountService) Delete(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	return s.accounts.Delete(ctx, ids)
}

func (s *AccountService) SetUsed(ctx context.Context, ids []int64, used bool) error {
	if len(ids) == 0 {
		return nil
	}
	return s.accounts.SetUsed(ctx, ids, used)
}

// BulkImport inserts colon-separated credentials into one category and tier.
// Lines that do not parse are skipped; the return value is how many rows
// actually landed.
func (s *AccountService) BulkImport(ctx context.Context, categoryID int64, tier models.Plan, text string) (int, error) {
	category, err := s.categories.GetByID(ctx, categoryID)
	if err != nil {
		return 0, fmt.Errorf("get category: %w", err)
	}
	if category == nil {
		return 0, ErrCategoryNotFound
	}
	if !tier.Valid() {
		tier = models.PlanFree
	}

	creds := export.ParseBulkLines(text)
	if len(creds) == 0 {
		return 0, nil
	}

	accounts := make([]models.Account, 0, len(creds))
	for _, cred := range creds {
		accounts = append(accounts, models.Account{
			CategoryID:       categoryID,
			Email:            cred.Email,
			Password:         cred.Password,
			QualityLevel:     tier,
			SuccessRate:      tier.DefaultSuccessRate(),
			ValidationStatus: models.ValidationUnknown,
		})
	}

	inserted, err := s.accounts.BulkInsert(ctx, accounts)
	if err != nil {
		return 0, fmt.Errorf("bulk insert: %w", err)
	}

	s.logActivity("accounts_bulk_imported", "category", category.ID, fmt.Sprintf("category=%s tier=%s count=%d", category.Name, tier, inserted))
	return inserted, nil
}

// ImportCSV inserts rows parsed from an accounts export. Categories are
// resolved by name; rows naming an unknown category are skipped.
func (s *AccountService) ImportCSV(ctx context.Context, rows []export.ImportedAccount, fallbackCategoryID int64, tier models.Plan) (int, error) {
	if !tier.Valid() {
		tier = models.PlanFree
	}

	categories, err := s.categories.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list categories: %w", err)
	}
	byName := make(map[string]int64, len(categories))
	for _, cat := range categories {
		byName[strings.ToLower(cat.Name)] = cat.ID
	}

	var accounts []models.Account
	for _, row := range rows {
		categoryID := fallbackCategoryID
		if row.CategoryName != "" {
			id, ok := byName[strings.ToLower(row.CategoryName)]
			if !ok {
				continue
			}
			categoryID = id
		}
		if categoryID == 0 {
			continue
		}
		accounts = append(accounts, models.Account{
			CategoryID:       categoryID,
			Email:            row.Email,
			Password:         row.Password,
			QualityLevel:     tier,
			SuccessRate:      tier.DefaultSuccessRate(),
			ValidationStatus: models.ValidationUnknown,
		})
	}
	if len(accounts) == 0 {
		return 0, nil
	}

	inserted, err := s.accounts.BulkInsert(ctx, accounts)
	if err != nil {
		return 0, fmt.Errorf("bulk insert: %w", err)
	}
	s.logActivity("accounts_csv_imported", "", 0, fmt.Sprintf("count=%d", inserted))
	return inserted, nil
}

// Validate runs the advisory checks against one account and stores the
// resulting classification.
func (s *AccountService) Validate(ctx context.Context, id int64, validatedBy string) (*validator.Result, error) {
	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}

	categoryName := ""
	if category, err := s.categories.GetByID(ctx, account.CategoryID); err == nil && category != nil {
		categoryName = category.Name
	}

	result := validator.Classify(account.Email, account.Password, categoryName)
	if err := s.accounts.UpdateValidation(ctx, id, result.Status, result.Message, validatedBy); err != nil {
		return nil, fmt.Errorf("update validation: %w", err)
	}
	return &result, nil
}

func (s *AccountService) SetValidation(ctx context.Context, id int64, status models.ValidationStatus, notes, validatedBy string) error {
	return s.accounts.UpdateValidation(ctx, id, status, notes, validatedBy)
}

// CategoryNames maps ids to names for exports.
func (s *AccountService) CategoryNames(ctx context.Context) (map[int64]string, error) {
	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	names := make(map[int64]string, len(categories))
	for _, cat := range categories {
		names[cat.ID] = cat.Name
	}
	return names, nil
}

func (s *AccountService) normalize(ctx context.Context, account *models.Account) error {
	account.Email = strings.TrimSpace(account.Email)
	account.Password = strings.TrimSpace(account.Password)
	if account.Email == "" || account.Password == "" {
		return fmt.Errorf("email and password are required")
	}
	if !account.QualityLevel.Valid() {
		account.QualityLevel = models.PlanFree
	}
	if account.SuccessRate <= 0 {
		account.SuccessRate = account.QualityLevel.DefaultSuccessRate()
	}
	if account.ValidationStatus == "" {
		account.ValidationStatus = models.ValidationUnknown
	}

	category, err := s.categories.GetByID(ctx, account.CategoryID)
	if err != nil {
		return fmt.Errorf("get category: %w", err)
	}
	if category == nil {
		return ErrCategoryNotFound
	}
	return nil
}

func (s *AccountService) logActivity(action, entityType string, entityID int64, details string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		entry := &models.ActivityLog{
			Action:     action,
			EntityType: entityType,
			EntityID:   entityID,
			Details:    details,
		}
		if err := s.activity.Log(ctx, entry); err != nil {
			s.log.Error("log activity", "action", action, "err", err)
		}
	}()
}
