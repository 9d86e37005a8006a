package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/acchub/acchub/internal/models"
	"github.com/acchub/acchub/internal/notify"
)

var (
	ErrCategoryNotFound  = errors.New("category not found")
	ErrInvalidBatchCount = errors.New("batch count must be between 1 and 100")
)

// maxBatchCount caps one admin batch run.
const maxBatchCount = 100

// Notifier posts the success embed after a hand-out.
type Notifier interface {
	SendGeneration(ctx context.Context, webhookURL string, gen notify.Generation) error
}

type GenerationService struct {
	log        *slog.Logger
	accounts   AccountStore
	categories CategoryStore
	profiles   ProfileStore
	settings   SettingsStore
	activity   ActivityStore
	notifier   Notifier
	delay      time.Duration
}

type GenerateRequest struct {
	CategoryID int64
	UserID     string
	Username   string
	IP         string
	// Tier overrides the user's plan when set; admins and the bot use it to
	// generate from a specific shelf.
	Tier models.Plan
}

// GenerateResult reports either a handed-out account or a sold-out shelf.
// Exhaustion is a normal outcome, not an error.
type GenerateResult struct {
	Account      *models.Account
	CategoryName string
	Plan         models.Plan
	SoldOut      bool
}

func NewGenerationService(
	log *slog.Logger,
	accounts AccountStore,
	categories CategoryStore,
	profiles ProfileStore,
	settings SettingsStore,
	activity ActivityStore,
	notifier Notifier,
	delay time.Duration,
) *GenerationService {
	return &GenerationService{
		log:        log,
		accounts:   accounts,
		categories: categories,
		profiles:   profiles,
		settings:   settings,
		activity:   activity,
		notifier:   notifier,
		delay:      delay,
	}
}

func (s *GenerationService) Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	category, err := s.categories.GetByID(ctx, req.CategoryID)
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	if category == nil {
		return nil, ErrCategoryNotFound
	}

	plan := req.Tier
	if !plan.Valid() {
		plan = models.PlanFree
		if req.UserID != "" {
			profile, err := s.profiles.Get(ctx, req.UserID)
			if err != nil {
				return nil, fmt.Errorf("get profile: %w", err)
			}
			if profile != nil {
				plan = profile.Plan
			}
		}
	}

	// Pacing delay before the claim, matching the storefront's animation
	// window. Cancellation during the wait aborts without touching stock.
	if s.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.delay):
		}
	}

	account, err := s.accounts.Claim(ctx, category.ID, plan, req.IP)
	if err != nil {
		return nil, fmt.Errorf("claim account: %w", err)
	}
	if account == nil {
		return &GenerateResult{CategoryName: category.Name, Plan: plan, SoldOut: true}, nil
	}

	s.afterGeneration(account, category.Name, plan, req)

	return &GenerateResult{Account: account, CategoryName: category.Name, Plan: plan}, nil
}

// afterGeneration runs the best-effort side effects. Each gets its own
// timeout so a slow webhook cannot hold the caller's request, and failures
// are logged and swallowed.
func (s *GenerationService) afterGeneration(account *models.Account, categoryName string, plan models.Plan, req GenerateRequest) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		settings, err := s.settings.Get(ctx)
		if err != nil {
			s.log.Error("load settings for webhook", "err", err)
		} else if s.notifier != nil {
			gen := notify.Generation{
				AccountEmail: account.Email,
				CategoryName: categoryName,
				UserName:     req.Username,
				Plan:         plan,
				PlatformURL:  settings.PlatformURL,
				At:           time.Now(),
			}
			if err := s.notifier.SendGeneration(ctx, settings.DiscordWebhookURL, gen); err != nil {
				s.log.Error("send generation webhook", "err", err)
			}
		}

		entry := &models.ActivityLog{
			Action:     "account_generated",
			EntityType: "account",
			EntityID:   account.ID,
			Actor:      req.UserID,
			Details:    fmt.Sprintf("category=%s plan=%s email=%s", categoryName, plan, account.Email),
		}
		if err := s.activity.Log(ctx, entry); err != nil {
			s.log.Error("log generation activity", "err", err)
		}
	}()
}

// BatchResult holds the accounts claimed by one admin batch run. Accounts may
// be shorter than the requested count when the shelf ran dry.
type BatchResult struct {
	CategoryName string
	Plan         models.Plan
	Requested    int
	Accounts     []models.Account
}

// GenerateBatch claims up to count accounts from one category and tier in a
// single admin action. Each claim still writes its history row, but the
// storefront pacing delay and the webhook fan-out are skipped; a single
// activity entry summarizes the run. Claiming stops at the first empty claim.
func (s *GenerationService) GenerateBatch(ctx context.Context, categoryID int64, tier models.Plan, count int, actor string) (*BatchResult, error) {
	if count <= 0 || count > maxBatchCount {
		return nil, ErrInvalidBatchCount
	}

	category, err := s.categories.GetByID(ctx, categoryID)
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	if category == nil {
		return nil, ErrCategoryNotFound
	}
	if !tier.Valid() {
		tier = models.PlanFree
	}

	result := &BatchResult{CategoryName: category.Name, Plan: tier, Requested: count}
	for i := 0; i < count; i++ {
		account, err := s.accounts.Claim(ctx, category.ID, tier, "")
		if err != nil {
			return nil, fmt.Errorf("claim account: %w", err)
		}
		if account == nil {
			break
		}
		result.Accounts = append(result.Accounts, *account)
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		entry := &models.ActivityLog{
			Action:     "accounts_batch_generated",
			EntityType: "category",
			EntityID:   category.ID,
			Actor:      actor,
			Details:    fmt.Sprintf("category=%s tier=%s requested=%d claimed=%d", category.Name, tier, count, len(result.Accounts)),
		}
		if err := s.activity.Log(ctx, entry); err != nil {
			s.log.Error("log batch generation activity", "err", err)
		}
	}()

	return result, nil
}

// Stock is a read-through count, safe to call on every storefront render.
func (s *GenerationService) Stock(ctx context.Context, categoryID int64, plan models.Plan) (int, error) {
	if !plan.Valid() {
		plan = models.PlanFree
	}
	return s.accounts.CountStock(ctx, categoryID, plan)
}
