package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/acchub/acchub/internal/models"
)

var (
	ErrPromoInvalid   = errors.New("promo code invalid")
	ErrPromoExpired   = errors.New("promo code expired")
	ErrPromoExhausted = errors.New("promo code exhausted")
)

type PromoService struct {
	log      *slog.Logger
	promos   PromoStore
	activity ActivityStore
}

func NewPromoService(log *slog.Logger, promos PromoStore, activity ActivityStore) *PromoService {
	return &PromoService{log: log, promos: promos, activity: activity}
}

// Redeem burns one use of the code and upgrades the user to the code's plan.
// The store handles the use counter and plan switch atomically; this layer
// only classifies the failure modes.
func (s *PromoService) Redeem(ctx context.Context, code, userID string) (*models.PromoCode, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" || userID == "" {
		return nil, ErrPromoInvalid
	}

	promo, err := s.promos.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("get promo: %w", err)
	}
	if promo == nil {
		return nil, ErrPromoInvalid
	}
	if promo.ExpiresAt != nil && time.Now().After(*promo.ExpiresAt) {
		return nil, ErrPromoExpired
	}

	claimed, err := s.promos.ConsumeAndUpgrade(ctx, promo.ID, userID, promo.Plan)
	if err != nil {
		return nil, fmt.Errorf("consume promo: %w", err)
	}
	if !claimed {
		return nil, ErrPromoExhausted
	}

	s.logRedemption(promo, userID)

	promo.CurrentUses++
	return promo, nil
}

func (s *PromoService) logRedemption(promo *models.PromoCode, userID string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		entry := &models.ActivityLog{
			Action:     "promo_redeemed",
			EntityType: "promo_code",
			EntityID:   promo.ID,
			Actor:      userID,
			Details:    fmt.Sprintf("code=%s plan=%s", promo.Code, promo.Plan),
		}
		if err := s.activity.Log(ctx, entry); err != nil {
			s.log.Error("log promo redemption", "err", err)
		}
	}()
}

func (s *PromoService) List(ctx context.Context) ([]models.PromoCode, error) {
	return s.promos.List(ctx)
}

func (s *PromoService) GetByID(ctx context.Context, id int64) (*models.PromoCode, error) {
	return s.promos.GetByID(ctx, id)
}

func (s *PromoService) Create(ctx context.Context, promo *models.PromoCode) (*models.PromoCode, error) {
	promo.Code = strings.ToUpper(strings.TrimSpace(promo.Code))
	if promo.Code == "" {
		promo.Code = RandomCode()
	}
	if !promo.Plan.Valid() {
		return nil, fmt.Errorf("invalid plan: %q", promo.Plan)
	}
	if promo.MaxUses <= 0 {
		promo.MaxUses = 1
	}
	return s.promos.Create(ctx, promo)
}

func (s *PromoService) Update(ctx context.Context, promo *models.PromoCode) (*models.PromoCode, error) {
	existing, err := s.promos.GetByID(ctx, promo.ID)
	if err != nil {
		return nil, fmt.Errorf("get promo: %w", err)
	}
	if existing == nil {
		return nil, ErrPromoInvalid
	}
	return s.promos.Update(ctx, promo)
}

func (s *PromoService) Delete(ctx context.Context, id int64) error {
	return s.promos.Delete(ctx, id)
}

// codeAlphabet drops the characters users misread over voice or screenshots.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

func RandomCode() string {
	max := big.NewInt(int64(len(codeAlphabet)))
	b := make([]byte, 8)
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails when the OS entropy source is broken.
			b[i] = codeAlphabet[0]
			continue
		}
		b[i] = codeAlphabet[n.Int64()]
	}
	return string(b)
}
