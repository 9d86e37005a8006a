package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/acchub/acchub/internal/models"
)

type ProfileService struct {
	profiles ProfileStore
}

func NewProfileService(profiles ProfileStore) *ProfileService {
	return &ProfileService{profiles: profiles}
}

func (s *ProfileService) Get(ctx context.Context, userID string) (*models.UserProfile, error) {
	return s.profiles.Get(ctx, userID)
}

func (s *ProfileService) FindByEmail(ctx context.Context, email string) (*models.UserProfile, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, nil
	}
	return s.profiles.GetByEmail(ctx, email)
}

// Touch registers the user on first contact and keeps username/email fresh
// afterwards. New users start on the free plan.
func (s *ProfileService) Touch(ctx context.Context, userID, username, email string) (*models.UserProfile, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id cannot be empty")
	}
	return s.profiles.Ensure(ctx, userID, username, email)
}

func (s *ProfileService) SetPlan(ctx context.Context, userID string, plan models.Plan) error {
	if !plan.Valid() {
		return fmt.Errorf("invalid plan: %q", plan)
	}
	return s.profiles.SetPlan(ctx, userID, plan)
}
