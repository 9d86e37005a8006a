package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/acchub/acchub/internal/models"
)

type CatalogService struct {
	log        *slog.Logger
	categories CategoryStore
	accounts   AccountStore
}

// CategoryWithStock is a storefront card: the category plus live counts for
// both shelves.
type CategoryWithStock struct {
	models.Category
	FreeStock int `json:"free_stock"`
	VIPStock  int `json:"vip_stock"`
}

func NewCatalogService(log *slog.Logger, categories CategoryStore, accounts AccountStore) *CatalogService {
	return &CatalogService{log: log, categories: categories, accounts: accounts}
}

// ListWithStock returns every category with per-tier availability. A failed
// count renders as zero stock rather than failing the whole storefront.
func (s *CatalogService) ListWithStock(ctx context.Context) ([]CategoryWithStock, error) {
	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	out := make([]CategoryWithStock, 0, len(categories))
	for _, cat := range categories {
		entry := CategoryWithStock{Category: cat}
		if n, err := s.accounts.CountStock(ctx, cat.ID, models.PlanFree); err != nil {
			s.log.Error("count free stock", "category_id", cat.ID, "err", err)
		} else {
			entry.FreeStock = n
		}
		if n, err := s.accounts.CountStock(ctx, cat.ID, models.PlanVIP); err != nil {
			s.log.Error("count vip stock", "category_id", cat.ID, "err", err)
		} else {
			entry.VIPStock = n
		}
		out = append(out, entry)
	}
	return out, nil
}

func (s *CatalogService) Get(ctx context.Context, id int64) (*models.Category, error) {
	return s.categories.GetByID(ctx, id)
}

// FindByName matches case-insensitively; the bot resolves `!generate netflix`
// through this.
func (s *CatalogService) FindByName(ctx context.Context, name string) (*models.Category, error) {
	return s.categories.GetByName(ctx, strings.TrimSpace(name))
}

func (s *CatalogService) Create(ctx context.Context, category *models.Category) (*models.Category, error) {
	category.Name = strings.TrimSpace(category.Name)
	if category.Name == "" {
		return nil, fmt.Errorf("category name cannot be empty")
	}
	return s.categories.Create(ctx, category)
}

func (s *CatalogService) Update(ctx context.Context, category *models.Category) (*models.Category, error) {
	category.Name = strings.TrimSpace(category.Name)
	if category.Name == "" {
		return nil, fmt.Errorf("category name cannot be empty")
	}
	existing, err := s.categories.GetByID(ctx, category.ID)
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	if existing == nil {
		return nil, ErrCategoryNotFound
	}
	return s.categories.Update(ctx, category)
}

func (s *CatalogService) Delete(ctx context.Context, id int64) error {
	return s.categories.Delete(ctx, id)
}
