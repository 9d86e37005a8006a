package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acchub/acchub/internal/models"
)

type countFailingAccountStore struct {
	*fakeAccountStore
}

func (s countFailingAccountStore) CountStock(ctx context.Context, categoryID int64, tier models.Plan) (int, error) {
	return 0, errors.New("database unreachable")
}

func TestListWithStock(t *testing.T) {
	accounts := newFakeAccountStore()
	categories := newFakeCategoryStore()
	svc := NewCatalogService(discardLogger(), categories, accounts)

	cat := categories.add("Netflix")
	accounts.add(cat.ID, "f1@b.com", models.PlanFree)
	accounts.add(cat.ID, "f2@b.com", models.PlanFree)
	accounts.add(cat.ID, "v1@b.com", models.PlanVIP)

	list, err := svc.ListWithStock(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 2, list[0].FreeStock)
	assert.Equal(t, 1, list[0].VIPStock)
}

// A broken count never takes down the storefront; the category just shows
// zero stock.
func TestListWithStockCountFailureShowsZero(t *testing.T) {
	accounts := newFakeAccountStore()
	categories := newFakeCategoryStore()
	svc := NewCatalogService(discardLogger(), categories, countFailingAccountStore{accounts})

	cat := categories.add("Netflix")
	accounts.add(cat.ID, "f1@b.com", models.PlanFree)

	list, err := svc.ListWithStock(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 0, list[0].FreeStock)
	assert.Equal(t, 0, list[0].VIPStock)
}

func TestFindByNameCaseInsensitive(t *testing.T) {
	categories := newFakeCategoryStore()
	svc := NewCatalogService(discardLogger(), categories, newFakeAccountStore())
	categories.add("Netflix Premium")

	cat, err := svc.FindByName(context.Background(), "  netflix premium ")
	require.NoError(t, err)
	require.NotNil(t, cat)
	assert.Equal(t, "Netflix Premium", cat.Name)
}

func TestCreateRejectsEmptyName(t *testing.T) {
	svc := NewCatalogService(discardLogger(), newFakeCategoryStore(), newFakeAccountStore())
	_, err := svc.Create(context.Background(), &models.Category{Name: "   "})
	assert.Error(t, err)
}

func TestUpdateUnknownCategory(t *testing.T) {
	svc := NewCatalogService(discardLogger(), newFakeCategoryStore(), newFakeAccountStore())
	_, err := svc.Update(context.Background(), &models.Category{ID: 9, Name: "X"})
	assert.ErrorIs(t, err, ErrCategoryNotFound)
}
