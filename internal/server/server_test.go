package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acchub/acchub/internal/models"
	"github.com/acchub/acchub/internal/service"
)

// Stubs embed the store interface and override only what a test exercises;
// calling anything else panics, which is the point.

type stubCategories struct {
	service.CategoryStore
	categories []models.Category
}

func (s *stubCategories) List(ctx context.Context) ([]models.Category, error) {
	return s.categories, nil
}

func (s *stubCategories) GetByID(ctx context.Context, id int64) (*models.Category, error) {
	for _, cat := range s.categories {
		if cat.ID == id {
			copied := cat
			return &copied, nil
		}
	}
	return nil, nil
}

type stubAccounts struct {
	service.AccountStore
	mu    sync.Mutex
	stock []models.Account
}

func (s *stubAccounts) CountStock(ctx context.Context, categoryID int64, tier models.Plan) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, acc := range s.stock {
		if acc.CategoryID == categoryID && acc.QualityLevel == tier && !acc.IsUsed {
			n++
		}
	}
	return n, nil
}

func (s *stubAccounts) Claim(ctx context.Context, categoryID int64, tier models.Plan, ip string) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.stock {
		acc := &s.stock[i]
		if acc.CategoryID == categoryID && acc.QualityLevel == tier && !acc.IsUsed {
			acc.IsUsed = true
			copied := *acc
			return &copied, nil
		}
	}
	return nil, nil
}

type stubProfiles struct {
	service.ProfileStore
}

func (s *stubProfiles) Get(ctx context.Context, userID string) (*models.UserProfile, error) {
	return nil, nil
}

func (s *stubProfiles) Ensure(ctx context.Context, userID, username, email string) (*models.UserProfile, error) {
	return &models.UserProfile{UserID: userID, Plan: models.PlanFree}, nil
}

type stubSettings struct {
	service.SettingsStore
	mu       sync.Mutex
	settings models.Settings
}

func (s *stubSettings) Get(ctx context.Context) (*models.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := s.settings
	return &copied, nil
}

func (s *stubSettings) Save(ctx context.Context, settings *models.Settings) (*models.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = *settings
	copied := s.settings
	return &copied, nil
}

type stubActivity struct {
	service.ActivityStore
}

func (s *stubActivity) Log(ctx context.Context, entry *models.ActivityLog) error { return nil }

type stubPromos struct {
	service.PromoStore
}

func (s *stubPromos) GetByCode(ctx context.Context, code string) (*models.PromoCode, error) {
	return nil, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixture struct {
	server   *Server
	settings *stubSettings
}

func newServerFixture(t *testing.T) *fixture {
	t.Helper()
	log := testLogger()

	categories := &stubCategories{categories: []models.Category{{ID: 1, Name: "Netflix"}}}
	accounts := &stubAccounts{stock: []models.Account{
		{ID: 1, CategoryID: 1, Email: "a@b.com", Password: "pw", QualityLevel: models.PlanFree},
	}}
	profiles := &stubProfiles{}
	settings := &stubSettings{settings: models.Settings{RateLimitPerMinute: 0}}
	activity := &stubActivity{}

	deps := Deps{
		Catalog:    service.NewCatalogService(log, categories, accounts),
		Generation: service.NewGenerationService(log, accounts, categories, profiles, settings, activity, nil, 0),
		Promos:     service.NewPromoService(log, &stubPromos{}, activity),
		Profiles:   service.NewProfileService(profiles),
		Settings:   settings,
	}
	return &fixture{
		server:   NewServer(":0", "admin", "secret", log, deps),
		settings: settings,
	}
}

func postJSON(t *testing.T, handler http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	f := newServerFixture(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAdminRequiresBasicAuth(t *testing.T) {
	f := newServerFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/admin/settings", nil)
	w := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/admin/settings", nil)
	req.SetBasicAuth("admin", "wrong")
	w = httptest.NewRecorder()
	f.server.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/admin/settings", nil)
	req.SetBasicAuth("admin", "secret")
	w = httptest.NewRecorder()
	f.server.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGenerateReturnsAccountThenSoldOut(t *testing.T) {
	f := newServerFixture(t)

	w := postJSON(t, f.server.Handler(), "/api/generate", generateRequest{CategoryID: 1})
	require.Equal(t, http.StatusOK, w.Code)

	var resp generateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.SoldOut)
	assert.Equal(t, "a@b.com", resp.Email)
	assert.Equal(t, "pw", resp.Password)

	// Stock is now empty; exhaustion is still HTTP 200 with a friendly message.
	w = postJSON(t, f.server.Handler(), "/api/generate", generateRequest{CategoryID: 1})
	require.Equal(t, http.StatusOK, w.Code)
	resp = generateResponse{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.SoldOut)
	assert.Empty(t, resp.Email)
	assert.NotEmpty(t, resp.Message)
}

func TestGenerateUnknownCategory(t *testing.T) {
	f := newServerFixture(t)
	w := postJSON(t, f.server.Handler(), "/api/generate", generateRequest{CategoryID: 42})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGenerateMissingCategoryID(t *testing.T) {
	f := newServerFixture(t)
	w := postJSON(t, f.server.Handler(), "/api/generate", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGenerateMaintenanceMode(t *testing.T) {
	f := newServerFixture(t)
	f.settings.settings.MaintenanceMode = true

	w := postJSON(t, f.server.Handler(), "/api/generate", generateRequest{CategoryID: 1})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestGenerateRateLimited(t *testing.T) {
	f := newServerFixture(t)
	f.settings.settings.RateLimitPerMinute = 1

	w := postJSON(t, f.server.Handler(), "/api/generate", generateRequest{CategoryID: 1})
	require.Equal(t, http.StatusOK, w.Code)

	w = postJSON(t, f.server.Handler(), "/api/generate", generateRequest{CategoryID: 1})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestRedeemUnknownCode(t *testing.T) {
	f := newServerFixture(t)
	w := postJSON(t, f.server.Handler(), "/api/redeem", redeemRequest{Code: "NOPE", UserID: "u1"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRedeemMissingFields(t *testing.T) {
	f := newServerFixture(t)
	w := postJSON(t, f.server.Handler(), "/api/redeem", redeemRequest{Code: "X"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListCategoriesIncludesStock(t *testing.T) {
	f := newServerFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/categories", nil)
	w := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var list []service.CategoryWithStock
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "Netflix", list[0].Name)
	assert.Equal(t, 1, list[0].FreeStock)
	assert.Equal(t, 0, list[0].VIPStock)
}

func TestListCategoriesFlagsLowStock(t *testing.T) {
	f := newServerFixture(t)
	f.settings.settings.LowStockThreshold = 5

	req := httptest.NewRequest(http.MethodGet, "/api/categories", nil)
	w := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var list []categoryEntry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.True(t, list[0].LowStock)
}

func TestAdminBatchGenerateReturnsClaimedAccounts(t *testing.T) {
	f := newServerFixture(t)

	raw, err := json.Marshal(batchGenerateRequest{CategoryID: 1, Tier: "free", Count: 5})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/admin/accounts/batch-generate", bytes.NewReader(raw))
	req.SetBasicAuth("admin", "secret")
	w := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp batchGenerateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Netflix", resp.CategoryName)
	assert.Equal(t, 5, resp.Requested)
	assert.Equal(t, 1, resp.Generated)
	require.Len(t, resp.Accounts, 1)
	assert.Equal(t, "a@b.com", resp.Accounts[0].Email)
}

func TestAdminBatchGenerateRejectsBadCount(t *testing.T) {
	f := newServerFixture(t)

	raw, err := json.Marshal(batchGenerateRequest{CategoryID: 1, Tier: "free", Count: 0})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/admin/accounts/batch-generate", bytes.NewReader(raw))
	req.SetBasicAuth("admin", "secret")
	w := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestClientIPKeepsBareIPv6Intact(t *testing.T) {
	cases := []struct {
		remoteAddr string
		want       string
	}{
		{"203.0.113.9:51234", "203.0.113.9"},
		{"203.0.113.9", "203.0.113.9"},
		{"[2001:db8::1]:443", "2001:db8::1"},
		{"2001:db8::1", "2001:db8::1"},
		{"2001:db8::2", "2001:db8::2"},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = tc.remoteAddr
		assert.Equal(t, tc.want, clientIP(req), "RemoteAddr %q", tc.remoteAddr)
	}
}

func TestSaveSettingsRejectsNegativeLimits(t *testing.T) {
	f := newServerFixture(t)

	raw, _ := json.Marshal(models.Settings{RateLimitPerMinute: -1})
	req := httptest.NewRequest(http.MethodPut, "/admin/settings", bytes.NewReader(raw))
	req.SetBasicAuth("admin", "secret")
	w := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
