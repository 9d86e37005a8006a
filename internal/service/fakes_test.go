package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/acchub/acchub/internal/models"
	"github.com/acchub/acchub/internal/notify"
)

// In-memory stores for service tests. All methods take the mutex so the
// concurrency tests exercise the same at-most-once guarantees the SQL layer
// provides.

type fakeAccountStore struct {
	mu       sync.Mutex
	nextID   int64
	accounts map[int64]*models.Account
}

func newFakeAccountStore() *fakeAccountStore {
	return &fakeAccountStore{accounts: make(map[int64]*models.Account)}
}

func (f *fakeAccountStore) add(categoryID int64, email string, tier models.Plan) *models.Account {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	acc := &models.Account{
		ID:               f.nextID,
		CategoryID:       categoryID,
		Email:            email,
		Password:         "pw-" + email,
		QualityLevel:     tier,
		SuccessRate:      tier.DefaultSuccessRate(),
		ValidationStatus: models.ValidationUnknown,
		CreatedAt:        time.Now(),
	}
	f.accounts[acc.ID] = acc
	return acc
}

func (f *fakeAccountStore) List(ctx context.Context) ([]models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Account, 0, len(f.accounts))
	for _, acc := range f.accounts {
		out = append(out, *acc)
	}
	return out, nil
}

func (f *fakeAccountStore) GetByID(ctx context.Context, id int64) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	acc, ok := f.accounts[id]
	if !ok {
		return nil, nil
	}
	copied := *acc
	return &copied, nil
}

func (f *fakeAccountStore) Create(ctx context.Context, account *models.Account) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	account.ID = f.nextID
	account.CreatedAt = time.Now()
	copied := *account
	f.accounts[account.ID] = &copied
	return account, nil
}

func (f *fakeAccountStore) BulkInsert(ctx context.Context, accounts []models.Account) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range accounts {
		f.nextID++
		accounts[i].ID = f.nextID
		accounts[i].CreatedAt = time.Now()
		copied := accounts[i]
		f.accounts[copied.ID] = &copied
	}
	return len(accounts), nil
}

func (f *fakeAccountStore) Update(ctx context.Context, account *models.Account) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *account
	f.accounts[account.ID] = &copied
	return account, nil
}

func (f *fakeAccountStore) Delete(ctx context.Context, ids []int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, id := range ids {
		if _, ok := f.accounts[id]; ok {
			delete(f.accounts, id)
			n++
		}
	}
	return n, nil
}

func (f *fakeAccountStore) SetUsed(ctx context.Context, ids []int64, used bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	for _, id := range ids {
		if acc, ok := f.accounts[id]; ok {
			acc.IsUsed = used
			if used {
				acc.UsedAt = &now
			} else {
				acc.UsedAt = nil
			}
		}
	}
	return nil
}

func (f *fakeAccountStore) UpdateValidation(ctx context.Context, id int64, status models.ValidationStatus, notes, validatedBy string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if acc, ok := f.accounts[id]; ok {
		acc.ValidationStatus = status
		acc.ValidationNotes = notes
		acc.ValidatedBy = validatedBy
	}
	return nil
}

func (f *fakeAccountStore) CountStock(ctx context.Context, categoryID int64, tier models.Plan) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, acc := range f.accounts {
		if acc.CategoryID == categoryID && acc.QualityLevel == tier && !acc.IsUsed {
			n++
		}
	}
	return n, nil
}

func (f *fakeAccountStore) Counts(ctx context.Context) (total, used int64, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, acc := range f.accounts {
		total++
		if acc.IsUsed {
			used++
		}
	}
	return total, used, nil
}

func (f *fakeAccountStore) Claim(ctx context.Context, categoryID int64, tier models.Plan, ip string) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, acc := range f.accounts {
		if acc.CategoryID == categoryID && acc.QualityLevel == tier && !acc.IsUsed {
			now := time.Now()
			acc.IsUsed = true
			acc.UsedAt = &now
			copied := *acc
			return &copied, nil
		}
	}
	return nil, nil
}

type fakeCategoryStore struct {
	mu         sync.Mutex
	nextID     int64
	categories map[int64]*models.Category
}

func newFakeCategoryStore() *fakeCategoryStore {
	return &fakeCategoryStore{categories: make(map[int64]*models.Category)}
}

func (f *fakeCategoryStore) add(name string) *models.Category {
	cat, _ := f.Create(context.Background(), &models.Category{Name: name})
	return cat
}

func (f *fakeCategoryStore) List(ctx context.Context) ([]models.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Category, 0, len(f.categories))
	for _, cat := range f.categories {
		out = append(out, *cat)
	}
	return out, nil
}

func (f *fakeCategoryStore) GetByID(ctx context.Context, id int64) (*models.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cat, ok := f.categories[id]
	if !ok {
		return nil, nil
	}
	copied := *cat
	return &copied, nil
}

func (f *fakeCategoryStore) GetByName(ctx context.Context, name string) (*models.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, cat := range f.categories {
		if strings.EqualFold(cat.Name, name) {
			copied := *cat
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeCategoryStore) Create(ctx context.Context, category *models.Category) (*models.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	category.ID = f.nextID
	category.CreatedAt = time.Now()
	copied := *category
	f.categories[category.ID] = &copied
	return category, nil
}

func (f *fakeCategoryStore) Update(ctx context.Context, category *models.Category) (*models.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *category
	f.categories[category.ID] = &copied
	return category, nil
}

func (f *fakeCategoryStore) Delete(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.categories, id)
	return nil
}

type fakePromoStore struct {
	mu       sync.Mutex
	nextID   int64
	promos   map[int64]*models.PromoCode
	profiles *fakeProfileStore
}

func newFakePromoStore(profiles *fakeProfileStore) *fakePromoStore {
	return &fakePromoStore{promos: make(map[int64]*models.PromoCode), profiles: profiles}
}

func (f *fakePromoStore) add(code string, plan models.Plan, maxUses int, expiresAt *time.Time) *models.PromoCode {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	promo := &models.PromoCode{
		ID:        f.nextID,
		Code:      strings.ToUpper(code),
		Plan:      plan,
		MaxUses:   maxUses,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}
	f.promos[promo.ID] = promo
	return promo
}

func (f *fakePromoStore) GetByCode(ctx context.Context, code string) (*models.PromoCode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, promo := range f.promos {
		if strings.EqualFold(promo.Code, code) {
			copied := *promo
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakePromoStore) GetByID(ctx context.Context, id int64) (*models.PromoCode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	promo, ok := f.promos[id]
	if !ok {
		return nil, nil
	}
	copied := *promo
	return &copied, nil
}

func (f *fakePromoStore) List(ctx context.Context) ([]models.PromoCode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.PromoCode, 0, len(f.promos))
	for _, promo := range f.promos {
		out = append(out, *promo)
	}
	return out, nil
}

func (f *fakePromoStore) Create(ctx context.Context, promo *models.PromoCode) (*models.PromoCode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	promo.ID = f.nextID
	promo.CreatedAt = time.Now()
	copied := *promo
	f.promos[promo.ID] = &copied
	return promo, nil
}

func (f *fakePromoStore) Update(ctx context.Context, promo *models.PromoCode) (*models.PromoCode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *promo
	f.promos[promo.ID] = &copied
	return promo, nil
}

func (f *fakePromoStore) Delete(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.promos, id)
	return nil
}

func (f *fakePromoStore) ConsumeAndUpgrade(ctx context.Context, promoID int64, userID string, plan models.Plan) (bool, error) {
	f.mu.Lock()
	promo, ok := f.promos[promoID]
	if !ok || promo.CurrentUses >= promo.MaxUses {
		f.mu.Unlock()
		return false, nil
	}
	promo.CurrentUses++
	f.mu.Unlock()

	if f.profiles != nil {
		if err := f.profiles.SetPlan(ctx, userID, plan); err != nil {
			return false, err
		}
	}
	return true, nil
}

type fakeProfileStore struct {
	mu       sync.Mutex
	profiles map[string]*models.UserProfile
}

func newFakeProfileStore() *fakeProfileStore {
	return &fakeProfileStore{profiles: make(map[string]*models.UserProfile)}
}

func (f *fakeProfileStore) Get(ctx context.Context, userID string) (*models.UserProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	profile, ok := f.profiles[userID]
	if !ok {
		return nil, nil
	}
	copied := *profile
	return &copied, nil
}

func (f *fakeProfileStore) GetByEmail(ctx context.Context, email string) (*models.UserProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, profile := range f.profiles {
		if strings.EqualFold(profile.Email, email) {
			copied := *profile
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeProfileStore) Ensure(ctx context.Context, userID, username, email string) (*models.UserProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	profile, ok := f.profiles[userID]
	if !ok {
		profile = &models.UserProfile{UserID: userID, Plan: models.PlanFree, CreatedAt: time.Now()}
		f.profiles[userID] = profile
	}
	if username != "" {
		profile.Username = username
	}
	if email != "" {
		profile.Email = email
	}
	profile.UpdatedAt = time.Now()
	copied := *profile
	return &copied, nil
}

func (f *fakeProfileStore) SetPlan(ctx context.Context, userID string, plan models.Plan) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	profile, ok := f.profiles[userID]
	if !ok {
		profile = &models.UserProfile{UserID: userID, CreatedAt: time.Now()}
		f.profiles[userID] = profile
	}
	profile.Plan = plan
	profile.UpdatedAt = time.Now()
	return nil
}

func (f *fakeProfileStore) Count(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.profiles)), nil
}

type fakeHistoryStore struct {
	mu      sync.Mutex
	entries []models.GenerationHistory
}

func (f *fakeHistoryStore) List(ctx context.Context, limit int) ([]models.GenerationHistory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if limit <= 0 || limit > len(f.entries) {
		limit = len(f.entries)
	}
	out := make([]models.GenerationHistory, limit)
	copy(out, f.entries[:limit])
	return out, nil
}

func (f *fakeHistoryStore) ListSince(ctx context.Context, since time.Time, limit int) ([]models.GenerationHistory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.GenerationHistory
	for _, entry := range f.entries {
		if !entry.GeneratedAt.Before(since) {
			out = append(out, entry)
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeHistoryStore) Count(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.entries)), nil
}

func (f *fakeHistoryStore) CountSince(ctx context.Context, since time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, entry := range f.entries {
		if !entry.GeneratedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

type fakeActivityStore struct {
	mu      sync.Mutex
	entries []models.ActivityLog
}

func (f *fakeActivityStore) Log(ctx context.Context, entry *models.ActivityLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeActivityStore) List(ctx context.Context, limit int) ([]models.ActivityLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.ActivityLog, len(f.entries))
	copy(out, f.entries)
	return out, nil
}

type fakeSettingsStore struct {
	mu       sync.Mutex
	settings models.Settings
}

func (f *fakeSettingsStore) Get(ctx context.Context) (*models.Settings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := f.settings
	return &copied, nil
}

func (f *fakeSettingsStore) Save(ctx context.Context, settings *models.Settings) (*models.Settings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.settings = *settings
	copied := f.settings
	return &copied, nil
}

type fakeNotifier struct {
	mu    sync.Mutex
	calls []notify.Generation
}

func (f *fakeNotifier) SendGeneration(ctx context.Context, webhookURL string, gen notify.Generation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, gen)
	return nil
}
