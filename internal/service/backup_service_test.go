package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acchub/acchub/internal/models"
)

type fakeUploader struct {
	mu   sync.Mutex
	data [][]byte
}

func (f *fakeUploader) Upload(ctx context.Context, data []byte, contentType string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data = append(f.data, data)
	return "backups/2026/04/backup-test.json", nil
}

func TestBackupCreate(t *testing.T) {
	accounts := newFakeAccountStore()
	categories := newFakeCategoryStore()
	svc := NewBackupService(discardLogger(), categories, accounts, &fakeHistoryStore{}, nil)

	cat := categories.add("Netflix")
	accounts.add(cat.ID, "a@b.com", models.PlanFree)

	snap, err := svc.Create(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1.0", snap.Version)
	assert.Len(t, snap.Categories, 1)
	assert.Len(t, snap.Accounts, 1)
}

func TestBackupRestoreRemapsCategories(t *testing.T) {
	accounts := newFakeAccountStore()
	categories := newFakeCategoryStore()
	svc := NewBackupService(discardLogger(), categories, accounts, &fakeHistoryStore{}, nil)

	existing := categories.add("Netflix")

	snap := &Snapshot{
		Version: "1.0",
		Categories: []models.Category{
			{ID: 700, Name: "Netflix"},
			{ID: 701, Name: "Spotify"},
		},
		Accounts: []models.Account{
			{ID: 1, CategoryID: 700, Email: "a@b.com", Password: "pw1", QualityLevel: models.PlanVIP},
			{ID: 2, CategoryID: 701, Email: "c@d.com", Password: "pw2", QualityLevel: models.PlanFree},
			{ID: 3, CategoryID: 999, Email: "orphan@x.com", Password: "pw3"},
		},
	}

	catsAdded, accsAdded, err := svc.Restore(context.Background(), snap)
	require.NoError(t, err)
	assert.Equal(t, 1, catsAdded)
	assert.Equal(t, 2, accsAdded)

	all, _ := accounts.List(context.Background())
	for _, acc := range all {
		if acc.Email == "a@b.com" {
			assert.Equal(t, existing.ID, acc.CategoryID)
		}
	}
}

func TestBackupRestoreRejectsEmptySnapshot(t *testing.T) {
	svc := NewBackupService(discardLogger(), newFakeCategoryStore(), newFakeAccountStore(), &fakeHistoryStore{}, nil)
	_, _, err := svc.Restore(context.Background(), &Snapshot{})
	assert.Error(t, err)
}

func TestUploadToS3(t *testing.T) {
	accounts := newFakeAccountStore()
	categories := newFakeCategoryStore()
	up := &fakeUploader{}
	svc := NewBackupService(discardLogger(), categories, accounts, &fakeHistoryStore{}, up)

	key, err := svc.UploadToS3(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, key)
	assert.Len(t, up.data, 1)
}

func TestUploadToS3NotConfigured(t *testing.T) {
	svc := NewBackupService(discardLogger(), newFakeCategoryStore(), newFakeAccountStore(), &fakeHistoryStore{}, nil)
	_, err := svc.UploadToS3(context.Background())
	assert.Error(t, err)
}
