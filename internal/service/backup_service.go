package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/acchub/acchub/internal/models"
)

// SnapshotUploader pushes a serialized snapshot to remote storage.
type SnapshotUploader interface {
	Upload(ctx context.Context, data []byte, contentType string) (string, error)
}

type BackupService struct {
	log        *slog.Logger
	categories CategoryStore
	accounts   AccountStore
	history    HistoryStore
	uploader   SnapshotUploader
}

// Snapshot is the portable backup format. History is capped at the most
// recent thousand rows to keep the file manageable.
type Snapshot struct {
	Timestamp  time.Time                  `json:"timestamp"`
	Version    string                     `json:"version"`
	Categories []models.Category          `json:"categories"`
	Accounts   []models.Account           `json:"accounts"`
	History    []models.GenerationHistory `json:"history"`
}

func NewBackupService(log *slog.Logger, categories CategoryStore, accounts AccountStore, history HistoryStore, uploader SnapshotUploader) *BackupService {
	return &BackupService{log: log, categories: categories, accounts: accounts, history: history, uploader: uploader}
}

func (s *BackupService) Create(ctx context.Context) (*Snapshot, error) {
	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	accounts, err := s.accounts.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	history, err := s.history.List(ctx, 1000)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}

	return &Snapshot{
		Timestamp:  time.Now().UTC(),
		Version:    "1.0",
		Categories: categories,
		Accounts:   accounts,
		History:    history,
	}, nil
}

// Restore merges a snapshot back in. Categories are matched by name and
// created when missing; accounts are re-inserted under the remapped category
// ids. Rows referencing a category the snapshot does not carry are skipped.
func (s *BackupService) Restore(ctx context.Context, snap *Snapshot) (categoriesAdded, accountsAdded int, err error) {
	if snap == nil || len(snap.Categories) == 0 && len(snap.Accounts) == 0 {
		return 0, 0, fmt.Errorf("invalid backup: no data")
	}

	existing, err := s.categories.List(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("list categories: %w", err)
	}
	byName := make(map[string]int64, len(existing))
	for _, cat := range existing {
		byName[strings.ToLower(cat.Name)] = cat.ID
	}

	// old snapshot id -> current id
	remap := make(map[int64]int64, len(snap.Categories))
	for _, cat := range snap.Categories {
		key := strings.ToLower(cat.Name)
		if id, ok := byName[key]; ok {
			remap[cat.ID] = id
			continue
		}
		created, err := s.categories.Create(ctx, &models.Category{Name: cat.Name, ImageURL: cat.ImageURL})
		if err != nil {
			return categoriesAdded, 0, fmt.Errorf("restore category %q: %w", cat.Name, err)
		}
		byName[key] = created.ID
		remap[cat.ID] = created.ID
		categoriesAdded++
	}

	var accounts []models.Account
	for _, acc := range snap.Accounts {
		categoryID, ok := remap[acc.CategoryID]
		if !ok {
			continue
		}
		restored := acc
		restored.ID = 0
		restored.CategoryID = categoryID
		if !restored.QualityLevel.Valid() {
			restored.QualityLevel = models.PlanFree
		}
		if restored.ValidationStatus == "" {
			restored.ValidationStatus = models.ValidationUnknown
		}
		accounts = append(accounts, restored)
	}
	if len(accounts) > 0 {
		accountsAdded, err = s.accounts.BulkInsert(ctx, accounts)
		if err != nil {
			return categoriesAdded, 0, fmt.Errorf("restore accounts: %w", err)
		}
	}
	return categoriesAdded, accountsAdded, nil
}

// UploadToS3 serializes a fresh snapshot and ships it to the configured
// bucket, returning the object key.
func (s *BackupService) UploadToS3(ctx context.Context) (string, error) {
	if s.uploader == nil {
		return "", fmt.Errorf("s3 storage not configured")
	}
	snap, err := s.Create(ctx)
	if err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}
	key, err := s.uploader.Upload(ctx, data, "application/json")
	if err != nil {
		return "", fmt.Errorf("upload snapshot: %w", err)
	}
	s.log.Info("backup uploaded", "key", key, "accounts", len(snap.Accounts))
	return key, nil
}
