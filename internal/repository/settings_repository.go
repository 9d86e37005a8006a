package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/acchub/acchub/internal/models"
)

// SettingsRepository manages the single platform_settings row.
type SettingsRepository struct {
	db *sql.DB
}

func NewSettingsRepository(db *sql.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

func (r *SettingsRepository) Get(ctx context.Context) (*models.Settings, error) {
	const query = `
SELECT COALESCE(discord_webhook_url, ''), COALESCE(platform_url, ''),
       low_stock_threshold, rate_limit_per_minute, maintenance_mode, updated_at
FROM platform_settings WHERE id = 1`
	var settings models.Settings
	err := r.db.QueryRowContext(ctx, query).Scan(
		&settings.DiscordWebhookURL, &settings.PlatformURL,
		&settings.LowStockThreshold, &settings.RateLimitPerMinute,
		&settings.MaintenanceMode, &settings.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return defaultSettings(), nil
		}
		return nil, fmt.Errorf("get settings: %w", err)
	}
	return &settings, nil
}

func (r *SettingsRepository) Save(ctx context.Context, settings *models.Settings) (*models.Settings, error) {
	const query = `
INSERT INTO platform_settings (id, discord_webhook_url, platform_url, low_stock_threshold, rate_limit_per_minute, maintenance_mode)
VALUES (1, NULLIF($1, ''), NULLIF($2, ''), $3, $4, $5)
ON CONFLICT (id) DO UPDATE SET
    discord_webhook_url = EXCLUDED.discord_webhook_url,
    platform_url = EXCLUDED.platform_url,
    low_stock_threshold = EXCLUDED.low_stock_threshold,
    rate_limit_per_minute = EXCLUDED.rate_limit_per_minute,
    maintenance_mode = EXCLUDED.maintenance_mode,
    updated_at = now()`
	if _, err := r.db.ExecContext(ctx, query,
		settings.DiscordWebhookURL, settings.PlatformURL,
		settings.LowStockThreshold, settings.RateLimitPerMinute, settings.MaintenanceMode,
	); err != nil {
		return nil, fmt.Errorf("save settings: %w", err)
	}
	return r.Get(ctx)
}

func defaultSettings() *models.Settings {
	return &models.Settings{
		LowStockThreshold:  5,
		RateLimitPerMinute: 10,
	}
}
