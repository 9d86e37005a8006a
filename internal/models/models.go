package models

import "time"

// Plan is the account quality tier a user draws from.
type Plan string

const (
	PlanFree Plan = "free"
	PlanVIP  Plan = "vip"
)

// Valid reports whether p is one of the known tiers.
func (p Plan) Valid() bool {
	return p == PlanFree || p == PlanVIP
}

// DefaultSuccessRate returns the advertised success rate for a tier.
func (p Plan) DefaultSuccessRate() int {
	if p == PlanVIP {
		return 90
	}
	return 10
}

// ValidationStatus is the advisory credential check result for an account.
type ValidationStatus string

const (
	ValidationUnknown ValidationStatus = "unknown"
	ValidationValid   ValidationStatus = "valid"
	ValidationInvalid ValidationStatus = "invalid"
	ValidationTesting ValidationStatus = "testing"
	ValidationExpired ValidationStatus = "expired"
)

type Category struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	ImageURL  string    `json:"image_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Account is one generatable credential. Once claimed (IsUsed=true) it is
// never handed out again.
type Account struct {
	ID               int64            `json:"id"`
	CategoryID       int64            `json:"category_id"`
	Email            string           `json:"email"`
	Password         string           `json:"password"`
	QualityLevel     Plan             `json:"quality_level"`
	SuccessRate      int              `json:"success_rate"`
	IsUsed           bool             `json:"is_used"`
	UsedAt           *time.Time       `json:"used_at,omitempty"`
	ValidationStatus ValidationStatus `json:"validation_status"`
	ValidationNotes  string           `json:"validation_notes,omitempty"`
	ValidatedBy      string           `json:"validated_by,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
}

// PromoCode upgrades a user's plan, bounded by expiry and use count.
// CurrentUses only increases and never exceeds MaxUses.
type PromoCode struct {
	ID          int64      `json:"id"`
	Code        string     `json:"code"`
	Plan        Plan       `json:"plan"`
	MaxUses     int        `json:"max_uses"`
	CurrentUses int        `json:"current_uses"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Active reports whether the code can still be redeemed at the given time.
func (c PromoCode) Active(now time.Time) bool {
	if c.CurrentUses >= c.MaxUses {
		return false
	}
	if c.ExpiresAt != nil && c.ExpiresAt.Before(now) {
		return false
	}
	return true
}

type UserProfile struct {
	UserID    string    `json:"user_id"`
	Plan      Plan      `json:"plan"`
	Username  string    `json:"username,omitempty"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GenerationHistory is an append-only log row, one per successful claim.
type GenerationHistory struct {
	ID           int64     `json:"id"`
	CategoryName string    `json:"category_name"`
	Email        string    `json:"email"`
	GeneratedAt  time.Time `json:"generated_at"`
	IPAddress    string    `json:"ip_address,omitempty"`
}

// ActivityLog is an append-only admin audit row. EntityType and EntityID
// point at the record the action touched when there is a single one.
type ActivityLog struct {
	ID         int64     `json:"id"`
	Action     string    `json:"action"`
	EntityType string    `json:"entity_type,omitempty"`
	EntityID   int64     `json:"entity_id,omitempty"`
	Actor      string    `json:"actor,omitempty"`
	Details    string    `json:"details,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Settings is the explicit platform configuration record. It is persisted as
// a single row and passed to the components that need it; there is no ambient
// global settings state.
type Settings struct {
	DiscordWebhookURL  string    `json:"discord_webhook_url"`
	PlatformURL        string    `json:"platform_url"`
	LowStockThreshold  int       `json:"low_stock_threshold"`
	RateLimitPerMinute int       `json:"rate_limit_per_minute"`
	MaintenanceMode    bool      `json:"maintenance_mode"`
	UpdatedAt          time.Time `json:"updated_at"`
}

type APIKey struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Key       string    `json:"key"`
	CreatedAt time.Time `json:"created_at"`
}
