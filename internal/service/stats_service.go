package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/acchub/acchub/internal/models"
)

var ErrUnknownReportPeriod = errors.New("unknown report period")

type StatsService struct {
	accounts   AccountStore
	categories CategoryStore
	history    HistoryStore
	profiles   ProfileStore
}

// Stats is the dashboard snapshot shared by the admin panel, the public
// stats endpoint, and the bot's stats command.
type Stats struct {
	TotalAccounts     int64 `json:"total_accounts"`
	UsedAccounts      int64 `json:"used_accounts"`
	AvailableAccounts int64 `json:"available_accounts"`
	Categories        int   `json:"categories"`
	Users             int64 `json:"users"`
	GeneratedTotal    int64 `json:"generated_total"`
	GeneratedToday    int64 `json:"generated_today"`
}

func NewStatsService(accounts AccountStore, categories CategoryStore, history HistoryStore, profiles ProfileStore) *StatsService {
	return &StatsService{accounts: accounts, categories: categories, history: history, profiles: profiles}
}

func (s *StatsService) Snapshot(ctx context.Context) (*Stats, error) {
	total, used, err := s.accounts.Counts(ctx)
	if err != nil {
		return nil, fmt.Errorf("account counts: %w", err)
	}

	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	generated, err := s.history.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count history: %w", err)
	}

	now := time.Now().UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	today, err := s.history.CountSince(ctx, midnight)
	if err != nil {
		return nil, fmt.Errorf("count history today: %w", err)
	}

	users, err := s.profiles.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}

	return &Stats{
		TotalAccounts:     total,
		UsedAccounts:      used,
		AvailableAccounts: total - used,
		Categories:        len(categories),
		Users:             users,
		GeneratedTotal:    generated,
		GeneratedToday:    today,
	}, nil
}

// ReportCategory is one row of the report's category distribution.
type ReportCategory struct {
	Name     string
	Accounts int
}

// Report aggregates one period's activity for the exported HTML report.
type Report struct {
	Period      string
	GeneratedAt time.Time
	Stats       Stats
	InPeriod    int64
	Categories  []ReportCategory
	Recent      []models.GenerationHistory
}

const reportRecentLimit = 50

// BuildReport collects the statistics, category distribution, and the most
// recent generations for the given period. Periods are daily (since
// midnight UTC), weekly, monthly, and all.
func (s *StatsService) BuildReport(ctx context.Context, period string) (*Report, error) {
	now := time.Now().UTC()
	since, ok := reportSince(period, now)
	if !ok {
		return nil, ErrUnknownReportPeriod
	}

	stats, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	inPeriod, err := s.history.CountSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("count history since: %w", err)
	}

	recent, err := s.history.ListSince(ctx, since, reportRecentLimit)
	if err != nil {
		return nil, fmt.Errorf("list history since: %w", err)
	}

	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	accounts, err := s.accounts.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	perCategory := make(map[int64]int, len(categories))
	for _, acc := range accounts {
		perCategory[acc.CategoryID]++
	}
	distribution := make([]ReportCategory, 0, len(categories))
	for _, cat := range categories {
		distribution = append(distribution, ReportCategory{Name: cat.Name, Accounts: perCategory[cat.ID]})
	}

	return &Report{
		Period:      period,
		GeneratedAt: now,
		Stats:       *stats,
		InPeriod:    inPeriod,
		Categories:  distribution,
		Recent:      recent,
	}, nil
}

func reportSince(period string, now time.Time) (time.Time, bool) {
	switch period {
	case "daily":
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), true
	case "weekly", "":
		return now.AddDate(0, 0, -7), true
	case "monthly":
		return now.AddDate(0, -1, 0), true
	case "all":
		return time.Time{}, true
	default:
		return time.Time{}, false
	}
}
