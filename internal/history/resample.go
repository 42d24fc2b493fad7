// Package history turns sparse, irregularly timed balance snapshots into a
// regular, gap-filled series ready for charting.
package history

import (
	"context"
	"fmt"
	"time"

	"github.com/MihajloDimeski/BudgetingApp/internal/domain"
	"github.com/MihajloDimeski/BudgetingApp/internal/storage"
)

// Range selects how far back the series reaches.
type Range string

const (
	Range7D  Range = "7d"
	Range30D Range = "30d"
	Range90D Range = "90d"
	Range1Y  Range = "1y"
	RangeAll Range = "all"
)

// Resolution is the sampling granularity of the grid.
type Resolution string

const (
	ResolutionDaily   Resolution = "daily"
	ResolutionWeekly  Resolution = "weekly"
	ResolutionMonthly Resolution = "monthly"
)

// SeriesKind distinguishes the two per-account series.
type SeriesKind string

const (
	KindBalance  SeriesKind = "balance"
	KindInvested SeriesKind = "invested"
)

// Series is one chart line: one value per grid point, aligned with Labels.
type Series struct {
	AccountID   string     `json:"account_id"`
	AccountName string     `json:"account_name"`
	Kind        SeriesKind `json:"kind"`
	Values      []float64  `json:"values"`
}

// Result is the chart-ready output: a grid of timestamps plus the aligned
// per-account series. A household with no history gets an empty result, not
// a grid of zeros.
type Result struct {
	Labels []time.Time `json:"labels"`
	Series []Series    `json:"series"`
}

// rangeWindows maps each bounded range to its lookback window. Monthly uses
// a fixed 30-day stride rather than calendar months; consumers depend on
// that alignment, so it stays.
var rangeWindows = map[Range]time.Duration{
	Range7D:  7 * 24 * time.Hour,
	Range30D: 30 * 24 * time.Hour,
	Range90D: 90 * 24 * time.Hour,
	Range1Y:  365 * 24 * time.Hour,
}

var resolutionSteps = map[Resolution]time.Duration{
	ResolutionDaily:   24 * time.Hour,
	ResolutionWeekly:  7 * 24 * time.Hour,
	ResolutionMonthly: 30 * 24 * time.Hour,
}

// ParseRange validates a query-string range. Empty defaults to 30d.
func ParseRange(s string) (Range, error) {
	if s == "" {
		return Range30D, nil
	}
	r := Range(s)
	if _, ok := rangeWindows[r]; ok || r == RangeAll {
		return r, nil
	}
	return "", fmt.Errorf("unknown range %q", s)
}

// ParseResolution validates a query-string resolution. Empty defaults to daily.
func ParseResolution(s string) (Resolution, error) {
	if s == "" {
		return ResolutionDaily, nil
	}
	r := Resolution(s)
	if _, ok := resolutionSteps[r]; ok {
		return r, nil
	}
	return "", fmt.Errorf("unknown resolution %q", s)
}

// Resample builds the grid for the requested range and resolution and holds
// each account's last known value forward onto every grid point. history
// must be in ascending date order. now is captured once by the caller so the
// output is identical for identical inputs.
func Resample(accounts []*domain.Account, history []*domain.BalanceHistory, rng Range, res Resolution, now time.Time) *Result {
	if len(history) == 0 {
		return &Result{Labels: []time.Time{}, Series: []Series{}}
	}

	start := now
	if window, ok := rangeWindows[rng]; ok {
		start = now.Add(-window)
	} else {
		start = history[0].Date
	}

	grid := buildGrid(start, now, res)

	byAccount := make(map[string][]*domain.BalanceHistory)
	for _, h := range history {
		byAccount[h.AccountID] = append(byAccount[h.AccountID], h)
	}

	result := &Result{Labels: grid}
	for _, account := range accounts {
		rows := byAccount[account.ID]

		balances := make([]float64, len(grid))
		invested := make([]float64, len(grid))
		investedSeen := false

		for i, point := range grid {
			last := lastAtOrBefore(rows, point)
			if last == nil {
				// Account did not exist yet: zero, not missing.
				continue
			}
			balances[i] = last.Balance
			invested[i] = last.InvestedAmount
			if last.InvestedAmount != 0 {
				investedSeen = true
			}
		}

		result.Series = append(result.Series, Series{
			AccountID:   account.ID,
			AccountName: account.Name,
			Kind:        KindBalance,
			Values:      balances,
		})

		// Accounts that track no contribution basis stay off the chart.
		if investedSeen {
			result.Series = append(result.Series, Series{
				AccountID:   account.ID,
				AccountName: account.Name,
				Kind:        KindInvested,
				Values:      invested,
			})
		}
	}

	return result
}

// buildGrid steps from the snapped start to now by the resolution's period,
// forcing the final point to land exactly on now.
func buildGrid(start, now time.Time, res Resolution) []time.Time {
	current := start
	switch res {
	case ResolutionDaily:
		current = endOfDay(current)
	case ResolutionWeekly:
		// Advance to the following Sunday, the period-end weekday.
		daysAhead := (7 - int(current.Weekday())) % 7
		current = endOfDay(current.AddDate(0, 0, daysAhead))
	}

	step := resolutionSteps[res]
	if step == 0 {
		step = resolutionSteps[ResolutionDaily]
	}

	var grid []time.Time
	for !current.After(now) {
		grid = append(grid, current)
		current = current.Add(step)
	}

	if len(grid) == 0 || grid[len(grid)-1].Before(now) {
		grid = append(grid, now)
	}
	return grid
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
}

// lastAtOrBefore returns the newest row dated at or before the grid point.
// rows are ascending, so the scan stops at the first later row.
func lastAtOrBefore(rows []*domain.BalanceHistory, point time.Time) *domain.BalanceHistory {
	var last *domain.BalanceHistory
	for _, h := range rows {
		if h.Date.After(point) {
			break
		}
		last = h
	}
	return last
}

// Repository is the read surface the service needs.
type Repository interface {
	storage.AccountRepository
	storage.HistoryRepository
}

// Service answers history queries for the charting frontend.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a history service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// GetHistory loads a household's accounts and full history and resamples
// them for the requested range and resolution.
func (s *Service) GetHistory(ctx context.Context, householdID string, rng Range, res Resolution) (*Result, error) {
	accounts, err := s.repo.ListAccounts(ctx, householdID)
	if err != nil {
		return nil, fmt.Errorf("GetHistory: listing accounts: %w", err)
	}

	rows, err := s.repo.ListHistory(ctx, householdID)
	if err != nil {
		return nil, fmt.Errorf("GetHistory: listing history: %w", err)
	}

	return Resample(accounts, rows, rng, res, s.now()), nil
}
