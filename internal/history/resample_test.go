package history

import (
	"testing"
	"time"

	"github.com/MihajloDimeski/BudgetingApp/internal/domain"
)

var testNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

func row(accountID string, balance, invested float64, date time.Time) *domain.BalanceHistory {
	return &domain.BalanceHistory{AccountID: accountID, Balance: balance, InvestedAmount: invested, Date: date}
}

func TestResample_EmptyHistory(t *testing.T) {
	accounts := []*domain.Account{{ID: "a1", Name: "Cash"}}

	result := Resample(accounts, nil, Range7D, ResolutionDaily, testNow)

	if len(result.Labels) != 0 {
		t.Errorf("Expected empty labels, got %d", len(result.Labels))
	}
	if len(result.Series) != 0 {
		t.Errorf("Expected no series, got %d", len(result.Series))
	}
}

func TestResample_LastKnownValueHold(t *testing.T) {
	accounts := []*domain.Account{{ID: "a1", Name: "Bybit Account"}}
	threeDaysAgo := testNow.AddDate(0, 0, -3)
	rows := []*domain.BalanceHistory{row("a1", 1200, 0, threeDaysAgo)}

	result := Resample(accounts, rows, Range7D, ResolutionDaily, testNow)

	// 7 end-of-day points inside the window plus the forced final "now".
	if len(result.Labels) != 8 {
		t.Fatalf("Expected 8 grid points, got %d", len(result.Labels))
	}
	if !result.Labels[len(result.Labels)-1].Equal(testNow) {
		t.Errorf("Final grid point = %v, want now (%v)", result.Labels[len(result.Labels)-1], testNow)
	}

	if len(result.Series) != 1 {
		t.Fatalf("Expected 1 series (flat-zero invested omitted), got %d", len(result.Series))
	}

	values := result.Series[0].Values
	for i, label := range result.Labels {
		want := 0.0
		if !label.Before(threeDaysAgo) {
			want = 1200
		}
		if values[i] != want {
			t.Errorf("Values[%d] (label %v) = %v, want %v", i, label, values[i], want)
		}
	}
}

func TestResample_InvestedSeriesOnlyWhenNonZero(t *testing.T) {
	accounts := []*domain.Account{
		{ID: "a1", Name: "Bybit Account"},
		{ID: "a2", Name: "Savings"},
	}
	rows := []*domain.BalanceHistory{
		row("a1", 900, 800, testNow.AddDate(0, 0, -2)),
		row("a2", 100, 0, testNow.AddDate(0, 0, -2)),
	}

	result := Resample(accounts, rows, Range7D, ResolutionDaily, testNow)

	kinds := make(map[string][]SeriesKind)
	for _, s := range result.Series {
		kinds[s.AccountID] = append(kinds[s.AccountID], s.Kind)
	}

	if len(kinds["a1"]) != 2 {
		t.Errorf("Account a1 series kinds = %v, want balance and invested", kinds["a1"])
	}
	if len(kinds["a2"]) != 1 || kinds["a2"][0] != KindBalance {
		t.Errorf("Account a2 series kinds = %v, want balance only", kinds["a2"])
	}
}

func TestResample_DailyGridSnapsToEndOfDay(t *testing.T) {
	accounts := []*domain.Account{{ID: "a1", Name: "Cash"}}
	rows := []*domain.BalanceHistory{row("a1", 10, 0, testNow.AddDate(0, 0, -6))}

	result := Resample(accounts, rows, Range7D, ResolutionDaily, testNow)

	for _, label := range result.Labels[:len(result.Labels)-1] {
		if label.Hour() != 23 || label.Minute() != 59 || label.Second() != 59 {
			t.Errorf("Grid point %v not snapped to 23:59:59", label)
		}
	}
}

func TestResample_WeeklyGridLandsOnSunday(t *testing.T) {
	accounts := []*domain.Account{{ID: "a1", Name: "Cash"}}
	rows := []*domain.BalanceHistory{row("a1", 10, 0, testNow.AddDate(0, 0, -29))}

	result := Resample(accounts, rows, Range30D, ResolutionWeekly, testNow)

	if len(result.Labels) < 2 {
		t.Fatalf("Expected at least 2 weekly grid points, got %d", len(result.Labels))
	}
	for _, label := range result.Labels[:len(result.Labels)-1] {
		if label.Weekday() != time.Sunday {
			t.Errorf("Weekly grid point %v falls on %v, want Sunday", label, label.Weekday())
		}
	}
	if !result.Labels[len(result.Labels)-1].Equal(testNow) {
		t.Errorf("Final weekly point should be now")
	}
}

func TestResample_MonthlyUsesThirtyDayStride(t *testing.T) {
	accounts := []*domain.Account{{ID: "a1", Name: "Cash"}}
	rows := []*domain.BalanceHistory{row("a1", 10, 0, testNow.AddDate(0, 0, -360))}

	result := Resample(accounts, rows, Range1Y, ResolutionMonthly, testNow)

	if len(result.Labels) < 3 {
		t.Fatalf("Expected several monthly grid points, got %d", len(result.Labels))
	}
	for i := 1; i < len(result.Labels)-1; i++ {
		gap := result.Labels[i].Sub(result.Labels[i-1])
		if gap != 30*24*time.Hour {
			t.Errorf("Monthly stride between points %d and %d = %v, want 720h", i-1, i, gap)
		}
	}
}

func TestResample_RangeAllStartsAtEarliestRecord(t *testing.T) {
	accounts := []*domain.Account{{ID: "a1", Name: "Cash"}}
	earliest := testNow.AddDate(0, 0, -4)
	rows := []*domain.BalanceHistory{
		row("a1", 10, 0, earliest),
		row("a1", 20, 0, testNow.AddDate(0, 0, -1)),
	}

	result := Resample(accounts, rows, RangeAll, ResolutionDaily, testNow)

	if len(result.Labels) == 0 {
		t.Fatal("Expected non-empty grid")
	}
	first := result.Labels[0]
	if first.Before(earliest) {
		t.Errorf("Grid starts at %v, before earliest record %v", first, earliest)
	}
	if first.Day() != earliest.Day() {
		t.Errorf("Grid should start on the earliest record's day, got %v", first)
	}
}

func TestResample_AccountWithoutHistoryIsAllZero(t *testing.T) {
	accounts := []*domain.Account{
		{ID: "a1", Name: "Synced"},
		{ID: "a2", Name: "Manual"},
	}
	rows := []*domain.BalanceHistory{row("a1", 10, 0, testNow.AddDate(0, 0, -2))}

	result := Resample(accounts, rows, Range7D, ResolutionDaily, testNow)

	var manual *Series
	for i := range result.Series {
		if result.Series[i].AccountID == "a2" {
			manual = &result.Series[i]
		}
	}
	if manual == nil {
		t.Fatal("Expected a balance series for the account without history")
	}
	for i, v := range manual.Values {
		if v != 0 {
			t.Errorf("Values[%d] = %v, want 0 for account with no history", i, v)
		}
	}
}
