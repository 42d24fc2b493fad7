package syncer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/MihajloDimeski/BudgetingApp/internal/balancesource"
	"github.com/MihajloDimeski/BudgetingApp/internal/domain"
	"github.com/MihajloDimeski/BudgetingApp/internal/storage/memory"
)

// stubSource returns a fixed result.
type stubSource struct {
	result balancesource.Result
}

func (s *stubSource) FetchBalance(ctx context.Context) balancesource.Result {
	return s.result
}

// panicSource panics on fetch.
type panicSource struct{}

func (p *panicSource) FetchBalance(ctx context.Context) balancesource.Result {
	panic("protocol violation")
}

func newTestEngine(store *memory.Store, sources map[string]balancesource.Source) *Engine {
	e := New(store, zerolog.Nop())
	e.newSource = func(platform, apiKey, apiSecret string, log zerolog.Logger) (balancesource.Source, error) {
		return balancesourceOrErr(sources, platform)
	}
	return e
}

func balancesourceOrErr(sources map[string]balancesource.Source, platform string) (balancesource.Source, error) {
	if src, ok := sources[platform]; ok {
		return src, nil
	}
	return balancesource.New(platform, "", "", zerolog.Nop())
}

func TestSync_PartialFailureIsolation(t *testing.T) {
	store := memory.NewStore()
	hh := store.SeedHousehold(&domain.Household{Name: "Test", BaseCurrency: "USD"})
	store.SeedIntegration(&domain.Integration{Platform: "bybit", HouseholdID: hh.ID})
	store.SeedIntegration(&domain.Integration{Platform: "trading212", HouseholdID: hh.ID})

	engine := newTestEngine(store, map[string]balancesource.Source{
		"bybit":      &panicSource{},
		"trading212": &stubSource{result: balancesource.Ok(500.0)},
	})

	if err := engine.Sync(context.Background(), hh.ID); err != nil {
		t.Fatalf("Sync returned error: %v", err)
	}

	accounts, err := store.ListAccounts(context.Background(), hh.ID)
	if err != nil {
		t.Fatalf("ListAccounts: %v", err)
	}
	if len(accounts) != 2 {
		t.Fatalf("Expected 2 accounts after sync, got %d", len(accounts))
	}

	byName := make(map[string]float64)
	for _, a := range accounts {
		byName[a.Name] = a.Balance
	}
	if byName["Trading212 Account"] != 500.0 {
		t.Errorf("Trading212 Account balance = %v, want 500", byName["Trading212 Account"])
	}
	// The panicking source degrades to zero instead of aborting the pass.
	if byName["Bybit Account"] != 0.0 {
		t.Errorf("Bybit Account balance = %v, want 0", byName["Bybit Account"])
	}

	history, err := store.ListHistory(context.Background(), hh.ID)
	if err != nil {
		t.Fatalf("ListHistory: %v", err)
	}
	if len(history) != 2 {
		t.Errorf("Expected 2 history rows, got %d", len(history))
	}

	integrations, _ := store.ListIntegrations(context.Background(), hh.ID)
	for _, i := range integrations {
		if i.LastSynced == nil {
			t.Errorf("Integration %s not marked synced", i.Platform)
		}
	}
}

func TestSync_OverwritesBalance(t *testing.T) {
	store := memory.NewStore()
	hh := store.SeedHousehold(&domain.Household{Name: "Test", BaseCurrency: "USD"})
	store.SeedIntegration(&domain.Integration{Platform: "bybit", HouseholdID: hh.ID})

	src := &stubSource{result: balancesource.Ok(100.0)}
	engine := newTestEngine(store, map[string]balancesource.Source{"bybit": src})

	ctx := context.Background()
	if err := engine.Sync(ctx, hh.ID); err != nil {
		t.Fatalf("first Sync: %v", err)
	}

	src.result = balancesource.Ok(75.0)
	if err := engine.Sync(ctx, hh.ID); err != nil {
		t.Fatalf("second Sync: %v", err)
	}

	account, err := store.FindAccountByName(ctx, hh.ID, "Bybit Account")
	if err != nil || account == nil {
		t.Fatalf("FindAccountByName: %v, account=%v", err, account)
	}
	// Overwritten, not summed.
	if account.Balance != 75.0 {
		t.Errorf("Balance after second sync = %v, want 75", account.Balance)
	}

	history, _ := store.ListHistory(ctx, hh.ID)
	if len(history) != 2 {
		t.Errorf("Expected 2 append-only history rows, got %d", len(history))
	}
}

func TestSync_SnapshotCarriesInvestedAmount(t *testing.T) {
	store := memory.NewStore()
	hh := store.SeedHousehold(&domain.Household{Name: "Test", BaseCurrency: "USD"})
	store.SeedIntegration(&domain.Integration{Platform: "bybit", HouseholdID: hh.ID})
	store.CreateAccount(context.Background(), &domain.Account{
		Name:           "Bybit Account",
		Type:           domain.AccountTypeInvestment,
		Balance:        10,
		InvestedAmount: 400,
		Currency:       "USD",
		HouseholdID:    hh.ID,
	})

	engine := newTestEngine(store, map[string]balancesource.Source{
		"bybit": &stubSource{result: balancesource.Ok(450.0)},
	})

	if err := engine.Sync(context.Background(), hh.ID); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	history, _ := store.ListHistory(context.Background(), hh.ID)
	if len(history) != 1 {
		t.Fatalf("Expected 1 history row, got %d", len(history))
	}
	if history[0].Balance != 450.0 {
		t.Errorf("Snapshot balance = %v, want 450", history[0].Balance)
	}
	if history[0].InvestedAmount != 400.0 {
		t.Errorf("Snapshot invested amount = %v, want 400", history[0].InvestedAmount)
	}
}

func TestSync_UnknownHouseholdIsNoop(t *testing.T) {
	store := memory.NewStore()
	engine := newTestEngine(store, nil)

	if err := engine.Sync(context.Background(), "missing"); err != nil {
		t.Errorf("Sync of unknown household should be a no-op, got error: %v", err)
	}
}

// failingHouseholdRepo simulates an unreachable store on household reads.
type failingHouseholdRepo struct {
	*memory.Store
	err error
}

func (r *failingHouseholdRepo) GetHousehold(ctx context.Context, id string) (*domain.Household, error) {
	return nil, r.err
}

func TestSync_StorageFailureIsFatal(t *testing.T) {
	repo := &failingHouseholdRepo{
		Store: memory.NewStore(),
		err:   errors.New("connection refused"),
	}
	engine := New(repo, zerolog.Nop())

	if err := engine.Sync(context.Background(), "hh-1"); err == nil {
		t.Error("Expected storage failure to propagate, got nil")
	}
}

func TestShouldSync(t *testing.T) {
	recent := time.Now().Add(-10 * time.Minute)
	old := time.Now().Add(-2 * time.Hour)

	tests := []struct {
		name       string
		lastSynced []*time.Time
		want       bool
	}{
		{"never synced", []*time.Time{nil}, true},
		{"recently synced", []*time.Time{&recent}, false},
		{"stale", []*time.Time{&old}, true},
		{"one stale among fresh", []*time.Time{&recent, &old}, true},
		{"no integrations", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.NewStore()
			hh := store.SeedHousehold(&domain.Household{Name: "Test", BaseCurrency: "USD"})
			for _, ts := range tt.lastSynced {
				store.SeedIntegration(&domain.Integration{
					Platform:    "bybit",
					LastSynced:  ts,
					HouseholdID: hh.ID,
				})
			}

			engine := newTestEngine(store, nil)
			got, err := engine.ShouldSync(context.Background(), hh.ID)
			if err != nil {
				t.Fatalf("ShouldSync: %v", err)
			}
			if got != tt.want {
				t.Errorf("ShouldSync() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSetStalenessWindow(t *testing.T) {
	halfHourAgo := time.Now().Add(-30 * time.Minute)

	store := memory.NewStore()
	hh := store.SeedHousehold(&domain.Household{Name: "Test", BaseCurrency: "USD"})
	store.SeedIntegration(&domain.Integration{
		Platform:    "bybit",
		LastSynced:  &halfHourAgo,
		HouseholdID: hh.ID,
	})

	engine := newTestEngine(store, nil)

	got, err := engine.ShouldSync(context.Background(), hh.ID)
	if err != nil {
		t.Fatalf("ShouldSync: %v", err)
	}
	if got {
		t.Error("expected fresh under the default window")
	}

	engine.SetStalenessWindow(10 * time.Minute)
	got, err = engine.ShouldSync(context.Background(), hh.ID)
	if err != nil {
		t.Fatalf("ShouldSync: %v", err)
	}
	if !got {
		t.Error("expected stale under the shortened window")
	}
}

func TestAccountName(t *testing.T) {
	tests := []struct {
		platform string
		want     string
	}{
		{"bybit", "Bybit Account"},
		{"trading212", "Trading212 Account"},
		{"", "Account"},
	}

	for _, tt := range tests {
		if got := AccountName(tt.platform); got != tt.want {
			t.Errorf("AccountName(%q) = %q, want %q", tt.platform, got, tt.want)
		}
	}
}
