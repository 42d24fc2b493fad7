// Package syncer iterates a household's integrations, fetches each
// platform's balance and records the result as an account upsert plus an
// append-only history snapshot.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/MihajloDimeski/BudgetingApp/internal/balancesource"
	"github.com/MihajloDimeski/BudgetingApp/internal/domain"
	"github.com/MihajloDimeski/BudgetingApp/internal/storage"
)

// StalenessWindow is how old an integration's last sync may be before a
// dashboard read should trigger a re-sync.
const StalenessWindow = time.Hour

// Repository is the storage surface the engine needs.
type Repository interface {
	storage.HouseholdRepository
	storage.IntegrationRepository
	storage.AccountRepository
	storage.SyncRepository
}

// Engine runs sync passes. One Engine is safe for concurrent use; concurrent
// passes for the same household are last-writer-wins on account balances and
// append independent history rows.
type Engine struct {
	repo      Repository
	newSource func(platform, apiKey, apiSecret string, log zerolog.Logger) (balancesource.Source, error)
	now       func() time.Time
	staleness time.Duration
	log       zerolog.Logger
}

// New creates a sync engine backed by the registered platform sources.
func New(repo Repository, log zerolog.Logger) *Engine {
	return &Engine{
		repo:      repo,
		newSource: balancesource.New,
		now:       time.Now,
		staleness: StalenessWindow,
		log:       log.With().Str("component", "syncer").Logger(),
	}
}

// SetStalenessWindow overrides the default window. Non-positive values
// restore the default.
func (e *Engine) SetStalenessWindow(d time.Duration) {
	if d <= 0 {
		d = StalenessWindow
	}
	e.staleness = d
}

// Sync runs one pass over every integration of the household. Fetch failures
// degrade to a zero balance and never abort the remaining integrations;
// storage failures are fatal to the pass. Syncing an unknown household is a
// no-op.
func (e *Engine) Sync(ctx context.Context, householdID string) error {
	household, err := e.repo.GetHousehold(ctx, householdID)
	if errors.Is(err, storage.ErrNotFound) || (err == nil && household == nil) {
		e.log.Warn().Str("household_id", householdID).Msg("Sync requested for unknown household")
		return nil
	}
	if err != nil {
		return fmt.Errorf("Sync: loading household: %w", err)
	}

	integrations, err := e.repo.ListIntegrations(ctx, householdID)
	if err != nil {
		return fmt.Errorf("Sync: listing integrations: %w", err)
	}
	if len(integrations) == 0 {
		return nil
	}

	e.log.Info().
		Str("household_id", householdID).
		Int("integrations", len(integrations)).
		Msg("Sync pass started")

	var synced, degraded int
	for _, integration := range integrations {
		result := e.fetch(ctx, integration)
		if result.Degraded {
			degraded++
			e.log.Warn().
				Str("platform", integration.Platform).
				Str("reason", result.Reason).
				Msg("Balance fetch degraded to zero")
		}

		if err := e.commit(ctx, household, integration, result.Balance); err != nil {
			return fmt.Errorf("Sync: committing %s: %w", integration.Platform, err)
		}
		synced++
	}

	e.log.Info().
		Str("household_id", householdID).
		Int("synced", synced).
		Int("degraded", degraded).
		Msg("Sync pass completed")

	return nil
}

// fetch instantiates the platform source and fetches its balance. Unknown
// platforms and panicking sources both degrade instead of failing the pass.
func (e *Engine) fetch(ctx context.Context, integration *domain.Integration) (result balancesource.Result) {
	defer func() {
		if r := recover(); r != nil {
			result = balancesource.Degraded(fmt.Sprintf("source panicked: %v", r))
		}
	}()

	src, err := e.newSource(integration.Platform, integration.APIKey, integration.APISecret, e.log)
	if err != nil {
		return balancesource.Degraded(err.Error())
	}
	return src.FetchBalance(ctx)
}

// commit upserts the platform account, appends the history snapshot and
// marks the integration synced, as one storage unit.
func (e *Engine) commit(ctx context.Context, household *domain.Household, integration *domain.Integration, balance float64) error {
	name := AccountName(integration.Platform)

	account, err := e.repo.FindAccountByName(ctx, household.ID, name)
	if err != nil {
		return fmt.Errorf("finding account %q: %w", name, err)
	}

	if account == nil {
		account = &domain.Account{
			Name:        name,
			Type:        domain.AccountTypeInvestment,
			Balance:     balance,
			Currency:    "USD",
			HouseholdID: household.ID,
		}
	} else {
		// Balances from external platforms are authoritative totals, never
		// accumulated onto the previous value.
		account.Balance = balance
	}

	now := e.now()
	snapshot := &domain.BalanceHistory{
		AccountID:      account.ID,
		Balance:        balance,
		InvestedAmount: account.InvestedAmount,
		Date:           now,
	}

	return e.repo.CommitSync(ctx, account, snapshot, integration.ID, now)
}

// ShouldSync reports whether any of the household's integrations has never
// synced or last synced outside the staleness window.
func (e *Engine) ShouldSync(ctx context.Context, householdID string) (bool, error) {
	integrations, err := e.repo.ListIntegrations(ctx, householdID)
	if err != nil {
		return false, fmt.Errorf("ShouldSync: listing integrations: %w", err)
	}

	now := e.now()
	for _, integration := range integrations {
		if integration.LastSynced == nil || now.Sub(*integration.LastSynced) > e.staleness {
			return true, nil
		}
	}
	return false, nil
}

// SyncIfStale runs a pass only when ShouldSync reports staleness. Callers on
// the dashboard read path use this as the opportunistic trigger.
func (e *Engine) SyncIfStale(ctx context.Context, householdID string) error {
	stale, err := e.ShouldSync(ctx, householdID)
	if err != nil {
		return err
	}
	if !stale {
		return nil
	}
	return e.Sync(ctx, householdID)
}

// AccountName is the deterministic account name an integration's balance is
// recorded under.
func AccountName(platform string) string {
	if platform == "" {
		return "Account"
	}
	return strings.ToUpper(platform[:1]) + platform[1:] + " Account"
}
