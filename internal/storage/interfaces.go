// Package storage defines the repository contracts the core depends on.
// Implementations live in subpackages; the core is storage-agnostic and only
// assumes records are durable, fetchable by ID and by household-scoped
// filter, and that one integration's sync writes commit as a unit.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/MihajloDimeski/BudgetingApp/internal/domain"
)

// ErrNotFound reports that a record does not exist. Callers use it to tell
// a missing record apart from an unreachable store; only the former may be
// treated as a no-op.
var ErrNotFound = errors.New("record not found")

// HouseholdRepository reads and updates households.
type HouseholdRepository interface {
	GetHousehold(ctx context.Context, id string) (*domain.Household, error)
	ListHouseholds(ctx context.Context) ([]*domain.Household, error)
	UpdateBaseCurrency(ctx context.Context, householdID, currency string) error
}

// AccountRepository reads and writes accounts, always household-scoped.
type AccountRepository interface {
	ListAccounts(ctx context.Context, householdID string) ([]*domain.Account, error)
	GetAccount(ctx context.Context, id string) (*domain.Account, error)
	// FindAccountByName returns nil, nil when no account matches.
	FindAccountByName(ctx context.Context, householdID, name string) (*domain.Account, error)
	CreateAccount(ctx context.Context, account *domain.Account) error
	UpdateAccount(ctx context.Context, account *domain.Account) error
}

// IntegrationRepository reads and writes a household's configured
// integrations. Deleting an integration never cascades to its paired
// account; the account stays for history.
type IntegrationRepository interface {
	ListIntegrations(ctx context.Context, householdID string) ([]*domain.Integration, error)
	CreateIntegration(ctx context.Context, integration *domain.Integration) error
	DeleteIntegration(ctx context.Context, householdID, id string) error
}

// HistoryRepository reads balance history snapshots. Rows are append-only
// and returned in ascending date order.
type HistoryRepository interface {
	ListHistory(ctx context.Context, householdID string) ([]*domain.BalanceHistory, error)
}

// SyncRepository commits one integration's sync writes atomically: the
// account upsert, the history append, and the last_synced update either all
// land or none do. A crash mid-pass leaves earlier integrations durable and
// only the in-flight one unsynced.
type SyncRepository interface {
	CommitSync(ctx context.Context, account *domain.Account, snapshot *domain.BalanceHistory, integrationID string, syncedAt time.Time) error
}

// TransactionRepository reads and writes transactions.
type TransactionRepository interface {
	// ListTransactions returns a household's transactions, newest first.
	ListTransactions(ctx context.Context, householdID string) ([]*domain.Transaction, error)
	CreateTransaction(ctx context.Context, tx *domain.Transaction) error
	// UpdateBaseAmounts overwrites the cached base-currency amount for each
	// transaction ID in the map. Used only by the base-currency switch.
	UpdateBaseAmounts(ctx context.Context, householdID string, amounts map[string]float64) error
}

// BudgetRepository reads categories and budgets.
type BudgetRepository interface {
	ListCategories(ctx context.Context, householdID string) ([]*domain.Category, error)
	ListBudgets(ctx context.Context, householdID string) ([]*domain.Budget, error)
}

// RecurringRepository reads and advances recurring transaction templates.
type RecurringRepository interface {
	ListRecurring(ctx context.Context, householdID string) ([]*domain.RecurringTransaction, error)
	UpdateRecurring(ctx context.Context, rec *domain.RecurringTransaction) error
}

// Store is the full surface a deployment wires together.
type Store interface {
	HouseholdRepository
	AccountRepository
	IntegrationRepository
	HistoryRepository
	SyncRepository
	TransactionRepository
	BudgetRepository
	RecurringRepository
}
