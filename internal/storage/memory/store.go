// Package memory provides an in-memory implementation of the storage
// contracts. It is safe for concurrent use and suitable for tests and
// single-instance local runs; data is lost on restart.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MihajloDimeski/BudgetingApp/internal/domain"
	"github.com/MihajloDimeski/BudgetingApp/internal/storage"
)

var _ storage.Store = (*Store)(nil)

// Store holds all records in mutex-guarded maps.
type Store struct {
	mu           sync.RWMutex
	households   map[string]*domain.Household
	accounts     map[string]*domain.Account
	integrations map[string]*domain.Integration
	history      []*domain.BalanceHistory
	transactions map[string]*domain.Transaction
	categories   map[string]*domain.Category
	budgets      map[string]*domain.Budget
	recurring    map[string]*domain.RecurringTransaction
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		households:   make(map[string]*domain.Household),
		accounts:     make(map[string]*domain.Account),
		integrations: make(map[string]*domain.Integration),
		transactions: make(map[string]*domain.Transaction),
		categories:   make(map[string]*domain.Category),
		budgets:      make(map[string]*domain.Budget),
		recurring:    make(map[string]*domain.RecurringTransaction),
	}
}

// SeedHousehold inserts a household, generating an ID when absent.
func (s *Store) SeedHousehold(h *domain.Household) *domain.Household {
	s.mu.Lock()
	defer s.mu.Unlock()

	if h.ID == "" {
		h.ID = uuid.New().String()
	}
	cp := *h
	s.households[h.ID] = &cp
	return h
}

// SeedIntegration inserts an integration, generating an ID when absent.
func (s *Store) SeedIntegration(i *domain.Integration) *domain.Integration {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i.ID == "" {
		i.ID = uuid.New().String()
	}
	cp := *i
	s.integrations[i.ID] = &cp
	return i
}

// SeedCategory inserts a category, generating an ID when absent.
func (s *Store) SeedCategory(c *domain.Category) *domain.Category {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	cp := *c
	s.categories[c.ID] = &cp
	return c
}

// SeedBudget inserts a budget, generating an ID when absent.
func (s *Store) SeedBudget(b *domain.Budget) *domain.Budget {
	s.mu.Lock()
	defer s.mu.Unlock()

	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	cp := *b
	s.budgets[b.ID] = &cp
	return b
}

// SeedRecurring inserts a recurring template, generating an ID when absent.
func (s *Store) SeedRecurring(r *domain.RecurringTransaction) *domain.RecurringTransaction {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	cp := *r
	s.recurring[r.ID] = &cp
	return r
}

// SeedHistory appends a history snapshot directly, bypassing sync commits.
func (s *Store) SeedHistory(h *domain.BalanceHistory) *domain.BalanceHistory {
	s.mu.Lock()
	defer s.mu.Unlock()

	if h.ID == "" {
		h.ID = uuid.New().String()
	}
	cp := *h
	s.history = append(s.history, &cp)
	return h
}

// GetHousehold returns a household by ID.
func (s *Store) GetHousehold(ctx context.Context, id string) (*domain.Household, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h, ok := s.households[id]
	if !ok {
		return nil, fmt.Errorf("household %s: %w", id, storage.ErrNotFound)
	}
	cp := *h
	return &cp, nil
}

// ListHouseholds returns every household.
func (s *Store) ListHouseholds(ctx context.Context) ([]*domain.Household, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Household
	for _, h := range s.households {
		cp := *h
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// UpdateBaseCurrency sets a household's reporting currency.
func (s *Store) UpdateBaseCurrency(ctx context.Context, householdID, currency string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.households[householdID]
	if !ok {
		return fmt.Errorf("household not found: %s", householdID)
	}
	h.BaseCurrency = currency
	return nil
}

// ListAccounts returns a household's accounts.
func (s *Store) ListAccounts(ctx context.Context, householdID string) ([]*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Account
	for _, a := range s.accounts {
		if a.HouseholdID != householdID {
			continue
		}
		cp := *a
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// GetAccount returns an account by ID.
func (s *Store) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.accounts[id]
	if !ok {
		return nil, fmt.Errorf("account %s: %w", id, storage.ErrNotFound)
	}
	cp := *a
	return &cp, nil
}

// FindAccountByName returns the household's account with the given name, or
// nil when none exists.
func (s *Store) FindAccountByName(ctx context.Context, householdID, name string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, a := range s.accounts {
		if a.HouseholdID == householdID && a.Name == name {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

// CreateAccount inserts an account, generating an ID when absent.
func (s *Store) CreateAccount(ctx context.Context, account *domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if account.ID == "" {
		account.ID = uuid.New().String()
	}
	cp := *account
	s.accounts[account.ID] = &cp
	return nil
}

// UpdateAccount overwrites an existing account.
func (s *Store) UpdateAccount(ctx context.Context, account *domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[account.ID]; !ok {
		return fmt.Errorf("account not found: %s", account.ID)
	}
	cp := *account
	s.accounts[account.ID] = &cp
	return nil
}

// ListIntegrations returns a household's integrations.
func (s *Store) ListIntegrations(ctx context.Context, householdID string) ([]*domain.Integration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Integration
	for _, i := range s.integrations {
		if i.HouseholdID != householdID {
			continue
		}
		cp := *i
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Platform < result[j].Platform })
	return result, nil
}

// CreateIntegration inserts an integration, generating an ID when absent.
func (s *Store) CreateIntegration(ctx context.Context, integration *domain.Integration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if integration.ID == "" {
		integration.ID = uuid.New().String()
	}
	cp := *integration
	s.integrations[integration.ID] = &cp
	return nil
}

// DeleteIntegration removes a household's integration. The paired account
// and its history rows are untouched.
func (s *Store) DeleteIntegration(ctx context.Context, householdID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	integration, ok := s.integrations[id]
	if !ok || integration.HouseholdID != householdID {
		return fmt.Errorf("integration %s: %w", id, storage.ErrNotFound)
	}
	delete(s.integrations, id)
	return nil
}

// ListHistory returns a household's balance history in ascending date order.
func (s *Store) ListHistory(ctx context.Context, householdID string) ([]*domain.BalanceHistory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	owned := make(map[string]bool)
	for _, a := range s.accounts {
		if a.HouseholdID == householdID {
			owned[a.ID] = true
		}
	}

	var result []*domain.BalanceHistory
	for _, h := range s.history {
		if !owned[h.AccountID] {
			continue
		}
		cp := *h
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date.Before(result[j].Date) })
	return result, nil
}

// CommitSync applies one integration's sync writes under a single lock so a
// reader never observes a half-applied integration.
func (s *Store) CommitSync(ctx context.Context, account *domain.Account, snapshot *domain.BalanceHistory, integrationID string, syncedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	integration, ok := s.integrations[integrationID]
	if !ok {
		return fmt.Errorf("integration not found: %s", integrationID)
	}

	if account.ID == "" {
		account.ID = uuid.New().String()
	}
	accCopy := *account
	s.accounts[account.ID] = &accCopy

	if snapshot.ID == "" {
		snapshot.ID = uuid.New().String()
	}
	snapshot.AccountID = account.ID
	snapCopy := *snapshot
	s.history = append(s.history, &snapCopy)

	ts := syncedAt
	integration.LastSynced = &ts

	return nil
}

// ListTransactions returns a household's transactions, newest first.
func (s *Store) ListTransactions(ctx context.Context, householdID string) ([]*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Transaction
	for _, t := range s.transactions {
		if t.HouseholdID != householdID {
			continue
		}
		cp := *t
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date.After(result[j].Date) })
	return result, nil
}

// CreateTransaction inserts a transaction, generating an ID when absent.
func (s *Store) CreateTransaction(ctx context.Context, tx *domain.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tx.ID == "" {
		tx.ID = uuid.New().String()
	}
	cp := *tx
	s.transactions[tx.ID] = &cp
	return nil
}

// UpdateBaseAmounts overwrites the cached base-currency amount for the given
// transaction IDs. IDs outside the household are ignored.
func (s *Store) UpdateBaseAmounts(ctx context.Context, householdID string, amounts map[string]float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, amount := range amounts {
		t, ok := s.transactions[id]
		if !ok || t.HouseholdID != householdID {
			continue
		}
		t.AmountInBaseCurrency = amount
	}
	return nil
}

// ListCategories returns a household's categories.
func (s *Store) ListCategories(ctx context.Context, householdID string) ([]*domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Category
	for _, c := range s.categories {
		if c.HouseholdID != householdID {
			continue
		}
		cp := *c
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// ListBudgets returns a household's budgets.
func (s *Store) ListBudgets(ctx context.Context, householdID string) ([]*domain.Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Budget
	for _, b := range s.budgets {
		if b.HouseholdID != householdID {
			continue
		}
		cp := *b
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CategoryID < result[j].CategoryID })
	return result, nil
}

// ListRecurring returns a household's recurring templates.
func (s *Store) ListRecurring(ctx context.Context, householdID string) ([]*domain.RecurringTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.RecurringTransaction
	for _, r := range s.recurring {
		if r.HouseholdID != householdID {
			continue
		}
		cp := *r
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].NextDueDate.Before(result[j].NextDueDate) })
	return result, nil
}

// UpdateRecurring overwrites an existing recurring template.
func (s *Store) UpdateRecurring(ctx context.Context, rec *domain.RecurringTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.recurring[rec.ID]; !ok {
		return fmt.Errorf("recurring transaction not found: %s", rec.ID)
	}
	cp := *rec
	s.recurring[rec.ID] = &cp
	return nil
}
