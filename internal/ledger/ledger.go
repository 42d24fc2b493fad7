// Package ledger computes household aggregates: net worth, income and
// expense totals, budget spending and the derived base-currency projections
// on transactions.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/MihajloDimeski/BudgetingApp/internal/currency"
	"github.com/MihajloDimeski/BudgetingApp/internal/domain"
	"github.com/MihajloDimeski/BudgetingApp/internal/storage"
)

// Repository is the storage surface the aggregator needs.
type Repository interface {
	storage.HouseholdRepository
	storage.AccountRepository
	storage.TransactionRepository
	storage.BudgetRepository
	storage.RecurringRepository
}

// Aggregator reads raw records and converts per item; it holds no state of
// its own beyond the injected collaborators.
type Aggregator struct {
	repo      Repository
	converter *currency.Converter
	now       func() time.Time
	log       zerolog.Logger
}

// New creates an aggregator.
func New(repo Repository, converter *currency.Converter, log zerolog.Logger) *Aggregator {
	return &Aggregator{
		repo:      repo,
		converter: converter,
		now:       time.Now,
		log:       log.With().Str("component", "ledger").Logger(),
	}
}

// NetWorth sums every account balance converted into the household's base
// currency.
func (a *Aggregator) NetWorth(ctx context.Context, householdID string) (float64, error) {
	household, err := a.repo.GetHousehold(ctx, householdID)
	if err != nil {
		return 0, fmt.Errorf("NetWorth: loading household: %w", err)
	}

	accounts, err := a.repo.ListAccounts(ctx, householdID)
	if err != nil {
		return 0, fmt.Errorf("NetWorth: listing accounts: %w", err)
	}

	total := 0.0
	for _, account := range accounts {
		total += a.converter.Convert(account.Balance, account.Currency, household.BaseCurrency)
	}
	return total, nil
}

// Totals returns the household's income and expense sums from the cached
// base-currency projections.
func (a *Aggregator) Totals(ctx context.Context, householdID string) (income, expenses float64, err error) {
	transactions, err := a.repo.ListTransactions(ctx, householdID)
	if err != nil {
		return 0, 0, fmt.Errorf("Totals: listing transactions: %w", err)
	}

	for _, t := range transactions {
		switch t.Type {
		case domain.TransactionIncome:
			income += t.AmountInBaseCurrency
		case domain.TransactionExpense:
			expenses += t.AmountInBaseCurrency
		}
	}
	return income, expenses, nil
}

// AddTransaction stores a transaction, computing its cached base-currency
// amount from the household's base currency at write time.
func (a *Aggregator) AddTransaction(ctx context.Context, tx *domain.Transaction) error {
	household, err := a.repo.GetHousehold(ctx, tx.HouseholdID)
	if err != nil {
		return fmt.Errorf("AddTransaction: loading household: %w", err)
	}

	if tx.Currency == "" {
		tx.Currency = "USD"
	}
	if tx.Date.IsZero() {
		tx.Date = a.now()
	}
	tx.AmountInBaseCurrency = a.converter.Convert(tx.Amount, tx.Currency, household.BaseCurrency)

	if err := a.repo.CreateTransaction(ctx, tx); err != nil {
		return fmt.Errorf("AddTransaction: %w", err)
	}
	return nil
}

// SetBaseCurrency switches the household's reporting currency and recomputes
// every transaction's cached base amount. This is the single invalidation
// point for that cache.
func (a *Aggregator) SetBaseCurrency(ctx context.Context, householdID, code string) error {
	if !a.converter.Supported(code) {
		return fmt.Errorf("SetBaseCurrency: unsupported currency: %s", code)
	}

	if err := a.repo.UpdateBaseCurrency(ctx, householdID, code); err != nil {
		return fmt.Errorf("SetBaseCurrency: %w", err)
	}

	transactions, err := a.repo.ListTransactions(ctx, householdID)
	if err != nil {
		return fmt.Errorf("SetBaseCurrency: listing transactions: %w", err)
	}

	amounts := make(map[string]float64, len(transactions))
	for _, t := range transactions {
		amounts[t.ID] = a.converter.Convert(t.Amount, t.Currency, code)
	}
	if err := a.repo.UpdateBaseAmounts(ctx, householdID, amounts); err != nil {
		return fmt.Errorf("SetBaseCurrency: updating cached amounts: %w", err)
	}

	a.log.Info().
		Str("household_id", householdID).
		Str("base_currency", code).
		Int("recomputed", len(amounts)).
		Msg("Base currency switched")

	return nil
}

// BudgetStatus pairs a budget with its derived spent amount, in the budget's
// own currency.
type BudgetStatus struct {
	Budget       *domain.Budget `json:"budget"`
	CategoryName string         `json:"category_name"`
	CategoryType string         `json:"category_type"`
	Spent        float64        `json:"spent"`
}

// BudgetSummary computes the spent figure for every budget. Expense budgets
// sum the category's expenses converted into the budget currency. Income
// budgets report what remains of the category's income after the
// household's total expenses.
func (a *Aggregator) BudgetSummary(ctx context.Context, householdID string) ([]BudgetStatus, error) {
	household, err := a.repo.GetHousehold(ctx, householdID)
	if err != nil {
		return nil, fmt.Errorf("BudgetSummary: loading household: %w", err)
	}

	budgets, err := a.repo.ListBudgets(ctx, householdID)
	if err != nil {
		return nil, fmt.Errorf("BudgetSummary: listing budgets: %w", err)
	}
	categories, err := a.repo.ListCategories(ctx, householdID)
	if err != nil {
		return nil, fmt.Errorf("BudgetSummary: listing categories: %w", err)
	}
	transactions, err := a.repo.ListTransactions(ctx, householdID)
	if err != nil {
		return nil, fmt.Errorf("BudgetSummary: listing transactions: %w", err)
	}

	categoryByID := make(map[string]*domain.Category, len(categories))
	for _, c := range categories {
		categoryByID[c.ID] = c
	}

	totalExpenses := 0.0
	for _, t := range transactions {
		if t.Type == domain.TransactionExpense {
			totalExpenses += t.Amount
		}
	}

	var result []BudgetStatus
	for _, budget := range budgets {
		category := categoryByID[budget.CategoryID]
		if category == nil {
			continue
		}

		spent := 0.0
		if category.Type == "income" {
			categoryIncome := 0.0
			for _, t := range transactions {
				if t.CategoryID == budget.CategoryID && t.Type == domain.TransactionIncome {
					categoryIncome += a.converter.Convert(t.Amount, t.Currency, budget.Currency)
				}
			}
			expensesInBudgetCurrency := a.converter.Convert(totalExpenses, household.BaseCurrency, budget.Currency)
			spent = categoryIncome - expensesInBudgetCurrency
		} else {
			for _, t := range transactions {
				if t.CategoryID == budget.CategoryID && t.Type == domain.TransactionExpense {
					spent += a.converter.Convert(t.Amount, t.Currency, budget.Currency)
				}
			}
		}

		result = append(result, BudgetStatus{
			Budget:       budget,
			CategoryName: category.Name,
			CategoryType: category.Type,
			Spent:        spent,
		})
	}

	return result, nil
}

// ProcessRecurring materializes every due recurring template into a
// transaction and advances its schedule. Returns how many were processed.
func (a *Aggregator) ProcessRecurring(ctx context.Context, householdID, userID string) (int, error) {
	recurring, err := a.repo.ListRecurring(ctx, householdID)
	if err != nil {
		return 0, fmt.Errorf("ProcessRecurring: listing recurring: %w", err)
	}

	now := a.now()
	count := 0
	for _, r := range recurring {
		if r.NextDueDate.After(now) {
			continue
		}

		tx := &domain.Transaction{
			Amount:      r.Amount,
			Currency:    r.Currency,
			Description: r.Description + " (Recurring)",
			Date:        now,
			Type:        r.Type,
			CategoryID:  r.CategoryID,
			UserID:      userID,
			HouseholdID: householdID,
		}
		if err := a.AddTransaction(ctx, tx); err != nil {
			return count, fmt.Errorf("ProcessRecurring: %w", err)
		}

		switch r.Frequency {
		case "weekly":
			r.NextDueDate = r.NextDueDate.AddDate(0, 0, 7)
		case "monthly":
			r.NextDueDate = r.NextDueDate.AddDate(0, 0, 30)
		case "yearly":
			r.NextDueDate = r.NextDueDate.AddDate(0, 0, 365)
		default:
			a.log.Warn().Str("frequency", r.Frequency).Str("recurring_id", r.ID).Msg("Unknown frequency, schedule not advanced")
		}
		if err := a.repo.UpdateRecurring(ctx, r); err != nil {
			return count, fmt.Errorf("ProcessRecurring: advancing schedule: %w", err)
		}
		count++
	}

	return count, nil
}

// CreateAccount stores a manually entered account under the household. The
// household must exist; the account's currency defaults to the household's
// base currency and its type to cash.
func (a *Aggregator) CreateAccount(ctx context.Context, account *domain.Account) error {
	household, err := a.repo.GetHousehold(ctx, account.HouseholdID)
	if err != nil {
		return fmt.Errorf("CreateAccount: loading household: %w", err)
	}

	if account.Currency == "" {
		account.Currency = household.BaseCurrency
	}
	if account.Type == "" {
		account.Type = domain.AccountTypeCash
	}

	if err := a.repo.CreateAccount(ctx, account); err != nil {
		return fmt.Errorf("CreateAccount: %w", err)
	}
	return nil
}

// UpdateInvestedAmount sets an account's contribution basis. A missing
// account or mismatched household is a silent no-op, never an error:
// ownership violations must not mutate and must not leak existence. An
// unreachable store is still fatal.
func (a *Aggregator) UpdateInvestedAmount(ctx context.Context, householdID, accountID string, amount float64) error {
	account, err := a.repo.GetAccount(ctx, accountID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("UpdateInvestedAmount: loading account: %w", err)
	}
	if account.HouseholdID != householdID {
		return nil
	}

	account.InvestedAmount = amount
	if err := a.repo.UpdateAccount(ctx, account); err != nil {
		return fmt.Errorf("UpdateInvestedAmount: %w", err)
	}
	return nil
}
