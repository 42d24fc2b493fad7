package domain

import (
	"time"
)

// TransactionType classifies a transaction for income/expense aggregation.
type TransactionType string

const (
	TransactionIncome     TransactionType = "income"
	TransactionExpense    TransactionType = "expense"
	TransactionInvestment TransactionType = "investment"
)

// Transaction is one household cash movement. AmountInBaseCurrency is a
// cached projection of Amount converted into the household's base currency as
// of the last write of either the transaction or the base currency; it must
// be recomputed whenever the household switches base currency.
type Transaction struct {
	ID                   string
	Amount               float64
	Currency             string
	AmountInBaseCurrency float64
	Description          string
	Date                 time.Time
	Type                 TransactionType
	CategoryID           string // empty when uncategorized
	UserID               string
	HouseholdID          string
}

// Category groups transactions for budgeting.
type Category struct {
	ID          string
	Name        string
	Type        string // "expense", "income", "savings"
	HouseholdID string
}

// Budget is a per-category spending limit in its own currency. Spent is a
// derived figure computed by the ledger aggregator, never persisted.
type Budget struct {
	ID          string
	CategoryID  string
	AmountLimit float64
	Currency    string
	Period      string
	HouseholdID string
}

// RecurringTransaction is a template that materializes into a Transaction
// each time its due date passes.
type RecurringTransaction struct {
	ID          string
	Amount      float64
	Currency    string
	Description string
	Frequency   string // "weekly", "monthly", "yearly"
	NextDueDate time.Time
	Type        TransactionType
	CategoryID  string
	HouseholdID string
}
