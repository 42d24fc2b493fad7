package bigquery

import (
	"time"

	"cloud.google.com/go/bigquery"

	"github.com/MihajloDimeski/BudgetingApp/internal/domain"
)

type HouseholdRow struct {
	HouseholdID  string `bigquery:"household_id"` // REQUIRED
	Name         string `bigquery:"name"`
	JoinCode     string `bigquery:"join_code"`
	BaseCurrency string `bigquery:"base_currency"`

	CreatedTS time.Time `bigquery:"created_ts"`
}

func (r *HouseholdRow) toDomain() *domain.Household {
	return &domain.Household{
		ID:           r.HouseholdID,
		Name:         r.Name,
		JoinCode:     r.JoinCode,
		BaseCurrency: r.BaseCurrency,
		CreatedAt:    r.CreatedTS,
	}
}

type AccountRow struct {
	AccountID   string `bigquery:"account_id"` // REQUIRED
	HouseholdID string `bigquery:"household_id"`

	AccountName    string  `bigquery:"account_name"`
	AccountType    string  `bigquery:"account_type"` // 'Cash', 'Investment'
	Balance        float64 `bigquery:"balance"`
	InvestedAmount float64 `bigquery:"invested_amount"`
	Currency       string  `bigquery:"currency"`
}

func (r *AccountRow) toDomain() *domain.Account {
	return &domain.Account{
		ID:             r.AccountID,
		Name:           r.AccountName,
		Type:           domain.AccountType(r.AccountType),
		Balance:        r.Balance,
		InvestedAmount: r.InvestedAmount,
		Currency:       r.Currency,
		HouseholdID:    r.HouseholdID,
	}
}

type IntegrationRow struct {
	IntegrationID string `bigquery:"integration_id"` // REQUIRED
	HouseholdID   string `bigquery:"household_id"`

	Platform  string `bigquery:"platform"` // 'bybit', 'trading212'
	APIKey    string `bigquery:"api_key"`
	APISecret string `bigquery:"api_secret"`

	LastSynced bigquery.NullTimestamp `bigquery:"last_synced"` // TIMESTAMP, NULLABLE
}

func (r *IntegrationRow) toDomain() *domain.Integration {
	i := &domain.Integration{
		ID:          r.IntegrationID,
		Platform:    r.Platform,
		APIKey:      r.APIKey,
		APISecret:   r.APISecret,
		HouseholdID: r.HouseholdID,
	}
	if r.LastSynced.Valid {
		ts := r.LastSynced.Timestamp
		i.LastSynced = &ts
	}
	return i
}

type HistoryRow struct {
	HistoryID string `bigquery:"history_id"` // REQUIRED
	AccountID string `bigquery:"account_id"`

	Balance        float64   `bigquery:"balance"`
	InvestedAmount float64   `bigquery:"invested_amount"`
	SnapshotTS     time.Time `bigquery:"snapshot_ts"`
}

func (r *HistoryRow) toDomain() *domain.BalanceHistory {
	return &domain.BalanceHistory{
		ID:             r.HistoryID,
		AccountID:      r.AccountID,
		Balance:        r.Balance,
		InvestedAmount: r.InvestedAmount,
		Date:           r.SnapshotTS,
	}
}

type TransactionRow struct {
	TransactionID string `bigquery:"transaction_id"` // REQUIRED
	HouseholdID   string `bigquery:"household_id"`
	UserID        string `bigquery:"user_id"`

	Amount               float64 `bigquery:"amount"`
	Currency             string  `bigquery:"currency"`
	AmountInBaseCurrency float64 `bigquery:"amount_in_base_currency"`

	Description     string              `bigquery:"description"`
	TransactionType string              `bigquery:"transaction_type"` // 'income', 'expense', 'investment'
	CategoryID      bigquery.NullString `bigquery:"category_id"`      // NULLABLE

	TransactionTS time.Time `bigquery:"transaction_ts"`
}

func (r *TransactionRow) toDomain() *domain.Transaction {
	t := &domain.Transaction{
		ID:                   r.TransactionID,
		Amount:               r.Amount,
		Currency:             r.Currency,
		AmountInBaseCurrency: r.AmountInBaseCurrency,
		Description:          r.Description,
		Date:                 r.TransactionTS,
		Type:                 domain.TransactionType(r.TransactionType),
		UserID:               r.UserID,
		HouseholdID:          r.HouseholdID,
	}
	if r.CategoryID.Valid {
		t.CategoryID = r.CategoryID.StringVal
	}
	return t
}

type CategoryRow struct {
	CategoryID   string `bigquery:"category_id"` // REQUIRED
	HouseholdID  string `bigquery:"household_id"`
	Name         string `bigquery:"name"`
	CategoryType string `bigquery:"category_type"` // 'expense', 'income', 'savings'
}

func (r *CategoryRow) toDomain() *domain.Category {
	return &domain.Category{
		ID:          r.CategoryID,
		Name:        r.Name,
		Type:        r.CategoryType,
		HouseholdID: r.HouseholdID,
	}
}

type BudgetRow struct {
	BudgetID    string `bigquery:"budget_id"` // REQUIRED
	HouseholdID string `bigquery:"household_id"`
	CategoryID  string `bigquery:"category_id"`

	AmountLimit float64 `bigquery:"amount_limit"`
	Currency    string  `bigquery:"currency"`
	Period      string  `bigquery:"period"`
}

func (r *BudgetRow) toDomain() *domain.Budget {
	return &domain.Budget{
		ID:          r.BudgetID,
		CategoryID:  r.CategoryID,
		AmountLimit: r.AmountLimit,
		Currency:    r.Currency,
		Period:      r.Period,
		HouseholdID: r.HouseholdID,
	}
}

type RecurringRow struct {
	RecurringID string `bigquery:"recurring_id"` // REQUIRED
	HouseholdID string `bigquery:"household_id"`

	Amount      float64             `bigquery:"amount"`
	Currency    string              `bigquery:"currency"`
	Description string              `bigquery:"description"`
	Frequency   string              `bigquery:"frequency"` // 'weekly', 'monthly', 'yearly'
	NextDueTS   time.Time           `bigquery:"next_due_ts"`
	TxType      string              `bigquery:"transaction_type"`
	CategoryID  bigquery.NullString `bigquery:"category_id"` // NULLABLE
}

func (r *RecurringRow) toDomain() *domain.RecurringTransaction {
	rec := &domain.RecurringTransaction{
		ID:          r.RecurringID,
		Amount:      r.Amount,
		Currency:    r.Currency,
		Description: r.Description,
		Frequency:   r.Frequency,
		NextDueDate: r.NextDueTS,
		Type:        domain.TransactionType(r.TxType),
		HouseholdID: r.HouseholdID,
	}
	if r.CategoryID.Valid {
		rec.CategoryID = r.CategoryID.StringVal
	}
	return rec
}
