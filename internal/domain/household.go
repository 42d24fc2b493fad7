package domain

import (
	"time"
)

// Household is the ownership and reporting boundary. Every financial record
// belongs to exactly one household, and all aggregate figures are reported in
// the household's base currency.
type Household struct {
	ID           string
	Name         string
	JoinCode     string
	BaseCurrency string // 3-letter code, e.g. "USD"
	CreatedAt    time.Time
}

// AccountType tags how an account's balance is maintained.
type AccountType string

const (
	AccountTypeCash       AccountType = "Cash"
	AccountTypeInvestment AccountType = "Investment"
)

// Account holds a current balance plus the contribution basis for investment
// accounts. Balance and InvestedAmount are denominated in Currency; converted
// figures are always derived, never stored here.
type Account struct {
	ID             string
	Name           string
	Type           AccountType
	Balance        float64
	InvestedAmount float64
	Currency       string
	HouseholdID    string
}

// Integration is a configured connection to an external platform. The
// platform tag selects the balance source variant; the key/secret pair is
// opaque to everything but that variant.
type Integration struct {
	ID          string
	Platform    string // "bybit", "trading212"
	APIKey      string
	APISecret   string
	LastSynced  *time.Time
	HouseholdID string
}

// BalanceHistory is an immutable snapshot of an account's balance and
// invested amount at sync time. Rows are append-only; intermediate states
// are derived by lookup, never by rewriting history.
type BalanceHistory struct {
	ID             string
	AccountID      string
	Balance        float64
	InvestedAmount float64
	Date           time.Time
}
