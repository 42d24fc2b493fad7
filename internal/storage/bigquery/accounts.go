package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"

	"github.com/MihajloDimeski/BudgetingApp/internal/domain"
	"github.com/MihajloDimeski/BudgetingApp/internal/storage"
)

const accountColumns = `
			account_id,
			household_id,
			account_name,
			account_type,
			balance,
			invested_amount,
			currency`

// ListAccounts retrieves a household's accounts.
func (s *Store) ListAccounts(ctx context.Context, householdID string) ([]*domain.Account, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE household_id = @household_id
		ORDER BY account_name
	`, accountColumns, s.table(accountsTable))

	q := s.client.Query(query)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "household_id", Value: householdID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListAccounts: reading query: %w", err)
	}

	var accounts []*domain.Account
	for {
		var row AccountRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListAccounts: iterating: %w", err)
		}
		accounts = append(accounts, row.toDomain())
	}

	return accounts, nil
}

// GetAccount retrieves one account by ID.
func (s *Store) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE account_id = @account_id
		LIMIT 1
	`, accountColumns, s.table(accountsTable))

	q := s.client.Query(query)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "account_id", Value: id},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("GetAccount: reading query: %w", err)
	}

	var row AccountRow
	err = it.Next(&row)
	if err == iterator.Done {
		return nil, fmt.Errorf("GetAccount: account %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("GetAccount: iterating: %w", err)
	}

	return row.toDomain(), nil
}

// FindAccountByName retrieves the household's account with the given name.
// Returns nil, nil when no account matches.
func (s *Store) FindAccountByName(ctx context.Context, householdID, name string) (*domain.Account, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE household_id = @household_id
		  AND account_name = @account_name
		LIMIT 1
	`, accountColumns, s.table(accountsTable))

	q := s.client.Query(query)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "household_id", Value: householdID},
		{Name: "account_name", Value: name},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("FindAccountByName: reading query: %w", err)
	}

	var row AccountRow
	err = it.Next(&row)
	if err == iterator.Done {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("FindAccountByName: iterating: %w", err)
	}

	return row.toDomain(), nil
}

// CreateAccount inserts an account, generating an ID when absent.
func (s *Store) CreateAccount(ctx context.Context, account *domain.Account) error {
	if account.ID == "" {
		account.ID = uuid.NewString()
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (
			account_id, household_id, account_name, account_type,
			balance, invested_amount, currency
		)
		VALUES (
			@account_id, @household_id, @account_name, @account_type,
			@balance, @invested_amount, @currency
		)
	`, s.table(accountsTable))

	q := s.client.Query(query)
	q.Parameters = accountParameters(account)

	if err := s.run(ctx, q); err != nil {
		return fmt.Errorf("CreateAccount: %w", err)
	}
	return nil
}

// UpdateAccount overwrites an existing account's mutable fields.
func (s *Store) UpdateAccount(ctx context.Context, account *domain.Account) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET account_name = @account_name,
		    account_type = @account_type,
		    balance = @balance,
		    invested_amount = @invested_amount,
		    currency = @currency
		WHERE account_id = @account_id
		  AND household_id = @household_id
	`, s.table(accountsTable))

	q := s.client.Query(query)
	q.Parameters = accountParameters(account)

	if err := s.run(ctx, q); err != nil {
		return fmt.Errorf("UpdateAccount: %w", err)
	}
	return nil
}

func accountParameters(account *domain.Account) []bigquery.QueryParameter {
	return []bigquery.QueryParameter{
		{Name: "account_id", Value: account.ID},
		{Name: "household_id", Value: account.HouseholdID},
		{Name: "account_name", Value: account.Name},
		{Name: "account_type", Value: string(account.Type)},
		{Name: "balance", Value: account.Balance},
		{Name: "invested_amount", Value: account.InvestedAmount},
		{Name: "currency", Value: account.Currency},
	}
}
