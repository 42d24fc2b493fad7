package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"

	"github.com/MihajloDimeski/BudgetingApp/internal/domain"
)

// ListTransactions retrieves a household's transactions, newest first.
func (s *Store) ListTransactions(ctx context.Context, householdID string) ([]*domain.Transaction, error) {
	query := fmt.Sprintf(`
		SELECT
			transaction_id,
			household_id,
			user_id,
			amount,
			currency,
			amount_in_base_currency,
			description,
			transaction_type,
			category_id,
			transaction_ts
		FROM %s
		WHERE household_id = @household_id
		ORDER BY transaction_ts DESC
	`, s.table(transactionsTable))

	q := s.client.Query(query)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "household_id", Value: householdID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListTransactions: reading query: %w", err)
	}

	var transactions []*domain.Transaction
	for {
		var row TransactionRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListTransactions: iterating: %w", err)
		}
		transactions = append(transactions, row.toDomain())
	}

	return transactions, nil
}

// CreateTransaction inserts a transaction, generating an ID when absent.
func (s *Store) CreateTransaction(ctx context.Context, tx *domain.Transaction) error {
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}

	categoryID := bigquery.NullString{}
	if tx.CategoryID != "" {
		categoryID = bigquery.NullString{StringVal: tx.CategoryID, Valid: true}
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (
			transaction_id, household_id, user_id, amount, currency,
			amount_in_base_currency, description, transaction_type,
			category_id, transaction_ts
		)
		VALUES (
			@transaction_id, @household_id, @user_id, @amount, @currency,
			@amount_in_base_currency, @description, @transaction_type,
			@category_id, @transaction_ts
		)
	`, s.table(transactionsTable))

	q := s.client.Query(query)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "transaction_id", Value: tx.ID},
		{Name: "household_id", Value: tx.HouseholdID},
		{Name: "user_id", Value: tx.UserID},
		{Name: "amount", Value: tx.Amount},
		{Name: "currency", Value: tx.Currency},
		{Name: "amount_in_base_currency", Value: tx.AmountInBaseCurrency},
		{Name: "description", Value: tx.Description},
		{Name: "transaction_type", Value: string(tx.Type)},
		{Name: "category_id", Value: categoryID},
		{Name: "transaction_ts", Value: tx.Date},
	}

	if err := s.run(ctx, q); err != nil {
		return fmt.Errorf("CreateTransaction: %w", err)
	}
	return nil
}

// UpdateBaseAmounts overwrites the cached base-currency amount for each
// transaction in the map, in one DML statement per batch.
func (s *Store) UpdateBaseAmounts(ctx context.Context, householdID string, amounts map[string]float64) error {
	if len(amounts) == 0 {
		return nil
	}

	ids := make([]string, 0, len(amounts))
	values := make([]float64, 0, len(amounts))
	for id, amount := range amounts {
		ids = append(ids, id)
		values = append(values, amount)
	}

	// Joins the id/amount pairs with UNNEST so the whole recompute is one
	// statement instead of a DML job per row.
	query := fmt.Sprintf(`
		UPDATE %s t
		SET t.amount_in_base_currency = u.amount
		FROM (
			SELECT id, amount
			FROM UNNEST(@ids) AS id WITH OFFSET pos
			JOIN UNNEST(@amounts) AS amount WITH OFFSET pos2
			ON pos = pos2
		) u
		WHERE t.transaction_id = u.id
		  AND t.household_id = @household_id
	`, s.table(transactionsTable))

	q := s.client.Query(query)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "ids", Value: ids},
		{Name: "amounts", Value: values},
		{Name: "household_id", Value: householdID},
	}

	if err := s.run(ctx, q); err != nil {
		return fmt.Errorf("UpdateBaseAmounts: %w", err)
	}
	return nil
}
