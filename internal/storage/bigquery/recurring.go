package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/MihajloDimeski/BudgetingApp/internal/domain"
	"github.com/MihajloDimeski/BudgetingApp/internal/storage"
)

var _ storage.Store = (*Store)(nil)

// ListRecurring retrieves a household's recurring transaction templates.
func (s *Store) ListRecurring(ctx context.Context, householdID string) ([]*domain.RecurringTransaction, error) {
	query := fmt.Sprintf(`
		SELECT
			recurring_id,
			household_id,
			amount,
			currency,
			description,
			frequency,
			next_due_ts,
			transaction_type,
			category_id
		FROM %s
		WHERE household_id = @household_id
		ORDER BY next_due_ts
	`, s.table(recurringTable))

	q := s.client.Query(query)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "household_id", Value: householdID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListRecurring: reading query: %w", err)
	}

	var recurring []*domain.RecurringTransaction
	for {
		var row RecurringRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListRecurring: iterating: %w", err)
		}
		recurring = append(recurring, row.toDomain())
	}

	return recurring, nil
}

// UpdateRecurring advances a template's next due date after materialization.
func (s *Store) UpdateRecurring(ctx context.Context, rec *domain.RecurringTransaction) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET next_due_ts = @next_due_ts
		WHERE recurring_id = @recurring_id
		  AND household_id = @household_id
	`, s.table(recurringTable))

	q := s.client.Query(query)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "next_due_ts", Value: rec.NextDueDate},
		{Name: "recurring_id", Value: rec.ID},
		{Name: "household_id", Value: rec.HouseholdID},
	}

	if err := s.run(ctx, q); err != nil {
		return fmt.Errorf("UpdateRecurring: %w", err)
	}
	return nil
}
