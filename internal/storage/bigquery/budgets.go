package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/MihajloDimeski/BudgetingApp/internal/domain"
)

// ListCategories retrieves a household's categories.
func (s *Store) ListCategories(ctx context.Context, householdID string) ([]*domain.Category, error) {
	query := fmt.Sprintf(`
		SELECT
			category_id,
			household_id,
			name,
			category_type
		FROM %s
		WHERE household_id = @household_id
		ORDER BY name
	`, s.table(categoriesTable))

	q := s.client.Query(query)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "household_id", Value: householdID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListCategories: reading query: %w", err)
	}

	var categories []*domain.Category
	for {
		var row CategoryRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListCategories: iterating: %w", err)
		}
		categories = append(categories, row.toDomain())
	}

	return categories, nil
}

// ListBudgets retrieves a household's budgets.
func (s *Store) ListBudgets(ctx context.Context, householdID string) ([]*domain.Budget, error) {
	query := fmt.Sprintf(`
		SELECT
			budget_id,
			household_id,
			category_id,
			amount_limit,
			currency,
			period
		FROM %s
		WHERE household_id = @household_id
	`, s.table(budgetsTable))

	q := s.client.Query(query)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "household_id", Value: householdID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListBudgets: reading query: %w", err)
	}

	var budgets []*domain.Budget
	for {
		var row BudgetRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListBudgets: iterating: %w", err)
		}
		budgets = append(budgets, row.toDomain())
	}

	return budgets, nil
}
