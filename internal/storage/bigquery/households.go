package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/MihajloDimeski/BudgetingApp/internal/domain"
	"github.com/MihajloDimeski/BudgetingApp/internal/storage"
)

// GetHousehold retrieves one household by ID.
func (s *Store) GetHousehold(ctx context.Context, id string) (*domain.Household, error) {
	query := fmt.Sprintf(`
		SELECT
			household_id,
			name,
			join_code,
			base_currency,
			created_ts
		FROM %s
		WHERE household_id = @household_id
		LIMIT 1
	`, s.table(householdsTable))

	q := s.client.Query(query)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "household_id", Value: id},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("GetHousehold: reading query: %w", err)
	}

	var row HouseholdRow
	err = it.Next(&row)
	if err == iterator.Done {
		return nil, fmt.Errorf("GetHousehold: household %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("GetHousehold: iterating: %w", err)
	}

	return row.toDomain(), nil
}

// ListHouseholds retrieves every household. Used by the scheduled staleness
// sweep.
func (s *Store) ListHouseholds(ctx context.Context) ([]*domain.Household, error) {
	query := fmt.Sprintf(`
		SELECT
			household_id,
			name,
			join_code,
			base_currency,
			created_ts
		FROM %s
		ORDER BY created_ts
	`, s.table(householdsTable))

	it, err := s.client.Query(query).Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListHouseholds: reading query: %w", err)
	}

	var households []*domain.Household
	for {
		var row HouseholdRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListHouseholds: iterating: %w", err)
		}
		households = append(households, row.toDomain())
	}

	return households, nil
}

// UpdateBaseCurrency sets a household's reporting currency.
func (s *Store) UpdateBaseCurrency(ctx context.Context, householdID, currency string) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET base_currency = @base_currency
		WHERE household_id = @household_id
	`, s.table(householdsTable))

	q := s.client.Query(query)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "base_currency", Value: currency},
		{Name: "household_id", Value: householdID},
	}

	if err := s.run(ctx, q); err != nil {
		return fmt.Errorf("UpdateBaseCurrency: %w", err)
	}
	return nil
}
