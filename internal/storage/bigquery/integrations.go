package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"

	"github.com/MihajloDimeski/BudgetingApp/internal/domain"
)

// ListIntegrations retrieves a household's platform integrations.
func (s *Store) ListIntegrations(ctx context.Context, householdID string) ([]*domain.Integration, error) {
	query := fmt.Sprintf(`
		SELECT
			integration_id,
			household_id,
			platform,
			api_key,
			api_secret,
			last_synced
		FROM %s
		WHERE household_id = @household_id
		ORDER BY platform
	`, s.table(integrationsTable))

	q := s.client.Query(query)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "household_id", Value: householdID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListIntegrations: reading query: %w", err)
	}

	var integrations []*domain.Integration
	for {
		var row IntegrationRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListIntegrations: iterating: %w", err)
		}
		integrations = append(integrations, row.toDomain())
	}

	return integrations, nil
}

// CreateIntegration inserts an integration, generating an ID when absent.
// last_synced starts null; the first sync pass stamps it.
func (s *Store) CreateIntegration(ctx context.Context, integration *domain.Integration) error {
	if integration.ID == "" {
		integration.ID = uuid.NewString()
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (
			integration_id, household_id, platform, api_key, api_secret, last_synced
		)
		VALUES (
			@integration_id, @household_id, @platform, @api_key, @api_secret, NULL
		)
	`, s.table(integrationsTable))

	q := s.client.Query(query)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "integration_id", Value: integration.ID},
		{Name: "household_id", Value: integration.HouseholdID},
		{Name: "platform", Value: integration.Platform},
		{Name: "api_key", Value: integration.APIKey},
		{Name: "api_secret", Value: integration.APISecret},
	}

	if err := s.run(ctx, q); err != nil {
		return fmt.Errorf("CreateIntegration: %w", err)
	}
	return nil
}

// DeleteIntegration removes a household's integration. The paired account
// and its history rows are untouched.
func (s *Store) DeleteIntegration(ctx context.Context, householdID, id string) error {
	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE integration_id = @integration_id
		  AND household_id = @household_id
	`, s.table(integrationsTable))

	q := s.client.Query(query)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "integration_id", Value: id},
		{Name: "household_id", Value: householdID},
	}

	if err := s.run(ctx, q); err != nil {
		return fmt.Errorf("DeleteIntegration: %w", err)
	}
	return nil
}
