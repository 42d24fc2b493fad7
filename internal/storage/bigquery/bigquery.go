// Package bigquery implements the storage contracts on BigQuery. One Store
// shares a single client across repositories; per-integration sync writes
// commit through a multi-statement transaction so they land as a unit.
package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
)

const (
	householdsTable   = "households"
	accountsTable     = "accounts"
	integrationsTable = "integrations"
	historyTable      = "balance_history"
	transactionsTable = "transactions"
	categoriesTable   = "categories"
	budgetsTable      = "budgets"
	recurringTable    = "recurring_transactions"
)

// Store is the BigQuery-backed implementation of storage.Store.
type Store struct {
	client  *bigquery.Client
	project string
	dataset string
}

// NewStore creates a Store with a shared BigQuery client.
func NewStore(ctx context.Context, project, dataset string) (*Store, error) {
	client, err := bigquery.NewClient(ctx, project)
	if err != nil {
		return nil, fmt.Errorf("NewStore: creating client: %w", err)
	}
	return &Store{client: client, project: project, dataset: dataset}, nil
}

// Close closes the shared BigQuery client.
func (s *Store) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// table returns the fully qualified, backticked table name.
func (s *Store) table(name string) string {
	return "`" + s.project + "." + s.dataset + "." + name + "`"
}

// run executes a DML query and waits for the job to finish.
func (s *Store) run(ctx context.Context, q *bigquery.Query) error {
	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("running query: %w", err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("waiting for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("job error: %w", err)
	}
	return nil
}
