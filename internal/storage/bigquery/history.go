package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"

	"github.com/MihajloDimeski/BudgetingApp/internal/domain"
)

// ListHistory retrieves a household's balance history across all of its
// accounts, ascending by snapshot time.
func (s *Store) ListHistory(ctx context.Context, householdID string) ([]*domain.BalanceHistory, error) {
	query := fmt.Sprintf(`
		SELECT
			h.history_id,
			h.account_id,
			h.balance,
			h.invested_amount,
			h.snapshot_ts
		FROM %s h
		JOIN %s a ON a.account_id = h.account_id
		WHERE a.household_id = @household_id
		ORDER BY h.snapshot_ts
	`, s.table(historyTable), s.table(accountsTable))

	q := s.client.Query(query)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "household_id", Value: householdID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListHistory: reading query: %w", err)
	}

	var history []*domain.BalanceHistory
	for {
		var row HistoryRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListHistory: iterating: %w", err)
		}
		history = append(history, row.toDomain())
	}

	return history, nil
}

// CommitSync lands one integration's sync writes as a single multi-statement
// transaction: upsert the account, append the history snapshot, stamp the
// integration's last_synced. Either all three statements commit or none do.
func (s *Store) CommitSync(ctx context.Context, account *domain.Account, snapshot *domain.BalanceHistory, integrationID string, syncedAt time.Time) error {
	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	if snapshot.ID == "" {
		snapshot.ID = uuid.NewString()
	}
	snapshot.AccountID = account.ID

	query := fmt.Sprintf(`
		BEGIN TRANSACTION;

		MERGE %s t
		USING (SELECT @account_id AS account_id) s
		ON t.account_id = s.account_id
		WHEN MATCHED THEN
			UPDATE SET
				balance = @balance,
				invested_amount = @invested_amount,
				currency = @currency
		WHEN NOT MATCHED THEN
			INSERT (account_id, household_id, account_name, account_type, balance, invested_amount, currency)
			VALUES (@account_id, @household_id, @account_name, @account_type, @balance, @invested_amount, @currency);

		INSERT INTO %s (history_id, account_id, balance, invested_amount, snapshot_ts)
		VALUES (@history_id, @account_id, @snapshot_balance, @snapshot_invested, @snapshot_ts);

		UPDATE %s
		SET last_synced = @synced_at
		WHERE integration_id = @integration_id;

		COMMIT TRANSACTION;
	`, s.table(accountsTable), s.table(historyTable), s.table(integrationsTable))

	q := s.client.Query(query)
	q.Parameters = append(accountParameters(account),
		bigquery.QueryParameter{Name: "history_id", Value: snapshot.ID},
		bigquery.QueryParameter{Name: "snapshot_balance", Value: snapshot.Balance},
		bigquery.QueryParameter{Name: "snapshot_invested", Value: snapshot.InvestedAmount},
		bigquery.QueryParameter{Name: "snapshot_ts", Value: snapshot.Date},
		bigquery.QueryParameter{Name: "integration_id", Value: integrationID},
		bigquery.QueryParameter{Name: "synced_at", Value: syncedAt},
	)

	if err := s.run(ctx, q); err != nil {
		return fmt.Errorf("CommitSync: %w", err)
	}
	return nil
}
