// Package export archives a household's balance history to Google Cloud
// Storage as a JSON snapshot for offline analysis and backup.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/storage"
	"github.com/rs/zerolog"

	"github.com/MihajloDimeski/BudgetingApp/internal/domain"
	storagerepo "github.com/MihajloDimeski/BudgetingApp/internal/storage"
)

// Repository is the storage surface the exporter reads from.
type Repository interface {
	storagerepo.HouseholdRepository
	storagerepo.AccountRepository
	storagerepo.HistoryRepository
}

// Archive is the JSON document written to the bucket.
type Archive struct {
	HouseholdID  string                   `json:"household_id"`
	BaseCurrency string                   `json:"base_currency"`
	ExportedAt   time.Time                `json:"exported_at"`
	Accounts     []*domain.Account        `json:"accounts"`
	History      []*domain.BalanceHistory `json:"history"`
}

// Exporter writes household archives to a GCS bucket.
type Exporter struct {
	repo   Repository
	bucket string
	now    func() time.Time
	log    zerolog.Logger
}

// NewExporter creates an Exporter targeting the given bucket.
func NewExporter(repo Repository, bucket string, log zerolog.Logger) *Exporter {
	return &Exporter{
		repo:   repo,
		bucket: bucket,
		now:    time.Now,
		log:    log.With().Str("component", "export").Logger(),
	}
}

// Export builds the archive for one household and uploads it. Returns the
// object name the archive was written to.
func (e *Exporter) Export(ctx context.Context, householdID string) (string, error) {
	household, err := e.repo.GetHousehold(ctx, householdID)
	if err != nil {
		return "", fmt.Errorf("export: loading household: %w", err)
	}

	accounts, err := e.repo.ListAccounts(ctx, householdID)
	if err != nil {
		return "", fmt.Errorf("export: loading accounts: %w", err)
	}

	history, err := e.repo.ListHistory(ctx, householdID)
	if err != nil {
		return "", fmt.Errorf("export: loading history: %w", err)
	}

	now := e.now()
	archive := Archive{
		HouseholdID:  household.ID,
		BaseCurrency: household.BaseCurrency,
		ExportedAt:   now,
		Accounts:     accounts,
		History:      history,
	}

	data, err := json.MarshalIndent(archive, "", "  ")
	if err != nil {
		return "", fmt.Errorf("export: marshaling archive: %w", err)
	}

	objectName := fmt.Sprintf("exports/%s/%s.json", household.ID, now.UTC().Format("2006-01-02T15-04-05Z"))

	if err := e.upload(ctx, objectName, data); err != nil {
		return "", err
	}

	e.log.Info().
		Str("household_id", household.ID).
		Str("object", objectName).
		Int("accounts", len(accounts)).
		Int("history_rows", len(history)).
		Msg("archive uploaded")

	return objectName, nil
}

// upload writes one object to the bucket. Assumes Application Default
// Credentials are configured.
func (e *Exporter) upload(ctx context.Context, objectName string, data []byte) error {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("export: create storage client: %w", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := client.Bucket(e.bucket).Object(objectName).NewWriter(ctx)
	w.ContentType = "application/json"

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("export: writing to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("export: closing GCS writer: %w", err)
	}
	return nil
}
