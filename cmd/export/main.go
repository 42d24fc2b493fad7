package main

import (
	"context"
	"flag"
	"time"

	"github.com/MihajloDimeski/BudgetingApp/internal/config"
	"github.com/MihajloDimeski/BudgetingApp/internal/export"
	"github.com/MihajloDimeski/BudgetingApp/internal/logger"
	bqstore "github.com/MihajloDimeski/BudgetingApp/internal/storage/bigquery"
)

func main() {
	log := logger.New()

	// Parse CLI flags
	householdID := flag.String("household-id", "", "Household ID to export (required)")
	bucket := flag.String("bucket", "", "GCS bucket (defaults to GCS_BUCKET env)")
	flag.Parse()

	if *householdID == "" {
		log.Fatal().Msg("Error: --household-id is required")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading configuration")
	}

	if *bucket == "" {
		*bucket = cfg.GCSBucket
	}
	if *bucket == "" {
		log.Fatal().Msg("Error: --bucket or GCS_BUCKET is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	store, err := bqstore.NewStore(ctx, cfg.BigQueryProject, cfg.BigQueryDataset)
	if err != nil {
		log.Fatal().Err(err).Msg("Error creating BigQuery store")
	}
	defer store.Close()

	exporter := export.NewExporter(store, *bucket, log)

	object, err := exporter.Export(ctx, *householdID)
	if err != nil {
		log.Fatal().Err(err).Str("household_id", *householdID).Msg("Export failed")
	}

	log.Info().
		Str("household_id", *householdID).
		Str("bucket", *bucket).
		Str("object", object).
		Msg("Export completed")
}
