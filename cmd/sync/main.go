package main

import (
	"context"
	"flag"
	"time"

	"github.com/MihajloDimeski/BudgetingApp/internal/config"
	"github.com/MihajloDimeski/BudgetingApp/internal/logger"
	bqstore "github.com/MihajloDimeski/BudgetingApp/internal/storage/bigquery"
	"github.com/MihajloDimeski/BudgetingApp/internal/syncer"
)

func main() {
	log := logger.New()

	// Parse CLI flags
	householdID := flag.String("household-id", "", "Household ID to sync (required)")
	all := flag.Bool("all", false, "Sync every household with stale integrations")
	force := flag.Bool("force", false, "Sync even when integrations are fresh")
	flag.Parse()

	if *householdID == "" && !*all {
		log.Fatal().Msg("Error: --household-id or --all is required")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading configuration")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	store, err := bqstore.NewStore(ctx, cfg.BigQueryProject, cfg.BigQueryDataset)
	if err != nil {
		log.Fatal().Err(err).Msg("Error creating BigQuery store")
	}
	defer store.Close()

	engine := syncer.New(store, log)

	sync := func(id string) {
		var err error
		if *force {
			err = engine.Sync(ctx, id)
		} else {
			err = engine.SyncIfStale(ctx, id)
		}
		if err != nil {
			log.Error().Err(err).Str("household_id", id).Msg("Sync failed")
			return
		}
		log.Info().Str("household_id", id).Msg("Sync completed")
	}

	if *all {
		households, err := store.ListHouseholds(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("Error listing households")
		}
		for _, h := range households {
			sync(h.ID)
		}
		return
	}

	sync(*householdID)
}
