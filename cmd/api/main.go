package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/MihajloDimeski/BudgetingApp/internal/api/handlers"
	"github.com/MihajloDimeski/BudgetingApp/internal/api/middleware"
	"github.com/MihajloDimeski/BudgetingApp/internal/config"
	"github.com/MihajloDimeski/BudgetingApp/internal/currency"
	"github.com/MihajloDimeski/BudgetingApp/internal/export"
	"github.com/MihajloDimeski/BudgetingApp/internal/history"
	"github.com/MihajloDimeski/BudgetingApp/internal/jobs"
	"github.com/MihajloDimeski/BudgetingApp/internal/jobs/inmemory"
	"github.com/MihajloDimeski/BudgetingApp/internal/ledger"
	"github.com/MihajloDimeski/BudgetingApp/internal/logger"
	"github.com/MihajloDimeski/BudgetingApp/internal/storage"
	bqstore "github.com/MihajloDimeski/BudgetingApp/internal/storage/bigquery"
	"github.com/MihajloDimeski/BudgetingApp/internal/storage/memory"
	"github.com/MihajloDimeski/BudgetingApp/internal/syncer"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewWithLevel(cfg.LogLevel)

	ctx := context.Background()

	// Pick the storage backend. DevMode runs entirely in memory.
	var store storage.Store
	if cfg.DevMode {
		log.Warn().Msg("DEV_MODE enabled - using in-memory storage")
		store = memory.NewStore()
	} else {
		bq, err := bqstore.NewStore(ctx, cfg.BigQueryProject, cfg.BigQueryDataset)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create BigQuery store")
		}
		defer bq.Close()
		store = bq
	}

	converter := currency.NewConverter(currency.DefaultConfig())
	aggregator := ledger.New(store, converter, log)
	historyService := history.NewService(store)
	syncEngine := syncer.New(store, log)
	syncEngine.SetStalenessWindow(cfg.SyncStaleness)

	var exporter *export.Exporter
	if cfg.GCSBucket != "" {
		exporter = export.NewExporter(store, cfg.GCSBucket, log)
	} else {
		log.Warn().Msg("No GCS bucket configured - exports will be disabled")
	}

	// Initialize job infrastructure
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(100, jobStore)

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	// Job handler: one job is one full sync pass over a household.
	jobHandler := func(ctx context.Context, job jobs.Job) error {
		syncJob, ok := job.(*jobs.SyncHouseholdJob)
		if !ok {
			return fmt.Errorf("unexpected job type: %T", job)
		}

		log.Info().
			Str("job_id", syncJob.JobID).
			Str("household_id", syncJob.HouseholdID).
			Str("trigger", syncJob.Trigger).
			Msg("Processing sync job")

		if err := syncEngine.Sync(ctx, syncJob.HouseholdID); err != nil {
			log.Error().
				Err(err).
				Str("job_id", syncJob.JobID).
				Str("household_id", syncJob.HouseholdID).
				Msg("Sync pass failed")
			return err
		}

		return nil
	}

	go func() {
		log.Info().Msg("Starting job worker")
		if err := jobQueue.Start(workerCtx, jobHandler); err != nil {
			log.Error().Err(err).Msg("Job worker stopped with error")
		}
	}()

	// Scheduled staleness sweep: enqueue a sync job for every household
	// whose integrations have gone stale.
	scheduler := cron.New()
	_, err = scheduler.AddFunc(cfg.SyncCron, func() {
		sweepCtx, cancel := context.WithTimeout(workerCtx, 5*time.Minute)
		defer cancel()

		households, err := store.ListHouseholds(sweepCtx)
		if err != nil {
			log.Error().Err(err).Msg("Staleness sweep failed to list households")
			return
		}

		for _, household := range households {
			stale, err := syncEngine.ShouldSync(sweepCtx, household.ID)
			if err != nil {
				log.Error().Err(err).Str("household_id", household.ID).Msg("Staleness check failed")
				continue
			}
			if !stale {
				continue
			}

			job := &jobs.SyncHouseholdJob{
				HouseholdID: household.ID,
				Trigger:     "scheduled",
			}
			if err := jobQueue.PublishSyncHousehold(sweepCtx, job); err != nil {
				log.Error().Err(err).Str("household_id", household.ID).Msg("Failed to enqueue scheduled sync")
			}
		}
	})
	if err != nil {
		log.Fatal().Err(err).Str("cron", cfg.SyncCron).Msg("Invalid sync schedule")
	}
	scheduler.Start()

	// Initialize handlers
	accountsHandler := handlers.NewAccountsHandler(store, aggregator, log)
	integrationsHandler := handlers.NewIntegrationsHandler(store, log)
	transactionsHandler := handlers.NewTransactionsHandler(store, aggregator, log)
	budgetsHandler := handlers.NewBudgetsHandler(aggregator, log)
	historyHandler := handlers.NewHistoryHandler(historyService, log)
	syncHandler := handlers.NewSyncHandler(jobQueue, log)
	settingsHandler := handlers.NewSettingsHandler(aggregator, log)
	exportHandler := handlers.NewExportHandler(exporter, log)
	jobsHandler := handlers.NewJobsHandler(jobStore, log)

	// Create router
	mux := http.NewServeMux()

	mux.HandleFunc("/api/accounts", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			accountsHandler.ListAccounts(w, r)
		case http.MethodPost:
			accountsHandler.CreateAccount(w, r)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/accounts/invested", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut {
			accountsHandler.UpdateInvested(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/integrations", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			integrationsHandler.ListIntegrations(w, r)
		case http.MethodPost:
			integrationsHandler.CreateIntegration(w, r)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/integrations/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			id := strings.TrimPrefix(r.URL.Path, "/api/integrations/")
			if id == "" {
				middleware.WriteError(w, http.StatusBadRequest, "Integration ID is required")
				return
			}
			integrationsHandler.DeleteIntegration(w, r, id)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/transactions", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			transactionsHandler.ListTransactions(w, r)
		case http.MethodPost:
			transactionsHandler.CreateTransaction(w, r)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/transactions/process-recurring", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			transactionsHandler.ProcessRecurring(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/budgets", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			budgetsHandler.ListBudgets(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/history", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			historyHandler.GetHistory(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/sync", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			syncHandler.EnqueueSync(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/settings/currency", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut {
			settingsHandler.UpdateCurrency(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/export", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			exportHandler.CreateExport(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/jobs", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			jobsHandler.ListJobs(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/jobs/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			jobID := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
			if jobID == "" {
				middleware.WriteError(w, http.StatusBadRequest, "Job ID is required")
				return
			}
			jobsHandler.GetJob(w, r, jobID)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// Apply middleware
	handler := middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(
				middleware.CORS(
					middleware.Auth(mux),
				),
			),
		),
	)

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Int("port", cfg.Port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Stop the scheduler and wait for a running sweep to finish
	cronCtx := scheduler.Stop()
	<-cronCtx.Done()

	// Cancel worker context
	cancelWorker()

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	// Stop job queue and wait for in-flight jobs
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}

	if err := jobQueue.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close job queue")
	}

	log.Info().Msg("Server exited")
}
