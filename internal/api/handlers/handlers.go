// Package handlers implements the HTTP endpoints. Every handler is
// household-scoped: reads take household_id as a query parameter, writes
// carry it in the request body.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/MihajloDimeski/BudgetingApp/internal/api/middleware"
	"github.com/MihajloDimeski/BudgetingApp/internal/domain"
	"github.com/MihajloDimeski/BudgetingApp/internal/export"
	"github.com/MihajloDimeski/BudgetingApp/internal/history"
	"github.com/MihajloDimeski/BudgetingApp/internal/jobs"
	"github.com/MihajloDimeski/BudgetingApp/internal/ledger"
	"github.com/MihajloDimeski/BudgetingApp/internal/storage"
)

// AccountsHandler handles account-related endpoints.
type AccountsHandler struct {
	repo   storage.AccountRepository
	ledger *ledger.Aggregator
	log    zerolog.Logger
}

// NewAccountsHandler creates a new accounts handler.
func NewAccountsHandler(repo storage.AccountRepository, agg *ledger.Aggregator, log zerolog.Logger) *AccountsHandler {
	return &AccountsHandler{
		repo:   repo,
		ledger: agg,
		log:    log,
	}
}

// ListAccounts handles GET /api/accounts
func (h *AccountsHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	householdID := r.URL.Query().Get("household_id")
	if householdID == "" {
		middleware.WriteError(w, http.StatusBadRequest, "household_id is required")
		return
	}

	accounts, err := h.repo.ListAccounts(ctx, householdID)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list accounts")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list accounts")
		return
	}

	netWorth, err := h.ledger.NetWorth(ctx, householdID)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to compute net worth")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to compute net worth")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"accounts":  accounts,
		"count":     len(accounts),
		"net_worth": netWorth,
	})
}

// CreateAccount handles POST /api/accounts
func (h *AccountsHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req struct {
		HouseholdID    string  `json:"household_id"`
		Name           string  `json:"name"`
		Type           string  `json:"type"`
		Balance        float64 `json:"balance"`
		InvestedAmount float64 `json:"invested_amount"`
		Currency       string  `json:"currency"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.HouseholdID == "" || req.Name == "" {
		middleware.WriteError(w, http.StatusBadRequest, "household_id and name are required")
		return
	}

	account := &domain.Account{
		Name:           req.Name,
		Type:           domain.AccountType(req.Type),
		Balance:        req.Balance,
		InvestedAmount: req.InvestedAmount,
		Currency:       req.Currency,
		HouseholdID:    req.HouseholdID,
	}

	if err := h.ledger.CreateAccount(r.Context(), account); err != nil {
		h.log.Error().Err(err).Msg("Failed to create account")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to create account")
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, account)
}

// UpdateInvested handles PUT /api/accounts/invested
func (h *AccountsHandler) UpdateInvested(w http.ResponseWriter, r *http.Request) {
	var req struct {
		HouseholdID    string  `json:"household_id"`
		AccountID      string  `json:"account_id"`
		InvestedAmount float64 `json:"invested_amount"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.HouseholdID == "" || req.AccountID == "" {
		middleware.WriteError(w, http.StatusBadRequest, "household_id and account_id are required")
		return
	}

	if err := h.ledger.UpdateInvestedAmount(r.Context(), req.HouseholdID, req.AccountID, req.InvestedAmount); err != nil {
		h.log.Error().Err(err).Msg("Failed to update invested amount")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to update invested amount")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// TransactionsHandler handles transaction-related endpoints.
type TransactionsHandler struct {
	repo   storage.TransactionRepository
	ledger *ledger.Aggregator
	log    zerolog.Logger
}

// NewTransactionsHandler creates a new transactions handler.
func NewTransactionsHandler(repo storage.TransactionRepository, agg *ledger.Aggregator, log zerolog.Logger) *TransactionsHandler {
	return &TransactionsHandler{
		repo:   repo,
		ledger: agg,
		log:    log,
	}
}

// ListTransactions handles GET /api/transactions
func (h *TransactionsHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	householdID := r.URL.Query().Get("household_id")
	if householdID == "" {
		middleware.WriteError(w, http.StatusBadRequest, "household_id is required")
		return
	}

	transactions, err := h.repo.ListTransactions(ctx, householdID)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list transactions")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list transactions")
		return
	}

	income, expenses, err := h.ledger.Totals(ctx, householdID)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to compute totals")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to compute totals")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"transactions":   transactions,
		"count":          len(transactions),
		"total_income":   income,
		"total_expenses": expenses,
	})
}

// CreateTransaction handles POST /api/transactions
func (h *TransactionsHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req struct {
		HouseholdID string  `json:"household_id"`
		UserID      string  `json:"user_id"`
		Amount      float64 `json:"amount"`
		Currency    string  `json:"currency"`
		Description string  `json:"description"`
		Type        string  `json:"type"`
		CategoryID  string  `json:"category_id"`
		Date        string  `json:"date"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.HouseholdID == "" {
		middleware.WriteError(w, http.StatusBadRequest, "household_id is required")
		return
	}
	if req.Amount == 0 {
		middleware.WriteError(w, http.StatusBadRequest, "amount is required")
		return
	}

	tx := &domain.Transaction{
		Amount:      req.Amount,
		Currency:    req.Currency,
		Description: req.Description,
		Type:        domain.TransactionType(req.Type),
		CategoryID:  req.CategoryID,
		UserID:      req.UserID,
		HouseholdID: req.HouseholdID,
	}

	if req.Date != "" {
		date, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		tx.Date = date
	}

	if err := h.ledger.AddTransaction(r.Context(), tx); err != nil {
		h.log.Error().Err(err).Msg("Failed to create transaction")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to create transaction")
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, tx)
}

// ProcessRecurring handles POST /api/transactions/process-recurring
func (h *TransactionsHandler) ProcessRecurring(w http.ResponseWriter, r *http.Request) {
	var req struct {
		HouseholdID string `json:"household_id"`
		UserID      string `json:"user_id"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.HouseholdID == "" {
		middleware.WriteError(w, http.StatusBadRequest, "household_id is required")
		return
	}

	created, err := h.ledger.ProcessRecurring(r.Context(), req.HouseholdID, req.UserID)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to process recurring transactions")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to process recurring transactions")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]int{"created": created})
}

// BudgetsHandler handles budget-related endpoints.
type BudgetsHandler struct {
	ledger *ledger.Aggregator
	log    zerolog.Logger
}

// NewBudgetsHandler creates a new budgets handler.
func NewBudgetsHandler(agg *ledger.Aggregator, log zerolog.Logger) *BudgetsHandler {
	return &BudgetsHandler{ledger: agg, log: log}
}

// ListBudgets handles GET /api/budgets
func (h *BudgetsHandler) ListBudgets(w http.ResponseWriter, r *http.Request) {
	householdID := r.URL.Query().Get("household_id")
	if householdID == "" {
		middleware.WriteError(w, http.StatusBadRequest, "household_id is required")
		return
	}

	budgets, err := h.ledger.BudgetSummary(r.Context(), householdID)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to build budget summary")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to build budget summary")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"budgets": budgets,
		"count":   len(budgets),
	})
}

// IntegrationsHandler manages platform connections.
type IntegrationsHandler struct {
	repo storage.IntegrationRepository
	log  zerolog.Logger
}

// NewIntegrationsHandler creates a new integrations handler.
func NewIntegrationsHandler(repo storage.IntegrationRepository, log zerolog.Logger) *IntegrationsHandler {
	return &IntegrationsHandler{repo: repo, log: log}
}

// ListIntegrations handles GET /api/integrations
func (h *IntegrationsHandler) ListIntegrations(w http.ResponseWriter, r *http.Request) {
	householdID := r.URL.Query().Get("household_id")
	if householdID == "" {
		middleware.WriteError(w, http.StatusBadRequest, "household_id is required")
		return
	}

	integrations, err := h.repo.ListIntegrations(r.Context(), householdID)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list integrations")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list integrations")
		return
	}

	// Credentials never leave the server.
	type item struct {
		ID         string     `json:"id"`
		Platform   string     `json:"platform"`
		LastSynced *time.Time `json:"last_synced"`
	}
	list := make([]item, len(integrations))
	for i, integration := range integrations {
		list[i] = item{ID: integration.ID, Platform: integration.Platform, LastSynced: integration.LastSynced}
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"integrations": list,
		"count":        len(list),
	})
}

// CreateIntegration handles POST /api/integrations
func (h *IntegrationsHandler) CreateIntegration(w http.ResponseWriter, r *http.Request) {
	var req struct {
		HouseholdID string `json:"household_id"`
		Platform    string `json:"platform"`
		APIKey      string `json:"api_key"`
		APISecret   string `json:"api_secret"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.HouseholdID == "" || req.Platform == "" || req.APIKey == "" {
		middleware.WriteError(w, http.StatusBadRequest, "household_id, platform and api_key are required")
		return
	}

	integration := &domain.Integration{
		Platform:    req.Platform,
		APIKey:      req.APIKey,
		APISecret:   req.APISecret,
		HouseholdID: req.HouseholdID,
	}

	if err := h.repo.CreateIntegration(r.Context(), integration); err != nil {
		h.log.Error().Err(err).Msg("Failed to create integration")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to create integration")
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, map[string]string{
		"id":       integration.ID,
		"platform": integration.Platform,
	})
}

// DeleteIntegration handles DELETE /api/integrations/:id. Accounts and
// history created by past syncs stay untouched.
func (h *IntegrationsHandler) DeleteIntegration(w http.ResponseWriter, r *http.Request, id string) {
	householdID := r.URL.Query().Get("household_id")
	if householdID == "" {
		middleware.WriteError(w, http.StatusBadRequest, "household_id is required")
		return
	}

	if err := h.repo.DeleteIntegration(r.Context(), householdID, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			middleware.WriteError(w, http.StatusNotFound, "Integration not found")
			return
		}
		h.log.Error().Err(err).Msg("Failed to delete integration")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to delete integration")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// HistoryHandler handles balance history chart queries.
type HistoryHandler struct {
	service *history.Service
	log     zerolog.Logger
}

// NewHistoryHandler creates a new history handler.
func NewHistoryHandler(service *history.Service, log zerolog.Logger) *HistoryHandler {
	return &HistoryHandler{service: service, log: log}
}

// GetHistory handles GET /api/history
func (h *HistoryHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	householdID := r.URL.Query().Get("household_id")
	if householdID == "" {
		middleware.WriteError(w, http.StatusBadRequest, "household_id is required")
		return
	}

	rng, err := history.ParseRange(r.URL.Query().Get("range"))
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := history.ParseResolution(r.URL.Query().Get("resolution"))
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.service.GetHistory(r.Context(), householdID, rng, res)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load history")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to load history")
		return
	}

	labels := make([]string, len(result.Labels))
	for i, t := range result.Labels {
		labels[i] = t.Format("2006-01-02")
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"labels": labels,
		"series": result.Series,
	})
}

// SyncHandler enqueues household sync jobs.
type SyncHandler struct {
	publisher jobs.Publisher
	log       zerolog.Logger
}

// NewSyncHandler creates a new sync handler.
func NewSyncHandler(publisher jobs.Publisher, log zerolog.Logger) *SyncHandler {
	return &SyncHandler{publisher: publisher, log: log}
}

// EnqueueSync handles POST /api/sync
func (h *SyncHandler) EnqueueSync(w http.ResponseWriter, r *http.Request) {
	var req struct {
		HouseholdID string `json:"household_id"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.HouseholdID == "" {
		middleware.WriteError(w, http.StatusBadRequest, "household_id is required")
		return
	}

	job := &jobs.SyncHouseholdJob{
		HouseholdID: req.HouseholdID,
		Trigger:     "manual",
	}

	if err := h.publisher.PublishSyncHousehold(r.Context(), job); err != nil {
		h.log.Error().Err(err).Msg("Failed to enqueue sync job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue sync job")
		return
	}

	h.log.Info().
		Str("job_id", job.JobID).
		Str("household_id", req.HouseholdID).
		Msg("Sync job enqueued")

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id": job.JobID,
		"status": string(job.Status),
	})
}

// SettingsHandler handles household settings.
type SettingsHandler struct {
	ledger *ledger.Aggregator
	log    zerolog.Logger
}

// NewSettingsHandler creates a new settings handler.
func NewSettingsHandler(agg *ledger.Aggregator, log zerolog.Logger) *SettingsHandler {
	return &SettingsHandler{ledger: agg, log: log}
}

// UpdateCurrency handles PUT /api/settings/currency
func (h *SettingsHandler) UpdateCurrency(w http.ResponseWriter, r *http.Request) {
	var req struct {
		HouseholdID string `json:"household_id"`
		Currency    string `json:"currency"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.HouseholdID == "" || req.Currency == "" {
		middleware.WriteError(w, http.StatusBadRequest, "household_id and currency are required")
		return
	}

	if err := h.ledger.SetBaseCurrency(r.Context(), req.HouseholdID, req.Currency); err != nil {
		h.log.Error().Err(err).Msg("Failed to update base currency")
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"base_currency": req.Currency,
		"status":        "updated",
	})
}

// ExportHandler archives household history to GCS.
type ExportHandler struct {
	exporter *export.Exporter
	log      zerolog.Logger
}

// NewExportHandler creates a new export handler.
func NewExportHandler(exporter *export.Exporter, log zerolog.Logger) *ExportHandler {
	return &ExportHandler{exporter: exporter, log: log}
}

// CreateExport handles POST /api/export
func (h *ExportHandler) CreateExport(w http.ResponseWriter, r *http.Request) {
	if h.exporter == nil {
		middleware.WriteError(w, http.StatusServiceUnavailable, "Exports are not configured")
		return
	}

	var req struct {
		HouseholdID string `json:"household_id"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.HouseholdID == "" {
		middleware.WriteError(w, http.StatusBadRequest, "household_id is required")
		return
	}

	object, err := h.exporter.Export(r.Context(), req.HouseholdID)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to export household history")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to export household history")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"object": object,
		"status": "exported",
	})
}

// JobsHandler handles job status endpoints.
type JobsHandler struct {
	store jobs.JobStore
	log   zerolog.Logger
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(store jobs.JobStore, log zerolog.Logger) *JobsHandler {
	return &JobsHandler{store: store, log: log}
}

// ListJobs handles GET /api/jobs
func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	filter := jobs.JobFilter{
		HouseholdID: r.URL.Query().Get("household_id"),
		Status:      jobs.JobStatus(r.URL.Query().Get("status")),
		Limit:       50,
	}

	list, err := h.store.ListJobs(r.Context(), filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list jobs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  list,
		"count": len(list),
	})
}

// GetJob handles GET /api/jobs/:jobId
func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request, jobID string) {
	job, err := h.store.GetJob(r.Context(), jobID)
	if err != nil {
		middleware.WriteError(w, http.StatusNotFound, "Job not found")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, job)
}
