package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/MihajloDimeski/BudgetingApp/internal/currency"
	"github.com/MihajloDimeski/BudgetingApp/internal/domain"
	"github.com/MihajloDimeski/BudgetingApp/internal/history"
	"github.com/MihajloDimeski/BudgetingApp/internal/jobs"
	"github.com/MihajloDimeski/BudgetingApp/internal/ledger"
	"github.com/MihajloDimeski/BudgetingApp/internal/storage/memory"
)

func testFixtures(t *testing.T) (*memory.Store, *ledger.Aggregator, *domain.Household) {
	t.Helper()

	store := memory.NewStore()
	household := store.SeedHousehold(&domain.Household{
		Name:         "Test Household",
		BaseCurrency: "USD",
	})

	converter := currency.NewConverter(currency.DefaultConfig())
	agg := ledger.New(store, converter, zerolog.Nop())

	return store, agg, household
}

func TestListAccounts(t *testing.T) {
	store, agg, household := testFixtures(t)

	if err := store.CreateAccount(context.Background(), &domain.Account{
		Name:        "Checking",
		Type:        domain.AccountTypeCash,
		Balance:     150,
		Currency:    "USD",
		HouseholdID: household.ID,
	}); err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}

	h := NewAccountsHandler(store, agg, zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/api/accounts?household_id="+household.ID, nil)
	rec := httptest.NewRecorder()
	h.ListAccounts(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Count    int     `json:"count"`
		NetWorth float64 `json:"net_worth"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Count != 1 {
		t.Errorf("count = %d, want 1", resp.Count)
	}
	if resp.NetWorth != 150 {
		t.Errorf("net_worth = %v, want 150", resp.NetWorth)
	}
}

func TestListAccountsRequiresHousehold(t *testing.T) {
	store, agg, _ := testFixtures(t)
	h := NewAccountsHandler(store, agg, zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/api/accounts", nil)
	rec := httptest.NewRecorder()
	h.ListAccounts(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestCreateAccount(t *testing.T) {
	store, agg, household := testFixtures(t)
	h := NewAccountsHandler(store, agg, zerolog.Nop())

	body := `{"household_id":"` + household.ID + `","name":"Savings","balance":1200}`
	req := httptest.NewRequest(http.MethodPost, "/api/accounts", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.CreateAccount(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201; body: %s", rec.Code, rec.Body.String())
	}

	accounts, err := store.ListAccounts(context.Background(), household.ID)
	if err != nil {
		t.Fatalf("ListAccounts: %v", err)
	}
	if len(accounts) != 1 {
		t.Fatalf("stored accounts = %d, want 1", len(accounts))
	}
	if accounts[0].Currency != "USD" {
		t.Errorf("currency = %q, want household base USD", accounts[0].Currency)
	}
	if accounts[0].Type != domain.AccountTypeCash {
		t.Errorf("type = %q, want %q", accounts[0].Type, domain.AccountTypeCash)
	}
}

func TestCreateAccountRequiresName(t *testing.T) {
	store, agg, household := testFixtures(t)
	h := NewAccountsHandler(store, agg, zerolog.Nop())

	body := `{"household_id":"` + household.ID + `","balance":10}`
	req := httptest.NewRequest(http.MethodPost, "/api/accounts", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.CreateAccount(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestCreateIntegrationAndListHidesCredentials(t *testing.T) {
	store, _, household := testFixtures(t)
	h := NewIntegrationsHandler(store, zerolog.Nop())

	body := `{"household_id":"` + household.ID + `","platform":"bybit","api_key":"key-1","api_secret":"secret-1"}`
	req := httptest.NewRequest(http.MethodPost, "/api/integrations", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.CreateIntegration(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201; body: %s", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/api/integrations?household_id="+household.ID, nil)
	rec = httptest.NewRecorder()
	h.ListIntegrations(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "secret-1") || strings.Contains(rec.Body.String(), "key-1") {
		t.Errorf("credentials leaked into list response: %s", rec.Body.String())
	}

	var resp struct {
		Count int `json:"count"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Count != 1 {
		t.Errorf("count = %d, want 1", resp.Count)
	}
}

func TestDeleteIntegrationKeepsSyncedAccount(t *testing.T) {
	store, _, household := testFixtures(t)
	ctx := context.Background()

	integration := store.SeedIntegration(&domain.Integration{
		Platform:    "bybit",
		APIKey:      "key",
		HouseholdID: household.ID,
	})
	account := &domain.Account{
		Name:        "Bybit Account",
		Type:        domain.AccountTypeInvestment,
		Balance:     500,
		Currency:    "USD",
		HouseholdID: household.ID,
	}
	if err := store.CreateAccount(ctx, account); err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	store.SeedHistory(&domain.BalanceHistory{AccountID: account.ID, Balance: 500, Date: time.Now()})

	h := NewIntegrationsHandler(store, zerolog.Nop())
	req := httptest.NewRequest(http.MethodDelete, "/api/integrations/"+integration.ID+"?household_id="+household.ID, nil)
	rec := httptest.NewRecorder()
	h.DeleteIntegration(rec, req, integration.ID)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}

	remaining, err := store.ListIntegrations(ctx, household.ID)
	if err != nil {
		t.Fatalf("ListIntegrations: %v", err)
	}
	if len(remaining) != 0 {
		t.Fatalf("integrations = %d, want 0", len(remaining))
	}

	// The paired account and its history record past syncs; removing the
	// connection must not erase them.
	accounts, err := store.ListAccounts(ctx, household.ID)
	if err != nil {
		t.Fatalf("ListAccounts: %v", err)
	}
	if len(accounts) != 1 || accounts[0].ID != account.ID {
		t.Fatalf("paired account did not survive deletion: %d accounts", len(accounts))
	}
	rows, err := store.ListHistory(ctx, household.ID)
	if err != nil {
		t.Fatalf("ListHistory: %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("history rows = %d, want 1", len(rows))
	}
}

func TestDeleteIntegrationWrongHousehold(t *testing.T) {
	store, _, household := testFixtures(t)
	other := store.SeedHousehold(&domain.Household{Name: "Other", BaseCurrency: "USD"})

	integration := store.SeedIntegration(&domain.Integration{
		Platform:    "trading212",
		APIKey:      "key",
		HouseholdID: other.ID,
	})

	h := NewIntegrationsHandler(store, zerolog.Nop())
	req := httptest.NewRequest(http.MethodDelete, "/api/integrations/"+integration.ID+"?household_id="+household.ID, nil)
	rec := httptest.NewRecorder()
	h.DeleteIntegration(rec, req, integration.ID)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}

	remaining, _ := store.ListIntegrations(context.Background(), other.ID)
	if len(remaining) != 1 {
		t.Errorf("cross-household delete removed the integration")
	}
}

func TestCreateTransaction(t *testing.T) {
	store, agg, household := testFixtures(t)
	h := NewTransactionsHandler(store, agg, zerolog.Nop())

	body := `{"household_id":"` + household.ID + `","amount":50,"currency":"EUR","description":"Dinner","type":"expense","date":"2024-03-10"}`
	req := httptest.NewRequest(http.MethodPost, "/api/transactions", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.CreateTransaction(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201; body: %s", rec.Code, rec.Body.String())
	}

	var created domain.Transaction
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	// 50 EUR at the default rates is 54.35 USD.
	if created.AmountInBaseCurrency != 54.35 {
		t.Errorf("amount_in_base_currency = %v, want 54.35", created.AmountInBaseCurrency)
	}

	listed, err := store.ListTransactions(context.Background(), household.ID)
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	if len(listed) != 1 {
		t.Fatalf("stored transactions = %d, want 1", len(listed))
	}
}

func TestCreateTransactionRejectsZeroAmount(t *testing.T) {
	store, agg, household := testFixtures(t)
	h := NewTransactionsHandler(store, agg, zerolog.Nop())

	body := `{"household_id":"` + household.ID + `","amount":0}`
	req := httptest.NewRequest(http.MethodPost, "/api/transactions", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.CreateTransaction(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestGetHistoryEmptyHousehold(t *testing.T) {
	store, _, household := testFixtures(t)
	h := NewHistoryHandler(history.NewService(store), zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/api/history?household_id="+household.ID+"&range=30d&resolution=daily", nil)
	rec := httptest.NewRecorder()
	h.GetHistory(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Labels []string         `json:"labels"`
		Series []history.Series `json:"series"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(resp.Labels) != 0 || len(resp.Series) != 0 {
		t.Errorf("expected empty result, got %d labels and %d series", len(resp.Labels), len(resp.Series))
	}
}

func TestGetHistoryRejectsUnknownRange(t *testing.T) {
	store, _, household := testFixtures(t)
	h := NewHistoryHandler(history.NewService(store), zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/api/history?household_id="+household.ID+"&range=14d", nil)
	rec := httptest.NewRecorder()
	h.GetHistory(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

type stubPublisher struct {
	published []*jobs.SyncHouseholdJob
	err       error
}

func (p *stubPublisher) PublishSyncHousehold(_ context.Context, job *jobs.SyncHouseholdJob) error {
	if p.err != nil {
		return p.err
	}
	job.JobID = "job-1"
	job.Status = jobs.JobStatusPending
	p.published = append(p.published, job)
	return nil
}

func (p *stubPublisher) Close() error { return nil }

func TestEnqueueSync(t *testing.T) {
	publisher := &stubPublisher{}
	h := NewSyncHandler(publisher, zerolog.Nop())

	req := httptest.NewRequest(http.MethodPost, "/api/sync", strings.NewReader(`{"household_id":"hh-1"}`))
	rec := httptest.NewRecorder()
	h.EnqueueSync(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202; body: %s", rec.Code, rec.Body.String())
	}
	if len(publisher.published) != 1 {
		t.Fatalf("published jobs = %d, want 1", len(publisher.published))
	}
	if publisher.published[0].Trigger != "manual" {
		t.Errorf("trigger = %q, want manual", publisher.published[0].Trigger)
	}
}

func TestUpdateCurrencyRejectsUnknownCode(t *testing.T) {
	_, agg, household := testFixtures(t)
	h := NewSettingsHandler(agg, zerolog.Nop())

	body := `{"household_id":"` + household.ID + `","currency":"XYZ"}`
	req := httptest.NewRequest(http.MethodPut, "/api/settings/currency", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.UpdateCurrency(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestUpdateCurrencyRecomputesBase(t *testing.T) {
	store, agg, household := testFixtures(t)

	if err := agg.AddTransaction(context.Background(), &domain.Transaction{
		Amount:      100,
		Currency:    "USD",
		Type:        domain.TransactionExpense,
		Date:        time.Now(),
		HouseholdID: household.ID,
	}); err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}

	h := NewSettingsHandler(agg, zerolog.Nop())

	body := `{"household_id":"` + household.ID + `","currency":"EUR"}`
	req := httptest.NewRequest(http.MethodPut, "/api/settings/currency", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.UpdateCurrency(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}

	updated, err := store.GetHousehold(context.Background(), household.ID)
	if err != nil {
		t.Fatalf("GetHousehold: %v", err)
	}
	if updated.BaseCurrency != "EUR" {
		t.Errorf("base currency = %q, want EUR", updated.BaseCurrency)
	}

	txs, err := store.ListTransactions(context.Background(), household.ID)
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	if txs[0].AmountInBaseCurrency != 92 {
		t.Errorf("recomputed base amount = %v, want 92", txs[0].AmountInBaseCurrency)
	}
}
