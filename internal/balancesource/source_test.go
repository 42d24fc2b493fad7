package balancesource

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func TestRegistry(t *testing.T) {
	for _, platform := range []string{"bybit", "trading212"} {
		src, err := New(platform, "key", "secret", testLogger())
		if err != nil {
			t.Fatalf("New(%q) returned error: %v", platform, err)
		}
		if src == nil {
			t.Fatalf("New(%q) returned nil source", platform)
		}
	}

	if _, err := New("robinhood", "key", "secret", testLogger()); err == nil {
		t.Error("Expected error for unknown platform, got nil")
	}
}

func TestBybit_FetchBalance(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-BAPI-API-KEY") != "key" {
			t.Errorf("Missing API key header")
		}
		if r.Header.Get("X-BAPI-SIGN") == "" {
			t.Errorf("Missing signature header")
		}

		accountType := r.URL.Query().Get("accountType")
		switch r.URL.Path {
		case "/v5/account/wallet-balance":
			switch accountType {
			case "UNIFIED":
				json.NewEncoder(w).Encode(map[string]interface{}{
					"retCode": 0,
					"result": map[string]interface{}{
						"list": []map[string]interface{}{
							{"totalEquity": "1000.50"},
						},
					},
				})
			case "SPOT":
				json.NewEncoder(w).Encode(map[string]interface{}{
					"retCode": 0,
					"result": map[string]interface{}{
						"list": []map[string]interface{}{
							{"coin": []map[string]interface{}{
								{"coin": "BTC", "usdValue": "200.25"},
								{"coin": "ETH", "usdValue": "99.75"},
							}},
						},
					},
				})
			default:
				// CONTRACT fails; its sub-query must contribute 0.
				json.NewEncoder(w).Encode(map[string]interface{}{"retCode": 10001, "retMsg": "error"})
			}
		case "/v5/asset/transfer/query-account-coins-balance":
			if accountType == "FUND" {
				json.NewEncoder(w).Encode(map[string]interface{}{
					"retCode": 0,
					"result": map[string]interface{}{
						"balance": []map[string]interface{}{
							{"coin": "USDT", "walletBalance": "50"},
						},
					},
				})
				return
			}
			json.NewEncoder(w).Encode(map[string]interface{}{
				"retCode": 0,
				"result":  map[string]interface{}{"balance": []map[string]interface{}{}},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	b := NewBybit("key", "secret", testLogger())
	b.baseURL = srv.URL

	res := b.FetchBalance(context.Background())
	if res.Degraded {
		t.Fatalf("Expected ok result, got degraded: %s", res.Reason)
	}

	// 1000.50 (unified) + 300.00 (spot coins) + 50 (fund funding)
	want := 1350.50
	if res.Balance != want {
		t.Errorf("FetchBalance() = %v, want %v", res.Balance, want)
	}
}

func TestBybit_FetchBalance_AllQueriesFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	b := NewBybit("key", "secret", testLogger())
	b.baseURL = srv.URL

	res := b.FetchBalance(context.Background())
	if !res.Degraded {
		t.Error("Expected degraded result when every sub-query fails")
	}
	if res.Balance != 0 {
		t.Errorf("Degraded balance = %v, want 0", res.Balance)
	}
}

func TestTrading212_FetchBalance_Live(t *testing.T) {
	live := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/equity/account/summary" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "key" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]float64{"totalValue": 4321.99})
	}))
	defer live.Close()

	t212 := NewTrading212("key", "secret", testLogger())
	t212.liveURL = live.URL
	t212.demoURL = "http://127.0.0.1:0"

	res := t212.FetchBalance(context.Background())
	if res.Degraded {
		t.Fatalf("Expected ok result, got degraded: %s", res.Reason)
	}
	if res.Balance != 4321.99 {
		t.Errorf("FetchBalance() = %v, want 4321.99", res.Balance)
	}
}

func TestTrading212_FetchBalance_DemoFallback(t *testing.T) {
	live := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer live.Close()

	demo := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]float64{"totalValue": 100.0})
	}))
	defer demo.Close()

	t212 := NewTrading212("key", "secret", testLogger())
	t212.liveURL = live.URL
	t212.demoURL = demo.URL

	res := t212.FetchBalance(context.Background())
	if res.Degraded {
		t.Fatalf("Expected demo fallback to succeed, got degraded: %s", res.Reason)
	}
	if res.Balance != 100.0 {
		t.Errorf("FetchBalance() = %v, want 100.0", res.Balance)
	}
}

func TestTrading212_FetchBalance_BothFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	t212 := NewTrading212("key", "secret", testLogger())
	t212.liveURL = srv.URL
	t212.demoURL = srv.URL

	res := t212.FetchBalance(context.Background())
	if !res.Degraded {
		t.Error("Expected degraded result when both environments fail")
	}
	if res.Balance != 0 {
		t.Errorf("Degraded balance = %v, want 0", res.Balance)
	}
}
