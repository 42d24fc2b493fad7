package balancesource

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

const (
	trading212LiveURL = "https://live.trading212.com/api/v0"
	trading212DemoURL = "https://demo.trading212.com/api/v0"
)

func init() {
	Register("trading212", func(apiKey, apiSecret string, log zerolog.Logger) Source {
		return NewTrading212(apiKey, apiSecret, log)
	})
}

// Trading212 fetches the account summary total from the live environment,
// falling back to the identically shaped demo environment on any failure.
// There is no retry beyond that single fallback.
type Trading212 struct {
	liveURL   string
	demoURL   string
	apiKey    string
	apiSecret string
	client    *http.Client
	log       zerolog.Logger
}

// NewTrading212 creates a Trading212 source for the given credential pair.
func NewTrading212(apiKey, apiSecret string, log zerolog.Logger) *Trading212 {
	return &Trading212{
		liveURL:   trading212LiveURL,
		demoURL:   trading212DemoURL,
		apiKey:    apiKey,
		apiSecret: apiSecret,
		client:    &http.Client{Timeout: 10 * time.Second},
		log:       log.With().Str("source", "trading212").Logger(),
	}
}

type trading212Summary struct {
	TotalValue float64 `json:"totalValue"`
}

// FetchBalance tries the live endpoint, then the demo endpoint.
func (t *Trading212) FetchBalance(ctx context.Context) Result {
	balance, err := t.fetchFrom(ctx, t.liveURL)
	if err == nil {
		return Ok(balance)
	}
	t.log.Warn().Err(err).Msg("Live endpoint failed, trying demo")

	balance, err = t.fetchFrom(ctx, t.demoURL)
	if err == nil {
		return Ok(balance)
	}
	t.log.Warn().Err(err).Msg("Demo endpoint failed")

	return Degraded("live and demo endpoints both failed")
}

func (t *Trading212) fetchFrom(ctx context.Context, baseURL string) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/equity/account/summary", nil)
	if err != nil {
		return 0, fmt.Errorf("building request: %w", err)
	}
	if t.apiSecret != "" {
		req.SetBasicAuth(t.apiKey, t.apiSecret)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var summary trading212Summary
	if err := json.NewDecoder(resp.Body).Decode(&summary); err != nil {
		return 0, fmt.Errorf("decoding response: %w", err)
	}
	return summary.TotalValue, nil
}
