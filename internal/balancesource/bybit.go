package balancesource

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

const (
	bybitBaseURL    = "https://api.bybit.com"
	bybitRecvWindow = "5000"
)

// equityAccountTypes are queried through the wallet-balance endpoint.
var equityAccountTypes = []string{"UNIFIED", "CONTRACT", "SPOT"}

// fundingAccountTypes are queried through the coins-balance endpoint.
var fundingAccountTypes = []string{"SPOT", "CONTRACT", "UNIFIED", "OPTION", "INVESTMENT", "FUND"}

func init() {
	Register("bybit", func(apiKey, apiSecret string, log zerolog.Logger) Source {
		return NewBybit(apiKey, apiSecret, log)
	})
}

// Bybit fetches total equity across a Bybit account's sub-accounts. The
// total is the sum of equity for the unified, contract and spot accounts
// plus funding balances across the remaining account types; every sub-query
// is fault-isolated and contributes zero on failure.
type Bybit struct {
	baseURL   string
	apiKey    string
	apiSecret string
	client    *http.Client
	log       zerolog.Logger
}

// NewBybit creates a Bybit source for the given credential pair.
func NewBybit(apiKey, apiSecret string, log zerolog.Logger) *Bybit {
	return &Bybit{
		baseURL:   bybitBaseURL,
		apiKey:    apiKey,
		apiSecret: apiSecret,
		client:    &http.Client{Timeout: 10 * time.Second},
		log:       log.With().Str("source", "bybit").Logger(),
	}
}

type bybitWalletBalanceResponse struct {
	RetCode int    `json:"retCode"`
	RetMsg  string `json:"retMsg"`
	Result  struct {
		List []struct {
			TotalEquity string `json:"totalEquity"`
			Coin        []struct {
				Coin     string `json:"coin"`
				USDValue string `json:"usdValue"`
			} `json:"coin"`
		} `json:"list"`
	} `json:"result"`
}

type bybitCoinsBalanceResponse struct {
	RetCode int    `json:"retCode"`
	RetMsg  string `json:"retMsg"`
	Result  struct {
		Balance []struct {
			Coin          string `json:"coin"`
			WalletBalance string `json:"walletBalance"`
		} `json:"balance"`
	} `json:"result"`
}

// FetchBalance sums equity and funding balances across all account types.
// The whole fetch degrades to zero only when every sub-query fails.
func (b *Bybit) FetchBalance(ctx context.Context) Result {
	total := 0.0
	failures := 0
	queries := 0

	for _, accountType := range equityAccountTypes {
		queries++
		equity, err := b.fetchEquity(ctx, accountType)
		if err != nil {
			failures++
			b.log.Warn().Err(err).Str("account_type", accountType).Msg("Equity query failed")
			continue
		}
		b.log.Debug().Str("account_type", accountType).Float64("equity", equity).Msg("Equity fetched")
		total += equity
	}

	for _, accountType := range fundingAccountTypes {
		queries++
		funding, err := b.fetchFunding(ctx, accountType)
		if err != nil {
			failures++
			b.log.Warn().Err(err).Str("account_type", accountType).Msg("Funding query failed")
			continue
		}
		b.log.Debug().Str("account_type", accountType).Float64("funding", funding).Msg("Funding fetched")
		total += funding
	}

	if failures == queries {
		return Degraded("all bybit sub-queries failed")
	}

	b.log.Info().Float64("total", total).Int("failed_queries", failures).Msg("Bybit balance fetched")
	return Ok(total)
}

// fetchEquity queries the wallet-balance endpoint for one account type. The
// unified account reports a ready-made totalEquity; other account types sum
// per-coin USD values.
func (b *Bybit) fetchEquity(ctx context.Context, accountType string) (float64, error) {
	query := url.Values{"accountType": {accountType}}

	var resp bybitWalletBalanceResponse
	if err := b.get(ctx, "/v5/account/wallet-balance", query, &resp); err != nil {
		return 0, err
	}
	if resp.RetCode != 0 {
		return 0, fmt.Errorf("retCode %d: %s", resp.RetCode, resp.RetMsg)
	}
	if len(resp.Result.List) == 0 {
		return 0, nil
	}

	info := resp.Result.List[0]
	if accountType == "UNIFIED" {
		return parseBybitFloat(info.TotalEquity), nil
	}

	equity := 0.0
	for _, coin := range info.Coin {
		equity += parseBybitFloat(coin.USDValue)
	}
	return equity, nil
}

// fetchFunding queries the coins-balance endpoint and sums wallet balances.
func (b *Bybit) fetchFunding(ctx context.Context, accountType string) (float64, error) {
	query := url.Values{"accountType": {accountType}}

	var resp bybitCoinsBalanceResponse
	if err := b.get(ctx, "/v5/asset/transfer/query-account-coins-balance", query, &resp); err != nil {
		return 0, err
	}
	if resp.RetCode != 0 {
		return 0, fmt.Errorf("retCode %d: %s", resp.RetCode, resp.RetMsg)
	}

	total := 0.0
	for _, coin := range resp.Result.Balance {
		total += parseBybitFloat(coin.WalletBalance)
	}
	return total, nil
}

// get performs a signed GET request against the Bybit v5 API.
func (b *Bybit) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	encoded := query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+path+"?"+encoded, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}

	timestamp := strconv.FormatInt(time.Now().UnixMilli(), 10)
	req.Header.Set("X-BAPI-API-KEY", b.apiKey)
	req.Header.Set("X-BAPI-TIMESTAMP", timestamp)
	req.Header.Set("X-BAPI-RECV-WINDOW", bybitRecvWindow)
	req.Header.Set("X-BAPI-SIGN", b.sign(timestamp + b.apiKey + bybitRecvWindow + encoded))

	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func (b *Bybit) sign(payload string) string {
	mac := hmac.New(sha256.New, []byte(b.apiSecret))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

// parseBybitFloat tolerates the API's habit of returning numbers as strings,
// treating empty or malformed values as zero.
func parseBybitFloat(s string) float64 {
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}
