package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/marketpulse/internal/config"
	"github.com/yourorg/marketpulse/internal/derive"
	"github.com/yourorg/marketpulse/internal/fetch"
	"github.com/yourorg/marketpulse/internal/sentiment"
)

// upstreamStub answers the quote endpoint for any requested symbols.
func upstreamStub() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		symbols := strings.Split(r.URL.Query().Get("symbols"), ",")
		data := make([]map[string]interface{}, 0, len(symbols))
		for _, s := range symbols {
			data = append(data, map[string]interface{}{
				"symbol":     s,
				"price":      0.50,
				"change_24h": 5.0,
				"volume_24h": 85_000_000.0,
				"market_cap": 1_600_000_000.0,
			})
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"data": data})
	}))
}

// newTestServer wires the full pipeline against the given quote upstream.
func newTestServer(quoteURL string) *Server {
	cfg := config.Config{
		Port:            "0",
		QuoteURL:        quoteURL,
		NetworkURL:      quoteURL,
		ChainID:         "1329",
		NativeSymbol:    "SEI",
		DefaultSymbols:  []string{"SEI", "USDC", "WETH"},
		Retry:           config.RetryPolicy{MaxAttempts: 2, BaseDelay: 5 * time.Millisecond},
		RequestTimeout:  time.Second,
		QuoteCacheTTL:   time.Minute,
		NetworkCacheTTL: time.Minute,
		FallbackEnabled: true,
	}

	client := fetch.NewClient(cfg.Retry, cfg.RequestTimeout, 0, 0)
	synth := fetch.NewSynthesizer()
	quotes := fetch.NewQuoteProvider(fetch.QuoteOptions{
		BaseURL:         cfg.QuoteURL,
		CacheTTL:        cfg.QuoteCacheTTL,
		FallbackEnabled: true,
		NativeSymbol:    cfg.NativeSymbol,
	}, client, synth, nil, nil)

	params := derive.DefaultParams()
	aggregator := sentiment.NewAggregator(sentiment.DefaultThresholds(), params, cfg.NativeSymbol)
	assembler := NewAssembler(quotes, synth, aggregator, params, derive.ZeroNoise{}, cfg.ChainID)

	return New(cfg, assembler, nil, nil, nil)
}

func doRequest(t *testing.T, s *Server, method, target, body string) (*http.Response, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	resp := rec.Result()
	var payload map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	return resp, payload
}

func TestMarketData_DefaultSymbols(t *testing.T) {
	upstream := upstreamStub()
	defer upstream.Close()
	s := newTestServer(upstream.URL)

	resp, payload := doRequest(t, s, http.MethodGet, "/market/data", "")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, payload["success"])
	assert.Equal(t, "1329", payload["chainId"])

	data := payload["data"].([]interface{})
	require.Len(t, data, 3)

	first := data[0].(map[string]interface{})
	assert.Equal(t, "SEI", first["symbol"])
	assert.Equal(t, "LIVE", first["source"])

	metrics := first["metrics"].(map[string]interface{})
	assert.InDelta(t, 35.0, metrics["volatility"].(float64), 1e-9)
	assert.Equal(t, "POSITIVE", metrics["vaultImpact"])

	_, err := time.Parse(time.RFC3339, payload["timestamp"].(string))
	assert.NoError(t, err, "timestamps are ISO-8601")
}

func TestMarketData_ExplicitSymbolsAndTimeframe(t *testing.T) {
	upstream := upstreamStub()
	defer upstream.Close()
	s := newTestServer(upstream.URL)

	resp, payload := doRequest(t, s, http.MethodGet, "/market/data?symbols=sei-usdc&timeframe=5m", "")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "5m", payload["timeframe"])

	data := payload["data"].([]interface{})
	require.Len(t, data, 1)
	pair := data[0].(map[string]interface{})
	assert.Equal(t, "SEI-USDC", pair["symbol"])
	assert.Greater(t, pair["estimatedLiquidityUsd"].(float64), 0.0)
}

func TestMarketData_InvalidTimeframeRejected(t *testing.T) {
	upstream := upstreamStub()
	defer upstream.Close()
	s := newTestServer(upstream.URL)

	resp, payload := doRequest(t, s, http.MethodGet, "/market/data?timeframe=2w", "")

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, false, payload["success"])

	details := payload["details"].([]interface{})
	require.Len(t, details, 1)
	assert.Equal(t, "timeframe", details[0].(map[string]interface{})["field"])
}

func TestMarketData_DegradesInsteadOfFailing(t *testing.T) {
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer broken.Close()
	s := newTestServer(broken.URL)

	resp, payload := doRequest(t, s, http.MethodGet, "/market/data", "")

	assert.Equal(t, http.StatusOK, resp.StatusCode, "a valid request must not surface upstream outages")
	assert.Equal(t, true, payload["success"])

	data := payload["data"].([]interface{})
	require.Len(t, data, 3)
	for _, raw := range data {
		assert.Equal(t, "FALLBACK", raw.(map[string]interface{})["source"])
	}
}

func TestMarketDataSeries_ReturnsCandlesPerSymbol(t *testing.T) {
	upstream := upstreamStub()
	defer upstream.Close()
	s := newTestServer(upstream.URL)

	body := `{"symbols":["SEI","WETH"],"timeframe":"1h","limit":5}`
	resp, payload := doRequest(t, s, http.MethodPost, "/market/data", body)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 5, payload["limit"])

	data := payload["data"].(map[string]interface{})
	require.Len(t, data, 2)
	for _, symbol := range []string{"SEI", "WETH"} {
		candles := data[symbol].([]interface{})
		require.Len(t, candles, 5)
		c := candles[0].(map[string]interface{})
		assert.Greater(t, c["close"].(float64), 0.0)
	}
}

func TestMarketDataSeries_ValidatesLimitAndBody(t *testing.T) {
	upstream := upstreamStub()
	defer upstream.Close()
	s := newTestServer(upstream.URL)

	resp, payload := doRequest(t, s, http.MethodPost, "/market/data", `{"limit":2000}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	details := payload["details"].([]interface{})
	require.Len(t, details, 1)
	assert.Equal(t, "limit", details[0].(map[string]interface{})["field"])

	resp, _ = doRequest(t, s, http.MethodPost, "/market/data", `not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSentiment_ReturnsSixIndicators(t *testing.T) {
	upstream := upstreamStub()
	defer upstream.Close()
	s := newTestServer(upstream.URL)

	resp, payload := doRequest(t, s, http.MethodGet, "/market/sentiment", "")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	data := payload["data"].(map[string]interface{})
	assert.Equal(t, "24h", data["timeframe"])

	indicators := data["sentimentMetrics"].([]interface{})
	require.Len(t, indicators, 6)

	stats := data["stats"].(map[string]interface{})
	assert.GreaterOrEqual(t, stats["sentimentScore"].(float64), 0.0)
	assert.LessOrEqual(t, stats["sentimentScore"].(float64), 100.0)

	_, err := time.Parse(time.RFC3339, data["lastUpdated"].(string))
	assert.NoError(t, err)
}

func TestSentiment_InvalidTimeframeRejected(t *testing.T) {
	upstream := upstreamStub()
	defer upstream.Close()
	s := newTestServer(upstream.URL)

	resp, _ := doRequest(t, s, http.MethodGet, "/market/sentiment?timeframe=2m", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPortfolioYield(t *testing.T) {
	upstream := upstreamStub()
	defer upstream.Close()
	s := newTestServer(upstream.URL)

	deposit := time.Now().Add(-365 * 24 * time.Hour).UnixMilli()
	body := fmt.Sprintf(`{"principal":100,"depositTimestampMs":%d,"annualRateFraction":0.10}`, deposit)

	resp, payload := doRequest(t, s, http.MethodPost, "/portfolio/yield", body)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	data := payload["data"].(map[string]interface{})
	assert.InDelta(t, 10.0, data["totalYield"].(float64), 0.01)
	assert.InDelta(t, 100*0.10/365, data["dailyYield"].(float64), 1e-6)
}

func TestPortfolioYield_FutureDepositYieldsZero(t *testing.T) {
	upstream := upstreamStub()
	defer upstream.Close()
	s := newTestServer(upstream.URL)

	deposit := time.Now().Add(time.Hour).UnixMilli()
	body := fmt.Sprintf(`{"principal":100,"depositTimestampMs":%d,"annualRateFraction":0.10}`, deposit)

	resp, payload := doRequest(t, s, http.MethodPost, "/portfolio/yield", body)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	data := payload["data"].(map[string]interface{})
	assert.Zero(t, data["totalYield"].(float64))
	assert.Zero(t, data["dailyYield"].(float64))
}

func TestHealthAndStatus(t *testing.T) {
	upstream := upstreamStub()
	defer upstream.Close()
	s := newTestServer(upstream.URL)

	resp, payload := doRequest(t, s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", payload["status"])

	resp, payload = doRequest(t, s, http.MethodGet, "/status", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "operational", payload["status"])
	assert.Equal(t, "1329", payload["chainId"])
}
