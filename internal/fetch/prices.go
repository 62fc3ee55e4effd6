package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/yourorg/marketpulse/internal/cache"
	"github.com/yourorg/marketpulse/internal/model"
	"github.com/yourorg/marketpulse/internal/otel"
)

const quoteProviderName = "quotes"

// pairLiquidityFactor estimates a pair's pooled liquidity from its 24h
// volume. Empirical product constant, not derived.
const pairLiquidityFactor = 0.15

// QuoteOptions configures the price-quote adapter.
type QuoteOptions struct {
	BaseURL         string
	APIKey          string
	CacheTTL        time.Duration
	FallbackEnabled bool
	NativeSymbol    string
}

// QuoteProvider batches symbol lookups into one upstream request and maps
// the response into AssetQuotes. It is total: when fallback is enabled the
// caller always receives exactly one well-formed quote per requested symbol,
// whatever the upstream did.
type QuoteProvider struct {
	opts    QuoteOptions
	client  *Client
	synth   *Synthesizer
	network *NetworkProvider
	cache   *cache.TTL[[]model.AssetQuote]
	breaker *gobreaker.CircuitBreaker
	events  Events
}

// NewQuoteProvider creates the adapter. network may be nil when no chain
// metrics attachment is wanted.
func NewQuoteProvider(opts QuoteOptions, client *Client, synth *Synthesizer, network *NetworkProvider, events Events) *QuoteProvider {
	if events == nil {
		events = NopEvents{}
	}
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    quoteProviderName,
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logrus.WithFields(logrus.Fields{"provider": name, "from": from.String(), "to": to.String()}).
				Warn("Quote upstream circuit state changed")
		},
	})
	return &QuoteProvider{
		opts:    opts,
		client:  client,
		synth:   synth,
		network: network,
		cache:   cache.NewTTL[[]model.AssetQuote](),
		breaker: breaker,
		events:  events,
	}
}

// GetQuotes returns one AssetQuote per requested symbol, LIVE where the
// upstream answered and FALLBACK otherwise, enriched with pair liquidity and
// the native asset's network metrics.
func (p *QuoteProvider) GetQuotes(ctx context.Context, symbols []string) []model.AssetQuote {
	key := strings.Join(symbols, ",")

	quotes, ok := p.cache.Get(key)
	if ok {
		p.events.CacheHit(quoteProviderName)
	} else {
		p.events.CacheMiss(quoteProviderName)
		quotes = p.fetchQuotes(ctx, symbols)
		if allLive(quotes) {
			p.cache.Set(key, quotes, p.opts.CacheTTL)
		}
	}

	enriched := make([]model.AssetQuote, len(quotes))
	for i, q := range quotes {
		enriched[i] = p.enrich(ctx, q)
	}
	return enriched
}

// fetchQuotes performs the upstream batch call and patches every hole with
// synthetic data. It never returns an error.
func (p *QuoteProvider) fetchQuotes(ctx context.Context, symbols []string) []model.AssetQuote {
	live, err := p.fetchUpstream(ctx, symbols)
	if err != nil {
		p.events.UpstreamError(quoteProviderName)
		otel.RecordError(ctx, err)
		logrus.WithError(err).Warn("Quote upstream failed, serving fallback data")
	}

	quotes := make([]model.AssetQuote, 0, len(symbols))
	for _, symbol := range symbols {
		if q, ok := live[symbol]; ok {
			p.synth.Observe(q)
			quotes = append(quotes, q)
			continue
		}
		if !p.opts.FallbackEnabled {
			continue
		}
		p.events.FallbackServed(quoteProviderName)
		quotes = append(quotes, p.synth.Quote(symbol))
	}
	return quotes
}

// fetchUpstream calls the provider through the circuit breaker and maps its
// payload into the internal schema, keyed by symbol.
func (p *QuoteProvider) fetchUpstream(ctx context.Context, symbols []string) (map[string]model.AssetQuote, error) {
	result, err := p.breaker.Execute(func() (interface{}, error) {
		return p.doFetch(ctx, symbols)
	})
	if err != nil {
		return nil, err
	}
	return result.(map[string]model.AssetQuote), nil
}

func (p *QuoteProvider) doFetch(ctx context.Context, symbols []string) (map[string]model.AssetQuote, error) {
	endpoint := fmt.Sprintf("%s/v1/quotes?symbols=%s", p.opts.BaseURL, url.QueryEscape(strings.Join(symbols, ",")))

	headers := map[string]string{"Accept": "application/json"}
	if p.opts.APIKey != "" {
		headers["Authorization"] = "Bearer " + p.opts.APIKey
	}

	resp, err := p.client.Get(ctx, endpoint, headers)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("quote provider status %d", resp.StatusCode)
	}

	var payload struct {
		Data []struct {
			Symbol    string  `json:"symbol"`
			Price     float64 `json:"price"`
			Change24h float64 `json:"change_24h"`
			Volume24h float64 `json:"volume_24h"`
			MarketCap float64 `json:"market_cap"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding quote response: %w", err)
	}
	if len(payload.Data) == 0 {
		return nil, fmt.Errorf("empty quote response")
	}

	quotes := make(map[string]model.AssetQuote, len(payload.Data))
	for _, d := range payload.Data {
		q := model.NewQuote(strings.ToUpper(d.Symbol), d.Price, d.Change24h, d.Volume24h, d.MarketCap)
		if !q.IsValid() {
			continue
		}
		quotes[q.Symbol] = q
	}
	return quotes, nil
}

// enrich attaches the pair liquidity estimate and, for the native asset, the
// current network metrics.
func (p *QuoteProvider) enrich(ctx context.Context, q model.AssetQuote) model.AssetQuote {
	if q.IsPair() {
		q.EstimatedLiquidityUSD = q.Volume24hUSD * pairLiquidityFactor
	}
	if p.network != nil && q.Symbol == p.opts.NativeSymbol {
		nm := p.network.GetNetworkMetrics(ctx)
		q.Network = &nm
	}
	return q
}

func allLive(quotes []model.AssetQuote) bool {
	for _, q := range quotes {
		if q.Source != model.SourceLive {
			return false
		}
	}
	return len(quotes) > 0
}
