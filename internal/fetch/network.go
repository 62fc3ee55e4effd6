package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/yourorg/marketpulse/internal/cache"
	"github.com/yourorg/marketpulse/internal/model"
	"github.com/yourorg/marketpulse/internal/otel"
)

const networkProviderName = "network"

// NetworkOptions configures the chain metrics adapter.
type NetworkOptions struct {
	BaseURL         string
	APIKey          string
	CacheTTL        time.Duration
	FallbackEnabled bool
}

// NetworkProvider fetches chain health metrics from a single status
// endpoint. Like the quote adapter it is total: on any upstream problem it
// returns synthesized FALLBACK metrics instead of an error.
type NetworkProvider struct {
	opts    NetworkOptions
	client  *Client
	synth   *Synthesizer
	cache   *cache.TTL[model.NetworkMetrics]
	breaker *gobreaker.CircuitBreaker
	events  Events
}

// NewNetworkProvider creates the adapter.
func NewNetworkProvider(opts NetworkOptions, client *Client, synth *Synthesizer, events Events) *NetworkProvider {
	if events == nil {
		events = NopEvents{}
	}
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    networkProviderName,
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logrus.WithFields(logrus.Fields{"provider": name, "from": from.String(), "to": to.String()}).
				Warn("Network upstream circuit state changed")
		},
	})
	return &NetworkProvider{
		opts:    opts,
		client:  client,
		synth:   synth,
		cache:   cache.NewTTL[model.NetworkMetrics](),
		breaker: breaker,
		events:  events,
	}
}

// GetNetworkMetrics returns the current chain metrics, from cache, the RPC
// status endpoint, or fallback synthesis, in that order.
func (p *NetworkProvider) GetNetworkMetrics(ctx context.Context) model.NetworkMetrics {
	if nm, ok := p.cache.Get(networkProviderName); ok {
		p.events.CacheHit(networkProviderName)
		return nm
	}
	p.events.CacheMiss(networkProviderName)

	result, err := p.breaker.Execute(func() (interface{}, error) {
		return p.doFetch(ctx)
	})
	if err != nil {
		p.events.UpstreamError(networkProviderName)
		otel.RecordError(ctx, err)
		logrus.WithError(err).Warn("Network upstream failed, serving fallback data")
		if !p.opts.FallbackEnabled {
			return model.NetworkMetrics{Source: model.SourceFallback}
		}
		p.events.FallbackServed(networkProviderName)
		return p.synth.Network()
	}

	nm := result.(model.NetworkMetrics)
	p.cache.Set(networkProviderName, nm, p.opts.CacheTTL)
	return nm
}

func (p *NetworkProvider) doFetch(ctx context.Context) (model.NetworkMetrics, error) {
	headers := map[string]string{"Accept": "application/json"}
	if p.opts.APIKey != "" {
		headers["Authorization"] = "Bearer " + p.opts.APIKey
	}

	resp, err := p.client.Get(ctx, p.opts.BaseURL+"/v1/status", headers)
	if err != nil {
		return model.NetworkMetrics{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return model.NetworkMetrics{}, fmt.Errorf("network provider status %d", resp.StatusCode)
	}

	var payload struct {
		BlockTime      float64 `json:"block_time_seconds"`
		TPS            float64 `json:"tps"`
		GasPrice       float64 `json:"gas_price"`
		ValidatorCount int     `json:"validator_count"`
		StakingRatio   float64 `json:"staking_ratio"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return model.NetworkMetrics{}, fmt.Errorf("decoding network response: %w", err)
	}
	if payload.BlockTime <= 0 || payload.ValidatorCount <= 0 {
		return model.NetworkMetrics{}, fmt.Errorf("implausible network payload")
	}

	return model.NetworkMetrics{
		BlockTimeSeconds:      payload.BlockTime,
		TransactionsPerSecond: payload.TPS,
		GasPrice:              payload.GasPrice,
		ValidatorCount:        payload.ValidatorCount,
		StakingRatio:          payload.StakingRatio,
		Source:                model.SourceLive,
	}, nil
}
