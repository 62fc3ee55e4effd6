// Package model defines the core data structures for the marketpulse engine.
package model

import (
	"strings"
	"time"
)

// Source identifies whether an AssetQuote came from a live upstream provider
// or from the local synthetic fallback generator.
type Source string

const (
	// SourceLive marks data mapped from a successful upstream response
	SourceLive Source = "LIVE"

	// SourceFallback marks locally synthesized data, produced when every
	// upstream attempt for the symbol failed
	SourceFallback Source = "FALLBACK"
)

// VaultImpact is a coarse classification of how a 24h price move is expected
// to affect a liquidity position.
type VaultImpact string

const (
	ImpactPositive VaultImpact = "POSITIVE"
	ImpactNegative VaultImpact = "NEGATIVE"
	ImpactNeutral  VaultImpact = "NEUTRAL"
)

// Trend labels the direction a sentiment indicator is pointing.
type Trend string

const (
	TrendBullish Trend = "bullish"
	TrendBearish Trend = "bearish"
	TrendNeutral Trend = "neutral"
)

// AssetQuote represents one priced asset as returned by the quote adapter.
// Quotes are constructed per request and never mutated after being built.
type AssetQuote struct {
	// Symbol is the asset identifier, e.g. "SEI" or a pair like "SEI-USDC"
	Symbol string `json:"symbol"`

	// Price is the current price in USD, always positive
	Price float64 `json:"price"`

	// Change24hPercent is the signed 24h price change in percent
	Change24hPercent float64 `json:"change24hPercent"`

	// Volume24hUSD is the 24h traded volume in USD
	Volume24hUSD float64 `json:"volume24hUsd"`

	// MarketCapUSD is the market capitalization in USD
	MarketCapUSD float64 `json:"marketCapUsd"`

	// Source tags whether this quote is LIVE upstream data or a FALLBACK
	Source Source `json:"source"`

	// EstimatedLiquidityUSD is set for pair symbols only, derived from volume
	EstimatedLiquidityUSD float64 `json:"estimatedLiquidityUsd,omitempty"`

	// Network carries chain metrics, attached to the native asset only
	Network *NetworkMetrics `json:"network,omitempty"`
}

// IsPair reports whether the quote names a two-asset pair ("X-Y" form).
func (q AssetQuote) IsPair() bool {
	return strings.Contains(q.Symbol, "-")
}

// IsValid performs basic sanity validation on this quote
func (q AssetQuote) IsValid() bool {
	return q.Symbol != "" &&
		q.Price > 0 &&
		q.Volume24hUSD >= 0 &&
		q.MarketCapUSD >= 0 &&
		(q.Source == SourceLive || q.Source == SourceFallback)
}

// DerivedMetrics holds the secondary analytics computed from one AssetQuote.
// All percentage-scaled fields are clamped to their documented ranges before
// being returned to callers.
type DerivedMetrics struct {
	// Volatility in 0..100
	Volatility float64 `json:"volatility"`

	// LiquidityScore in 20..90
	LiquidityScore float64 `json:"liquidityScore"`

	// TrendStrength in 15..85
	TrendStrength float64 `json:"trendStrength"`

	// DeltaNeutralSuitability in 10..95, higher when price action is calm
	DeltaNeutralSuitability float64 `json:"deltaNeutralSuitability"`

	// SupportLevel and ResistanceLevel are price-scaled bands around the
	// current price
	SupportLevel    float64 `json:"supportLevel"`
	ResistanceLevel float64 `json:"resistanceLevel"`

	// FundingRate is a signed fraction, e.g. 0.0005 for 0.05%
	FundingRate float64 `json:"fundingRate"`

	// VaultImpact classifies the 24h move against the impact threshold
	VaultImpact VaultImpact `json:"vaultImpact"`
}

// NetworkMetrics describes the health of the chain backing the native asset.
type NetworkMetrics struct {
	BlockTimeSeconds      float64 `json:"blockTimeSeconds"`
	TransactionsPerSecond float64 `json:"transactionsPerSecond"`
	GasPrice              float64 `json:"gasPrice"`
	ValidatorCount        int     `json:"validatorCount"`
	StakingRatio          float64 `json:"stakingRatio"`

	// Source tags whether the metrics came from the RPC or were synthesized
	Source Source `json:"source"`
}

// SentimentIndicator is one of the six fixed heuristic market-mood scores.
// Indicators are computed fresh per request and never mutated afterwards.
type SentimentIndicator struct {
	// MetricName is one of the six fixed indicator names
	MetricName string `json:"metricName"`

	// Value in 0..100
	Value float64 `json:"value"`

	// Trend is derived by thresholding Value against per-indicator cut points
	Trend Trend `json:"trend"`

	// ConfidencePercent in 0..100
	ConfidencePercent float64 `json:"confidencePercent"`

	// Description is a human-readable summary for the UI
	Description string `json:"description"`
}

// MarketStats aggregates the full quote set of a single request.
type MarketStats struct {
	// BullishIndicatorCount counts indicators currently trending bullish
	BullishIndicatorCount int `json:"bullishIndicatorCount"`

	// FearIndex in 0..100, lower means more fearful
	FearIndex float64 `json:"fearIndex"`

	// SentimentScore in 0..100
	SentimentScore float64 `json:"sentimentScore"`

	// ConfidenceLevel in 0..100, scales with aggregate volume
	ConfidenceLevel float64 `json:"confidenceLevel"`
}

// SimulatedYieldResult is the output of the linear-accrual yield simulation.
type SimulatedYieldResult struct {
	// TotalYield accrued since the deposit, in the principal's unit
	TotalYield float64 `json:"totalYield"`

	// DailyYield currently accruing per day, in the principal's unit
	DailyYield float64 `json:"dailyYield"`
}

// AssetView pairs a quote with its derived metrics; this is the element type
// of the market data response payload.
type AssetView struct {
	AssetQuote
	Metrics DerivedMetrics `json:"metrics"`
}

// MarketSnapshot is the response assembler's unit of work: every asset view
// for a request plus the tagging the wire contract requires.
type MarketSnapshot struct {
	Assets    []AssetView `json:"assets"`
	Timeframe string      `json:"timeframe"`
	ChainID   string      `json:"chainId"`
	Timestamp time.Time   `json:"timestamp"`
}

// Candle is a single synthetic OHLCV point in a historical series.
type Candle struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

// NewQuote creates a LIVE quote with the given market fields.
func NewQuote(symbol string, price, change, volume, marketCap float64) AssetQuote {
	return AssetQuote{
		Symbol:           symbol,
		Price:            price,
		Change24hPercent: change,
		Volume24hUSD:     volume,
		MarketCapUSD:     marketCap,
		Source:           SourceLive,
	}
}
