// Package sentiment synthesizes the six fixed market-mood indicators and the
// aggregate market stats from a set of asset quotes. The formulas are
// heuristics: clamped linear mixes of mean change, breadth, volume and the
// derived per-asset scores, tuned for display rather than statistical rigor.
package sentiment

import (
	"fmt"
	"math"

	"github.com/yourorg/marketpulse/internal/derive"
	"github.com/yourorg/marketpulse/internal/model"
)

// The six indicator names are fixed; the UI keys off them.
const (
	MetricOverall       = "Overall Market Sentiment"
	MetricEcosystem     = "Ecosystem Health"
	MetricAdoption      = "Protocol Adoption"
	MetricInstitutional = "Institutional Interest"
	MetricSocialBuzz    = "Social Buzz"
	MetricDevActivity   = "Developer Activity"
)

// cutPoints thresholds one indicator's value into a trend. Values at or
// above Bull read bullish, at or below Bear read bearish.
type cutPoints struct {
	Bull float64
	Bear float64
}

// Thresholds carries every scale constant behind the indicator formulas.
// Like the derivation params these are empirical product constants.
type Thresholds struct {
	// NativeVolumeFloor is the 24h volume above which the ecosystem is
	// considered actively traded
	NativeVolumeFloor float64

	// TVLFraction estimates total value locked as a fraction of volume
	TVLFraction float64

	// TVLScale normalizes the TVL estimate into a score contribution
	TVLScale float64

	// InstitutionalVolumeScale normalizes aggregate volume for indicator 4
	InstitutionalVolumeScale float64

	// BuzzVolumeScale normalizes native volume for indicator 5
	BuzzVolumeScale float64

	// ConfidenceVolumeScale normalizes aggregate volume for the stats
	// confidence level
	ConfidenceVolumeScale float64

	// DefaultDevActivity is indicator 6 when no network metrics exist
	DefaultDevActivity float64

	// Cuts maps indicator name to its trend cut points
	Cuts map[string]cutPoints
}

// DefaultThresholds returns the production constants.
func DefaultThresholds() Thresholds {
	return Thresholds{
		NativeVolumeFloor:        50_000_000,
		TVLFraction:              0.4,
		TVLScale:                 500_000_000,
		InstitutionalVolumeScale: 10_000_000_000,
		BuzzVolumeScale:          100_000_000,
		ConfidenceVolumeScale:    10_000_000_000,
		DefaultDevActivity:       75,
		Cuts: map[string]cutPoints{
			MetricOverall:       {Bull: 60, Bear: 40},
			MetricEcosystem:     {Bull: 60, Bear: 40},
			MetricAdoption:      {Bull: 55, Bear: 35},
			MetricInstitutional: {Bull: 60, Bear: 40},
			MetricSocialBuzz:    {Bull: 65, Bear: 45},
			MetricDevActivity:   {Bull: 70, Bear: 50},
		},
	}
}

// Result bundles the indicator set with the aggregate stats.
type Result struct {
	Indicators []model.SentimentIndicator `json:"sentimentMetrics"`
	Stats      model.MarketStats          `json:"stats"`
}

// Aggregator computes sentiment over a quote set. The derived per-asset
// scores it references (liquidity, volatility) are computed without jitter,
// so the aggregate is deterministic for a fixed quote set.
type Aggregator struct {
	thresholds   Thresholds
	params       derive.Params
	nativeSymbol string
}

// NewAggregator creates an aggregator for the given native asset.
func NewAggregator(thresholds Thresholds, params derive.Params, nativeSymbol string) *Aggregator {
	return &Aggregator{thresholds: thresholds, params: params, nativeSymbol: nativeSymbol}
}

// Compute builds the six indicators and the market stats. An empty quote set
// yields the fixed default result; degraded mode is not an error.
func (a *Aggregator) Compute(quotes []model.AssetQuote) Result {
	if len(quotes) == 0 {
		return DefaultResult(a.thresholds)
	}

	var (
		meanChange    float64
		bullishQuotes int
		totalVolume   float64
		liquiditySum  float64
	)
	for _, q := range quotes {
		meanChange += q.Change24hPercent
		if q.Change24hPercent > 0 {
			bullishQuotes++
		}
		totalVolume += q.Volume24hUSD
		liquiditySum += derive.Compute(q, a.params, derive.ZeroNoise{}).LiquidityScore
	}
	meanChange /= float64(len(quotes))
	bullishRatio := float64(bullishQuotes) / float64(len(quotes))
	avgLiquidity := liquiditySum / float64(len(quotes))

	native := a.nativeQuote(quotes)
	nativeMetrics := derive.Compute(native, a.params, derive.ZeroNoise{})

	indicators := []model.SentimentIndicator{
		a.overall(meanChange, bullishRatio, len(quotes)),
		a.ecosystem(native, nativeMetrics),
		a.adoption(totalVolume),
		a.institutional(totalVolume, avgLiquidity),
		a.socialBuzz(native, nativeMetrics),
		a.devActivity(native.Network),
	}

	return Result{
		Indicators: indicators,
		Stats:      a.stats(indicators, meanChange, bullishRatio, totalVolume),
	}
}

// DefaultResult is the fixed degraded-mode output for an empty quote set.
func DefaultResult(t Thresholds) Result {
	neutral := func(name, description string, value float64) model.SentimentIndicator {
		return model.SentimentIndicator{
			MetricName:        name,
			Value:             value,
			Trend:             model.TrendNeutral,
			ConfidencePercent: 30,
			Description:       description,
		}
	}
	return Result{
		Indicators: []model.SentimentIndicator{
			neutral(MetricOverall, "No market data available", 50),
			neutral(MetricEcosystem, "No market data available", 50),
			neutral(MetricAdoption, "No market data available", 50),
			neutral(MetricInstitutional, "No market data available", 50),
			neutral(MetricSocialBuzz, "No market data available", 50),
			neutral(MetricDevActivity, "Network data unavailable", t.DefaultDevActivity),
		},
		Stats: model.MarketStats{
			BullishIndicatorCount: 0,
			FearIndex:             50,
			SentimentScore:        50,
			ConfidenceLevel:       30,
		},
	}
}

func (a *Aggregator) overall(meanChange, bullishRatio float64, n int) model.SentimentIndicator {
	value := clamp(50+meanChange*8+(bullishRatio-0.5)*40, 0, 100)
	confidence := clamp(40+float64(n)*6, 0, 95)
	return a.indicator(MetricOverall, value, confidence,
		fmt.Sprintf("Mean 24h change %.2f%% with %.0f%% of assets advancing", meanChange, bullishRatio*100))
}

func (a *Aggregator) ecosystem(native model.AssetQuote, m model.DerivedMetrics) model.SentimentIndicator {
	value := 50 + native.Change24hPercent*6 + (m.LiquidityScore-50)*0.5
	if native.Volume24hUSD > a.thresholds.NativeVolumeFloor {
		value += 10
	}
	return a.indicator(MetricEcosystem, clamp(value, 0, 100), 70,
		fmt.Sprintf("%s moved %.2f%% on $%.0fM volume", native.Symbol, native.Change24hPercent, native.Volume24hUSD/1e6))
}

func (a *Aggregator) adoption(totalVolume float64) model.SentimentIndicator {
	tvl := totalVolume * a.thresholds.TVLFraction
	value := clamp(tvl/a.thresholds.TVLScale*50+30, 0, 100)
	return a.indicator(MetricAdoption, value, 60,
		fmt.Sprintf("Estimated TVL $%.0fM", tvl/1e6))
}

func (a *Aggregator) institutional(totalVolume, avgLiquidity float64) model.SentimentIndicator {
	value := clamp(totalVolume/a.thresholds.InstitutionalVolumeScale*30+avgLiquidity*0.5, 0, 100)
	return a.indicator(MetricInstitutional, value, 65,
		fmt.Sprintf("Aggregate volume $%.1fB, average liquidity score %.0f", totalVolume/1e9, avgLiquidity))
}

func (a *Aggregator) socialBuzz(native model.AssetQuote, m model.DerivedMetrics) model.SentimentIndicator {
	volumeFactor := math.Min(native.Volume24hUSD/a.thresholds.BuzzVolumeScale, 1)
	value := clamp(m.Volatility*0.4+math.Abs(native.Change24hPercent)*5+volumeFactor*20+20, 0, 100)
	return a.indicator(MetricSocialBuzz, value, 55,
		fmt.Sprintf("Price action %.2f%% driving discussion volume", native.Change24hPercent))
}

func (a *Aggregator) devActivity(nm *model.NetworkMetrics) model.SentimentIndicator {
	if nm == nil {
		return a.indicator(MetricDevActivity, a.thresholds.DefaultDevActivity, 40,
			"Network data unavailable, using baseline activity")
	}
	blockScore := clamp(10-nm.BlockTimeSeconds, 0, 10) * 2
	value := clamp(math.Min(nm.TransactionsPerSecond, 100)*0.3+blockScore+math.Min(float64(nm.ValidatorCount), 200)*0.15+20, 0, 100)
	return a.indicator(MetricDevActivity, value, 75,
		fmt.Sprintf("%.0f TPS across %d validators", nm.TransactionsPerSecond, nm.ValidatorCount))
}

func (a *Aggregator) indicator(name string, value, confidence float64, description string) model.SentimentIndicator {
	return model.SentimentIndicator{
		MetricName:        name,
		Value:             value,
		Trend:             a.trend(name, value),
		ConfidencePercent: clamp(confidence, 0, 100),
		Description:       description,
	}
}

func (a *Aggregator) trend(name string, value float64) model.Trend {
	cuts, ok := a.thresholds.Cuts[name]
	if !ok {
		cuts = cutPoints{Bull: 60, Bear: 40}
	}
	switch {
	case value >= cuts.Bull:
		return model.TrendBullish
	case value <= cuts.Bear:
		return model.TrendBearish
	default:
		return model.TrendNeutral
	}
}

// stats derives the aggregate numbers from the same mean change and breadth
// as the overall indicator, on independently clamped formulas.
func (a *Aggregator) stats(indicators []model.SentimentIndicator, meanChange, bullishRatio, totalVolume float64) model.MarketStats {
	bullish := 0
	for _, ind := range indicators {
		if ind.Trend == model.TrendBullish {
			bullish++
		}
	}

	volumeFactor := math.Min(totalVolume/a.thresholds.ConfidenceVolumeScale, 1)
	return model.MarketStats{
		BullishIndicatorCount: bullish,
		FearIndex:             clamp(50+meanChange*5+(bullishRatio-0.5)*30, 0, 100),
		SentimentScore:        clamp(50+meanChange*7+(bullishRatio-0.5)*20, 0, 100),
		ConfidenceLevel:       clamp(40+volumeFactor*40+float64(bullish)*3, 0, 100),
	}
}

// nativeQuote finds the configured native asset, falling back to the first
// quote so the native-anchored indicators stay total.
func (a *Aggregator) nativeQuote(quotes []model.AssetQuote) model.AssetQuote {
	for _, q := range quotes {
		if q.Symbol == a.nativeSymbol {
			return q
		}
	}
	return quotes[0]
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
