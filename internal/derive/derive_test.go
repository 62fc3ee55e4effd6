package derive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/marketpulse/internal/model"
)

func TestCompute_DeterministicWithZeroNoise(t *testing.T) {
	q := model.AssetQuote{
		Symbol:           "SEI",
		Price:            0.50,
		Change24hPercent: 5.0,
		Volume24hUSD:     500_000_000,
		MarketCapUSD:     1_600_000_000,
		Source:           model.SourceLive,
	}
	p := DefaultParams()

	m := Compute(q, p, ZeroNoise{})

	assert.InDelta(t, 35.0, m.Volatility, 1e-9)              // |5|*5 + 10
	assert.InDelta(t, 55.0, m.LiquidityScore, 1e-9)          // 0.5*30 + 40
	assert.InDelta(t, 85.0, m.TrendStrength, 1e-9)           // 50 + 50, clamped to 85
	assert.InDelta(t, 50.0, m.DeltaNeutralSuitability, 1e-9) // 90 - 40
	assert.InDelta(t, 0.4875, m.SupportLevel, 1e-9)
	assert.InDelta(t, 0.5125, m.ResistanceLevel, 1e-9)
	assert.InDelta(t, 0.0005, m.FundingRate, 1e-9)
	assert.Equal(t, model.ImpactPositive, m.VaultImpact)

	// Identical inputs must reproduce identical metrics on every call.
	again := Compute(q, p, ZeroNoise{})
	assert.Equal(t, m, again)
}

func TestCompute_VaultImpactBoundaries(t *testing.T) {
	p := DefaultParams()

	tests := []struct {
		name   string
		change float64
		want   model.VaultImpact
	}{
		{name: "just above threshold", change: 3.0001, want: model.ImpactPositive},
		{name: "exactly at threshold", change: 3.0, want: model.ImpactNeutral},
		{name: "exactly at negative threshold", change: -3.0, want: model.ImpactNeutral},
		{name: "just below negative threshold", change: -3.0001, want: model.ImpactNegative},
		{name: "flat", change: 0, want: model.ImpactNeutral},
		{name: "strong rally", change: 12.5, want: model.ImpactPositive},
		{name: "strong selloff", change: -8.2, want: model.ImpactNegative},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := model.AssetQuote{Symbol: "X", Price: 1, Change24hPercent: tt.change, Source: model.SourceLive}
			got := Compute(q, p, ZeroNoise{})
			assert.Equal(t, tt.want, got.VaultImpact)
		})
	}
}

func TestCompute_ClampRanges(t *testing.T) {
	p := DefaultParams()
	noise := NewUniformNoise()

	quotes := []model.AssetQuote{
		{Symbol: "CALM", Price: 1.0, Change24hPercent: 0, Volume24hUSD: 0},
		{Symbol: "WILD", Price: 0.001, Change24hPercent: 95.0, Volume24hUSD: 900_000_000_000},
		{Symbol: "CRASH", Price: 50_000, Change24hPercent: -99.0, Volume24hUSD: 1},
		{Symbol: "BIG", Price: 3400, Change24hPercent: 2.5, Volume24hUSD: 14_000_000_000},
	}

	for _, q := range quotes {
		for i := 0; i < 50; i++ {
			m := Compute(q, p, noise)
			assert.GreaterOrEqual(t, m.Volatility, 0.0, "volatility low bound for %s", q.Symbol)
			assert.LessOrEqual(t, m.Volatility, 100.0, "volatility high bound for %s", q.Symbol)
			assert.GreaterOrEqual(t, m.LiquidityScore, 20.0)
			assert.LessOrEqual(t, m.LiquidityScore, 90.0)
			assert.GreaterOrEqual(t, m.TrendStrength, 15.0)
			assert.LessOrEqual(t, m.TrendStrength, 85.0)
			assert.GreaterOrEqual(t, m.DeltaNeutralSuitability, 10.0)
			assert.LessOrEqual(t, m.DeltaNeutralSuitability, 95.0)
		}
	}
}

func TestCompute_SupportBelowResistance(t *testing.T) {
	p := DefaultParams()
	q := model.AssetQuote{Symbol: "SEI", Price: 0.45, Change24hPercent: -2.4, Source: model.SourceLive}

	m := Compute(q, p, ZeroNoise{})
	require.Less(t, m.SupportLevel, q.Price)
	require.Greater(t, m.ResistanceLevel, q.Price)
}

func TestUniformNoise_Bounded(t *testing.T) {
	n := NewUniformNoise()
	for i := 0; i < 1000; i++ {
		j := n.Jitter(5)
		require.GreaterOrEqual(t, j, -5.0)
		require.LessOrEqual(t, j, 5.0)
	}
}
