// Package derive computes the secondary analytics for a single asset quote.
// Every function here is pure apart from the injected noise source, and
// total: any quote in, clamped metrics out.
package derive

import (
	"math"

	"github.com/yourorg/marketpulse/internal/model"
)

// Params holds the tunable constants behind the derivation formulas. The
// values are empirical product constants carried over as-is; they are not
// derived from first principles.
type Params struct {
	// ReferenceVolume is the 24h USD volume that maps to a full liquidity
	// contribution
	ReferenceVolume float64

	// FundingScale converts the 24h change fraction into a funding rate
	FundingScale float64

	// VaultImpactThresholdPct splits POSITIVE/NEGATIVE from NEUTRAL. The
	// boundary itself is NEUTRAL: a move must strictly exceed the
	// threshold to classify.
	VaultImpactThresholdPct float64

	// Jitter scales per formula
	VolatilityJitter   float64
	LiquidityJitter    float64
	TrendJitter        float64
	DeltaNeutralJitter float64
}

// DefaultParams returns the production constants.
func DefaultParams() Params {
	return Params{
		ReferenceVolume:         1_000_000_000,
		FundingScale:            0.01,
		VaultImpactThresholdPct: 3.0,
		VolatilityJitter:        5,
		LiquidityJitter:         5,
		TrendJitter:             5,
		DeltaNeutralJitter:      5,
	}
}

// Compute derives all metrics for one quote. Network metrics play no part
// here; they only feed the sentiment aggregator.
func Compute(q model.AssetQuote, p Params, noise NoiseSource) model.DerivedMetrics {
	absChange := math.Abs(q.Change24hPercent)

	return model.DerivedMetrics{
		Volatility:              clamp(absChange*5+10+noise.Jitter(p.VolatilityJitter), 0, 100),
		LiquidityScore:          clamp(q.Volume24hUSD/p.ReferenceVolume*30+40+noise.Jitter(p.LiquidityJitter), 20, 90),
		TrendStrength:           clamp(50+q.Change24hPercent*10+noise.Jitter(p.TrendJitter), 15, 85),
		DeltaNeutralSuitability: clamp(90-absChange*8+noise.Jitter(p.DeltaNeutralJitter), 10, 95),
		SupportLevel:            q.Price * (1 - absChange/200),
		ResistanceLevel:         q.Price * (1 + absChange/200),
		FundingRate:             q.Change24hPercent / 100 * p.FundingScale,
		VaultImpact:             classifyVaultImpact(q.Change24hPercent, p.VaultImpactThresholdPct),
	}
}

// classifyVaultImpact maps a 24h move onto the three-way vault impact. The
// threshold is exclusive: exactly +3% stays NEUTRAL.
func classifyVaultImpact(changePct, thresholdPct float64) model.VaultImpact {
	switch {
	case changePct > thresholdPct:
		return model.ImpactPositive
	case changePct < -thresholdPct:
		return model.ImpactNegative
	default:
		return model.ImpactNeutral
	}
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
