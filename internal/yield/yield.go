// Package yield implements the portfolio yield simulation. The model is a
// simple linear accrual, not compounding: the dashboard treats it as a
// display approximation of returns since deposit.
package yield

import (
	"time"

	"github.com/yourorg/marketpulse/internal/model"
)

const (
	daysPerYear = 365.0
	msPerDay    = 86_400_000.0
)

// Simulate converts a principal, deposit timestamp and annualized rate into
// the accrued and daily yield as of now. It never fails: a future deposit,
// non-positive principal or negative rate all clamp to zero yield.
func Simulate(principal float64, depositTimestampMs int64, annualRateFraction float64, now time.Time) model.SimulatedYieldResult {
	if principal <= 0 || annualRateFraction <= 0 {
		return model.SimulatedYieldResult{}
	}

	elapsedMs := float64(now.UnixMilli() - depositTimestampMs)
	if elapsedMs <= 0 {
		return model.SimulatedYieldResult{}
	}

	elapsedDays := elapsedMs / msPerDay
	dailyRate := annualRateFraction / daysPerYear

	return model.SimulatedYieldResult{
		TotalYield: principal * dailyRate * elapsedDays,
		DailyYield: principal * dailyRate,
	}
}
