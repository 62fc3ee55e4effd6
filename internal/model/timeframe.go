package model

import "time"

// Timeframes accepted by the market data endpoints, mapped to the candle
// spacing used when a historical series is synthesized.
var Timeframes = map[string]time.Duration{
	"1m":  time.Minute,
	"5m":  5 * time.Minute,
	"15m": 15 * time.Minute,
	"1h":  time.Hour,
	"4h":  4 * time.Hour,
	"1d":  24 * time.Hour,
}

// DefaultTimeframe is used when a request does not name one.
const DefaultTimeframe = "1h"

// TimeframeDuration returns the candle spacing for tf, defaulting to the
// spacing of DefaultTimeframe for unknown values.
func TimeframeDuration(tf string) time.Duration {
	if d, ok := Timeframes[tf]; ok {
		return d
	}
	return Timeframes[DefaultTimeframe]
}
