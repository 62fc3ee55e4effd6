// Package validation checks request parameters eagerly at the HTTP boundary
// and sanity-filters quote sets. Everything below this layer is total, so
// this is the only place a caller mistake turns into an error.
package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/yourorg/marketpulse/internal/model"
)

// MaxSymbolsPerRequest bounds one batch request.
const MaxSymbolsPerRequest = 50

// Limit bounds for historical series requests.
const (
	MinSeriesLimit     = 1
	MaxSeriesLimit     = 1000
	DefaultSeriesLimit = 100
)

var symbolPattern = regexp.MustCompile(`^[A-Z0-9]{1,12}(-[A-Z0-9]{1,12})?$`)

// Timeframes accepted by the sentiment endpoint.
var sentimentTimeframes = map[string]bool{
	"1h": true, "24h": true, "7d": true, "30d": true,
}

// DefaultSentimentTimeframe is used when the request names none.
const DefaultSentimentTimeframe = "24h"

// FieldError describes a single invalid request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// RequestError aggregates validation failures for a 400 response.
type RequestError struct {
	Fields []FieldError `json:"fields"`
}

func (e *RequestError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return "invalid request: " + strings.Join(parts, "; ")
}

// Add appends a field failure and returns the error for chaining.
func (e *RequestError) Add(field, message string) *RequestError {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
	return e
}

// OrNil returns nil when no field failed.
func (e *RequestError) OrNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// Symbols normalizes and validates a symbol list: uppercased, deduplicated,
// matched against the SYMBOL or BASE-QUOTE pattern.
func Symbols(raw []string) ([]string, *FieldError) {
	if len(raw) == 0 {
		return nil, nil
	}
	if len(raw) > MaxSymbolsPerRequest {
		return nil, &FieldError{Field: "symbols", Message: fmt.Sprintf("at most %d symbols per request", MaxSymbolsPerRequest)}
	}

	seen := make(map[string]bool, len(raw))
	symbols := make([]string, 0, len(raw))
	for _, r := range raw {
		s := strings.ToUpper(strings.TrimSpace(r))
		if s == "" {
			continue
		}
		if !symbolPattern.MatchString(s) {
			return nil, &FieldError{Field: "symbols", Message: fmt.Sprintf("malformed symbol %q", r)}
		}
		if !seen[s] {
			seen[s] = true
			symbols = append(symbols, s)
		}
	}
	return symbols, nil
}

// SymbolsCSV validates a comma-separated symbol list from a query string.
func SymbolsCSV(raw string) ([]string, *FieldError) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	return Symbols(strings.Split(raw, ","))
}

// Timeframe validates a market data timeframe, applying the default for an
// empty value.
func Timeframe(tf string) (string, *FieldError) {
	if tf == "" {
		return model.DefaultTimeframe, nil
	}
	if _, ok := model.Timeframes[tf]; !ok {
		return "", &FieldError{Field: "timeframe", Message: fmt.Sprintf("unknown timeframe %q", tf)}
	}
	return tf, nil
}

// SentimentTimeframe validates the sentiment window parameter.
func SentimentTimeframe(tf string) (string, *FieldError) {
	if tf == "" {
		return DefaultSentimentTimeframe, nil
	}
	if !sentimentTimeframes[tf] {
		return "", &FieldError{Field: "timeframe", Message: fmt.Sprintf("unknown timeframe %q", tf)}
	}
	return tf, nil
}

// SeriesLimit validates the historical series point count. Zero means
// unspecified and takes the default.
func SeriesLimit(limit int) (int, *FieldError) {
	if limit == 0 {
		return DefaultSeriesLimit, nil
	}
	if limit < MinSeriesLimit || limit > MaxSeriesLimit {
		return 0, &FieldError{Field: "limit", Message: fmt.Sprintf("limit must be between %d and %d", MinSeriesLimit, MaxSeriesLimit)}
	}
	return limit, nil
}

// FilterInvalid drops quotes that fail basic sanity checks. The adapters
// should never emit one, but derivation downstream assumes positive prices.
func FilterInvalid(quotes []model.AssetQuote) []model.AssetQuote {
	valid := make([]model.AssetQuote, 0, len(quotes))
	for _, q := range quotes {
		if q.IsValid() {
			valid = append(valid, q)
		}
	}
	return valid
}
