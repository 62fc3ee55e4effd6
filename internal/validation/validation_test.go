package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/marketpulse/internal/model"
)

func TestSymbolsCSV(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    []string
		wantErr bool
	}{
		{name: "empty means default set", raw: "", want: nil},
		{name: "normalizes case and spacing", raw: " sei, usdc ", want: []string{"SEI", "USDC"}},
		{name: "pair symbols", raw: "SEI-USDC,WETH", want: []string{"SEI-USDC", "WETH"}},
		{name: "deduplicates", raw: "SEI,sei,SEI", want: []string{"SEI"}},
		{name: "rejects malformed", raw: "SEI,$$$", wantErr: true},
		{name: "rejects overlong symbol", raw: strings.Repeat("A", 13), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, fieldErr := SymbolsCSV(tt.raw)
			if tt.wantErr {
				require.NotNil(t, fieldErr)
				assert.Equal(t, "symbols", fieldErr.Field)
				return
			}
			require.Nil(t, fieldErr)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSymbols_TooMany(t *testing.T) {
	raw := make([]string, MaxSymbolsPerRequest+1)
	for i := range raw {
		raw[i] = "A" + string(rune('A'+i%26))
	}

	_, fieldErr := Symbols(raw)
	require.NotNil(t, fieldErr)
	assert.Equal(t, "symbols", fieldErr.Field)
}

func TestTimeframe(t *testing.T) {
	tf, fieldErr := Timeframe("")
	require.Nil(t, fieldErr)
	assert.Equal(t, model.DefaultTimeframe, tf)

	tf, fieldErr = Timeframe("4h")
	require.Nil(t, fieldErr)
	assert.Equal(t, "4h", tf)

	_, fieldErr = Timeframe("2w")
	require.NotNil(t, fieldErr)
	assert.Equal(t, "timeframe", fieldErr.Field)
}

func TestSentimentTimeframe(t *testing.T) {
	tf, fieldErr := SentimentTimeframe("")
	require.Nil(t, fieldErr)
	assert.Equal(t, DefaultSentimentTimeframe, tf)

	_, fieldErr = SentimentTimeframe("5m")
	require.NotNil(t, fieldErr)
}

func TestSeriesLimit(t *testing.T) {
	tests := []struct {
		name    string
		limit   int
		want    int
		wantErr bool
	}{
		{name: "unspecified takes default", limit: 0, want: DefaultSeriesLimit},
		{name: "minimum", limit: 1, want: 1},
		{name: "maximum", limit: 1000, want: 1000},
		{name: "too large", limit: 1001, wantErr: true},
		{name: "negative", limit: -5, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, fieldErr := SeriesLimit(tt.limit)
			if tt.wantErr {
				require.NotNil(t, fieldErr)
				assert.Equal(t, "limit", fieldErr.Field)
				return
			}
			require.Nil(t, fieldErr)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFilterInvalid(t *testing.T) {
	quotes := []model.AssetQuote{
		{Symbol: "SEI", Price: 0.45, Source: model.SourceLive},
		{Symbol: "", Price: 1.0, Source: model.SourceLive},          // missing symbol
		{Symbol: "BAD", Price: 0, Source: model.SourceLive},         // non-positive price
		{Symbol: "NEG", Price: 1, Volume24hUSD: -1, Source: model.SourceLive},
		{Symbol: "OK", Price: 2.0, Source: model.SourceFallback},
	}

	valid := FilterInvalid(quotes)

	require.Len(t, valid, 2)
	assert.Equal(t, "SEI", valid[0].Symbol)
	assert.Equal(t, "OK", valid[1].Symbol)
}

func TestRequestError_Aggregation(t *testing.T) {
	reqErr := &RequestError{}
	assert.NoError(t, reqErr.OrNil())

	reqErr.Add("limit", "out of range").Add("timeframe", "unknown")
	err := reqErr.OrNil()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "limit")
	assert.Contains(t, err.Error(), "timeframe")
}
