package server

import (
	"context"
	"time"

	"github.com/yourorg/marketpulse/internal/derive"
	"github.com/yourorg/marketpulse/internal/fetch"
	"github.com/yourorg/marketpulse/internal/model"
	"github.com/yourorg/marketpulse/internal/otel"
	"github.com/yourorg/marketpulse/internal/sentiment"
	"github.com/yourorg/marketpulse/internal/validation"
)

// Assembler composes the pipeline stages into the response payload shapes.
// It packages only: every number it emits was computed by the derivation or
// sentiment layers.
type Assembler struct {
	quotes     *fetch.QuoteProvider
	synth      *fetch.Synthesizer
	aggregator *sentiment.Aggregator
	params     derive.Params
	noise      derive.NoiseSource
	chainID    string
	now        func() time.Time
}

// NewAssembler wires the pipeline.
func NewAssembler(quotes *fetch.QuoteProvider, synth *fetch.Synthesizer, aggregator *sentiment.Aggregator, params derive.Params, noise derive.NoiseSource, chainID string) *Assembler {
	return &Assembler{
		quotes:     quotes,
		synth:      synth,
		aggregator: aggregator,
		params:     params,
		noise:      noise,
		chainID:    chainID,
		now:        time.Now,
	}
}

// Snapshot fetches quotes for the symbols and pairs each with its derived
// metrics.
func (a *Assembler) Snapshot(ctx context.Context, symbols []string, timeframe string) model.MarketSnapshot {
	ctx, span := otel.Tracer().Start(ctx, "assembler.Snapshot")
	defer span.End()

	quotes := validation.FilterInvalid(a.quotes.GetQuotes(ctx, symbols))

	assets := make([]model.AssetView, len(quotes))
	for i, q := range quotes {
		assets[i] = model.AssetView{
			AssetQuote: q,
			Metrics:    derive.Compute(q, a.params, a.noise),
		}
	}

	return model.MarketSnapshot{
		Assets:    assets,
		Timeframe: timeframe,
		ChainID:   a.chainID,
		Timestamp: a.now().UTC(),
	}
}

// Series synthesizes a historical OHLCV series per symbol, anchored at each
// symbol's current price.
func (a *Assembler) Series(ctx context.Context, symbols []string, timeframe string, limit int) map[string][]model.Candle {
	ctx, span := otel.Tracer().Start(ctx, "assembler.Series")
	defer span.End()

	quotes := validation.FilterInvalid(a.quotes.GetQuotes(ctx, symbols))

	series := make(map[string][]model.Candle, len(quotes))
	for _, q := range quotes {
		series[q.Symbol] = a.synth.Series(q.Symbol, timeframe, limit, q.Price, q.Volume24hUSD)
	}
	return series
}

// Sentiment computes the indicator set over the given symbols.
func (a *Assembler) Sentiment(ctx context.Context, symbols []string) sentiment.Result {
	ctx, span := otel.Tracer().Start(ctx, "assembler.Sentiment")
	defer span.End()

	quotes := validation.FilterInvalid(a.quotes.GetQuotes(ctx, symbols))
	return a.aggregator.Compute(quotes)
}
