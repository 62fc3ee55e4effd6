// Package main is the entry point for the marketpulse engine, the market
// data and derived-metrics service backing the dashboard UI.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourorg/marketpulse/internal/config"
	"github.com/yourorg/marketpulse/internal/derive"
	"github.com/yourorg/marketpulse/internal/export"
	"github.com/yourorg/marketpulse/internal/fetch"
	"github.com/yourorg/marketpulse/internal/otel"
	"github.com/yourorg/marketpulse/internal/security"
	"github.com/yourorg/marketpulse/internal/sentiment"
	"github.com/yourorg/marketpulse/internal/server"
)

func main() {
	setupLogging()

	cfg := config.Load()

	shutdownTracing := otel.InitTracer(cfg.OtelEndpoint)
	defer shutdownTracing()

	srv := buildServer(cfg)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Error starting server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logrus.Fatalf("Server shutdown failed: %v", err)
	}
	logrus.Info("Server stopped")
}

// buildServer wires the pipeline: retry client, synthesizer, adapters,
// aggregator, assembler, then the HTTP layer.
func buildServer(cfg config.Config) *server.Server {
	metrics := server.RegisterMetrics()

	client := fetch.NewClient(cfg.Retry, cfg.RequestTimeout, cfg.UpstreamRPS, cfg.UpstreamBurst)
	synth := fetch.NewSynthesizer()

	network := fetch.NewNetworkProvider(fetch.NetworkOptions{
		BaseURL:         cfg.NetworkURL,
		APIKey:          cfg.APIKeys["network"],
		CacheTTL:        cfg.NetworkCacheTTL,
		FallbackEnabled: cfg.FallbackEnabled,
	}, client, synth, metrics)

	quotes := fetch.NewQuoteProvider(fetch.QuoteOptions{
		BaseURL:         cfg.QuoteURL,
		APIKey:          cfg.APIKeys["quotes"],
		CacheTTL:        cfg.QuoteCacheTTL,
		FallbackEnabled: cfg.FallbackEnabled,
		NativeSymbol:    cfg.NativeSymbol,
	}, client, synth, network, metrics)

	params := derive.DefaultParams()
	aggregator := sentiment.NewAggregator(sentiment.DefaultThresholds(), params, cfg.NativeSymbol)
	assembler := server.NewAssembler(quotes, synth, aggregator, params, derive.NewUniformNoise(), cfg.ChainID)

	var signer *security.Signer
	if cfg.SigningEnabled {
		var err error
		signer, err = security.NewSigner(cfg.SigningKeyHex)
		if err != nil {
			logrus.WithError(err).Warn("Failed to initialize response signing, continuing unsigned")
		}
	}

	var exporter *export.Exporter
	if cfg.ExportEnabled && cfg.ExportURL != "" {
		exporter = export.New(export.Config{
			URL:      cfg.ExportURL,
			APIKey:   cfg.ExportAPIKey,
			Batch:    cfg.ExportBatch,
			Interval: cfg.ExportInterval,
		})
	}

	logrus.WithFields(logrus.Fields{
		"port":          cfg.Port,
		"chain_id":      cfg.ChainID,
		"native_symbol": cfg.NativeSymbol,
		"symbols":       len(cfg.DefaultSymbols),
		"fallback":      cfg.FallbackEnabled,
		"signing":       signer != nil,
		"export":        exporter != nil,
	}).Info("Server initialized")

	return server.New(cfg, assembler, metrics, signer, exporter)
}

// setupLogging configures the logging for the application
func setupLogging() {
	logFormat := strings.ToLower(os.Getenv("LOG_FORMAT"))
	logLevel := strings.ToLower(os.Getenv("LOG_LEVEL"))

	switch logFormat {
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	default:
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	switch logLevel {
	case "debug":
		logrus.SetLevel(logrus.DebugLevel)
	case "info":
		logrus.SetLevel(logrus.InfoLevel)
	case "warn", "warning":
		logrus.SetLevel(logrus.WarnLevel)
	case "error":
		logrus.SetLevel(logrus.ErrorLevel)
	default:
		logrus.SetLevel(logrus.InfoLevel)
	}

	logrus.Info("Logging configured")
}
