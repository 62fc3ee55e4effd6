// Package config provides configuration loading and management for the application.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// RetryPolicy controls the retrying fetch client.
type RetryPolicy struct {
	// MaxAttempts bounds the total number of tries, including the first
	MaxAttempts int

	// BaseDelay is the first backoff wait; attempt n waits BaseDelay * 2^n
	BaseDelay time.Duration
}

// Config holds all application configuration. It is loaded once in main and
// passed by value into the pipeline; nothing below the HTTP layer reads the
// process environment.
type Config struct {
	// HTTP server port
	Port string

	// Base URLs for the upstream providers
	QuoteURL   string
	NetworkURL string

	// API keys for upstream providers, keyed by provider name
	APIKeys map[string]string

	// Chain identity for response tagging
	ChainID      string
	NativeSymbol string

	// Symbols served when a request does not name any
	DefaultSymbols []string

	// OpenTelemetry endpoint for observability
	OtelEndpoint string

	// Retry and timeout policy for upstream calls
	Retry          RetryPolicy
	RequestTimeout time.Duration

	// Read-through cache windows
	QuoteCacheTTL   time.Duration
	NetworkCacheTTL time.Duration

	// FallbackEnabled switches synthetic data generation on upstream failure.
	// Disabling it is only useful in tests that assert hard failures.
	FallbackEnabled bool

	// Upstream rate limit (requests per second, with burst)
	UpstreamRPS   float64
	UpstreamBurst int

	// Optional server-side request rate limit (0 disables)
	RequestRPS   float64
	RequestBurst int

	// Response signing
	SigningEnabled bool
	SigningKeyHex  string

	// Snapshot export
	ExportEnabled  bool
	ExportURL      string
	ExportAPIKey   string
	ExportBatch    int
	ExportInterval time.Duration
}

// Load creates a new Config from environment variables
func Load() Config {
	return Config{
		Port:            GetEnvOrDefault("PORT", "8080"),
		QuoteURL:        GetEnvOrDefault("QUOTE_URL", "https://api.coingecko.com/api/v3"),
		NetworkURL:      GetEnvOrDefault("NETWORK_URL", "https://rpc.sei-apis.com"),
		APIKeys:         loadAPIKeys(),
		ChainID:         GetEnvOrDefault("CHAIN_ID", "1329"),
		NativeSymbol:    strings.ToUpper(GetEnvOrDefault("NATIVE_SYMBOL", "SEI")),
		DefaultSymbols:  splitSymbols(GetEnvOrDefault("DEFAULT_SYMBOLS", "SEI,USDC,USDT,WETH,WBTC")),
		OtelEndpoint:    GetEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		Retry:           loadRetryPolicy(),
		RequestTimeout:  GetEnvAsDuration("REQUEST_TIMEOUT", 10*time.Second),
		QuoteCacheTTL:   GetEnvAsDuration("QUOTE_CACHE_TTL", 60*time.Second),
		NetworkCacheTTL: GetEnvAsDuration("NETWORK_CACHE_TTL", 30*time.Second),
		FallbackEnabled: GetEnvAsBool("FALLBACK_ENABLED", true),
		UpstreamRPS:     GetEnvAsFloat("UPSTREAM_RPS", 10.0),
		UpstreamBurst:   GetEnvAsInt("UPSTREAM_BURST", 20),
		RequestRPS:      GetEnvAsFloat("RATE_LIMIT_RPS", 0),
		RequestBurst:    GetEnvAsInt("RATE_LIMIT_BURST", 20),
		SigningEnabled:  GetEnvAsBool("SIGNING_ENABLED", false),
		SigningKeyHex:   os.Getenv("SIGNING_KEY"),
		ExportEnabled:   GetEnvAsBool("EXPORT_ENABLED", false),
		ExportURL:       os.Getenv("EXPORT_URL"),
		ExportAPIKey:    os.Getenv("EXPORT_API_KEY"),
		ExportBatch:     GetEnvAsInt("EXPORT_BATCH_SIZE", 100),
		ExportInterval:  GetEnvAsDuration("EXPORT_INTERVAL", time.Minute),
	}
}

func loadRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: GetEnvAsInt("RETRY_MAX_ATTEMPTS", 3),
		BaseDelay:   GetEnvAsDuration("RETRY_BASE_DELAY", 500*time.Millisecond),
	}
}

func loadAPIKeys() map[string]string {
	keys := map[string]string{}
	if k := os.Getenv("QUOTE_API_KEY"); k != "" {
		keys["quotes"] = k
	}
	if k := os.Getenv("NETWORK_API_KEY"); k != "" {
		keys["network"] = k
	}
	return keys
}

func splitSymbols(raw string) []string {
	parts := strings.Split(raw, ",")
	symbols := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.ToUpper(strings.TrimSpace(p)); s != "" {
			symbols = append(symbols, s)
		}
	}
	return symbols
}

// GetEnv retrieves an environment variable and whether it exists
func GetEnv(key string) (string, bool) {
	value, exists := os.LookupEnv(key)
	return value, exists
}

// GetEnvOrDefault retrieves an environment variable or returns the default value if not set
func GetEnvOrDefault(key, defaultValue string) string {
	if value, exists := GetEnv(key); exists {
		return value
	}
	return defaultValue
}

// GetEnvAsInt retrieves an environment variable as an integer with a default value
func GetEnvAsInt(key string, defaultValue int) int {
	if value, exists := GetEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// GetEnvAsFloat retrieves an environment variable as a float with a default value
func GetEnvAsFloat(key string, defaultValue float64) float64 {
	if value, exists := GetEnv(key); exists {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// GetEnvAsBool retrieves an environment variable as a boolean with a default value
func GetEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := GetEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// GetEnvAsDuration retrieves an environment variable as a duration with a default value
func GetEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := GetEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
