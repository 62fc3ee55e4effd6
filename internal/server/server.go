// Package server hosts the HTTP boundary of the engine: routing, request
// validation, response assembly and instrumentation.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/yourorg/marketpulse/internal/config"
	"github.com/yourorg/marketpulse/internal/export"
	"github.com/yourorg/marketpulse/internal/security"
)

const version = "1.0.0"

// Server represents the engine's HTTP server instance.
type Server struct {
	config    config.Config
	assembler *Assembler
	metrics   *Metrics
	signer    *security.Signer
	exporter  *export.Exporter
	limiter   *rate.Limiter
	server    *http.Server
	startTime time.Time
}

// New creates a server. signer and exporter may be nil when the features are
// disabled; metrics may be nil in tests.
func New(cfg config.Config, assembler *Assembler, metrics *Metrics, signer *security.Signer, exporter *export.Exporter) *Server {
	s := &Server{
		config:    cfg,
		assembler: assembler,
		metrics:   metrics,
		signer:    signer,
		exporter:  exporter,
		startTime: time.Now(),
	}
	if cfg.RequestRPS > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RequestRPS), cfg.RequestBurst)
	}

	s.server = &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      s.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Router builds the route table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.recoverMiddleware)
	r.Use(s.instrumentMiddleware)
	if s.limiter != nil {
		r.Use(s.rateLimitMiddleware)
	}

	r.HandleFunc("/market/data", s.handleMarketData).Methods(http.MethodGet)
	r.HandleFunc("/market/data", s.handleMarketDataSeries).Methods(http.MethodPost)
	r.HandleFunc("/market/sentiment", s.handleSentiment).Methods(http.MethodGet)
	r.HandleFunc("/portfolio/yield", s.handlePortfolioYield).Methods(http.MethodPost)

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	return r
}

// ListenAndServe starts the HTTP server and blocks until it stops.
func (s *Server) ListenAndServe() error {
	logrus.Infof("Server starting on port %s", s.config.Port)
	return s.server.ListenAndServe()
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.exporter != nil {
		s.exporter.Close()
	}
	return s.server.Shutdown(ctx)
}

// recoverMiddleware converts a pipeline panic into a logged 500. The layers
// below the adapters are total, so this only fires on genuine bugs.
func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logrus.WithField("panic", rec).Error("Request handler panicked")
				s.internalError(w, "internal error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// instrumentMiddleware records request counts and latency per route.
func (s *Server) instrumentMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.metrics == nil {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		endpoint := r.URL.Path
		s.metrics.requestCounter.WithLabelValues(endpoint, http.StatusText(recorder.status)).Inc()
		s.metrics.requestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	})
}

// rateLimitMiddleware applies the optional server-side request limit.
func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			s.writeJSON(w, http.StatusTooManyRequests, map[string]interface{}{
				"success": false,
				"error":   "rate limit exceeded",
				"chainId": s.config.ChainID,
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
