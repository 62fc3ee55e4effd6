package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourorg/marketpulse/internal/validation"
	"github.com/yourorg/marketpulse/internal/yield"
)

// handleMarketData serves GET /market/data: the current quote set with
// derived metrics. A provider outage degrades to FALLBACK-tagged data, never
// to an error.
func (s *Server) handleMarketData(w http.ResponseWriter, r *http.Request) {
	symbols, fieldErr := validation.SymbolsCSV(r.URL.Query().Get("symbols"))
	if fieldErr != nil {
		s.validationError(w, fieldErr)
		return
	}
	if len(symbols) == 0 {
		symbols = s.config.DefaultSymbols
	}

	timeframe, fieldErr := validation.Timeframe(r.URL.Query().Get("timeframe"))
	if fieldErr != nil {
		s.validationError(w, fieldErr)
		return
	}

	snapshot := s.assembler.Snapshot(r.Context(), symbols, timeframe)
	if s.exporter != nil {
		s.exporter.Add(snapshot)
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"data":      snapshot.Assets,
		"timeframe": snapshot.Timeframe,
		"timestamp": snapshot.Timestamp.Format(time.RFC3339),
		"chainId":   snapshot.ChainID,
	})
}

// marketDataRequest is the POST /market/data body.
type marketDataRequest struct {
	Symbols   []string `json:"symbols"`
	Timeframe string   `json:"timeframe"`
	Limit     int      `json:"limit"`
	ChainID   string   `json:"chainId"`
}

// handleMarketDataSeries serves POST /market/data: synthetic historical
// OHLCV series per symbol.
func (s *Server) handleMarketDataSeries(w http.ResponseWriter, r *http.Request) {
	var req marketDataRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.validationError(w, &validation.FieldError{Field: "body", Message: "invalid JSON body"})
		return
	}

	reqErr := &validation.RequestError{}
	symbols, fieldErr := validation.Symbols(req.Symbols)
	if fieldErr != nil {
		reqErr.Add(fieldErr.Field, fieldErr.Message)
	}
	timeframe, fieldErr := validation.Timeframe(req.Timeframe)
	if fieldErr != nil {
		reqErr.Add(fieldErr.Field, fieldErr.Message)
	}
	limit, fieldErr := validation.SeriesLimit(req.Limit)
	if fieldErr != nil {
		reqErr.Add(fieldErr.Field, fieldErr.Message)
	}
	if err := reqErr.OrNil(); err != nil {
		s.validationErrors(w, reqErr)
		return
	}
	if len(symbols) == 0 {
		symbols = s.config.DefaultSymbols
	}

	chainID := s.config.ChainID
	if req.ChainID != "" {
		chainID = req.ChainID
	}

	series := s.assembler.Series(r.Context(), symbols, timeframe, limit)

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"data":      series,
		"timeframe": timeframe,
		"limit":     limit,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"chainId":   chainID,
	})
}

// handleSentiment serves GET /market/sentiment.
func (s *Server) handleSentiment(w http.ResponseWriter, r *http.Request) {
	timeframe, fieldErr := validation.SentimentTimeframe(r.URL.Query().Get("timeframe"))
	if fieldErr != nil {
		s.validationError(w, fieldErr)
		return
	}

	result := s.assembler.Sentiment(r.Context(), s.config.DefaultSymbols)
	if s.metrics != nil {
		s.metrics.sentimentScore.Set(result.Stats.SentimentScore)
		s.metrics.fearIndex.Set(result.Stats.FearIndex)
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data": map[string]interface{}{
			"sentimentMetrics": result.Indicators,
			"stats":            result.Stats,
			"timeframe":        timeframe,
			"lastUpdated":      time.Now().UTC().Format(time.RFC3339),
		},
	})
}

// yieldRequest is the POST /portfolio/yield body.
type yieldRequest struct {
	Principal          float64 `json:"principal"`
	DepositTimestampMs int64   `json:"depositTimestampMs"`
	AnnualRateFraction float64 `json:"annualRateFraction"`
}

// handlePortfolioYield serves POST /portfolio/yield: the linear-accrual
// yield simulation used by the portfolio views.
func (s *Server) handlePortfolioYield(w http.ResponseWriter, r *http.Request) {
	var req yieldRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.validationError(w, &validation.FieldError{Field: "body", Message: "invalid JSON body"})
		return
	}

	result := yield.Simulate(req.Principal, req.DepositTimestampMs, req.AnnualRateFraction, time.Now())

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"data":      result,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// handleHealth is a simple health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":    "OK",
		"version":   version,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// handleStatus provides detailed service status information
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "operational",
		"version": version,
		"uptime":  time.Since(s.startTime).String(),
		"chainId": s.config.ChainID,
		"configuration": map[string]interface{}{
			"fallback_enabled": s.config.FallbackEnabled,
			"quote_cache_ttl":  s.config.QuoteCacheTTL.String(),
			"signing":          s.signer != nil,
			"export":           s.exporter != nil,
		},
	})
}

// writeJSON marshals payload, signs it when signing is enabled, and writes
// the response.
func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		logrus.WithError(err).Error("Failed to marshal response")
		http.Error(w, `{"success":false,"error":"internal error"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if s.signer != nil {
		if sig, err := s.signer.Sign(body); err == nil {
			w.Header().Set("X-Signature", sig)
			w.Header().Set("X-Public-Key", s.signer.PublicKey())
		} else {
			logrus.WithError(err).Warn("Failed to sign response")
		}
	}
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// validationError writes a 400 for a single bad field.
func (s *Server) validationError(w http.ResponseWriter, fieldErr *validation.FieldError) {
	reqErr := &validation.RequestError{}
	reqErr.Add(fieldErr.Field, fieldErr.Message)
	s.validationErrors(w, reqErr)
}

// validationErrors writes a 400 with structured field detail.
func (s *Server) validationErrors(w http.ResponseWriter, reqErr *validation.RequestError) {
	logrus.WithField("fields", reqErr.Fields).Debug("Rejecting invalid request")
	s.writeJSON(w, http.StatusBadRequest, map[string]interface{}{
		"success": false,
		"error":   "validation failed",
		"details": reqErr.Fields,
		"chainId": s.config.ChainID,
	})
}

// internalError writes a 500. Upstream failures never reach here; this is
// for unexpected faults only.
func (s *Server) internalError(w http.ResponseWriter, msg string) {
	s.writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
		"success": false,
		"error":   msg,
		"chainId": s.config.ChainID,
	})
}
