// Package export ships assembled market snapshots to an external webhook in
// batches. Export is fire-and-forget: failures are logged, never surfaced to
// the request path.
package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourorg/marketpulse/internal/model"
)

// Config holds the exporter settings.
type Config struct {
	URL      string
	APIKey   string
	Batch    int
	Interval time.Duration
}

// Exporter accumulates snapshots and flushes them when the batch fills or
// the interval elapses, whichever comes first.
type Exporter struct {
	config     Config
	httpClient *http.Client

	mu    sync.Mutex
	batch []model.MarketSnapshot

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates and starts an exporter.
func New(config Config) *Exporter {
	if config.Batch <= 0 {
		config.Batch = 100
	}
	if config.Interval <= 0 {
		config.Interval = time.Minute
	}

	ctx, cancel := context.WithCancel(context.Background())
	e := &Exporter{
		config:     config,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		batch:      make([]model.MarketSnapshot, 0, config.Batch),
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
	go e.run()

	logrus.WithFields(logrus.Fields{
		"batch_size": config.Batch,
		"interval":   config.Interval,
	}).Info("Snapshot exporter started")
	return e
}

// Add queues a snapshot for export.
func (e *Exporter) Add(snapshot model.MarketSnapshot) {
	e.mu.Lock()
	e.batch = append(e.batch, snapshot)
	full := len(e.batch) >= e.config.Batch
	e.mu.Unlock()

	if full {
		go e.flush()
	}
}

// Close flushes the remaining batch and stops the background loop.
func (e *Exporter) Close() {
	e.cancel()
	<-e.done
	e.flush()
}

func (e *Exporter) run() {
	defer close(e.done)
	ticker := time.NewTicker(e.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			e.flush()
		case <-e.ctx.Done():
			return
		}
	}
}

func (e *Exporter) flush() {
	e.mu.Lock()
	if len(e.batch) == 0 {
		e.mu.Unlock()
		return
	}
	batch := e.batch
	e.batch = make([]model.MarketSnapshot, 0, e.config.Batch)
	e.mu.Unlock()

	if err := e.send(batch); err != nil {
		logrus.WithError(err).Warnf("Failed to export %d snapshots", len(batch))
		return
	}
	logrus.Debugf("Exported %d snapshots", len(batch))
}

func (e *Exporter) send(batch []model.MarketSnapshot) error {
	body, err := json.Marshal(map[string]interface{}{
		"snapshots":  batch,
		"exportedAt": time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("marshaling batch: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, e.config.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating export request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if e.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.config.APIKey)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook status %d", resp.StatusCode)
	}
	return nil
}
