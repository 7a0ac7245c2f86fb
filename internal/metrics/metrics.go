// Package metrics exposes engine activity as Prometheus metrics.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Squareczm/DocumentationTool/internal/model"
)

// Namespace prefixes every metric name.
const Namespace = "filer"

// Collector holds the filer metrics on a private registry.
type Collector struct {
	registry *prometheus.Registry

	Documents       *prometheus.CounterVec
	DocumentSeconds prometheus.Histogram
	LabelerCalls    *prometheus.CounterVec
	LabelerSeconds  prometheus.Histogram
	FoldersCreated  prometheus.Counter
}

// NewCollector creates a collector with its own registry.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		Documents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "documents_total",
				Help:      "Documents processed, by outcome status and classification tier",
			},
			[]string{"status", "tier"},
		),
		DocumentSeconds: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "document_duration_seconds",
				Help:      "Time to process one document",
				Buckets:   prometheus.DefBuckets,
			},
		),
		LabelerCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "labeler_calls_total",
				Help:      "Semantic labeler calls, by result",
			},
			[]string{"result"},
		),
		LabelerSeconds: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "labeler_duration_seconds",
				Help:      "Semantic labeler latency",
				Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
		),
		FoldersCreated: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "folders_created_total",
				Help:      "Folders created in the knowledge base",
			},
		),
	}

	c.registry.MustRegister(
		c.Documents,
		c.DocumentSeconds,
		c.LabelerCalls,
		c.LabelerSeconds,
		c.FoldersCreated,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Registry returns the private registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// ObserveOutcome counts a finished document.
func (c *Collector) ObserveOutcome(o model.Outcome, elapsed time.Duration) {
	tier := string(o.Classification.Tier)
	if tier == "" {
		tier = "none"
	}
	c.Documents.WithLabelValues(string(o.Status), tier).Inc()
	c.DocumentSeconds.Observe(elapsed.Seconds())
}

// ObserveLabeler counts a labeler call.
func (c *Collector) ObserveLabeler(err error, elapsed time.Duration) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.LabelerCalls.WithLabelValues(result).Inc()
	c.LabelerSeconds.Observe(elapsed.Seconds())
}

// ObserveFoldersCreated counts newly created folders.
func (c *Collector) ObserveFoldersCreated(n int) {
	c.FoldersCreated.Add(float64(n))
}

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (c *Collector) Serve(ctx context.Context, addr string, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Serving metrics", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("metrics server shutdown: %w", err)
		}
		<-errCh
		return nil
	}
}
