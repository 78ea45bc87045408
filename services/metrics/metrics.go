package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	srcerrors "github.com/aahmdakml/MatkulBigdata/pkg/errors"
	"github.com/aahmdakml/MatkulBigdata/logger"
)

// Metrics holds the collectors of the worker. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	recordsExtracted *prometheus.CounterVec
	recordsKept      *prometheus.CounterVec
	recordsPublished prometheus.Counter
	recordsStored    prometheus.Counter
	sourceErrors     *prometheus.CounterVec
	fetchDuration    *prometheus.HistogramVec
	cycleDuration    prometheus.Histogram
}

// New creates the collectors on a fresh registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		recordsExtracted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "harga_beras",
			Name:      "records_extracted_total",
			Help:      "Records built from fetched items, per source",
		}, []string{"source"}),
		recordsKept: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "harga_beras",
			Name:      "records_kept_total",
			Help:      "Records above the confidence threshold, per source",
		}, []string{"source"}),
		recordsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "harga_beras",
			Name:      "records_published_total",
			Help:      "Records published to the stream",
		}),
		recordsStored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "harga_beras",
			Name:      "records_stored_total",
			Help:      "Records written to the store",
		}),
		sourceErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "harga_beras",
			Name:      "source_errors_total",
			Help:      "Failed source fetches, per source and error type",
		}, []string{"source", "type"}),
		fetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "harga_beras",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of page fetches, per source",
			Buckets:   prometheus.DefBuckets,
		}, []string{"source"}),
		cycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "harga_beras",
			Name:      "cycle_duration_seconds",
			Help:      "Duration of a full crawl cycle",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}),
	}

	m.registry.MustRegister(
		m.recordsExtracted,
		m.recordsKept,
		m.recordsPublished,
		m.recordsStored,
		m.sourceErrors,
		m.fetchDuration,
		m.cycleDuration,
	)
	return m
}

// Registry exposes the registry for tests and extra collectors
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Extracted counts records built by source
func (m *Metrics) Extracted(source string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.recordsExtracted.WithLabelValues(source).Add(float64(n))
}

// Kept counts records that passed the confidence filter
func (m *Metrics) Kept(source string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.recordsKept.WithLabelValues(source).Add(float64(n))
}

// Published counts records sent to the stream
func (m *Metrics) Published(n int) {
	if m == nil {
		return
	}
	m.recordsPublished.Add(float64(n))
}

// Stored counts records written to the store
func (m *Metrics) Stored(n int) {
	if m == nil {
		return
	}
	m.recordsStored.Add(float64(n))
}

// SourceError counts a failure of source, labelled with its error type
func (m *Metrics) SourceError(source string, err error) {
	if m == nil || err == nil {
		return
	}
	errType := "unknown"
	var se *srcerrors.SourceError
	if errors.As(err, &se) {
		errType = string(se.Type)
	}
	m.sourceErrors.WithLabelValues(source, errType).Inc()
}

// ObserveFetch records how long one fetch of source took
func (m *Metrics) ObserveFetch(source string, d time.Duration) {
	if m == nil {
		return
	}
	m.fetchDuration.WithLabelValues(source).Observe(d.Seconds())
}

// ObserveCycle records how long a crawl cycle took
func (m *Metrics) ObserveCycle(d time.Duration) {
	if m == nil {
		return
	}
	m.cycleDuration.Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.ForComponent("metrics").Info().Str("addr", addr).Msg("Serving metrics")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
