// Package metrics exposes Prometheus metrics for gateway traffic and the
// catalog snapshot.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"race-calendar/internal/lib/logger/sl"
)

type Metrics struct {
	reg             *prometheus.Registry
	gatewayRequests *prometheus.CounterVec
	gatewayDuration *prometheus.HistogramVec
	snapshotVersion prometheus.Gauge
	refreshFailures prometheus.Counter
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		reg: reg,
		gatewayRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gateway_requests_total",
			Help: "Requests sent to the calendar data source.",
		}, []string{"resource", "method", "code"}),
		gatewayDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gateway_request_duration_seconds",
			Help:    "Latency of requests to the calendar data source.",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.3, 0.6, 1, 3, 6, 10},
		}, []string{"resource", "method"}),
		snapshotVersion: factory.NewGauge(prometheus.GaugeOpts{
			Name: "catalog_snapshot_version",
			Help: "Version of the currently published catalog snapshot.",
		}),
		refreshFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "catalog_refresh_failures_total",
			Help: "Catalog refreshes that failed to load from the data source.",
		}),
	}
}

// ObserveRequest records one gateway round trip. code is 0 when the request
// failed before a response arrived.
func (m *Metrics) ObserveRequest(resource, method string, code int, elapsed time.Duration) {
	m.gatewayRequests.WithLabelValues(resource, method, strconv.Itoa(code)).Inc()
	m.gatewayDuration.WithLabelValues(resource, method).Observe(elapsed.Seconds())
}

func (m *Metrics) SnapshotPublished(version uint64) {
	m.snapshotVersion.Set(float64(version))
}

func (m *Metrics) RefreshFailed() {
	m.refreshFailures.Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// Run serves /metrics on port until ctx is cancelled.
func (m *Metrics) Run(ctx context.Context, log *slog.Logger, port int) error {
	const op = "metrics.Run"
	log = log.With(slog.String("op", op), slog.Int("port", port))

	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("failed to stop metrics server", sl.Err(err))
		}
	}()

	log.Info("exposing Prometheus metrics")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
