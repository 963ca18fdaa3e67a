// Package metrics exposes refresh activity as Prometheus metrics.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/dixieflatline76/Potd/pkg/refresh"
	"github.com/dixieflatline76/Potd/util/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector records refresh metrics. It implements refresh.Metrics.
type Collector struct {
	refreshes      *prometheus.CounterVec
	refreshLatency prometheus.Histogram
	scheduled      *prometheus.CounterVec
	nextDelay      prometheus.Gauge
	errorsShown    *prometheus.CounterVec
}

var _ refresh.Metrics = (*Collector)(nil)

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "potd_refreshes_total",
			Help: "Finished refreshes by outcome.",
		}, []string{"state"}),
		refreshLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "potd_refresh_duration_seconds",
			Help:    "Duration of finished refreshes in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
		}),
		scheduled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "potd_refreshes_scheduled_total",
			Help: "Scheduled refreshes, split into regular refreshes and fast retries.",
		}, []string{"retry"}),
		nextDelay: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "potd_next_refresh_delay_seconds",
			Help: "Delay of the most recently scheduled refresh in seconds.",
		}),
		errorsShown: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "potd_errors_shown_total",
			Help: "Refresh errors shown to the user by kind.",
		}, []string{"kind"}),
	}

	reg.MustRegister(
		c.refreshes,
		c.refreshLatency,
		c.scheduled,
		c.nextDelay,
		c.errorsShown,
	)

	return c
}

// RefreshFinished records the outcome of a refresh.
func (c *Collector) RefreshFinished(state refresh.State, elapsed time.Duration) {
	c.refreshes.WithLabelValues(state.String()).Inc()
	c.refreshLatency.Observe(elapsed.Seconds())
}

// RefreshScheduled records a scheduled refresh.
func (c *Collector) RefreshScheduled(delay time.Duration, retry bool) {
	c.scheduled.WithLabelValues(strconv.FormatBool(retry)).Inc()
	c.nextDelay.Set(delay.Seconds())
}

// ErrorSurfaced records an error shown to the user.
func (c *Collector) ErrorSurfaced(kind refresh.ErrorKind) {
	c.errorsShown.WithLabelValues(kind.String()).Inc()
}

// Handler returns the HTTP handler for Prometheus scrapes.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	return mux
}

// Serve serves the metrics of gatherer on addr until ctx is done.
func Serve(ctx context.Context, addr string, gatherer prometheus.Gatherer) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           Handler(gatherer),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Metrics server shutdown failed: %v", err)
		}
	}()
	log.Printf("Serving metrics on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
