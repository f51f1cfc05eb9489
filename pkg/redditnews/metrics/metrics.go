// Package metrics holds the server's Prometheus collectors and the optional
// listener exposing them.
package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/dapr/kit/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var log = logger.NewLogger("reddit-news.metrics")

const namespace = "reddit_news"

// Metrics are registered on their own registry so that several servers,
// tests included, can coexist in one process.
type Metrics struct {
	Registry *prometheus.Registry

	ConnectionsAccepted prometheus.Counter
	ConnectionsRejected prometheus.Counter
	Requests            *prometheus.CounterVec
	BytesWritten        prometheus.Counter
	PollCycles          prometheus.Counter
	HandleDuration      prometheus.Histogram
}

// New creates and registers all collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		Registry: reg,

		ConnectionsAccepted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "connections",
			Name:      "accepted_total",
			Help:      "Total number of accepted connections",
		}),
		ConnectionsRejected: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "connections",
			Name:      "rejected_total",
			Help:      "Total number of connections refused by the blacklist",
		}),
		Requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of responses by request method and status code",
		}, []string{"method", "status"}),
		BytesWritten: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "written_bytes_total",
			Help:      "Total bytes written to clients",
		}),
		PollCycles: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reactor",
			Name:      "poll_cycles_total",
			Help:      "Total number of completed poll cycles",
		}),
		HandleDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "handle_duration_seconds",
			Help:      "Time from read readiness until the response is queued",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}),
	}
}

// ObserveRequest counts one response.
func (m *Metrics) ObserveRequest(method string, status int, started time.Time) {
	if method == "" {
		method = "unknown"
	}
	m.Requests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	m.HandleDuration.Observe(time.Since(started).Seconds())
}

// PoolStats is a snapshot of a buffer pool's counters.
type PoolStats struct {
	Gets   uint64
	Misses uint64
}

// RegisterPool exposes a buffer pool's counters, read on every scrape.
func (m *Metrics) RegisterPool(name string, stats func() PoolStats) {
	factory := promauto.With(m.Registry)
	labels := prometheus.Labels{"pool": name}
	factory.NewCounterFunc(prometheus.CounterOpts{
		Namespace:   namespace,
		Subsystem:   "buffer_pool",
		Name:        "gets_total",
		Help:        "Total number of buffer Get operations",
		ConstLabels: labels,
	}, func() float64 { return float64(stats().Gets) })
	factory.NewCounterFunc(prometheus.CounterOpts{
		Namespace:   namespace,
		Subsystem:   "buffer_pool",
		Name:        "misses_total",
		Help:        "Total number of buffer pool misses (new allocation)",
		ConstLabels: labels,
	}, func() float64 { return float64(stats().Misses) })
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

// Serve exposes /metrics on port until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, port int) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{
		Addr:              net.JoinHostPort("", strconv.Itoa(port)),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Metrics listening on port %d", port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
