// Package metrics holds the Prometheus collectors of the client and the
// optional HTTP endpoint that exposes them.
package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Request outcomes.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

var (
	requestCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tasksync_api_requests_total",
			Help: "Total number of backend API requests",
		},
		[]string{"op", "outcome"},
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tasksync_api_request_duration_seconds",
			Help:    "Duration of backend API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op"},
	)

	rateLimitWait = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tasksync_rate_limit_wait_seconds",
			Help:    "Time spent waiting on the client-side rate limiter",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5},
		},
	)

	staleFetches = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tasksync_stale_fetches_total",
			Help: "Fetch results discarded because a newer fetch was issued",
		},
	)
)

// ObserveRequest records one finished API call.
func ObserveRequest(op string, start time.Time, err error) {
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	requestCount.WithLabelValues(op, outcome).Inc()
	requestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// ObserveRateLimitWait records time spent blocked on the rate limiter.
func ObserveRateLimitWait(d time.Duration) {
	rateLimitWait.Observe(d.Seconds())
}

// StaleFetch counts a discarded fetch result.
func StaleFetch() {
	staleFetches.Inc()
}

// RequestCount returns the counter for op and outcome.
func RequestCount(op, outcome string) prometheus.Counter {
	return requestCount.WithLabelValues(op, outcome)
}

// StaleFetches returns the stale fetch counter.
func StaleFetches() prometheus.Counter {
	return staleFetches
}

// Handler serves /metrics and /healthz.
func Handler() http.Handler {
	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return r
}

// Serve listens on addr until ctx is done.
func Serve(ctx context.Context, addr string, logger *log.Logger) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return serve(ctx, ln, logger)
}

func serve(ctx context.Context, ln net.Listener, logger *log.Logger) error {
	srv := &http.Server{
		Handler:           Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.Serve(ln)
	}()
	logger.Info("metrics server listening", "addr", ln.Addr().String())

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}
