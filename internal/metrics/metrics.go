// Package metrics exports synchronization counters to Prometheus.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/five82/docwatch/internal/poller"
)

const namespace = "docwatch"

// Observer records poll and search outcomes.
type Observer struct {
	polls         *prometheus.CounterVec
	fetchDuration *prometheus.HistogramVec
	searches      *prometheus.CounterVec
}

var _ poller.Observer = (*Observer)(nil)

// NewObserver registers the collectors on reg. Collectors already registered
// by an earlier observer are reused.
func NewObserver(reg prometheus.Registerer) (*Observer, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	o := &Observer{
		polls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_total",
			Help:      "Resource loads by mode and outcome.",
		}, []string{"resource", "mode", "outcome"}),
		fetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Latency of resource fetches.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"resource"}),
		searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_queries_total",
			Help:      "Search queries by outcome.",
		}, []string{"outcome"}),
	}

	var err error
	if o.polls, err = register(reg, o.polls); err != nil {
		return nil, fmt.Errorf("register poll counter: %w", err)
	}
	if o.fetchDuration, err = register(reg, o.fetchDuration); err != nil {
		return nil, fmt.Errorf("register fetch histogram: %w", err)
	}
	if o.searches, err = register(reg, o.searches); err != nil {
		return nil, fmt.Errorf("register search counter: %w", err)
	}
	return o, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// ObserveLoad implements poller.Observer.
func (o *Observer) ObserveLoad(resource string, mode poller.Mode, outcome poller.Outcome, elapsed time.Duration) {
	if o == nil {
		return
	}
	o.polls.WithLabelValues(resource, mode.String(), string(outcome)).Inc()
	if outcome != poller.OutcomeSkipped {
		o.fetchDuration.WithLabelValues(resource).Observe(elapsed.Seconds())
	}
}

// ObserveQuery records one search outcome (results, empty, cached, failed, stale).
func (o *Observer) ObserveQuery(outcome string) {
	if o == nil {
		return
	}
	o.searches.WithLabelValues(outcome).Inc()
}

// Serve exposes /metrics on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, gatherer prometheus.Gatherer, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen metrics: %w", err)
	}
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	go func() {
		logger.Info("metrics listening", zap.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", zap.Error(err))
		}
	}()
	return nil
}
