// Package metrics exposes Prometheus collectors for the sky layer: weather
// fetches, starfield frame health and the resolved sky.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/litescript/ls-sky/internal/forecast"
	"github.com/litescript/ls-sky/internal/sky"
)

const namespace = "ls_sky"

// Metrics holds every collector on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	fetchesTotal  *prometheus.CounterVec
	fetchDuration prometheus.Histogram

	framesTotal    prometheus.Counter
	meteorsTotal   prometheus.Counter
	throttlesTotal prometheus.Counter
	fps            prometheus.Gauge

	resolved *prometheus.GaugeVec
}

// New creates and registers all collectors.
func New() (*Metrics, error) {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.fetchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "weather_fetches_total",
			Help:      "Total number of weather fetches",
		},
		[]string{"status"}, // success, error, rate_limited
	)
	m.fetchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "weather_fetch_duration_seconds",
		Help:      "Time taken to fetch current weather",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
	})
	m.framesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "starfield_frames_total",
		Help:      "Total number of starfield frames drawn",
	})
	m.meteorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "starfield_meteors_total",
		Help:      "Total number of meteors spawned",
	})
	m.throttlesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "starfield_throttles_total",
		Help:      "Times the starfield stopped for low frame rate",
	})
	m.fps = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "starfield_fps",
		Help:      "Most recent starfield frame rate estimate",
	})
	m.resolved = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "resolved_info",
			Help:      "The mode and weather currently shown, value is always 1",
		},
		[]string{"mode", "weather"},
	)

	for _, c := range []prometheus.Collector{
		m.fetchesTotal, m.fetchDuration, m.framesTotal, m.meteorsTotal,
		m.throttlesTotal, m.fps, m.resolved,
	} {
		if err := m.registry.Register(c); err != nil {
			return nil, fmt.Errorf("register collector: %w", err)
		}
	}
	return m, nil
}

// Registry returns the private registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveFetch records one weather fetch.
func (m *Metrics) ObserveFetch(d time.Duration, err error) {
	status := "success"
	switch {
	case errors.Is(err, forecast.ErrRateLimited):
		status = "rate_limited"
	case err != nil:
		status = "error"
	}
	m.fetchesTotal.WithLabelValues(status).Inc()
	if d > 0 {
		m.fetchDuration.Observe(d.Seconds())
	}
}

// FrameDrawn counts a starfield frame.
func (m *Metrics) FrameDrawn() { m.framesTotal.Inc() }

// MeteorSpawned counts a meteor.
func (m *Metrics) MeteorSpawned() { m.meteorsTotal.Inc() }

// FPSMeasured records a frame rate estimate.
func (m *Metrics) FPSMeasured(fps float64) { m.fps.Set(fps) }

// Throttled counts a low frame rate stop.
func (m *Metrics) Throttled(fps float64) {
	m.fps.Set(fps)
	m.throttlesTotal.Inc()
}

// SetResolved records what the sky shows.
func (m *Metrics) SetResolved(mode sky.Mode, weather sky.Condition) {
	m.resolved.Reset()
	m.resolved.WithLabelValues(string(mode), string(weather)).Set(1)
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorHandling: promhttp.HTTPErrorOnError,
	})
}

// Serve exposes /metrics on addr until ctx is done.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics server: %w", err)
	}
}
