package telemetry

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics are the pipeline's per-file counters, labelled by target.
type Metrics struct {
	Files     *prometheus.CounterVec
	Actions   *prometheus.CounterVec
	Transform *prometheus.HistogramVec
	registry  *prometheus.Registry
}

func New() *Metrics {
	m := &Metrics{
		Files: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "actionkit_files_total",
			Help: "Files seen by the pipeline, by target and result (transformed, skipped, failed).",
		}, []string{"target", "result"}),
		Actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "actionkit_actions_total",
			Help: "Server actions extracted, by target.",
		}, []string{"target"}),
		Transform: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "actionkit_transform_seconds",
			Help:    "Time spent parsing and transforming one file.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
		}, []string{"target"}),
		registry: prometheus.NewRegistry(),
	}
	m.registry.MustRegister(m.Files, m.Actions, m.Transform)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) ObserveFile(target, result string, actions int, took time.Duration) {
	if m == nil {
		return
	}
	m.Files.WithLabelValues(target, result).Inc()
	if actions > 0 {
		m.Actions.WithLabelValues(target).Add(float64(actions))
	}
	if result != "skipped" {
		m.Transform.WithLabelValues(target).Observe(took.Seconds())
	}
}

// Expose serves /metrics on port in the background.
func (m *Metrics) Expose(port int) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
