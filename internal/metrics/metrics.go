// Package metrics owns the Prometheus registry exposed on /metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"NewsNarrator/internal/domain"
	"NewsNarrator/internal/ports"
)

const namespace = "newsnarrator"

// Metrics is a ports.Recorder backed by its own registry.
type Metrics struct {
	registry *prometheus.Registry

	articlesProcessed prometheus.Counter
	articlesFailed    *prometheus.CounterVec
	narrations        *prometheus.CounterVec
	runDuration       prometheus.Histogram
	runRecords        prometheus.Histogram
}

var _ ports.Recorder = (*Metrics)(nil)

// New registers all collectors, including Go runtime and process stats.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		articlesProcessed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "articles_processed_total",
			Help:      "Articles extracted and annotated successfully",
		}),
		articlesFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "articles_failed_total",
			Help:      "Articles dropped from a run",
		}, []string{"stage"}), // "extract", "summarize", "sentiment", "topics"
		narrations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "narrations_total",
			Help:      "Narration artifacts written, by status",
		}, []string{"status"}),
		runDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of a pipeline run",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
		runRecords: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_records",
			Help:      "Records returned per run",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 10, 15, 20},
		}),
	}
}

func (m *Metrics) ArticleProcessed() {
	m.articlesProcessed.Inc()
}

func (m *Metrics) ArticleFailed(stage string) {
	m.articlesFailed.WithLabelValues(stage).Inc()
}

func (m *Metrics) Narration(status domain.NarrationStatus) {
	m.narrations.WithLabelValues(string(status)).Inc()
}

func (m *Metrics) RunFinished(duration time.Duration, records int) {
	m.runDuration.Observe(duration.Seconds())
	m.runRecords.Observe(float64(records))
}

// Registry exposes the underlying registry for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
