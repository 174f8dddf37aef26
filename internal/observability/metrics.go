package observability

import (
	"net/http"
	"time"

	"video-rag-chat-be/pkg/rag/failure"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service.
type Metrics struct {
	registry *prometheus.Registry

	PipelineRequests *prometheus.CounterVec
	PipelineLatency  *prometheus.HistogramVec
	RecordsAdded     prometheus.Counter
	EventsConsumed   *prometheus.CounterVec
	ActiveSessions   prometheus.GaugeFunc
}

// NewMetrics registers every instrument on a private registry, so tests can
// build as many as they like. activeSessions may be nil.
func NewMetrics(namespace string, activeSessions func() float64) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	if activeSessions == nil {
		activeSessions = func() float64 { return 0 }
	}

	return &Metrics{
		registry: reg,
		PipelineRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_requests_total",
			Help:      "Pipeline invocations by operation and outcome code.",
		}, []string{"op", "code"}),
		PipelineLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_latency_seconds",
			Help:      "End-to-end pipeline latency by operation.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32, 64},
		}, []string{"op"}),
		RecordsAdded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "memory_records_added_total",
			Help:      "Snippets newly written to session memory.",
		}),
		EventsConsumed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_consumed_total",
			Help:      "Domain events seen by the in-process consumer, by type.",
		}, []string{"type"}),
		ActiveSessions: factory.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Sessions with in-process conversation history.",
		}, activeSessions),
	}
}

// ObservePipeline records one run of op. A nil err is counted as "ok".
func (m *Metrics) ObservePipeline(op string, err error, d time.Duration) {
	code := "ok"
	if err != nil {
		code = failure.Code(err)
	}
	m.PipelineRequests.WithLabelValues(op, code).Inc()
	m.PipelineLatency.WithLabelValues(op).Observe(d.Seconds())
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
