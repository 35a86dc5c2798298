package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects render and ingestion counters on a private registry. It
// satisfies submission.Recorder. A disabled Metrics accepts every call and
// records nothing.
type Metrics struct {
	registry *prometheus.Registry

	renders     *prometheus.CounterVec
	submissions *prometheus.CounterVec
	dropped     *prometheus.CounterVec
	stored      *prometheus.CounterVec
	bytes       *prometheus.CounterVec
}

// NewMetrics registers the formflow collectors.
func NewMetrics(cfg MetricsConfig) (*Metrics, error) {
	if !cfg.Enabled {
		return &Metrics{}, nil
	}

	m := &Metrics{
		registry: prometheus.NewRegistry(),
		renders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "renders_total",
			Help:      "Screens rendered.",
		}, []string{"process", "screen"}),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "submissions_total",
			Help:      "Submissions ingested, by resolved action.",
		}, []string{"process", "action"}),
		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "fields_dropped_total",
			Help:      "Submitted fields discarded because they were neither acceptable nor attachments.",
		}, []string{"process"}),
		stored: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "content_stored_total",
			Help:      "Uploads written to the content store.",
		}, []string{"process"}),
		bytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "content_stored_bytes_total",
			Help:      "Bytes written to the content store.",
		}, []string{"process"}),
	}

	for _, collector := range []prometheus.Collector{m.renders, m.submissions, m.dropped, m.stored, m.bytes} {
		if err := m.registry.Register(collector); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) enabled() bool {
	return m != nil && m.registry != nil
}

// ScreenRendered counts one render.
func (m *Metrics) ScreenRendered(processKey, screenID string) {
	if m.enabled() {
		m.renders.WithLabelValues(processKey, screenID).Inc()
	}
}

// SubmissionIngested counts one ingested submission. An empty action is
// reported as "none".
func (m *Metrics) SubmissionIngested(processKey, action string) {
	if !m.enabled() {
		return
	}
	if action == "" {
		action = "none"
	}
	m.submissions.WithLabelValues(processKey, action).Inc()
}

// FieldDropped counts a discarded field.
func (m *Metrics) FieldDropped(processKey string) {
	if m.enabled() {
		m.dropped.WithLabelValues(processKey).Inc()
	}
}

// ContentStored counts one stored upload and its size.
func (m *Metrics) ContentStored(processKey string, bytes int64) {
	if !m.enabled() {
		return
	}
	m.stored.WithLabelValues(processKey).Inc()
	m.bytes.WithLabelValues(processKey).Add(float64(bytes))
}

// Registry exposes the private registry, or nil when disabled.
func (m *Metrics) Registry() *prometheus.Registry {
	if !m.enabled() {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if !m.enabled() {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
