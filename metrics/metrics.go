package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PipelineMetrics records classification and extraction outcomes on a
// private registry.
type PipelineMetrics struct {
	registry *prometheus.Registry

	classifications *prometheus.CounterVec
	extractions     *prometheus.CounterVec
	stageDuration   *prometheus.HistogramVec
	defaultedFields *prometheus.CounterVec
}

func NewPipelineMetrics(service string) *PipelineMetrics {
	registry := prometheus.NewRegistry()

	classifications := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   "docfiling",
			Subsystem:   "pipeline",
			Name:        "classifications_total",
			Help:        "Classified documents by assigned label.",
			ConstLabels: prometheus.Labels{"service": service},
		},
		[]string{"label"},
	)
	extractions := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   "docfiling",
			Subsystem:   "pipeline",
			Name:        "extractions_total",
			Help:        "Field extractions by category and status.",
			ConstLabels: prometheus.Labels{"service": service},
		},
		[]string{"category", "status"},
	)
	stageDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   "docfiling",
			Subsystem:   "pipeline",
			Name:        "stage_duration_seconds",
			Help:        "Duration of pipeline stages (ocr, labeling, classify, extract).",
			Buckets:     []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
			ConstLabels: prometheus.Labels{"service": service},
		},
		[]string{"stage"},
	)
	defaultedFields := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   "docfiling",
			Subsystem:   "pipeline",
			Name:        "defaulted_numeric_fields_total",
			Help:        "Numeric fields that fell back to 0 because the source was missing or unparseable.",
			ConstLabels: prometheus.Labels{"service": service},
		},
		[]string{"category", "field"},
	)

	registry.MustRegister(classifications, extractions, stageDuration, defaultedFields)

	return &PipelineMetrics{
		registry:        registry,
		classifications: classifications,
		extractions:     extractions,
		stageDuration:   stageDuration,
		defaultedFields: defaultedFields,
	}
}

func (m *PipelineMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *PipelineMetrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *PipelineMetrics) ObserveClassification(label string) {
	m.classifications.WithLabelValues(label).Inc()
}

func (m *PipelineMetrics) ObserveExtraction(category string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.extractions.WithLabelValues(category, status).Inc()
}

func (m *PipelineMetrics) ObserveStage(stage string, duration time.Duration) {
	m.stageDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

func (m *PipelineMetrics) ObserveDefaulted(category string, fields []string) {
	for _, f := range fields {
		m.defaultedFields.WithLabelValues(category, f).Inc()
	}
}
