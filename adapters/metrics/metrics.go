// Package metrics provides Prometheus metrics collection.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector holds all Prometheus metrics for the validation service.
type Collector struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Validation metrics
	ValidationsTotal  *prometheus.CounterVec
	ValidationErrors  *prometheus.CounterVec
	ValidationSeconds prometheus.Histogram

	// Model storage metrics
	ModelsStored prometheus.Counter
	ModelsLoaded *prometheus.CounterVec
}

// New creates a new metrics collector registered on reg. Pass nil to use
// the default registerer.
func New(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Collector{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "valigate",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests processed",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "valigate",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
			[]string{"method", "path", "status"},
		),
		ValidationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "valigate",
				Name:      "validations_total",
				Help:      "Total number of data validations by outcome",
			},
			[]string{"model", "outcome"},
		),
		ValidationErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "valigate",
				Name:      "validation_errors_total",
				Help:      "Total number of field errors reported",
			},
			[]string{"model"},
		),
		ValidationSeconds: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "valigate",
				Name:      "validation_duration_seconds",
				Help:      "Data validation duration in seconds",
				Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
			},
		),
		ModelsStored: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "valigate",
				Name:      "models_stored_total",
				Help:      "Total number of model versions stored",
			},
		),
		ModelsLoaded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "valigate",
				Name:      "models_loaded_total",
				Help:      "Total number of model loads by source",
			},
			[]string{"source"}, // "cache" or "store"
		),
	}
}

// ObserveValidation records one validation run.
func (c *Collector) ObserveValidation(modelName string, valid bool, errorCount int, elapsed time.Duration) {
	if c == nil {
		return
	}
	outcome := "valid"
	if !valid {
		outcome = "invalid"
	}
	c.ValidationsTotal.WithLabelValues(modelName, outcome).Inc()
	if errorCount > 0 {
		c.ValidationErrors.WithLabelValues(modelName).Add(float64(errorCount))
	}
	c.ValidationSeconds.Observe(elapsed.Seconds())
}
