// Package metrics exposes Prometheus collectors for the prediction pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespaceChangeDetection = "changedetection"
	subsystemPipeline        = "pipeline"
)

// PipelineCollector records prediction runs.
type PipelineCollector struct {
	runs             *prometheus.CounterVec
	runDuration      prometheus.Histogram
	gateWait         prometheus.Histogram
	rastersPublished prometheus.Counter
}

// NewPipelineCollector registers the pipeline collectors with reg.
func NewPipelineCollector(reg prometheus.Registerer) *PipelineCollector {
	factory := promauto.With(reg)

	return &PipelineCollector{
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Name:      "runs_total",
			Namespace: namespaceChangeDetection,
			Subsystem: subsystemPipeline,
			Help:      "number of prediction runs by outcome",
		}, []string{"outcome"}),
		runDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:      "run_duration_seconds",
			Namespace: namespaceChangeDetection,
			Subsystem: subsystemPipeline,
			Help:      "time spent inside the exclusive archive, inference, unpack and publish section",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 12),
		}),
		gateWait: factory.NewHistogram(prometheus.HistogramOpts{
			Name:      "gate_wait_seconds",
			Namespace: namespaceChangeDetection,
			Subsystem: subsystemPipeline,
			Help:      "time a prediction waited for the exclusive section",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 10),
		}),
		rastersPublished: factory.NewCounter(prometheus.CounterOpts{
			Name:      "rasters_published_total",
			Namespace: namespaceChangeDetection,
			Subsystem: subsystemPipeline,
			Help:      "number of predicted rasters handed to the publisher",
		}),
	}
}

// RunFinished records the outcome of a prediction run.
func (c *PipelineCollector) RunFinished(outcome string) {
	c.runs.WithLabelValues(outcome).Inc()
}

// SectionDuration records the time spent in the exclusive section.
func (c *PipelineCollector) SectionDuration(d time.Duration) {
	c.runDuration.Observe(d.Seconds())
}

// GateWait records the time spent waiting for the exclusive section.
func (c *PipelineCollector) GateWait(d time.Duration) {
	c.gateWait.Observe(d.Seconds())
}

// RastersPublished records rasters handed to the publisher.
func (c *PipelineCollector) RastersPublished(n int) {
	c.rastersPublished.Add(float64(n))
}

// NoopCollector discards all measurements.
type NoopCollector struct{}

// NewNoopCollector creates a collector that records nothing.
func NewNoopCollector() *NoopCollector {
	return &NoopCollector{}
}

func (nc *NoopCollector) RunFinished(string)            {}
func (nc *NoopCollector) SectionDuration(time.Duration) {}
func (nc *NoopCollector) GateWait(time.Duration)        {}
func (nc *NoopCollector) RastersPublished(int)          {}
