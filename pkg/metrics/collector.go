package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/markus-lassfolk/rfwatch/pkg/interference"
)

// Collector bundles the Prometheus metrics exposed by rfwatchd.
type Collector struct {
	registry *prometheus.Registry

	MeasurementsTotal prometheus.Counter
	DetectionsTotal   prometheus.Counter
	SourcesDetected   prometheus.Gauge
	SourcesBySeverity *prometheus.GaugeVec
	DetectionDuration prometheus.Histogram
}

// NewCollector registers the rfwatch metrics against a private registry so
// multiple daemon instances in one process (tests) never collide.
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		MeasurementsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rfwatch_measurements_total",
			Help: "Total number of measurement points ingested.",
		}),
		DetectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rfwatch_detections_total",
			Help: "Total number of detection passes executed.",
		}),
		SourcesDetected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "rfwatch_sources_detected",
			Help: "Number of interference sources found by the last detection pass.",
		}),
		SourcesBySeverity: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "rfwatch_sources_by_severity",
			Help: "Sources found by the last detection pass, labeled by severity level.",
		}, []string{"severity"}),
		DetectionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "rfwatch_detection_duration_seconds",
			Help:    "Wall time of a full detection pass.",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}

	registry.MustRegister(
		c.MeasurementsTotal,
		c.DetectionsTotal,
		c.SourcesDetected,
		c.SourcesBySeverity,
		c.DetectionDuration,
	)

	return c
}

// Handler returns the /metrics HTTP handler for this collector's registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// ObserveDetection records the outcome of one detection pass.
func (c *Collector) ObserveDetection(duration time.Duration, sources []*interference.Source) {
	c.DetectionsTotal.Inc()
	c.DetectionDuration.Observe(duration.Seconds())
	c.SourcesDetected.Set(float64(len(sources)))

	counts := make(map[string]int)
	for _, src := range sources {
		counts[src.Severity.String()]++
	}
	for _, severity := range []interference.Severity{
		interference.SeverityNegligible,
		interference.SeverityLow,
		interference.SeverityMedium,
		interference.SeverityHigh,
		interference.SeverityCritical,
	} {
		c.SourcesBySeverity.WithLabelValues(severity.String()).Set(float64(counts[severity.String()]))
	}
}
