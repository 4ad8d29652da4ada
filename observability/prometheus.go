// Package observability exports sog metrics to Prometheus.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hupe1980/sog"
	"github.com/hupe1980/sog/resource"
)

// PrometheusCollector implements sog.MetricsCollector.
type PrometheusCollector struct {
	stageLatency  *prometheus.HistogramVec
	exportLatency *prometheus.HistogramVec
	exports       *prometheus.CounterVec
	rows          prometheus.Counter
	bytes         prometheus.Counter
}

var _ sog.MetricsCollector = (*PrometheusCollector)(nil)

// NewPrometheusCollector creates the collectors and registers them with reg.
// A nil reg uses prometheus.DefaultRegisterer.
func NewPrometheusCollector(reg prometheus.Registerer) *PrometheusCollector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	p := &PrometheusCollector{
		stageLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sog_stage_duration_seconds",
			Help:    "Duration of export stages",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"stage", "status"}),
		exportLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sog_export_duration_seconds",
			Help:    "Duration of complete exports",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 10),
		}, []string{"status"}),
		exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sog_exports_total",
			Help: "Total exports",
		}, []string{"status"}),
		rows: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sog_exported_rows_total",
			Help: "Total splats written by successful exports",
		}),
		bytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sog_exported_bytes_total",
			Help: "Total archive bytes written by successful exports",
		}),
	}

	reg.MustRegister(p.stageLatency, p.exportLatency, p.exports, p.rows, p.bytes)
	return p
}

// RecordStage implements sog.MetricsCollector.
func (p *PrometheusCollector) RecordStage(stage sog.Stage, d time.Duration, err error) {
	p.stageLatency.WithLabelValues(stage.String(), status(err)).Observe(d.Seconds())
}

// RecordExport implements sog.MetricsCollector.
func (p *PrometheusCollector) RecordExport(count int, bytes int64, d time.Duration, err error) {
	s := status(err)
	p.exportLatency.WithLabelValues(s).Observe(d.Seconds())
	p.exports.WithLabelValues(s).Inc()
	if err == nil {
		p.rows.Add(float64(count))
		p.bytes.Add(float64(bytes))
	}
}

// RegisterController exposes the state of rc as gauges.
func RegisterController(reg prometheus.Registerer, rc *resource.Controller) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "sog_compute_jobs",
			Help: "Compute jobs holding the compute slot",
		}, func() float64 { return float64(rc.Jobs()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "sog_compute_waiting",
			Help: "Compute jobs queued for the compute slot",
		}, func() float64 { return float64(rc.Waiting()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "sog_memory_reserved_bytes",
			Help: "Scratch memory reserved by compute jobs",
		}, func() float64 { return float64(rc.MemoryUsage()) }),
	)
}

// Handler serves the metrics gathered by g. A nil g uses
// prometheus.DefaultGatherer.
func Handler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
