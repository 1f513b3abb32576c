package metrics

import (
	"database/sql"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "docgen_"

	resultSuccess = "success"
	resultError   = "error"
)

var (
	registerOnce sync.Once

	renderTotal         *prometheus.CounterVec
	renderLatency       *prometheus.HistogramVec
	renderStageFailures *prometheus.CounterVec

	conversionTotal   *prometheus.CounterVec
	conversionLatency *prometheus.HistogramVec

	annexExportTotal   *prometheus.CounterVec
	annexExportLatency *prometheus.HistogramVec
)

// Init registers observability metrics and DB-backed gauges.
func Init(db *sql.DB, logger *log.Logger) {
	registerOnce.Do(func() {
		renderTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "render_total",
				Help: "Total document renders by kind and result",
			},
			[]string{"kind", "result"},
		)
		renderLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "render_latency_seconds",
				Help:    "Document render latency in seconds",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"kind", "result"},
		)
		renderStageFailures = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "render_stage_failures_total",
				Help: "Total render failures by pipeline stage",
			},
			[]string{"stage"},
		)

		conversionTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "conversion_total",
				Help: "Total PDF conversions by result",
			},
			[]string{"result"},
		)
		conversionLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "conversion_latency_seconds",
				Help:    "PDF conversion latency in seconds",
				Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"result"},
		)

		annexExportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "annex_export_total",
				Help: "Total annex exports by format and result",
			},
			[]string{"format", "result"},
		)
		annexExportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "annex_export_latency_seconds",
				Help:    "Annex export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format", "result"},
		)

		prometheus.MustRegister(
			renderTotal,
			renderLatency,
			renderStageFailures,
			conversionTotal,
			conversionLatency,
			annexExportTotal,
			annexExportLatency,
		)

		if db != nil {
			registerDBMetrics(db, logger)
		}
	})
}

func registerDBMetrics(db *sql.DB, logger *log.Logger) {
	gauge := func(name, help string, value func(sql.DBStats) float64) prometheus.GaugeFunc {
		return prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{Name: metricPrefix + name, Help: help},
			func() float64 { return value(db.Stats()) },
		)
	}
	collectors := []prometheus.Collector{
		gauge("db_open_connections", "Open database connections",
			func(s sql.DBStats) float64 { return float64(s.OpenConnections) }),
		gauge("db_in_use_connections", "Database connections in use",
			func(s sql.DBStats) float64 { return float64(s.InUse) }),
		gauge("db_wait_count", "Total waits for a database connection",
			func(s sql.DBStats) float64 { return float64(s.WaitCount) }),
	}
	for _, c := range collectors {
		if err := prometheus.Register(c); err != nil && logger != nil {
			logger.Printf("metrics: register db gauge: %v", err)
		}
	}
}

// ObserveRender records render latency and result for a document kind.
func ObserveRender(kind, result string, duration time.Duration) {
	if kind == "" {
		kind = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if renderTotal != nil {
		renderTotal.WithLabelValues(kind, result).Inc()
	}
	if renderLatency != nil {
		renderLatency.WithLabelValues(kind, result).Observe(duration.Seconds())
	}
}

// IncRenderStageFailure counts a render that failed in stage.
func IncRenderStageFailure(stage string) {
	if stage == "" {
		stage = "unknown"
	}
	if renderStageFailures != nil {
		renderStageFailures.WithLabelValues(stage).Inc()
	}
}

// ObserveConversion records conversion latency and result.
func ObserveConversion(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if conversionTotal != nil {
		conversionTotal.WithLabelValues(result).Inc()
	}
	if conversionLatency != nil {
		conversionLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// ObserveAnnexExport records export latency and result.
func ObserveAnnexExport(format, result string, duration time.Duration) {
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if annexExportTotal != nil {
		annexExportTotal.WithLabelValues(format, result).Inc()
	}
	if annexExportLatency != nil {
		annexExportLatency.WithLabelValues(format, result).Observe(duration.Seconds())
	}
}

// Result maps an error to a result label.
func Result(err error) string {
	if err != nil {
		return resultError
	}
	return resultSuccess
}

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError
)
