package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "scanner_registry_"

	resultSuccess = "success"
	resultError   = "error"
)

var (
	registerOnce sync.Once

	operationsTotal *prometheus.CounterVec
	listLatency     *prometheus.HistogramVec
	exportLatency   *prometheus.HistogramVec
	exportRows      prometheus.Counter
)

// Init registers the registry metrics with the default registerer.
func Init() {
	registerOnce.Do(func() {
		operationsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "operations_total",
				Help: "Total registry operations by entity, operation and result",
			},
			[]string{"entity", "operation", "result"},
		)
		listLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "list_latency_seconds",
				Help:    "Scanner record list latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		exportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "export_latency_seconds",
				Help:    "Scanner record export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		exportRows = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "export_rows_total",
				Help: "Total scanner record rows written to exports",
			},
		)

		prometheus.MustRegister(
			operationsTotal,
			listLatency,
			exportLatency,
			exportRows,
		)
	})
}

// ObserveOperation counts one mutation or lookup.
func ObserveOperation(entity, operation string, err error) {
	if entity == "" {
		entity = "unknown"
	}
	if operationsTotal != nil {
		operationsTotal.WithLabelValues(entity, operation, resultOf(err)).Inc()
	}
}

// ObserveList records scanner record list latency and result.
func ObserveList(err error, duration time.Duration) {
	if listLatency != nil {
		listLatency.WithLabelValues(resultOf(err)).Observe(duration.Seconds())
	}
}

// ObserveExport records export latency, result and row count.
func ObserveExport(err error, rows int, duration time.Duration) {
	if exportLatency != nil {
		exportLatency.WithLabelValues(resultOf(err)).Observe(duration.Seconds())
	}
	if exportRows != nil && rows > 0 {
		exportRows.Add(float64(rows))
	}
}

func resultOf(err error) string {
	if err != nil {
		return resultError
	}
	return resultSuccess
}
