package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Derivation results.
const (
	ResultSuccess = "success"
	ResultEmpty   = "empty"
	ResultFailed  = "failed"
)

// Remote service results.
const (
	ResultExecuted = "executed"
	ResultError    = "error"
	ResultTimeout  = "timeout"
)

// Registry holds every cpeer-report collector plus the Go and process collectors.
var Registry = prometheus.NewRegistry()

var (
	// DerivationsTotal counts derivations per report kind and result.
	DerivationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cpeer_report_derivations_total",
			Help: "Total number of report derivations by kind and result.",
		},
		[]string{"kind", "result"}, // result: success/empty/failed
	)

	// DerivationDuration observes how long one deriver took.
	DerivationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cpeer_report_derivation_duration_seconds",
			Help:    "Latency of a single report derivation.",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
		},
		[]string{"kind"},
	)

	// VehiclesTracked is the number of vehicles held in memory.
	VehiclesTracked = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "cpeer_report_vehicles_tracked",
			Help: "Number of vehicles with a report snapshot.",
		},
	)

	// RemoteServicesTotal counts triggered remote services per service and result.
	RemoteServicesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cpeer_report_remote_services_total",
			Help: "Total number of remote service executions by service and result.",
		},
		[]string{"service", "result"}, // result: executed/error/timeout
	)
)

func init() {
	Registry.MustRegister(DerivationsTotal)
	Registry.MustRegister(DerivationDuration)
	Registry.MustRegister(VehiclesTracked)
	Registry.MustRegister(RemoteServicesTotal)
	Registry.MustRegister(collectors.NewGoCollector())
	Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
}

// ObserveDerivation records one derivation of kind that started at start.
func ObserveDerivation(kind, result string, start time.Time) {
	DerivationsTotal.WithLabelValues(kind, result).Inc()
	DerivationDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}

// Handler serves Registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}
