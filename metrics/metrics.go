package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "allocator_runs_total",
			Help: "Total schedule allocation runs",
		},
		[]string{"result"}, // Success|Failure
	)

	RunDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "allocator_run_duration_seconds",
			Help:    "Duration of one schedule allocation run",
			Buckets: prometheus.DefBuckets,
		},
	)

	FlightOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "allocator_flight_outcomes_total",
			Help: "Per-flight allocation outcomes by resource",
		},
		[]string{"resource", "outcome"}, // frequency|airspace, assigned|unassigned|fallback|unknown_prefix
	)

	SkippedFlights = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "allocator_skipped_flights_total",
			Help: "Flight records excluded before allocation (bad or degenerate times)",
		},
	)
)

func init() {
	prometheus.MustRegister(RunsTotal)
	prometheus.MustRegister(RunDuration)
	prometheus.MustRegister(FlightOutcomes)
	prometheus.MustRegister(SkippedFlights)
}

func Register(mux *http.ServeMux) {
	mux.Handle("/metrics", promhttp.Handler())
}
