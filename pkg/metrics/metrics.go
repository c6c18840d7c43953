package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// QueriesTotal counts every query a listener finished handling, by
	// the type of answer it produced.
	QueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netresolved_queries_total",
			Help: "Total number of DNS queries handled, by result",
		},
		[]string{"result"}, // answered, nxdomain, forwarded, dropped
	)

	ForwardsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netresolved_forwards_total",
			Help: "Total number of queries forwarded upstream, by outcome",
		},
		[]string{"outcome"}, // resolved, timeout, connect_error
	)

	QueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "netresolved_query_duration_seconds",
			Help:    "Time taken to answer or forward a parsed query, excluding reply encoding and write",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"proto"}, // udp, tcp
	)

	ListenersActive = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "netresolved_listeners_active",
			Help: "Number of currently bound listeners, by IP family",
		},
		[]string{"family"}, // v4, v6
	)

	ReconcileDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "netresolved_reconcile_duration_seconds",
			Help:    "Time taken for a reload's listener reconcile pass",
			Buckets: prometheus.DefBuckets,
		},
	)

	ReconcileCyclesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "netresolved_reconcile_cycles_total",
			Help: "Total number of reload reconcile passes completed",
		},
	)

	ReconcileErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "netresolved_reconcile_errors_total",
			Help: "Total number of listener bind/unbind failures during reconcile",
		},
	)
)

func init() {
	prometheus.MustRegister(
		QueriesTotal,
		ForwardsTotal,
		QueryDuration,
		ListenersActive,
		ReconcileDuration,
		ReconcileCyclesTotal,
		ReconcileErrorsTotal,
	)
}

// Handler returns the Prometheus HTTP handler for the optional
// --metrics-addr endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations and recording them to a
// histogram once they complete.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer, started now.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration since the timer started to histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	histogram.Observe(time.Since(t.start).Seconds())
}

// ObserveDurationVec records the duration since the timer started to a
// histogram vec with the given label values.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	histogram.WithLabelValues(labels...).Observe(time.Since(t.start).Seconds())
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
