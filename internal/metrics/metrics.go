// Package metrics defines the Prometheus collectors for Hex API calls and
// run polling. All methods are safe to call on a nil *Metrics.
package metrics

import (
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "hexflow"

// Metrics groups the collectors exported by hexflow
type Metrics struct {
	requests     *prometheus.CounterVec
	requestTime  *prometheus.HistogramVec
	polls        prometheus.Counter
	outcomes     *prometheus.CounterVec
	waitDuration prometheus.Histogram
}

// New creates the collectors and registers them with reg
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "Hex API requests by method and response status class.",
		}, []string{"method", "status"}),
		requestTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_request_duration_seconds",
			Help:      "Latency of Hex API requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		polls: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "run_status_polls_total",
			Help:      "Run status polls issued while waiting for runs.",
		}),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "run_outcomes_total",
			Help:      "Waited runs by final outcome.",
		}, []string{"outcome"}),
		waitDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_wait_duration_seconds",
			Help:      "Wall-clock time spent waiting for runs to finish.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 900, 1800, 3600},
		}),
	}

	for _, c := range []prometheus.Collector{m.requests, m.requestTime, m.polls, m.outcomes, m.waitDuration} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register metrics: %w", err)
		}
	}
	return m, nil
}

// ObserveRequest records one API request. A zero status means the request
// never got a response.
func (m *Metrics) ObserveRequest(method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, statusClass(status)).Inc()
	m.requestTime.WithLabelValues(method).Observe(duration.Seconds())
}

// ObservePoll records one status poll
func (m *Metrics) ObservePoll() {
	if m == nil {
		return
	}
	m.polls.Inc()
}

// ObserveOutcome records how a wait ended and how long it took
func (m *Metrics) ObserveOutcome(outcome string, waited time.Duration) {
	if m == nil {
		return
	}
	m.outcomes.WithLabelValues(outcome).Inc()
	m.waitDuration.Observe(waited.Seconds())
}

func statusClass(status int) string {
	if status <= 0 {
		return "error"
	}
	return strconv.Itoa(status/100) + "xx"
}
