package relayserver

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the relay's Prometheus collectors on a private registry.
type Metrics struct {
	submitted prometheus.Counter
	replied   prometheus.Counter
	polls     *prometheus.CounterVec
	requests  *prometheus.CounterVec
	handler   http.Handler
}

// NewMetrics registers the relay collectors plus Go runtime metrics.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		submitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "relaypoll_jobs_submitted_total",
			Help: "Jobs accepted on /in.",
		}),
		replied: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "relaypoll_jobs_replied_total",
			Help: "Replies stored for jobs.",
		}),
		polls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "relaypoll_polls_total",
			Help: "GETs of pending locations by result.",
		}, []string{"result"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "relaypoll_requests_total",
			Help: "HTTP requests by method and status code.",
		}, []string{"method", "code"}),
	}
	reg.MustRegister(m.submitted, m.replied, m.polls, m.requests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m.handler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	return m
}

// WritePrometheus serves the metrics in the Prometheus text format.
func (m *Metrics) WritePrometheus(w http.ResponseWriter, r *http.Request) {
	m.handler.ServeHTTP(w, r)
}

// Instrument counts every request passing through next.
func (m *Metrics) Instrument(next http.Handler) http.Handler {
	return promhttp.InstrumentHandlerCounter(m.requests, next)
}
