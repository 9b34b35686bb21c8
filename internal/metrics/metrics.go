package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// AI gate outcomes
const (
	GateChallengeIssued = "challenge_issued"
	GateAccepted        = "accepted"
	GateRejected        = "rejected"
	GateRefunded        = "refunded"
)

type Metrics struct {
	Registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	gateResults  *prometheus.CounterVec
	aiRequests   *prometheus.CounterVec
	aiDuration   prometheus.Histogram
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "appforge",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "appforge",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		gateResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "appforge",
			Name:      "ai_gate_results_total",
			Help:      "AI usage gate outcomes.",
		}, []string{"result", "reason"}),
		aiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "appforge",
			Name:      "ai_content_requests_total",
			Help:      "Upstream AI completion calls by outcome.",
		}, []string{"status"}),
		aiDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "appforge",
			Name:      "ai_content_request_duration_seconds",
			Help:      "Upstream AI completion latency.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		}),
	}

	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests, m.httpDuration, m.gateResults, m.aiRequests, m.aiDuration,
	)
	return m
}

func (m *Metrics) ObserveHTTP(method, route, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, status).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// GateResult records an AI usage gate outcome. reason is empty unless rejected.
func (m *Metrics) GateResult(result, reason string) {
	if m == nil {
		return
	}
	m.gateResults.WithLabelValues(result, reason).Inc()
}

func (m *Metrics) AIRequest(status string, d time.Duration) {
	if m == nil {
		return
	}
	m.aiRequests.WithLabelValues(status).Inc()
	m.aiDuration.Observe(d.Seconds())
}
