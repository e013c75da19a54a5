package workflow

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics collects Prometheus metrics for workflow execution. All metrics
// are namespaced "supportgate":
//
//	route_decisions_total{route}   router outputs, by routing key
//	red_flags_total{flag}          fraud indicators fired by the detector
//	trust_score                    distribution of composite trust scores
//	node_latency_ms{node,status}   per-node execution latency
//	runs_total{outcome}            finished invocations by outcome
//	runs_paused_total              runs suspended awaiting a human decision
//	runs_resumed_total             resumed invocations
//
// A nil *Metrics is valid and records nothing, so instrumentation is
// optional.
type Metrics struct {
	routeDecisions *prometheus.CounterVec
	redFlags       *prometheus.CounterVec
	trustScore     prometheus.Histogram
	nodeLatency    *prometheus.HistogramVec
	runs           *prometheus.CounterVec
	paused         prometheus.Counter
	resumed        prometheus.Counter
}

// NewMetrics creates and registers the workflow metrics. A nil registry
// uses the default Prometheus registerer.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registry)

	return &Metrics{
		routeDecisions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "supportgate",
			Name:      "route_decisions_total",
			Help:      "Router outputs by routing key.",
		}, []string{"route"}),
		redFlags: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "supportgate",
			Name:      "red_flags_total",
			Help:      "Fraud indicators fired by the red-flag detector.",
		}, []string{"flag"}),
		trustScore: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "supportgate",
			Name:      "trust_score",
			Help:      "Distribution of composite trust scores.",
			Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
		}),
		nodeLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "supportgate",
			Name:      "node_latency_ms",
			Help:      "Node execution latency in milliseconds.",
			Buckets:   []float64{1, 5, 10, 50, 100, 500, 1000, 5000},
		}, []string{"node", "status"}),
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "supportgate",
			Name:      "runs_total",
			Help:      "Finished workflow invocations by outcome.",
		}, []string{"outcome"}),
		paused: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "supportgate",
			Name:      "runs_paused_total",
			Help:      "Runs suspended awaiting a human decision.",
		}),
		resumed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "supportgate",
			Name:      "runs_resumed_total",
			Help:      "Resumed workflow invocations.",
		}),
	}
}

func (m *Metrics) observeRoute(key RouteKey) {
	if m == nil {
		return
	}
	m.routeDecisions.WithLabelValues(string(key)).Inc()
}

func (m *Metrics) observeFlags(flags []RiskFlag) {
	if m == nil {
		return
	}
	for _, f := range flags {
		m.redFlags.WithLabelValues(string(f)).Inc()
	}
}

func (m *Metrics) observeTrustScore(score float64) {
	if m == nil {
		return
	}
	m.trustScore.Observe(score)
}

func (m *Metrics) observeNode(node string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.nodeLatency.WithLabelValues(node, status).Observe(float64(elapsed.Milliseconds()))
}

func (m *Metrics) observeRun(outcome string) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(outcome).Inc()
}

func (m *Metrics) observePause() {
	if m == nil {
		return
	}
	m.paused.Inc()
}

func (m *Metrics) observeResume() {
	if m == nil {
		return
	}
	m.resumed.Inc()
}
