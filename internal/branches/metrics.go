package branches

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records per-request pipeline statistics.
type Metrics struct {
	// RequestsTotal counts RenderBranches calls.
	// Labels: result (success, error)
	RequestsTotal *prometheus.CounterVec

	// RequestDuration tracks end-to-end render time.
	RequestDuration prometheus.Histogram

	// Candidates tracks how many individuals matched the surname.
	Candidates prometheus.Histogram

	// Patriarchs tracks how many branches were rendered per request.
	Patriarchs prometheus.Histogram

	// TruncatedTotal counts nodes cut by the depth or cycle guard.
	TruncatedTotal prometheus.Counter
}

// NewMetrics registers the collectors with reg. A nil reg uses the
// default registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		RequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "kinbranch",
				Subsystem: "branches",
				Name:      "requests_total",
				Help:      "Total number of branch render requests",
			},
			[]string{"result"},
		),
		RequestDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "kinbranch",
				Subsystem: "branches",
				Name:      "request_duration_seconds",
				Help:      "Duration of branch render requests in seconds",
				Buckets:   prometheus.DefBuckets,
			},
		),
		Candidates: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "kinbranch",
				Subsystem: "branches",
				Name:      "candidates",
				Help:      "Number of individuals matching the requested surname",
				Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
			},
		),
		Patriarchs: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "kinbranch",
				Subsystem: "branches",
				Name:      "patriarchs",
				Help:      "Number of branches rendered per request",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
			},
		),
		TruncatedTotal: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: "kinbranch",
				Subsystem: "branches",
				Name:      "truncated_nodes_total",
				Help:      "Total number of nodes cut short by the depth or cycle guard",
			},
		),
	}
}
