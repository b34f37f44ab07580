package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type PrometheusRecorder struct {
	counters  *prometheus.CounterVec
	histogram *prometheus.HistogramVec
}

// NewPrometheusRecorder registers its collectors on reg. Pass
// prometheus.DefaultRegisterer in production and a fresh registry in tests.
func NewPrometheusRecorder(reg prometheus.Registerer) *PrometheusRecorder {
	counters := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "scanpay",
			Name:      "events_total",
			Help:      "Payment and scanner event counters",
		},
		[]string{"event", LabelResult, LabelChainID},
	)

	histogram := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "scanpay",
			Name:      "operation_duration_seconds",
			Help:      "Latency of calls to collaborators",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation", LabelResult},
	)

	reg.MustRegister(counters, histogram)

	return &PrometheusRecorder{
		counters:  counters,
		histogram: histogram,
	}
}

func (p *PrometheusRecorder) IncCounter(name string, labels map[string]string) {
	p.counters.With(prometheus.Labels{
		"event":      name,
		LabelResult:  labels[LabelResult],
		LabelChainID: labels[LabelChainID],
	}).Inc()
}

func (p *PrometheusRecorder) ObserveLatency(name string, d time.Duration, labels map[string]string) {
	p.histogram.With(prometheus.Labels{
		"operation": name,
		LabelResult: labels[LabelResult],
	}).Observe(d.Seconds())
}
