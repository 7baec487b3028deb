package gatekeeper

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts Send outcomes and refresh results. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	sends     *prometheus.CounterVec
	refreshes *prometheus.CounterVec
	duration  prometheus.Histogram
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		sends: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fintrack",
			Subsystem: "gatekeeper",
			Name:      "sends_total",
			Help:      "Completed Send calls by outcome.",
		}, []string{"outcome"}),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fintrack",
			Subsystem: "gatekeeper",
			Name:      "refresh_total",
			Help:      "Calls to the refresh endpoint by result.",
		}, []string{"result"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "fintrack",
			Subsystem: "gatekeeper",
			Name:      "send_duration_seconds",
			Help:      "Wall time of Send including refresh and replay.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg != nil {
		reg.MustRegister(m.sends, m.refreshes, m.duration)
	}
	return m
}

func (m *Metrics) observeSend(resp *Response, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	outcome := "error"
	if err == nil && resp != nil {
		outcome = resp.Outcome.String()
	}
	m.sends.WithLabelValues(outcome).Inc()
	m.duration.Observe(elapsed.Seconds())
}

func (m *Metrics) observeRefresh(result string) {
	if m == nil {
		return
	}
	m.refreshes.WithLabelValues(result).Inc()
}
