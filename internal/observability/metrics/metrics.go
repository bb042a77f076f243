package metrics

import "github.com/prometheus/client_golang/prometheus"

// IntakeMetrics exposes counters/histograms for symptom matching and
// appointment booking flows.
type IntakeMetrics struct {
	matchTotal     *prometheus.CounterVec
	matchLatency   *prometheus.HistogramVec
	bookingTotal   *prometheus.CounterVec
	bookingLatency *prometheus.HistogramVec
}

func NewIntakeMetrics(reg prometheus.Registerer) *IntakeMetrics {
	m := &IntakeMetrics{
		matchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "intake",
			Subsystem: "symptoms",
			Name:      "match_total",
			Help:      "Total symptom match requests by outcome",
		}, []string{"outcome"}),
		matchLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "intake",
			Subsystem: "symptoms",
			Name:      "match_latency_seconds",
			Help:      "Latency of symptom match requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
		bookingTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "intake",
			Subsystem: "scheduling",
			Name:      "booking_total",
			Help:      "Total booking attempts by outcome",
		}, []string{"outcome"}),
		bookingLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "intake",
			Subsystem: "scheduling",
			Name:      "booking_latency_seconds",
			Help:      "Latency of booking attempts",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.matchTotal, m.matchLatency, m.bookingTotal, m.bookingLatency)
	return m
}

func (m *IntakeMetrics) ObserveMatch(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.matchTotal.WithLabelValues(outcome).Inc()
	m.matchLatency.WithLabelValues(outcome).Observe(seconds)
}

func (m *IntakeMetrics) ObserveBooking(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.bookingTotal.WithLabelValues(outcome).Inc()
	m.bookingLatency.WithLabelValues(outcome).Observe(seconds)
}
