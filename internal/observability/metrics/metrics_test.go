package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestIntakeMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewIntakeMetrics(reg)
	m.ObserveMatch("resolved", 0.2)
	m.ObserveMatch("ambiguous", 0.1)
	m.ObserveBooking("confirmed", 0.5)
	m.ObserveBooking("conflict", 0.3)
}

func TestIntakeMetricsNilSafe(t *testing.T) {
	var m *IntakeMetrics
	m.ObserveMatch("resolved", 0.1)
	m.ObserveBooking("confirmed", 0.1)
}
