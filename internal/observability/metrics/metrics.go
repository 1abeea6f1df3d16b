package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

// Metrics exposes application-level instruments.
type Metrics struct {
	readings      *prometheus.CounterVec
	billingEvents *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		readings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "readings_total",
			Help: "Readings served, partitioned by granted tier.",
		}, []string{"tier"}),
		billingEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "billing_events_total",
			Help: "Billing webhook events processed, partitioned by event type.",
		}, []string{"type"}),
	}

	prometheus.MustRegister(m.readings, m.billingEvents)
	return m
}

func (m *Metrics) RecordReading(tier string) {
	if m == nil {
		return
	}
	m.readings.WithLabelValues(tier).Inc()
}

func (m *Metrics) RecordBillingEvent(eventType string) {
	if m == nil {
		return
	}
	m.billingEvents.WithLabelValues(eventType).Inc()
}

var Module = fx.Module("observability.metrics",
	fx.Provide(New),
)
