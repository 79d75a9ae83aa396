package metrics

import "github.com/prometheus/client_golang/prometheus"

// ClinicMetrics exposes counters for bookings, transitions, notifications
// and store operations.
type ClinicMetrics struct {
	bookingsTotal      *prometheus.CounterVec
	transitionsTotal   *prometheus.CounterVec
	notificationsTotal *prometheus.CounterVec
	storeOpsTotal      *prometheus.CounterVec
}

func NewClinicMetrics(reg prometheus.Registerer) *ClinicMetrics {
	m := &ClinicMetrics{
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "booking",
			Name:      "submissions_total",
			Help:      "Total booking submissions by result",
		}, []string{"result"}),
		transitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "dashboard",
			Name:      "status_transitions_total",
			Help:      "Total appointment status transitions",
		}, []string{"to", "result"}),
		notificationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "notify",
			Name:      "dispatch_total",
			Help:      "Total notification dispatch attempts",
		}, []string{"kind", "result"}),
		storeOpsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "store",
			Name:      "operations_total",
			Help:      "Total appointment store operations",
		}, []string{"backend", "op", "result"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.bookingsTotal, m.transitionsTotal, m.notificationsTotal, m.storeOpsTotal)
	return m
}

func (m *ClinicMetrics) ObserveBooking(result string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(result).Inc()
}

func (m *ClinicMetrics) ObserveTransition(to, result string) {
	if m == nil {
		return
	}
	m.transitionsTotal.WithLabelValues(to, result).Inc()
}

func (m *ClinicMetrics) ObserveNotification(kind string, err error) {
	if m == nil {
		return
	}
	m.notificationsTotal.WithLabelValues(kind, resultLabel(err)).Inc()
}

func (m *ClinicMetrics) ObserveStoreOp(backend, op string, err error) {
	if m == nil {
		return
	}
	m.storeOpsTotal.WithLabelValues(backend, op, resultLabel(err)).Inc()
}

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
