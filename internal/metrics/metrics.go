package metrics

import "github.com/prometheus/client_golang/prometheus"

// SchedulingMetrics exposes counters for the booking and triage flows.
type SchedulingMetrics struct {
	bookingsTotal    *prometheus.CounterVec
	slotConflicts    prometheus.Counter
	scorerFallbacks  prometheus.Counter
	syncEntriesTotal *prometheus.CounterVec
}

func NewSchedulingMetrics(reg prometheus.Registerer) *SchedulingMetrics {
	m := &SchedulingMetrics{
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "carebridge",
			Subsystem: "scheduling",
			Name:      "bookings_total",
			Help:      "Total booking attempts",
		}, []string{"outcome", "urgency"}),
		slotConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "carebridge",
			Subsystem: "scheduling",
			Name:      "slot_conflicts_total",
			Help:      "Bookings and reschedules rejected on slot conflict",
		}),
		scorerFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "carebridge",
			Subsystem: "triage",
			Name:      "scorer_fallbacks_total",
			Help:      "Bookings that used fallback triage defaults because the scorer was unavailable",
		}),
		syncEntriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "carebridge",
			Subsystem: "sync",
			Name:      "offline_entries_total",
			Help:      "Offline queue entries processed by the reconciler",
		}, []string{"outcome"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.bookingsTotal, m.slotConflicts, m.scorerFallbacks, m.syncEntriesTotal)
	return m
}

func (m *SchedulingMetrics) ObserveBooking(outcome, urgency string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(outcome, urgency).Inc()
}

func (m *SchedulingMetrics) ObserveSlotConflict() {
	if m == nil {
		return
	}
	m.slotConflicts.Inc()
}

func (m *SchedulingMetrics) ObserveScorerFallback() {
	if m == nil {
		return
	}
	m.scorerFallbacks.Inc()
}

func (m *SchedulingMetrics) ObserveSyncEntry(outcome string) {
	if m == nil {
		return
	}
	m.syncEntriesTotal.WithLabelValues(outcome).Inc()
}
