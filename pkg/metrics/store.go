package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels shared by the counters below.
const (
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
	OutcomeRedirect = "redirect"
	OutcomeAllowed  = "allowed"
)

// StoreMetrics records record-store mutations, slot IO, authentication
// attempts and route guard decisions. A nil *StoreMetrics is a no-op.
type StoreMetrics struct {
	mutations *prometheus.CounterVec
	slotOps   *prometheus.CounterVec
	slotTime  *prometheus.HistogramVec
	auth      *prometheus.CounterVec
	guard     *prometheus.CounterVec
}

// NewStoreMetrics registers the metrics on the provided registerer.
func NewStoreMetrics(reg prometheus.Registerer) *StoreMetrics {
	if reg == nil {
		return &StoreMetrics{}
	}
	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "staffdesk",
		Name:      "record_mutations_total",
		Help:      "Record store mutations by entity, operation and outcome.",
	}, []string{"entity", "op", "outcome"})
	slotOps := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "staffdesk",
		Name:      "slot_operations_total",
		Help:      "Durable slot reads and writes by operation and outcome.",
	}, []string{"op", "outcome"})
	slotTime := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "staffdesk",
		Name:      "slot_operation_duration_seconds",
		Help:      "Duration of durable slot operations in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"op"})
	auth := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "staffdesk",
		Name:      "auth_attempts_total",
		Help:      "Authentication attempts by outcome.",
	}, []string{"outcome"})
	guard := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "staffdesk",
		Name:      "route_decisions_total",
		Help:      "Route guard decisions by requested route and outcome.",
	}, []string{"route", "outcome"})
	reg.MustRegister(mutations, slotOps, slotTime, auth, guard)
	return &StoreMetrics{
		mutations: mutations,
		slotOps:   slotOps,
		slotTime:  slotTime,
		auth:      auth,
		guard:     guard,
	}
}

// ObserveMutation counts a create, update or delete on an entity.
func (m *StoreMetrics) ObserveMutation(entity, op string, err error) {
	if m == nil || m.mutations == nil {
		return
	}
	m.mutations.WithLabelValues(normalizeLabel(entity), normalizeLabel(op), outcomeOf(err)).Inc()
}

// ObserveSlot records a slot operation and its duration.
func (m *StoreMetrics) ObserveSlot(op string, started time.Time, err error) {
	if m == nil || m.slotOps == nil {
		return
	}
	op = normalizeLabel(op)
	m.slotOps.WithLabelValues(op, outcomeOf(err)).Inc()
	m.slotTime.WithLabelValues(op).Observe(time.Since(started).Seconds())
}

// ObserveAuth counts an authentication attempt.
func (m *StoreMetrics) ObserveAuth(err error) {
	if m == nil || m.auth == nil {
		return
	}
	m.auth.WithLabelValues(outcomeOf(err)).Inc()
}

// ObserveDecision counts a route guard decision.
func (m *StoreMetrics) ObserveDecision(route string, redirected bool) {
	if m == nil || m.guard == nil {
		return
	}
	outcome := OutcomeAllowed
	if redirected {
		outcome = OutcomeRedirect
	}
	m.guard.WithLabelValues(normalizeLabel(route), outcome).Inc()
}

func outcomeOf(err error) string {
	if err != nil {
		return OutcomeFailure
	}
	return OutcomeSuccess
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
