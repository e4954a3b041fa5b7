package metrics

import "github.com/prometheus/client_golang/prometheus"

// SettlementMetrics counts group closing outcomes.
type SettlementMetrics struct {
	closed               prometheus.Counter
	skipped              prometheus.Counter
	failures             *prometheus.CounterVec
	anomalies            *prometheus.CounterVec
	notificationsSent    *prometheus.CounterVec
	notificationFailures *prometheus.CounterVec
}

// NewSettlementMetrics registers the settlement metrics on reg. A nil registerer
// yields a no-op recorder.
func NewSettlementMetrics(reg prometheus.Registerer) *SettlementMetrics {
	if reg == nil {
		return &SettlementMetrics{}
	}
	m := &SettlementMetrics{
		closed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "group_orders_closed_total",
			Help: "Group orders finished by the closing scheduler.",
		}),
		skipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "group_orders_skipped_total",
			Help: "Due group orders that were already settled by another run.",
		}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "group_order_failures_total",
			Help: "Group orders whose closing pipeline failed, by stage.",
		}, []string{"stage"}),
		anomalies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "settlement_anomalies_total",
			Help: "Members excluded from a settlement, by reason.",
		}, []string{"reason"}),
		notificationsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notifications_sent_total",
			Help: "Notifications delivered, by kind.",
		}, []string{"kind"}),
		notificationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notification_failures_total",
			Help: "Notifications that could not be delivered, by kind.",
		}, []string{"kind"}),
	}
	reg.MustRegister(m.closed, m.skipped, m.failures, m.anomalies, m.notificationsSent, m.notificationFailures)
	return m
}

func (m *SettlementMetrics) IncClosed() {
	if m == nil || m.closed == nil {
		return
	}
	m.closed.Inc()
}

func (m *SettlementMetrics) IncSkipped() {
	if m == nil || m.skipped == nil {
		return
	}
	m.skipped.Inc()
}

// IncFailure counts a failed group pipeline at the given stage (members, finish, panic, timeout).
func (m *SettlementMetrics) IncFailure(stage string) {
	if m == nil || m.failures == nil {
		return
	}
	m.failures.WithLabelValues(normalizeLabel(stage)).Inc()
}

func (m *SettlementMetrics) AddAnomalies(reason string, n int) {
	if m == nil || m.anomalies == nil || n <= 0 {
		return
	}
	m.anomalies.WithLabelValues(normalizeLabel(reason)).Add(float64(n))
}

func (m *SettlementMetrics) IncNotificationSent(kind string) {
	if m == nil || m.notificationsSent == nil {
		return
	}
	m.notificationsSent.WithLabelValues(normalizeLabel(kind)).Inc()
}

func (m *SettlementMetrics) IncNotificationFailure(kind string) {
	if m == nil || m.notificationFailures == nil {
		return
	}
	m.notificationFailures.WithLabelValues(normalizeLabel(kind)).Inc()
}
