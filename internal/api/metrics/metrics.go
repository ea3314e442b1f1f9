// Package metrics defines the portal's domain Prometheus metrics. HTTP request
// metrics come from the echoprometheus middleware; everything here counts
// business events.
//
// All metrics register with the default Prometheus registry on import.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/tradeloom/portal/internal/core/ports"
)

const namespace = "tradeloom"

// ── Identity ─────────────────────────────────────────────────────────────────

// LoginsTotal counts successful logins.
// Label:
//   - role: "user" or "admin"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of successful logins, by resolved role.",
	},
	[]string{"role"},
)

// ── Licenses ─────────────────────────────────────────────────────────────────

// LicenseRequestsTotal counts license requests.
// Label:
//   - result: "created" or "replayed" (idempotency key hit)
var LicenseRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "license_requests_total",
		Help:      "Total number of license requests, by result.",
	},
	[]string{"result"},
)

// LicenseActionsTotal counts admin actions on licenses.
// Labels:
//   - action: approve, reject, suspend, reinstate, delete
//   - result: "ok", "conflict" (illegal transition) or "error"
var LicenseActionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "license_actions_total",
		Help:      "Total number of admin license actions, by action and result.",
	},
	[]string{"action", "result"},
)

// LicenseRequestDuration measures a license request end to end, including the
// simulated payment round trip.
var LicenseRequestDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "license_request_duration_seconds",
		Help:      "Duration of license requests including payment processing.",
		Buckets:   prometheus.DefBuckets,
	},
)

// ── Payments ─────────────────────────────────────────────────────────────────

var PaymentsRecordedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "payments_recorded_total",
		Help:      "Total number of ledger entries appended.",
	},
)

var PaymentAmountTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "payment_amount_total",
		Help:      "Sum of recorded payment amounts.",
	},
)

// ── Investor requests ────────────────────────────────────────────────────────

// InvestorRequestsTotal counts investor queue events.
// Label:
//   - event: "submitted" or "resolved"
var InvestorRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "investor_requests_total",
		Help:      "Total number of investor request events.",
	},
	[]string{"event"},
)

// ── Notifications ────────────────────────────────────────────────────────────

// NotificationsTotal counts notification outcomes.
// Labels:
//   - kind: license_issued, investor_credentials
//   - outcome: sent, failed, dropped
var NotificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_total",
		Help:      "Total number of notifications, by kind and outcome.",
	},
	[]string{"kind", "outcome"},
)

// ObserveNotification matches the queue.Observer signature.
func ObserveNotification(kind ports.NotificationKind, outcome string) {
	NotificationsTotal.WithLabelValues(string(kind), outcome).Inc()
}
