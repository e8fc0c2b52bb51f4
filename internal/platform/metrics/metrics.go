package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the registry core.
type Metrics struct {
	RegistriesCreated  prometheus.Counter
	VersionsAppended   prometheus.Counter
	AuthzDenials       *prometheus.CounterVec
	IntegrityFailures  prometheus.Counter
	AuditEntriesTotal  *prometheus.CounterVec
	AuditEntriesLost   prometheus.Counter
	RequestDuration    *prometheus.HistogramVec
	OutboxPublished    prometheus.Counter
	OutboxPublishError prometheus.Counter
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		RegistriesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "caseledger_registries_created_total",
			Help: "Total number of registry records created",
		}),
		VersionsAppended: promauto.NewCounter(prometheus.CounterOpts{
			Name: "caseledger_versions_appended_total",
			Help: "Total number of registry versions appended",
		}),
		AuthzDenials: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "caseledger_authz_denials_total",
			Help: "Authorization denials by role",
		}, []string{"role"}),
		IntegrityFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "caseledger_hash_integrity_failures_total",
			Help: "Stored content hashes that no longer match the recomputed canonical hash",
		}),
		AuditEntriesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "caseledger_audit_entries_total",
			Help: "Audit entries recorded by action",
		}, []string{"action"}),
		AuditEntriesLost: promauto.NewCounter(prometheus.CounterOpts{
			Name: "caseledger_audit_entries_lost_total",
			Help: "Best-effort audit entries dropped because the store rejected them",
		}),
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "caseledger_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		OutboxPublished: promauto.NewCounter(prometheus.CounterOpts{
			Name: "caseledger_audit_outbox_published_total",
			Help: "Audit outbox entries published to the broker",
		}),
		OutboxPublishError: promauto.NewCounter(prometheus.CounterOpts{
			Name: "caseledger_audit_outbox_publish_errors_total",
			Help: "Audit outbox publish attempts that failed",
		}),
	}
}

// ObserveRequest records one HTTP request observation.
func (m *Metrics) ObserveRequest(method, path, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(method, path, status).Observe(d.Seconds())
}
