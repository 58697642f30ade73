package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	ExportsTotal         prometheus.Counter
	WipesTotal           *prometheus.CounterVec
	DomainFailures       *prometheus.CounterVec
	NotificationFailures *prometheus.CounterVec
	LifecycleEvaluated   prometheus.Counter
	LifecycleSkipped     prometheus.Counter
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		ExportsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "datacustody_exports_total",
			Help: "Total number of personal data exports assembled",
		}),
		WipesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "datacustody_wipes_total",
			Help: "Total number of completed erasure runs by trigger type",
		}, []string{"type"}),
		DomainFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "datacustody_domain_failures_total",
			Help: "Total number of isolated domain handler failures",
		}, []string{"operation", "domain"}),
		NotificationFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "datacustody_notification_failures_total",
			Help: "Total number of post-audit notification sink failures",
		}, []string{"sink"}),
		LifecycleEvaluated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "datacustody_lifecycle_evaluated_total",
			Help: "Total number of accounts evaluated for lifecycle deletion",
		}),
		LifecycleSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "datacustody_lifecycle_skipped_total",
			Help: "Total number of lifecycle deletions skipped by the pre-action re-check",
		}),
	}
}

// IncExport increments the export counter by 1.
func (m *Metrics) IncExport() {
	m.ExportsTotal.Inc()
}

// IncWipe increments the wipe counter for the given trigger type.
func (m *Metrics) IncWipe(wipeType string) {
	m.WipesTotal.WithLabelValues(wipeType).Inc()
}

// IncDomainFailure increments the per-domain failure counter.
func (m *Metrics) IncDomainFailure(operation, domain string) {
	m.DomainFailures.WithLabelValues(operation, domain).Inc()
}

// IncNotificationFailure increments the per-sink failure counter.
func (m *Metrics) IncNotificationFailure(sink string) {
	m.NotificationFailures.WithLabelValues(sink).Inc()
}
