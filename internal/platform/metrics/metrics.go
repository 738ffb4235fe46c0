package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	PatientsCreated    prometheus.Counter
	PatientsUpdated    prometheus.Counter
	PatientsDeleted    prometheus.Counter
	SettingsUpdated    prometheus.Counter
	SettingsSuperseded prometheus.Counter
	Logins             prometheus.Counter
	LoginFailures      prometheus.Counter
	ValidationFailures *prometheus.CounterVec
	RequestLatency     *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		PatientsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "clinicdesk_patients_created_total",
			Help: "Total number of patient records created",
		}),
		PatientsUpdated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "clinicdesk_patients_updated_total",
			Help: "Total number of patient records updated",
		}),
		PatientsDeleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "clinicdesk_patients_deleted_total",
			Help: "Total number of patient records deleted",
		}),
		SettingsUpdated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "clinicdesk_settings_updated_total",
			Help: "Total number of committed clinic settings updates",
		}),
		SettingsSuperseded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "clinicdesk_settings_superseded_total",
			Help: "Total number of settings updates discarded as stale",
		}),
		Logins: promauto.NewCounter(prometheus.CounterOpts{
			Name: "clinicdesk_logins_total",
			Help: "Total number of successful logins",
		}),
		LoginFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "clinicdesk_login_failures_total",
			Help: "Total number of rejected login attempts",
		}),
		ValidationFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "clinicdesk_validation_failures_total",
			Help: "Total number of rejected drafts by record type",
		}, []string{"record"}),
		RequestLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "clinicdesk_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"route", "status"}),
	}
}

// ObserveRequest records one served request.
func (m *Metrics) ObserveRequest(route, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.RequestLatency.WithLabelValues(route, status).Observe(d.Seconds())
}
