// internal/app/system/metrics/metrics.go
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registration results.
const (
	ResultOK        = "ok"
	ResultDuplicate = "duplicate"
	ResultFull      = "full"
	ResultClosed    = "closed"
	ResultInvalid   = "invalid"
	ResultError     = "error"
	ResultThrottled = "throttled"
)

var (
	Registrations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strataimpact_registrations_total",
			Help: "Event registration attempts by result",
		},
		[]string{"result"},
	)

	Subscriptions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strataimpact_subscriptions_total",
			Help: "Newsletter subscription attempts by result",
		},
		[]string{"result"},
	)

	ContactMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strataimpact_contact_messages_total",
			Help: "Contact form submissions by result",
		},
		[]string{"result"},
	)

	EmailsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strataimpact_emails_total",
			Help: "Notification emails by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	LoginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strataimpact_login_attempts_total",
			Help: "Admin login attempts by result",
		},
		[]string{"result"},
	)

	PurgedMessages = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "strataimpact_contact_messages_purged_total",
			Help: "Archived contact messages removed by the retention job",
		},
	)
)

// RecordEmail counts a notification email.
func RecordEmail(kind string, sent bool) {
	outcome := "sent"
	if !sent {
		outcome = "failed"
	}
	EmailsSent.WithLabelValues(kind, outcome).Inc()
}

// Handler serves the default Prometheus registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
