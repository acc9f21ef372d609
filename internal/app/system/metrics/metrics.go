// Package metrics holds the Prometheus collectors for authentication and
// account lifecycle events.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Result label values.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

var (
	// authAttempts counts login attempts by outcome code.
	authAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stratagate_auth_attempts_total",
		Help: "Total number of login attempts by outcome",
	}, []string{"outcome"})

	// lifecycleEvents counts account lifecycle operations.
	lifecycleEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stratagate_lifecycle_events_total",
		Help: "Total number of account lifecycle operations by event and result",
	}, []string{"event", "result"})

	// policyTicks counts registration policy reconciliations.
	policyTicks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stratagate_policy_ticks_total",
		Help: "Total number of registration policy reconciliations by result",
	}, []string{"result"})

	// registrationEnabled reports whether the registration routes are mounted.
	registrationEnabled = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "stratagate_registration_routes_enabled",
		Help: "Registration routes status (0=hidden, 1=exposed)",
	})
)

// AuthAttempt records one login attempt. outcome is "success" or a failure
// code such as "InvalidCredentials".
func AuthAttempt(outcome string) {
	authAttempts.WithLabelValues(outcome).Inc()
}

// Lifecycle records one account lifecycle operation.
func Lifecycle(event string, err error) {
	lifecycleEvents.WithLabelValues(event, result(err)).Inc()
}

// PolicyTick records one registration policy reconciliation.
func PolicyTick(err error) {
	policyTicks.WithLabelValues(result(err)).Inc()
}

// SetRegistrationEnabled sets the registration routes gauge.
func SetRegistrationEnabled(on bool) {
	if on {
		registrationEnabled.Set(1)
		return
	}
	registrationEnabled.Set(0)
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

func result(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultOK
}
