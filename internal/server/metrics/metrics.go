// Package metrics exposes Prometheus counters for authentication outcomes.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

type Metrics struct {
	Logins        *prometheus.CounterVec
	Registrations *prometheus.CounterVec
	Callbacks     *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		Logins: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "secretwall_logins_total",
			Help: "Local login attempts by outcome.",
		}, []string{"outcome"}),
		Registrations: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "secretwall_registrations_total",
			Help: "Registration attempts by outcome.",
		}, []string{"outcome"}),
		Callbacks: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "secretwall_federated_callbacks_total",
			Help: "Federated callback attempts by outcome.",
		}, []string{"outcome"}),
	}
}
