package waitlist

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeCreated   = "created"
	outcomeDuplicate = "duplicate"
	outcomeInvalid   = "invalid"
	outcomeError     = "error"
)

type signupMetrics struct {
	signups *prometheus.CounterVec
}

// newSignupMetrics registers on reg when given; a second registration reuses
// the collector that is already there.
func newSignupMetrics(reg prometheus.Registerer) *signupMetrics {
	signups := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "waitlist_signups_total",
			Help: "Waitlist signup attempts by outcome.",
		},
		[]string{"outcome"},
	)

	if reg != nil {
		if err := reg.Register(signups); err != nil {
			var already prometheus.AlreadyRegisteredError
			if errors.As(err, &already) {
				if existing, ok := already.ExistingCollector.(*prometheus.CounterVec); ok {
					signups = existing
				}
			}
		}
	}

	return &signupMetrics{signups: signups}
}

func (m *signupMetrics) observe(outcome string) {
	m.signups.WithLabelValues(outcome).Inc()
}
