package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Submission outcomes recorded by RegistrationsSubmitted.
const (
	OutcomeAccepted       = "accepted"
	OutcomeInvalid        = "invalid"
	OutcomeDeliveryFailed = "delivery_failed"
	OutcomeError          = "error"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	RegistrationsSubmitted *prometheus.CounterVec
	CheckInTransitions     *prometheus.CounterVec

	CredentialCacheHits          prometheus.Counter
	CredentialCacheMisses        prometheus.Counter
	CredentialGenerations        prometheus.Counter
	CredentialGenerationFailures prometheus.Counter
	CredentialCacheWriteFailures prometheus.Counter
}

// New creates the metrics and registers them with reg. Pass prometheus.DefaultRegisterer in
// production and a fresh prometheus.NewRegistry() in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RegistrationsSubmitted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "registration_submissions_total",
			Help: "Registration submissions by outcome",
		}, []string{"outcome"}),
		CheckInTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "registration_checkin_updates_total",
			Help: "Check-in state updates by target state",
		}, []string{"state"}),
		CredentialCacheHits: f.NewCounter(prometheus.CounterOpts{
			Name: "credential_cache_hits_total",
			Help: "Credential image requests served from the image store",
		}),
		CredentialCacheMisses: f.NewCounter(prometheus.CounterOpts{
			Name: "credential_cache_misses_total",
			Help: "Credential image requests that required generation",
		}),
		CredentialGenerations: f.NewCounter(prometheus.CounterOpts{
			Name: "credential_generations_total",
			Help: "Credential images generated",
		}),
		CredentialGenerationFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "credential_generation_failures_total",
			Help: "Credential image generation failures",
		}),
		CredentialCacheWriteFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "credential_cache_write_failures_total",
			Help: "Generated credential images that could not be persisted",
		}),
	}
}

// NewNop returns metrics registered with a private registry, for callers that don't export them.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}

func (m *Metrics) Submission(outcome string) {
	if m == nil {
		return
	}
	m.RegistrationsSubmitted.WithLabelValues(outcome).Inc()
}

func (m *Metrics) CheckIn(checkedIn bool) {
	if m == nil {
		return
	}
	state := "checked_out"
	if checkedIn {
		state = "checked_in"
	}
	m.CheckInTransitions.WithLabelValues(state).Inc()
}
