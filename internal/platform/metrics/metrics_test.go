package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNew_RegistersOnGivenRegistry(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := New(reg)
	m.Submission(OutcomeAccepted)
	m.Submission(OutcomeAccepted)
	m.Submission(OutcomeInvalid)
	m.CheckIn(true)
	m.CheckIn(false)
	m.CredentialCacheHits.Inc()

	if got := testutil.ToFloat64(m.RegistrationsSubmitted.WithLabelValues(OutcomeAccepted)); got != 2 {
		t.Fatalf("accepted=%v", got)
	}
	if got := testutil.ToFloat64(m.CheckInTransitions.WithLabelValues("checked_out")); got != 1 {
		t.Fatalf("checked_out=%v", got)
	}
	n, err := testutil.GatherAndCount(reg, "credential_cache_hits_total", "registration_submissions_total")
	if err != nil {
		t.Fatalf("gather err=%v", err)
	}
	if n != 3 {
		t.Fatalf("series=%d want 3", n)
	}
}

func TestNilMetricsAreNoops(t *testing.T) {
	t.Parallel()

	var m *Metrics
	m.Submission(OutcomeError)
	m.CheckIn(true)
}
