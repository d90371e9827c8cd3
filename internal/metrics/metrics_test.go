package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveBallot(t *testing.T) {
	m := New()
	m.ObserveBallot("public", "accepted")
	m.ObserveBallot("public", "accepted")
	m.ObserveBallot("jury", "duplicate")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ballots.WithLabelValues("public", "accepted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ballots.WithLabelValues("jury", "duplicate")))
}

func TestObserveRecompute(t *testing.T) {
	m := New()
	m.ObserveRecompute("success", 120*time.Millisecond)
	m.ObserveRecompute("failure", time.Second)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.recomputeTotal.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.recomputeTotal.WithLabelValues("failure")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.recomputeDuration))
}

func TestInstancesDoNotCollide(t *testing.T) {
	assert.NotPanics(t, func() {
		New()
		New()
	})
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.ObserveBallot("public", "accepted")
	m.ObserveRequest("/api/results", http.MethodGet, "200", 5*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `anime_awards_ballots_total{kind="public",outcome="accepted"} 1`)
	assert.Contains(t, body, `anime_awards_http_request_duration_seconds_count{method="GET",route="/api/results",status="200"} 1`)
}
