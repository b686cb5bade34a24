package app

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestMetricsExposition(t *testing.T) {
	m := NewMetrics()
	m.RegisterSucceeded()
	m.LoginSucceeded()
	m.LoginSucceeded()
	m.RefreshRotated()
	m.RefreshReplayRejected()
	m.SessionRevoked()
	m.RecordsPurged(3)
	m.RecordsPurged(0) // no-op

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("metrics endpoint: status %d", rr.Code)
	}
	body := rr.Body.String()

	for _, want := range []string{
		"chirp_auth_registrations_total 1",
		"chirp_auth_logins_total 2",
		"chirp_auth_refresh_rotations_total 1",
		"chirp_auth_refresh_replays_rejected_total 1",
		"chirp_auth_session_revocations_total 1",
		"chirp_auth_refresh_purged_total 3",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("exposition missing %q:\n%s", want, body)
		}
	}
}
