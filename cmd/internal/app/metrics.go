package app

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the server's Prometheus instruments. It satisfies the auth
// API's metrics sink.
type Metrics struct {
	registry *prometheus.Registry

	registrations   prometheus.Counter
	logins          prometheus.Counter
	loginRejections prometheus.Counter
	rotations       prometheus.Counter
	replayRejects   prometheus.Counter
	revocations     prometheus.Counter
	purgedRecords   prometheus.Counter
}

// NewMetrics builds a self-contained registry with process collectors plus
// the auth counters.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		registrations: factory.NewCounter(prometheus.CounterOpts{
			Name: "chirp_auth_registrations_total",
			Help: "Successful account registrations.",
		}),
		logins: factory.NewCounter(prometheus.CounterOpts{
			Name: "chirp_auth_logins_total",
			Help: "Successful logins (password and federated).",
		}),
		loginRejections: factory.NewCounter(prometheus.CounterOpts{
			Name: "chirp_auth_login_rejections_total",
			Help: "Logins rejected for bad credentials.",
		}),
		rotations: factory.NewCounter(prometheus.CounterOpts{
			Name: "chirp_auth_refresh_rotations_total",
			Help: "Successful refresh credential rotations.",
		}),
		replayRejects: factory.NewCounter(prometheus.CounterOpts{
			Name: "chirp_auth_refresh_replays_rejected_total",
			Help: "Refresh attempts rejected because the credential was unknown, already used, or expired.",
		}),
		revocations: factory.NewCounter(prometheus.CounterOpts{
			Name: "chirp_auth_session_revocations_total",
			Help: "Logout and logout-all revocations.",
		}),
		purgedRecords: factory.NewCounter(prometheus.CounterOpts{
			Name: "chirp_auth_refresh_purged_total",
			Help: "Expired refresh records removed by housekeeping.",
		}),
	}
}

func (m *Metrics) RegisterSucceeded()     { m.registrations.Inc() }
func (m *Metrics) LoginSucceeded()        { m.logins.Inc() }
func (m *Metrics) LoginRejected()         { m.loginRejections.Inc() }
func (m *Metrics) RefreshRotated()        { m.rotations.Inc() }
func (m *Metrics) RefreshReplayRejected() { m.replayRejects.Inc() }
func (m *Metrics) SessionRevoked()        { m.revocations.Inc() }

// RecordsPurged adds n to the housekeeping counter.
func (m *Metrics) RecordsPurged(n int64) {
	if n > 0 {
		m.purgedRecords.Add(float64(n))
	}
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
