package app

import (
	"net/http"
	"time"

	authapi "chirp/cmd/internal/auth/api"
	"chirp/cmd/internal/timeline"

	"github.com/jackc/pgx/v5/pgxpool"
)

func registerHTTP(
	mux *http.ServeMux,
	log Logger,
	cfg Config,
	dbPool *pgxpool.Pool,
	dbEnabled bool,
	auth *authapi.Handler,
	tl *timeline.Handler,
	metrics *Metrics,
) {
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeProbe(w, http.StatusOK, "ok")
	})

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		switch {
		case cfg.ReadinessRequireDB && !dbEnabled:
			writeProbe(w, http.StatusServiceUnavailable, "db not configured")
		case dbEnabled && dbPool != nil:
			if err := PingDB(r.Context(), dbPool, 2*time.Second); err != nil {
				log.Info("readyz.db.not_ready", "err", err)
				writeProbe(w, http.StatusServiceUnavailable, "db not ready")
				return
			}
			writeProbe(w, http.StatusOK, "ready")
		default:
			writeProbe(w, http.StatusOK, "ready")
		}
	})

	if metrics != nil {
		mux.Handle("/metrics", metrics.Handler())
	}

	if auth != nil {
		auth.Register(mux)
		if tl != nil {
			tl.Register(mux, auth.RequireAuth)
		}
	}
}

func writeProbe(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(msg + "\n"))
}
