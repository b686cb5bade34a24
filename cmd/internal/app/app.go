// Package app wires the Chirp server runtime: config, logging, metrics,
// stores, and HTTP routes.
package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"chirp/cmd/identity"
	authapi "chirp/cmd/internal/auth/api"
	"chirp/cmd/internal/auth/session"
	"chirp/cmd/internal/timeline"

	"github.com/jackc/pgx/v5/pgxpool"
)

// App is the Chirp server runtime.
type App struct {
	cfg Config
	log Logger

	dbPool    *pgxpool.Pool
	dbEnabled bool

	sessions  *session.Service
	auth      *authapi.Handler
	timeline  *timeline.Handler
	metrics   *Metrics
	federated authapi.FederatedVerifier
}

// Option configures optional App dependencies.
type Option func(*App)

// WithFederatedVerifier enables federated login on the auth handler.
func WithFederatedVerifier(v authapi.FederatedVerifier) Option {
	return func(a *App) {
		if a == nil || v == nil {
			return
		}
		a.federated = v
	}
}

// New constructs a fully wired App instance from config and logger.
func New(cfg Config, log Logger, opts ...Option) (*App, error) {
	if log == nil {
		log = NewLogger(cfg.LogLevel)
	}

	if err := ValidateSecurityConfig(cfg); err != nil {
		return nil, err
	}

	a := &App{cfg: cfg, log: log, metrics: NewMetrics()}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(a)
	}

	var (
		idStore identity.Store
		ledger  session.Store
		tweets  timeline.Store
		dbPool  *pgxpool.Pool
		dbMode  bool
	)
	if cfg.DatabaseURL == "" {
		log.Info("db.disabled.inmemory_store")
		idStore = identity.NewMemoryStore()
		ledger = session.NewMemoryLedger()
		tweets = timeline.NewMemoryStore()
	} else {
		pool, err := NewDBPool(context.Background(), cfg)
		if err != nil {
			return nil, err
		}
		log.Info("db.enabled.postgres_store")

		pgIdentity, err := identity.NewPostgresStore(pool)
		if err != nil {
			pool.Close()
			return nil, err
		}
		pgLedger, err := session.NewPostgresLedger(pool)
		if err != nil {
			pool.Close()
			return nil, err
		}
		pgTweets, err := timeline.NewPostgresStore(pool)
		if err != nil {
			pool.Close()
			return nil, err
		}
		idStore, ledger, tweets = pgIdentity, pgLedger, pgTweets
		dbPool, dbMode = pool, true
	}
	a.dbPool, a.dbEnabled = dbPool, dbMode

	sessCfg, err := session.LoadConfigFromEnv()
	if err != nil {
		if dbPool != nil {
			dbPool.Close()
		}
		return nil, err
	}
	sessions, err := session.NewService(sessCfg, ledger)
	if err != nil {
		if dbPool != nil {
			dbPool.Close()
		}
		return nil, err
	}
	a.sessions = sessions

	authOpts := []authapi.HandlerOption{authapi.WithMetrics(a.metrics)}
	if a.federated != nil {
		authOpts = append(authOpts, authapi.WithFederatedVerifier(a.federated))
	}
	authCfg := authapi.LoadConfigFromEnv()
	auth, err := authapi.NewHandler(log, authCfg, idStore, sessions, authOpts...)
	if err != nil {
		if dbPool != nil {
			dbPool.Close()
		}
		return nil, err
	}
	a.auth = auth

	tl, err := timeline.NewHandler(log, tweets, idStore, authCfg.MaxBodyBytes)
	if err != nil {
		if dbPool != nil {
			dbPool.Close()
		}
		return nil, err
	}
	a.timeline = tl

	return a, nil
}

// Run starts the HTTP server and blocks until context cancellation or fatal
// server error. A background ticker purges expired ledger records.
func (a *App) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	registerHTTP(mux, a.log, a.cfg, a.dbPool, a.dbEnabled, a.auth, a.timeline, a.metrics)

	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           WithRequestLogging(mux, a.log),
		ReadHeaderTimeout: nonZeroDuration(a.cfg.HTTP.ReadHeaderTimeout, 5*time.Second),
		ReadTimeout:       nonZeroDuration(a.cfg.HTTP.ReadTimeout, 15*time.Second),
		WriteTimeout:      nonZeroDuration(a.cfg.HTTP.WriteTimeout, 15*time.Second),
		IdleTimeout:       nonZeroDuration(a.cfg.HTTP.IdleTimeout, 60*time.Second),
		MaxHeaderBytes:    nonZeroInt(a.cfg.HTTP.MaxHeaderBytes, 1<<20),
	}

	a.log.Info("server.start", "addr", a.cfg.HTTPAddr, "db_enabled", a.dbEnabled)

	purgeCtx, stopPurge := context.WithCancel(ctx)
	defer stopPurge()
	go a.purgeLoop(purgeCtx)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.log.Info("server.stop", "reason", "context_done")
	case err := <-errCh:
		a.log.Error("server.fail", "err", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error("server.shutdown.fail", "err", err)
		return err
	}

	if a.dbPool != nil {
		a.dbPool.Close()
	}

	a.log.Info("server.stopped")
	return nil
}

// purgeLoop periodically removes expired refresh records.
func (a *App) purgeLoop(ctx context.Context) {
	interval := nonZeroDuration(a.cfg.PurgeInterval, time.Hour)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := a.sessions.PurgeExpired(ctx, time.Now().UTC())
			if err != nil {
				if ctx.Err() == nil {
					a.log.Error("session.purge.fail", "err", err)
				}
				continue
			}
			a.metrics.RecordsPurged(n)
			if n > 0 {
				a.log.Info("session.purge", "removed", n)
			}
		}
	}
}

func nonZeroDuration(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}

func nonZeroInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
