package authapi

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"chirp/cmd/identity"
	"chirp/cmd/internal/auth/session"
)

// Metrics receives auth events for instrumentation. The zero dependency is
// a no-op; the app layer provides a Prometheus-backed implementation.
type Metrics interface {
	RegisterSucceeded()
	LoginSucceeded()
	LoginRejected()
	RefreshRotated()
	RefreshReplayRejected()
	SessionRevoked()
}

type noopMetrics struct{}

func (noopMetrics) RegisterSucceeded()     {}
func (noopMetrics) LoginSucceeded()        {}
func (noopMetrics) LoginRejected()         {}
func (noopMetrics) RefreshRotated()        {}
func (noopMetrics) RefreshReplayRejected() {}
func (noopMetrics) SessionRevoked()        {}

// Handler wires HTTP auth endpoints to identity/session services.
type Handler struct {
	log *slog.Logger
	cfg Config

	identity identity.Store
	sessions *session.Service

	limiter   *loginLimiter
	federated FederatedVerifier
	metrics   Metrics

	dummyHash string
}

// HandlerOption configures optional auth handler dependencies.
type HandlerOption func(*Handler)

// WithFederatedVerifier enables the federated login callback.
func WithFederatedVerifier(v FederatedVerifier) HandlerOption {
	return func(h *Handler) {
		if h == nil || v == nil {
			return
		}
		h.federated = v
	}
}

// WithMetrics overrides the default no-op metrics sink.
func WithMetrics(m Metrics) HandlerOption {
	return func(h *Handler) {
		if h == nil || m == nil {
			return
		}
		h.metrics = m
	}
}

// NewHandler constructs an auth Handler.
func NewHandler(log *slog.Logger, cfg Config, idStore identity.Store, sessions *session.Service, opts ...HandlerOption) (*Handler, error) {
	if log == nil {
		log = slog.Default()
	}
	if idStore == nil {
		return nil, errors.New("authapi: nil identity store")
	}
	if sessions == nil {
		return nil, errors.New("authapi: nil session service")
	}

	h := &Handler{
		log:      log,
		cfg:      cfg,
		identity: idStore,
		sessions: sessions,
		limiter:  newLoginLimiter(cfg.LoginIPMax, cfg.LoginIPWindow),
		metrics:  noopMetrics{},
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(h)
	}

	// Dummy hash for timing-resistant login checks.
	if hash, err := identity.HashPassword("Dummy-p4ssword-for-timing-only!"); err == nil {
		h.dummyHash = hash
	}

	return h, nil
}

// Register wires auth routes onto the provided mux.
func (h *Handler) Register(mux *http.ServeMux) {
	if h == nil || mux == nil {
		return
	}
	mux.HandleFunc("/auth/register", h.handleRegister)
	mux.HandleFunc("/auth/login", h.handleLogin)
	mux.HandleFunc("/auth/refresh-token", h.handleRefresh)
	mux.HandleFunc("/auth/logout", h.handleLogout)
	mux.HandleFunc("/auth/logout-all", h.handleLogoutAll)
	mux.HandleFunc("/auth/federated/callback", h.handleFederatedCallback)
	mux.HandleFunc("/me", h.handleMe)
}

// ---- handlers ----

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req registerRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	ctx := r.Context()
	now := time.Now().UTC()

	user, err := h.identity.CreateUser(ctx, identity.CreateUserInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Now:      now,
	})
	if err != nil {
		switch {
		case identity.IsConflict(err):
			writeError(w, http.StatusBadRequest, "user_exists", "username or email already taken")
		case errors.Is(err, identity.ErrPasswordPolicy):
			writeError(w, http.StatusBadRequest, "weak_password", "password does not meet requirements")
		case identity.IsInvalidInput(err):
			writeError(w, http.StatusBadRequest, "invalid_request", "username, email and password are required")
		default:
			h.log.Error("auth.register.fail", "err", err)
			writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		}
		return
	}

	issued, err := h.sessions.Issue(ctx, now, user.ID)
	if err != nil {
		h.log.Error("auth.register.issue.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	h.metrics.RegisterSucceeded()
	h.setRefreshCookie(w, issued.RefreshToken, issued.RefreshExp)
	writeJSON(w, http.StatusOK, loginResponse{
		User:    toUserResponse(user),
		Session: toSessionResponse(issued),
	})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req loginRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	email := strings.TrimSpace(req.Email)
	if email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "email and password are required")
		return
	}

	ctx := r.Context()
	now := time.Now().UTC()

	// IP throttle before any credential work.
	ip := clientIP(r, h.cfg.TrustProxy)
	ipKey := ""
	if ip != nil {
		ipKey = ip.String()
	}
	if ok, retryAfter := h.limiter.Allow(ipKey, now); !ok {
		h.log.Warn("auth.login.rate_limited", "ip", ipKey)
		writeRateLimited(w, retryAfter)
		return
	}

	userAuth, err := h.identity.GetUserAuthByEmail(ctx, email)
	if err != nil {
		// Timing resistance: perform a dummy verify when user is missing.
		if h.dummyHash != "" {
			_, _ = identity.VerifyPassword(req.Password, h.dummyHash)
		}
		h.metrics.LoginRejected()
		writeError(w, http.StatusBadRequest, "invalid_credentials", "invalid email or password")
		return
	}

	okPw, err := identity.VerifyPassword(req.Password, userAuth.PasswordHash)
	if err != nil || !okPw {
		h.metrics.LoginRejected()
		writeError(w, http.StatusBadRequest, "invalid_credentials", "invalid email or password")
		return
	}

	issued, err := h.sessions.Issue(ctx, now, userAuth.User.ID)
	if err != nil {
		h.log.Error("auth.login.issue.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	h.metrics.LoginSucceeded()
	h.setRefreshCookie(w, issued.RefreshToken, issued.RefreshExp)
	writeJSON(w, http.StatusOK, loginResponse{
		User:    toUserResponse(userAuth.User),
		Session: toSessionResponse(issued),
	})
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	refreshToken, ok := h.refreshTokenFromCookie(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing_refresh_token", "refresh credential cookie is required")
		return
	}

	ctx := r.Context()
	now := time.Now().UTC()

	issued, err := h.sessions.Rotate(ctx, now, refreshToken)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrRefreshNotFound), errors.Is(err, session.ErrRefreshExpired):
			// Unknown, replayed, or expired: the credential is dead either
			// way, so drop the cookie and force a fresh login.
			h.metrics.RefreshReplayRejected()
			h.clearRefreshCookie(w)
			writeError(w, http.StatusUnauthorized, "invalid_refresh_token", "refresh credential is invalid or expired")
		default:
			h.log.Error("auth.refresh.fail", "err", err)
			writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		}
		return
	}

	h.metrics.RefreshRotated()
	h.setRefreshCookie(w, issued.RefreshToken, issued.RefreshExp)
	writeJSON(w, http.StatusOK, refreshResponse{Session: toSessionResponse(issued)})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	now := time.Now().UTC()

	// Logout is best-effort: revoke the presented credential if any,
	// clear the cookie regardless.
	if refreshToken, ok := h.refreshTokenFromCookie(r); ok {
		if err := h.sessions.Revoke(ctx, now, refreshToken); err != nil {
			h.log.Error("auth.logout.fail", "err", err)
			writeError(w, http.StatusInternalServerError, "server_error", "internal error")
			return
		}
		h.metrics.SessionRevoked()
	}

	h.clearRefreshCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleLogoutAll(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	claims, ok := h.requireAuth(w, r)
	if !ok {
		return
	}

	if err := h.sessions.RevokeAll(r.Context(), claims.UserID); err != nil {
		h.log.Error("auth.logout_all.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	h.metrics.SessionRevoked()
	h.clearRefreshCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	claims, ok := h.requireAuth(w, r)
	if !ok {
		return
	}

	u, err := h.identity.GetUserByID(r.Context(), claims.UserID)
	if err != nil {
		if identity.IsNotFound(err) {
			writeError(w, http.StatusUnauthorized, "unauthorized", "user not found")
			return
		}
		h.log.Error("auth.me.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	writeJSON(w, http.StatusOK, meResponse{User: toUserResponse(u)})
}
