package authapi

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"chirp/cmd/identity"
)

// ErrFederatedDenied indicates the provider rejected the authorization code.
var ErrFederatedDenied = errors.New("authapi: federated login denied")

// FederatedProfile is the provider-asserted identity of a federated login.
type FederatedProfile struct {
	Email       string
	DisplayName string
	Picture     string
}

// FederatedVerifier exchanges a provider authorization code for a verified
// profile. Implementations wrap a concrete provider (e.g. Google OAuth).
type FederatedVerifier interface {
	Exchange(ctx context.Context, code string) (FederatedProfile, error)
}

// handleFederatedCallback completes a federated login: the provider
// redirects the browser here with a code, we exchange it, find or create
// the matching local user, issue a session, and bounce the browser to the
// frontend with the access token in the query string. The refresh
// credential is set as a cookie, same as password login.
func (h *Handler) handleFederatedCallback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h.federated == nil || h.cfg.FederatedRedirectURL == "" {
		writeError(w, http.StatusNotFound, "not_found", "federated login not configured")
		return
	}

	code := strings.TrimSpace(r.URL.Query().Get("code"))
	if code == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "code is required")
		return
	}

	ctx := r.Context()
	now := time.Now().UTC()

	profile, err := h.federated.Exchange(ctx, code)
	if err != nil {
		if errors.Is(err, ErrFederatedDenied) {
			writeError(w, http.StatusUnauthorized, "unauthorized", "federated login denied")
			return
		}
		h.log.Error("auth.federated.exchange.fail", "err", err)
		writeError(w, http.StatusBadGateway, "provider_error", "federated provider unavailable")
		return
	}
	if strings.TrimSpace(profile.Email) == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized", "federated profile has no email")
		return
	}

	user, err := h.findOrCreateFederatedUser(ctx, now, profile)
	if err != nil {
		h.log.Error("auth.federated.user.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	issued, err := h.sessions.Issue(ctx, now, user.ID)
	if err != nil {
		h.log.Error("auth.federated.issue.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}
	h.setRefreshCookie(w, issued.RefreshToken, issued.RefreshExp)
	h.metrics.LoginSucceeded()

	redirect, err := url.Parse(h.cfg.FederatedRedirectURL)
	if err != nil {
		h.log.Error("auth.federated.redirect.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}
	q := redirect.Query()
	q.Set("token", issued.AccessToken)
	redirect.RawQuery = q.Encode()

	http.Redirect(w, r, redirect.String(), http.StatusFound)
}

func (h *Handler) findOrCreateFederatedUser(ctx context.Context, now time.Time, profile FederatedProfile) (identity.User, error) {
	auth, err := h.identity.GetUserAuthByEmail(ctx, profile.Email)
	if err == nil {
		return auth.User, nil
	}
	if !identity.IsNotFound(err) {
		return identity.User{}, err
	}

	in := identity.CreateUserInput{
		Username: usernameFromEmail(profile.Email),
		Email:    profile.Email,
		Password: identity.NewULID() + "!Aa0", // unguessable; account has no local password
		Now:      now,
	}
	user, err := h.identity.CreateUser(ctx, in)
	if err != nil {
		// The generated username may collide; retry once with a random suffix.
		if identity.IsConflict(err) {
			in.Username = usernameFromEmail(profile.Email) + strings.ToLower(identity.NewULID()[20:])
			return h.identity.CreateUser(ctx, in)
		}
		return identity.User{}, err
	}

	if profile.DisplayName != "" || profile.Picture != "" {
		upd := identity.UpdateProfileInput{}
		if profile.DisplayName != "" {
			upd.DisplayName = &profile.DisplayName
		}
		if profile.Picture != "" {
			upd.ProfilePicture = &profile.Picture
		}
		if updated, err := h.identity.UpdateProfile(ctx, user.ID, upd); err == nil {
			return updated, nil
		}
	}
	return user, nil
}

func usernameFromEmail(email string) string {
	local := email
	if i := strings.IndexByte(email, '@'); i > 0 {
		local = email[:i]
	}
	var b strings.Builder
	for _, r := range strings.ToLower(local) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "user"
	}
	return b.String()
}
