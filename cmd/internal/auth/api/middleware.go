package authapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"chirp/cmd/internal/auth/token"
)

type contextKey struct{ name string }

var userIDKey = contextKey{"chirp.user_id"}

// UserIDFromContext returns the authenticated user ID placed by RequireAuth.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

// ContextWithUserID injects an authenticated user ID, bypassing token
// verification. Intended for tests of handlers that sit behind RequireAuth.
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// RequireAuth guards next with bearer-token authentication. On success the
// user ID is available via UserIDFromContext.
func (h *Handler) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := h.requireAuth(w, r)
		if !ok {
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userIDKey, claims.UserID)))
	})
}

func (h *Handler) requireAuth(w http.ResponseWriter, r *http.Request) (token.Claims, bool) {
	raw := bearerToken(r)
	if raw == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return token.Claims{}, false
	}
	claims, err := h.sessions.VerifyAccess(raw, time.Now().UTC())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", "invalid token")
		return token.Claims{}, false
	}
	return claims, true
}

func bearerToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw == "" {
		return ""
	}
	parts := strings.SplitN(raw, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
