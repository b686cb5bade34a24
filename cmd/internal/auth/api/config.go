package authapi

import (
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config controls auth API behavior and security defaults.
type Config struct {
	// RefreshCookieName is the cookie carrying the refresh credential.
	RefreshCookieName string
	CookiePath        string
	CookieDomain      string

	// CookieSecure marks the refresh cookie Secure. Disabled only for
	// local plain-HTTP development.
	CookieSecure   bool
	CookieSameSite http.SameSite

	TrustProxy   bool
	MaxBodyBytes int64

	// LoginIPMax failed-or-not login attempts per LoginIPWindow per client IP.
	LoginIPMax    int
	LoginIPWindow time.Duration

	// FederatedRedirectURL receives the browser after a federated
	// callback, with the access token appended as a query parameter.
	FederatedRedirectURL string
}

// LoadConfigFromEnv loads auth config from environment variables with safe defaults.
func LoadConfigFromEnv() Config {
	cfg := Config{
		RefreshCookieName:    envString("CHIRP_AUTH_REFRESH_COOKIE_NAME", "refresh_token"),
		CookiePath:           envString("CHIRP_AUTH_COOKIE_PATH", "/"),
		CookieDomain:         strings.TrimSpace(os.Getenv("CHIRP_AUTH_COOKIE_DOMAIN")),
		CookieSecure:         envBool("CHIRP_AUTH_COOKIE_SECURE", true),
		CookieSameSite:       http.SameSiteStrictMode,
		TrustProxy:           envBool("CHIRP_AUTH_TRUST_PROXY", false),
		MaxBodyBytes:         envInt64("CHIRP_AUTH_MAX_BODY_BYTES", 1<<20), // 1 MiB
		LoginIPMax:           envInt("CHIRP_AUTH_LOGIN_IP_MAX", 5),
		LoginIPWindow:        envDuration("CHIRP_AUTH_LOGIN_IP_WINDOW", 15*time.Minute),
		FederatedRedirectURL: strings.TrimSpace(os.Getenv("CHIRP_AUTH_FEDERATED_REDIRECT_URL")),
	}

	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 1 << 20
	}
	if cfg.LoginIPMax <= 0 {
		cfg.LoginIPMax = 5
	}

	return cfg
}

func envString(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func envInt64(key string, def int64) int64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func envDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
