package app

import "time"

// Config is the process-level runtime configuration. Everything comes from
// CHIRP_* environment variables; package-level concerns (session TTLs, cookie
// attributes, argon2 cost) load their own config where they live.
type Config struct {
	HTTPAddr string
	LogLevel string

	HTTP HTTPConfig

	// Empty DatabaseURL selects the in-memory stores. Useful for local
	// development and the client tests; production sets a real DSN.
	DatabaseURL string
	DBMaxConns  int32
	DBMinConns  int32

	// ReadinessRequireDB makes /readyz fail unless Postgres is configured
	// and reachable.
	ReadinessRequireDB bool

	// RequireTokenHMAC refuses startup unless CHIRP_TOKEN_HMAC_KEY is set
	// (>= 32 bytes), so stored refresh-credential digests are keyed.
	RequireTokenHMAC bool

	// PurgeInterval drives the background sweep of expired ledger records.
	PurgeInterval time.Duration
}

// HTTPConfig holds the http.Server knobs.
type HTTPConfig struct {
	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int
}

// LoadConfig reads Config from the environment, falling back to defaults
// that suit a single-node deployment.
func LoadConfig() Config {
	return Config{
		HTTPAddr: EnvString("CHIRP_HTTP_ADDR", "0.0.0.0:8080"),
		LogLevel: EnvString("CHIRP_LOG_LEVEL", "info"),

		HTTP: HTTPConfig{
			ReadHeaderTimeout: EnvDuration("CHIRP_HTTP_READ_HEADER_TIMEOUT", 5*time.Second),
			ReadTimeout:       EnvDuration("CHIRP_HTTP_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:      EnvDuration("CHIRP_HTTP_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:       EnvDuration("CHIRP_HTTP_IDLE_TIMEOUT", 60*time.Second),
			MaxHeaderBytes:    EnvInt("CHIRP_HTTP_MAX_HEADER_BYTES", 1<<20),
		},

		DatabaseURL: EnvString("CHIRP_DATABASE_URL", ""),
		DBMaxConns:  EnvInt32("CHIRP_DB_MAX_CONNS", 10),
		DBMinConns:  EnvInt32("CHIRP_DB_MIN_CONNS", 0),

		ReadinessRequireDB: EnvBool("CHIRP_READINESS_REQUIRE_DB", false),
		RequireTokenHMAC:   EnvBool("CHIRP_REQUIRE_TOKEN_HMAC", false),

		PurgeInterval: EnvDuration("CHIRP_SESSION_PURGE_INTERVAL", time.Hour),
	}
}
