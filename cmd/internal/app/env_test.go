package app

import (
	"testing"
	"time"
)

func TestEnvHelpersDefaults(t *testing.T) {
	t.Setenv("CHIRP_TEST_STR", "")
	t.Setenv("CHIRP_TEST_BOOL", "not-a-bool")
	t.Setenv("CHIRP_TEST_INT", "-3")
	t.Setenv("CHIRP_TEST_DUR", "soon")

	if got := EnvString("CHIRP_TEST_STR", "fallback"); got != "fallback" {
		t.Fatalf("EnvString: %q", got)
	}
	if got := EnvBool("CHIRP_TEST_BOOL", true); got != true {
		t.Fatalf("EnvBool should fall back on parse error")
	}
	if got := EnvInt("CHIRP_TEST_INT", 7); got != 7 {
		t.Fatalf("EnvInt should reject non-positive values, got %d", got)
	}
	if got := EnvDuration("CHIRP_TEST_DUR", time.Minute); got != time.Minute {
		t.Fatalf("EnvDuration: %v", got)
	}
}

func TestEnvHelpersParse(t *testing.T) {
	t.Setenv("CHIRP_TEST_STR", " padded ")
	t.Setenv("CHIRP_TEST_BOOL", "true")
	t.Setenv("CHIRP_TEST_INT", "42")
	t.Setenv("CHIRP_TEST_INT32", "12")
	t.Setenv("CHIRP_TEST_DUR", "90s")

	if got := EnvString("CHIRP_TEST_STR", ""); got != "padded" {
		t.Fatalf("EnvString should trim: %q", got)
	}
	if !EnvBool("CHIRP_TEST_BOOL", false) {
		t.Fatalf("EnvBool parse failed")
	}
	if got := EnvInt("CHIRP_TEST_INT", 0); got != 42 {
		t.Fatalf("EnvInt: %d", got)
	}
	if got := EnvInt32("CHIRP_TEST_INT32", 0); got != 12 {
		t.Fatalf("EnvInt32: %d", got)
	}
	if got := EnvDuration("CHIRP_TEST_DUR", 0); got != 90*time.Second {
		t.Fatalf("EnvDuration: %v", got)
	}
}

func TestValidateSecurityConfig(t *testing.T) {
	t.Setenv("CHIRP_TOKEN_HMAC_KEY", "")
	if err := ValidateSecurityConfig(Config{RequireTokenHMAC: false}); err != nil {
		t.Fatalf("policy off must pass: %v", err)
	}
	if err := ValidateSecurityConfig(Config{RequireTokenHMAC: true}); err == nil {
		t.Fatalf("missing key must fail under policy")
	}

	t.Setenv("CHIRP_TOKEN_HMAC_KEY", "short")
	if err := ValidateSecurityConfig(Config{RequireTokenHMAC: true}); err == nil {
		t.Fatalf("short key must fail under policy")
	}

	t.Setenv("CHIRP_TOKEN_HMAC_KEY", "0123456789abcdef0123456789abcdef")
	if err := ValidateSecurityConfig(Config{RequireTokenHMAC: true}); err != nil {
		t.Fatalf("valid key must pass: %v", err)
	}
}
