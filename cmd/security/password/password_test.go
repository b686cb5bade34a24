package password

import (
	"strings"
	"testing"
)

func testConfig() Config {
	cfg := DefaultConfig()
	// Keep tests fast; these params are far below production cost.
	cfg.Params.MemoryKiB = 8 * 1024
	cfg.Params.Iterations = 1
	cfg.Params.Parallelism = 1
	return cfg
}

func TestHashAndVerify(t *testing.T) {
	cfg := testConfig()

	enc, err := cfg.Hash("Sup3r-secret!")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if !strings.HasPrefix(enc, "$argon2id$v=19$") {
		t.Fatalf("unexpected hash format: %q", enc)
	}

	ok, err := cfg.Verify(enc, "Sup3r-secret!")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !ok {
		t.Fatalf("expected match")
	}

	ok, err = cfg.Verify(enc, "Sup3r-secret?")
	if err != nil {
		t.Fatalf("Verify mismatch: %v", err)
	}
	if ok {
		t.Fatalf("expected mismatch")
	}
}

func TestVerifyRejectsMalformedHash(t *testing.T) {
	cfg := testConfig()

	for _, enc := range []string{
		"",
		"not-a-hash",
		"$argon2i$v=19$m=8192,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=18$m=8192,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=0,t=1,p=1$c2FsdA$aGFzaA",
	} {
		if _, err := cfg.Verify(enc, "whatever"); err != ErrInvalidHash {
			t.Fatalf("Verify(%q): expected ErrInvalidHash, got %v", enc, err)
		}
	}
}

func TestValidatePolicy(t *testing.T) {
	cfg := testConfig()

	tests := []struct {
		pw   string
		want error
	}{
		{"Short1!", ErrPasswordTooShort},
		{strings.Repeat("Aa1!", 30), ErrPasswordTooLong},
		{"alllowercase1!", ErrWeakPassword},
		{"NoDigitsHere!", ErrWeakPassword},
		{"NoSymbols123", ErrWeakPassword},
		{"Has Space1!", ErrWeakPassword},
		{"G00d-enough", nil},
	}

	for _, tc := range tests {
		if got := cfg.Validate(tc.pw); got != tc.want {
			t.Fatalf("Validate(%q) = %v, want %v", tc.pw, got, tc.want)
		}
	}
}

func TestAntiDoSBounds(t *testing.T) {
	cfg := testConfig()

	// A syntactically valid hash whose memory parameter is far above our
	// configured limit must be refused before any key derivation.
	enc := "$argon2id$v=19$m=1048576,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaGhhc2hoYXNoaGFzaA"
	if _, err := cfg.Verify(enc, "whatever"); err != ErrInvalidHash {
		t.Fatalf("expected ErrInvalidHash for oversized params, got %v", err)
	}
}
