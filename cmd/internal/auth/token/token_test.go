package token

import (
	"strings"
	"testing"
	"time"
)

func testManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(Config{
		Secret: []byte("0123456789abcdef0123456789abcdef"),
		Issuer: "chirp-test",
		TTL:    15 * time.Minute,
	})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return m
}

func TestIssueAndVerify(t *testing.T) {
	m := testManager(t)
	now := time.Now().UTC()

	raw, exp, err := m.Issue("01HZZZZZZZZZZZZZZZZZZZZZZZ", now)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if !exp.Equal(now.Add(15 * time.Minute)) {
		t.Fatalf("unexpected expiry: %v", exp)
	}

	claims, err := m.Verify(raw, now.Add(time.Second))
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.UserID != "01HZZZZZZZZZZZZZZZZZZZZZZZ" {
		t.Fatalf("unexpected user id: %q", claims.UserID)
	}
}

func TestVerifyExpired(t *testing.T) {
	m := testManager(t)
	now := time.Now().UTC()

	raw, _, err := m.Issue("user-1", now)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if _, err := m.Verify(raw, now.Add(15*time.Minute)); err != ErrExpiredToken {
		t.Fatalf("expected ErrExpiredToken at expiry, got %v", err)
	}
	if _, err := m.Verify(raw, now.Add(16*time.Minute)); err != ErrExpiredToken {
		t.Fatalf("expected ErrExpiredToken after expiry, got %v", err)
	}
	if _, err := m.Verify(raw, now.Add(14*time.Minute)); err != nil {
		t.Fatalf("token must verify before expiry: %v", err)
	}
}

func TestVerifyTamperedToken(t *testing.T) {
	m := testManager(t)
	now := time.Now().UTC()

	raw, _, err := m.Issue("user-1", now)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	// Flipping any byte must yield Malformed, never a valid identifier.
	for i := 0; i < len(raw); i += 7 {
		b := []byte(raw)
		if b[i] == 'A' {
			b[i] = 'B'
		} else {
			b[i] = 'A'
		}
		if _, err := m.Verify(string(b), now); err != ErrMalformedToken {
			t.Fatalf("tampered token at %d: expected ErrMalformedToken, got %v", i, err)
		}
	}

	if _, err := m.Verify("garbage", now); err != ErrMalformedToken {
		t.Fatalf("expected ErrMalformedToken, got %v", err)
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	m := testManager(t)
	other, err := NewManager(Config{
		Secret: []byte("ffffffffffffffffffffffffffffffff"),
		Issuer: "chirp-test",
		TTL:    15 * time.Minute,
	})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	now := time.Now().UTC()
	raw, _, err := m.Issue("user-1", now)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if _, err := other.Verify(raw, now); err != ErrMalformedToken {
		t.Fatalf("expected ErrMalformedToken across secrets, got %v", err)
	}
}

func TestNewManagerConfig(t *testing.T) {
	if _, err := NewManager(Config{Secret: []byte("short"), TTL: time.Minute}); err != ErrConfig {
		t.Fatalf("expected ErrConfig for short secret, got %v", err)
	}
	if _, err := NewManager(Config{Secret: []byte(strings.Repeat("x", 32))}); err != ErrConfig {
		t.Fatalf("expected ErrConfig for zero TTL, got %v", err)
	}
}
