package middleware

import (
	"testing"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestPasswordHashRoundTrip(t *testing.T) {
	a := NewAuthService(testSecret)
	hash, err := a.HashPassword("s3cret-pass")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	if !a.CheckPassword("s3cret-pass", hash) {
		t.Fatalf("expected correct password to verify")
	}
	if a.CheckPassword("wrong", hash) {
		t.Fatalf("expected wrong password to fail")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	a := NewAuthService(testSecret)
	token, err := a.GenerateToken("admin")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	claims, err := a.ValidateToken(token)
	if err != nil {
		t.Fatalf("validate token: %v", err)
	}
	if claims.Username != "admin" {
		t.Fatalf("expected username 'admin', got %q", claims.Username)
	}
}

func TestTokenRejectedAcrossSecrets(t *testing.T) {
	a := NewAuthService(testSecret)
	b := NewAuthService("another-secret-another-secret-xx")
	token, err := a.GenerateToken("admin")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	if _, err := b.ValidateToken(token); err == nil {
		t.Fatalf("expected token signed with a different secret to be rejected")
	}
}

func TestValidateRejectsGarbage(t *testing.T) {
	a := NewAuthService(testSecret)
	if _, err := a.ValidateToken("not-a-jwt"); err == nil {
		t.Fatalf("expected error for malformed token")
	}
}

func TestLockoutAfterRepeatedFailures(t *testing.T) {
	a := NewAuthService(testSecret)
	const ip = "10.0.0.1"

	if _, locked := a.CheckLockout(ip); locked {
		t.Fatalf("fresh client should not be locked out")
	}
	var locked bool
	for i := 0; i < maxAuthFailures; i++ {
		_, locked = a.RecordFailure(ip)
	}
	if !locked {
		t.Fatalf("expected lockout after %d failures", maxAuthFailures)
	}
	if remaining, isLocked := a.CheckLockout(ip); !isLocked || remaining <= 0 {
		t.Fatalf("expected active lockout, got locked=%v remaining=%v", isLocked, remaining)
	}

	a.ClearFailures(ip)
	if _, isLocked := a.CheckLockout(ip); isLocked {
		t.Fatalf("expected lockout cleared after reset")
	}
}
