package auth

import (
	"strings"
	"testing"
)

// Fixed secret so tests are deterministic.
func newTestTokenService(t *testing.T) *TokenService {
	t.Helper()
	ts, err := NewTokenService("test-secret-at-least-16-chars!!")
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return ts
}

func TestNewTokenService_ShortSecret(t *testing.T) {
	if _, err := NewTokenService("short"); err == nil {
		t.Fatal("NewTokenService() should reject secrets shorter than 16 chars")
	}
}

func TestGenerateAdmin_ReturnsWellFormedToken(t *testing.T) {
	ts := newTestTokenService(t)

	token, err := ts.GenerateAdmin()
	if err != nil {
		t.Fatalf("GenerateAdmin() error = %v", err)
	}
	if token == "" {
		t.Error("GenerateAdmin() returned empty token")
	}
	// header.payload.signature
	if parts := strings.Count(token, "."); parts != 2 {
		t.Errorf("token doesn't look like a JWT (expected 2 dots, got %d)", parts)
	}
}

func TestValidate_RoundTrip(t *testing.T) {
	ts := newTestTokenService(t)

	token, err := ts.GenerateAdmin()
	if err != nil {
		t.Fatalf("GenerateAdmin() error = %v", err)
	}
	if err := ts.Validate(token); err != nil {
		t.Errorf("Validate() error = %v, want nil for a fresh token", err)
	}
}

func TestValidate_RejectsGarbage(t *testing.T) {
	ts := newTestTokenService(t)

	if err := ts.Validate("not.a.token"); err == nil {
		t.Error("Validate() accepted a malformed token")
	}
	if err := ts.Validate(""); err == nil {
		t.Error("Validate() accepted an empty token")
	}
}

func TestValidate_RejectsForeignSignature(t *testing.T) {
	ts := newTestTokenService(t)
	other, err := NewTokenService("a-completely-different-secret!!!")
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}

	token, err := other.GenerateAdmin()
	if err != nil {
		t.Fatalf("GenerateAdmin() error = %v", err)
	}
	if err := ts.Validate(token); err == nil {
		t.Error("Validate() accepted a token signed with a different secret")
	}
}

func TestValidate_RejectsTamperedToken(t *testing.T) {
	ts := newTestTokenService(t)

	token, err := ts.GenerateAdmin()
	if err != nil {
		t.Fatalf("GenerateAdmin() error = %v", err)
	}
	tampered := token[:len(token)-2] + "xx"
	if err := ts.Validate(tampered); err == nil {
		t.Error("Validate() accepted a tampered token")
	}
}
