package auth

import (
	"testing"
	"time"
)

func TestJWTRoundTrip(t *testing.T) {
	svc := NewJWTService(DefaultJWTConfig("test-secret"))

	token, expiresAt, err := svc.GenerateAccessToken("user-1", "bar@example.com", "Bar Manager", []string{"manager"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if time.Until(expiresAt) <= 0 {
		t.Fatal("token already expired")
	}

	user, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if user.UserID != "user-1" {
		t.Errorf("UserID = %q, want user-1", user.UserID)
	}
	if user.Email != "bar@example.com" {
		t.Errorf("Email = %q", user.Email)
	}
	if len(user.Roles) != 1 || user.Roles[0] != "manager" {
		t.Errorf("Roles = %v", user.Roles)
	}
}

func TestJWTWrongSecret(t *testing.T) {
	svc := NewJWTService(DefaultJWTConfig("secret-a"))
	token, _, err := svc.GenerateAccessToken("user-1", "", "", nil)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	other := NewJWTService(DefaultJWTConfig("secret-b"))
	if _, err := other.ValidateToken(token); err == nil {
		t.Fatal("expected validation error with wrong secret")
	}
}

func TestJWTExpired(t *testing.T) {
	cfg := DefaultJWTConfig("test-secret")
	cfg.AccessTokenTTL = -time.Minute
	svc := NewJWTService(cfg)

	token, _, err := svc.GenerateAccessToken("user-1", "", "", nil)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := svc.ValidateToken(token); err == nil {
		t.Fatal("expected expiry error")
	}
}
