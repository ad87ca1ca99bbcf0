package utils

import (
	"errors"
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", "farmops-test", time.Hour)
	token, claims, err := tm.GenerateAccessToken(42)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if claims.ID == "" {
		t.Fatalf("expected a jti")
	}

	parsed, err := tm.ValidateToken(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if parsed.UserID != 42 || parsed.ID != claims.ID || parsed.Subject != "42" {
		t.Fatalf("unexpected claims %+v", parsed)
	}

	_, second, _ := tm.GenerateAccessToken(42)
	if second.ID == claims.ID {
		t.Fatalf("expected a fresh jti per token")
	}
}

func TestValidateTokenRejects(t *testing.T) {
	issued := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	tm := NewTokenManager("secret", "farmops-test", time.Hour)
	tm.now = func() time.Time { return issued }
	token, _, err := tm.GenerateAccessToken(7)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	expired := NewTokenManager("secret", "farmops-test", time.Hour)
	expired.now = func() time.Time { return issued.Add(2 * time.Hour) }

	otherKey := NewTokenManager("another-secret", "farmops-test", time.Hour)
	otherKey.now = tm.now

	otherIssuer := NewTokenManager("secret", "someone-else", time.Hour)
	otherIssuer.now = tm.now

	cases := []struct {
		name  string
		tm    *TokenManager
		token string
	}{
		{"expired", expired, token},
		{"wrong key", otherKey, token},
		{"wrong issuer", otherIssuer, token},
		{"garbage", tm, "not.a.token"},
		{"empty", tm, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := tc.tm.ValidateToken(tc.token); !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}

func TestGenerateRequiresUser(t *testing.T) {
	tm := NewTokenManager("secret", "", 0)
	if tm.TTL() != DefaultTokenTTL {
		t.Fatalf("expected default ttl, got %v", tm.TTL())
	}
	if _, _, err := tm.GenerateAccessToken(0); err == nil {
		t.Fatalf("expected an error for user id 0")
	}
}
