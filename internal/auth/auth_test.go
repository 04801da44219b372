package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signHS256(t *testing.T, secret []byte, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return token
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Bearer abc.def.ghi", "abc.def.ghi"},
		{"bearer abc", "abc"},
		{"  Bearer   abc ", "abc"},
		{"Basic abc", ""},
		{"Bearer", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := bearerToken(tt.in); got != tt.want {
			t.Fatalf("bearerToken(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestVerifyHS256(t *testing.T) {
	secret := []byte("test-secret")
	v := &SupabaseVerifier{Issuer: "https://proj.supabase.co/auth/v1", Secret: secret}

	token := signHS256(t, secret, jwt.MapClaims{
		"sub": "3f1b3a0e-8a4e-4a2f-9c53-58a1f0a2a001",
		"iss": "https://proj.supabase.co/auth/v1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	got, err := v.Verify(context.Background(), token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if got != "3f1b3a0e-8a4e-4a2f-9c53-58a1f0a2a001" {
		t.Fatalf("sub = %q", got)
	}
}

func TestVerifyRejectsBadTokens(t *testing.T) {
	secret := []byte("test-secret")
	v := &SupabaseVerifier{Issuer: "https://proj.supabase.co/auth/v1", Secret: secret}
	now := time.Now()

	tests := []struct {
		name  string
		token string
	}{
		{"wrong issuer", signHS256(t, secret, jwt.MapClaims{
			"sub": "u1", "iss": "https://evil.example/auth/v1", "exp": now.Add(time.Hour).Unix(),
		})},
		{"expired", signHS256(t, secret, jwt.MapClaims{
			"sub": "u1", "iss": "https://proj.supabase.co/auth/v1", "exp": now.Add(-time.Hour).Unix(),
		})},
		{"missing exp", signHS256(t, secret, jwt.MapClaims{
			"sub": "u1", "iss": "https://proj.supabase.co/auth/v1",
		})},
		{"missing sub", signHS256(t, secret, jwt.MapClaims{
			"iss": "https://proj.supabase.co/auth/v1", "exp": now.Add(time.Hour).Unix(),
		})},
		{"wrong secret", signHS256(t, []byte("other"), jwt.MapClaims{
			"sub": "u1", "iss": "https://proj.supabase.co/auth/v1", "exp": now.Add(time.Hour).Unix(),
		})},
		{"garbage", "not.a.token"},
	}
	for _, tt := range tests {
		if _, err := v.Verify(context.Background(), tt.token); err == nil {
			t.Fatalf("%s: expected rejection", tt.name)
		}
	}
}

func TestVerifyRejectsHMACWithoutSecret(t *testing.T) {
	v := &SupabaseVerifier{Issuer: "https://proj.supabase.co/auth/v1"}
	token := signHS256(t, []byte("anything"), jwt.MapClaims{
		"sub": "u1", "iss": "https://proj.supabase.co/auth/v1", "exp": time.Now().Add(time.Hour).Unix(),
	})
	if _, err := v.Verify(context.Background(), token); err == nil {
		t.Fatalf("expected rejection when no secret configured")
	}
}
