package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

func signHS256(t *testing.T, secret []byte, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

func hs256Verifier(secret []byte) *Verifier {
	return &Verifier{
		Audience:     "api://kollab",
		Issuer:       "https://issuer/",
		SharedSecret: secret,
		parser:       jwt.NewParser(jwt.WithValidMethods([]string{"HS256"})),
	}
}

func TestBearerToken(t *testing.T) {
	token, err := BearerToken("Bearer header.payload.signature")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token != "header.payload.signature" {
		t.Fatalf("unexpected token content: %s", token)
	}
}

func TestBearerTokenMissing(t *testing.T) {
	if _, err := BearerToken(""); !errors.Is(err, ErrMissingAuthorization) {
		t.Fatalf("expected missing header error, got %v", err)
	}
	if _, err := BearerToken("   "); !errors.Is(err, ErrMissingAuthorization) {
		t.Fatalf("expected missing header error, got %v", err)
	}
}

func TestBearerTokenBadScheme(t *testing.T) {
	for _, raw := range []string{"Basic abc", "Bearer", "Bearer   ", "token-without-scheme"} {
		if _, err := BearerToken(raw); !errors.Is(err, ErrBadAuthorization) && !errors.Is(err, ErrMissingAuthorization) {
			t.Fatalf("expected rejection for %q, got %v", raw, err)
		}
	}
}

func TestUserIDFromTokenHS256(t *testing.T) {
	secret := []byte("test-secret")
	signed := signHS256(t, secret, jwt.MapClaims{
		"sub": "user-123",
		"aud": "api://kollab",
		"iss": "https://issuer/",
		"exp": time.Now().Add(5 * time.Minute).Unix(),
		"nbf": time.Now().Add(-time.Minute).Unix(),
		"iat": time.Now().Add(-time.Minute).Unix(),
	})

	userID, err := hs256Verifier(secret).UserIDFromToken(signed)
	if err != nil {
		t.Fatalf("unexpected error verifying token: %v", err)
	}
	if userID != "user-123" {
		t.Fatalf("unexpected user id: %s", userID)
	}
}

func TestUserIDFromTokenExpired(t *testing.T) {
	secret := []byte("test-secret")
	signed := signHS256(t, secret, jwt.MapClaims{
		"sub": "user-123",
		"exp": time.Now().Add(-5 * time.Minute).Unix(),
	})

	if _, err := hs256Verifier(secret).UserIDFromToken(signed); err == nil {
		t.Fatal("expected expiry error")
	}
}

func TestUserIDFromTokenWrongSecret(t *testing.T) {
	signed := signHS256(t, []byte("other-secret"), jwt.MapClaims{
		"sub": "user-123",
		"exp": time.Now().Add(5 * time.Minute).Unix(),
	})

	if _, err := hs256Verifier([]byte("test-secret")).UserIDFromToken(signed); err == nil {
		t.Fatal("expected signature error")
	}
}

func TestUserIDFromTokenMissingSub(t *testing.T) {
	secret := []byte("test-secret")
	signed := signHS256(t, secret, jwt.MapClaims{
		"exp": time.Now().Add(5 * time.Minute).Unix(),
	})

	if _, err := hs256Verifier(secret).UserIDFromToken(signed); err == nil || !strings.Contains(err.Error(), "missing sub") {
		t.Fatalf("expected missing sub error, got %v", err)
	}
}

func TestUserIDFromAuthHeader(t *testing.T) {
	secret := []byte("test-secret")
	signed := signHS256(t, secret, jwt.MapClaims{
		"sub": "user-123",
		"exp": time.Now().Add(5 * time.Minute).Unix(),
	})

	userID, err := hs256Verifier(secret).UserIDFromAuthHeader("Bearer " + signed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if userID != "user-123" {
		t.Fatalf("unexpected user id: %s", userID)
	}
}
