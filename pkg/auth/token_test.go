package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signToken(t *testing.T, claims jwt.RegisteredClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("some-secret-the-front-end-never-sees"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestInspectTokenReadsRegisteredClaims(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	token := signToken(t, jwt.RegisteredClaims{
		Subject:   "owner@linarqa.ma",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	})

	info, err := InspectToken(token)
	if err != nil {
		t.Fatalf("inspect token: %v", err)
	}
	if info.Subject != "owner@linarqa.ma" {
		t.Fatalf("unexpected subject %q", info.Subject)
	}
	if !info.ExpiresAt.Equal(now.Add(time.Hour)) {
		t.Fatalf("unexpected expiry %v", info.ExpiresAt)
	}
	if info.Expired(now) {
		t.Fatalf("token should not be expired yet")
	}
	if !info.Expired(now.Add(2 * time.Hour)) {
		t.Fatalf("token should be expired two hours later")
	}
}

func TestInspectTokenWithoutExpiryNeverExpires(t *testing.T) {
	info, err := InspectToken(signToken(t, jwt.RegisteredClaims{Subject: "staff@linarqa.ma"}))
	if err != nil {
		t.Fatalf("inspect token: %v", err)
	}
	if info.Expired(time.Now().Add(24 * 365 * time.Hour)) {
		t.Fatalf("token without exp must not expire")
	}
}

func TestInspectTokenRejectsGarbage(t *testing.T) {
	for _, raw := range []string{"", "   ", "not-a-jwt", "a.b"} {
		if _, err := InspectToken(raw); !errors.Is(err, ErrMalformedToken) {
			t.Fatalf("expected ErrMalformedToken for %q, got %v", raw, err)
		}
	}
}
