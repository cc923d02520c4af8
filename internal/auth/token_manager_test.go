package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/lermo/backend/internal/models"
)

func TestTokenManagerRequiresSecret(t *testing.T) {
	if _, err := NewTokenManager("", time.Minute); err == nil {
		t.Fatal("expected error for empty secret")
	}
}

func TestTokenManagerRoundTrip(t *testing.T) {
	manager, err := NewTokenManager("test-secret", 15*time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	user := models.User{ID: "user-1", Email: "alice@example.com", Username: "alice"}
	token, expiresAt, err := manager.Issue(user)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token == "" {
		t.Fatal("expected signed token")
	}
	if time.Until(expiresAt) <= 0 {
		t.Fatalf("expected future expiry, got %v", expiresAt)
	}

	identity, err := manager.Verify(token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if identity.UserID != "user-1" || identity.Email != "alice@example.com" || identity.Username != "alice" {
		t.Fatalf("unexpected identity %+v", identity)
	}
}

func TestTokenManagerRejectsWrongSecret(t *testing.T) {
	issuer, err := NewTokenManager("secret-one", time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	verifier, err := NewTokenManager("secret-two", time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	token, _, err := issuer.Issue(models.User{ID: "user-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := verifier.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected invalid token error, got %v", err)
	}
}

func TestTokenManagerRejectsExpiredToken(t *testing.T) {
	manager, err := NewTokenManager("test-secret", time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	issuedAt := time.Now().UTC().Add(-time.Hour)
	manager.nowFunc = func() time.Time { return issuedAt }

	token, _, err := manager.Issue(models.User{ID: "user-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	manager.nowFunc = func() time.Time { return time.Now().UTC() }
	if _, err := manager.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected invalid token error, got %v", err)
	}
}

func TestTokenManagerRejectsGarbage(t *testing.T) {
	manager, err := NewTokenManager("test-secret", time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, token := range []string{"", "not-a-jwt", "a.b.c"} {
		if _, err := manager.Verify(token); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected invalid token error for %q, got %v", token, err)
		}
	}
}
