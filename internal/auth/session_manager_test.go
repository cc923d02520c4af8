package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lermo/backend/internal/models"
)

type stubUserFinder struct {
	users map[string]models.User
}

func (f *stubUserFinder) FindByID(_ context.Context, userID string) (models.User, error) {
	user, ok := f.users[userID]
	if !ok {
		return models.User{}, errors.New("user not found")
	}
	return user, nil
}

func newTestManager(t *testing.T, refreshTTL time.Duration) (*Manager, *InMemorySessionStore) {
	t.Helper()
	tokens, err := NewTokenManager("test-secret", 15*time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	store := NewInMemorySessionStore()
	finder := &stubUserFinder{users: map[string]models.User{
		"user-1": {ID: "user-1", Email: "alice@example.com", Username: "alice"},
	}}
	return NewManager(tokens, refreshTTL, store, finder), store
}

func TestManagerIssueStoresSession(t *testing.T) {
	manager, store := newTestManager(t, time.Hour)

	tokens, err := manager.Issue(context.Background(), models.User{ID: "user-1", Username: "alice"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		t.Fatalf("expected both tokens, got %+v", tokens)
	}
	if !store.Has(tokens.RefreshToken) {
		t.Fatal("expected refresh token to be stored")
	}
}

func TestManagerIssueRequiresUserID(t *testing.T) {
	manager, _ := newTestManager(t, time.Hour)

	if _, err := manager.Issue(context.Background(), models.User{}); err == nil {
		t.Fatal("expected error for missing user id")
	}
}

func TestManagerRefreshRotatesToken(t *testing.T) {
	manager, store := newTestManager(t, time.Hour)

	issued, err := manager.Issue(context.Background(), models.User{ID: "user-1", Username: "alice"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	refreshed, err := manager.Refresh(context.Background(), issued.RefreshToken)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if refreshed.RefreshToken == issued.RefreshToken {
		t.Fatal("expected refresh token rotation")
	}
	if store.Has(issued.RefreshToken) {
		t.Fatal("expected old refresh token to be revoked")
	}
	if !store.Has(refreshed.RefreshToken) {
		t.Fatal("expected new refresh token to be stored")
	}

	if _, err := manager.Refresh(context.Background(), issued.RefreshToken); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected reused token to be rejected, got %v", err)
	}
}

func TestManagerRefreshExpiredSession(t *testing.T) {
	manager, store := newTestManager(t, -time.Minute)

	issued, err := manager.Issue(context.Background(), models.User{ID: "user-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := manager.Refresh(context.Background(), issued.RefreshToken); !errors.Is(err, ErrRefreshTokenExpired) {
		t.Fatalf("expected expired token error, got %v", err)
	}
	if store.Has(issued.RefreshToken) {
		t.Fatal("expected expired session to be purged")
	}
}

func TestManagerRefreshUnknownToken(t *testing.T) {
	manager, _ := newTestManager(t, time.Hour)

	if _, err := manager.Refresh(context.Background(), "never-issued"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected session not found, got %v", err)
	}
}

func TestManagerRevoke(t *testing.T) {
	manager, store := newTestManager(t, time.Hour)

	issued, err := manager.Issue(context.Background(), models.User{ID: "user-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	manager.Revoke(context.Background(), issued.RefreshToken)
	if store.Has(issued.RefreshToken) {
		t.Fatal("expected revoked token to be removed")
	}
}
