package feed

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lermo/backend/internal/models"
)

type countingDirectory struct {
	users map[string]models.User
	calls int
}

func (d *countingDirectory) FindByID(_ context.Context, userID string) (models.User, error) {
	d.calls++
	user, ok := d.users[userID]
	if !ok {
		return models.User{}, errors.New("user not found")
	}
	return user, nil
}

func TestCachingDirectoryServesFromCache(t *testing.T) {
	base := &countingDirectory{users: map[string]models.User{
		"user-1": {ID: "user-1", Username: "alice"},
	}}
	cache := NewCachingDirectory(base, time.Minute)

	for i := 0; i < 3; i++ {
		user, err := cache.FindByID(context.Background(), "user-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if user.Username != "alice" {
			t.Fatalf("unexpected user %+v", user)
		}
	}

	if base.calls != 1 {
		t.Fatalf("expected one delegate call, got %d", base.calls)
	}
}

func TestCachingDirectoryDoesNotCacheFailures(t *testing.T) {
	base := &countingDirectory{users: map[string]models.User{}}
	cache := NewCachingDirectory(base, time.Minute)

	for i := 0; i < 2; i++ {
		if _, err := cache.FindByID(context.Background(), "missing"); err == nil {
			t.Fatal("expected error for missing user")
		}
	}

	if base.calls != 2 {
		t.Fatalf("expected failures to bypass the cache, got %d calls", base.calls)
	}
}

func TestCachingDirectoryInvalidate(t *testing.T) {
	base := &countingDirectory{users: map[string]models.User{
		"user-1": {ID: "user-1", Username: "alice"},
	}}
	cache := NewCachingDirectory(base, time.Minute)

	if _, err := cache.FindByID(context.Background(), "user-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	base.users["user-1"] = models.User{ID: "user-1", Username: "renamed"}
	cache.Invalidate("user-1")

	user, err := cache.FindByID(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.Username != "renamed" {
		t.Fatalf("expected refreshed user after invalidate, got %+v", user)
	}
	if base.calls != 2 {
		t.Fatalf("expected two delegate calls, got %d", base.calls)
	}
}

func TestCachingDirectoryNilBase(t *testing.T) {
	cache := NewCachingDirectory(nil, time.Minute)

	if _, err := cache.FindByID(context.Background(), "user-1"); !errors.Is(err, ErrDirectoryUnavailable) {
		t.Fatalf("expected directory unavailable error, got %v", err)
	}
}
