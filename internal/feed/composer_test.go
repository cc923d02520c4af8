package feed

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lermo/backend/internal/models"
	"github.com/lermo/backend/internal/videos"
)

type stubSource struct {
	videos     []models.Video
	lastFilter videos.Filter
}

func (s *stubSource) List(_ context.Context, filter videos.Filter, _, _ int) ([]models.Video, error) {
	s.lastFilter = filter
	return s.videos, nil
}

type stubDirectory struct {
	users  map[string]models.User
	delays map[string]time.Duration
}

func (d *stubDirectory) FindByID(_ context.Context, userID string) (models.User, error) {
	if delay, ok := d.delays[userID]; ok {
		time.Sleep(delay)
	}
	user, ok := d.users[userID]
	if !ok {
		return models.User{}, errors.New("user not found")
	}
	return user, nil
}

type stubPresigner struct {
	err error
}

func (p *stubPresigner) PresignedURL(_ context.Context, path string, _ time.Duration) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	return "https://cdn.example.com/" + path, nil
}

func TestComposeSortsByCreationDescending(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	source := &stubSource{videos: []models.Video{
		{ID: "v-old", OwnerID: "user-slow", Status: models.VideoStatusCompleted, CreatedAt: base},
		{ID: "v-new", OwnerID: "user-fast", Status: models.VideoStatusCompleted, CreatedAt: base.Add(time.Hour)},
	}}
	// The older video's owner resolves slower, so the parallel phase finishes
	// out of order. The final sort must still put the newer video first.
	directory := &stubDirectory{
		users: map[string]models.User{
			"user-slow": {ID: "user-slow", Username: "slow"},
			"user-fast": {ID: "user-fast", Username: "fast"},
		},
		delays: map[string]time.Duration{"user-slow": 30 * time.Millisecond},
	}

	composer := NewComposer(source, directory, nil, nil)
	items, err := composer.Compose(context.Background(), Query{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(items) != 2 {
		t.Fatalf("expected two items, got %d", len(items))
	}
	if items[0].ID != "v-new" || items[1].ID != "v-old" {
		t.Fatalf("expected newest first, got %q then %q", items[0].ID, items[1].ID)
	}
	if items[0].Username != "fast" {
		t.Fatalf("expected owner enrichment, got %q", items[0].Username)
	}
}

func TestComposeDropsItemsWithUnresolvableOwner(t *testing.T) {
	source := &stubSource{videos: []models.Video{
		{ID: "v-1", OwnerID: "known", Status: models.VideoStatusCompleted},
		{ID: "v-2", OwnerID: "vanished", Status: models.VideoStatusCompleted},
	}}
	directory := &stubDirectory{users: map[string]models.User{
		"known": {ID: "known", Username: "alice"},
	}}

	composer := NewComposer(source, directory, nil, nil)
	items, err := composer.Compose(context.Background(), Query{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(items) != 1 {
		t.Fatalf("expected one item, got %d", len(items))
	}
	if items[0].ID != "v-1" {
		t.Fatalf("expected surviving item v-1, got %q", items[0].ID)
	}
}

func TestComposePresignFailureDegradesToEmptyURL(t *testing.T) {
	source := &stubSource{videos: []models.Video{
		{ID: "v-1", OwnerID: "user-1", Status: models.VideoStatusCompleted, VideoPath: "videos/v-1.mp4", Thumbnail: "thumbs/v-1.png"},
	}}
	directory := &stubDirectory{users: map[string]models.User{
		"user-1": {ID: "user-1", Username: "alice"},
	}}

	composer := NewComposer(source, directory, &stubPresigner{err: errors.New("bucket offline")}, nil)
	items, err := composer.Compose(context.Background(), Query{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(items) != 1 {
		t.Fatalf("expected one item, got %d", len(items))
	}
	if items[0].VideoURL != "" || items[0].Thumbnail != "" {
		t.Fatalf("expected empty URLs on presign failure, got %+v", items[0])
	}
}

func TestComposePresignsAssetURLs(t *testing.T) {
	source := &stubSource{videos: []models.Video{
		{ID: "v-1", OwnerID: "user-1", Status: models.VideoStatusCompleted, VideoPath: "videos/v-1.mp4", Thumbnail: "thumbs/v-1.png"},
	}}
	directory := &stubDirectory{users: map[string]models.User{
		"user-1": {ID: "user-1", Username: "alice", Avatar: "avatars/user-1.png"},
	}}

	composer := NewComposer(source, directory, &stubPresigner{}, nil)
	items, err := composer.Compose(context.Background(), Query{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	item := items[0]
	if item.VideoURL != "https://cdn.example.com/videos/v-1.mp4" {
		t.Fatalf("unexpected video url %q", item.VideoURL)
	}
	if item.Thumbnail != "https://cdn.example.com/thumbs/v-1.png" {
		t.Fatalf("unexpected thumbnail %q", item.Thumbnail)
	}
	if item.Avatar != "https://cdn.example.com/avatars/user-1.png" {
		t.Fatalf("unexpected avatar %q", item.Avatar)
	}
}

func TestComposeFilterSelection(t *testing.T) {
	source := &stubSource{}
	directory := &stubDirectory{users: map[string]models.User{}}
	composer := NewComposer(source, directory, nil, nil)

	if _, err := composer.Compose(context.Background(), Query{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(source.lastFilter.Statuses) != 2 || source.lastFilter.ExcludeStatus != "" {
		t.Fatalf("public feed should filter to published statuses, got %+v", source.lastFilter)
	}

	if _, err := composer.Compose(context.Background(), Query{OwnerID: "user-1", IncludeUnpublished: true}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if source.lastFilter.ExcludeStatus != models.VideoStatusDeleted || len(source.lastFilter.Statuses) != 0 {
		t.Fatalf("my feed should only exclude deleted, got %+v", source.lastFilter)
	}
	if source.lastFilter.OwnerID != "user-1" {
		t.Fatalf("expected owner scoping, got %+v", source.lastFilter)
	}
}
