package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lermo/backend/internal/models"
	"github.com/lermo/backend/internal/videos"
)

type fakeVideoManager struct {
	videos      map[string]models.Video
	comments    []models.Comment
	lastPatch   videos.MetadataPatch
	lastFilter  videos.Filter
	createErr   error
	updateErr   error
	viewedIDs   []string
	commentCall string
}

func newFakeVideoManager() *fakeVideoManager {
	return &fakeVideoManager{videos: make(map[string]models.Video)}
}

func (m *fakeVideoManager) Create(_ context.Context, ownerID string, attrs videos.NewVideo) (models.Video, error) {
	if m.createErr != nil {
		return models.Video{}, m.createErr
	}
	if attrs.Title == "" {
		return models.Video{}, videos.ErrValidation
	}
	video := models.Video{ID: "video-1", OwnerID: ownerID, Title: attrs.Title, VideoType: attrs.VideoType, Status: models.VideoStatusDraft}
	m.videos[video.ID] = video
	return video, nil
}

func (m *fakeVideoManager) UpdateMetadata(_ context.Context, videoID, callerID string, patch videos.MetadataPatch) (models.Video, error) {
	if m.updateErr != nil {
		return models.Video{}, m.updateErr
	}
	video, ok := m.videos[videoID]
	if !ok {
		return models.Video{}, videos.ErrNotFound
	}
	if video.OwnerID != callerID {
		return models.Video{}, videos.ErrForbidden
	}
	m.lastPatch = patch
	if patch.Status != nil {
		video.Status = *patch.Status
	}
	m.videos[videoID] = video
	return video, nil
}

func (m *fakeVideoManager) UpdateAsset(_ context.Context, videoID, callerID string, kind videos.AssetKind, name, path string) error {
	video, ok := m.videos[videoID]
	if !ok {
		return videos.ErrNotFound
	}
	if video.OwnerID != callerID {
		return videos.ErrForbidden
	}
	if kind == videos.AssetSource {
		video.VideoName = name
		video.VideoPath = path
	} else {
		video.Thumbnail = path
	}
	m.videos[videoID] = video
	return nil
}

func (m *fakeVideoManager) IncrementView(_ context.Context, videoID string) error {
	if _, ok := m.videos[videoID]; !ok {
		return videos.ErrNotFound
	}
	m.viewedIDs = append(m.viewedIDs, videoID)
	return nil
}

func (m *fakeVideoManager) FindByID(_ context.Context, videoID string) (models.Video, error) {
	video, ok := m.videos[videoID]
	if !ok {
		return models.Video{}, videos.ErrNotFound
	}
	return video, nil
}

func (m *fakeVideoManager) List(_ context.Context, filter videos.Filter, _, _ int) ([]models.Video, error) {
	m.lastFilter = filter
	var out []models.Video
	for _, video := range m.videos {
		out = append(out, video)
	}
	return out, nil
}

func (m *fakeVideoManager) AddComment(_ context.Context, videoID, callerID, callerName, message string) (models.Comment, error) {
	if message == "" {
		return models.Comment{}, videos.ErrValidation
	}
	if _, ok := m.videos[videoID]; !ok {
		return models.Comment{}, videos.ErrNotFound
	}
	m.commentCall = videoID + ":" + callerID + ":" + callerName + ":" + message
	comment := models.Comment{ID: "comment-1", UserID: callerID, VideoID: videoID, Message: message}
	m.comments = append(m.comments, comment)
	return comment, nil
}

func (m *fakeVideoManager) ListComments(_ context.Context, videoID string) ([]models.Comment, error) {
	var out []models.Comment
	for _, comment := range m.comments {
		if comment.VideoID == videoID {
			out = append(out, comment)
		}
	}
	return out, nil
}

func TestVideoHandlerCreate(t *testing.T) {
	manager := newFakeVideoManager()
	deps := Dependencies{Users: newInMemoryUserStore(), Verifier: testVerifier(), Videos: manager}

	body, err := json.Marshal(createVideoRequest{Title: "my clip"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	req := authedRequest(http.MethodPost, "/api/v1/videos", bytes.NewReader(body))
	rec := serveRoute(t, deps, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d got %d: %s", http.StatusCreated, rec.Code, rec.Body.String())
	}

	stored := manager.videos["video-1"]
	if stored.OwnerID != "user-1" {
		t.Fatalf("expected creator to own the video, got %q", stored.OwnerID)
	}
}

func TestVideoHandlerCreateRequiresAuth(t *testing.T) {
	deps := Dependencies{Users: newInMemoryUserStore(), Verifier: testVerifier(), Videos: newFakeVideoManager()}

	body, err := json.Marshal(createVideoRequest{Title: "my clip"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/videos", bytes.NewReader(body))
	rec := serveRoute(t, deps, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestVideoHandlerCreateMissingTitle(t *testing.T) {
	deps := Dependencies{Users: newInMemoryUserStore(), Verifier: testVerifier(), Videos: newFakeVideoManager()}

	body, err := json.Marshal(createVideoRequest{})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	req := authedRequest(http.MethodPost, "/api/v1/videos", bytes.NewReader(body))
	rec := serveRoute(t, deps, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d got %d", http.StatusBadRequest, rec.Code)
	}
}

func TestVideoHandlerUpdateForbiddenForNonOwner(t *testing.T) {
	manager := newFakeVideoManager()
	manager.videos["video-1"] = models.Video{ID: "video-1", OwnerID: "someone-else", Status: models.VideoStatusDraft}
	deps := Dependencies{Users: newInMemoryUserStore(), Verifier: testVerifier(), Videos: manager}

	title := "stolen"
	body, err := json.Marshal(updateVideoRequest{Title: &title})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	req := authedRequest(http.MethodPatch, "/api/v1/videos/video-1", bytes.NewReader(body))
	rec := serveRoute(t, deps, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected status %d got %d", http.StatusForbidden, rec.Code)
	}
}

func TestVideoHandlerDelete(t *testing.T) {
	manager := newFakeVideoManager()
	manager.videos["video-1"] = models.Video{ID: "video-1", OwnerID: "user-1", Status: models.VideoStatusCompleted}
	deps := Dependencies{Users: newInMemoryUserStore(), Verifier: testVerifier(), Videos: manager}

	status := models.VideoStatusDeleted
	body, err := json.Marshal(updateVideoRequest{Status: &status})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	req := authedRequest(http.MethodPatch, "/api/v1/videos/video-1", bytes.NewReader(body))
	rec := serveRoute(t, deps, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}
	if manager.videos["video-1"].Status != models.VideoStatusDeleted {
		t.Fatalf("expected deleted status, got %q", manager.videos["video-1"].Status)
	}
}

func TestVideoHandlerGetUnknown(t *testing.T) {
	deps := Dependencies{Users: newInMemoryUserStore(), Verifier: testVerifier(), Videos: newFakeVideoManager()}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/videos/ghost", nil)
	rec := serveRoute(t, deps, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status %d got %d", http.StatusNotFound, rec.Code)
	}
}

func TestVideoHandlerGetDeletedIsAbsent(t *testing.T) {
	manager := newFakeVideoManager()
	manager.videos["video-1"] = models.Video{ID: "video-1", OwnerID: "user-1", Status: models.VideoStatusDeleted}
	deps := Dependencies{Users: newInMemoryUserStore(), Verifier: testVerifier(), Videos: manager}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/videos/video-1", nil)
	rec := serveRoute(t, deps, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status %d got %d", http.StatusNotFound, rec.Code)
	}
}

func TestVideoHandlerGetEnrichesOwner(t *testing.T) {
	manager := newFakeVideoManager()
	manager.videos["video-1"] = models.Video{ID: "video-1", OwnerID: "user-2", Status: models.VideoStatusCompleted, Title: "clip"}
	store := newInMemoryUserStore()
	store.users["user-2"] = models.User{ID: "user-2", Username: "bob", About: "creator"}
	deps := Dependencies{Users: store, Verifier: testVerifier(), Videos: manager}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/videos/video-1", nil)
	rec := serveRoute(t, deps, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}

	var resp struct {
		Username string `json:"username"`
		About    string `json:"about"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Username != "bob" || resp.About != "creator" {
		t.Fatalf("expected owner enrichment, got %+v", resp)
	}
}

func TestVideoHandlerListFiltersByUser(t *testing.T) {
	manager := newFakeVideoManager()
	deps := Dependencies{Users: newInMemoryUserStore(), Verifier: testVerifier(), Videos: manager}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/videos?user=user-2", nil)
	rec := serveRoute(t, deps, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}
	if manager.lastFilter.OwnerID != "user-2" || manager.lastFilter.ExcludeStatus != models.VideoStatusDeleted {
		t.Fatalf("unexpected filter %+v", manager.lastFilter)
	}
}

func TestVideoHandlerListCombinesUserAndTitle(t *testing.T) {
	manager := newFakeVideoManager()
	deps := Dependencies{Users: newInMemoryUserStore(), Verifier: testVerifier(), Videos: manager}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/videos?user=user-2&title=gaming", nil)
	rec := serveRoute(t, deps, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}
	if manager.lastFilter.OwnerID != "user-2" || manager.lastFilter.Title != "gaming" {
		t.Fatalf("expected both predicates kept, got %+v", manager.lastFilter)
	}
	if manager.lastFilter.ExcludeStatus != models.VideoStatusDeleted {
		t.Fatalf("expected deleted exclusion preserved, got %+v", manager.lastFilter)
	}
}

func TestVideoHandlerView(t *testing.T) {
	manager := newFakeVideoManager()
	manager.videos["video-1"] = models.Video{ID: "video-1", OwnerID: "user-2", Status: models.VideoStatusCompleted}
	deps := Dependencies{Users: newInMemoryUserStore(), Verifier: testVerifier(), Videos: manager}

	// No Authorization header: anonymous playback still counts.
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/videos/video-1/view", nil)
	rec := serveRoute(t, deps, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}
	if len(manager.viewedIDs) != 1 || manager.viewedIDs[0] != "video-1" {
		t.Fatalf("unexpected view calls %v", manager.viewedIDs)
	}
}

func TestVideoHandlerAddComment(t *testing.T) {
	manager := newFakeVideoManager()
	manager.videos["video-1"] = models.Video{ID: "video-1", OwnerID: "user-2", Status: models.VideoStatusCompleted}
	deps := Dependencies{Users: newInMemoryUserStore(), Verifier: testVerifier(), Videos: manager}

	body, err := json.Marshal(commentRequest{Message: "great stream"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	req := authedRequest(http.MethodPost, "/api/v1/videos/video-1/comments", bytes.NewReader(body))
	rec := serveRoute(t, deps, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d got %d: %s", http.StatusCreated, rec.Code, rec.Body.String())
	}
	if manager.commentCall != "video-1:user-1:alice:great stream" {
		t.Fatalf("unexpected comment call %q", manager.commentCall)
	}
}

func TestVideoHandlerListCommentsEnriched(t *testing.T) {
	manager := newFakeVideoManager()
	manager.videos["video-1"] = models.Video{ID: "video-1", OwnerID: "user-2", Status: models.VideoStatusCompleted}
	manager.comments = []models.Comment{{ID: "comment-1", UserID: "user-2", VideoID: "video-1", Message: "hello"}}
	store := newInMemoryUserStore()
	store.users["user-2"] = models.User{ID: "user-2", Username: "bob"}
	deps := Dependencies{Users: store, Verifier: testVerifier(), Videos: manager}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/videos/video-1/comments", nil)
	rec := serveRoute(t, deps, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}

	var resp struct {
		Comments []struct {
			Message  string `json:"Message"`
			Username string `json:"username"`
		} `json:"comments"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Comments) != 1 {
		t.Fatalf("expected one comment, got %d", len(resp.Comments))
	}
	if resp.Comments[0].Username != "bob" {
		t.Fatalf("expected author enrichment, got %+v", resp.Comments[0])
	}
}
