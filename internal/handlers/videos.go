package handlers

import (
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/lermo/backend/internal/logging"
	"github.com/lermo/backend/internal/models"
	"github.com/lermo/backend/internal/storage"
	"github.com/lermo/backend/internal/videos"
)

// sourceURLTTL bounds presigned playback links; thumbnails reuse the
// longer profile image TTL.
const sourceURLTTL = 2 * time.Hour

// maxSourceUploadBytes caps in-memory parsing of source video uploads.
// Larger parts spill to temp files.
const maxSourceUploadBytes = 64 << 20

// VideoHandler provides endpoints for publishing and fetching videos.
type VideoHandler struct {
	Videos   VideoManager
	Users    UserStore
	Verifier IdentityVerifier
	Storage  ObjectStorage
}

// Create handles POST /api/v1/videos requests.
func (h VideoHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	identity, err := callerIdentity(h.Verifier, r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	var req createVideoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid video payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	video, err := h.Videos.Create(ctx, identity.UserID, videos.NewVideo{
		Title:          strings.TrimSpace(req.Title),
		Description:    req.Description,
		VideoType:      req.VideoType,
		PaymentType:    req.PaymentType,
		EnableDonation: req.EnableDonation,
		Price:          req.Price,
		FreeMinute:     req.FreeMinute,
		Tags:           req.Tags,
		Categories:     req.Categories,
	})
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusCreated, video)
}

// Get handles GET /api/v1/videos/{id} requests. The payload carries the
// owner's display details and presigned asset links.
func (h VideoHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	video, err := h.Videos.FindByID(ctx, r.PathValue("id"))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if video.Status == models.VideoStatusDeleted {
		respondError(ctx, w, videos.ErrNotFound)
		return
	}

	respondJSON(ctx, w, http.StatusOK, h.presentVideo(r, video))
}

// List handles GET /api/v1/videos requests. A title query searches published
// and live videos by name; a user query lists everything a creator has not
// deleted; the two combine, narrowing the owner scope by title.
func (h VideoHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	filter := videos.Filter{
		Statuses: []string{models.VideoStatusCompleted, models.VideoStatusStreaming},
	}
	if ownerID := strings.TrimSpace(query.Get("user")); ownerID != "" {
		filter = videos.Filter{OwnerID: ownerID, ExcludeStatus: models.VideoStatusDeleted}
	}
	if title := strings.TrimSpace(query.Get("title")); title != "" {
		filter.Title = title
	}

	page, limit := pagination(r)
	list, err := h.Videos.List(ctx, filter, page, limit)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"videos": list})
}

// Update handles PATCH /api/v1/videos/{id} requests. Setting status to
// deleted tombstones the video and ignores every other field in the patch.
func (h VideoHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	identity, err := callerIdentity(h.Verifier, r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	var req updateVideoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid video patch payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	video, err := h.Videos.UpdateMetadata(ctx, r.PathValue("id"), identity.UserID, videos.MetadataPatch{
		Title:          req.Title,
		Description:    req.Description,
		Status:         req.Status,
		VideoType:      req.VideoType,
		PaymentType:    req.PaymentType,
		EnableDonation: req.EnableDonation,
		Price:          req.Price,
		FreeMinute:     req.FreeMinute,
		Tags:           req.Tags,
		Categories:     req.Categories,
	})
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, video)
}

// UploadSource handles POST /api/v1/videos/{id}/source requests.
func (h VideoHandler) UploadSource(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)
	videoID := r.PathValue("id")

	identity, err := callerIdentity(h.Verifier, r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	file, header, ok := h.formFile(w, r, maxSourceUploadBytes)
	if !ok {
		return
	}
	defer file.Close()

	name := strings.ReplaceAll(header.Filename, " ", "-")
	if filepath.Ext(name) == "" {
		name += ".mp4"
	}
	path := fmt.Sprintf("%s/%s-%s", h.Storage.LocationPath(storage.KindVideoSource), videoID, name)

	result, err := h.Storage.UploadFile(ctx, file, path)
	if err != nil {
		logger.Error("source upload failed", "error", err, "videoId", videoID)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to store video"})
		return
	}

	if err := h.Videos.UpdateAsset(ctx, videoID, identity.UserID, videos.AssetSource, header.Filename, result.Key); err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"path": result.Key})
}

// UploadThumbnail handles PATCH /api/v1/videos/{id}/thumbnail requests.
func (h VideoHandler) UploadThumbnail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)
	videoID := r.PathValue("id")

	identity, err := callerIdentity(h.Verifier, r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	file, _, ok := h.formFile(w, r, maxImageUploadBytes)
	if !ok {
		return
	}
	defer file.Close()

	path := fmt.Sprintf("%s/%s.png", h.Storage.LocationPath(storage.KindVideoThumbnail), videoID)
	key, err := h.Storage.UploadImage(ctx, file, path)
	if err != nil {
		logger.Error("thumbnail upload failed", "error", err, "videoId", videoID)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to store thumbnail"})
		return
	}

	if err := h.Videos.UpdateAsset(ctx, videoID, identity.UserID, videos.AssetThumbnail, "", key); err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"path": key})
}

// View handles PATCH /api/v1/videos/{id}/view requests. No authentication:
// anonymous playback still counts.
func (h VideoHandler) View(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.Videos.IncrementView(ctx, r.PathValue("id")); err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"status": "counted"})
}

// ListComments handles GET /api/v1/videos/{id}/comments requests.
func (h VideoHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	comments, err := h.Videos.ListComments(ctx, r.PathValue("id"))
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"comments": h.presentComments(r, comments)})
}

// AddComment handles POST /api/v1/videos/{id}/comments requests.
func (h VideoHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	identity, err := callerIdentity(h.Verifier, r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid comment payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	comment, err := h.Videos.AddComment(ctx, r.PathValue("id"), identity.UserID, identity.Username, strings.TrimSpace(req.Message))
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusCreated, comment)
}

func (h VideoHandler) formFile(w http.ResponseWriter, r *http.Request, maxMemory int64) (multipart.File, *multipart.FileHeader, bool) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Storage == nil {
		logger.Error("object storage unavailable")
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "uploads unavailable"})
		return nil, nil, false
	}

	if err := r.ParseMultipartForm(maxMemory); err != nil {
		logger.Warn("invalid multipart payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid upload"})
		return nil, nil, false
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		logger.Warn("upload missing file part", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "file is required"})
		return nil, nil, false
	}
	return file, header, true
}

type watchResponse struct {
	models.Video
	Username  string `json:"username"`
	Avatar    string `json:"avatar,omitempty"`
	About     string `json:"about,omitempty"`
	VideoURL  string `json:"videoUrl,omitempty"`
	Thumbnail string `json:"thumbnail,omitempty"`
}

// presentVideo attaches owner details and presigned links to a video.
// Enrichment failures degrade to the bare record rather than failing the
// request.
func (h VideoHandler) presentVideo(r *http.Request, video models.Video) watchResponse {
	ctx := r.Context()
	logger := logging.FromContext(ctx)
	resp := watchResponse{Video: video, Thumbnail: video.Thumbnail}

	if h.Users != nil {
		if owner, err := h.Users.FindByID(ctx, video.OwnerID); err == nil {
			resp.Username = owner.Username
			resp.About = owner.About
			if h.Storage != nil && owner.Avatar != "" {
				if url, err := h.Storage.PresignedURL(ctx, owner.Avatar, profileImageTTL); err == nil {
					resp.Avatar = url
				}
			}
		} else {
			logger.Warn("video owner lookup failed", "error", err, "videoId", video.ID)
		}
	}

	if h.Storage != nil {
		if video.VideoPath != "" {
			if url, err := h.Storage.PresignedURL(ctx, video.VideoPath, sourceURLTTL); err == nil {
				resp.VideoURL = url
			} else {
				logger.Warn("presign video source failed", "error", err, "videoId", video.ID)
			}
		}
		if video.Thumbnail != "" {
			if url, err := h.Storage.PresignedURL(ctx, video.Thumbnail, profileImageTTL); err == nil {
				resp.Thumbnail = url
			}
		}
	}

	return resp
}

type commentView struct {
	models.Comment
	Username string `json:"username,omitempty"`
	Avatar   string `json:"avatar,omitempty"`
}

// presentComments resolves commenter details concurrently. A failed lookup
// leaves that comment unenriched.
func (h VideoHandler) presentComments(r *http.Request, comments []models.Comment) []commentView {
	ctx := r.Context()
	views := make([]commentView, len(comments))

	var wg sync.WaitGroup
	for i, comment := range comments {
		views[i] = commentView{Comment: comment}
		if h.Users == nil {
			continue
		}
		wg.Add(1)
		go func(i int, authorID string) {
			defer wg.Done()
			author, err := h.Users.FindByID(ctx, authorID)
			if err != nil {
				logging.FromContext(ctx).Warn("comment author lookup failed", "error", err, "userId", authorID)
				return
			}
			views[i].Username = author.Username
			if h.Storage != nil && author.Avatar != "" {
				if url, err := h.Storage.PresignedURL(ctx, author.Avatar, profileImageTTL); err == nil {
					views[i].Avatar = url
				}
			}
		}(i, comment.UserID)
	}
	wg.Wait()

	return views
}

func pagination(r *http.Request) (page, limit int) {
	query := r.URL.Query()
	if v, err := strconv.Atoi(query.Get("page")); err == nil && v > 0 {
		page = v
	}
	limit = videos.DefaultListLimit
	if v, err := strconv.Atoi(query.Get("limit")); err == nil && v > 0 && v <= 100 {
		limit = v
	}
	return page, limit
}

type createVideoRequest struct {
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	VideoType      string   `json:"videoType"`
	PaymentType    string   `json:"paymentType"`
	EnableDonation bool     `json:"enableDonation"`
	Price          int64    `json:"price"`
	FreeMinute     int      `json:"freeMinute"`
	Tags           []string `json:"tags"`
	Categories     []string `json:"categories"`
}

type updateVideoRequest struct {
	Title          *string  `json:"title"`
	Description    *string  `json:"description"`
	Status         *string  `json:"status"`
	VideoType      *string  `json:"videoType"`
	PaymentType    *string  `json:"paymentType"`
	EnableDonation *bool    `json:"enableDonation"`
	Price          *int64   `json:"price"`
	FreeMinute     *int     `json:"freeMinute"`
	Tags           []string `json:"tags"`
	Categories     []string `json:"categories"`
}

type commentRequest struct {
	Message string `json:"message"`
}
