package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/lermo/backend/internal/logging"
	"github.com/lermo/backend/internal/models"
	"github.com/lermo/backend/internal/storage"
)

// profileImageTTL bounds presigned avatar and banner links.
const profileImageTTL = 24 * time.Hour

// maxImageUploadBytes caps in-memory parsing of avatar and banner uploads.
const maxImageUploadBytes = 32 << 20

// UserHandler implements profile and follow-graph endpoints.
type UserHandler struct {
	Users    UserStore
	Verifier IdentityVerifier
	Social   SocialGraph
	Storage  ObjectStorage
	NowFunc  func() time.Time
}

// Me handles GET /api/v1/users/me requests.
func (h UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity, err := callerIdentity(h.Verifier, r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	user, err := h.Users.FindByID(ctx, identity.UserID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, h.presentUser(r, user))
}

// Get handles GET /api/v1/users/{id} requests.
func (h UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := h.Users.FindByID(ctx, r.PathValue("id"))
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	profile := h.presentUser(r, user)
	profile.Email = ""
	respondJSON(ctx, w, http.StatusOK, profile)
}

// Update handles PATCH /api/v1/users/me requests. Password changes require
// the current password alongside the new one.
func (h UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	identity, err := callerIdentity(h.Verifier, r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid profile payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	user, err := h.Users.FindByID(ctx, identity.UserID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	if req.Username != nil {
		name := strings.TrimSpace(*req.Username)
		if name == "" {
			respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "username must not be empty"})
			return
		}
		user.Username = name
	}
	if req.About != nil {
		user.About = *req.About
	}
	if req.Age != nil {
		user.Age = *req.Age
	}
	if req.Gender != nil {
		user.Gender = *req.Gender
	}

	if req.Password != nil {
		if req.OldPassword == nil {
			respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "current password is required to set a new one"})
			return
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(*req.OldPassword)); err != nil {
			logger.Warn("profile password mismatch", "userId", user.ID)
			respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
			return
		}
		if len(*req.Password) < 8 {
			respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "password must be at least 8 characters"})
			return
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			logger.Error("failed to hash password", "error", err)
			respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to secure password"})
			return
		}
		user.Password = string(hashed)
	}

	user.UpdatedAt = h.now()
	if err := h.Users.Update(ctx, user); err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, h.presentUser(r, user))
}

// UploadAvatar handles POST /api/v1/users/me/avatar requests.
func (h UserHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	h.uploadImage(w, r, storage.KindAvatar, h.Users.UpdateAvatar)
}

// UploadBanner handles POST /api/v1/users/me/banner requests.
func (h UserHandler) UploadBanner(w http.ResponseWriter, r *http.Request) {
	h.uploadImage(w, r, storage.KindBanner, h.Users.UpdateBanner)
}

func (h UserHandler) uploadImage(w http.ResponseWriter, r *http.Request, kind storage.UploadKind, save func(ctx context.Context, id, path string) error) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	identity, err := callerIdentity(h.Verifier, r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	if h.Storage == nil {
		logger.Error("object storage unavailable")
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "uploads unavailable"})
		return
	}

	if err := r.ParseMultipartForm(maxImageUploadBytes); err != nil {
		logger.Warn("invalid multipart payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid upload"})
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		logger.Warn("upload missing file part", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "file is required"})
		return
	}
	defer file.Close()

	path := fmt.Sprintf("%s/%s.png", h.Storage.LocationPath(kind), identity.UserID)
	key, err := h.Storage.UploadImage(ctx, file, path)
	if err != nil {
		logger.Error("image upload failed", "error", err, "path", path)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to store image"})
		return
	}

	if err := save(ctx, identity.UserID, key); err != nil {
		respondError(ctx, w, err)
		return
	}

	url, err := h.Storage.PresignedURL(ctx, key, profileImageTTL)
	if err != nil {
		logger.Warn("presign uploaded image failed", "error", err, "key", key)
	}
	respondJSON(ctx, w, http.StatusOK, map[string]string{"path": key, "url": url})
}

// Follow handles POST /api/v1/users/{id}/follow requests.
func (h UserHandler) Follow(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity, err := callerIdentity(h.Verifier, r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	rel, err := h.Social.Follow(ctx, identity.UserID, identity.Username, r.PathValue("id"))
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, rel)
}

// Unfollow handles DELETE /api/v1/users/{id}/follow requests.
func (h UserHandler) Unfollow(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity, err := callerIdentity(h.Verifier, r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	rel, err := h.Social.Unfollow(ctx, identity.UserID, r.PathValue("id"))
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, rel)
}

// FollowStats handles GET /api/v1/users/{id}/follow requests. The optional
// viewer query parameter reports whether that user follows the subject.
func (h UserHandler) FollowStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	subjectID := r.PathValue("id")

	counts, err := h.Social.Counts(ctx, subjectID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	isFollow := false
	if viewer := strings.TrimSpace(r.URL.Query().Get("viewer")); viewer != "" {
		isFollow, err = h.Social.IsFollowing(ctx, viewer, subjectID)
		if err != nil {
			respondError(ctx, w, err)
			return
		}
	}

	respondJSON(ctx, w, http.StatusOK, followStatsResponse{
		Followers: counts.Followers,
		Following: counts.Following,
		IsFollow:  isFollow,
	})
}

type updateProfileRequest struct {
	Username    *string `json:"username"`
	About       *string `json:"about"`
	Age         *int    `json:"age"`
	Gender      *string `json:"gender"`
	OldPassword *string `json:"oldPassword"`
	Password    *string `json:"password"`
}

type followStatsResponse struct {
	Followers int  `json:"follower"`
	Following int  `json:"following"`
	IsFollow  bool `json:"isFollow"`
}

type userProfile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email,omitempty"`
	Username  string    `json:"username"`
	About     string    `json:"about,omitempty"`
	Age       int       `json:"age,omitempty"`
	Gender    string    `json:"gender,omitempty"`
	Avatar    string    `json:"avatar,omitempty"`
	Banner    string    `json:"banner,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func profileFromUser(user models.User) userProfile {
	return userProfile{
		ID:        user.ID,
		Email:     user.Email,
		Username:  user.Username,
		About:     user.About,
		Age:       user.Age,
		Gender:    user.Gender,
		Avatar:    user.Avatar,
		Banner:    user.Banner,
		CreatedAt: user.CreatedAt,
	}
}

// presentUser swaps stored object keys for presigned URLs where possible.
func (h UserHandler) presentUser(r *http.Request, user models.User) userProfile {
	ctx := r.Context()
	profile := profileFromUser(user)
	if h.Storage == nil {
		return profile
	}
	if user.Avatar != "" {
		if url, err := h.Storage.PresignedURL(ctx, user.Avatar, profileImageTTL); err == nil {
			profile.Avatar = url
		} else {
			logging.FromContext(ctx).Warn("presign avatar failed", "error", err, "userId", user.ID)
		}
	}
	if user.Banner != "" {
		if url, err := h.Storage.PresignedURL(ctx, user.Banner, profileImageTTL); err == nil {
			profile.Banner = url
		} else {
			logging.FromContext(ctx).Warn("presign banner failed", "error", err, "userId", user.ID)
		}
	}
	return profile
}

func (h UserHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
