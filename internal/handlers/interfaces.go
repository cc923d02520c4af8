package handlers

import (
	"context"
	"io"
	"time"

	"github.com/lermo/backend/internal/auth"
	"github.com/lermo/backend/internal/feed"
	"github.com/lermo/backend/internal/models"
	"github.com/lermo/backend/internal/social"
	"github.com/lermo/backend/internal/storage"
	"github.com/lermo/backend/internal/videos"
)

// UserStore captures the persistence operations required by the user-facing handlers.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByID(ctx context.Context, id string) (models.User, error)
	Update(ctx context.Context, user models.User) error
	UpdateAvatar(ctx context.Context, id, path string) error
	UpdateBanner(ctx context.Context, id, path string) error
}

// SessionManager issues and refreshes authentication tokens for users.
type SessionManager interface {
	Issue(ctx context.Context, user models.User) (models.SessionTokens, error)
	Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error)
}

// IdentityVerifier resolves a bearer token to the calling user.
type IdentityVerifier interface {
	Verify(token string) (auth.Identity, error)
}

// VideoManager captures the video lifecycle operations exposed over HTTP.
type VideoManager interface {
	Create(ctx context.Context, ownerID string, attrs videos.NewVideo) (models.Video, error)
	UpdateMetadata(ctx context.Context, videoID, callerID string, patch videos.MetadataPatch) (models.Video, error)
	UpdateAsset(ctx context.Context, videoID, callerID string, kind videos.AssetKind, name, path string) error
	IncrementView(ctx context.Context, videoID string) error
	FindByID(ctx context.Context, videoID string) (models.Video, error)
	List(ctx context.Context, filter videos.Filter, page, limit int) ([]models.Video, error)
	AddComment(ctx context.Context, videoID, callerID, callerName, message string) (models.Comment, error)
	ListComments(ctx context.Context, videoID string) ([]models.Comment, error)
}

// SocialGraph captures follow-graph operations exposed over HTTP.
type SocialGraph interface {
	Follow(ctx context.Context, followerID, followerName, followedID string) (social.Relationship, error)
	Unfollow(ctx context.Context, followerID, followedID string) (social.Relationship, error)
	Counts(ctx context.Context, userID string) (social.Counts, error)
	IsFollowing(ctx context.Context, followerID, followedID string) (bool, error)
}

// FeedComposer assembles the enriched, recency-sorted feed.
type FeedComposer interface {
	Compose(ctx context.Context, query feed.Query) ([]feed.Item, error)
}

// NotificationReader lists a user's notifications.
type NotificationReader interface {
	ListForRecipient(ctx context.Context, recipientID string, page, limit int) ([]models.Notification, error)
}

// ObjectStorage uploads assets and mints presigned read URLs.
type ObjectStorage interface {
	UploadFile(ctx context.Context, r io.Reader, path string) (storage.UploadResult, error)
	UploadImage(ctx context.Context, r io.Reader, path string) (string, error)
	PresignedURL(ctx context.Context, path string, ttl time.Duration) (string, error)
	LocationPath(kind storage.UploadKind) string
}
