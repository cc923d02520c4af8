package videos

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/lermo/backend/internal/logging"
	"github.com/lermo/backend/internal/models"
)

// DefaultListLimit bounds list queries that do not request an explicit page size.
const DefaultListLimit = 20

// Filter narrows a video listing. Zero-value fields are ignored.
type Filter struct {
	OwnerID       string
	Statuses      []string
	ExcludeStatus string
	Title         string
	StreamKey     string
}

// MetadataPatch carries the owner-editable fields of a video. Nil fields are
// left untouched. A patch whose Status is "deleted" is applied exclusively:
// every other field in it is discarded.
type MetadataPatch struct {
	Title          *string
	Description    *string
	Status         *string
	VideoType      *string
	PaymentType    *string
	EnableDonation *bool
	Price          *int64
	FreeMinute     *int
	Tags           []string
	Categories     []string
}

// AssetKind names the asset slots a video exposes.
type AssetKind string

const (
	AssetSource    AssetKind = "source"
	AssetThumbnail AssetKind = "thumbnail"
)

// NewVideo carries the caller-supplied fields for video creation.
type NewVideo struct {
	Title          string
	Description    string
	VideoType      string
	PaymentType    string
	EnableDonation bool
	Price          int64
	FreeMinute     int
	Tags           []string
	Categories     []string
}

// Store captures the persistence operations the lifecycle manager requires.
type Store interface {
	Create(ctx context.Context, video models.Video) error
	FindByID(ctx context.Context, id string) (models.Video, error)
	FindByStreamKey(ctx context.Context, key string) (models.Video, error)
	List(ctx context.Context, filter Filter, page, limit int) ([]models.Video, error)
	UpdateMetadata(ctx context.Context, id string, patch MetadataPatch) error
	UpdateStatus(ctx context.Context, id, status string) error
	UpdateAsset(ctx context.Context, id string, kind AssetKind, name, path string) error
	ClearStreamKey(ctx context.Context, key string) error
	IncrementViews(ctx context.Context, id string) error
}

// CommentStore persists video comments.
type CommentStore interface {
	Create(ctx context.Context, comment models.Comment) error
	ListForVideo(ctx context.Context, videoID string) ([]models.Comment, error)
}

// Notifier fans out a derived notification for a video action.
type Notifier interface {
	Notify(ctx context.Context, recipientID, message, notiType, contentID string) error
}

// Service owns the write path for video records: creation, ownership-gated
// metadata and asset updates, view counting and the comment trigger.
type Service struct {
	store     Store
	comments  CommentStore
	notifier  Notifier
	keyPrefix string
	logger    *slog.Logger
	nowFunc   func() time.Time
}

// NewService constructs the video lifecycle manager.
func NewService(store Store, comments CommentStore, notifier Notifier, keyPrefix string, logger *slog.Logger) *Service {
	if keyPrefix == "" {
		keyPrefix = "lermo"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:     store,
		comments:  comments,
		notifier:  notifier,
		keyPrefix: keyPrefix,
		logger:    logger,
		nowFunc:   func() time.Time { return time.Now().UTC() },
	}
}

// Create stores a new video owned by ownerID. VOD uploads start in draft;
// live videos start streaming with a freshly generated stream key.
func (s *Service) Create(ctx context.Context, ownerID string, attrs NewVideo) (models.Video, error) {
	ctx, span := logging.StartSpan(ctx, "videos.create")
	defer span.End()

	if ownerID == "" {
		return models.Video{}, fmt.Errorf("%w: owner id is required", ErrValidation)
	}
	if attrs.Title == "" {
		return models.Video{}, fmt.Errorf("%w: title is required", ErrValidation)
	}

	videoType := attrs.VideoType
	if videoType == "" {
		videoType = models.VideoTypeVOD
	}
	if videoType != models.VideoTypeVOD && videoType != models.VideoTypeLive {
		return models.Video{}, fmt.Errorf("%w: unknown video type %q", ErrValidation, attrs.VideoType)
	}

	now := s.nowFunc()
	video := models.Video{
		ID:             uuid.NewString(),
		OwnerID:        ownerID,
		Title:          attrs.Title,
		Description:    attrs.Description,
		VideoType:      videoType,
		Status:         models.VideoStatusDraft,
		PaymentType:    attrs.PaymentType,
		EnableDonation: attrs.EnableDonation,
		Price:          attrs.Price,
		FreeMinute:     attrs.FreeMinute,
		Tags:           attrs.Tags,
		Categories:     attrs.Categories,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if videoType == models.VideoTypeLive {
		key, err := s.newStreamKey()
		if err != nil {
			return models.Video{}, fmt.Errorf("generate stream key: %w", err)
		}
		video.StreamKey = key
		video.Status = models.VideoStatusStreaming
	}

	if err := s.store.Create(ctx, video); err != nil {
		return models.Video{}, fmt.Errorf("create video: %w", err)
	}

	return video, nil
}

// UpdateMetadata applies an ownership-gated patch to the video's editable
// fields. Once a video is deleted it behaves as absent for every mutation.
func (s *Service) UpdateMetadata(ctx context.Context, videoID, callerID string, patch MetadataPatch) (models.Video, error) {
	video, err := s.ownedVideo(ctx, videoID, callerID)
	if err != nil {
		return models.Video{}, err
	}

	if patch.Status != nil && !validStatus(*patch.Status) {
		return models.Video{}, fmt.Errorf("%w: unknown status %q", ErrValidation, *patch.Status)
	}

	// Deletion is exclusive: the terminal status is the only field that lands.
	if patch.Status != nil && *patch.Status == models.VideoStatusDeleted {
		if err := s.store.UpdateStatus(ctx, videoID, models.VideoStatusDeleted); err != nil {
			return models.Video{}, fmt.Errorf("delete video %s: %w", videoID, err)
		}
		video.Status = models.VideoStatusDeleted
		return video, nil
	}

	if err := s.store.UpdateMetadata(ctx, videoID, patch); err != nil {
		return models.Video{}, fmt.Errorf("update video %s: %w", videoID, err)
	}

	return s.store.FindByID(ctx, videoID)
}

// UpdateAsset records the storage path produced by the object store for one
// of the video's asset slots. The upload itself happens elsewhere.
func (s *Service) UpdateAsset(ctx context.Context, videoID, callerID string, kind AssetKind, name, path string) error {
	if kind != AssetSource && kind != AssetThumbnail {
		return fmt.Errorf("%w: unknown asset kind %q", ErrValidation, kind)
	}
	if path == "" {
		return fmt.Errorf("%w: asset path is required", ErrValidation)
	}

	if _, err := s.ownedVideo(ctx, videoID, callerID); err != nil {
		return err
	}

	if err := s.store.UpdateAsset(ctx, videoID, kind, name, path); err != nil {
		return fmt.Errorf("update %s asset for video %s: %w", kind, videoID, err)
	}
	return nil
}

// IncrementView bumps the view counter. Public action, no ownership check;
// the store performs the increment atomically.
func (s *Service) IncrementView(ctx context.Context, videoID string) error {
	if err := s.store.IncrementViews(ctx, videoID); err != nil {
		return fmt.Errorf("increment views for video %s: %w", videoID, err)
	}
	return nil
}

// FindByID loads a single video.
func (s *Service) FindByID(ctx context.Context, videoID string) (models.Video, error) {
	return s.store.FindByID(ctx, videoID)
}

// FindByStreamKey resolves a live stream's backing record.
func (s *Service) FindByStreamKey(ctx context.Context, key string) (models.Video, error) {
	return s.store.FindByStreamKey(ctx, key)
}

// ReleaseStreamKey clears a live key once the stream has ended so the key
// cannot be replayed against the ingest endpoint.
func (s *Service) ReleaseStreamKey(ctx context.Context, key string) error {
	if err := s.store.ClearStreamKey(ctx, key); err != nil {
		return fmt.Errorf("release stream key: %w", err)
	}
	return nil
}

// List returns videos matching the filter, newest first.
func (s *Service) List(ctx context.Context, filter Filter, page, limit int) ([]models.Video, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if page < 0 {
		page = 0
	}
	return s.store.List(ctx, filter, page, limit)
}

// AddComment stores a comment on the video and notifies the owner unless the
// commenter is the owner. A failed notification is logged, never surfaced:
// the comment is the primary write.
func (s *Service) AddComment(ctx context.Context, videoID, callerID, callerName, message string) (models.Comment, error) {
	if message == "" {
		return models.Comment{}, fmt.Errorf("%w: message is required", ErrValidation)
	}

	video, err := s.store.FindByID(ctx, videoID)
	if err != nil {
		return models.Comment{}, err
	}

	comment := models.Comment{
		ID:        uuid.NewString(),
		UserID:    callerID,
		VideoID:   videoID,
		Message:   message,
		CreatedAt: s.nowFunc(),
	}

	if err := s.comments.Create(ctx, comment); err != nil {
		return models.Comment{}, fmt.Errorf("create comment: %w", err)
	}

	if callerID != video.OwnerID && s.notifier != nil {
		message := fmt.Sprintf("%s commented on your video", callerName)
		if err := s.notifier.Notify(ctx, video.OwnerID, message, models.NotificationTypeVideoComment, videoID); err != nil {
			s.logger.Error("comment notification failed", "videoId", videoID, "recipientId", video.OwnerID, "error", err)
		}
	}

	return comment, nil
}

// ListComments returns the comments on a video, oldest first.
func (s *Service) ListComments(ctx context.Context, videoID string) ([]models.Comment, error) {
	return s.comments.ListForVideo(ctx, videoID)
}

func (s *Service) ownedVideo(ctx context.Context, videoID, callerID string) (models.Video, error) {
	video, err := s.store.FindByID(ctx, videoID)
	if err != nil {
		return models.Video{}, err
	}
	// A deleted video is terminal: it behaves as absent for every mutation.
	if video.Status == models.VideoStatusDeleted {
		return models.Video{}, ErrNotFound
	}
	if video.OwnerID != callerID {
		return models.Video{}, ErrForbidden
	}
	return video, nil
}

func (s *Service) newStreamKey() (string, error) {
	buf := make([]byte, 10)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%s", s.keyPrefix, hex.EncodeToString(buf)), nil
}

func validStatus(status string) bool {
	switch status {
	case models.VideoStatusDraft, models.VideoStatusUploading, models.VideoStatusStreaming,
		models.VideoStatusCompleted, models.VideoStatusDeleted:
		return true
	}
	return false
}
