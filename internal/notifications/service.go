package notifications

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/lermo/backend/internal/models"
)

// ErrUnavailable indicates the notification store rejected the append.
var ErrUnavailable = errors.New("notification store unavailable")

// Store captures the persistence operations for notifications.
type Store interface {
	Create(ctx context.Context, notification models.Notification) error
	ListForRecipient(ctx context.Context, recipientID string, page, limit int) ([]models.Notification, error)
}

// Service appends notification records fanned out from social and video
// actions. Records are append-only from the core's perspective; there is no
// deduplication, and callers suppress notifications about their own actions.
type Service struct {
	store   Store
	nowFunc func() time.Time
}

// NewService constructs the notification fan-out.
func NewService(store Store) *Service {
	return &Service{
		store:   store,
		nowFunc: func() time.Time { return time.Now().UTC() },
	}
}

// Notify appends an unread notification for the recipient. contentID may be
// empty when the notification has no related content.
func (s *Service) Notify(ctx context.Context, recipientID, message, notiType, contentID string) error {
	notification := models.Notification{
		ID:          uuid.NewString(),
		RecipientID: recipientID,
		ContentID:   contentID,
		Message:     message,
		Type:        notiType,
		Status:      models.NotificationStatusUnread,
		CreatedAt:   s.nowFunc(),
	}

	if err := s.store.Create(ctx, notification); err != nil {
		return errors.Join(ErrUnavailable, err)
	}
	return nil
}

// ListForRecipient returns the recipient's notifications, newest first.
func (s *Service) ListForRecipient(ctx context.Context, recipientID string, page, limit int) ([]models.Notification, error) {
	if limit <= 0 {
		limit = 20
	}
	if page < 0 {
		page = 0
	}
	return s.store.ListForRecipient(ctx, recipientID, page, limit)
}
