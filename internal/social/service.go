package social

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/lermo/backend/internal/models"
	"github.com/lermo/backend/internal/repositories"
)

var (
	// ErrInvalidFollow indicates a self-follow or a follow of a reserved target.
	ErrInvalidFollow = errors.New("cannot follow this user")
	// ErrAlreadyFollowing indicates the follow edge already exists.
	ErrAlreadyFollowing = errors.New("already following")
)

// ReservedFollowTarget is the sentinel id the client uses for a user's own
// space; it is never a valid follow target.
const ReservedFollowTarget = "myspace"

// EdgeStore captures the persistence operations for follow edges.
type EdgeStore interface {
	Create(ctx context.Context, edge models.Follow) error
	Delete(ctx context.Context, followerID, followedID string) error
	Exists(ctx context.Context, followerID, followedID string) (bool, error)
	CountFollowers(ctx context.Context, userID string) (int, error)
	CountFollowing(ctx context.Context, userID string) (int, error)
}

// Notifier fans out a derived notification for a social action.
type Notifier interface {
	Notify(ctx context.Context, recipientID, message, notiType, contentID string) error
}

// Relationship reports the followed user's counters and whether the acting
// user currently follows them. Counts are always computed fresh.
type Relationship struct {
	Followers int  `json:"follower"`
	Following int  `json:"following"`
	IsFollow  bool `json:"isFollow"`
}

// Counts holds a user's follower and following totals.
type Counts struct {
	Followers int `json:"follower"`
	Following int `json:"following"`
}

// Service owns the follow graph: edge creation and removal, derived
// counters, and the follow notification fan-out.
type Service struct {
	edges    EdgeStore
	notifier Notifier
	logger   *slog.Logger
	nowFunc  func() time.Time
}

// NewService constructs the social graph manager.
func NewService(edges EdgeStore, notifier Notifier, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		edges:    edges,
		notifier: notifier,
		logger:   logger,
		nowFunc:  func() time.Time { return time.Now().UTC() },
	}
}

// Follow creates the follower→followed edge and notifies the followed user.
// The returned relationship describes the followed user after the mutation.
// The notification is best effort: a failure is logged, the edge stands.
func (s *Service) Follow(ctx context.Context, followerID, followerName, followedID string) (Relationship, error) {
	if followedID == followerID || followedID == ReservedFollowTarget {
		return Relationship{}, ErrInvalidFollow
	}

	edge := models.Follow{
		ID:         uuid.NewString(),
		FollowerID: followerID,
		FollowedID: followedID,
		CreatedAt:  s.nowFunc(),
	}

	if err := s.edges.Create(ctx, edge); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			return Relationship{}, ErrAlreadyFollowing
		}
		return Relationship{}, fmt.Errorf("create follow edge: %w", err)
	}

	if s.notifier != nil {
		message := fmt.Sprintf("%s started following you", followerName)
		if err := s.notifier.Notify(ctx, followedID, message, models.NotificationTypeFollow, ""); err != nil {
			s.logger.Error("follow notification failed", "recipientId", followedID, "error", err)
		}
	}

	return s.relationship(ctx, followerID, followedID)
}

// Unfollow removes the follower→followed edge. Missing edges surface the
// store's not-found error and produce no notification.
func (s *Service) Unfollow(ctx context.Context, followerID, followedID string) (Relationship, error) {
	if err := s.edges.Delete(ctx, followerID, followedID); err != nil {
		return Relationship{}, err
	}
	return s.relationship(ctx, followerID, followedID)
}

// Counts returns the user's follower/following totals, queried fresh.
func (s *Service) Counts(ctx context.Context, userID string) (Counts, error) {
	followers, err := s.edges.CountFollowers(ctx, userID)
	if err != nil {
		return Counts{}, fmt.Errorf("count followers: %w", err)
	}
	following, err := s.edges.CountFollowing(ctx, userID)
	if err != nil {
		return Counts{}, fmt.Errorf("count following: %w", err)
	}
	return Counts{Followers: followers, Following: following}, nil
}

// IsFollowing reports whether the follower→followed edge exists.
func (s *Service) IsFollowing(ctx context.Context, followerID, followedID string) (bool, error) {
	return s.edges.Exists(ctx, followerID, followedID)
}

// relationship reports the followed side's counters plus the acting user's
// edge toward them. The asymmetry is deliberate and externally observable:
// responses always describe the target of the action.
func (s *Service) relationship(ctx context.Context, followerID, followedID string) (Relationship, error) {
	counts, err := s.Counts(ctx, followedID)
	if err != nil {
		return Relationship{}, err
	}
	isFollow, err := s.edges.Exists(ctx, followerID, followedID)
	if err != nil {
		return Relationship{}, fmt.Errorf("check follow edge: %w", err)
	}
	return Relationship{Followers: counts.Followers, Following: counts.Following, IsFollow: isFollow}, nil
}
