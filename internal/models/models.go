package models

import "time"

// User represents an account within the Lermo platform.
type User struct {
	ID        string
	Email     string
	Username  string
	Password  string
	About     string
	Age       int
	Gender    string
	Avatar    string
	Banner    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Video stores an uploaded or live video along with its asset references.
type Video struct {
	ID             string
	OwnerID        string
	Title          string
	Description    string
	VideoType      string
	Status         string
	StreamKey      string
	VideoName      string
	VideoPath      string
	Thumbnail      string
	Views          int64
	PaymentType    string
	EnableDonation bool
	Price          int64
	FreeMinute     int
	Tags           []string
	Categories     []string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

const (
	VideoTypeVOD  = "vod"
	VideoTypeLive = "live"
)

const (
	VideoStatusDraft     = "draft"
	VideoStatusUploading = "uploading"
	VideoStatusStreaming = "streaming"
	VideoStatusCompleted = "completed"
	VideoStatusDeleted   = "deleted"
)

// Follow is a directed edge in the social graph: follower watches followed.
type Follow struct {
	ID         string
	FollowerID string
	FollowedID string
	CreatedAt  time.Time
}

// Notification is an append-only record fanned out from social and video actions.
type Notification struct {
	ID          string
	RecipientID string
	ContentID   string
	Message     string
	Type        string
	Status      string
	CreatedAt   time.Time
}

const (
	NotificationTypeFollow       = "follow"
	NotificationTypeVideoComment = "video_comment"
)

const (
	NotificationStatusUnread = "unread"
	NotificationStatusRead   = "read"
)

// Comment is a user remark attached to a video.
type Comment struct {
	ID        string
	UserID    string
	VideoID   string
	Message   string
	CreatedAt time.Time
}

// SessionTokens groups the bearer credentials issued to authenticated users.
type SessionTokens struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}
