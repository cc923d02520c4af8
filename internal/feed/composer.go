package feed

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/lermo/backend/internal/logging"
	"github.com/lermo/backend/internal/models"
	"github.com/lermo/backend/internal/videos"
)

// Presign lifetimes for enriched asset URLs. Watch-page URLs are shorter
// lived than listing thumbnails.
const (
	displayURLTTL = 24 * time.Hour
	sourceURLTTL  = 2 * time.Hour
)

// VideoSource lists videos for feed composition.
type VideoSource interface {
	List(ctx context.Context, filter videos.Filter, page, limit int) ([]models.Video, error)
}

// UserDirectory resolves a video owner's display data.
type UserDirectory interface {
	FindByID(ctx context.Context, userID string) (models.User, error)
}

// Presigner produces time-limited read URLs for stored objects.
type Presigner interface {
	PresignedURL(ctx context.Context, path string, ttl time.Duration) (string, error)
}

// Query scopes a feed request.
type Query struct {
	// OwnerID restricts the feed to one user's videos when set.
	OwnerID string
	// IncludeUnpublished switches to the "my feed" variant: every status
	// except deleted. Only meaningful with OwnerID set to the caller.
	IncludeUnpublished bool
	Page               int
	Limit              int
}

// Item is a feed entry: a video combined with its owner's display data and
// presigned asset URLs.
type Item struct {
	models.Video
	Username  string
	Avatar    string
	About     string
	VideoURL  string
	Thumbnail string
}

// Composer merges video listings with user display data into a recency-sorted
// feed. Enrichment is fanned out per item; an item whose owner cannot be
// resolved is dropped rather than failing the whole feed.
type Composer struct {
	videos    VideoSource
	users     UserDirectory
	presigner Presigner
	logger    *slog.Logger
}

// NewComposer constructs a feed composer. The presigner may be nil, in which
// case asset URLs are left empty.
func NewComposer(source VideoSource, users UserDirectory, presigner Presigner, logger *slog.Logger) *Composer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Composer{
		videos:    source,
		users:     users,
		presigner: presigner,
		logger:    logger,
	}
}

// Compose builds the feed for the query: fetch matching videos, enrich each
// concurrently, then re-sort by creation time descending. The final sort is
// required; the parallel phase gives no ordering guarantee.
func (c *Composer) Compose(ctx context.Context, query Query) ([]Item, error) {
	ctx, span := logging.StartSpan(ctx, "feed.compose")
	defer span.End()

	filter := videos.Filter{OwnerID: query.OwnerID}
	if query.IncludeUnpublished {
		filter.ExcludeStatus = models.VideoStatusDeleted
	} else {
		filter.Statuses = []string{models.VideoStatusCompleted, models.VideoStatusStreaming}
	}

	matched, err := c.videos.List(ctx, filter, query.Page, query.Limit)
	if err != nil {
		return nil, fmt.Errorf("list feed videos: %w", err)
	}

	slots := make([]*Item, len(matched))
	var wg sync.WaitGroup
	wg.Add(len(matched))
	for i, video := range matched {
		go func(i int, video models.Video) {
			defer wg.Done()
			item, err := c.enrich(ctx, video)
			if err != nil {
				c.logger.Warn("feed item dropped", "videoId", video.ID, "ownerId", video.OwnerID, "error", err)
				return
			}
			slots[i] = item
		}(i, video)
	}
	wg.Wait()

	items := make([]Item, 0, len(matched))
	for _, item := range slots {
		if item != nil {
			items = append(items, *item)
		}
	}

	sort.SliceStable(items, func(a, b int) bool {
		return items[a].CreatedAt.After(items[b].CreatedAt)
	})

	return items, nil
}

// enrich resolves the owner and presigns asset URLs. Owner lookup failures
// propagate (the item is excluded); presign failures degrade to empty URLs.
func (c *Composer) enrich(ctx context.Context, video models.Video) (*Item, error) {
	owner, err := c.users.FindByID(ctx, video.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("resolve owner: %w", err)
	}

	item := &Item{
		Video:    video,
		Username: owner.Username,
		About:    owner.About,
	}
	item.Avatar = c.presign(ctx, owner.Avatar, displayURLTTL)
	item.Thumbnail = c.presign(ctx, video.Thumbnail, displayURLTTL)
	item.VideoURL = c.presign(ctx, video.VideoPath, sourceURLTTL)

	return item, nil
}

func (c *Composer) presign(ctx context.Context, path string, ttl time.Duration) string {
	if c.presigner == nil || path == "" {
		return ""
	}
	url, err := c.presigner.PresignedURL(ctx, path, ttl)
	if err != nil {
		c.logger.Warn("presign failed", "path", path, "error", err)
		return ""
	}
	return url
}
