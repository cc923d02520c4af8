package handlers

import (
	"net/http"
	"strings"

	"github.com/lermo/backend/internal/feed"
)

// FeedHandler serves the enriched video feeds.
type FeedHandler struct {
	Feed     FeedComposer
	Verifier IdentityVerifier
}

// List handles GET /api/v1/feeds requests: published and live videos across
// the platform, newest first. An optional user query narrows the feed to one
// creator's published videos.
func (h FeedHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	page, limit := pagination(r)
	query := feed.Query{Page: page, Limit: limit}
	if ownerID := strings.TrimSpace(r.URL.Query().Get("user")); ownerID != "" {
		query.OwnerID = ownerID
	}

	items, err := h.Feed.Compose(ctx, query)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"feeds": items})
}

// Mine handles GET /api/v1/feeds/my requests: everything the caller has not
// deleted, drafts and in-progress uploads included.
func (h FeedHandler) Mine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity, err := callerIdentity(h.Verifier, r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	page, limit := pagination(r)
	items, err := h.Feed.Compose(ctx, feed.Query{
		OwnerID:            identity.UserID,
		IncludeUnpublished: true,
		Page:               page,
		Limit:              limit,
	})
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"feeds": items})
}
