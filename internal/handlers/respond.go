package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/lermo/backend/internal/auth"
	"github.com/lermo/backend/internal/logging"
	"github.com/lermo/backend/internal/notifications"
	"github.com/lermo/backend/internal/repositories"
	"github.com/lermo/backend/internal/social"
	"github.com/lermo/backend/internal/videos"
)

func respondJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.FromContext(ctx).Error("encode response body", "status", status, "error", err)
		return
	}

	logger := logging.FromContext(ctx)
	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("request failed", "status", status, "response", payload)
	case status >= http.StatusBadRequest:
		logger.Warn("request returned client error", "status", status, "response", payload)
	}
}

// respondError maps domain errors onto HTTP statuses. Client-facing messages
// stay generic for server faults and echo the domain error otherwise.
func respondError(ctx context.Context, w http.ResponseWriter, err error) {
	var status int
	message := err.Error()

	switch {
	case errors.Is(err, videos.ErrValidation), errors.Is(err, social.ErrInvalidFollow):
		status = http.StatusBadRequest
	case errors.Is(err, auth.ErrInvalidToken):
		status = http.StatusUnauthorized
		message = "invalid credentials"
	case errors.Is(err, videos.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, videos.ErrNotFound), errors.Is(err, repositories.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, repositories.ErrConflict), errors.Is(err, social.ErrAlreadyFollowing):
		status = http.StatusConflict
	case errors.Is(err, notifications.ErrUnavailable):
		status = http.StatusServiceUnavailable
		message = "notification service unavailable"
	default:
		status = http.StatusInternalServerError
		message = "internal server error"
		logging.FromContext(ctx).Error("unhandled request error", "error", err)
	}

	respondJSON(ctx, w, status, map[string]string{"error": message})
}

// callerIdentity extracts and verifies the bearer token on a request.
func callerIdentity(verifier IdentityVerifier, r *http.Request) (auth.Identity, error) {
	if verifier == nil {
		return auth.Identity{}, auth.ErrInvalidToken
	}
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return auth.Identity{}, auth.ErrInvalidToken
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return auth.Identity{}, auth.ErrInvalidToken
	}
	return verifier.Verify(token)
}
