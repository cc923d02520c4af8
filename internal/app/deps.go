package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lermo/backend/internal/auth"
	"github.com/lermo/backend/internal/config"
	"github.com/lermo/backend/internal/db"
	"github.com/lermo/backend/internal/feed"
	"github.com/lermo/backend/internal/handlers"
	"github.com/lermo/backend/internal/middleware"
	"github.com/lermo/backend/internal/notifications"
	"github.com/lermo/backend/internal/repositories"
	"github.com/lermo/backend/internal/social"
	"github.com/lermo/backend/internal/storage"
	"github.com/lermo/backend/internal/videos"
)

// buildDependencies wires together concrete implementations used by the HTTP handlers.
func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config, logger *slog.Logger) (handlers.Dependencies, error) {
	users := repositories.NewPostgresUserRepository(pool)
	videoRepo := repositories.NewPostgresVideoRepository(pool)
	commentRepo := repositories.NewPostgresCommentRepository(pool)
	followRepo := repositories.NewPostgresFollowRepository(pool)
	notificationRepo := repositories.NewPostgresNotificationRepository(pool)
	sessionStore := repositories.NewPostgresSessionStore(pool)

	tokens, err := auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL)
	if err != nil {
		return handlers.Dependencies{}, fmt.Errorf("configure token manager: %w", err)
	}
	sessions := auth.NewManager(tokens, cfg.RefreshTokenTTL, sessionStore, users)

	notifier := notifications.NewService(notificationRepo)
	videoService := videos.NewService(videoRepo, commentRepo, notifier, cfg.StreamKeyPrefix, logger)
	socialService := social.NewService(followRepo, notifier, logger)

	deps := handlers.Dependencies{
		Users:         users,
		Sessions:      sessions,
		Verifier:      tokens,
		Videos:        videoService,
		Social:        socialService,
		Notifications: notifier,
		AuthLimiter:   middleware.NewIPRateLimiter(10, time.Minute, 5, 10*time.Minute),
		FollowLimiter: middleware.NewIPRateLimiter(30, time.Minute, 10, 10*time.Minute),
	}

	directory := feed.NewCachingDirectory(users, cfg.UserCacheTTL)

	if cfg.ObjectStore.Bucket != "" {
		store, err := storage.NewS3Storage(ctx, cfg.ObjectStore)
		if err != nil {
			return handlers.Dependencies{}, fmt.Errorf("configure object storage: %w", err)
		}
		deps.Storage = store
		deps.Feed = feed.NewComposer(videoService, directory, store, logger)
	} else {
		deps.Feed = feed.NewComposer(videoService, directory, nil, logger)
	}

	return deps, nil
}
