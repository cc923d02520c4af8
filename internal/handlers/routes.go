package handlers

import "net/http"

// RegisterRoutes wires HTTP handlers into the provided ServeMux.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := HealthHandler{}
	auth := AuthHandler{Users: deps.Users, Sessions: deps.Sessions}
	users := UserHandler{Users: deps.Users, Verifier: deps.Verifier, Social: deps.Social, Storage: deps.Storage}
	videos := VideoHandler{Videos: deps.Videos, Users: deps.Users, Verifier: deps.Verifier, Storage: deps.Storage}
	feeds := FeedHandler{Feed: deps.Feed, Verifier: deps.Verifier}
	notifications := NotificationHandler{Notifications: deps.Notifications, Verifier: deps.Verifier}

	mux.HandleFunc("GET /healthz", health.Handle)

	mux.HandleFunc("POST /api/v1/auth/login", limited(deps.AuthLimiter, "auth", auth.Login))
	mux.HandleFunc("POST /api/v1/auth/signup", limited(deps.AuthLimiter, "auth", auth.SignUp))
	mux.HandleFunc("POST /api/v1/auth/refresh", limited(deps.AuthLimiter, "auth", auth.Refresh))

	mux.HandleFunc("GET /api/v1/users/me", users.Me)
	mux.HandleFunc("PATCH /api/v1/users/me", users.Update)
	mux.HandleFunc("POST /api/v1/users/me/avatar", users.UploadAvatar)
	mux.HandleFunc("POST /api/v1/users/me/banner", users.UploadBanner)
	mux.HandleFunc("GET /api/v1/users/{id}", users.Get)
	mux.HandleFunc("GET /api/v1/users/{id}/follow", users.FollowStats)
	mux.HandleFunc("POST /api/v1/users/{id}/follow", limited(deps.FollowLimiter, "follow", users.Follow))
	mux.HandleFunc("DELETE /api/v1/users/{id}/follow", limited(deps.FollowLimiter, "follow", users.Unfollow))

	mux.HandleFunc("POST /api/v1/videos", videos.Create)
	mux.HandleFunc("GET /api/v1/videos", videos.List)
	mux.HandleFunc("GET /api/v1/videos/{id}", videos.Get)
	mux.HandleFunc("PATCH /api/v1/videos/{id}", videos.Update)
	mux.HandleFunc("POST /api/v1/videos/{id}/source", videos.UploadSource)
	mux.HandleFunc("PATCH /api/v1/videos/{id}/thumbnail", videos.UploadThumbnail)
	mux.HandleFunc("PATCH /api/v1/videos/{id}/view", videos.View)
	mux.HandleFunc("GET /api/v1/videos/{id}/comments", videos.ListComments)
	mux.HandleFunc("POST /api/v1/videos/{id}/comments", videos.AddComment)

	mux.HandleFunc("GET /api/v1/feeds", feeds.List)
	mux.HandleFunc("GET /api/v1/feeds/my", feeds.Mine)

	mux.HandleFunc("GET /api/v1/notifications", notifications.List)
}

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Users         UserStore
	Sessions      SessionManager
	Verifier      IdentityVerifier
	Videos        VideoManager
	Social        SocialGraph
	Feed          FeedComposer
	Notifications NotificationReader
	Storage       ObjectStorage
	AuthLimiter   RateLimiter
	FollowLimiter RateLimiter
}
