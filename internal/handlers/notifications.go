package handlers

import "net/http"

// NotificationHandler serves a user's notification inbox.
type NotificationHandler struct {
	Notifications NotificationReader
	Verifier      IdentityVerifier
}

// List handles GET /api/v1/notifications requests, newest first.
func (h NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity, err := callerIdentity(h.Verifier, r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	page, limit := pagination(r)
	list, err := h.Notifications.ListForRecipient(ctx, identity.UserID, page, limit)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"notifications": list})
}
