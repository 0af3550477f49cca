package handler

import (
	"net/http"

	"github.com/hyperlog/hyperlog/internal/apperror"
	"github.com/hyperlog/hyperlog/internal/auth"
	"github.com/hyperlog/hyperlog/internal/model"
	"github.com/hyperlog/hyperlog/internal/service"
)

// ProfileHandler serves the authenticated view of linked provider
// accounts.
type ProfileHandler struct {
	profiles *service.ProfileService
}

// NewProfileHandler creates a ProfileHandler.
func NewProfileHandler(profiles *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

// List is GET /me/profiles.
func (h *ProfileHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	profiles, err := h.profiles.ListProfiles(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	if profiles == nil {
		profiles = []model.Profile{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"profiles": profiles})
}
