package handler

import (
	"log/slog"
	"net/http"

	"github.com/hyperlog/hyperlog/internal/apperror"
	"github.com/hyperlog/hyperlog/internal/auth"
	"github.com/hyperlog/hyperlog/internal/service"
)

// AccountHandler serves the authenticated JSON API for account
// management and onboarding.
type AccountHandler struct {
	users  *service.UserService
	logger *slog.Logger
}

// NewAccountHandler creates an AccountHandler.
func NewAccountHandler(users *service.UserService, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{users: users, logger: logger}
}

// Register is POST /register.
func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username  string `json:"username"`
		Email     string `json:"email"`
		Password  string `json:"password"`
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.users.Register(r.Context(), service.RegisterParams{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// Login is POST /login. A successful login sets the session cookie and
// also returns the token in the body for non-browser clients.
func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	token, user, err := h.users.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	auth.SetSessionCookie(w, token, 3600)
	writeJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"user":  user,
	})
}

// Logout is POST /logout.
func (h *AccountHandler) Logout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]any{"message": "logged out"})
}

// Me is GET /me, the authenticated user's own record.
func (h *AccountHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	user, err := h.users.Get(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// Update is PATCH /me. Absent fields stay unchanged.
func (h *AccountHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	var req struct {
		FirstName         *string `json:"firstName"`
		LastName          *string `json:"lastName"`
		Tagline           *string `json:"tagline"`
		About             *string `json:"about"`
		ThemeCode         *string `json:"themeCode"`
		ShowAvatar        *bool   `json:"showAvatar"`
		UnderConstruction *bool   `json:"underConstruction"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.users.Update(r.Context(), userID, service.UpdateUserParams{
		FirstName:         req.FirstName,
		LastName:          req.LastName,
		Tagline:           req.Tagline,
		About:             req.About,
		ThemeCode:         req.ThemeCode,
		ShowAvatar:        req.ShowAvatar,
		UnderConstruction: req.UnderConstruction,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// UpdateSocialLinks is PUT /me/social_links. The body replaces the whole
// map; unlisted providers are removed.
func (h *AccountHandler) UpdateSocialLinks(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	var req struct {
		SocialLinks map[string]string `json:"socialLinks"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.users.UpdateSocialLinks(r.Context(), userID, req.SocialLinks)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// SetSetupStep is PUT /me/setup_step.
func (h *AccountHandler) SetSetupStep(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	var req struct {
		SetupStep int `json:"setupStep"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.users.SetSetupStep(r.Context(), userID, req.SetupStep)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// SelectRepos is PUT /me/selected_repos. The chosen repos go into the
// analysis store, where the worker and the public read API pick them up.
func (h *AccountHandler) SelectRepos(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	var req struct {
		Repos []string `json:"repos"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := h.users.SelectRepos(r.Context(), userID, req.Repos); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"repos": req.Repos})
}

// Delete is DELETE /me. The account is snapshotted and removed; the
// session cookie is cleared on the way out.
func (h *AccountHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	if err := h.users.Delete(r.Context(), userID); err != nil {
		writeError(w, err)
		return
	}
	auth.ClearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]any{"message": "account deleted"})
}
