package handler

import (
	"context"
	"encoding/base64"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/hyperlog/hyperlog/internal/apperror"
	"github.com/hyperlog/hyperlog/internal/service"
)

// AnalysisReader is the slice of the analysis store the read API uses.
type AnalysisReader interface {
	GetProfileAnalysis(ctx context.Context, userID string) (map[string]any, error)
	GetRepoAnalysis(ctx context.Context, fullName string) (map[string]any, error)
}

// ReadHandler serves the public portfolio read API. Everything here is
// unauthenticated: portfolio pages are public and the user id in the path
// is the only selector.
type ReadHandler struct {
	users    *service.UserService
	analysis AnalysisReader // nil when no analysis store is configured
	logger   *slog.Logger
}

// NewReadHandler creates a ReadHandler.
func NewReadHandler(users *service.UserService, analysis AnalysisReader, logger *slog.Logger) *ReadHandler {
	return &ReadHandler{
		users:    users,
		analysis: analysis,
		logger:   logger,
	}
}

// UserInfo is GET /user_info/{userID}. Returns the public portfolio
// fields plus the contact record; contactInfo is null when the user
// never filled one in. Only display fields leave the server here, never
// the account email or login metadata.
func (h *ReadHandler) UserInfo(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	user, err := h.users.Get(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	info, err := h.users.GetContactInfo(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"username":    user.Username,
		"firstName":   user.FirstName,
		"lastName":    user.LastName,
		"tagline":     user.Tagline,
		"contactInfo": info,
	})
}

// UserSocials is GET /user_socials/{userID}. The body is the stored
// provider-to-handle map itself, not wrapped in an envelope.
func (h *ReadHandler) UserSocials(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	user, err := h.users.Get(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	links := user.SocialLinks
	if links == nil {
		links = map[string]string{}
	}
	writeJSON(w, http.StatusOK, links)
}

// SelectedRepos is GET /selected_repos/{userID}. Projects the user's
// analysis document into the list the portfolio page renders, in the
// order the user chose the repos.
func (h *ReadHandler) SelectedRepos(w http.ResponseWriter, r *http.Request) {
	if h.analysis == nil {
		writeError(w, apperror.NotFound("profile analysis", chi.URLParam(r, "userID")))
		return
	}
	userID := chi.URLParam(r, "userID")

	doc, err := h.analysis.GetProfileAnalysis(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	selected, _ := doc["selectedRepos"].([]any)
	repos, _ := doc["repos"].(map[string]any)

	out := make([]map[string]any, 0, len(selected))
	for _, entry := range selected {
		fullName, ok := entry.(string)
		if !ok {
			continue
		}
		repoDoc, ok := repos[fullName].(map[string]any)
		if !ok {
			// Selected but not analyzed yet; the worker will fill it in.
			h.logger.Debug("selected repo missing from analysis",
				slog.String("user_id", userID),
				slog.String("full_name", fullName))
			continue
		}
		out = append(out, projectRepo(fullName, repoDoc))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"count": len(out),
		"repos": out,
	})
}

// projectRepo shapes one analyzed repo for the portfolio page. The raw
// isPrivate flag becomes a visibility string, and the name and link
// fields are derived from the full name.
func projectRepo(fullName string, doc map[string]any) map[string]any {
	visibility := "public"
	if private, ok := doc["isPrivate"].(bool); ok && private {
		visibility = "private"
	}

	repoName := fullName
	if _, name, found := strings.Cut(fullName, "/"); found {
		repoName = name
	}

	return map[string]any{
		"repo_name":        repoName,
		"repo_full_name":   fullName,
		"description":      doc["description"],
		"primary_language": doc["primaryLanguage"],
		"external_url":     "https://github.com/" + fullName,
		"visibility":       visibility,
	}
}

// SingleRepo is GET /single_repo/{userID}/{repoB64}. The repo's full
// name travels base64url-encoded in the path because it contains a
// slash. An undecodable segment is a 400 and never reaches the
// database; an unknown user is a 404 before the store is consulted.
func (h *ReadHandler) SingleRepo(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "repoB64")
	decoded, err := base64.URLEncoding.DecodeString(raw)
	if err != nil || len(decoded) == 0 {
		writeError(w, apperror.BadRequest("repo name is not valid base64"))
		return
	}
	if _, err := h.users.Get(r.Context(), chi.URLParam(r, "userID")); err != nil {
		writeError(w, err)
		return
	}
	if h.analysis == nil {
		writeError(w, apperror.NotFound("repo analysis", string(decoded)))
		return
	}

	doc, err := h.analysis.GetRepoAnalysis(r.Context(), string(decoded))
	if err != nil {
		writeError(w, err)
		return
	}

	// The analyzer never produced a tech breakdown; the key is served as
	// null regardless of what the stored document carries.
	doc["tech"] = nil
	writeJSON(w, http.StatusOK, doc)
}
