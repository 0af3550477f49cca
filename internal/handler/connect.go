package handler

import (
	"errors"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/rs/xid"

	"github.com/hyperlog/hyperlog/internal/apperror"
	"github.com/hyperlog/hyperlog/internal/auth"
	"github.com/hyperlog/hyperlog/internal/model"
	"github.com/hyperlog/hyperlog/internal/service"
)

// connectPageHTML is the minimal page shown at the end of the connect
// flow. The frontend opens the flow in a popup and only reads the
// outcome, so the page stays deliberately plain.
const connectPageHTML = `<!DOCTYPE html>
<html>
<head><title>Hyperlog</title></head>
<body>
<h2>{{if .Success}}Connected!{{else}}Connection failed{{end}}</h2>
<p>{{.Message}}</p>
{{if .Errors}}<ul>{{range .Errors}}<li>{{.}}</li>{{end}}</ul>{{end}}
{{if .Success}}<p>You can close this window now.</p>{{end}}
</body>
</html>`

var connectPage = template.Must(template.New("connect").Parse(connectPageHTML))

// ConnectHandler implements the browser-facing GitHub connect flow:
// entry with a bearer token, redirect to the provider, and the callback
// that links the account.
type ConnectHandler struct {
	tokens   *auth.TokenService
	provider *auth.GitHubProvider
	profiles *service.ProfileService
	users    *service.UserService
	logger   *slog.Logger
}

// NewConnectHandler creates a ConnectHandler.
func NewConnectHandler(
	tokens *auth.TokenService,
	provider *auth.GitHubProvider,
	profiles *service.ProfileService,
	users *service.UserService,
	logger *slog.Logger,
) *ConnectHandler {
	return &ConnectHandler{
		tokens:   tokens,
		provider: provider,
		profiles: profiles,
		users:    users,
		logger:   logger,
	}
}

// Connect is GET /connect_github. The frontend opens this URL with the
// user's JWT in the token query parameter; a valid token becomes the
// session cookie and the flow moves on to the authorize step. Each token
// failure kind gets its own message so users can tell an expired session
// from a broken link.
func (h *ConnectHandler) Connect(w http.ResponseWriter, r *http.Request) {
	userID, err := h.tokens.Validate(r.URL.Query().Get("token"))
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrTokenMissing):
			h.renderFail(w, "Missing token")
		case errors.Is(err, auth.ErrTokenExpired):
			h.renderFail(w, "Expired token")
		default:
			h.renderFail(w, "Invalid token")
		}
		return
	}

	// Re-issue the token as a session cookie so the rest of the flow can
	// identify the user across the provider round-trip.
	session, err := h.tokens.Generate(userID)
	if err != nil {
		h.logger.Error("failed to issue session token", slog.String("error", err.Error()))
		h.renderFail(w, somethingWentWrong)
		return
	}
	auth.SetSessionCookie(w, session, 3600)

	target := "/profiles/auth/github"
	if scope := r.URL.Query().Get("repos_scope"); scope != "" {
		target += "?repos_scope=" + scope
	}
	http.Redirect(w, r, target, http.StatusFound)
}

// Authorize is GET /profiles/auth/github. It picks the scope set from
// repos_scope, stores a fresh anti-forgery state in a cookie and sends
// the user agent to the provider's consent page.
func (h *ConnectHandler) Authorize(w http.ResponseWriter, r *http.Request) {
	if _, err := auth.UserIDFromRequest(r, h.tokens); err != nil {
		h.renderFail(w, "User not authenticated")
		return
	}

	state := xid.New().String()
	http.SetCookie(w, &http.Cookie{
		Name:     auth.StateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	scopes := auth.ScopesForReposScope(r.URL.Query().Get("repos_scope"))
	http.Redirect(w, r, h.provider.AuthURL(state, scopes), http.StatusFound)
}

const somethingWentWrong = "Something went wrong. Please try again"

// Callback is GET /profiles/auth/github/callback, where the provider
// sends the user agent after consent. It verifies the state, exchanges
// the code, fetches the provider identity and links the profile.
//
// Provider-reported errors (denied consent and everything else) all
// render the same retry message; the detail only goes to the log.
func (h *ConnectHandler) Callback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := auth.UserIDFromRequest(r, h.tokens)
	if err != nil {
		h.renderFail(w, "User not authenticated")
		return
	}

	query := r.URL.Query()
	if provErr := query.Get("error"); provErr != "" {
		h.logger.Warn("provider returned an error",
			slog.String("user_id", userID),
			slog.String("error", provErr),
			slog.String("error_description", query.Get("error_description")),
			slog.String("error_uri", query.Get("error_uri")))
		h.renderFail(w, somethingWentWrong)
		return
	}
	code := query.Get("code")
	if code == "" {
		h.renderFail(w, "No code found in parameters")
		return
	}

	stateCookie, err := r.Cookie(auth.StateCookie)
	if err != nil || stateCookie.Value == "" || stateCookie.Value != query.Get("state") {
		h.logger.Warn("state mismatch in callback", slog.String("user_id", userID))
		h.renderFail(w, somethingWentWrong)
		return
	}
	// The state is single-use.
	http.SetCookie(w, &http.Cookie{Name: auth.StateCookie, Value: "", Path: "/", MaxAge: -1})

	accessToken, err := h.provider.Exchange(ctx, code)
	if err != nil {
		h.logger.Error("code exchange failed",
			slog.String("user_id", userID),
			slog.String("error", err.Error()))
		h.renderFail(w, somethingWentWrong)
		return
	}

	ghUser, err := h.provider.FetchUser(ctx, accessToken)
	if err != nil {
		h.logger.Error("fetching provider user failed",
			slog.String("user_id", userID),
			slog.String("error", err.Error()))
		h.renderFail(w, somethingWentWrong)
		return
	}

	result, err := h.profiles.CreateProfile(ctx, service.CreateProfileParams{
		Provider:    model.ProviderGitHub,
		AccessToken: accessToken,
		Username:    ghUser.Login,
		ProviderUID: ghUser.ID,
		UserID:      userID,
	})
	if err != nil {
		h.logger.Warn("profile creation failed",
			slog.String("user_id", userID),
			slog.String("github_login", ghUser.Login),
			slog.String("error", err.Error()))
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			h.renderFailErrors(w, "Could not connect your GitHub account", appErr.ErrorList())
			return
		}
		h.renderFail(w, somethingWentWrong)
		return
	}

	// Email persistence and the login-type flag are best effort from here
	// on; the connection itself already succeeded.
	if emails, err := h.provider.FetchEmails(ctx, accessToken); err != nil {
		h.logger.Warn("fetching provider emails failed",
			slog.String("user_id", userID),
			slog.String("error", err.Error()))
	} else {
		addresses := make([]model.EmailAddress, 0, len(emails))
		for _, e := range emails {
			addresses = append(addresses, model.EmailAddress{
				Email:    e.Email,
				Primary:  e.Primary,
				Verified: e.Verified,
			})
		}
		h.profiles.SaveEmails(ctx, result.Profile.ID, addresses)
	}

	if err := h.users.EnableLoginType(ctx, userID, "github"); err != nil {
		h.logger.Warn("enabling github login type failed",
			slog.String("user_id", userID),
			slog.String("error", err.Error()))
	}

	h.logger.Info("github account connected",
		slog.String("user_id", userID),
		slog.String("github_login", ghUser.Login),
		slog.String("notification", string(result.Notification)))
	h.renderSuccess(w, "You have successfully connected your GitHub account")
}

func (h *ConnectHandler) renderSuccess(w http.ResponseWriter, message string) {
	h.renderPage(w, http.StatusOK, true, message, nil)
}

func (h *ConnectHandler) renderFail(w http.ResponseWriter, message string) {
	h.renderPage(w, http.StatusOK, false, message, nil)
}

// renderFailErrors renders the failure page with the individual error
// strings listed under the message.
func (h *ConnectHandler) renderFailErrors(w http.ResponseWriter, message string, errs []string) {
	h.renderPage(w, http.StatusOK, false, message, errs)
}

// renderPage writes the outcome page. The flow always answers 200 with
// the message in the body; the popup scrapes the page rather than the
// status code.
func (h *ConnectHandler) renderPage(w http.ResponseWriter, status int, success bool, message string, errs []string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	err := connectPage.Execute(w, struct {
		Success bool
		Message string
		Errors  []string
	}{Success: success, Message: message, Errors: errs})
	if err != nil {
		h.logger.Error("failed to render connect page", slog.String("error", err.Error()))
	}
}
