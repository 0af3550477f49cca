package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperlog/hyperlog/internal/model"
)

func TestRegisterEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/register", map[string]any{
		"username":  "octocat",
		"email":     "octocat@example.com",
		"password":  "hunter2hunter2",
		"firstName": "Mona",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var user model.User
	decodeJSON(t, rec, &user)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "octocat", user.Username)
	assert.True(t, user.NewUser)

	// the hash never leaves the server
	assert.NotContains(t, rec.Body.String(), "passwordHash")
}

func TestRegisterEndpoint_ValidationErrors(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/register", map[string]any{
		"username": "bad user",
		"email":    "nope",
		"password": "short",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ErrorResponse
	decodeJSON(t, rec, &resp)
	assert.Equal(t, "validation_error", resp.Error)
	assert.Len(t, resp.Errors, 4)
}

func TestRegisterEndpoint_DuplicateUsername(t *testing.T) {
	env := newTestEnv(t)
	env.registerAndLogin(t, "octocat")

	rec := env.do(t, http.MethodPost, "/register", map[string]any{
		"username":  "OCTOCAT", // usernames are unique case-insensitively
		"email":     "other@example.com",
		"password":  "hunter2hunter2",
		"firstName": "Other",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ErrorResponse
	decodeJSON(t, rec, &resp)
	assert.Equal(t, "username", resp.Field)
}

func TestLoginEndpoint_BadCredentials(t *testing.T) {
	env := newTestEnv(t)
	env.registerAndLogin(t, "octocat")

	rec := env.do(t, http.MethodPost, "/login", map[string]any{
		"username": "octocat",
		"password": "wrong",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	var resp ErrorResponse
	decodeJSON(t, rec, &resp)
	assert.Equal(t, "Invalid username or password", resp.Message)
}

func TestMeRequiresAuth(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/me", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMeRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	userID, cookie := env.registerAndLogin(t, "octocat")

	rec := env.do(t, http.MethodGet, "/me", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	var user model.User
	decodeJSON(t, rec, &user)
	assert.Equal(t, userID, user.ID)
}

func TestUpdateMe(t *testing.T) {
	env := newTestEnv(t)
	_, cookie := env.registerAndLogin(t, "octocat")

	rec := env.do(t, http.MethodPatch, "/me", map[string]any{
		"tagline":    "I build things",
		"showAvatar": false,
	}, cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var user model.User
	decodeJSON(t, rec, &user)
	assert.Equal(t, "I build things", user.Tagline)
	assert.False(t, user.ShowAvatar)
	assert.Equal(t, "Test", user.FirstName, "absent fields stay unchanged")
}

func TestUpdateSocialLinksEndpoint(t *testing.T) {
	env := newTestEnv(t)
	_, cookie := env.registerAndLogin(t, "octocat")

	rec := env.do(t, http.MethodPut, "/me/social_links", map[string]any{
		"socialLinks": map[string]string{"github": "octocat", "devto": "octo"},
	}, cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var user model.User
	decodeJSON(t, rec, &user)
	assert.Equal(t, "octo", user.SocialLinks["devto"])

	rec = env.do(t, http.MethodPut, "/me/social_links", map[string]any{
		"socialLinks": map[string]string{"myspace": "octocat"},
	}, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSetupStepEndpoint(t *testing.T) {
	env := newTestEnv(t)
	_, cookie := env.registerAndLogin(t, "octocat")

	rec := env.do(t, http.MethodPut, "/me/setup_step", map[string]any{"setupStep": 3}, cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	var user model.User
	decodeJSON(t, rec, &user)
	assert.Equal(t, 3, user.SetupStep)

	rec = env.do(t, http.MethodPut, "/me/setup_step", map[string]any{"setupStep": 7}, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSelectReposEndpoint_Unconfigured(t *testing.T) {
	env := newTestEnv(t)
	_, cookie := env.registerAndLogin(t, "octocat")

	rec := env.do(t, http.MethodPut, "/me/selected_repos", map[string]any{
		"repos": []string{"octocat/hello-world"},
	}, cookie)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestDeleteMe(t *testing.T) {
	env := newTestEnv(t)
	userID, cookie := env.registerAndLogin(t, "octocat")

	rec := env.do(t, http.MethodDelete, "/me", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// The live row is gone; the public read of the user now misses.
	_, err := env.users.Get(context.Background(), userID)
	assert.Error(t, err)

	// The session cookie is cleared in the response.
	cleared := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == "token" && c.MaxAge < 0 {
			cleared = true
		}
	}
	assert.True(t, cleared, "delete must clear the session cookie")
}

func TestListProfilesEndpoint_Empty(t *testing.T) {
	env := newTestEnv(t)
	_, cookie := env.registerAndLogin(t, "octocat")

	rec := env.do(t, http.MethodGet, "/me/profiles", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"profiles":[]}`, rec.Body.String())
}

func TestLogoutEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/logout", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	cleared := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == "token" && c.MaxAge < 0 {
			cleared = true
		}
	}
	assert.True(t, cleared)
}
