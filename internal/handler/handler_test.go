package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/hyperlog/hyperlog/internal/auth"
	sqliteRepo "github.com/hyperlog/hyperlog/internal/repository/sqlite"
	"github.com/hyperlog/hyperlog/internal/service"
)

// testEnv stands up the real stack (in-memory database, real services)
// behind a chi router, with the analysis pieces left unconfigured unless
// a test provides them.
type testEnv struct {
	router   *chi.Mux
	db       *sqliteRepo.DB
	tokens   *auth.TokenService
	users    *service.UserService
	profiles *service.ProfileService
	logger   *slog.Logger
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := sqliteRepo.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	tokens, err := auth.NewTokenService("test-secret-at-least-16ch")
	require.NoError(t, err)
	passwords := auth.NewPasswordServiceForTest(bcrypt.MinCost)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	users := service.NewUserService(db, db.DeletedUsers(), tokens, passwords, nil, logger)
	profiles := service.NewProfileService(db.Profiles(), db.EmailAddresses(), nil, nil, logger)

	router := chi.NewRouter()
	accountHandler := NewAccountHandler(users, logger)
	profileHandler := NewProfileHandler(profiles)

	router.Post("/register", accountHandler.Register)
	router.Post("/login", accountHandler.Login)
	router.Post("/logout", accountHandler.Logout)
	router.Route("/me", func(r chi.Router) {
		r.Use(auth.RequireAuth(tokens))
		r.Get("/", accountHandler.Me)
		r.Patch("/", accountHandler.Update)
		r.Delete("/", accountHandler.Delete)
		r.Put("/social_links", accountHandler.UpdateSocialLinks)
		r.Put("/setup_step", accountHandler.SetSetupStep)
		r.Put("/selected_repos", accountHandler.SelectRepos)
		r.Get("/profiles", profileHandler.List)
	})

	return &testEnv{
		router:   router,
		db:       db,
		tokens:   tokens,
		users:    users,
		profiles: profiles,
		logger:   logger,
	}
}

// do sends a JSON request through the router and returns the recorder.
func (e *testEnv) do(t *testing.T, method, target string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

// registerAndLogin creates a user through the API and returns the user id
// and a session cookie for authenticated requests.
func (e *testEnv) registerAndLogin(t *testing.T, username string) (string, *http.Cookie) {
	t.Helper()

	rec := e.do(t, http.MethodPost, "/register", map[string]any{
		"username":  username,
		"email":     username + "@example.com",
		"password":  "hunter2hunter2",
		"firstName": "Test",
		"lastName":  "User",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var user struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))

	rec = e.do(t, http.MethodPost, "/login", map[string]any{
		"username": username,
		"password": "hunter2hunter2",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.SessionCookie {
			return user.ID, c
		}
	}
	t.Fatal("login did not set a session cookie")
	return "", nil
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst), rec.Body.String())
}
