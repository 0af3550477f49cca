package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

// OAuth scope sets for the GitHub connect flow. The caller picks one via
// the repos_scope query parameter: "full" grants access to private
// repositories, anything else stays public-only.
var (
	ScopesPublicRepo = []string{"public_repo", "read:org", "user:email"}
	ScopesFullRepo   = []string{"repo", "read:org", "user:email"}
)

// ScopesForReposScope maps the repos_scope parameter to a scope set.
// Defaults to the public set unless the value is exactly "full".
func ScopesForReposScope(reposScope string) []string {
	if reposScope == "full" {
		return ScopesFullRepo
	}
	return ScopesPublicRepo
}

// GitHubUser is the portion of the GitHub /user API response we care
// about. GitHub returns a much larger object; only these fields are
// unmarshalled.
type GitHubUser struct {
	ID    int64  `json:"id"`    // GitHub numeric user ID, stable across renames
	Login string `json:"login"` // GitHub username
	Email string `json:"email"` // Primary email (empty if hidden in settings)
}

// GitHubEmail is one entry of the GitHub /user/emails response.
type GitHubEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

// GitHubProvider wraps golang.org/x/oauth2 for the GitHub Authorization
// Code flow: authorize-URL generation, server-to-server code exchange, and
// the follow-up /user and /user/emails API calls.
type GitHubProvider struct {
	config     *oauth2.Config
	apiBaseURL string // overridable for tests
}

// NewGitHubProvider creates a GitHubProvider with the given OAuth app
// credentials. callbackURL must match the app's configured authorization
// callback URL exactly.
func NewGitHubProvider(clientID, clientSecret, callbackURL string) *GitHubProvider {
	return &GitHubProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Endpoint:     github.Endpoint,
		},
		apiBaseURL: "https://api.github.com",
	}
}

// NewGitHubProviderForTest returns a provider whose token endpoint and API
// base point at a test server instead of github.com.
func NewGitHubProviderForTest(clientID, clientSecret, callbackURL, authURL, tokenURL, apiBaseURL string) *GitHubProvider {
	return &GitHubProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Endpoint:     oauth2.Endpoint{AuthURL: authURL, TokenURL: tokenURL},
		},
		apiBaseURL: apiBaseURL,
	}
}

// AuthURL returns the provider authorization URL to redirect the user
// agent to. The state value is the anti-forgery token remembered in the
// caller's session; scopes is one of the sets above.
func (p *GitHubProvider) AuthURL(state string, scopes []string) string {
	cfg := *p.config
	cfg.Scopes = scopes
	return cfg.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange trades the authorization code for an access token via the
// provider's token endpoint. This is the server-to-server half of the
// flow; the ClientSecret never touches the browser.
func (p *GitHubProvider) Exchange(ctx context.Context, code string) (string, error) {
	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("auth: exchanging OAuth code: %w", err)
	}
	if token.AccessToken == "" {
		return "", fmt.Errorf("auth: token endpoint returned an empty access token")
	}
	return token.AccessToken, nil
}

// FetchUser calls the GitHub /user endpoint with the given access token
// and returns the login, numeric id and primary public email.
func (p *GitHubProvider) FetchUser(ctx context.Context, accessToken string) (*GitHubUser, error) {
	var ghUser GitHubUser
	if err := p.getJSON(ctx, accessToken, "/user", &ghUser); err != nil {
		return nil, err
	}
	if ghUser.ID == 0 {
		return nil, fmt.Errorf("auth: GitHub returned an invalid user (ID = 0)")
	}
	return &ghUser, nil
}

// FetchEmails calls the GitHub /user/emails endpoint and returns every
// address the user has registered, with primary/verified flags.
func (p *GitHubProvider) FetchEmails(ctx context.Context, accessToken string) ([]GitHubEmail, error) {
	var emails []GitHubEmail
	if err := p.getJSON(ctx, accessToken, "/user/emails", &emails); err != nil {
		return nil, err
	}
	return emails, nil
}

// getJSON performs an authenticated GET against the GitHub REST API and
// decodes the JSON response into out.
func (p *GitHubProvider) getJSON(ctx context.Context, accessToken, route string, out any) error {
	// oauth2.NewClient returns an *http.Client that adds the
	// "Authorization: Bearer <token>" header to every request.
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken}))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.apiBaseURL+route, nil)
	if err != nil {
		return fmt.Errorf("auth: building GitHub %s request: %w", route, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("auth: calling GitHub %s API: %w", route, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("auth: GitHub %s API returned status %d", route, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("auth: decoding GitHub %s response: %w", route, err)
	}
	return nil
}
