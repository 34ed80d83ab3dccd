// Package learnworlds talks to the LearnWorlds school API: resource-owner
// password logins for end users and client-credentials tokens for
// server-to-server profile lookups.
package learnworlds

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"lexstream/internal/config"
)

// expiryMargin is how long before the stored expiry a cached API token is
// treated as stale.
const expiryMargin = 5 * time.Minute

// credential is one issued token together with its absolute expiry.
type credential struct {
	token     string
	expiresAt time.Time
}

func (c credential) valid(now time.Time) bool {
	return c.token != "" && now.Before(c.expiresAt.Add(-expiryMargin))
}

type Client struct {
	schoolURL    string
	clientID     string
	clientSecret string
	client       *http.Client

	mu       sync.Mutex
	apiToken credential

	now func() time.Time
}

func NewClient(cfg config.LearnWorldsConfig) *Client {
	return &Client{
		schoolURL:    strings.TrimRight(cfg.SchoolURL, "/"),
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		client:       &http.Client{Timeout: 15 * time.Second},
		now:          time.Now,
	}
}

// Profile is the school's user record.
type Profile struct {
	ID        string   `json:"id"`
	Email     string   `json:"email"`
	Username  string   `json:"username"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	AvatarURL string   `json:"avatar_url"`
	Tags      []string `json:"tags"`
}

// DisplayName joins first and last name, falling back to username then email.
func (p *Profile) DisplayName() string {
	name := strings.TrimSpace(strings.TrimSpace(p.FirstName) + " " + strings.TrimSpace(p.LastName))
	if name != "" {
		return name
	}
	if p.Username != "" {
		return p.Username
	}
	return p.Email
}

type tokenResponse struct {
	Success   bool `json:"success"`
	TokenData struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    int    `json:"expires_in"`
	} `json:"tokenData"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

func (r *tokenResponse) errorMessage() string {
	if len(r.Errors) > 0 && r.Errors[0].Message != "" {
		return r.Errors[0].Message
	}
	return "token request failed"
}

// requestToken posts an OAuth2 grant. The school expects the JSON grant
// payload wrapped in a form field named data.
func (c *Client) requestToken(ctx context.Context, grant map[string]string) (*tokenResponse, error) {
	payload := map[string]string{
		"client_id":     c.clientID,
		"client_secret": c.clientSecret,
	}
	for k, v := range grant {
		payload[k] = v
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	form := url.Values{"data": {string(raw)}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.schoolURL+"/admin/api/oauth2/access_token", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Lw-Client", c.clientID)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var token tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return nil, fmt.Errorf("decode token response: %w", err)
	}
	return &token, nil
}

// APIToken returns a client-credentials token for server-to-server calls,
// reusing the cached one until it is within five minutes of expiry.
func (c *Client) APIToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.apiToken.valid(c.now()) {
		return c.apiToken.token, nil
	}

	token, err := c.requestToken(ctx, map[string]string{"grant_type": "client_credentials"})
	if err != nil {
		return "", fmt.Errorf("request api token: %w", err)
	}
	if !token.Success || token.TokenData.AccessToken == "" {
		return "", fmt.Errorf("api token: %s", token.errorMessage())
	}

	expiresIn := token.TokenData.ExpiresIn
	if expiresIn == 0 {
		expiresIn = 3600
	}
	c.apiToken = credential{
		token:     token.TokenData.AccessToken,
		expiresAt: c.now().Add(time.Duration(expiresIn) * time.Second),
	}
	return c.apiToken.token, nil
}

// ErrInvalidCredentials is returned when the password grant is rejected.
type ErrInvalidCredentials struct{ Message string }

func (e *ErrInvalidCredentials) Error() string { return e.Message }

// Login authenticates a user with the password grant and returns their
// profile. The email is normalized before use.
func (c *Client) Login(ctx context.Context, email, password string) (*Profile, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	token, err := c.requestToken(ctx, map[string]string{
		"grant_type": "password",
		"email":      email,
		"password":   password,
	})
	if err != nil {
		return nil, fmt.Errorf("password grant: %w", err)
	}
	if !token.Success || token.TokenData.AccessToken == "" {
		return nil, &ErrInvalidCredentials{Message: token.errorMessage()}
	}

	return c.UserByEmail(ctx, email)
}

// UserByEmail fetches a profile through the admin API.
func (c *Client) UserByEmail(ctx context.Context, email string) (*Profile, error) {
	apiToken, err := c.APIToken(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.schoolURL+"/admin/api/v2/users/"+url.PathEscape(email), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+apiToken)
	req.Header.Set("Lw-Client", c.clientID)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return nil, fmt.Errorf("fetch profile: status %d: %s", resp.StatusCode, body)
	}

	var p Profile
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	if p.Email == "" {
		p.Email = email
	}
	return &p, nil
}
