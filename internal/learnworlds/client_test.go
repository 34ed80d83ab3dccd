package learnworlds

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"lexstream/internal/config"
)

func grantFromRequest(t *testing.T, r *http.Request) map[string]string {
	t.Helper()
	require.NoError(t, r.ParseForm())
	var grant map[string]string
	require.NoError(t, json.Unmarshal([]byte(r.FormValue("data")), &grant))
	return grant
}

func newTestClient(serverURL string) *Client {
	return NewClient(config.LearnWorldsConfig{
		SchoolURL:    serverURL,
		ClientID:     "client-id",
		ClientSecret: "client-secret",
	})
}

func TestClient_APIToken_CachedUntilNearExpiry(t *testing.T) {
	var tokenCalls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/admin/api/oauth2/access_token", r.URL.Path)
		require.Equal(t, "client-id", r.Header.Get("Lw-Client"))
		require.Equal(t, "client_credentials", grantFromRequest(t, r)["grant_type"])

		tokenCalls++
		fmt.Fprintf(w, `{"success":true,"tokenData":{"access_token":"tok-%d","expires_in":3600}}`, tokenCalls)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	client.now = func() time.Time { return now }

	tok, err := client.APIToken(context.Background())
	require.NoError(t, err)
	require.Equal(t, "tok-1", tok)

	// 50 minutes in: still more than 5 minutes from expiry, reuse.
	now = now.Add(50 * time.Minute)
	tok, err = client.APIToken(context.Background())
	require.NoError(t, err)
	require.Equal(t, "tok-1", tok)
	require.Equal(t, 1, tokenCalls)

	// 56 minutes in: inside the margin, refresh.
	now = now.Add(6 * time.Minute)
	tok, err = client.APIToken(context.Background())
	require.NoError(t, err)
	require.Equal(t, "tok-2", tok)
	require.Equal(t, 2, tokenCalls)
}

func TestClient_Login(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/admin/api/oauth2/access_token":
			grant := grantFromRequest(t, r)
			if grant["grant_type"] == "password" {
				require.Equal(t, "user@example.com", grant["email"])
				require.Equal(t, "secret", grant["password"])
			}
			fmt.Fprint(w, `{"success":true,"tokenData":{"access_token":"tok","expires_in":3600}}`)
		case "/admin/api/v2/users/user@example.com":
			require.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
			fmt.Fprint(w, `{"id":"lw-1","email":"user@example.com","username":"jdoe",
				"first_name":"Jane","last_name":"Doe","tags":["GDPR","Competition Law"]}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	profile, err := client.Login(context.Background(), "  User@Example.com ", "secret")
	require.NoError(t, err)
	require.Equal(t, "lw-1", profile.ID)
	require.Equal(t, "Jane Doe", profile.DisplayName())
	require.Equal(t, []string{"GDPR", "Competition Law"}, profile.Tags)
}

func TestClient_Login_InvalidCredentials(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"success":false,"errors":[{"message":"Invalid email or password"}]}`)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Login(context.Background(), "user@example.com", "wrong")

	var invalid *ErrInvalidCredentials
	require.ErrorAs(t, err, &invalid)
	require.Equal(t, "Invalid email or password", invalid.Message)
}

func TestProfile_DisplayNameFallbacks(t *testing.T) {
	cases := []struct {
		profile Profile
		want    string
	}{
		{Profile{FirstName: "Jane", LastName: "Doe"}, "Jane Doe"},
		{Profile{FirstName: "Jane"}, "Jane"},
		{Profile{Username: "jdoe", Email: "user@example.com"}, "jdoe"},
		{Profile{Email: "user@example.com"}, "user@example.com"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, tc.profile.DisplayName())
	}
}
