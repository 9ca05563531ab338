package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

// fakeGitHub serves the token endpoint and /user for the OAuth flow.
func fakeGitHub(t *testing.T, userJSON string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/login/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "the-code", r.Form.Get("code"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"gh-token","token_type":"bearer"}`))
	})
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer gh-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(userJSON))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testProvider(srv *httptest.Server) *GitHubProvider {
	return NewGitHubProvider("client", "secret", "http://localhost/cb").WithEndpoints(oauth2.Endpoint{
		AuthURL:  srv.URL + "/login/oauth/authorize",
		TokenURL: srv.URL + "/login/oauth/access_token",
	}, srv.URL)
}

func TestAuthURL_CarriesState(t *testing.T) {
	p := NewGitHubProvider("client", "secret", "http://localhost/cb")

	u, err := url.Parse(p.AuthURL("state-123"))
	require.NoError(t, err)
	assert.Equal(t, "state-123", u.Query().Get("state"))
	assert.Equal(t, "client", u.Query().Get("client_id"))
}

func TestExchange(t *testing.T) {
	srv := fakeGitHub(t, `{"id":321,"login":"octocat","email":"octo@example.com","avatar_url":"https://a/1.png"}`)

	user, err := testProvider(srv).Exchange(context.Background(), "the-code")
	require.NoError(t, err)
	assert.Equal(t, int64(321), user.ID)
	assert.Equal(t, "octocat", user.Login)
	assert.Equal(t, "https://a/1.png", user.AvatarURL)
}

func TestExchange_RejectsZeroID(t *testing.T) {
	srv := fakeGitHub(t, `{"id":0,"login":"ghost"}`)

	_, err := testProvider(srv).Exchange(context.Background(), "the-code")
	assert.Error(t, err)
}
