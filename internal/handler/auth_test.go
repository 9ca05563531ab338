package handler_test

import (
	"encoding/json"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/issue-tracker/internal/auth"
	"github.com/sakif/issue-tracker/internal/model"
)

func TestGitHubLogin_RedirectsWithState(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodGet, "/auth/github/login", "", "")
	require.Equal(t, http.StatusTemporaryRedirect, rr.Code)

	var state *http.Cookie
	for _, c := range rr.Result().Cookies() {
		if c.Name == "oauth_state" {
			state = c
		}
	}
	require.NotNil(t, state, "state cookie must be set")
	assert.True(t, state.HttpOnly)

	loc, err := url.Parse(rr.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "github.com", loc.Host)
	assert.Equal(t, state.Value, loc.Query().Get("state"))
}

func TestLogout_ClearsCookie(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodPost, "/auth/logout", "", "")
	require.Equal(t, http.StatusOK, rr.Code)

	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, auth.CookieName, cookies[0].Name)
	assert.Less(t, cookies[0].MaxAge, 0)
}

func TestMe(t *testing.T) {
	env := newTestEnv(t)
	alice := env.seedUser(t, 7, "alice")

	rr := env.do(t, http.MethodGet, "/api/me", "", "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.JSONEq(t, `{}`, rr.Body.String())

	rr = env.do(t, http.MethodGet, "/api/me", "", alice.ID)
	require.Equal(t, http.StatusOK, rr.Code)
	var me model.User
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&me))
	assert.Equal(t, "alice", me.Login)

	// A valid token for a user that no longer exists.
	rr = env.do(t, http.MethodGet, "/api/me", "", "ghost")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestUsers(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, 2, "bob")
	env.seedUser(t, 1, "alice")

	rr := env.do(t, http.MethodGet, "/api/users", "", "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = env.do(t, http.MethodGet, "/api/users", "", "anyone")
	require.Equal(t, http.StatusOK, rr.Code)
	var users []model.User
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&users))
	require.Len(t, users, 2)
	assert.Equal(t, "alice", users[0].Login)
}
