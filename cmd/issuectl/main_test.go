package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/issue-tracker/internal/client"
	"github.com/sakif/issue-tracker/internal/issueui"
)

// apiCall is one request seen by the fake API.
type apiCall struct {
	method string
	path   string
	query  string
	auth   string
	body   map[string]any
}

type fakeAPI struct {
	mu     sync.Mutex
	calls  []apiCall
	status map[string]int // "METHOD" -> status override
	bodies map[string]string
	// deleteDelay holds DELETE responses back so the spinner gets drawn.
	deleteDelay time.Duration
}

func newFakeAPI(t *testing.T) (*fakeAPI, *httptest.Server) {
	t.Helper()
	f := &fakeAPI{
		status: map[string]int{},
		bodies: map[string]string{
			http.MethodGet:    `[{"id":3,"title":"Crash on start","description":"d","status":"OPEN","assignedToUserId":null}]`,
			http.MethodPatch:  `{"id":3,"title":"Crash on start","description":"d","status":"OPEN","assignedToUserId":"u1"}`,
			http.MethodDelete: `{}`,
		},
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		call := apiCall{
			method: r.Method,
			path:   r.URL.Path,
			query:  r.URL.RawQuery,
			auth:   r.Header.Get("Authorization"),
		}
		if len(raw) > 0 {
			_ = json.Unmarshal(raw, &call.body)
		}

		f.mu.Lock()
		f.calls = append(f.calls, call)
		status, ok := f.status[r.Method]
		body := f.bodies[r.Method]
		delay := f.deleteDelay
		f.mu.Unlock()

		if r.Method == http.MethodDelete {
			time.Sleep(delay)
		}

		if !ok {
			status = http.StatusOK
		}
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/users":
			body = `[{"id":"u1","login":"alice"},{"id":"u2","login":"bob"}]`
		case r.Method == http.MethodGet && r.URL.Path == "/api/issues/3":
			body = `{"id":3,"title":"Crash on start","description":"Segfault in main","status":"OPEN","assignedToUserId":null}`
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	t.Setenv("ISSUES_SERVER", srv.URL)
	t.Setenv("ISSUES_TOKEN", "session-token")
	t.Setenv("ISSUES_TIMEOUT", "")
	return f, srv
}

func (f *fakeAPI) requests(method string) []apiCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []apiCall
	for _, c := range f.calls {
		if c.method == method {
			out = append(out, c)
		}
	}
	return out
}

type stubConfirmer struct {
	answer bool
	calls  int
}

func (s *stubConfirmer) Confirm(ctx context.Context, title, description string) (bool, error) {
	s.calls++
	return s.answer, nil
}

// lockedBuffer is written by both the logger and the spinner goroutine.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// orderedWriter records a label for every write, in call order.
type orderedWriter struct {
	label string
	log   *[]string
}

func (w orderedWriter) Write(p []byte) (int, error) {
	*w.log = append(*w.log, w.label)
	return len(p), nil
}

func run(t *testing.T, a *app, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	a.out = &out
	a.errOut = &lockedBuffer{}

	cmd := a.rootCmd()
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestList(t *testing.T) {
	api, _ := newFakeAPI(t)

	out, err := run(t, &app{}, "list", "--status", "open")
	require.NoError(t, err)

	assert.Contains(t, out, "#3")
	assert.Contains(t, out, "Crash on start")

	gets := api.requests(http.MethodGet)
	require.Len(t, gets, 1)
	assert.Equal(t, "/api/issues", gets[0].path)
	assert.Contains(t, gets[0].query, "status=OPEN")
	assert.Equal(t, "Bearer session-token", gets[0].auth)
}

func TestList_UnknownStatus(t *testing.T) {
	api, _ := newFakeAPI(t)

	_, err := run(t, &app{}, "list", "--status", "done")
	require.Error(t, err)
	assert.Empty(t, api.requests(http.MethodGet))
}

func TestShow(t *testing.T) {
	newFakeAPI(t)

	out, err := run(t, &app{}, "show", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "#3 Crash on start")
	assert.Contains(t, out, "Segfault in main")
}

func TestShow_BadID(t *testing.T) {
	api, _ := newFakeAPI(t)

	for _, id := range []string{"abc", "0", "-4"} {
		_, err := run(t, &app{}, "show", id)
		assert.Error(t, err, id)
	}
	assert.Empty(t, api.calls)
}

func TestDelete_Confirmed(t *testing.T) {
	api, _ := newFakeAPI(t)
	confirm := &stubConfirmer{answer: true}

	out, err := run(t, &app{confirmer: confirm}, "delete", "3")
	require.NoError(t, err)

	assert.Equal(t, 1, confirm.calls)
	dels := api.requests(http.MethodDelete)
	require.Len(t, dels, 1)
	assert.Equal(t, "/api/issues/3", dels[0].path)

	// After deleting, the refreshed list is shown.
	assert.Len(t, api.requests(http.MethodGet), 1)
	assert.Contains(t, out, "Crash on start")
}

func TestDelete_SpinnerClearedBeforeList(t *testing.T) {
	api, _ := newFakeAPI(t)
	api.deleteDelay = 350 * time.Millisecond

	var out bytes.Buffer
	errOut := &lockedBuffer{}
	a := &app{out: &out, errOut: errOut, confirmer: &stubConfirmer{answer: true}}
	cmd := a.rootCmd()
	cmd.SetArgs([]string{"delete", "3"})
	require.NoError(t, cmd.Execute())

	stderr := errOut.String()
	assert.Contains(t, stderr, "Delete Issue", "spinner drawn while the request was in flight")
	assert.True(t, strings.HasSuffix(stderr, "\r\033[K"), "spinner line cleared last, got %q", stderr)
	assert.Contains(t, out.String(), "Crash on start")
}

func TestListNavigator_StopsAnimationBeforePrinting(t *testing.T) {
	_, srv := newFakeAPI(t)

	var order []string
	nav := &listNavigator{
		api:            client.New(srv.URL, "", time.Second),
		out:            orderedWriter{label: "list", log: &order},
		beforeNavigate: func() { order = append(order, "stop") },
	}

	ctx := context.Background()
	require.NoError(t, nav.Navigate(ctx, issueui.ListPath))
	require.NoError(t, nav.Refresh(ctx))

	require.NotEmpty(t, order)
	assert.Equal(t, "stop", order[0])
	assert.NotContains(t, order[1:], "stop")
}

func TestDelete_Cancelled(t *testing.T) {
	api, _ := newFakeAPI(t)

	out, err := run(t, &app{confirmer: &stubConfirmer{answer: false}}, "delete", "3")
	require.NoError(t, err)

	assert.Empty(t, api.calls)
	assert.Empty(t, out)
}

func TestDelete_YesSkipsPrompt(t *testing.T) {
	api, _ := newFakeAPI(t)
	confirm := &stubConfirmer{answer: false}

	_, err := run(t, &app{confirmer: confirm}, "delete", "3", "--yes")
	require.NoError(t, err)

	assert.Zero(t, confirm.calls)
	assert.Len(t, api.requests(http.MethodDelete), 1)
}

func TestDelete_Failure(t *testing.T) {
	api, _ := newFakeAPI(t)
	api.status[http.MethodDelete] = http.StatusInternalServerError
	api.bodies[http.MethodDelete] = `{"error":"An internal error occurred"}`

	out, err := run(t, &app{confirmer: &stubConfirmer{answer: true}}, "delete", "3")
	require.Error(t, err)

	assert.Contains(t, out, "This issue could not be deleted.")
	assert.Empty(t, api.requests(http.MethodGet), "no refresh after a failed delete")
}

func TestAssign(t *testing.T) {
	api, _ := newFakeAPI(t)

	out, err := run(t, &app{}, "assign", "3", "u1")
	require.NoError(t, err)
	assert.Contains(t, out, "u1")

	patches := api.requests(http.MethodPatch)
	require.Len(t, patches, 1)
	assert.Equal(t, "/api/issues/3", patches[0].path)
	assert.Equal(t, map[string]any{"assignedToUserId": "u1"}, patches[0].body)
}

func TestAssign_None(t *testing.T) {
	api, _ := newFakeAPI(t)

	_, err := run(t, &app{}, "assign", "3", "none")
	require.NoError(t, err)

	patches := api.requests(http.MethodPatch)
	require.Len(t, patches, 1)
	v, ok := patches[0].body["assignedToUserId"]
	assert.True(t, ok, "unassign must send the key")
	assert.Nil(t, v)
}

func TestEdit(t *testing.T) {
	api, _ := newFakeAPI(t)

	_, err := run(t, &app{}, "edit", "3", "--title", "New title", "--status", "in_progress")
	require.NoError(t, err)

	patches := api.requests(http.MethodPatch)
	require.Len(t, patches, 1)
	assert.Equal(t, map[string]any{"title": "New title", "status": "IN_PROGRESS"}, patches[0].body)
}

func TestEdit_NothingToChange(t *testing.T) {
	api, _ := newFakeAPI(t)

	_, err := run(t, &app{}, "edit", "3")
	require.Error(t, err)
	assert.Empty(t, api.calls)
}

func TestEdit_ServerRejects(t *testing.T) {
	api, _ := newFakeAPI(t)
	api.status[http.MethodPatch] = http.StatusBadRequest
	api.bodies[http.MethodPatch] = `{"error":"Invalid user."}`

	_, err := run(t, &app{}, "edit", "3", "--description", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid user.")
}

func TestUsers(t *testing.T) {
	newFakeAPI(t)

	out, err := run(t, &app{}, "users")
	require.NoError(t, err)
	assert.Equal(t, "u1\talice\nu2\tbob\n", out)
}
