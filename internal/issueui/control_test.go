package issueui

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConfirmer struct {
	answer bool
	err    error
	calls  int
}

func (f *fakeConfirmer) Confirm(ctx context.Context, title, description string) (bool, error) {
	f.calls++
	return f.answer, f.err
}

// fakeDeleter optionally blocks until release is closed so tests can look
// at the control mid-flight.
type fakeDeleter struct {
	mu      sync.Mutex
	err     error
	calls   []int64
	started chan struct{}
	release chan struct{}
}

func (f *fakeDeleter) DeleteIssue(ctx context.Context, id int64) error {
	f.mu.Lock()
	f.calls = append(f.calls, id)
	f.mu.Unlock()

	if f.started != nil {
		close(f.started)
	}
	if f.release != nil {
		<-f.release
	}
	return f.err
}

type fakeNavigator struct {
	paths     []string
	refreshes int
}

func (f *fakeNavigator) Navigate(ctx context.Context, path string) error {
	f.paths = append(f.paths, path)
	return nil
}

func (f *fakeNavigator) Refresh(ctx context.Context) error {
	f.refreshes++
	return nil
}

func newTestControl(confirm *fakeConfirmer, del *fakeDeleter, nav *fakeNavigator) *DeleteControl {
	return NewDeleteControl(42, confirm, del, nav, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestClick_Success(t *testing.T) {
	confirm := &fakeConfirmer{answer: true}
	del := &fakeDeleter{}
	nav := &fakeNavigator{}
	c := newTestControl(confirm, del, nav)

	require.NoError(t, c.Click(context.Background()))

	assert.Equal(t, []int64{42}, del.calls)
	assert.Equal(t, []string{"/issues/list"}, nav.paths)
	assert.Equal(t, 1, nav.refreshes)
	// Never reset after success; the view is replaced by navigation.
	assert.Equal(t, Deleting, c.State())
	assert.True(t, c.Disabled())
}

func TestClick_Failure(t *testing.T) {
	cause := errors.New("500 Internal Server Error")
	del := &fakeDeleter{err: cause}
	nav := &fakeNavigator{}
	c := newTestControl(&fakeConfirmer{answer: true}, del, nav)

	err := c.Click(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDeleteFailed)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, ErrorShown, c.State())
	assert.False(t, c.Disabled(), "busy indicator clears on failure")
	assert.Empty(t, nav.paths, "no navigation on failure")
	assert.Contains(t, c.View(), "This issue could not be deleted.")
	assert.Contains(t, c.View(), "OK")

	c.Dismiss()
	assert.Equal(t, Idle, c.State())
	assert.NotContains(t, c.View(), "could not be deleted")

	// No automatic retry; the user may click again.
	del.err = nil
	require.NoError(t, c.Click(context.Background()))
	assert.Len(t, del.calls, 2)
}

func TestClick_Cancelled(t *testing.T) {
	confirm := &fakeConfirmer{answer: false}
	del := &fakeDeleter{}
	c := newTestControl(confirm, del, &fakeNavigator{})

	require.NoError(t, c.Click(context.Background()))

	assert.Equal(t, 1, confirm.calls)
	assert.Empty(t, del.calls)
	assert.Equal(t, Idle, c.State())
}

func TestClick_ConfirmError(t *testing.T) {
	aborted := errors.New("user aborted")
	del := &fakeDeleter{}
	c := newTestControl(&fakeConfirmer{err: aborted}, del, &fakeNavigator{})

	err := c.Click(context.Background())

	assert.ErrorIs(t, err, aborted)
	assert.Empty(t, del.calls)
	assert.Equal(t, Idle, c.State())
}

func TestClick_BusyWhileDeleting(t *testing.T) {
	del := &fakeDeleter{started: make(chan struct{}), release: make(chan struct{})}
	confirm := &fakeConfirmer{answer: true}
	c := newTestControl(confirm, del, &fakeNavigator{})

	done := make(chan error, 1)
	go func() { done <- c.Click(context.Background()) }()
	<-del.started

	assert.Equal(t, Deleting, c.State())
	assert.True(t, c.Disabled())
	assert.ErrorIs(t, c.Click(context.Background()), ErrBusy)
	assert.Equal(t, 1, confirm.calls, "a busy control must not even ask")

	close(del.release)
	require.NoError(t, <-done)
	assert.Len(t, del.calls, 1)
}

func TestClick_BusyWhileErrorShown(t *testing.T) {
	del := &fakeDeleter{err: errors.New("boom")}
	c := newTestControl(&fakeConfirmer{answer: true}, del, &fakeNavigator{})

	require.Error(t, c.Click(context.Background()))
	assert.ErrorIs(t, c.Click(context.Background()), ErrBusy)
	assert.Len(t, del.calls, 1)
}

func TestDismiss_OnlyFromErrorShown(t *testing.T) {
	c := newTestControl(&fakeConfirmer{answer: true}, &fakeDeleter{}, &fakeNavigator{})

	c.Dismiss()
	assert.Equal(t, Idle, c.State())

	require.NoError(t, c.Click(context.Background()))
	c.Dismiss()
	assert.Equal(t, Deleting, c.State())
}

func TestView_Spinner(t *testing.T) {
	del := &fakeDeleter{started: make(chan struct{}), release: make(chan struct{})}
	c := newTestControl(&fakeConfirmer{answer: true}, del, &fakeNavigator{})

	idle := c.View()
	assert.Contains(t, idle, "Delete Issue")

	done := make(chan error, 1)
	go func() { done <- c.Click(context.Background()) }()
	<-del.started

	first := c.View()
	c.Tick()
	second := c.View()

	assert.Contains(t, first, "Delete Issue")
	assert.True(t, strings.Contains(first, spinner.MiniDot.Frames[0]))
	assert.NotEqual(t, first, second, "spinner advances on Tick")

	close(del.release)
	require.NoError(t, <-done)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "deleting", Deleting.String())
	assert.Equal(t, "error", ErrorShown.String())
	assert.Equal(t, "State(9)", State(9).String())
}
