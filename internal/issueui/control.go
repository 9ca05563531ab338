// Package issueui holds the terminal rendition of the issue page controls.
//
// DeleteControl is the "Delete Issue" button: it asks for confirmation,
// sends the delete, then either navigates to the issue list or shows an
// error dialog until dismissed.
//
//	Idle ──confirm──▶ Deleting ──ok──▶ (navigated away, stays Deleting)
//	  ▲                  │
//	  │                fail
//	  │                  ▼
//	  └────Dismiss──── ErrorShown
package issueui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/charmbracelet/bubbles/spinner"
)

// State is where the control is in its lifecycle.
type State int

const (
	Idle State = iota
	Deleting
	ErrorShown
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Deleting:
		return "deleting"
	case ErrorShown:
		return "error"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// ListPath is where a successful delete navigates to.
const ListPath = "/issues/list"

// Texts shown by the confirmation and error dialogs.
const (
	ConfirmTitle       = "Confirm Deletion"
	ConfirmDescription = "Are you sure you want to delete this issue? This action cannot be undone."
	ErrorTitle         = "Error"
	ErrorDescription   = "This issue could not be deleted."
)

var (
	// ErrBusy is returned by Click unless the control is Idle.
	ErrBusy = errors.New("issueui: delete control is busy")
	// ErrDeleteFailed wraps any failure of the delete request.
	ErrDeleteFailed = errors.New("issueui: issue could not be deleted")
)

// Confirmer shows the confirmation dialog and reports the user's choice.
type Confirmer interface {
	Confirm(ctx context.Context, title, description string) (bool, error)
}

// Deleter sends the delete request. Any error, including a non-2xx
// response, counts as failure.
type Deleter interface {
	DeleteIssue(ctx context.Context, id int64) error
}

// Navigator moves the user to another view and refreshes it.
type Navigator interface {
	Navigate(ctx context.Context, path string) error
	Refresh(ctx context.Context) error
}

// DeleteControl is safe for concurrent use; a second Click while one is in
// flight is rejected rather than queued.
type DeleteControl struct {
	issueID int64
	confirm Confirmer
	deleter Deleter
	nav     Navigator
	logger  *slog.Logger

	mu      sync.Mutex
	state   State
	spinner spinner.Model
}

func NewDeleteControl(issueID int64, confirm Confirmer, deleter Deleter, nav Navigator, logger *slog.Logger) *DeleteControl {
	return &DeleteControl{
		issueID: issueID,
		confirm: confirm,
		deleter: deleter,
		nav:     nav,
		logger:  logger,
		spinner: newSpinner(),
	}
}

func newSpinner() spinner.Model {
	return spinner.New(spinner.WithSpinner(spinner.MiniDot))
}

// Click runs the whole interaction: confirm, delete, then navigate or show
// the error dialog. Declining the confirmation leaves the control Idle and
// returns nil.
func (c *DeleteControl) Click(ctx context.Context) error {
	if c.State() != Idle {
		return ErrBusy
	}

	ok, err := c.confirm.Confirm(ctx, ConfirmTitle, ConfirmDescription)
	if err != nil {
		return fmt.Errorf("issueui: confirmation: %w", err)
	}
	if !ok {
		return nil
	}

	// The dialog may have been open a while; re-check before committing.
	c.mu.Lock()
	if c.state != Idle {
		c.mu.Unlock()
		return ErrBusy
	}
	c.state = Deleting
	c.spinner = newSpinner()
	c.mu.Unlock()

	if err := c.deleter.DeleteIssue(ctx, c.issueID); err != nil {
		c.mu.Lock()
		c.state = ErrorShown
		c.mu.Unlock()

		c.logger.Warn("issue delete failed",
			slog.Int64("id", c.issueID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("%w: %w", ErrDeleteFailed, err)
	}

	c.logger.Info("issue deleted", slog.Int64("id", c.issueID))

	// The control is discarded by the navigation, so it is never reset.
	if err := c.nav.Navigate(ctx, ListPath); err != nil {
		return fmt.Errorf("issueui: navigating to %s: %w", ListPath, err)
	}
	if err := c.nav.Refresh(ctx); err != nil {
		return fmt.Errorf("issueui: refreshing: %w", err)
	}
	return nil
}

// Dismiss closes the error dialog. It does nothing in any other state.
func (c *DeleteControl) Dismiss() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == ErrorShown {
		c.state = Idle
	}
}

func (c *DeleteControl) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Disabled reports whether the trigger is greyed out.
func (c *DeleteControl) Disabled() bool {
	return c.State() == Deleting
}

// Tick advances the busy indicator by one frame.
func (c *DeleteControl) Tick() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Deleting {
		c.spinner, _ = c.spinner.Update(c.spinner.Tick())
	}
}
