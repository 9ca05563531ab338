package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/huh"

	"github.com/sakif/issue-tracker/internal/client"
	"github.com/sakif/issue-tracker/internal/issueui"
)

// huhConfirmer shows the confirmation dialog in the terminal. Escaping the
// form counts as Cancel.
type huhConfirmer struct{}

func (huhConfirmer) Confirm(ctx context.Context, title, description string) (bool, error) {
	var confirmed bool

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Description(description).
				Affirmative("Delete Issue").
				Negative("Cancel").
				Value(&confirmed),
		),
	)

	if err := form.RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return false, err
	}
	return confirmed, nil
}

// autoConfirmer answers yes, for --yes.
type autoConfirmer struct{}

func (autoConfirmer) Confirm(context.Context, string, string) (bool, error) {
	return true, nil
}

// listNavigator stands in for page navigation: the only destination is the
// issue list, and refreshing re-fetches and prints it. beforeNavigate, when
// set, runs first so the spinner line is gone before the list is printed.
type listNavigator struct {
	api            *client.Client
	out            io.Writer
	beforeNavigate func()
	path           string
}

func (n *listNavigator) Navigate(ctx context.Context, path string) error {
	if n.beforeNavigate != nil {
		n.beforeNavigate()
	}
	if path != issueui.ListPath {
		return fmt.Errorf("no terminal view for %s", path)
	}
	n.path = path
	return nil
}

func (n *listNavigator) Refresh(ctx context.Context) error {
	if n.path == "" {
		return nil
	}
	issues, err := n.api.ListIssues(ctx, "")
	if err != nil {
		return err
	}
	fmt.Fprintln(n.out, issueui.RenderIssueList(issues))
	return nil
}

// animate redraws the control on one line while it is busy, until stop is
// closed.
func animate(out io.Writer, control *issueui.DeleteControl, stop <-chan struct{}) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	drawn := false
	for {
		select {
		case <-stop:
			if drawn {
				fmt.Fprint(out, "\r\033[K")
			}
			return
		case <-ticker.C:
			if !control.Disabled() {
				continue
			}
			control.Tick()
			fmt.Fprint(out, "\r"+control.View())
			drawn = true
		}
	}
}
