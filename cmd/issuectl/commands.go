package main

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/sakif/issue-tracker/internal/issueui"
	"github.com/sakif/issue-tracker/internal/model"
)

func newListCmd(a *app) *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List issues, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st := model.IssueStatus(strings.ToUpper(status))
			if st != "" && !st.Valid() {
				return fmt.Errorf("unknown status %q (want OPEN, IN_PROGRESS or CLOSED)", status)
			}

			issues, err := a.api.ListIssues(cmd.Context(), st)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, issueui.RenderIssueList(issues))
			return nil
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "only show issues with this status")
	return cmd
}

func newShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one issue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIssueID(args[0])
			if err != nil {
				return err
			}
			issue, err := a.api.GetIssue(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, issueui.RenderIssue(issue))
			return nil
		},
	}
}

func newDeleteCmd(a *app) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an issue after confirmation",
		Long: `Delete an issue. A confirmation dialog is shown first unless --yes is given.
On success the issue list is shown; on failure an error dialog is printed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIssueID(args[0])
			if err != nil {
				return err
			}

			confirmer := a.confirmer
			switch {
			case yes:
				confirmer = autoConfirmer{}
			case confirmer == nil:
				confirmer = huhConfirmer{}
			}

			stop := make(chan struct{})
			animDone := make(chan struct{})
			stopAnimation := sync.OnceFunc(func() {
				close(stop)
				<-animDone
			})

			nav := &listNavigator{api: a.api, out: a.out, beforeNavigate: stopAnimation}
			control := issueui.NewDeleteControl(id, confirmer, a.api, nav, a.logger)

			go func() {
				animate(a.errOut, control, stop)
				close(animDone)
			}()

			err = control.Click(cmd.Context())
			stopAnimation()

			if errors.Is(err, issueui.ErrDeleteFailed) {
				fmt.Fprintln(a.out, control.View())
				control.Dismiss()
			}
			return err
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation dialog")
	return cmd
}

func newAssignCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "assign <id> <userId|none>",
		Short: "Assign an issue to a user, or unassign it with 'none'",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIssueID(args[0])
			if err != nil {
				return err
			}

			var patch model.IssuePatch
			if args[1] == "none" {
				patch.ClearAssignee = true
			} else {
				userID := args[1]
				patch.AssignedToUserID = &userID
			}

			issue, err := a.api.UpdateIssue(cmd.Context(), id, patch)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, issueui.RenderIssue(issue))
			return nil
		},
	}
}

func newEditCmd(a *app) *cobra.Command {
	var title, description, status string

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change an issue's title, description or status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIssueID(args[0])
			if err != nil {
				return err
			}

			var patch model.IssuePatch
			if cmd.Flags().Changed("title") {
				patch.Title = &title
			}
			if cmd.Flags().Changed("description") {
				patch.Description = &description
			}
			if cmd.Flags().Changed("status") {
				s := strings.ToUpper(status)
				patch.Status = &s
			}
			if patch.Empty() {
				return errors.New("nothing to change: pass --title, --description or --status")
			}

			issue, err := a.api.UpdateIssue(cmd.Context(), id, patch)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, issueui.RenderIssue(issue))
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&description, "description", "", "new description")
	cmd.Flags().StringVar(&status, "status", "", "new status (OPEN, IN_PROGRESS, CLOSED)")
	return cmd
}

func newUsersCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List users that issues can be assigned to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			users, err := a.api.ListUsers(cmd.Context())
			if err != nil {
				return err
			}
			for _, u := range users {
				fmt.Fprintf(a.out, "%s\t%s\n", u.ID, u.Login)
			}
			return nil
		},
	}
}
