package issueui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/sakif/issue-tracker/internal/model"
)

var (
	buttonStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#E5484D")).
			Padding(0, 2)

	disabledButtonStyle = buttonStyle.
				Background(lipgloss.Color("#8B8D98")).
				Faint(true)

	dialogStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#E5484D")).
			Padding(1, 2)

	dialogTitleStyle = lipgloss.NewStyle().Bold(true)

	okButtonStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#1C2024")).
			Background(lipgloss.Color("#E0E1E6")).
			Padding(0, 2)

	faint = lipgloss.NewStyle().Faint(true)
)

// View renders the button, plus the error dialog when one is showing.
func (c *DeleteControl) View() string {
	c.mu.Lock()
	state, busy := c.state, c.spinner.View()
	c.mu.Unlock()

	label := "Delete Issue"
	var button string
	if state == Deleting {
		button = disabledButtonStyle.Render(label + " " + busy)
	} else {
		button = buttonStyle.Render(label)
	}

	if state != ErrorShown {
		return button
	}

	dialog := dialogStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		dialogTitleStyle.Render(ErrorTitle),
		ErrorDescription,
		"",
		okButtonStyle.Render("OK"),
	))
	return lipgloss.JoinVertical(lipgloss.Left, button, "", dialog)
}

var statusColors = map[model.IssueStatus]lipgloss.Color{
	model.StatusOpen:       lipgloss.Color("#E5484D"),
	model.StatusInProgress: lipgloss.Color("#8E4EC6"),
	model.StatusClosed:     lipgloss.Color("#30A46C"),
}

// StatusBadge renders an issue status in its colour.
func StatusBadge(s model.IssueStatus) string {
	return lipgloss.NewStyle().Foreground(statusColors[s]).Render(string(s))
}

// RenderIssueList renders the list view shown after navigation.
func RenderIssueList(issues []model.Issue) string {
	if len(issues) == 0 {
		return faint.Render("No issues.")
	}

	var b strings.Builder
	for _, issue := range issues {
		assignee := "unassigned"
		if issue.AssignedToUserID != nil {
			assignee = *issue.AssignedToUserID
		}
		fmt.Fprintf(&b, "#%-5d %-13s %s %s\n",
			issue.ID,
			StatusBadge(issue.Status),
			issue.Title,
			faint.Render("("+assignee+")"),
		)
	}
	return strings.TrimRight(b.String(), "\n")
}

// RenderIssue renders a single issue.
func RenderIssue(issue *model.Issue) string {
	assignee := "unassigned"
	if issue.AssignedToUserID != nil {
		assignee = *issue.AssignedToUserID
	}
	header := dialogTitleStyle.Render(fmt.Sprintf("#%d %s", issue.ID, issue.Title))
	meta := faint.Render(fmt.Sprintf("%s · assigned to %s · created %s",
		issue.Status, assignee, issue.CreatedAt.Format("2006-01-02")))
	return lipgloss.JoinVertical(lipgloss.Left, header, meta, "", issue.Description)
}
