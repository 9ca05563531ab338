package issueui

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sakif/issue-tracker/internal/model"
)

func TestRenderIssueList(t *testing.T) {
	assert.Contains(t, RenderIssueList(nil), "No issues.")

	alice := "alice"
	out := RenderIssueList([]model.Issue{
		{ID: 2, Title: "Crash on start", Status: model.StatusOpen, AssignedToUserID: &alice},
		{ID: 1, Title: "Typo", Status: model.StatusClosed},
	})

	assert.Contains(t, out, "#2")
	assert.Contains(t, out, "Crash on start")
	assert.Contains(t, out, "(alice)")
	assert.Contains(t, out, "(unassigned)")
	assert.Contains(t, out, "CLOSED")
}

func TestRenderIssue(t *testing.T) {
	out := RenderIssue(&model.Issue{
		ID:          5,
		Title:       "Slow list",
		Description: "Takes 3s to load",
		Status:      model.StatusInProgress,
		CreatedAt:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	})

	assert.Contains(t, out, "#5 Slow list")
	assert.Contains(t, out, "IN_PROGRESS")
	assert.Contains(t, out, "2024-03-01")
	assert.Contains(t, out, "Takes 3s to load")
}
