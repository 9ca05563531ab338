// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data. They are similar to classes in other languages,
// but without inheritance. Go favours composition over inheritance.
package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"reflect"
	"time"
)

// IssueStatus is the lifecycle state of an issue.
type IssueStatus string

const (
	StatusOpen       IssueStatus = "OPEN"
	StatusInProgress IssueStatus = "IN_PROGRESS"
	StatusClosed     IssueStatus = "CLOSED"
)

// Valid reports whether s is one of the known statuses.
func (s IssueStatus) Valid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusClosed:
		return true
	}
	return false
}

// Issue is the primary tracked entity.
//
// AssignedToUserID is a pointer so that "unassigned" serialises as JSON null
// rather than an empty string:
//
//	{"id":7,"title":"Fix bug",...,"assignedToUserId":null}
type Issue struct {
	ID               int64       `json:"id"               db:"id"`
	Title            string      `json:"title"            db:"title"`
	Description      string      `json:"description"      db:"description"`
	Status           IssueStatus `json:"status"           db:"status"`
	AssignedToUserID *string     `json:"assignedToUserId" db:"assigned_to_user_id"`
	CreatedAt        time.Time   `json:"createdAt"        db:"created_at"`
	UpdatedAt        time.Time   `json:"updatedAt"        db:"updated_at"`
}

// IssueDraft is the payload accepted when creating an issue.
type IssueDraft struct {
	Title       string `json:"title"       validate:"required,max=255"`
	Description string `json:"description" validate:"required,max=65535"`
}

// IssuePatch is a partial update to an issue. Nil fields are left unchanged.
//
// The assignment is tri-state:
//   - key absent          → AssignedToUserID == nil, ClearAssignee == false (unchanged)
//   - "assignedToUserId": null → ClearAssignee == true (unassign)
//   - a value             → AssignedToUserID != nil (assign)
type IssuePatch struct {
	Title            *string `json:"title,omitempty"            validate:"omitnil,min=1,max=255"`
	Description      *string `json:"description,omitempty"      validate:"omitnil,min=1,max=65535"`
	AssignedToUserID *string `json:"assignedToUserId,omitempty" validate:"omitnil,min=1,max=255"`
	Status           *string `json:"status,omitempty"           validate:"omitnil,oneof=OPEN IN_PROGRESS CLOSED"`
	ClearAssignee    bool    `json:"-"`
}

// Empty reports whether the patch would change nothing.
func (p IssuePatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Status == nil &&
		p.AssignedToUserID == nil && !p.ClearAssignee
}

// Apply copies the fields present in p onto issue.
func (p IssuePatch) Apply(issue *Issue) {
	if p.Title != nil {
		issue.Title = *p.Title
	}
	if p.Description != nil {
		issue.Description = *p.Description
	}
	if p.Status != nil {
		issue.Status = IssueStatus(*p.Status)
	}
	switch {
	case p.ClearAssignee:
		issue.AssignedToUserID = nil
	case p.AssignedToUserID != nil:
		id := *p.AssignedToUserID
		issue.AssignedToUserID = &id
	}
}

// MarshalJSON writes an explicit null for a cleared assignment so the patch
// round-trips through the API client unchanged.
func (p IssuePatch) MarshalJSON() ([]byte, error) {
	out := map[string]any{}
	if p.Title != nil {
		out["title"] = *p.Title
	}
	if p.Description != nil {
		out["description"] = *p.Description
	}
	if p.Status != nil {
		out["status"] = *p.Status
	}
	switch {
	case p.ClearAssignee:
		out["assignedToUserId"] = nil
	case p.AssignedToUserID != nil:
		out["assignedToUserId"] = *p.AssignedToUserID
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes a patch, detecting an explicit null assignment and
// accepting a JSON number as a user id. Only the assignment may be null.
func (p *IssuePatch) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var out IssuePatch
	if v, ok := raw["title"]; ok {
		if err := decodeString(v, "title", &out.Title); err != nil {
			return err
		}
	}
	if v, ok := raw["description"]; ok {
		if err := decodeString(v, "description", &out.Description); err != nil {
			return err
		}
	}
	if v, ok := raw["status"]; ok {
		if err := decodeString(v, "status", &out.Status); err != nil {
			return err
		}
	}
	if v, ok := raw["assignedToUserId"]; ok {
		if isNull(v) {
			out.ClearAssignee = true
		} else {
			var n json.Number
			if err := json.Unmarshal(v, &n); err == nil {
				s := n.String()
				out.AssignedToUserID = &s
			} else if err := decodeString(v, "assignedToUserId", &out.AssignedToUserID); err != nil {
				return err
			}
		}
	}

	*p = out
	return nil
}

func isNull(v json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(v), []byte("null"))
}

func decodeString(v json.RawMessage, field string, dst **string) error {
	if isNull(v) {
		return &json.UnmarshalTypeError{Value: "null", Type: reflect.TypeOf(""), Field: field}
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			typeErr.Field = field
		}
		return err
	}
	*dst = &s
	return nil
}
