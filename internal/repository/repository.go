// Package repository defines the storage contracts for issues and users.
//
// The service layer depends on these interfaces, never on a concrete driver.
// Two implementations exist: repository/sqlite (default) and
// repository/postgres. Both return apperror.NotFound for missing rows so
// callers can match with errors.Is regardless of backend.
package repository

import (
	"context"

	"github.com/sakif/issue-tracker/internal/model"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// ListOptions controls pagination and filtering for List queries.
type ListOptions struct {
	Limit  int
	Offset int
	Status model.IssueStatus // empty means any status
}

// Normalize clamps Limit and Offset into their allowed ranges.
func (o ListOptions) Normalize() ListOptions {
	if o.Limit <= 0 {
		o.Limit = DefaultListLimit
	}
	if o.Limit > MaxListLimit {
		o.Limit = MaxListLimit
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
	return o
}

// IssueRepository persists issues.
type IssueRepository interface {
	Create(ctx context.Context, issue *model.Issue) error
	GetByID(ctx context.Context, id int64) (*model.Issue, error)
	List(ctx context.Context, opts ListOptions) ([]model.Issue, error)
	// Update writes title, description, status and assignment of issue.
	Update(ctx context.Context, issue *model.Issue) error
	Delete(ctx context.Context, id int64) error
}

// UserRepository persists user accounts.
type UserRepository interface {
	Upsert(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
}
