// Package service holds the business rules that sit between HTTP handlers and
// the repositories.
//
//	IssueHandler (HTTP) → IssueService (rules) → IssueRepository / UserRepository
//
// Handlers own the session check. Everything after that (schema, referenced
// user, target issue, write) happens here, in that order.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/sakif/issue-tracker/internal/apperror"
	"github.com/sakif/issue-tracker/internal/model"
	"github.com/sakif/issue-tracker/internal/repository"
)

const (
	msgInvalidIssue = "Invalid issue"
	msgInvalidUser  = "Invalid user."
)

// Schema decodes and validates raw request bodies. *validate.Schema
// satisfies it.
type Schema interface {
	DecodePatch(body []byte) (model.IssuePatch, error)
	DecodeDraft(body []byte) (model.IssueDraft, error)
}

// IssueService implements create, read, update and delete for issues.
type IssueService struct {
	issues repository.IssueRepository
	users  repository.UserRepository
	schema Schema
	logger *slog.Logger
}

func NewIssueService(
	issues repository.IssueRepository,
	users repository.UserRepository,
	schema Schema,
	logger *slog.Logger,
) *IssueService {
	return &IssueService{
		issues: issues,
		users:  users,
		schema: schema,
		logger: logger,
	}
}

// Create validates body as an IssueDraft and stores a new OPEN issue.
func (s *IssueService) Create(ctx context.Context, body []byte) (*model.Issue, error) {
	draft, err := s.schema.DecodeDraft(body)
	if err != nil {
		return nil, err
	}

	issue := &model.Issue{
		Title:       draft.Title,
		Description: draft.Description,
		Status:      model.StatusOpen,
	}
	if err := s.issues.Create(ctx, issue); err != nil {
		return nil, fmt.Errorf("creating issue: %w", err)
	}

	s.logger.Info("issue created", slog.Int64("id", issue.ID))
	return issue, nil
}

// GetByID returns the issue with the given path id.
func (s *IssueService) GetByID(ctx context.Context, id string) (*model.Issue, error) {
	issueID, err := parseIssueID(id)
	if err != nil {
		return nil, err
	}
	return s.findIssue(ctx, issueID)
}

// List returns a page of issues, newest first.
func (s *IssueService) List(ctx context.Context, opts repository.ListOptions) ([]model.Issue, error) {
	if opts.Status != "" && !opts.Status.Valid() {
		return nil, apperror.ValidationFailed("status", "Status must be one of OPEN, IN_PROGRESS, CLOSED.")
	}

	issues, err := s.issues.List(ctx, opts.Normalize())
	if err != nil {
		return nil, fmt.Errorf("listing issues: %w", err)
	}
	return issues, nil
}

// Update applies a validated patch to the issue with the given path id.
//
// Checks run in a fixed order and the first failure wins:
//
//  1. body matches the patch schema
//  2. a supplied assignee refers to an existing user
//  3. the issue exists
//
// Only fields present in the validated patch are written. An explicit null
// assignee unassigns the issue without a user lookup.
func (s *IssueService) Update(ctx context.Context, id string, body []byte) (*model.Issue, error) {
	patch, err := s.schema.DecodePatch(body)
	if err != nil {
		return nil, err
	}

	if patch.AssignedToUserID != nil {
		if err := s.checkUser(ctx, *patch.AssignedToUserID); err != nil {
			return nil, err
		}
	}

	issueID, err := parseIssueID(id)
	if err != nil {
		return nil, err
	}
	issue, err := s.findIssue(ctx, issueID)
	if err != nil {
		return nil, err
	}

	if patch.Empty() {
		return issue, nil
	}

	patch.Apply(issue)
	if err := s.issues.Update(ctx, issue); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			// Deleted between the lookup and the write.
			return nil, apperror.NotFoundMessage(msgInvalidIssue)
		}
		if errors.Is(err, apperror.ErrValidation) {
			return nil, err
		}
		return nil, fmt.Errorf("updating issue %d: %w", issueID, err)
	}

	s.logger.Info("issue updated",
		slog.Int64("id", issue.ID),
		slog.Bool("assigned", issue.AssignedToUserID != nil),
	)
	return issue, nil
}

// Delete removes the issue with the given path id. Deleting an id that is
// already gone reports NotFound.
func (s *IssueService) Delete(ctx context.Context, id string) error {
	issueID, err := parseIssueID(id)
	if err != nil {
		return err
	}
	if _, err := s.findIssue(ctx, issueID); err != nil {
		return err
	}

	if err := s.issues.Delete(ctx, issueID); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return apperror.NotFoundMessage(msgInvalidIssue)
		}
		return fmt.Errorf("deleting issue %d: %w", issueID, err)
	}

	s.logger.Info("issue deleted", slog.Int64("id", issueID))
	return nil
}

func (s *IssueService) checkUser(ctx context.Context, userID string) error {
	_, err := s.users.GetUserByID(ctx, userID)
	if err == nil {
		return nil
	}
	if errors.Is(err, apperror.ErrNotFound) {
		return apperror.ValidationFailed("assignedToUserId", msgInvalidUser)
	}
	return fmt.Errorf("looking up user %s: %w", userID, err)
}

func (s *IssueService) findIssue(ctx context.Context, id int64) (*model.Issue, error) {
	issue, err := s.issues.GetByID(ctx, id)
	if err == nil {
		return issue, nil
	}
	if errors.Is(err, apperror.ErrNotFound) {
		return nil, apperror.NotFoundMessage(msgInvalidIssue)
	}
	return nil, fmt.Errorf("fetching issue %d: %w", id, err)
}

// parseIssueID accepts positive base-10 integers. Anything else cannot name
// a stored issue, so it is reported the same way as a missing one.
func parseIssueID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.NotFoundMessage(msgInvalidIssue)
	}
	return id, nil
}
