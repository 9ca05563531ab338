package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v4"

	"github.com/sakif/issue-tracker/internal/apperror"
	"github.com/sakif/issue-tracker/internal/model"
	"github.com/sakif/issue-tracker/internal/repository"
)

var _ repository.IssueRepository = (*Storage)(nil)

const issueColumns = `id, title, description, status, assigned_to_user_id, created_at, updated_at`

func scanIssue(row pgx.Row) (*model.Issue, error) {
	var (
		issue  model.Issue
		status string
	)
	if err := row.Scan(
		&issue.ID,
		&issue.Title,
		&issue.Description,
		&status,
		&issue.AssignedToUserID,
		&issue.CreatedAt,
		&issue.UpdatedAt,
	); err != nil {
		return nil, err
	}
	issue.Status = model.IssueStatus(status)
	return &issue, nil
}

// Create inserts issue and fills in ID, Status (if empty) and timestamps.
func (s *Storage) Create(ctx context.Context, issue *model.Issue) error {
	if issue.Status == "" {
		issue.Status = model.StatusOpen
	}
	now := time.Now().UTC()
	issue.CreatedAt = now
	issue.UpdatedAt = now

	err := s.db.QueryRow(ctx,
		`INSERT INTO issues (title, description, status, assigned_to_user_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		issue.Title, issue.Description, string(issue.Status), issue.AssignedToUserID,
		issue.CreatedAt, issue.UpdatedAt,
	).Scan(&issue.ID)
	if err != nil {
		if pgCode(err) == ForeignKeyViolation {
			return apperror.ValidationFailed("assignedToUserId", "Invalid user.")
		}
		return fmt.Errorf("postgres: creating issue: %w", err)
	}
	return nil
}

// GetByID returns the issue, or apperror.ErrNotFound.
func (s *Storage) GetByID(ctx context.Context, id int64) (*model.Issue, error) {
	issue, err := scanIssue(s.db.QueryRow(ctx,
		`SELECT `+issueColumns+` FROM issues WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("issue", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("postgres: getting issue %d: %w", id, err)
	}
	return issue, nil
}

// List returns issues newest first.
func (s *Storage) List(ctx context.Context, opts repository.ListOptions) ([]model.Issue, error) {
	opts = opts.Normalize()

	query := `SELECT ` + issueColumns + ` FROM issues`
	args := []any{}
	if opts.Status != "" {
		args = append(args, string(opts.Status))
		query += ` WHERE status = $1`
	}
	args = append(args, opts.Limit, opts.Offset)
	query += fmt.Sprintf(` ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: listing issues: %w", err)
	}
	defer rows.Close()

	issues := make([]model.Issue, 0, opts.Limit)
	for rows.Next() {
		issue, err := scanIssue(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scanning issue row: %w", err)
		}
		issues = append(issues, *issue)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterating issues: %w", err)
	}
	return issues, nil
}

// Update writes the mutable fields of issue in a single statement.
func (s *Storage) Update(ctx context.Context, issue *model.Issue) error {
	issue.UpdatedAt = time.Now().UTC()

	tag, err := s.db.Exec(ctx,
		`UPDATE issues
		 SET title = $1, description = $2, status = $3, assigned_to_user_id = $4, updated_at = $5
		 WHERE id = $6`,
		issue.Title, issue.Description, string(issue.Status), issue.AssignedToUserID,
		issue.UpdatedAt, issue.ID,
	)
	if err != nil {
		if pgCode(err) == ForeignKeyViolation {
			return apperror.ValidationFailed("assignedToUserId", "Invalid user.")
		}
		return fmt.Errorf("postgres: updating issue %d: %w", issue.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("issue", strconv.FormatInt(issue.ID, 10))
	}
	return nil
}

// Delete removes the issue, or returns apperror.ErrNotFound.
func (s *Storage) Delete(ctx context.Context, id int64) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM issues WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("postgres: deleting issue %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("issue", strconv.FormatInt(id, 10))
	}
	return nil
}
