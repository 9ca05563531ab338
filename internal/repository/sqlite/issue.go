package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/sakif/issue-tracker/internal/apperror"
	"github.com/sakif/issue-tracker/internal/model"
	"github.com/sakif/issue-tracker/internal/repository"
)

var _ repository.IssueRepository = (*DB)(nil)

const issueColumns = `id, title, description, status, assigned_to_user_id, created_at, updated_at`

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanIssue(row rowScanner) (*model.Issue, error) {
	var (
		issue    model.Issue
		assignee sql.NullString
	)
	if err := row.Scan(
		&issue.ID,
		&issue.Title,
		&issue.Description,
		&issue.Status,
		&assignee,
		&issue.CreatedAt,
		&issue.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if assignee.Valid {
		issue.AssignedToUserID = &assignee.String
	}
	return &issue, nil
}

func nullable(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// Create inserts a new issue and fills in ID, Status (if empty) and timestamps.
func (db *DB) Create(ctx context.Context, issue *model.Issue) error {
	if issue.Status == "" {
		issue.Status = model.StatusOpen
	}
	now := time.Now().UTC()
	issue.CreatedAt = now
	issue.UpdatedAt = now

	result, err := db.conn.ExecContext(ctx,
		`INSERT INTO issues (title, description, status, assigned_to_user_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		issue.Title,
		issue.Description,
		issue.Status,
		nullable(issue.AssignedToUserID),
		issue.CreatedAt,
		issue.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating issue: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading issue id: %w", err)
	}
	issue.ID = id

	return nil
}

// GetByID returns the issue, or apperror.ErrNotFound.
func (db *DB) GetByID(ctx context.Context, id int64) (*model.Issue, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+issueColumns+` FROM issues WHERE id = ?`, id)

	issue, err := scanIssue(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("issue", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("sqlite: getting issue %d: %w", id, err)
	}
	return issue, nil
}

// List returns issues newest first.
func (db *DB) List(ctx context.Context, opts repository.ListOptions) ([]model.Issue, error) {
	opts = opts.Normalize()

	query := `SELECT ` + issueColumns + ` FROM issues`
	args := []any{}
	if opts.Status != "" {
		query += ` WHERE status = ?`
		args = append(args, opts.Status)
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	args = append(args, opts.Limit, opts.Offset)

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing issues: %w", err)
	}
	defer rows.Close()

	issues := make([]model.Issue, 0, opts.Limit)
	for rows.Next() {
		issue, err := scanIssue(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning issue row: %w", err)
		}
		issues = append(issues, *issue)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating issues: %w", err)
	}

	return issues, nil
}

// Update writes the mutable fields of issue in a single statement.
func (db *DB) Update(ctx context.Context, issue *model.Issue) error {
	issue.UpdatedAt = time.Now().UTC()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE issues
		 SET title = ?, description = ?, status = ?, assigned_to_user_id = ?, updated_at = ?
		 WHERE id = ?`,
		issue.Title,
		issue.Description,
		issue.Status,
		nullable(issue.AssignedToUserID),
		issue.UpdatedAt,
		issue.ID,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperror.ValidationFailed("assignedToUserId", "Invalid user.")
		}
		return fmt.Errorf("sqlite: updating issue %d: %w", issue.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("issue", strconv.FormatInt(issue.ID, 10))
	}

	return nil
}

// Delete removes the issue, or returns apperror.ErrNotFound.
func (db *DB) Delete(ctx context.Context, id int64) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM issues WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting issue %d: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("issue", strconv.FormatInt(id, 10))
	}

	return nil
}
