package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/xid"

	"github.com/sakif/issue-tracker/internal/apperror"
	"github.com/sakif/issue-tracker/internal/model"
	"github.com/sakif/issue-tracker/internal/repository"
)

var _ repository.UserRepository = (*Storage)(nil)

const userColumns = `id, github_id, login, email, avatar_url, created_at, updated_at`

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	if err := row.Scan(&u.ID, &u.GitHubID, &u.Login, &u.Email, &u.AvatarURL, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// Upsert inserts or refreshes the user keyed by GitHub ID in one statement.
// The returned row carries the stable internal ID and original created_at.
func (s *Storage) Upsert(ctx context.Context, user *model.User) error {
	now := time.Now().UTC()

	row := s.db.QueryRow(ctx,
		`INSERT INTO users (id, github_id, login, email, avatar_url, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $6)
		 ON CONFLICT (github_id) DO UPDATE
		 SET login = EXCLUDED.login, email = EXCLUDED.email,
		     avatar_url = EXCLUDED.avatar_url, updated_at = EXCLUDED.updated_at
		 RETURNING `+userColumns,
		xid.New().String(), user.GitHubID, user.Login, user.Email, user.AvatarURL, now,
	)

	saved, err := scanUser(row)
	if err != nil {
		return fmt.Errorf("postgres: upserting user (githubID=%d): %w", user.GitHubID, err)
	}
	*user = *saved
	return nil
}

// GetUserByID returns the user, or apperror.ErrNotFound.
func (s *Storage) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	u, err := scanUser(s.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("postgres: getting user %s: %w", id, err)
	}
	return u, nil
}

// ListUsers returns every user ordered by login.
func (s *Storage) ListUsers(ctx context.Context) ([]model.User, error) {
	rows, err := s.db.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY login`)
	if err != nil {
		return nil, fmt.Errorf("postgres: listing users: %w", err)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scanning user row: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterating users: %w", err)
	}
	return users, nil
}
