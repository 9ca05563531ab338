// Package postgres implements the repository interfaces on PostgreSQL using a
// pgx connection pool. It is selected with DB_DRIVER=postgres.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4/pgxpool"
)

const (
	ForeignKeyViolation = "23503"
	UniqueViolation     = "23505"
)

// Storage holds the pool. It implements repository.IssueRepository and
// repository.UserRepository.
type Storage struct {
	db *pgxpool.Pool
}

// New connects to connString and creates the schema if needed.
func New(ctx context.Context, connString string) (*Storage, error) {
	db, err := pgxpool.Connect(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("postgres: connecting: %w", err)
	}

	s := &Storage{db: db}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: running migrations: %w", err)
	}
	return s, nil
}

// Close releases every pooled connection.
func (s *Storage) Close() error {
	s.db.Close()
	return nil
}

func (s *Storage) migrate(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id         TEXT PRIMARY KEY,
			github_id  BIGINT NOT NULL UNIQUE,
			login      TEXT NOT NULL,
			email      TEXT NOT NULL DEFAULT '',
			avatar_url TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);

		CREATE TABLE IF NOT EXISTS issues (
			id                  BIGSERIAL PRIMARY KEY,
			title               VARCHAR(255) NOT NULL,
			description         TEXT NOT NULL,
			status              TEXT NOT NULL DEFAULT 'OPEN',
			assigned_to_user_id TEXT REFERENCES users(id) ON DELETE SET NULL,
			created_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at          TIMESTAMPTZ NOT NULL DEFAULT now()
		);

		CREATE INDEX IF NOT EXISTS idx_issues_created_at ON issues(created_at);
		CREATE INDEX IF NOT EXISTS idx_issues_assigned_to ON issues(assigned_to_user_id);
		CREATE INDEX IF NOT EXISTS idx_issues_status ON issues(status);
	`)
	return err
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}
