package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sakif/issue-tracker/internal/apperror"
	"github.com/sakif/issue-tracker/internal/model"
)

// createTestUser upserts a user and fails the test if it errors.
func createTestUser(t *testing.T, db *DB, githubID int64, login string) *model.User {
	t.Helper()
	user := &model.User{
		GitHubID:  githubID,
		Login:     login,
		Email:     login + "@example.com",
		AvatarURL: "https://avatars.githubusercontent.com/u/123",
	}
	if err := db.Upsert(context.Background(), user); err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

func TestUserGetByID(t *testing.T) {
	db := newTestDB(t)
	created := createTestUser(t, db, 12345, "fetch_user")

	found, err := db.GetUserByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if found.Login != "fetch_user" {
		t.Errorf("Login = %q, want %q", found.Login, "fetch_user")
	}
	if found.GitHubID != 12345 {
		t.Errorf("GitHubID = %d, want 12345", found.GitHubID)
	}
}

func TestUserGetByID_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetUserByID(context.Background(), "999")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetUserByID() error = %v, want ErrNotFound", err)
	}
}

func TestUserGetByGitHubID_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetByGitHubID(context.Background(), 999999999)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByGitHubID() error = %v, want ErrNotFound", err)
	}
}

func TestUserUpsert_ExistingUser_UpdatesProfile(t *testing.T) {
	db := newTestDB(t)

	first := &model.User{GitHubID: 66666, Login: "original_login", Email: "old@example.com"}
	if err := db.Upsert(context.Background(), first); err != nil {
		t.Fatalf("Upsert() first login: %v", err)
	}

	second := &model.User{GitHubID: 66666, Login: "updated_login", Email: "new@example.com"}
	if err := db.Upsert(context.Background(), second); err != nil {
		t.Fatalf("Upsert() second login: %v", err)
	}

	// Same GitHub account, same internal ID.
	if second.ID != first.ID {
		t.Errorf("Upsert() changed user ID: got %q, want %q", second.ID, first.ID)
	}
	if d := second.CreatedAt.Sub(first.CreatedAt); d > time.Second || d < -time.Second {
		t.Errorf("Upsert() changed CreatedAt: got %v, want %v", second.CreatedAt, first.CreatedAt)
	}

	found, err := db.GetByGitHubID(context.Background(), 66666)
	if err != nil {
		t.Fatalf("GetByGitHubID() after second Upsert: %v", err)
	}
	if found.Login != "updated_login" {
		t.Errorf("Login after upsert = %q, want %q", found.Login, "updated_login")
	}
	if found.Email != "new@example.com" {
		t.Errorf("Email after upsert = %q, want %q", found.Email, "new@example.com")
	}
}

func TestListUsers_OrderedByLogin(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, 2, "zed")
	createTestUser(t, db, 1, "amy")

	users, err := db.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("ListUsers() error = %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("ListUsers() returned %d users, want 2", len(users))
	}
	if users[0].Login != "amy" || users[1].Login != "zed" {
		t.Errorf("ListUsers() order = [%s %s], want [amy zed]", users[0].Login, users[1].Login)
	}
}
