package model

import "time"

// User is a registered account. Issues reference users only through
// Issue.AssignedToUserID.
//
// Accounts are created by GitHub OAuth, so GitHubID is the external identity
// and ID is our own opaque xid. The UNIQUE constraint on github_id keeps one
// GitHub account mapped to exactly one user.
type User struct {
	ID        string    `json:"id"        db:"id"`
	GitHubID  int64     `json:"githubId"  db:"github_id"`
	Login     string    `json:"login"     db:"login"`
	Email     string    `json:"email"     db:"email"` // may be empty if hidden on GitHub
	AvatarURL string    `json:"avatarUrl" db:"avatar_url"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}
