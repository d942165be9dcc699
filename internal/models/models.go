package models

import (
	"time"
)

const (
	RoleUser      = "user"
	RoleModerator = "moderator"
	RoleEditor    = "editor"
	RoleManager   = "manager"
	RoleAdmin     = "admin"

	DefaultPicture = "/images/default-avatar.png"
)

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	PasswordHash string    `json:"password_hash"`
	Picture      string    `json:"picture"`
	CreatedAt    time.Time `json:"created_at"`
}

type Post struct {
	PostID       string     `json:"post_id"`
	Slug         string     `json:"slug"`
	Title        string     `json:"title"`
	Content      string     `json:"content"`
	CoverURL     *string    `json:"cover_url,omitempty"`
	ThumbnailURL *string    `json:"thumbnail_url,omitempty"`
	AuthorID     string     `json:"author_id"`
	AuthorName   string     `json:"author_name"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`
}

// UniqueKey reserves one value of a unique attribute (slug, email) for its owner.
type UniqueKey struct {
	Key       string    `json:"key"`
	OwnerID   string    `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
}

// ElevatedRoles may edit or delete posts written by other users.
var ElevatedRoles = []string{RoleModerator, RoleEditor, RoleManager, RoleAdmin}

var Roles = []string{RoleUser, RoleModerator, RoleEditor, RoleManager, RoleAdmin}
