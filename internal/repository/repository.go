package repository

import (
	"context"
	"errors"
	"time"

	"blogapi/internal/models"
)

const (
	UsersCollection      = "users"
	PostsCollection      = "posts"
	UniqueKeysCollection = "unique_keys"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrPostNotFound  = errors.New("post not found")
	ErrAlreadyExists = errors.New("record already exists")
	ErrTaken         = errors.New("value already taken")
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, userID string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, postID string) (*models.Post, error)
	GetBySlug(ctx context.Context, slug string) (*models.Post, error)
	Update(ctx context.Context, postID string, changes PostChanges) error
	Delete(ctx context.Context, postID string) error
	List(ctx context.Context, limit int, startAfter string) (*PostPage, error)
}

// UniqueIndex guards a unique attribute. Claim succeeds when value is free
// or already held by ownerID; otherwise it returns ErrTaken.
type UniqueIndex interface {
	Claim(ctx context.Context, value, ownerID string) error
	Release(ctx context.Context, value, ownerID string) error
}

// PostChanges lists the attributes to overwrite. Nil fields are left as stored.
type PostChanges struct {
	Title        *string
	Content      *string
	Slug         *string
	CoverURL     *string
	ThumbnailURL *string
	UpdatedAt    time.Time
}

type PostPage struct {
	Posts   []*models.Post
	LastKey string
	More    bool
}
