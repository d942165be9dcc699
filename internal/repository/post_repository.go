package repository

import (
	"context"
	"errors"
	"fmt"

	"blogapi/internal/docstore"
	"blogapi/internal/models"
)

type PostRepositoryImpl struct {
	table docstore.Table
}

func NewPostRepository(store docstore.Store) *PostRepositoryImpl {
	return &PostRepositoryImpl{table: store.Table(PostsCollection, "post_id")}
}

// Table exposes the backing collection, e.g. for a ScanIndex over slugs.
func (r *PostRepositoryImpl) Table() docstore.Table {
	return r.table
}

func (r *PostRepositoryImpl) Create(ctx context.Context, post *models.Post) error {
	item, err := docstore.Encode(post)
	if err != nil {
		return err
	}

	if err := r.table.Put(ctx, post.PostID, item); err != nil {
		if errors.Is(err, docstore.ErrConditionFailed) {
			return fmt.Errorf("post %s: %w", post.PostID, ErrAlreadyExists)
		}
		return fmt.Errorf("create post: %w", err)
	}

	return nil
}

func (r *PostRepositoryImpl) GetByID(ctx context.Context, postID string) (*models.Post, error) {
	item, err := r.table.Get(ctx, postID)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("get post %s: %w", postID, err)
	}

	return decodePost(item)
}

func (r *PostRepositoryImpl) GetBySlug(ctx context.Context, slug string) (*models.Post, error) {
	items, err := r.table.Scan(ctx, docstore.Filter{Attr: "slug", Value: slug})
	if err != nil {
		return nil, fmt.Errorf("get post by slug %s: %w", slug, err)
	}

	if len(items) == 0 {
		return nil, ErrPostNotFound
	}

	return decodePost(items[0])
}

func (r *PostRepositoryImpl) Update(ctx context.Context, postID string, changes PostChanges) error {
	item := docstore.Item{"updated_at": changes.UpdatedAt}
	setIfPresent(item, "title", changes.Title)
	setIfPresent(item, "content", changes.Content)
	setIfPresent(item, "slug", changes.Slug)
	setIfPresent(item, "cover_url", changes.CoverURL)
	setIfPresent(item, "thumbnail_url", changes.ThumbnailURL)

	normalized, err := docstore.Encode(item)
	if err != nil {
		return err
	}

	if err := r.table.Update(ctx, postID, normalized); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return ErrPostNotFound
		}
		return fmt.Errorf("update post %s: %w", postID, err)
	}

	return nil
}

func (r *PostRepositoryImpl) Delete(ctx context.Context, postID string) error {
	if err := r.table.Delete(ctx, postID); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return ErrPostNotFound
		}
		return fmt.Errorf("delete post %s: %w", postID, err)
	}

	return nil
}

func (r *PostRepositoryImpl) List(ctx context.Context, limit int, startAfter string) (*PostPage, error) {
	page, err := r.table.ScanPage(ctx, limit, startAfter)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}

	result := &PostPage{
		Posts:   make([]*models.Post, 0, len(page.Items)),
		LastKey: page.LastKey,
		More:    page.More,
	}

	for _, item := range page.Items {
		post, err := decodePost(item)
		if err != nil {
			return nil, err
		}
		result.Posts = append(result.Posts, post)
	}

	return result, nil
}

func setIfPresent(item docstore.Item, attr string, value *string) {
	if value != nil {
		item[attr] = *value
	}
}

func decodePost(item docstore.Item) (*models.Post, error) {
	var post models.Post
	if err := docstore.Decode(item, &post); err != nil {
		return nil, err
	}
	return &post, nil
}
