package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"blogapi/internal/config"
	"blogapi/internal/models"
	"blogapi/internal/repository"
)

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100

	minTitleLength   = 3
	minContentLength = 10
)

type CreatePostRequest struct {
	Title     string `json:"title" validate:"required,min=3"`
	Content   string `json:"content" validate:"required,min=10"`
	Cover     string `json:"cover"`
	Thumbnail string `json:"thumbnail"`
	Slug      string `json:"slug"`
}

// UpdatePostRequest holds a partial update; nil or empty fields are left unchanged.
type UpdatePostRequest struct {
	Title     *string `json:"title" validate:"omitempty,min=3"`
	Content   *string `json:"content" validate:"omitempty,min=10"`
	Cover     *string `json:"cover"`
	Thumbnail *string `json:"thumbnail"`
	Slug      *string `json:"slug"`
}

type PostPage struct {
	Items     []*models.Post
	NextToken *string
	HasMore   bool
}

type DeleteResult struct {
	Message string `json:"message"`
	PostID  string `json:"post_id"`
}

type PostService interface {
	CreatePost(ctx context.Context, req CreatePostRequest, actor Actor) (*models.Post, error)
	UpdatePost(ctx context.Context, postID string, req UpdatePostRequest, actor Actor) (*models.Post, error)
	GetPost(ctx context.Context, slugOrID string) (*models.Post, error)
	ListPosts(ctx context.Context, limit int, pageToken string) (*PostPage, error)
	DeletePost(ctx context.Context, postID string, actor Actor) (*DeleteResult, error)
}

type postService struct {
	postRepo         repository.PostRepository
	slugIndex        repository.UniqueIndex
	media            *mediaResolver
	enforceOwnership bool
	logger           *slog.Logger
	now              func() time.Time
	newID            func() string
}

func NewPostService(
	postRepo repository.PostRepository,
	slugIndex repository.UniqueIndex,
	uploader MediaUploader,
	cfg *config.Config,
	logger *slog.Logger,
) PostService {
	return &postService{
		postRepo:         postRepo,
		slugIndex:        slugIndex,
		media:            &mediaResolver{uploader: uploader, logger: logger},
		enforceOwnership: cfg.EnforceOwnership,
		logger:           logger,
		now:              time.Now,
		newID:            uuid.NewString,
	}
}

func (s *postService) CreatePost(ctx context.Context, req CreatePostRequest, actor Actor) (*models.Post, error) {
	if err := validateTitle(req.Title); err != nil {
		return nil, err
	}
	if err := validateContent(req.Content); err != nil {
		return nil, err
	}

	slug := Slugify(req.Slug)
	if slug == "" {
		slug = Slugify(req.Title)
	}
	if slug == "" {
		return nil, ErrEmptySlug
	}

	postID := s.newID()

	if err := s.claimSlug(ctx, slug, postID); err != nil {
		return nil, err
	}

	cover, thumbnail, err := s.resolveImages(ctx, req.Cover, req.Thumbnail, actor.UserID)
	if err != nil {
		s.releaseSlug(ctx, slug, postID)
		return nil, err
	}

	post := &models.Post{
		PostID:       postID,
		Slug:         slug,
		Title:        req.Title,
		Content:      req.Content,
		CoverURL:     cover.URL,
		ThumbnailURL: thumbnail.URL,
		AuthorID:     actor.UserID,
		AuthorName:   actor.Name,
		CreatedAt:    s.now().UTC(),
	}

	if err := s.postRepo.Create(ctx, post); err != nil {
		s.logger.Error("create post failed", "post_id", postID, "slug", slug, "error", err)
		s.media.discard(ctx, cover, thumbnail)
		s.releaseSlug(ctx, slug, postID)
		return nil, storeError("create post", err)
	}

	s.logger.Info("post created", "post_id", postID, "author_id", actor.UserID)
	return post, nil
}

func (s *postService) UpdatePost(ctx context.Context, postID string, req UpdatePostRequest, actor Actor) (*models.Post, error) {
	existing, err := s.getByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	if err := s.authorize(actor, existing); err != nil {
		return nil, err
	}

	changes := repository.PostChanges{UpdatedAt: s.now().UTC()}

	if present(req.Title) {
		if err := validateTitle(*req.Title); err != nil {
			return nil, err
		}
		changes.Title = req.Title
	}

	if present(req.Content) {
		if err := validateContent(*req.Content); err != nil {
			return nil, err
		}
		changes.Content = req.Content
	}

	var newSlug string
	if present(req.Slug) {
		newSlug = Slugify(*req.Slug)
		if newSlug == "" {
			return nil, ErrEmptySlug
		}
		if err := s.claimSlug(ctx, newSlug, postID); err != nil {
			return nil, err
		}
		changes.Slug = &newSlug
	}
	slugChanged := newSlug != "" && newSlug != existing.Slug

	var coverValue, thumbnailValue string
	if present(req.Cover) {
		coverValue = *req.Cover
	}
	if present(req.Thumbnail) {
		thumbnailValue = *req.Thumbnail
	}

	cover, thumbnail, err := s.resolveImages(ctx, coverValue, thumbnailValue, actor.UserID)
	if err != nil {
		if slugChanged {
			s.releaseSlug(ctx, newSlug, postID)
		}
		return nil, err
	}
	changes.CoverURL = cover.URL
	changes.ThumbnailURL = thumbnail.URL

	if err := s.postRepo.Update(ctx, postID, changes); err != nil {
		s.media.discard(ctx, cover, thumbnail)
		if slugChanged {
			s.releaseSlug(ctx, newSlug, postID)
		}
		if errors.Is(err, repository.ErrPostNotFound) {
			return nil, fmt.Errorf("%w: post %s", ErrNotFound, postID)
		}
		s.logger.Error("update post failed", "post_id", postID, "error", err)
		return nil, storeError("update post", err)
	}

	if slugChanged {
		s.releaseSlug(ctx, existing.Slug, postID)
	}

	return mergePost(existing, changes), nil
}

func (s *postService) GetPost(ctx context.Context, slugOrID string) (*models.Post, error) {
	if _, err := uuid.Parse(slugOrID); err == nil {
		return s.getByID(ctx, slugOrID)
	}

	post, err := s.postRepo.GetBySlug(ctx, slugOrID)
	if err != nil {
		if errors.Is(err, repository.ErrPostNotFound) {
			return nil, fmt.Errorf("%w: post %s", ErrNotFound, slugOrID)
		}
		s.logger.Error("get post by slug failed", "slug", slugOrID, "error", err)
		return nil, storeError("get post", err)
	}

	return post, nil
}

func (s *postService) ListPosts(ctx context.Context, limit int, pageToken string) (*PostPage, error) {
	if limit == 0 {
		limit = DefaultPageLimit
	}
	if limit < 1 || limit > MaxPageLimit {
		return nil, fmt.Errorf("%w: limit must be between 1 and %d", ErrValidation, MaxPageLimit)
	}

	page, err := s.postRepo.List(ctx, limit, pageToken)
	if err != nil {
		s.logger.Error("list posts failed", "page", pageToken, "error", err)
		return nil, storeError("list posts", err)
	}

	result := &PostPage{
		Items:   page.Posts,
		HasMore: page.More,
	}
	if page.More && page.LastKey != "" {
		next := page.LastKey
		result.NextToken = &next
	}

	return result, nil
}

func (s *postService) DeletePost(ctx context.Context, postID string, actor Actor) (*DeleteResult, error) {
	existing, err := s.getByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	if err := s.authorize(actor, existing); err != nil {
		return nil, err
	}

	if err := s.postRepo.Delete(ctx, postID); err != nil {
		if errors.Is(err, repository.ErrPostNotFound) {
			return nil, fmt.Errorf("%w: post %s", ErrNotFound, postID)
		}
		s.logger.Error("delete post failed", "post_id", postID, "error", err)
		return nil, storeError("delete post", err)
	}

	s.releaseSlug(ctx, existing.Slug, postID)

	return &DeleteResult{
		Message: fmt.Sprintf("Post %s deleted", postID),
		PostID:  postID,
	}, nil
}

func (s *postService) getByID(ctx context.Context, postID string) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		if errors.Is(err, repository.ErrPostNotFound) {
			return nil, fmt.Errorf("%w: post %s", ErrNotFound, postID)
		}
		s.logger.Error("get post failed", "post_id", postID, "error", err)
		return nil, storeError("get post", err)
	}
	return post, nil
}

func (s *postService) authorize(actor Actor, post *models.Post) error {
	if !s.enforceOwnership {
		return nil
	}
	if actor.UserID != "" && actor.UserID == post.AuthorID {
		return nil
	}
	if slices.Contains(models.ElevatedRoles, actor.Role) {
		return nil
	}
	return ErrForbidden
}

func (s *postService) claimSlug(ctx context.Context, slug, postID string) error {
	if err := s.slugIndex.Claim(ctx, slug, postID); err != nil {
		if errors.Is(err, repository.ErrTaken) {
			return ErrSlugConflict
		}
		s.logger.Error("claim slug failed", "slug", slug, "post_id", postID, "error", err)
		return storeError("claim slug", err)
	}
	return nil
}

func (s *postService) releaseSlug(ctx context.Context, slug, postID string) {
	if err := s.slugIndex.Release(ctx, slug, postID); err != nil {
		s.logger.Warn("release slug failed", "slug", slug, "post_id", postID, "error", err)
	}
}

// resolveImages handles cover and thumbnail concurrently. On failure nothing
// uploaded by this call is left behind.
func (s *postService) resolveImages(ctx context.Context, coverValue, thumbnailValue, ownerID string) (resolvedMedia, resolvedMedia, error) {
	var cover, thumbnail resolvedMedia

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		cover, err = s.media.resolve(gctx, coverValue, ownerID, coverFolder)
		return err
	})
	g.Go(func() error {
		var err error
		thumbnail, err = s.media.resolve(gctx, thumbnailValue, ownerID, thumbnailFolder)
		return err
	})

	if err := g.Wait(); err != nil {
		s.media.discard(ctx, cover, thumbnail)
		return resolvedMedia{}, resolvedMedia{}, err
	}

	return cover, thumbnail, nil
}

func mergePost(existing *models.Post, changes repository.PostChanges) *models.Post {
	merged := *existing
	if changes.Title != nil {
		merged.Title = *changes.Title
	}
	if changes.Content != nil {
		merged.Content = *changes.Content
	}
	if changes.Slug != nil {
		merged.Slug = *changes.Slug
	}
	if changes.CoverURL != nil {
		merged.CoverURL = changes.CoverURL
	}
	if changes.ThumbnailURL != nil {
		merged.ThumbnailURL = changes.ThumbnailURL
	}
	updatedAt := changes.UpdatedAt
	merged.UpdatedAt = &updatedAt
	return &merged
}

func present(value *string) bool {
	return value != nil && *value != ""
}

func validateTitle(title string) error {
	if utf8.RuneCountInString(title) < minTitleLength {
		return fmt.Errorf("%w: title must be at least %d characters", ErrValidation, minTitleLength)
	}
	return nil
}

func validateContent(content string) error {
	if utf8.RuneCountInString(content) < minContentLength {
		return fmt.Errorf("%w: content must be at least %d characters", ErrValidation, minContentLength)
	}
	return nil
}
