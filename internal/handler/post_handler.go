package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"blogapi/internal/models"
	"blogapi/internal/service"
)

// PostResponse always carries the optional fields, as null when unset.
type PostResponse struct {
	PostID       string     `json:"post_id"`
	Slug         string     `json:"slug"`
	Title        string     `json:"title"`
	Content      string     `json:"content"`
	CoverURL     *string    `json:"cover_url"`
	ThumbnailURL *string    `json:"thumbnail_url"`
	AuthorID     string     `json:"author_id"`
	AuthorName   string     `json:"author_name"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at"`
}

type PostListResponse struct {
	Items     []PostResponse `json:"items"`
	NextToken *string        `json:"next_token"`
	HasMore   bool           `json:"has_more"`
}

func newPostResponse(post *models.Post) PostResponse {
	return PostResponse{
		PostID:       post.PostID,
		Slug:         post.Slug,
		Title:        post.Title,
		Content:      post.Content,
		CoverURL:     post.CoverURL,
		ThumbnailURL: post.ThumbnailURL,
		AuthorID:     post.AuthorID,
		AuthorName:   post.AuthorName,
		CreatedAt:    post.CreatedAt,
		UpdatedAt:    post.UpdatedAt,
	}
}

func (h *Handlers) CreatePost(w http.ResponseWriter, r *http.Request) {
	actor, ok := ActorFromContext(r.Context())
	if !ok {
		WriteError(w, "authentication required", codeUnauthenticated, http.StatusUnauthorized)
		return
	}

	var req service.CreatePostRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	post, err := h.PostService.CreatePost(r.Context(), req, actor)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, newPostResponse(post), http.StatusCreated)
}

func (h *Handlers) EditPost(w http.ResponseWriter, r *http.Request) {
	actor, ok := ActorFromContext(r.Context())
	if !ok {
		WriteError(w, "authentication required", codeUnauthenticated, http.StatusUnauthorized)
		return
	}

	var req service.UpdatePostRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	post, err := h.PostService.UpdatePost(r.Context(), mux.Vars(r)["post_id"], req, actor)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, newPostResponse(post), http.StatusOK)
}

func (h *Handlers) GetPost(w http.ResponseWriter, r *http.Request) {
	post, err := h.PostService.GetPost(r.Context(), mux.Vars(r)["slug_or_id"])
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, newPostResponse(post), http.StatusOK)
}

// ListPosts reads the continuation token from "page" and the page size from "limit".
func (h *Handlers) ListPosts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	limit := 0
	if raw := query.Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			WriteError(w, "limit must be an integer", codeValidation, http.StatusBadRequest)
			return
		}
		if parsed == 0 {
			WriteError(w, "limit must be between 1 and 100", codeValidation, http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	page, err := h.PostService.ListPosts(r.Context(), limit, query.Get("page"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	response := PostListResponse{
		Items:     make([]PostResponse, 0, len(page.Items)),
		NextToken: page.NextToken,
		HasMore:   page.HasMore,
	}
	for _, post := range page.Items {
		response.Items = append(response.Items, newPostResponse(post))
	}

	writeJSON(w, response, http.StatusOK)
}

func (h *Handlers) DeletePost(w http.ResponseWriter, r *http.Request) {
	actor, ok := ActorFromContext(r.Context())
	if !ok {
		WriteError(w, "authentication required", codeUnauthenticated, http.StatusUnauthorized)
		return
	}

	result, err := h.PostService.DeletePost(r.Context(), mux.Vars(r)["post_id"], actor)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, result, http.StatusOK)
}
