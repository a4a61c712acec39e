package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/inkwell-api/internal/api/shared"
	"github.com/phrazzld/inkwell-api/internal/domain"
	"github.com/phrazzld/inkwell-api/internal/platform/logger"
	"github.com/phrazzld/inkwell-api/internal/service"
)

// List pagination bounds.
const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// CreatePostRequest defines the payload for creating a post.
type CreatePostRequest struct {
	Title      string     `json:"title"       validate:"required,max=200"`
	Body       string     `json:"body"        validate:"required"`
	CategoryID *uuid.UUID `json:"category_id"`
}

// UpdatePostRequest defines the payload for updating a post.
type UpdatePostRequest struct {
	Title      string     `json:"title"       validate:"required,max=200"`
	Body       string     `json:"body"        validate:"required"`
	CategoryID *uuid.UUID `json:"category_id"`
}

// PostResponse defines the API representation of a post.
type PostResponse struct {
	ID                 uuid.UUID  `json:"id"`
	AuthorID           uuid.UUID  `json:"author_id"`
	CategoryID         *uuid.UUID `json:"category_id,omitempty"`
	Title              string     `json:"title"`
	Slug               string     `json:"slug"`
	Body               string     `json:"body"`
	Excerpt            string     `json:"excerpt,omitempty"`
	ReadingTimeMinutes int        `json:"reading_time_minutes,omitempty"`
	Status             string     `json:"status"`
	PublishedAt        *time.Time `json:"published_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// ListPostsResponse defines the paginated post list body.
type ListPostsResponse struct {
	Posts  []PostResponse `json:"posts"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

// NewPostResponse converts a domain post to its API representation.
func NewPostResponse(post *domain.Post) PostResponse {
	return PostResponse{
		ID:                 post.ID,
		AuthorID:           post.AuthorID,
		CategoryID:         post.CategoryID,
		Title:              post.Title,
		Slug:               post.Slug,
		Body:               post.Body,
		Excerpt:            post.Excerpt,
		ReadingTimeMinutes: post.ReadingTimeMinutes,
		Status:             string(post.Status),
		PublishedAt:        post.PublishedAt,
		CreatedAt:          post.CreatedAt,
		UpdatedAt:          post.UpdatedAt,
	}
}

// newListPostsResponse converts a page of domain posts.
func newListPostsResponse(posts []*domain.Post, limit, offset int) ListPostsResponse {
	out := make([]PostResponse, 0, len(posts))
	for _, post := range posts {
		out = append(out, NewPostResponse(post))
	}
	return ListPostsResponse{Posts: out, Limit: limit, Offset: offset}
}

// PostHandler handles post-related API requests.
type PostHandler struct {
	postService service.PostService
	logger      *slog.Logger
}

// NewPostHandler creates a new PostHandler with the given dependencies.
func NewPostHandler(postService service.PostService, logger *slog.Logger) *PostHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostHandler{
		postService: postService,
		logger:      logger.With(slog.String("component", "post_handler")),
	}
}

// ListPublished handles GET /api/posts. Only published posts are returned,
// newest first, optionally filtered by ?category=<slug>.
func (h *PostHandler) ListPublished(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := parseListParams(r)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	categorySlug := r.URL.Query().Get("category")

	posts, err := h.postService.ListPublishedPosts(r.Context(), categorySlug, limit, offset)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list posts")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, newListPostsResponse(posts, limit, offset))
}

// Get handles GET /api/posts/{id}. Posts that are not published are
// indistinguishable from absent ones.
func (h *PostHandler) Get(w http.ResponseWriter, r *http.Request) {
	postID, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	post, err := h.postService.GetPublishedPost(r.Context(), postID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to retrieve post")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, NewPostResponse(post))
}

// Create handles POST /api/posts. The caller becomes the author and the post
// starts as a draft.
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := getUserIDFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	var req CreatePostRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	post, err := h.postService.CreatePost(r.Context(), userID, req.Title, req.Body, req.CategoryID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create post")
		return
	}

	log.Info("post created via API",
		slog.String("post_id", post.ID.String()),
		slog.String("author_id", userID.String()))
	shared.RespondWithJSON(w, r, http.StatusCreated, NewPostResponse(post))
}

// Update handles PUT /api/posts/{id}.
func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	postID, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	var req UpdatePostRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	post, err := h.postService.UpdatePost(r.Context(), postID, userID, req.Title, req.Body, req.CategoryID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update post")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, NewPostResponse(post))
}

// Delete handles DELETE /api/posts/{id}.
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	postID, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	if err := h.postService.DeletePost(r.Context(), postID, userID); err != nil {
		HandleAPIError(w, r, err, "Failed to delete post")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Publish handles POST /api/posts/{id}/publish. Publication is asynchronous:
// the response is 202 with the post in its publishing state.
func (h *PostHandler) Publish(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	postID, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	post, err := h.postService.PublishPost(r.Context(), postID, userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to publish post")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusAccepted, NewPostResponse(post))
}

// Archive handles POST /api/posts/{id}/archive.
func (h *PostHandler) Archive(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	postID, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	post, err := h.postService.ArchivePost(r.Context(), postID, userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to archive post")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, NewPostResponse(post))
}

// ListMine handles GET /api/me/posts. The caller's posts are returned in any
// status, newest first.
func (h *PostHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	limit, offset, err := parseListParams(r)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	posts, err := h.postService.ListPostsByAuthor(r.Context(), userID, limit, offset)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list posts")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, newListPostsResponse(posts, limit, offset))
}

// parseListParams reads ?limit= and ?offset= with defaults and bounds.
// The limit is capped at maxListLimit rather than rejected.
func parseListParams(r *http.Request) (int, int, error) {
	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			return 0, 0, fmt.Errorf("%w: limit must be a positive integer", domain.ErrValidation)
		}
		limit = parsed
		if limit > maxListLimit {
			limit = maxListLimit
		}
	}

	offset := 0
	if raw := r.URL.Query().Get("offset"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			return 0, 0, fmt.Errorf("%w: offset must be a non-negative integer", domain.ErrValidation)
		}
		offset = parsed
	}

	return limit, offset, nil
}
