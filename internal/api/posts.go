package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/weblithic/site/internal/blog"
	"github.com/weblithic/site/internal/models"
)

// PostHandler serves the post endpoints.
type PostHandler struct {
	manager *blog.Manager
}

// NewPostHandler creates a PostHandler.
func NewPostHandler(manager *blog.Manager) *PostHandler {
	return &PostHandler{manager: manager}
}

// ListPosts handles GET /api/posts?status=&category=.
func (h *PostHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := models.PostFilter{
		Status:   models.Status(q.Get("status")),
		Category: q.Get("category"),
	}
	if filter.Status != "" && !filter.Status.Valid() {
		writeJSON(w, http.StatusBadRequest, errorBody("status must be draft or published"))
		return
	}
	writeResult(w, http.StatusOK, h.manager.GetAllPosts(r.Context(), filter))
}

// GetPost handles GET /api/posts/{id}.
func (h *PostHandler) GetPost(w http.ResponseWriter, r *http.Request) {
	writeResult(w, http.StatusOK, h.manager.GetPostByID(r.Context(), chi.URLParam(r, "id")))
}

// GetPostBySlug handles GET /api/posts/slug/{slug}. Only published posts are
// returned and each hit counts one view.
func (h *PostHandler) GetPostBySlug(w http.ResponseWriter, r *http.Request) {
	writeResult(w, http.StatusOK, h.manager.GetPostBySlug(r.Context(), chi.URLParam(r, "slug")))
}

// CreatePost handles POST /api/posts.
func (h *PostHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	var in models.PostInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	writeResult(w, http.StatusCreated, h.manager.CreatePost(r.Context(), in))
}

// UpdatePost handles PUT /api/posts/{id}.
func (h *PostHandler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	var in models.PostInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if in.Empty() {
		writeJSON(w, http.StatusBadRequest, errorBody("no fields to update"))
		return
	}
	writeResult(w, http.StatusOK, h.manager.UpdatePost(r.Context(), chi.URLParam(r, "id"), in))
}

// DeletePost handles DELETE /api/posts/{id}.
func (h *PostHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	writeResult(w, http.StatusOK, h.manager.DeletePost(r.Context(), chi.URLParam(r, "id")))
}

// GenerateSlug handles POST /api/slug.
func (h *PostHandler) GenerateSlug(w http.ResponseWriter, r *http.Request) {
	var req SlugRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("title is required"))
		return
	}
	writeJSON(w, http.StatusOK, SlugResponse{Slug: blog.GenerateSlug(req.Title)})
}
