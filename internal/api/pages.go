package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/weblithic/site/internal/blog"
	"github.com/weblithic/site/internal/feed"
	"github.com/weblithic/site/internal/models"
)

// RSSItems is the number of posts in the RSS feed.
const RSSItems = 20

// PageHandler serves the server-rendered blog.
type PageHandler struct {
	manager  *blog.Manager
	renderer *feed.Renderer
	fallback []models.Post
	logger   *slog.Logger
}

// NewPageHandler creates a PageHandler. fallback replaces the feed's
// placeholder posts when non-empty.
func NewPageHandler(manager *blog.Manager, renderer *feed.Renderer, fallback []models.Post, logger *slog.Logger) *PageHandler {
	return &PageHandler{manager: manager, renderer: renderer, fallback: fallback, logger: logger}
}

// Routes mounts the blog pages.
func (h *PageHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Feed)
	r.Get("/rss.xml", h.RSS)
	r.Get("/{slug}", h.Post)
	return r
}

// Feed handles GET /blog?page=N. A missing or malformed page shows page 1;
// a page past the end renders without cards.
func (h *PageHandler) Feed(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))

	f := feed.New(h.manager, feed.WithFallback(h.fallback), feed.WithLogger(h.logger))
	f.Load(r.Context())

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.renderer.WriteFeed(w, f.Render(page)); err != nil {
		h.logger.Error("render feed failed", slog.String("error", err.Error()))
	}
}

// Post handles GET /blog/{slug}.
func (h *PageHandler) Post(w http.ResponseWriter, r *http.Request) {
	res := h.manager.GetPostBySlug(r.Context(), chi.URLParam(r, "slug"))
	if !res.Success {
		status := resultStatus(res.Kind)
		http.Error(w, http.StatusText(status), status)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.renderer.WritePost(w, res.Data); err != nil {
		h.logger.Error("render post failed", slog.String("error", err.Error()))
	}
}

// RSS handles GET /blog/rss.xml.
func (h *PageHandler) RSS(w http.ResponseWriter, r *http.Request) {
	res := h.manager.GetAllPosts(r.Context(), models.PostFilter{Status: models.StatusPublished})
	if !res.Success {
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	if err := h.renderer.WriteRSS(w, res.Data, RSSItems); err != nil {
		h.logger.Error("render rss failed", slog.String("error", err.Error()))
	}
}
