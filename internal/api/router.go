package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/weblithic/site/internal/blog"
	"github.com/weblithic/site/internal/mailer"
)

// Deps holds everything the API router serves.
type Deps struct {
	Manager      *blog.Manager
	Auth         AuthConfig
	Mailer       mailer.Sender
	ClientConfig ClientConfig
	// Events, if non-nil, is mounted at GET /events.
	Events http.Handler
	Logger *slog.Logger
}

// NewRouter creates a chi router with all API routes. Reads are public;
// post mutations go through the auth middleware.
func NewRouter(d Deps) chi.Router {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	posts := NewPostHandler(d.Manager)
	contact := NewContactHandler(d.Mailer, d.Logger)
	client := NewClientConfigHandler(d.ClientConfig, d.Logger)

	r := chi.NewRouter()

	r.Get("/posts", posts.ListPosts)
	r.Get("/posts/{id}", posts.GetPost)
	r.Get("/posts/slug/{slug}", posts.GetPostBySlug)
	r.Post("/slug", posts.GenerateSlug)

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(d.Auth))
		r.Post("/posts", posts.CreatePost)
		r.Put("/posts/{id}", posts.UpdatePost)
		r.Delete("/posts/{id}", posts.DeletePost)
	})

	r.HandleFunc("/contact", contact.Contact)
	r.HandleFunc("/client-config", client.ClientConfig)

	if d.Events != nil {
		r.Get("/events", d.Events.ServeHTTP)
	}

	return r
}
