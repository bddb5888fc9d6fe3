// Package blog is the content store adapter: it mediates every read and write
// of blog posts and reports outcomes through a Result envelope instead of
// returning errors.
package blog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/weblithic/site/internal/apperr"
	"github.com/weblithic/site/internal/cache"
	"github.com/weblithic/site/internal/docstore"
	"github.com/weblithic/site/internal/models"
)

// Event names a post mutation.
type Event string

const (
	EventCreated Event = "post.created"
	EventUpdated Event = "post.updated"
	EventDeleted Event = "post.deleted"
)

// NotifierFunc is called after a successful mutation.
type NotifierFunc func(event Event, id string)

// DefaultTimeout bounds each store call.
const DefaultTimeout = 5 * time.Second

// Manager is the content store adapter.
type Manager struct {
	store   docstore.Store
	cache   cache.FeedCache
	notify  NotifierFunc
	logger  *slog.Logger
	timeout time.Duration

	detached sync.WaitGroup
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithCache sets the feed cache consulted by GetAllPosts.
func WithCache(c cache.FeedCache) ManagerOption {
	return func(m *Manager) { m.cache = c }
}

// WithNotifier sets the mutation callback.
func WithNotifier(fn NotifierFunc) ManagerOption {
	return func(m *Manager) { m.notify = fn }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) ManagerOption {
	return func(m *Manager) { m.logger = l }
}

// WithTimeout bounds every store call, including detached view increments.
func WithTimeout(d time.Duration) ManagerOption {
	return func(m *Manager) {
		if d > 0 {
			m.timeout = d
		}
	}
}

// NewManager creates a Manager over store.
func NewManager(store docstore.Store, opts ...ManagerOption) *Manager {
	m := &Manager{
		store:   store,
		cache:   cache.Nop{},
		notify:  func(Event, string) {},
		logger:  slog.Default(),
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// call runs fn against the store with the manager's timeout and converts a
// panic into an error so nothing escapes the adapter.
func (m *Manager) call(ctx context.Context, op string, fn func(ctx context.Context) error) (err error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s: %v", op, r)
		}
	}()
	return fn(ctx)
}

func storeFailure[T any](m *Manager, op string, err error) Result[T] {
	if errors.Is(err, apperr.ErrNotFound) {
		return fail[T](KindNotFound, MsgNotFound)
	}
	m.logger.Error("blog: "+op+" failed", slog.String("error", err.Error()))
	return fail[T](KindStore, err.Error())
}

// CreatePost validates in and stores it as a new post. A missing slug is
// derived from the title and a missing status defaults to draft. The store
// stamps both timestamps and starts the view counter at zero.
func (m *Manager) CreatePost(ctx context.Context, in models.PostInput) Result[string] {
	if v := ValidatePost(in); !v.Valid {
		return invalid[string](v.Errors)
	}
	if deref(in.Slug) == "" {
		slug := GenerateSlug(*in.Title)
		if slug == "" {
			return invalid[string]([]string{"Slug could not be derived from title"})
		}
		in.Slug = &slug
	}
	if in.Status == nil {
		in.Status = models.Ptr(models.StatusDraft)
	}

	var id string
	err := m.call(ctx, "create post", func(ctx context.Context) error {
		var err error
		id, err = m.store.Insert(ctx, in)
		return err
	})
	if err != nil {
		return storeFailure[string](m, "create post", err)
	}

	m.logger.Info("blog: post created", slog.String("id", id), slog.String("slug", *in.Slug))
	m.changed(ctx, EventCreated, id)
	return ok(id)
}

// GetAllPosts lists posts matching filter, newest published first. On failure
// the payload is an empty list.
func (m *Manager) GetAllPosts(ctx context.Context, filter models.PostFilter) Result[[]models.Post] {
	posts, gen, hit := m.cache.Get(ctx, filter)
	if hit {
		return ok(posts)
	}

	var docs []docstore.Document
	err := m.call(ctx, "list posts", func(ctx context.Context) error {
		var err error
		docs, err = m.store.Find(ctx, docstore.Query{
			Status:   string(filter.Status),
			Category: filter.Category,
		})
		return err
	})
	if err != nil {
		res := storeFailure[[]models.Post](m, "list posts", err)
		res.Data = []models.Post{}
		return res
	}

	posts = make([]models.Post, len(docs))
	for i, d := range docs {
		posts[i] = toPost(d)
	}
	m.cache.Set(ctx, gen, filter, posts)
	return ok(posts)
}

// GetPostByID returns the post with the given identity.
func (m *Manager) GetPostByID(ctx context.Context, id string) Result[models.Post] {
	var doc *docstore.Document
	err := m.call(ctx, "get post", func(ctx context.Context) error {
		var err error
		doc, err = m.store.Get(ctx, id)
		return err
	})
	if err != nil {
		return storeFailure[models.Post](m, "get post", err)
	}
	return ok(toPost(*doc))
}

// GetPostBySlug returns the newest published post with slug and counts a
// view. The increment runs detached: the caller never waits for it, it may
// land before or after the caller renders, and its failure is only logged.
// A successful increment invalidates the feed cache.
// The returned post carries the view count read before the increment.
func (m *Manager) GetPostBySlug(ctx context.Context, slug string) Result[models.Post] {
	res := m.findSlug(ctx, slug, models.StatusPublished)
	if res.Success {
		m.incrementDetached(res.Data.ID)
	}
	return res
}

// LookupSlug returns the newest post with slug in any status, without
// counting a view.
func (m *Manager) LookupSlug(ctx context.Context, slug string) Result[models.Post] {
	return m.findSlug(ctx, slug, "")
}

func (m *Manager) findSlug(ctx context.Context, slug string, status models.Status) Result[models.Post] {
	if slug == "" {
		return fail[models.Post](KindNotFound, MsgNotFound)
	}
	var docs []docstore.Document
	err := m.call(ctx, "get post by slug", func(ctx context.Context) error {
		var err error
		docs, err = m.store.Find(ctx, docstore.Query{Slug: slug, Status: string(status), Limit: 1})
		return err
	})
	if err != nil {
		return storeFailure[models.Post](m, "get post by slug", err)
	}
	if len(docs) == 0 {
		return fail[models.Post](KindNotFound, MsgNotFound)
	}
	return ok(toPost(docs[0]))
}

// UpdatePost applies the supplied fields. The store re-stamps LastModified on
// every call, even when no field changes.
func (m *Manager) UpdatePost(ctx context.Context, id string, updates models.PostInput) Result[Empty] {
	if updates.Slug != nil && *updates.Slug == "" {
		if updates.Title != nil {
			slug := GenerateSlug(*updates.Title)
			if slug == "" {
				return invalid[Empty]([]string{"Slug could not be derived from title"})
			}
			updates.Slug = &slug
		} else {
			updates.Slug = nil
		}
	}
	if v := validateUpdate(updates); !v.Valid {
		return invalid[Empty](v.Errors)
	}

	err := m.call(ctx, "update post", func(ctx context.Context) error {
		return m.store.Update(ctx, id, updates)
	})
	if err != nil {
		return storeFailure[Empty](m, "update post", err)
	}

	m.logger.Info("blog: post updated", slog.String("id", id))
	m.changed(ctx, EventUpdated, id)
	return ok(Empty{})
}

// DeletePost removes the post permanently. Deleting an identity that does
// not exist, including a second delete, fails with the not-found error.
func (m *Manager) DeletePost(ctx context.Context, id string) Result[Empty] {
	err := m.call(ctx, "delete post", func(ctx context.Context) error {
		return m.store.Delete(ctx, id)
	})
	if err != nil {
		return storeFailure[Empty](m, "delete post", err)
	}

	m.logger.Info("blog: post deleted", slog.String("id", id))
	m.changed(ctx, EventDeleted, id)
	return ok(Empty{})
}

// IncrementViews adds one to the post's view counter in the store.
func (m *Manager) IncrementViews(ctx context.Context, id string) error {
	return m.call(ctx, "increment views", func(ctx context.Context) error {
		return m.store.IncrementViews(ctx, id)
	})
}

func (m *Manager) incrementDetached(id string) {
	m.detached.Add(1)
	go func() {
		defer m.detached.Done()
		ctx := context.Background()
		if err := m.IncrementViews(ctx, id); err != nil {
			m.logger.Warn("blog: increment views failed", slog.String("id", id), slog.String("error", err.Error()))
			return
		}
		// Cached listings carry view counts.
		m.cache.Invalidate(ctx)
	}()
}

// Wait blocks until every detached view increment has finished.
func (m *Manager) Wait() {
	m.detached.Wait()
}

// Ping checks that the store is reachable.
func (m *Manager) Ping(ctx context.Context) error {
	return m.call(ctx, "ping", m.store.Ping)
}

func (m *Manager) changed(ctx context.Context, event Event, id string) {
	m.cache.Invalidate(ctx)
	m.notify(event, id)
}

func toPost(d docstore.Document) models.Post {
	return models.Post{
		ID:            d.ID,
		Title:         d.Title,
		Excerpt:       d.Excerpt,
		Content:       d.Content,
		Category:      d.Category,
		Slug:          d.Slug,
		Status:        models.Status(d.Status),
		PublishedDate: d.PublishedDate.Time(),
		LastModified:  d.LastModified.Time(),
		Views:         d.Views,
	}
}
