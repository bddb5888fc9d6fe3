// Package feed renders published posts as fixed-size pages with navigation
// controls.
//
// A Feed holds its page state and post list without locking; use one Feed per
// request or per session.
package feed

import (
	"context"
	"log/slog"

	"github.com/weblithic/site/internal/blog"
	"github.com/weblithic/site/internal/models"
)

const (
	// PageSize is the number of cards on one page.
	PageSize = 9
	// MaxPageLinks is the width of the page-number window.
	MaxPageLinks = 5
)

// Source supplies posts to a Feed.
type Source interface {
	GetAllPosts(ctx context.Context, filter models.PostFilter) blog.Result[[]models.Post]
}

// Feed is the paginated feed state machine. Its only state is the current
// page and the posts loaded by the last Load.
type Feed struct {
	source   Source
	fallback []models.Post
	logger   *slog.Logger

	current  int
	posts    []models.Post
	fellBack bool
}

// Option configures a Feed.
type Option func(*Feed)

// WithFallback replaces the placeholder posts shown when loading fails or
// returns nothing.
func WithFallback(posts []models.Post) Option {
	return func(f *Feed) {
		if len(posts) > 0 {
			f.fallback = posts
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(f *Feed) { f.logger = l }
}

// New creates a Feed on page 1 with no posts loaded.
func New(source Source, opts ...Option) *Feed {
	f := &Feed{
		source:   source,
		fallback: []models.Post{Placeholder()},
		logger:   slog.Default(),
		current:  1,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Placeholder is the post shown when no published post can be loaded.
func Placeholder() models.Post {
	return models.Post{
		Title:    "New articles are on the way",
		Excerpt:  "We are preparing fresh articles on web design, development and mobile. Check back soon.",
		Category: "Announcements",
		Status:   models.StatusPublished,
	}
}

// Load fetches published posts. When the source fails or has none, the
// fallback list is used so the feed is never empty and silent. It reports
// whether the fallback was used.
func (f *Feed) Load(ctx context.Context) bool {
	res := f.source.GetAllPosts(ctx, models.PostFilter{Status: models.StatusPublished})
	switch {
	case !res.Success:
		f.logger.Warn("feed: load failed, using placeholder", slog.String("error", res.Error))
	case len(res.Data) == 0:
		f.logger.Debug("feed: no published posts, using placeholder")
	default:
		f.posts = res.Data
		f.fellBack = false
		return false
	}
	f.posts = append([]models.Post(nil), f.fallback...)
	f.fellBack = true
	return true
}

// Render shows page and makes it current. Pages below 1 render page 1; pages
// past the end render no cards.
func (f *Feed) Render(page int) Page {
	if page < 1 {
		page = 1
	}
	f.current = page

	total := len(f.posts)
	start := min((page-1)*PageSize, total)
	end := min(page*PageSize, total)

	cards := make([]Card, 0, end-start)
	for _, p := range f.posts[start:end] {
		cards = append(cards, newCard(p))
	}

	totalPages := f.TotalPages()
	pg := Page{
		Number:     page,
		TotalPages: totalPages,
		Total:      total,
		Cards:      cards,
		HasPrev:    page > 1,
		HasNext:    page < totalPages,
		Links:      pageLinks(page, totalPages),
		Fallback:   f.fellBack,
	}
	if len(cards) > 0 {
		pg.ShowingStart = start + 1
		pg.ShowingEnd = end
	}
	return pg
}

// Prev renders the previous page, staying on page 1 at the start.
func (f *Feed) Prev() Page { return f.Goto(f.current - 1) }

// Next renders the following page, staying on the last page at the end.
func (f *Feed) Next() Page { return f.Goto(f.current + 1) }

// Goto renders page n clamped to [1, TotalPages].
func (f *Feed) Goto(n int) Page {
	return f.Render(f.clamp(n))
}

// Refresh reloads the posts and renders the current page, or the last page
// that still exists when the list shrank.
func (f *Feed) Refresh(ctx context.Context) Page {
	f.Load(ctx)
	return f.Goto(f.current)
}

// AddPost puts p at the top of the feed and renders page 1.
func (f *Feed) AddPost(p models.Post) Page {
	f.posts = append([]models.Post{p}, f.posts...)
	return f.Render(1)
}

// RemovePost drops the post with id and stays on the current page if it
// still exists.
func (f *Feed) RemovePost(id string) Page {
	kept := make([]models.Post, 0, len(f.posts))
	for _, p := range f.posts {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	f.posts = kept
	return f.Goto(f.current)
}

// Current returns the current page number.
func (f *Feed) Current() int { return f.current }

// Posts returns the loaded posts.
func (f *Feed) Posts() []models.Post { return f.posts }

// TotalPages is ceil(len(posts) / PageSize); zero when there are no posts.
func (f *Feed) TotalPages() int {
	return (len(f.posts) + PageSize - 1) / PageSize
}

func (f *Feed) clamp(n int) int {
	return max(1, min(n, f.TotalPages()))
}

// pageLinks returns at most MaxPageLinks page numbers centered on current
// and clamped to [1, totalPages].
func pageLinks(current, totalPages int) []PageLink {
	start := max(1, current-MaxPageLinks/2)
	end := min(totalPages, start+MaxPageLinks-1)
	if end-start < MaxPageLinks-1 {
		start = max(1, end-MaxPageLinks+1)
	}
	links := make([]PageLink, 0, MaxPageLinks)
	for i := start; i <= end; i++ {
		links = append(links, PageLink{Number: i, Active: i == current})
	}
	return links
}
