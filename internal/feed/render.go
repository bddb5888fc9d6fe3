package feed

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/gorilla/feeds"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/weblithic/site/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

// Site describes the site in rendered pages and the RSS channel.
type Site struct {
	Title       string
	BaseURL     string
	Description string
	Author      string
	Email       string
}

// Renderer writes feed pages, post pages and the RSS feed.
type Renderer struct {
	site     Site
	feedTmpl *template.Template
	postTmpl *template.Template
	md       goldmark.Markdown
}

// NewRenderer parses the embedded templates.
func NewRenderer(site Site) (*Renderer, error) {
	feedTmpl, err := template.ParseFS(templateFS, "templates/base.html", "templates/feed.html")
	if err != nil {
		return nil, fmt.Errorf("feed: parse feed template: %w", err)
	}
	postTmpl, err := template.ParseFS(templateFS, "templates/base.html", "templates/post.html")
	if err != nil {
		return nil, fmt.Errorf("feed: parse post template: %w", err)
	}
	return &Renderer{
		site:     site,
		feedTmpl: feedTmpl,
		postTmpl: postTmpl,
		md:       goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}, nil
}

// WriteFeed renders page as HTML.
func (r *Renderer) WriteFeed(w io.Writer, page Page) error {
	return r.feedTmpl.ExecuteTemplate(w, "base", map[string]any{
		"Site": r.site,
		"Page": page,
		"Prev": max(1, page.Number-1),
		"Next": min(max(1, page.TotalPages), page.Number+1),
	})
}

// WritePost renders a single post with its Markdown content converted to HTML.
func (r *Renderer) WritePost(w io.Writer, post models.Post) error {
	body, err := r.Markdown(post.Content)
	if err != nil {
		return err
	}
	return r.postTmpl.ExecuteTemplate(w, "base", map[string]any{
		"Site": r.site,
		"Post": post,
		"Card": newCard(post),
		"Body": body,
	})
}

// Markdown converts src to HTML. Raw HTML in src is not passed through.
func (r *Renderer) Markdown(src string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("feed: render markdown: %w", err)
	}
	return template.HTML(buf.String()), nil //nolint:gosec // goldmark escapes raw HTML by default
}

// WriteRSS writes an RSS 2.0 channel with the first limit posts.
func (r *Renderer) WriteRSS(w io.Writer, posts []models.Post, limit int) error {
	if limit > 0 && len(posts) > limit {
		posts = posts[:limit]
	}
	channel := &feeds.Feed{
		Title:       r.site.Title,
		Link:        &feeds.Link{Href: r.site.BaseURL + "/blog"},
		Description: r.site.Description,
		Author:      &feeds.Author{Name: r.site.Author, Email: r.site.Email},
		Created:     time.Now(),
	}
	for _, p := range posts {
		content, err := r.Markdown(p.Content)
		if err != nil {
			return err
		}
		channel.Items = append(channel.Items, &feeds.Item{
			Id:          p.ID,
			Title:       p.Title,
			Link:        &feeds.Link{Href: r.site.BaseURL + "/blog/" + p.Slug},
			Description: p.Excerpt,
			Content:     string(content),
			Created:     p.PublishedDate,
			Updated:     p.LastModified,
		})
	}
	return channel.WriteRss(w)
}
