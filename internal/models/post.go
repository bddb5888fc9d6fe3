// Package models defines the domain types for the blog.
package models

import "time"

// Status is the publication state of a post.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusDraft || s == StatusPublished
}

// Post is a blog article with its publication metadata.
type Post struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Excerpt       string    `json:"excerpt"`
	Content       string    `json:"content"`
	Category      string    `json:"category"`
	Slug          string    `json:"slug"`
	Status        Status    `json:"status"`
	PublishedDate time.Time `json:"published_date"`
	LastModified  time.Time `json:"last_modified"`
	Views         int64     `json:"views"`
}

// PostInput is a partial post. Nil fields were not supplied by the caller.
type PostInput struct {
	Title    *string `json:"title,omitempty"`
	Excerpt  *string `json:"excerpt,omitempty"`
	Content  *string `json:"content,omitempty"`
	Category *string `json:"category,omitempty"`
	Slug     *string `json:"slug,omitempty"`
	Status   *Status `json:"status,omitempty"`
}

// Empty reports whether no field is set.
func (in PostInput) Empty() bool {
	return in.Title == nil && in.Excerpt == nil && in.Content == nil &&
		in.Category == nil && in.Slug == nil && in.Status == nil
}

// PostFilter narrows a listing. Empty fields match everything.
type PostFilter struct {
	Status   Status `json:"status,omitempty"`
	Category string `json:"category,omitempty"`
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
