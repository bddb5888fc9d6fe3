// Package docstore persists blog post documents in the blog_posts collection.
//
// Stores assign document identity, stamp timestamps from the database clock and
// increment counters in a single statement, so callers never supply those values.
package docstore

import (
	"context"
	"time"

	"github.com/weblithic/site/internal/models"
)

// Collection is the name of the table (collection) that holds post documents.
const Collection = "blog_posts"

// Timestamp is a server-assigned instant in the store's native encoding
// (unix milliseconds).
type Timestamp int64

// Time converts the timestamp to a UTC time.Time.
func (t Timestamp) Time() time.Time {
	if t == 0 {
		return time.Time{}
	}
	return time.UnixMilli(int64(t)).UTC()
}

// TimestampOf converts a time.Time to the store encoding.
func TimestampOf(t time.Time) Timestamp {
	if t.IsZero() {
		return 0
	}
	return Timestamp(t.UnixMilli())
}

// Document is a stored post exactly as the store returns it.
type Document struct {
	ID            string
	Title         string
	Excerpt       string
	Content       string
	Category      string
	Slug          string
	Status        string
	PublishedDate Timestamp
	LastModified  Timestamp
	Views         int64
}

// Query selects documents. Empty fields match everything; Limit <= 0 means no limit.
// Results are always ordered newest published first.
type Query struct {
	Status   string
	Category string
	Slug     string
	Limit    int
}

// Store is the document store contract used by the blog manager.
type Store interface {
	// Insert adds a document and returns its store-assigned ID. PublishedDate and
	// LastModified are stamped by the store, Views starts at 0.
	Insert(ctx context.Context, in models.PostInput) (string, error)
	// Get returns the document with the given ID or apperr.ErrNotFound.
	Get(ctx context.Context, id string) (*Document, error)
	// Find returns documents matching q ordered by PublishedDate descending.
	Find(ctx context.Context, q Query) ([]Document, error)
	// Update applies the supplied fields and re-stamps LastModified.
	// Returns apperr.ErrNotFound when the ID does not exist.
	Update(ctx context.Context, id string, in models.PostInput) error
	// Delete removes the document permanently.
	// Returns apperr.ErrNotFound when the ID does not exist.
	Delete(ctx context.Context, id string) error
	// IncrementViews atomically adds one to the document's view counter.
	IncrementViews(ctx context.Context, id string) error
	// Ping checks connectivity.
	Ping(ctx context.Context) error
	// Close releases the underlying connections.
	Close() error
}

// column is one field of a partial update.
type column struct {
	name  string
	value any
}

// inputColumns lists the supplied fields of in, in a stable order.
func inputColumns(in models.PostInput) []column {
	var cols []column
	add := func(name string, v *string) {
		if v != nil {
			cols = append(cols, column{name: name, value: *v})
		}
	}
	add("title", in.Title)
	add("excerpt", in.Excerpt)
	add("content", in.Content)
	add("category", in.Category)
	add("slug", in.Slug)
	if in.Status != nil {
		cols = append(cols, column{name: "status", value: string(*in.Status)})
	}
	return cols
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
