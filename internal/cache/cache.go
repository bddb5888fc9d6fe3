// Package cache keeps recently listed post feeds out of the document store.
package cache

import (
	"context"

	"github.com/weblithic/site/internal/models"
)

// Generation identifies the cache state a listing was read against. A
// listing stored under an old generation is never served.
type Generation int64

// NoGeneration is returned when the generation could not be read; Set
// ignores it.
const NoGeneration Generation = -1

// FeedCache stores post listings keyed by filter. Implementations treat
// their own failures as cache misses.
type FeedCache interface {
	// Get returns the cached listing and, on a miss, the generation to pass
	// to Set once the listing has been read from the store.
	Get(ctx context.Context, filter models.PostFilter) ([]models.Post, Generation, bool)
	Set(ctx context.Context, gen Generation, filter models.PostFilter, posts []models.Post)
	// Invalidate drops every cached listing.
	Invalidate(ctx context.Context)
}

// Nop is a FeedCache that never hits.
type Nop struct{}

func (Nop) Get(context.Context, models.PostFilter) ([]models.Post, Generation, bool) {
	return nil, NoGeneration, false
}
func (Nop) Set(context.Context, Generation, models.PostFilter, []models.Post) {}
func (Nop) Invalidate(context.Context)                                        {}
