package cache

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/weblithic/site/internal/models"
)

func testRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewRedis(rdb, time.Minute, logger), mr
}

func TestRedis_SetGet(t *testing.T) {
	c, _ := testRedis(t)
	ctx := context.Background()
	filter := models.PostFilter{Status: models.StatusPublished}

	_, gen, ok := c.Get(ctx, filter)
	if ok {
		t.Fatal("empty cache should miss")
	}
	c.Set(ctx, gen, filter, []models.Post{{ID: "1", Title: "One"}, {ID: "2", Title: "Two"}})

	got, _, ok := c.Get(ctx, filter)
	if !ok {
		t.Fatal("expected hit after Set")
	}
	if len(got) != 2 || got[0].Title != "One" {
		t.Errorf("got = %+v", got)
	}

	// A different filter is a different key.
	if _, _, ok := c.Get(ctx, models.PostFilter{Status: models.StatusPublished, Category: "Tech"}); ok {
		t.Error("different filter should miss")
	}
}

func TestRedis_EmptyListIsHit(t *testing.T) {
	c, _ := testRedis(t)
	ctx := context.Background()
	_, gen, _ := c.Get(ctx, models.PostFilter{})
	c.Set(ctx, gen, models.PostFilter{}, []models.Post{})
	got, _, ok := c.Get(ctx, models.PostFilter{})
	if !ok {
		t.Fatal("expected hit")
	}
	if got == nil || len(got) != 0 {
		t.Errorf("got = %#v, want empty slice", got)
	}
}

func TestRedis_Invalidate(t *testing.T) {
	c, _ := testRedis(t)
	ctx := context.Background()
	filter := models.PostFilter{Status: models.StatusPublished}
	_, gen, _ := c.Get(ctx, filter)
	c.Set(ctx, gen, filter, []models.Post{{ID: "1"}})

	c.Invalidate(ctx)
	if _, _, ok := c.Get(ctx, filter); ok {
		t.Error("listing should miss after Invalidate")
	}
}

func TestRedis_SetAfterInvalidateIsNotServed(t *testing.T) {
	c, _ := testRedis(t)
	ctx := context.Background()
	filter := models.PostFilter{Status: models.StatusPublished}

	_, before, _ := c.Get(ctx, filter)
	c.Invalidate(ctx)
	c.Set(ctx, before, filter, []models.Post{{ID: "stale"}})

	if got, _, ok := c.Get(ctx, filter); ok {
		t.Errorf("listing read before Invalidate was served: %+v", got)
	}
}

func TestRedis_Expiry(t *testing.T) {
	c, mr := testRedis(t)
	ctx := context.Background()
	_, gen, _ := c.Get(ctx, models.PostFilter{})
	c.Set(ctx, gen, models.PostFilter{}, []models.Post{{ID: "1"}})
	mr.FastForward(2 * time.Minute)
	if _, _, ok := c.Get(ctx, models.PostFilter{}); ok {
		t.Error("listing should expire after ttl")
	}
}

func TestRedis_UnavailableIsMiss(t *testing.T) {
	c, mr := testRedis(t)
	mr.Close()
	ctx := context.Background()
	_, gen, ok := c.Get(ctx, models.PostFilter{})
	if ok || gen != NoGeneration {
		t.Fatalf("Get = (%d, %v), want NoGeneration miss", gen, ok)
	}
	c.Set(ctx, gen, models.PostFilter{}, []models.Post{{ID: "1"}})
	c.Invalidate(ctx)
}

func TestNop(t *testing.T) {
	var c FeedCache = Nop{}
	c.Set(context.Background(), 0, models.PostFilter{}, []models.Post{{ID: "1"}})
	if _, _, ok := c.Get(context.Background(), models.PostFilter{}); ok {
		t.Error("Nop should never hit")
	}
}
