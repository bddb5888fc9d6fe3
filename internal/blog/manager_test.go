package blog

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/weblithic/site/internal/cache"
	"github.com/weblithic/site/internal/docstore"
	"github.com/weblithic/site/internal/models"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testStore(t *testing.T) *docstore.SQLite {
	t.Helper()
	db, err := docstore.OpenSQLite(filepath.Join(t.TempDir(), "blog-test.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testManager(t *testing.T, opts ...ManagerOption) *Manager {
	t.Helper()
	opts = append([]ManagerOption{WithLogger(discardLogger())}, opts...)
	m := NewManager(testStore(t), opts...)
	t.Cleanup(m.Wait)
	return m
}

func samplePost(title, category string, status models.Status) models.PostInput {
	return models.PostInput{
		Title:    models.Ptr(title),
		Excerpt:  models.Ptr("About " + title),
		Content:  models.Ptr("# " + title + "\n\nBody."),
		Category: models.Ptr(category),
		Status:   models.Ptr(status),
	}
}

func mustCreate(t *testing.T, m *Manager, in models.PostInput) string {
	t.Helper()
	res := m.CreatePost(context.Background(), in)
	if !res.Success {
		t.Fatalf("CreatePost: %s", res.Error)
	}
	return res.Data
}

// failingStore rejects every call with err, or panics when err is nil.
type failingStore struct {
	docstore.Store
	err error
}

func (f failingStore) fail() error {
	if f.err == nil {
		panic("store exploded")
	}
	return f.err
}

func (f failingStore) Insert(context.Context, models.PostInput) (string, error) { return "", f.fail() }
func (f failingStore) Get(context.Context, string) (*docstore.Document, error) { return nil, f.fail() }
func (f failingStore) Find(context.Context, docstore.Query) ([]docstore.Document, error) {
	return nil, f.fail()
}
func (f failingStore) Update(context.Context, string, models.PostInput) error { return f.fail() }
func (f failingStore) Delete(context.Context, string) error                   { return f.fail() }
func (f failingStore) IncrementViews(context.Context, string) error           { return f.fail() }

func TestCreateAndGetRoundTrip(t *testing.T) {
	m := testManager(t)
	ctx := context.Background()
	in := samplePost("Latest Web Design Trends", "Web Design", models.StatusPublished)
	in.Slug = models.Ptr("web-design-trends-2026")

	id := mustCreate(t, m, in)
	res := m.GetPostByID(ctx, id)
	if !res.Success {
		t.Fatalf("GetPostByID: %s", res.Error)
	}
	p := res.Data
	if p.ID != id {
		t.Errorf("id = %q, want %q", p.ID, id)
	}
	if p.Title != *in.Title || p.Excerpt != *in.Excerpt || p.Content != *in.Content ||
		p.Category != *in.Category || p.Slug != *in.Slug || p.Status != *in.Status {
		t.Errorf("editable fields differ: %+v", p)
	}
	if p.Views != 0 {
		t.Errorf("views = %d, want 0", p.Views)
	}
	if p.PublishedDate.IsZero() {
		t.Error("published date not set")
	}
	if p.PublishedDate.Location() != time.UTC {
		t.Error("timestamps should be normalized to UTC")
	}
	if p.LastModified.Before(p.PublishedDate) {
		t.Error("last modified before published date")
	}
}

func TestCreateDefaults(t *testing.T) {
	m := testManager(t)
	in := samplePost("Hello, World! 2026", "Tech", "")
	in.Status = nil

	id := mustCreate(t, m, in)
	p := m.GetPostByID(context.Background(), id).Data
	if p.Slug != "hello-world-2026" {
		t.Errorf("slug = %q, want derived from title", p.Slug)
	}
	if p.Status != models.StatusDraft {
		t.Errorf("status = %q, want draft", p.Status)
	}
}

func TestCreateValidationDoesNoIO(t *testing.T) {
	m := NewManager(failingStore{}, WithLogger(discardLogger()))
	res := m.CreatePost(context.Background(), models.PostInput{})
	if res.Success {
		t.Fatal("expected validation failure")
	}
	if res.Kind != KindValidation {
		t.Errorf("kind = %q, want validation", res.Kind)
	}
	if len(res.Errors) != 4 {
		t.Errorf("errors = %q", res.Errors)
	}
}

func TestCreateUnsluggableTitle(t *testing.T) {
	m := testManager(t)
	res := m.CreatePost(context.Background(), samplePost("!!!", "Tech", models.StatusDraft))
	if res.Success || res.Kind != KindValidation {
		t.Errorf("res = %+v, want validation failure", res)
	}
}

func TestStoreErrorIsPassedThrough(t *testing.T) {
	m := NewManager(failingStore{err: errors.New("connection refused")}, WithLogger(discardLogger()))
	ctx := context.Background()

	res := m.CreatePost(ctx, samplePost("Title", "Tech", models.StatusDraft))
	if res.Success || res.Error != "connection refused" || res.Kind != KindStore {
		t.Errorf("create = %+v", res)
	}

	list := m.GetAllPosts(ctx, models.PostFilter{})
	if list.Success || list.Error != "connection refused" {
		t.Errorf("list = %+v", list)
	}
	if list.Data == nil || len(list.Data) != 0 {
		t.Errorf("failed list payload = %#v, want empty list", list.Data)
	}

	if r := m.GetPostByID(ctx, "x"); r.Success || r.Kind != KindStore {
		t.Errorf("get = %+v", r)
	}
	if r := m.UpdatePost(ctx, "x", models.PostInput{}); r.Success || r.Kind != KindStore {
		t.Errorf("update = %+v", r)
	}
	if r := m.DeletePost(ctx, "x"); r.Success || r.Kind != KindStore {
		t.Errorf("delete = %+v", r)
	}
}

func TestStorePanicIsCaptured(t *testing.T) {
	m := NewManager(failingStore{}, WithLogger(discardLogger()))
	res := m.GetPostBySlug(context.Background(), "anything")
	if res.Success {
		t.Fatal("expected failure")
	}
	if !strings.Contains(res.Error, "store exploded") {
		t.Errorf("error = %q", res.Error)
	}
}

func TestGetAllPostsFiltersAndOrder(t *testing.T) {
	m := testManager(t)
	ctx := context.Background()
	specs := []struct {
		title    string
		category string
		status   models.Status
	}{
		{"one", "Design", models.StatusPublished},
		{"two", "Development", models.StatusDraft},
		{"three", "Design", models.StatusDraft},
		{"four", "Development", models.StatusPublished},
		{"five", "Design", models.StatusPublished},
	}
	for _, s := range specs {
		mustCreate(t, m, samplePost(s.title, s.category, s.status))
		time.Sleep(2 * time.Millisecond)
	}

	filters := []struct {
		filter models.PostFilter
		want   int
	}{
		{models.PostFilter{}, 5},
		{models.PostFilter{Status: models.StatusPublished}, 3},
		{models.PostFilter{Status: models.StatusDraft}, 2},
		{models.PostFilter{Category: "Design"}, 3},
		{models.PostFilter{Status: models.StatusPublished, Category: "Design"}, 2},
		{models.PostFilter{Status: models.StatusDraft, Category: "Marketing"}, 0},
	}
	for _, f := range filters {
		res := m.GetAllPosts(ctx, f.filter)
		if !res.Success {
			t.Fatalf("GetAllPosts(%+v): %s", f.filter, res.Error)
		}
		if len(res.Data) != f.want {
			t.Errorf("GetAllPosts(%+v) = %d posts, want %d", f.filter, len(res.Data), f.want)
		}
		for i := 1; i < len(res.Data); i++ {
			if res.Data[i].PublishedDate.After(res.Data[i-1].PublishedDate) {
				t.Errorf("GetAllPosts(%+v) not newest first at %d", f.filter, i)
			}
		}
	}

	newest := m.GetAllPosts(ctx, models.PostFilter{Status: models.StatusPublished, Category: "Design"}).Data
	if newest[0].Title != "five" {
		t.Errorf("newest = %q, want five", newest[0].Title)
	}
}

func TestGetPostByID_NotFound(t *testing.T) {
	m := testManager(t)
	res := m.GetPostByID(context.Background(), "does-not-exist")
	if res.Success || res.Kind != KindNotFound || res.Error != MsgNotFound {
		t.Errorf("res = %+v", res)
	}
}

func TestGetPostBySlug(t *testing.T) {
	m := testManager(t)
	ctx := context.Background()

	draft := samplePost("Secret Draft", "Tech", models.StatusDraft)
	mustCreate(t, m, draft)
	id := mustCreate(t, m, samplePost("Mobile First", "Mobile", models.StatusPublished))

	res := m.GetPostBySlug(ctx, "mobile-first")
	if !res.Success {
		t.Fatalf("GetPostBySlug: %s", res.Error)
	}
	if res.Data.ID != id {
		t.Errorf("id = %q, want %q", res.Data.ID, id)
	}
	if res.Data.Views != 0 {
		t.Errorf("returned views = %d, want value read before increment", res.Data.Views)
	}

	m.Wait()
	if got := m.GetPostByID(ctx, id).Data.Views; got != 1 {
		t.Errorf("views after slug fetch = %d, want 1", got)
	}

	// Drafts are not reachable by slug.
	if r := m.GetPostBySlug(ctx, "secret-draft"); r.Success || r.Kind != KindNotFound {
		t.Errorf("draft by slug = %+v", r)
	}
	// LookupSlug sees drafts and does not count a view.
	if r := m.LookupSlug(ctx, "secret-draft"); !r.Success {
		t.Errorf("LookupSlug draft: %s", r.Error)
	}
}

func TestGetPostBySlug_NotFoundNeverPanics(t *testing.T) {
	m := testManager(t)
	for _, slug := range []string{"", "nope", "../../etc"} {
		res := m.GetPostBySlug(context.Background(), slug)
		if res.Success || res.Error != MsgNotFound {
			t.Errorf("GetPostBySlug(%q) = %+v", slug, res)
		}
	}
}

func TestViewIncrementFailureIsSwallowed(t *testing.T) {
	store := testStore(t)
	m := NewManager(store, WithLogger(discardLogger()))
	ctx := context.Background()
	id := mustCreate(t, m, samplePost("Gone Soon", "Tech", models.StatusPublished))

	res := m.GetPostBySlug(ctx, "gone-soon")
	// Delete races the detached increment; neither outcome may surface.
	_ = store.Delete(ctx, id)
	m.Wait()
	if !res.Success {
		t.Errorf("caller result affected by increment: %+v", res)
	}
}

func TestUpdatePost(t *testing.T) {
	m := testManager(t)
	ctx := context.Background()
	id := mustCreate(t, m, samplePost("Original", "Tech", models.StatusDraft))
	before := m.GetPostByID(ctx, id).Data
	time.Sleep(5 * time.Millisecond)

	res := m.UpdatePost(ctx, id, models.PostInput{
		Content: models.Ptr("new body"),
		Status:  models.Ptr(models.StatusPublished),
	})
	if !res.Success {
		t.Fatalf("UpdatePost: %s", res.Error)
	}
	after := m.GetPostByID(ctx, id).Data
	if after.Content != "new body" || after.Status != models.StatusPublished {
		t.Errorf("after = %+v", after)
	}
	if after.Title != before.Title {
		t.Error("unsupplied field changed")
	}
	if !after.LastModified.After(before.LastModified) {
		t.Error("last modified not re-stamped")
	}
}

func TestUpdatePost_Invalid(t *testing.T) {
	m := testManager(t)
	id := mustCreate(t, m, samplePost("Original", "Tech", models.StatusDraft))
	res := m.UpdatePost(context.Background(), id, models.PostInput{Excerpt: models.Ptr(strings.Repeat("x", 251))})
	if res.Success || res.Kind != KindValidation {
		t.Errorf("res = %+v", res)
	}
}

func TestUpdatePost_EmptySlugRegenerated(t *testing.T) {
	m := testManager(t)
	ctx := context.Background()
	id := mustCreate(t, m, samplePost("Original", "Tech", models.StatusDraft))
	res := m.UpdatePost(ctx, id, models.PostInput{Title: models.Ptr("Renamed Post"), Slug: models.Ptr("")})
	if !res.Success {
		t.Fatalf("UpdatePost: %s", res.Error)
	}
	if got := m.GetPostByID(ctx, id).Data.Slug; got != "renamed-post" {
		t.Errorf("slug = %q, want renamed-post", got)
	}
}

func TestUpdatePost_UnsluggableTitle(t *testing.T) {
	m := testManager(t)
	ctx := context.Background()
	id := mustCreate(t, m, samplePost("Original", "Tech", models.StatusDraft))
	res := m.UpdatePost(ctx, id, models.PostInput{Title: models.Ptr("!!!"), Slug: models.Ptr("")})
	if res.Success || res.Kind != KindValidation {
		t.Fatalf("UpdatePost = %+v, want validation failure", res)
	}
	if got := m.GetPostByID(ctx, id).Data; got.Slug != "original" || got.Title != "Original" {
		t.Errorf("post changed to %q/%q", got.Title, got.Slug)
	}
}

func TestUpdatePost_NotFound(t *testing.T) {
	m := testManager(t)
	res := m.UpdatePost(context.Background(), "missing", models.PostInput{Title: models.Ptr("x")})
	if res.Success || res.Kind != KindNotFound {
		t.Errorf("res = %+v", res)
	}
}

func TestDeletePost_SecondDeleteIsNotFound(t *testing.T) {
	m := testManager(t)
	ctx := context.Background()
	id := mustCreate(t, m, samplePost("Doomed", "Tech", models.StatusPublished))

	if res := m.DeletePost(ctx, id); !res.Success {
		t.Fatalf("DeletePost: %s", res.Error)
	}
	res := m.DeletePost(ctx, id)
	if res.Success || res.Kind != KindNotFound {
		t.Errorf("second delete = %+v, want not found", res)
	}
	if r := m.GetPostByID(ctx, id); r.Success {
		t.Error("post still readable after delete")
	}
}

type cachedListing struct {
	gen   cache.Generation
	posts []models.Post
}

// recordingCache mimics the redis cache: listings are tagged with the
// generation handed out by Get and Invalidate bumps the generation.
type recordingCache struct {
	mu          sync.Mutex
	gen         cache.Generation
	data        map[models.PostFilter]cachedListing
	invalidated int
}

func newRecordingCache() *recordingCache {
	return &recordingCache{data: map[models.PostFilter]cachedListing{}}
}

func (c *recordingCache) Get(_ context.Context, f models.PostFilter) ([]models.Post, cache.Generation, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.data[f]
	if !ok || l.gen != c.gen {
		return nil, c.gen, false
	}
	return l.posts, c.gen, true
}

func (c *recordingCache) Set(_ context.Context, gen cache.Generation, f models.PostFilter, posts []models.Post) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[f] = cachedListing{gen: gen, posts: posts}
}

func (c *recordingCache) Invalidate(context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.invalidated++
}

func (c *recordingCache) invalidations() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.invalidated
}

func TestCacheAndNotifications(t *testing.T) {
	c := newRecordingCache()
	var events []Event
	m := testManager(t, WithCache(c), WithNotifier(func(e Event, _ string) { events = append(events, e) }))
	ctx := context.Background()
	published := models.PostFilter{Status: models.StatusPublished}

	id := mustCreate(t, m, samplePost("Cached", "Tech", models.StatusPublished))
	if got := len(m.GetAllPosts(ctx, published).Data); got != 1 {
		t.Fatalf("posts = %d, want 1", got)
	}
	if _, _, hit := c.Get(ctx, published); !hit {
		t.Fatal("listing should be cached")
	}

	m.UpdatePost(ctx, id, models.PostInput{Title: models.Ptr("Renamed")})
	if _, _, hit := c.Get(ctx, published); hit {
		t.Error("update should invalidate the cache")
	}
	if got := m.GetAllPosts(ctx, published).Data[0].Title; got != "Renamed" {
		t.Errorf("title = %q, want fresh value after invalidation", got)
	}

	m.DeletePost(ctx, id)
	want := []Event{EventCreated, EventUpdated, EventDeleted}
	if len(events) != len(want) {
		t.Fatalf("events = %v, want %v", events, want)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Errorf("events[%d] = %q, want %q", i, events[i], want[i])
		}
	}
	if n := c.invalidations(); n != 3 {
		t.Errorf("invalidated = %d, want 3", n)
	}
}

// mutatingStore runs mutate once, after the first listing has been read and
// before it is returned.
type mutatingStore struct {
	docstore.Store
	once   sync.Once
	mutate func()
}

func (s *mutatingStore) Find(ctx context.Context, q docstore.Query) ([]docstore.Document, error) {
	docs, err := s.Store.Find(ctx, q)
	s.once.Do(s.mutate)
	return docs, err
}

func TestListingReadBeforeMutationIsNotCached(t *testing.T) {
	store := &mutatingStore{Store: testStore(t)}
	m := NewManager(store, WithLogger(discardLogger()), WithCache(newRecordingCache()))
	t.Cleanup(m.Wait)
	ctx := context.Background()
	published := models.PostFilter{Status: models.StatusPublished}

	mustCreate(t, m, samplePost("First", "Tech", models.StatusPublished))
	store.mutate = func() {
		mustCreate(t, m, samplePost("Second", "Tech", models.StatusPublished))
	}

	if got := len(m.GetAllPosts(ctx, published).Data); got != 1 {
		t.Fatalf("first listing = %d posts, want 1", got)
	}
	if got := len(m.GetAllPosts(ctx, published).Data); got != 2 {
		t.Errorf("second listing = %d posts, want 2", got)
	}
}

func TestViewIncrementInvalidatesCache(t *testing.T) {
	c := newRecordingCache()
	m := testManager(t, WithCache(c))
	ctx := context.Background()
	published := models.PostFilter{Status: models.StatusPublished}

	mustCreate(t, m, samplePost("Viewed Post", "Tech", models.StatusPublished))
	if got := m.GetAllPosts(ctx, published).Data[0].Views; got != 0 {
		t.Fatalf("views = %d, want 0", got)
	}
	if res := m.GetPostBySlug(ctx, "viewed-post"); !res.Success {
		t.Fatalf("GetPostBySlug: %s", res.Error)
	}
	m.Wait()

	if _, _, hit := c.Get(ctx, published); hit {
		t.Error("view increment should invalidate the cache")
	}
	if got := m.GetAllPosts(ctx, published).Data[0].Views; got != 1 {
		t.Errorf("views = %d, want 1", got)
	}
}

type slowStore struct {
	docstore.Store
}

func (slowStore) Find(ctx context.Context, _ docstore.Query) ([]docstore.Document, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestTimeoutBoundsHungStore(t *testing.T) {
	m := NewManager(slowStore{}, WithLogger(discardLogger()), WithTimeout(20*time.Millisecond))
	start := time.Now()
	res := m.GetAllPosts(context.Background(), models.PostFilter{})
	if res.Success {
		t.Fatal("expected failure from hung store")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("call took %v, timeout not applied", elapsed)
	}
}
