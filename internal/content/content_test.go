package content

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/weblithic/site/internal/blog"
	"github.com/weblithic/site/internal/models"
	"github.com/weblithic/site/internal/testutil"
)

const hello = `---
title: Hello World
excerpt: A first post.
category: News
status: published
---

Welcome to the blog.
`

func TestParse(t *testing.T) {
	f, err := Parse([]byte(hello))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if f.Frontmatter.Title != "Hello World" {
		t.Errorf("title = %q", f.Frontmatter.Title)
	}
	if f.Body != "Welcome to the blog." {
		t.Errorf("body = %q", f.Body)
	}
	in := f.Input()
	if in.Slug != nil {
		t.Errorf("slug should be unset, got %q", *in.Slug)
	}
	if in.Status == nil || *in.Status != models.StatusPublished {
		t.Errorf("status = %v", in.Status)
	}
}

func TestParseTitleFromHeading(t *testing.T) {
	f, err := Parse([]byte("---\nexcerpt: x\n---\n# From Heading\n\ntext"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if f.Frontmatter.Title != "From Heading" {
		t.Errorf("title = %q, want %q", f.Frontmatter.Title, "From Heading")
	}
}

func TestParseErrors(t *testing.T) {
	if _, err := Parse([]byte("# Just markdown")); !errors.Is(err, ErrNoFrontmatter) {
		t.Errorf("err = %v, want ErrNoFrontmatter", err)
	}
	if _, err := Parse([]byte("---\ntitle: x\nno closing")); !errors.Is(err, ErrNoFrontmatter) {
		t.Errorf("err = %v, want ErrNoFrontmatter", err)
	}
	if _, err := Parse([]byte("---\ntitle: [unclosed\n---\nbody")); err == nil {
		t.Error("expected yaml error")
	}
}

func TestDirRejectsEscape(t *testing.T) {
	d, err := NewDir(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := d.Read("../secret.md"); err == nil {
		t.Error("expected traversal error")
	}
	if _, err := NewDir(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected error for missing root")
	}
}

func testImporter(t *testing.T) (string, *Importer, *blog.Manager) {
	t.Helper()
	root := t.TempDir()
	d, err := NewDir(root)
	if err != nil {
		t.Fatal(err)
	}
	m := testutil.TestManager(t)
	return root, NewImporter(d, m, testutil.Logger()), m
}

func TestSyncCreatesAndSkipsUnchanged(t *testing.T) {
	root, im, m := testImporter(t)
	testutil.WriteFile(t, root, "hello.md", hello)
	testutil.WriteFile(t, root, "notes/readme.txt", "ignored")

	rep, err := im.Sync(t.Context())
	if err != nil {
		t.Fatal(err)
	}
	if rep.Created != 1 || rep.Failed != 0 {
		t.Fatalf("report = %+v", rep)
	}
	res := m.LookupSlug(t.Context(), "hello-world")
	if !res.Success {
		t.Fatalf("imported post not found: %s", res.Error)
	}
	if res.Data.Content != "Welcome to the blog." {
		t.Errorf("content = %q", res.Data.Content)
	}

	rep, _ = im.Sync(t.Context())
	if rep.Unchanged != 1 || rep.Created != 0 || rep.Updated != 0 {
		t.Errorf("second sync = %+v, want one unchanged", rep)
	}

	// A fresh importer has no checksums but still recognises the post.
	d, _ := NewDir(root)
	rep, _ = NewImporter(d, m, testutil.Logger()).Sync(t.Context())
	if rep.Unchanged != 1 || rep.Created != 0 || rep.Updated != 0 {
		t.Errorf("restart sync = %+v, want one unchanged", rep)
	}

	all := m.GetAllPosts(t.Context(), models.PostFilter{})
	if len(all.Data) != 1 {
		t.Errorf("posts = %d, want 1", len(all.Data))
	}
}

func TestSyncUpdatesChangedFile(t *testing.T) {
	root, im, m := testImporter(t)
	testutil.WriteFile(t, root, "hello.md", hello)
	if _, err := im.Sync(t.Context()); err != nil {
		t.Fatal(err)
	}
	testutil.WriteFile(t, root, "hello.md", hello+"\nMore text.\n")

	rep, err := im.Sync(t.Context())
	if err != nil {
		t.Fatal(err)
	}
	if rep.Updated != 1 {
		t.Fatalf("report = %+v, want one update", rep)
	}
	res := m.LookupSlug(t.Context(), "hello-world")
	if res.Data.Content != "Welcome to the blog.\n\nMore text." {
		t.Errorf("content = %q", res.Data.Content)
	}
}

func TestSyncReportsInvalidFiles(t *testing.T) {
	root, im, _ := testImporter(t)
	testutil.WriteFile(t, root, "plain.md", "# no frontmatter")
	testutil.WriteFile(t, root, "incomplete.md", "---\ntitle: Only a title\n---\nbody")

	rep, err := im.Sync(t.Context())
	if err != nil {
		t.Fatal(err)
	}
	if rep.Failed != 2 || rep.Created != 0 {
		t.Errorf("report = %+v, want two failures", rep)
	}
}

func TestWatchImportsNewFile(t *testing.T) {
	root := t.TempDir()
	d, err := NewDir(root)
	if err != nil {
		t.Fatal(err)
	}
	m := testutil.TestManager(t)
	im := NewImporter(d, m, testutil.Logger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = Watch(ctx, im, 50*time.Millisecond, testutil.Logger())
		close(done)
	}()
	defer func() {
		cancel()
		<-done
	}()

	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(root, "hello.md"), []byte(hello), 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if m.LookupSlug(t.Context(), "hello-world").Success {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatal("watcher did not import the new file")
}
