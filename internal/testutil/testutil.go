// Package testutil provides shared test helpers for stores, managers and
// content directories.
package testutil

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/weblithic/site/internal/blog"
	"github.com/weblithic/site/internal/docstore"
	"github.com/weblithic/site/internal/models"
)

// Logger returns a logger that discards everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestStore creates a temporary SQLite document store that is closed on cleanup.
func TestStore(t *testing.T) *docstore.SQLite {
	t.Helper()
	db, err := docstore.OpenSQLite(filepath.Join(t.TempDir(), "site-test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestManager creates a blog.Manager over a fresh TestStore. Detached view
// increments are awaited before the store closes.
func TestManager(t *testing.T, opts ...blog.ManagerOption) *blog.Manager {
	t.Helper()
	opts = append([]blog.ManagerOption{blog.WithLogger(Logger())}, opts...)
	m := blog.NewManager(TestStore(t), opts...)
	t.Cleanup(m.Wait)
	return m
}

// Post returns a valid, complete post input.
func Post(title, category string, status models.Status) models.PostInput {
	return models.PostInput{
		Title:    models.Ptr(title),
		Excerpt:  models.Ptr("Excerpt for " + title),
		Content:  models.Ptr("Body of " + title),
		Category: models.Ptr(category),
		Status:   models.Ptr(status),
	}
}

// MustCreate stores in and returns its ID.
func MustCreate(t *testing.T, m *blog.Manager, in models.PostInput) string {
	t.Helper()
	res := m.CreatePost(t.Context(), in)
	if !res.Success {
		t.Fatalf("CreatePost: %s", res.Error)
	}
	return res.Data
}

// WriteFile writes data to dir/rel, creating parent directories.
func WriteFile(t *testing.T, dir, rel, data string) {
	t.Helper()
	p := filepath.Join(dir, rel)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
}
