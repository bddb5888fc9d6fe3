package docstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/weblithic/site/internal/apperr"
	"github.com/weblithic/site/internal/models"
)

// serverNowSQLite evaluates to the database clock in unix milliseconds. SQLite keeps
// 'now' fixed for the duration of one statement.
const serverNowSQLite = `CAST(unixepoch('subsec') * 1000 AS INTEGER)`

const sqliteSchemaSQL = `
CREATE TABLE IF NOT EXISTS blog_posts (
	id             TEXT PRIMARY KEY,
	title          TEXT NOT NULL DEFAULT '',
	excerpt        TEXT NOT NULL DEFAULT '',
	content        TEXT NOT NULL DEFAULT '',
	category       TEXT NOT NULL DEFAULT '',
	slug           TEXT NOT NULL DEFAULT '',
	status         TEXT NOT NULL DEFAULT 'draft',
	published_date INTEGER NOT NULL,
	last_modified  INTEGER NOT NULL,
	views          INTEGER NOT NULL DEFAULT 0 CHECK (views >= 0)
);

CREATE INDEX IF NOT EXISTS idx_blog_posts_published ON blog_posts(published_date DESC);
CREATE INDEX IF NOT EXISTS idx_blog_posts_slug ON blog_posts(slug, status);
CREATE INDEX IF NOT EXISTS idx_blog_posts_category ON blog_posts(category);
`

const documentColumns = `id, title, excerpt, content, category, slug, status, published_date, last_modified, views`

// SQLite implements Store on a local SQLite database file.
type SQLite struct {
	conn *sql.DB
}

// OpenSQLite opens (or creates) the database at path and applies the schema.
func OpenSQLite(path string) (*SQLite, error) {
	conn, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("docstore: open sqlite: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("docstore: ping: %w", err)
	}
	if _, err := conn.Exec(sqliteSchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("docstore: apply schema: %w", err)
	}
	return &SQLite{conn: conn}, nil
}

// Insert implements Store.
func (s *SQLite) Insert(ctx context.Context, in models.PostInput) (string, error) {
	id := uuid.NewString()
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO blog_posts (id, title, excerpt, content, category, slug, status, published_date, last_modified, views)
		VALUES (?, ?, ?, ?, ?, ?, ?, `+serverNowSQLite+`, `+serverNowSQLite+`, 0)
	`, id, deref(in.Title), deref(in.Excerpt), deref(in.Content), deref(in.Category),
		deref(in.Slug), string(deref(in.Status)))
	if err != nil {
		return "", fmt.Errorf("docstore: insert: %w", err)
	}
	return id, nil
}

// Get implements Store.
func (s *SQLite) Get(ctx context.Context, id string) (*Document, error) {
	row := s.conn.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM blog_posts WHERE id = ?`, id)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("docstore: get %s: %w", id, err)
	}
	return doc, nil
}

// Find implements Store.
func (s *SQLite) Find(ctx context.Context, q Query) ([]Document, error) {
	var (
		where []string
		args  []any
	)
	if q.Status != "" {
		where = append(where, "status = ?")
		args = append(args, q.Status)
	}
	if q.Category != "" {
		where = append(where, "category = ?")
		args = append(args, q.Category)
	}
	if q.Slug != "" {
		where = append(where, "slug = ?")
		args = append(args, q.Slug)
	}

	query := `SELECT ` + documentColumns + ` FROM blog_posts`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	// rowid breaks ties between documents stamped in the same millisecond.
	query += ` ORDER BY published_date DESC, rowid DESC`
	if q.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, q.Limit)
	}

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("docstore: find: %w", err)
	}
	defer rows.Close()

	out := []Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("docstore: scan: %w", err)
		}
		out = append(out, *doc)
	}
	return out, rows.Err()
}

// Update implements Store.
func (s *SQLite) Update(ctx context.Context, id string, in models.PostInput) error {
	sets := []string{"last_modified = " + serverNowSQLite}
	var args []any
	for _, c := range inputColumns(in) {
		sets = append(sets, c.name+" = ?")
		args = append(args, c.value)
	}
	args = append(args, id)

	res, err := s.conn.ExecContext(ctx,
		`UPDATE blog_posts SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return fmt.Errorf("docstore: update %s: %w", id, err)
	}
	return requireAffected(res)
}

// Delete implements Store.
func (s *SQLite) Delete(ctx context.Context, id string) error {
	res, err := s.conn.ExecContext(ctx, `DELETE FROM blog_posts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("docstore: delete %s: %w", id, err)
	}
	return requireAffected(res)
}

// IncrementViews implements Store.
func (s *SQLite) IncrementViews(ctx context.Context, id string) error {
	res, err := s.conn.ExecContext(ctx, `UPDATE blog_posts SET views = views + 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("docstore: increment views %s: %w", id, err)
	}
	return requireAffected(res)
}

// Ping implements Store.
func (s *SQLite) Ping(ctx context.Context) error {
	return s.conn.PingContext(ctx)
}

// Close implements Store.
func (s *SQLite) Close() error {
	return s.conn.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*Document, error) {
	var d Document
	var published, modified int64
	if err := row.Scan(&d.ID, &d.Title, &d.Excerpt, &d.Content, &d.Category, &d.Slug,
		&d.Status, &published, &modified, &d.Views); err != nil {
		return nil, err
	}
	d.PublishedDate = Timestamp(published)
	d.LastModified = Timestamp(modified)
	return &d, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("docstore: rows affected: %w", err)
	}
	if n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}
