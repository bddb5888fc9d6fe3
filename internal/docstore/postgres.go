package docstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/weblithic/site/internal/apperr"
	"github.com/weblithic/site/internal/models"
)

// serverNowPostgres is the transaction clock in unix milliseconds.
const serverNowPostgres = `(EXTRACT(EPOCH FROM now()) * 1000)::BIGINT`

const postgresSchemaSQL = `
CREATE TABLE IF NOT EXISTS blog_posts (
	seq            BIGSERIAL,
	id             TEXT PRIMARY KEY,
	title          TEXT NOT NULL DEFAULT '',
	excerpt        TEXT NOT NULL DEFAULT '',
	content        TEXT NOT NULL DEFAULT '',
	category       TEXT NOT NULL DEFAULT '',
	slug           TEXT NOT NULL DEFAULT '',
	status         TEXT NOT NULL DEFAULT 'draft',
	published_date BIGINT NOT NULL,
	last_modified  BIGINT NOT NULL,
	views          BIGINT NOT NULL DEFAULT 0 CHECK (views >= 0)
);

CREATE INDEX IF NOT EXISTS idx_blog_posts_published ON blog_posts(published_date DESC);
CREATE INDEX IF NOT EXISTS idx_blog_posts_slug ON blog_posts(slug, status);
CREATE INDEX IF NOT EXISTS idx_blog_posts_category ON blog_posts(category);
`

// Postgres implements Store on a PostgreSQL connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects to dsn and applies the schema.
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("docstore: connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("docstore: ping: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchemaSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("docstore: apply schema: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// Insert implements Store.
func (p *Postgres) Insert(ctx context.Context, in models.PostInput) (string, error) {
	id := uuid.NewString()
	_, err := p.pool.Exec(ctx, `
		INSERT INTO blog_posts (id, title, excerpt, content, category, slug, status, published_date, last_modified, views)
		VALUES ($1, $2, $3, $4, $5, $6, $7, `+serverNowPostgres+`, `+serverNowPostgres+`, 0)
	`, id, deref(in.Title), deref(in.Excerpt), deref(in.Content), deref(in.Category),
		deref(in.Slug), string(deref(in.Status)))
	if err != nil {
		return "", fmt.Errorf("docstore: insert: %w", err)
	}
	return id, nil
}

// Get implements Store.
func (p *Postgres) Get(ctx context.Context, id string) (*Document, error) {
	row := p.pool.QueryRow(ctx, `SELECT `+documentColumns+` FROM blog_posts WHERE id = $1`, id)
	doc, err := scanDocument(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("docstore: get %s: %w", id, err)
	}
	return doc, nil
}

// Find implements Store.
func (p *Postgres) Find(ctx context.Context, q Query) ([]Document, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if q.Status != "" {
		where = append(where, "status = "+arg(q.Status))
	}
	if q.Category != "" {
		where = append(where, "category = "+arg(q.Category))
	}
	if q.Slug != "" {
		where = append(where, "slug = "+arg(q.Slug))
	}

	query := `SELECT ` + documentColumns + ` FROM blog_posts`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY published_date DESC, seq DESC`
	if q.Limit > 0 {
		query += ` LIMIT ` + arg(q.Limit)
	}

	rows, err := p.pool.Query(ctx, query, args...)
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
func (p *Postgres) Update(ctx context.Context, id string, in models.PostInput) error {
	sets := []string{"last_modified = " + serverNowPostgres}
	args := []any{id}
	for _, c := range inputColumns(in) {
		args = append(args, c.value)
		sets = append(sets, fmt.Sprintf("%s = $%d", c.name, len(args)))
	}
	tag, err := p.pool.Exec(ctx, `UPDATE blog_posts SET `+strings.Join(sets, ", ")+` WHERE id = $1`, args...)
	if err != nil {
		return fmt.Errorf("docstore: update %s: %w", id, err)
	}
	return requireTag(tag)
}

// Delete implements Store.
func (p *Postgres) Delete(ctx context.Context, id string) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM blog_posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("docstore: delete %s: %w", id, err)
	}
	return requireTag(tag)
}

// IncrementViews implements Store.
func (p *Postgres) IncrementViews(ctx context.Context, id string) error {
	tag, err := p.pool.Exec(ctx, `UPDATE blog_posts SET views = views + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("docstore: increment views %s: %w", id, err)
	}
	return requireTag(tag)
}

// Ping implements Store.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Close implements Store.
func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

func requireTag(tag pgconn.CommandTag) error {
	if tag.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	return nil
}
