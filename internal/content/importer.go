package content

import (
	"context"
	"log/slog"
	"sync"

	"github.com/weblithic/site/internal/blog"
	"github.com/weblithic/site/internal/models"
)

// Target is the part of blog.Manager the importer writes through.
type Target interface {
	CreatePost(ctx context.Context, in models.PostInput) blog.Result[string]
	UpdatePost(ctx context.Context, id string, updates models.PostInput) blog.Result[blog.Empty]
	LookupSlug(ctx context.Context, slug string) blog.Result[models.Post]
}

// Report summarises one sync pass.
type Report struct {
	Created   int
	Updated   int
	Unchanged int
	Failed    int
}

// Importer syncs a content directory into the blog. Files are matched to
// posts by slug; removing a file does not delete its post.
type Importer struct {
	dir    *Dir
	target Target
	logger *slog.Logger

	mu   sync.Mutex
	seen map[string]string // path -> checksum of the last imported version
}

// NewImporter creates an Importer.
func NewImporter(dir *Dir, target Target, logger *slog.Logger) *Importer {
	return &Importer{dir: dir, target: target, logger: logger, seen: make(map[string]string)}
}

// Sync imports every new or changed file.
func (im *Importer) Sync(ctx context.Context) (Report, error) {
	im.mu.Lock()
	defer im.mu.Unlock()

	var rep Report
	entries, err := im.dir.List()
	if err != nil {
		return rep, err
	}
	for _, e := range entries {
		if ctx.Err() != nil {
			return rep, ctx.Err()
		}
		if im.seen[e.Path] == e.Checksum {
			rep.Unchanged++
			continue
		}
		outcome := im.importFile(ctx, e.Path)
		switch outcome {
		case outcomeCreated:
			rep.Created++
		case outcomeUpdated:
			rep.Updated++
		case outcomeUnchanged:
			rep.Unchanged++
		default:
			rep.Failed++
			continue
		}
		im.seen[e.Path] = e.Checksum
	}
	im.logger.Info("content: sync done",
		slog.Int("created", rep.Created),
		slog.Int("updated", rep.Updated),
		slog.Int("unchanged", rep.Unchanged),
		slog.Int("failed", rep.Failed))
	return rep, nil
}

type outcome int

const (
	outcomeFailed outcome = iota
	outcomeCreated
	outcomeUpdated
	outcomeUnchanged
)

func (im *Importer) importFile(ctx context.Context, path string) outcome {
	log := im.logger.With(slog.String("path", path))

	data, err := im.dir.Read(path)
	if err != nil {
		log.Warn("content: read failed", slog.String("error", err.Error()))
		return outcomeFailed
	}
	f, err := Parse(data)
	if err != nil {
		log.Warn("content: parse failed", slog.String("error", err.Error()))
		return outcomeFailed
	}
	in := f.Input()
	if v := blog.ValidatePost(in); !v.Valid {
		for _, msg := range v.Errors {
			log.Warn("content: invalid post", slog.String("error", msg))
		}
		return outcomeFailed
	}

	slug := f.Frontmatter.Slug
	if slug == "" {
		slug = blog.GenerateSlug(f.Frontmatter.Title)
		in.Slug = models.Ptr(slug)
	}

	existing := im.target.LookupSlug(ctx, slug)
	switch {
	case existing.Success:
		if sameContent(existing.Data, in) {
			return outcomeUnchanged
		}
		if res := im.target.UpdatePost(ctx, existing.Data.ID, in); !res.Success {
			log.Warn("content: update failed", slog.String("error", res.Error))
			return outcomeFailed
		}
		log.Debug("content: updated", slog.String("slug", slug))
		return outcomeUpdated
	case existing.Kind == blog.KindNotFound:
		res := im.target.CreatePost(ctx, in)
		if !res.Success {
			log.Warn("content: create failed", slog.String("error", res.Error))
			return outcomeFailed
		}
		log.Debug("content: created", slog.String("slug", slug), slog.String("id", res.Data))
		return outcomeCreated
	default:
		log.Warn("content: lookup failed", slog.String("error", existing.Error))
		return outcomeFailed
	}
}

func sameContent(p models.Post, in models.PostInput) bool {
	status := models.StatusDraft
	if in.Status != nil {
		status = *in.Status
	}
	return p.Title == *in.Title &&
		p.Excerpt == *in.Excerpt &&
		p.Content == *in.Content &&
		p.Category == *in.Category &&
		p.Status == status
}
