// Package content imports Markdown files with YAML frontmatter into the blog.
package content

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/weblithic/site/internal/models"
)

// ErrNoFrontmatter is returned for files without a leading frontmatter block.
var ErrNoFrontmatter = errors.New("content: missing frontmatter")

// Frontmatter is the metadata block at the top of a post file.
type Frontmatter struct {
	Title    string `yaml:"title"`
	Excerpt  string `yaml:"excerpt"`
	Category string `yaml:"category"`
	Status   string `yaml:"status"`
	Slug     string `yaml:"slug"`
}

// File is a parsed post file.
type File struct {
	Frontmatter Frontmatter
	Body        string
}

// Parse splits data into frontmatter and body. A missing title falls back to
// the first H1 heading of the body.
func Parse(data []byte) (*File, error) {
	const delim = "---"
	trimmed := bytes.TrimLeft(data, "\n\r")
	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, ErrNoFrontmatter
	}
	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return nil, ErrNoFrontmatter
	}

	var fm Frontmatter
	if err := yaml.Unmarshal(rest[:idx], &fm); err != nil {
		return nil, fmt.Errorf("content: frontmatter: %w", err)
	}
	body := strings.TrimLeft(string(rest[idx+1+len(delim):]), "\n\r")
	body = strings.TrimRight(body, " \t\n\r")

	if fm.Title == "" {
		fm.Title = firstHeading(body)
	}
	return &File{Frontmatter: fm, Body: body}, nil
}

func firstHeading(body string) string {
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(line[2:])
		}
	}
	return ""
}

// Input converts the file into a full post input. Unset status and slug are
// left nil so the blog applies its defaults.
func (f *File) Input() models.PostInput {
	in := models.PostInput{
		Title:    models.Ptr(f.Frontmatter.Title),
		Excerpt:  models.Ptr(f.Frontmatter.Excerpt),
		Content:  models.Ptr(f.Body),
		Category: models.Ptr(f.Frontmatter.Category),
	}
	if f.Frontmatter.Slug != "" {
		in.Slug = models.Ptr(f.Frontmatter.Slug)
	}
	if f.Frontmatter.Status != "" {
		in.Status = models.Ptr(models.Status(f.Frontmatter.Status))
	}
	return in
}

// Format describes the file layout accepted by Parse.
const Format = `Posts are Markdown files (*.md) with a YAML frontmatter block:

---
title: My first post
excerpt: One or two sentences shown on the blog feed (250 characters max).
category: Engineering
status: published   # draft (default) or published
slug: my-first-post # optional, derived from the title when omitted
---

# Body in Markdown

Files are matched to existing posts by slug. Unchanged files are skipped.
`
