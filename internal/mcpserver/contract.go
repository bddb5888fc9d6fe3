package mcpserver

import "github.com/weblithic/site/internal/content"

// PostFormatURI identifies the post format resource.
const PostFormatURI = "weblithic://post-format"

// PostFormat describes post fields for the write tools and the file layout
// accepted by the content importer.
const PostFormat = `# Weblithic Post Format

## Fields

| Field    | Rules |
|----------|-------|
| title    | required, non-blank |
| excerpt  | required, non-blank, at most 250 characters |
| content  | required, Markdown |
| category | required, e.g. "Engineering", "Design", "News" |
| status   | "draft" (default) or "published"; only published posts appear on the blog |
| slug     | optional; lowercase letters, digits and single hyphens; derived from the title when omitted |

The store assigns id, published_date, last_modified and views.
update_post changes only the fields you pass. An empty slug on update is
regenerated from the new title, or left unchanged when no title is given.

## Content directory

` + content.Format
