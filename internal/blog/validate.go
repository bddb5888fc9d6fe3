package blog

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/weblithic/site/internal/models"
)

// MaxExcerptLength is the longest excerpt accepted, in characters.
const MaxExcerptLength = 250

// Validation is the outcome of ValidatePost.
type Validation struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

var (
	titleRequired    = validation.Required.Error("Title is required")
	excerptRequired  = validation.Required.Error("Excerpt is required")
	contentRequired  = validation.Required.Error("Content is required")
	categoryRequired = validation.Required.Error("Category is required")
	excerptLength    = validation.RuneLength(0, MaxExcerptLength).Error("Excerpt must be 250 characters or fewer")
	statusValid      = []validation.Rule{
		validation.Required.Error("Status must be draft or published"),
		validation.In(models.StatusDraft, models.StatusPublished).Error("Status must be draft or published"),
	}
	slugValid = validation.Match(slugRe).Error("Slug may only contain lowercase letters, digits and single hyphens")
)

// ValidatePost checks a post for creation. Every rule runs, and messages are
// reported in a fixed order: title, excerpt, content, category, excerpt length,
// then status and slug when supplied.
func ValidatePost(in models.PostInput) Validation {
	return validate(in, false)
}

// validateUpdate applies the same rules to the supplied fields only.
func validateUpdate(in models.PostInput) Validation {
	return validate(in, true)
}

func validate(in models.PostInput, partial bool) Validation {
	var errs []string
	check := func(value any, rules ...validation.Rule) {
		if err := validation.Validate(value, rules...); err != nil {
			errs = append(errs, err.Error())
		}
	}
	required := func(field *string, rule validation.Rule) {
		if partial && field == nil {
			return
		}
		check(strings.TrimSpace(deref(field)), rule)
	}

	required(in.Title, titleRequired)
	required(in.Excerpt, excerptRequired)
	required(in.Content, contentRequired)
	required(in.Category, categoryRequired)
	if in.Excerpt != nil {
		check(*in.Excerpt, excerptLength)
	}
	if in.Status != nil {
		check(*in.Status, statusValid...)
	}
	if in.Slug != nil {
		check(*in.Slug, slugValid)
	}

	return Validation{Valid: len(errs) == 0, Errors: nonNil(errs)}
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
