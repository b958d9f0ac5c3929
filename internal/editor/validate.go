package editor

import (
	"strings"
	"unicode/utf8"

	"highrise/internal/models"
	"highrise/internal/richtext"
)

const (
	MinTitleLength   = 5
	MinContentLength = 20
	MaxMetaLength    = 160
)

// Validate checks f against the post rules and returns nil when it passes.
func (f *Fields) Validate() ValidationErrors {
	errs := ValidationErrors{}
	if utf8.RuneCountInString(strings.TrimSpace(f.Title)) < MinTitleLength {
		errs[FieldTitle] = "Title must be at least 5 characters"
	} else if f.Slug == "" {
		errs[FieldSlug] = "Slug cannot be empty"
	}
	if utf8.RuneCountInString(richtext.PlainText(f.Content)) < MinContentLength {
		errs[FieldContent] = "Content must be at least 20 characters"
	}
	if _, ok := models.ParseCategory(string(f.Category)); !ok {
		errs[FieldCategory] = "Choose Tutorial, News or Community"
	}
	if len(f.Tags) == 0 {
		errs[FieldTags] = "Add at least one tag"
	}
	if utf8.RuneCountInString(f.MetaDescription) > MaxMetaLength {
		errs[FieldMetaDescription] = "Meta description must be at most 160 characters"
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// ParseTags splits a comma-separated tag list.
func ParseTags(s string) []string {
	return normalizeTags(strings.Split(s, ","))
}

// normalizeTags trims tags and drops blanks and case-insensitive duplicates,
// keeping first occurrences.
func normalizeTags(tags []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, t := range tags {
		t = strings.TrimSpace(t)
		key := strings.ToLower(t)
		if t == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, t)
	}
	return out
}
