package editor

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrPermissionDenied     = errors.New("permission denied")
	ErrFetchFailed          = errors.New("could not load post")
	ErrSaveFailed           = errors.New("could not save post")
	ErrDeleteFailed         = errors.New("could not delete post")
	ErrInvalidEmbedURL      = errors.New("invalid YouTube URL")
	ErrInvalidImageURL      = errors.New("invalid image URL")
	ErrConfirmationRequired = errors.New("deleting a post needs confirmation")
	ErrBusy                 = errors.New("a submission is already in progress")
	ErrNotEditing           = errors.New("only saved posts can be deleted")
)

// Form field names used as ValidationErrors keys.
const (
	FieldTitle           = "title"
	FieldSlug            = "slug"
	FieldContent         = "content"
	FieldCategory        = "category"
	FieldTags            = "tags"
	FieldMetaDescription = "meta_description"
)

// ValidationErrors maps a form field to the message shown next to it.
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = f + ": " + v[f]
	}
	return "invalid post: " + strings.Join(parts, "; ")
}
