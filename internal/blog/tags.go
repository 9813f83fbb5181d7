package blog

import (
	"context"
	"strings"
	"unicode/utf8"

	"inkwell/internal/models"
	"inkwell/internal/slug"
	"inkwell/internal/store"
)

// ParseTagNames splits a comma-separated tag list. Names are trimmed, inner
// whitespace is collapsed, empties are dropped and duplicates (ignoring case)
// keep their first spelling.
func ParseTagNames(csv string) ([]string, error) {
	var names []string
	seen := make(map[string]bool)
	for _, raw := range strings.Split(csv, ",") {
		name := strings.Join(strings.Fields(raw), " ")
		if name == "" {
			continue
		}
		if utf8.RuneCountInString(name) > maxTagNameLen {
			return nil, fieldError("tags", "Tag names are limited to 50 characters.")
		}
		key := strings.ToLower(name)
		if seen[key] {
			continue
		}
		seen[key] = true
		names = append(names, name)
	}
	return names, nil
}

// attachTags replaces the tag set of a post with names, creating any tag
// that does not exist yet. Calling it twice with the same names leaves the
// same associations. Tags that lose their last post are kept.
func attachTags(ctx context.Context, db store.DBTX, postID int64, names []string) ([]models.Tag, error) {
	tags := store.NewTagStore(db)

	if err := tags.ClearPostTags(ctx, postID); err != nil {
		return nil, err
	}

	attached := make([]models.Tag, 0, len(names))
	for _, name := range names {
		tag, err := findOrCreateTag(ctx, tags, name)
		if err != nil {
			return nil, err
		}
		if err := tags.AttachTag(ctx, postID, tag.ID); err != nil {
			return nil, err
		}
		attached = append(attached, *tag)
	}
	return attached, nil
}

func findOrCreateTag(ctx context.Context, tags *store.TagStore, name string) (*models.Tag, error) {
	tag, err := tags.FindByName(ctx, name)
	if err != nil || tag != nil {
		return tag, err
	}

	s, err := slug.EnsureUnique(ctx, slug.Or(slug.Generate(name), "tag"), tags.SlugExists)
	if err != nil {
		return nil, err
	}
	return tags.Create(ctx, name, s, models.DefaultTagColor)
}
