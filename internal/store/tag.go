// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"inkwell/internal/models"
)

const tagColumns = `id, name, slug, color`

// TagStore manages tags and the post_tags association.
type TagStore struct {
	db DBTX
}

// NewTagStore returns a new TagStore.
func NewTagStore(db DBTX) *TagStore {
	return &TagStore{db: db}
}

func scanTag(row scanner) (*models.Tag, error) {
	t := &models.Tag{}
	if err := row.Scan(&t.ID, &t.Name, &t.Slug, &t.Color); err != nil {
		return nil, err
	}
	return t, nil
}

// FindByName retrieves a tag by name, ignoring case. Returns nil if not found.
func (s *TagStore) FindByName(ctx context.Context, name string) (*models.Tag, error) {
	t, err := scanTag(s.db.QueryRowContext(ctx, `SELECT `+tagColumns+` FROM tags WHERE LOWER(name) = LOWER($1)`, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find tag by name: %w", err)
	}
	return t, nil
}

// FindBySlug retrieves a tag by slug. Returns nil if not found.
func (s *TagStore) FindBySlug(ctx context.Context, slug string) (*models.Tag, error) {
	t, err := scanTag(s.db.QueryRowContext(ctx, `SELECT `+tagColumns+` FROM tags WHERE slug = $1`, slug))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find tag by slug: %w", err)
	}
	return t, nil
}

// SlugExists reports whether any tag already uses slug.
func (s *TagStore) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM tags WHERE slug = $1)`, slug).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("tag slug exists: %w", err)
	}
	return exists, nil
}

// Create inserts a new tag.
func (s *TagStore) Create(ctx context.Context, name, slug, color string) (*models.Tag, error) {
	t, err := scanTag(s.db.QueryRowContext(ctx, `
		INSERT INTO tags (name, slug, color) VALUES ($1, $2, $3)
		RETURNING `+tagColumns,
		name, slug, color,
	))
	if err != nil {
		return nil, fmt.Errorf("create tag: %w", err)
	}
	return t, nil
}

// Popular returns the tags attached to the most published posts, ties
// broken by name. Tags without published posts are left out.
func (s *TagStore) Popular(ctx context.Context, limit int) ([]models.Tag, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.name, t.slug, t.color, COUNT(p.id) AS post_count
		FROM tags t
		JOIN post_tags pt ON pt.tag_id = t.id
		JOIN posts p ON p.id = pt.post_id AND p.is_published
		GROUP BY t.id
		ORDER BY post_count DESC, t.name ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("popular tags: %w", err)
	}
	defer rows.Close()

	var tags []models.Tag
	for rows.Next() {
		var t models.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug, &t.Color, &t.PostCount); err != nil {
			return nil, fmt.Errorf("scan popular tag: %w", err)
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// ListForPost returns the tags attached to a post, ordered by name.
func (s *TagStore) ListForPost(ctx context.Context, postID int64) ([]models.Tag, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.name, t.slug, t.color
		FROM tags t
		JOIN post_tags pt ON pt.tag_id = t.id
		WHERE pt.post_id = $1
		ORDER BY t.name
	`, postID)
	if err != nil {
		return nil, fmt.Errorf("list tags for post: %w", err)
	}
	defer rows.Close()

	var tags []models.Tag
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, *t)
	}
	return tags, rows.Err()
}

// ClearPostTags detaches every tag from a post. The tags themselves stay.
func (s *TagStore) ClearPostTags(ctx context.Context, postID int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM post_tags WHERE post_id = $1`, postID); err != nil {
		return fmt.Errorf("clear post tags: %w", err)
	}
	return nil
}

// AttachTag links a tag to a post. Attaching the same pair twice is a no-op.
func (s *TagStore) AttachTag(ctx context.Context, postID, tagID int64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO post_tags (post_id, tag_id) VALUES ($1, $2)
		ON CONFLICT (post_id, tag_id) DO NOTHING
	`, postID, tagID)
	if err != nil {
		return fmt.Errorf("attach tag: %w", err)
	}
	return nil
}
