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

// postColumns lists the posts columns (aliased p) plus the joined author name.
const postColumns = `p.id, p.title, p.slug, p.content, p.summary, p.featured_image,
	p.is_published, p.view_count, p.user_id, p.published_at, p.created_at, p.updated_at,
	u.username`

// postFrom joins the author so listings never need a second lookup.
const postFrom = ` FROM posts p JOIN users u ON u.id = p.user_id `

// PostStore handles all post-related database operations.
type PostStore struct {
	db DBTX
}

// NewPostStore creates a new PostStore with the given database connection.
func NewPostStore(db DBTX) *PostStore {
	return &PostStore{db: db}
}

func scanPost(row scanner) (*models.Post, error) {
	p := &models.Post{}
	err := row.Scan(
		&p.ID, &p.Title, &p.Slug, &p.Content, &p.Summary, &p.FeaturedImage,
		&p.IsPublished, &p.ViewCount, &p.UserID, &p.PublishedAt, &p.CreatedAt, &p.UpdatedAt,
		&p.AuthorName,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// list runs a multi-row post query.
func (s *PostStore) list(ctx context.Context, what, query string, args ...any) ([]models.Post, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", what, err)
	}
	defer rows.Close()

	var posts []models.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, *p)
	}
	return posts, rows.Err()
}

// count runs a single COUNT(*) query.
func (s *PostStore) count(ctx context.Context, what, query string, args ...any) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("%s: %w", what, err)
	}
	return n, nil
}

// FindBySlug retrieves a post in any publication state by its slug.
// Callers decide whether a draft may be shown. Returns nil if not found.
func (s *PostStore) FindBySlug(ctx context.Context, slug string) (*models.Post, error) {
	p, err := scanPost(s.db.QueryRowContext(ctx, `SELECT `+postColumns+postFrom+`WHERE p.slug = $1`, slug))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find post by slug: %w", err)
	}
	return p, nil
}

// SlugExists reports whether any post already uses slug.
func (s *PostStore) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM posts WHERE slug = $1)`, slug).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("post slug exists: %w", err)
	}
	return exists, nil
}

// Create inserts a new post and returns it with the generated fields.
// PublishedAt is stored as given; the publication policy decides it.
func (s *PostStore) Create(ctx context.Context, p *models.Post) (*models.Post, error) {
	created := *p
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO posts (title, slug, content, summary, featured_image, is_published, user_id, published_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, view_count, published_at, created_at, updated_at
	`, p.Title, p.Slug, p.Content, p.Summary, p.FeaturedImage, p.IsPublished, p.UserID, p.PublishedAt,
	).Scan(&created.ID, &created.ViewCount, &created.PublishedAt, &created.CreatedAt, &created.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	return &created, nil
}

// Update writes the editable fields of a post and refreshes updated_at.
// An existing published_at is never overwritten or cleared; the stored
// values of published_at and updated_at are copied back into p.
func (s *PostStore) Update(ctx context.Context, p *models.Post) error {
	err := s.db.QueryRowContext(ctx, `
		UPDATE posts SET
			title = $1, content = $2, summary = $3, featured_image = $4,
			is_published = $5, published_at = COALESCE(published_at, $6),
			updated_at = NOW()
		WHERE id = $7
		RETURNING published_at, updated_at
	`, p.Title, p.Content, p.Summary, p.FeaturedImage, p.IsPublished, p.PublishedAt, p.ID,
	).Scan(&p.PublishedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update post: %w", err)
	}
	return nil
}

// Delete removes a post by id; comments and tag links cascade.
// Returns false if no such post exists.
func (s *PostStore) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete post: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete post rows: %w", err)
	}
	return n > 0, nil
}

// IncrementViews atomically adds one to a post's view counter and returns
// the new value. It does not touch updated_at.
func (s *PostStore) IncrementViews(ctx context.Context, id int64) (int64, error) {
	var views int64
	err := s.db.QueryRowContext(ctx, `
		UPDATE posts SET view_count = view_count + 1 WHERE id = $1 RETURNING view_count
	`, id).Scan(&views)
	if err != nil {
		return 0, fmt.Errorf("increment views: %w", err)
	}
	return views, nil
}

// ListPublished returns a page of published posts, newest publication first.
func (s *PostStore) ListPublished(ctx context.Context, limit, offset int) ([]models.Post, error) {
	return s.list(ctx, "list published posts", `
		SELECT `+postColumns+postFrom+`
		WHERE p.is_published
		ORDER BY p.published_at DESC, p.id DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
}

// CountPublished returns the number of published posts.
func (s *PostStore) CountPublished(ctx context.Context) (int, error) {
	return s.count(ctx, "count published posts", `SELECT COUNT(*) FROM posts WHERE is_published`)
}

// ListPublishedByTag returns a page of published posts carrying the tag.
func (s *PostStore) ListPublishedByTag(ctx context.Context, tagID int64, limit, offset int) ([]models.Post, error) {
	return s.list(ctx, "list published posts by tag", `
		SELECT `+postColumns+postFrom+`
		JOIN post_tags pt ON pt.post_id = p.id
		WHERE p.is_published AND pt.tag_id = $1
		ORDER BY p.published_at DESC, p.id DESC
		LIMIT $2 OFFSET $3
	`, tagID, limit, offset)
}

// CountPublishedByTag returns the number of published posts carrying the tag.
func (s *PostStore) CountPublishedByTag(ctx context.Context, tagID int64) (int, error) {
	return s.count(ctx, "count published posts by tag", `
		SELECT COUNT(*) FROM posts p
		JOIN post_tags pt ON pt.post_id = p.id
		WHERE p.is_published AND pt.tag_id = $1
	`, tagID)
}

// SearchPublished returns a page of published posts whose title or content
// matches the ILIKE pattern, newest first.
func (s *PostStore) SearchPublished(ctx context.Context, pattern string, limit, offset int) ([]models.Post, error) {
	return s.list(ctx, "search posts", `
		SELECT `+postColumns+postFrom+`
		WHERE p.is_published AND (p.title ILIKE $1 OR p.content ILIKE $1)
		ORDER BY p.created_at DESC, p.id DESC
		LIMIT $2 OFFSET $3
	`, pattern, limit, offset)
}

// CountSearchPublished returns the number of published posts matching pattern.
func (s *PostStore) CountSearchPublished(ctx context.Context, pattern string) (int, error) {
	return s.count(ctx, "count search posts", `
		SELECT COUNT(*) FROM posts p
		WHERE p.is_published AND (p.title ILIKE $1 OR p.content ILIKE $1)
	`, pattern)
}

// ListRecent returns the most recently created published posts.
func (s *PostStore) ListRecent(ctx context.Context, limit int) ([]models.Post, error) {
	return s.list(ctx, "list recent posts", `
		SELECT `+postColumns+postFrom+`
		WHERE p.is_published
		ORDER BY p.created_at DESC, p.id DESC
		LIMIT $1
	`, limit)
}

// ListByAuthor returns every post of a user, drafts included, newest first.
func (s *PostStore) ListByAuthor(ctx context.Context, userID int64) ([]models.Post, error) {
	return s.list(ctx, "list posts by author", `
		SELECT `+postColumns+postFrom+`
		WHERE p.user_id = $1
		ORDER BY p.created_at DESC, p.id DESC
	`, userID)
}

// CountByAuthor returns the number of posts (drafts included) owned by a user.
func (s *PostStore) CountByAuthor(ctx context.Context, userID int64) (int, error) {
	return s.count(ctx, "count posts by author", `SELECT COUNT(*) FROM posts WHERE user_id = $1`, userID)
}

// LoadTags fills the Tags field of every post with one batched query.
func (s *PostStore) LoadTags(ctx context.Context, posts []models.Post) error {
	if len(posts) == 0 {
		return nil
	}

	ids := make([]int64, len(posts))
	index := make(map[int64][]int, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
		index[p.ID] = append(index[p.ID], i)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT pt.post_id, t.id, t.name, t.slug, t.color
		FROM post_tags pt
		JOIN tags t ON t.id = pt.tag_id
		WHERE pt.post_id = ANY($1)
		ORDER BY t.name
	`, ids)
	if err != nil {
		return fmt.Errorf("load post tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var postID int64
		var t models.Tag
		if err := rows.Scan(&postID, &t.ID, &t.Name, &t.Slug, &t.Color); err != nil {
			return fmt.Errorf("scan post tag: %w", err)
		}
		for _, i := range index[postID] {
			posts[i].Tags = append(posts[i].Tags, t)
		}
	}
	return rows.Err()
}
