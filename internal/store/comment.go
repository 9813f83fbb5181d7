package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"inkwell/internal/models"
)

const commentColumns = `c.id, c.content, c.is_approved, c.user_id, c.post_id, c.parent_id, c.created_at, u.username`

// CommentStore handles comment persistence.
type CommentStore struct {
	db DBTX
}

// NewCommentStore creates a new CommentStore.
func NewCommentStore(db DBTX) *CommentStore {
	return &CommentStore{db: db}
}

func scanComment(row scanner) (*models.Comment, error) {
	c := &models.Comment{}
	err := row.Scan(&c.ID, &c.Content, &c.IsApproved, &c.UserID, &c.PostID, &c.ParentID, &c.CreatedAt, &c.AuthorName)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// FindByID retrieves a comment by id. Returns nil if not found.
func (s *CommentStore) FindByID(ctx context.Context, id int64) (*models.Comment, error) {
	c, err := scanComment(s.db.QueryRowContext(ctx, `
		SELECT `+commentColumns+`
		FROM comments c JOIN users u ON u.id = c.user_id
		WHERE c.id = $1
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find comment: %w", err)
	}
	return c, nil
}

// Create inserts a comment. The schema rejects a parent from another post.
func (s *CommentStore) Create(ctx context.Context, c *models.Comment) (*models.Comment, error) {
	created := *c
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO comments (content, user_id, post_id, parent_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, is_approved, created_at
	`, c.Content, c.UserID, c.PostID, c.ParentID,
	).Scan(&created.ID, &created.IsApproved, &created.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	return &created, nil
}

// ListByPost returns the approved comments of a post, newest first, as a
// flat list. Replies carry ParentID for client-side nesting.
func (s *CommentStore) ListByPost(ctx context.Context, postID int64) ([]models.Comment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+commentColumns+`
		FROM comments c JOIN users u ON u.id = c.user_id
		WHERE c.post_id = $1 AND c.is_approved
		ORDER BY c.created_at DESC, c.id DESC
	`, postID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	var comments []models.Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, *c)
	}
	return comments, rows.Err()
}

// Delete removes a comment and, through the parent foreign key, all of its
// replies. Returns false if no such comment exists.
func (s *CommentStore) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete comment: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete comment rows: %w", err)
	}
	return n > 0, nil
}
