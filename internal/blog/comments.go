package blog

import (
	"context"
	"database/sql"

	"inkwell/internal/models"
	"inkwell/internal/store"
)

// AddComment posts a comment as the actor on a published post. A reply
// names its parent, which must be a comment on the same post.
func (s *Service) AddComment(ctx context.Context, actor Actor, postSlug, content string, parentID *int64) (*models.Comment, error) {
	if err := requireAuth(actor); err != nil {
		return nil, err
	}

	var created *models.Comment
	err := store.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		p, err := findPost(ctx, store.NewPostStore(tx), postSlug)
		if err != nil {
			return err
		}
		if !CanViewPost(actor, p) {
			return ErrNotFound
		}
		if !p.IsPublished {
			return fieldError("content", "Comments open once the post is published.")
		}

		body, verr := validateComment(content)
		if verr != nil {
			return verr
		}

		comments := store.NewCommentStore(tx)
		if parentID != nil {
			parent, err := comments.FindByID(ctx, *parentID)
			if err != nil {
				return err
			}
			if parent == nil || parent.PostID != p.ID {
				return fieldError("parent_id", "The comment you replied to does not exist.")
			}
		}

		created, err = comments.Create(ctx, &models.Comment{
			Content:  body,
			UserID:   actor.UserID,
			PostID:   p.ID,
			ParentID: parentID,
		})
		if err != nil {
			return err
		}
		created.AuthorName = actor.Username
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// DeleteComment removes a comment of the given post and all replies below it.
func (s *Service) DeleteComment(ctx context.Context, actor Actor, postSlug string, commentID int64) error {
	if err := requireAuth(actor); err != nil {
		return err
	}
	return store.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		p, err := findPost(ctx, store.NewPostStore(tx), postSlug)
		if err != nil {
			return err
		}

		comments := store.NewCommentStore(tx)
		c, err := comments.FindByID(ctx, commentID)
		if err != nil {
			return err
		}
		if c == nil || c.PostID != p.ID {
			return ErrNotFound
		}
		if !CanDeleteComment(actor, c, p) {
			return ErrForbidden
		}
		_, err = comments.Delete(ctx, c.ID)
		return err
	})
}
