package blog

import (
	"context"
	"database/sql"
	"errors"

	"inkwell/internal/models"
	"inkwell/internal/slug"
	"inkwell/internal/store"
)

// PostDetail is a post page: the post with its tags, its approved comments
// and whether the viewer may edit it.
type PostDetail struct {
	Post     *models.Post
	Comments []models.Comment
	CanEdit  bool
}

// CanDeleteComment reports whether the viewer of this page may delete c.
func (d *PostDetail) CanDeleteComment(a Actor, c models.Comment) bool {
	return CanDeleteComment(a, &c, d.Post)
}

// validatePost normalizes and validates in, returning the parsed tag names.
func validatePost(in *PostInput) ([]string, error) {
	in.normalize()
	v := in.validate()

	names, err := ParseTagNames(in.Tags)
	var tagErr *ValidationError
	if errors.As(err, &tagErr) {
		v.Merge(tagErr)
	} else if err != nil {
		return nil, err
	}

	if err := v.Err(); err != nil {
		return nil, err
	}
	return names, nil
}

// CreatePost stores a new post owned by the actor. The slug is derived from
// the title and suffixed with -1, -2, ... until it is unused.
func (s *Service) CreatePost(ctx context.Context, actor Actor, in PostInput) (*models.Post, error) {
	if err := requireAuth(actor); err != nil {
		return nil, err
	}
	names, err := validatePost(&in)
	if err != nil {
		return nil, err
	}

	var created *models.Post
	err = store.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		posts := store.NewPostStore(tx)

		sl, err := slug.EnsureUnique(ctx, slug.Or(slug.Generate(in.Title), "post"), posts.SlugExists)
		if err != nil {
			return err
		}

		p := &models.Post{
			Title:         in.Title,
			Slug:          sl,
			Content:       in.Content,
			Summary:       optional(in.Summary),
			FeaturedImage: optional(in.FeaturedImage),
			UserID:        actor.UserID,
		}
		applyPublication(p, in.Publish, s.now())

		created, err = posts.Create(ctx, p)
		if err != nil {
			return err
		}
		created.AuthorName = actor.Username
		created.Tags, err = attachTags(ctx, tx, created.ID, names)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// findPost loads a post by slug, mapping a miss to ErrNotFound.
func findPost(ctx context.Context, posts *store.PostStore, postSlug string) (*models.Post, error) {
	if !slug.Valid(postSlug) {
		return nil, ErrNotFound
	}
	p, err := posts.FindBySlug(ctx, postSlug)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrNotFound
	}
	return p, nil
}

// editablePost loads a post the actor is allowed to modify.
func editablePost(ctx context.Context, posts *store.PostStore, actor Actor, postSlug string) (*models.Post, error) {
	p, err := findPost(ctx, posts, postSlug)
	if err != nil {
		return nil, err
	}
	if !CanEditPost(actor, p) {
		return nil, hiddenOrForbidden(actor, p)
	}
	return p, nil
}

// hiddenOrForbidden is the error for an actor lacking rights on p: drafts
// they cannot view do not exist for them.
func hiddenOrForbidden(actor Actor, p *models.Post) error {
	if !CanViewPost(actor, p) {
		return ErrNotFound
	}
	return ErrForbidden
}

// PostForEdit returns a post with its tags for the edit form.
func (s *Service) PostForEdit(ctx context.Context, actor Actor, postSlug string) (*models.Post, error) {
	if err := requireAuth(actor); err != nil {
		return nil, err
	}
	posts := store.NewPostStore(s.db)
	p, err := editablePost(ctx, posts, actor, postSlug)
	if err != nil {
		return nil, err
	}
	if p.Tags, err = store.NewTagStore(s.db).ListForPost(ctx, p.ID); err != nil {
		return nil, err
	}
	return p, nil
}

// EditPost replaces the editable fields, publication state and tag set of a
// post. The slug never changes.
func (s *Service) EditPost(ctx context.Context, actor Actor, postSlug string, in PostInput) (*models.Post, error) {
	if err := requireAuth(actor); err != nil {
		return nil, err
	}

	var edited *models.Post
	err := store.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		posts := store.NewPostStore(tx)
		p, err := editablePost(ctx, posts, actor, postSlug)
		if err != nil {
			return err
		}

		names, err := validatePost(&in)
		if err != nil {
			return err
		}

		p.Title = in.Title
		p.Content = in.Content
		p.Summary = optional(in.Summary)
		p.FeaturedImage = optional(in.FeaturedImage)
		applyPublication(p, in.Publish, s.now())

		if err := posts.Update(ctx, p); err != nil {
			return err
		}
		p.Tags, err = attachTags(ctx, tx, p.ID, names)
		edited = p
		return err
	})
	if err != nil {
		return nil, err
	}
	return edited, nil
}

// Publish makes a post public. Publishing an already published post leaves
// its publication date unchanged.
func (s *Service) Publish(ctx context.Context, actor Actor, postSlug string) (*models.Post, error) {
	return s.setPublished(ctx, actor, postSlug, true)
}

// Unpublish turns a post back into a draft. Its publication date is kept.
func (s *Service) Unpublish(ctx context.Context, actor Actor, postSlug string) (*models.Post, error) {
	return s.setPublished(ctx, actor, postSlug, false)
}

func (s *Service) setPublished(ctx context.Context, actor Actor, postSlug string, publish bool) (*models.Post, error) {
	if err := requireAuth(actor); err != nil {
		return nil, err
	}

	var updated *models.Post
	err := store.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		posts := store.NewPostStore(tx)
		p, err := editablePost(ctx, posts, actor, postSlug)
		if err != nil {
			return err
		}
		applyPublication(p, publish, s.now())
		if err := posts.Update(ctx, p); err != nil {
			return err
		}
		updated = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeletePost removes a post with its comments and tag associations.
func (s *Service) DeletePost(ctx context.Context, actor Actor, postSlug string) error {
	if err := requireAuth(actor); err != nil {
		return err
	}
	return store.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		posts := store.NewPostStore(tx)
		p, err := findPost(ctx, posts, postSlug)
		if err != nil {
			return err
		}
		if !CanDeletePost(actor, p) {
			return hiddenOrForbidden(actor, p)
		}
		ok, err := posts.Delete(ctx, p.ID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotFound
		}
		return nil
	})
}

// ViewPost loads a post page and counts the view. Drafts are reported as
// not found unless the actor may edit them; draft views are not counted.
func (s *Service) ViewPost(ctx context.Context, actor Actor, postSlug string) (*PostDetail, error) {
	return s.postDetail(ctx, actor, postSlug, true)
}

// Detail loads a post page like ViewPost without counting a view.
func (s *Service) Detail(ctx context.Context, actor Actor, postSlug string) (*PostDetail, error) {
	return s.postDetail(ctx, actor, postSlug, false)
}

func (s *Service) postDetail(ctx context.Context, actor Actor, postSlug string, count bool) (*PostDetail, error) {
	posts := store.NewPostStore(s.db)

	p, err := findPost(ctx, posts, postSlug)
	if err != nil {
		return nil, err
	}
	if !CanViewPost(actor, p) {
		return nil, ErrNotFound
	}

	if count && p.IsPublished {
		views, err := posts.IncrementViews(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		p.ViewCount = views
	}

	if p.Tags, err = store.NewTagStore(s.db).ListForPost(ctx, p.ID); err != nil {
		return nil, err
	}
	comments, err := store.NewCommentStore(s.db).ListByPost(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	return &PostDetail{
		Post:     p,
		Comments: comments,
		CanEdit:  CanEditPost(actor, p),
	}, nil
}
