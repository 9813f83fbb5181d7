package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"inkwell/internal/blog"
	"inkwell/internal/middleware"
	"inkwell/internal/render"
)

// Posts groups the authoring handlers: post create, edit and delete, and
// comments. All routes sit behind RequireAuth; ownership is checked by the
// blog service.
type Posts struct {
	renderer *render.Renderer
	blog     *blog.Service
}

// NewPosts creates a new Posts handler group.
func NewPosts(renderer *render.Renderer, svc *blog.Service) *Posts {
	return &Posts{renderer: renderer, blog: svc}
}

// New renders the empty post form.
func (p *Posts) New(w http.ResponseWriter, r *http.Request) {
	p.renderer.Page(w, r, "post_form", &render.PageData{
		Title:   "New post",
		Section: "write",
		Data:    map[string]any{"Form": blog.PostInput{Publish: true}},
	})
}

// Create handles the new post form submission.
func (p *Posts) Create(w http.ResponseWriter, r *http.Request) {
	if !parseForm(w, r) {
		p.renderer.Error(w, r, http.StatusBadRequest)
		return
	}

	in := postInputFromForm(r)
	post, err := p.blog.CreatePost(r.Context(), middleware.ActorFromCtx(r.Context()), in)
	if err != nil {
		if fields, ok := fieldErrors(err); ok {
			p.renderer.PageStatus(w, r, http.StatusUnprocessableEntity, "post_form", &render.PageData{
				Title:   "New post",
				Section: "write",
				Errors:  fields,
				Data:    map[string]any{"Form": in},
			})
			return
		}
		writeError(p.renderer, w, r, err)
		return
	}

	http.Redirect(w, r, "/post/"+post.Slug, http.StatusSeeOther)
}

// Edit renders the edit form filled with the stored post.
func (p *Posts) Edit(w http.ResponseWriter, r *http.Request) {
	post, err := p.blog.PostForEdit(r.Context(), middleware.ActorFromCtx(r.Context()), chi.URLParam(r, "slug"))
	if err != nil {
		writeError(p.renderer, w, r, err)
		return
	}

	in := blog.PostInput{
		Title:   post.Title,
		Content: post.Content,
		Tags:    post.TagNames(),
		Publish: post.IsPublished,
	}
	if post.Summary != nil {
		in.Summary = *post.Summary
	}
	if post.FeaturedImage != nil {
		in.FeaturedImage = *post.FeaturedImage
	}

	p.renderer.Page(w, r, "post_form", &render.PageData{
		Title:   "Edit " + post.Title,
		Section: "write",
		Data:    map[string]any{"Form": in, "Post": post},
	})
}

// Update handles the edit form submission.
func (p *Posts) Update(w http.ResponseWriter, r *http.Request) {
	if !parseForm(w, r) {
		p.renderer.Error(w, r, http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	actor := middleware.ActorFromCtx(ctx)
	slugParam := chi.URLParam(r, "slug")

	in := postInputFromForm(r)
	post, err := p.blog.EditPost(ctx, actor, slugParam, in)
	if err != nil {
		if fields, ok := fieldErrors(err); ok {
			stored, ferr := p.blog.PostForEdit(ctx, actor, slugParam)
			if ferr != nil {
				writeError(p.renderer, w, r, ferr)
				return
			}
			p.renderer.PageStatus(w, r, http.StatusUnprocessableEntity, "post_form", &render.PageData{
				Title:   "Edit " + stored.Title,
				Section: "write",
				Errors:  fields,
				Data:    map[string]any{"Form": in, "Post": stored},
			})
			return
		}
		writeError(p.renderer, w, r, err)
		return
	}

	http.Redirect(w, r, "/post/"+post.Slug, http.StatusSeeOther)
}

// Delete removes a post with its comments and tag links.
func (p *Posts) Delete(w http.ResponseWriter, r *http.Request) {
	if err := p.blog.DeletePost(r.Context(), middleware.ActorFromCtx(r.Context()), chi.URLParam(r, "slug")); err != nil {
		writeError(p.renderer, w, r, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Publish makes a draft public.
func (p *Posts) Publish(w http.ResponseWriter, r *http.Request) {
	p.setPublished(w, r, true)
}

// Unpublish turns a post back into a draft.
func (p *Posts) Unpublish(w http.ResponseWriter, r *http.Request) {
	p.setPublished(w, r, false)
}

func (p *Posts) setPublished(w http.ResponseWriter, r *http.Request, publish bool) {
	ctx := r.Context()
	actor := middleware.ActorFromCtx(ctx)
	slugParam := chi.URLParam(r, "slug")

	var err error
	if publish {
		_, err = p.blog.Publish(ctx, actor, slugParam)
	} else {
		_, err = p.blog.Unpublish(ctx, actor, slugParam)
	}
	if err != nil {
		writeError(p.renderer, w, r, err)
		return
	}
	http.Redirect(w, r, "/post/"+slugParam, http.StatusSeeOther)
}

// Comment adds a comment or reply to a post.
func (p *Posts) Comment(w http.ResponseWriter, r *http.Request) {
	if !parseForm(w, r) {
		p.renderer.Error(w, r, http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	actor := middleware.ActorFromCtx(ctx)
	slugParam := chi.URLParam(r, "slug")
	content := r.PostFormValue("content")

	parentID, ok := parseParentID(r.PostFormValue("parent_id"))
	var err error
	if ok {
		if _, err = p.blog.AddComment(ctx, actor, slugParam, content, parentID); err == nil {
			http.Redirect(w, r, "/post/"+slugParam+"#comments", http.StatusSeeOther)
			return
		}
	} else {
		err = &blog.ValidationError{Fields: map[string]string{"parent_id": "Invalid reply target."}}
	}

	fields, isValidation := fieldErrors(err)
	if !isValidation {
		writeError(p.renderer, w, r, err)
		return
	}

	detail, derr := p.blog.Detail(ctx, actor, slugParam)
	if derr != nil {
		writeError(p.renderer, w, r, derr)
		return
	}
	p.renderer.PageStatus(w, r, http.StatusUnprocessableEntity, "post_detail", &render.PageData{
		Title:   detail.Post.Title,
		Section: "posts",
		Errors:  fields,
		Data:    map[string]any{"Detail": detail, "Comment": content},
	})
}

// DeleteComment removes a comment and every reply below it.
func (p *Posts) DeleteComment(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		p.renderer.Error(w, r, http.StatusNotFound)
		return
	}

	slugParam := chi.URLParam(r, "slug")
	if err := p.blog.DeleteComment(r.Context(), middleware.ActorFromCtx(r.Context()), slugParam, id); err != nil {
		writeError(p.renderer, w, r, err)
		return
	}
	http.Redirect(w, r, "/post/"+slugParam+"#comments", http.StatusSeeOther)
}
