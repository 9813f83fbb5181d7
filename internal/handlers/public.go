// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"inkwell/internal/blog"
	"inkwell/internal/middleware"
	"inkwell/internal/render"
)

// Public groups the read-only pages of the site: the front page, the post
// index, search and single posts.
type Public struct {
	renderer *render.Renderer
	blog     *blog.Service
}

// NewPublic creates a new Public handler group.
func NewPublic(renderer *render.Renderer, svc *blog.Service) *Public {
	return &Public{renderer: renderer, blog: svc}
}

// Home renders the front page.
func (p *Public) Home(w http.ResponseWriter, r *http.Request) {
	home, err := p.blog.Home(r.Context(), blog.ParsePage(r.URL.Query().Get("page")))
	if err != nil {
		writeError(p.renderer, w, r, err)
		return
	}

	p.renderer.Page(w, r, "home", &render.PageData{
		Section: "home",
		Data:    map[string]any{"Home": home},
	})
}

// Feed renders the post index, filtered by ?tag= when present.
func (p *Public) Feed(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	view, err := p.blog.Feed(r.Context(), q.Get("tag"), blog.ParsePage(q.Get("page")))
	if err != nil {
		writeError(p.renderer, w, r, err)
		return
	}

	title := "Posts"
	if view.Tag != nil {
		title = "Posts tagged " + view.Tag.Name
	}
	p.renderer.Page(w, r, "post_list", &render.PageData{
		Title:   title,
		Section: "posts",
		Data:    map[string]any{"View": view},
	})
}

// Search renders the search page with results for ?q=.
func (p *Public) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	view, err := p.blog.Search(r.Context(), q.Get("q"), blog.ParsePage(q.Get("page")))
	if err != nil {
		writeError(p.renderer, w, r, err)
		return
	}

	p.renderer.Page(w, r, "search", &render.PageData{
		Title:   "Search",
		Section: "search",
		Data:    map[string]any{"View": view},
	})
}

// ViewPost renders a single post and counts the view.
func (p *Public) ViewPost(w http.ResponseWriter, r *http.Request) {
	actor := middleware.ActorFromCtx(r.Context())
	detail, err := p.blog.ViewPost(r.Context(), actor, chi.URLParam(r, "slug"))
	if err != nil {
		writeError(p.renderer, w, r, err)
		return
	}

	p.renderer.Page(w, r, "post_detail", &render.PageData{
		Title:   detail.Post.Title,
		Section: "posts",
		Data:    map[string]any{"Detail": detail},
	})
}
