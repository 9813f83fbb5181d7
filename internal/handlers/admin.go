// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers contains the HTTP handlers for Inkwell. Handlers are
// grouped by concern (public, posts, auth, admin) and receive their
// dependencies through the handler struct.
package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"inkwell/internal/blog"
	"inkwell/internal/middleware"
	"inkwell/internal/render"
)

// Admin groups the user management handlers.
type Admin struct {
	renderer *render.Renderer
	blog     *blog.Service
}

// NewAdmin creates a new Admin handler group.
func NewAdmin(renderer *render.Renderer, svc *blog.Service) *Admin {
	return &Admin{renderer: renderer, blog: svc}
}

// UsersList renders every account.
func (a *Admin) UsersList(w http.ResponseWriter, r *http.Request) {
	users, err := a.blog.ListUsers(r.Context(), middleware.ActorFromCtx(r.Context()))
	if err != nil {
		writeError(a.renderer, w, r, err)
		return
	}

	a.renderer.Page(w, r, "admin_users", &render.PageData{
		Title:   "Users",
		Section: "admin",
		Data:    map[string]any{"Users": users},
	})
}

// UserDelete removes an account with all of its posts and comments.
func (a *Admin) UserDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		a.renderer.Error(w, r, http.StatusNotFound)
		return
	}

	if err := a.blog.DeleteUser(r.Context(), middleware.ActorFromCtx(r.Context()), id); err != nil {
		writeError(a.renderer, w, r, err)
		return
	}
	http.Redirect(w, r, "/admin/users", http.StatusSeeOther)
}
