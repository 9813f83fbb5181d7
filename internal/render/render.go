// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package render provides HTML template rendering for the site. Every page
// is a template paired with the shared base layout, all embedded in the
// binary.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"inkwell/internal/blog"
	"inkwell/internal/middleware"
	"inkwell/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

// PageData holds all data passed to page templates.
type PageData struct {
	Title     string            // Page title for the <title> tag
	Section   string            // Active navigation entry (e.g. "home", "search")
	Path      string            // Request URI, used to build pagination links
	Session   *session.Data     // Current session, nil when signed out
	Actor     blog.Actor        // Signed-in actor, blog.Anonymous otherwise
	CSRFToken string            // Token for the hidden csrf_token field
	Errors    map[string]string // Field-level validation messages
	Data      map[string]any    // Page-specific data
}

// Renderer parses the templates once and executes them per request.
type Renderer struct {
	templates map[string]*template.Template
}

// New parses every page template together with base.html.
func New() (*Renderer, error) {
	r := &Renderer{templates: make(map[string]*template.Template)}

	entries, err := templateFS.ReadDir("templates")
	if err != nil {
		return nil, fmt.Errorf("read embedded templates: %w", err)
	}

	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || name == "base.html" || !strings.HasSuffix(name, ".html") {
			continue
		}

		tmpl, err := template.New("base.html").Funcs(funcMap).ParseFS(
			templateFS, "templates/base.html", "templates/"+name,
		)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		r.templates[strings.TrimSuffix(name, ".html")] = tmpl
	}

	return r, nil
}

// Page renders a page with status 200.
func (rn *Renderer) Page(w http.ResponseWriter, r *http.Request, name string, data *PageData) {
	rn.PageStatus(w, r, http.StatusOK, name, data)
}

// PageStatus renders a page with the given status code. The page is
// rendered into a buffer first so a template failure never leaves a
// half-written response.
func (rn *Renderer) PageStatus(w http.ResponseWriter, r *http.Request, status int, name string, data *PageData) {
	tmpl, ok := rn.templates[name]
	if !ok {
		slog.Error("template not found", "template", name)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if data == nil {
		data = &PageData{}
	}
	data.CSRFToken = middleware.CSRFTokenFromCtx(r.Context())
	if data.Session == nil {
		data.Session = middleware.SessionFromCtx(r.Context())
	}
	data.Actor = middleware.ActorFromCtx(r.Context())
	data.Path = r.URL.RequestURI()

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base.html", data); err != nil {
		slog.Error("template execute failed", "template", name, "error", err,
			"request_id", middleware.RequestIDFromCtx(r.Context()))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// Error renders the generic error page for status. No detail about the
// cause is shown.
func (rn *Renderer) Error(w http.ResponseWriter, r *http.Request, status int) {
	rn.PageStatus(w, r, status, "error", &PageData{
		Title: http.StatusText(status),
		Data: map[string]any{
			"Status":  status,
			"Message": errorMessages[status],
		},
	})
}

var errorMessages = map[int]string{
	http.StatusNotFound:            "The page you are looking for does not exist.",
	http.StatusForbidden:           "You are not allowed to do that.",
	http.StatusTooManyRequests:     "Too many attempts. Please wait a moment and try again.",
	http.StatusInternalServerError: "Something went wrong on our side.",
}
