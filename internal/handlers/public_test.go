// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"inkwell/internal/session"
)

func TestHome_ShowsPublishedOnly(t *testing.T) {
	env := newTestEnv(t)
	env.resetUsers(t, "h-home")
	_, sess := env.register(t, "h-home")

	env.createPost(t, sess, "Handler Home Published", true)
	env.createPost(t, sess, "Handler Home Draft", false)

	rec := httptest.NewRecorder()
	env.Public.Home(rec, newRequest("GET", "/", nil, nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Handler Home Published") {
		t.Error("published post missing from home")
	}
	if strings.Contains(body, "Handler Home Draft") {
		t.Error("draft shown on home")
	}
}

func TestViewPost(t *testing.T) {
	env := newTestEnv(t)
	env.resetUsers(t, "h-view", "h-view-other")
	_, author := env.register(t, "h-view")
	_, other := env.register(t, "h-view-other")

	published := env.createPost(t, author, "Handler View Published", true)
	draft := env.createPost(t, author, "Handler View Draft", false)

	tests := []struct {
		name   string
		slug   string
		viewer *session.Data
		want   int
	}{
		{"published anonymous", published.Slug, nil, http.StatusOK},
		{"draft anonymous", draft.Slug, nil, http.StatusNotFound},
		{"draft other user", draft.Slug, other, http.StatusNotFound},
		{"draft author", draft.Slug, author, http.StatusOK},
		{"missing", "handler-no-such-post", nil, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := newRequest("GET", "/post/"+tt.slug, nil, tt.viewer, "slug", tt.slug)
			rec := httptest.NewRecorder()
			env.Public.ViewPost(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestFeed(t *testing.T) {
	env := newTestEnv(t)

	rec := httptest.NewRecorder()
	env.Public.Feed(rec, newRequest("GET", "/post/?tag=handler-no-such-tag", nil, nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown tag status = %d, want 404", rec.Code)
	}

	rec = httptest.NewRecorder()
	env.Public.Feed(rec, newRequest("GET", "/post/?page=abc", nil, nil))
	if rec.Code != http.StatusOK {
		t.Errorf("bad page status = %d, want 200", rec.Code)
	}
}

func TestSearch(t *testing.T) {
	env := newTestEnv(t)
	env.resetUsers(t, "h-search")
	_, sess := env.register(t, "h-search")

	env.createPost(t, sess, "Handler Zebrafish Notes", true)
	env.createPost(t, sess, "Handler Zebrafish Draft", false)

	rec := httptest.NewRecorder()
	env.Public.Search(rec, newRequest("GET", "/search?q=zebrafish", nil, nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Handler Zebrafish Notes") {
		t.Error("published match missing")
	}
	if strings.Contains(body, "Handler Zebrafish Draft") {
		t.Error("draft returned by search")
	}
}
