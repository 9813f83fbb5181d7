package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/session"
)

// signIn stores a completed session for u in Valkey and returns its cookie.
func (e *testEnv) signIn(t *testing.T, u *models.User) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	if _, err := e.Sessions.Create(context.Background(), rec, testSession(u, true)); err != nil {
		t.Fatalf("create session: %v", err)
	}
	cookie := sessionCookie(rec)
	if cookie == nil {
		t.Fatal("no session cookie")
	}
	return cookie
}

// withSession mounts h behind session loading and the login guards, as the
// router does for signed-in routes.
func (e *testEnv) withSession(h http.Handler) http.Handler {
	return middleware.LoadSession(e.Sessions, e.Blog)(middleware.RequireAuth(middleware.Require2FA(h)))
}

func TestDeletedAccountLosesSession(t *testing.T) {
	env := newTestEnv(t)
	env.resetUsers(t, "h-gone")
	u, _ := env.register(t, "h-gone")
	cookie := env.signIn(t, u)

	if _, err := env.DB.Exec("DELETE FROM users WHERE id = $1", u.ID); err != nil {
		t.Fatalf("delete user: %v", err)
	}

	form := url.Values{"title": {"Written After Deletion"}, "content": {"x"}}
	req := httptest.NewRequest("POST", "/post/create", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Referer", "http://localhost/post/create")
	req.AddCookie(cookie)

	rec := httptest.NewRecorder()
	env.withSession(http.HandlerFunc(env.Posts.Create)).ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/auth/login?next=%2Fpost%2Fcreate" {
		t.Errorf("Location = %q", loc)
	}
	if c := sessionCookie(rec); c == nil || c.MaxAge >= 0 {
		t.Errorf("session cookie not cleared: %+v", c)
	}

	lookup := httptest.NewRequest("GET", "/", nil)
	lookup.AddCookie(cookie)
	if data, err := env.Sessions.Get(context.Background(), lookup); err != nil || data != nil {
		t.Errorf("session still stored: %+v, %v", data, err)
	}

	var n int
	if err := env.DB.QueryRow("SELECT COUNT(*) FROM posts WHERE title = 'Written After Deletion'").Scan(&n); err != nil || n != 0 {
		t.Errorf("post created for deleted account: count %d, err %v", n, err)
	}
}

func TestPromotionAppliesToLiveSession(t *testing.T) {
	env := newTestEnv(t)
	env.resetUsers(t, "h-promoted")
	u, _ := env.register(t, "h-promoted")
	cookie := env.signIn(t, u)

	h := env.withSession(middleware.RequireAdmin(http.HandlerFunc(env.Admin.UsersList)))
	get := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest("GET", "/admin/users", nil)
		req.AddCookie(cookie)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	if rec := get(); rec.Code != http.StatusForbidden {
		t.Fatalf("before promotion: status = %d, want 403", rec.Code)
	}

	if err := env.Blog.Promote(context.Background(), "h-promoted"); err != nil {
		t.Fatalf("Promote: %v", err)
	}

	rec := get()
	if rec.Code != http.StatusOK {
		t.Fatalf("after promotion: status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "h-promoted") {
		t.Error("user list missing the promoted account")
	}
}

func TestSessionKeepsNameInSync(t *testing.T) {
	env := newTestEnv(t)
	env.resetUsers(t, "h-synced")
	u, _ := env.register(t, "h-synced")

	stale := *u
	stale.Username = "h-old-name"
	rec := httptest.NewRecorder()
	if _, err := env.Sessions.Create(context.Background(), rec, testSession(&stale, true)); err != nil {
		t.Fatalf("create session: %v", err)
	}

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(sessionCookie(rec))

	var got *session.Data
	env.withSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = middleware.SessionFromCtx(r.Context())
	})).ServeHTTP(httptest.NewRecorder(), req)

	if got == nil || got.Username != "h-synced" || got.UserID != u.ID {
		t.Errorf("session = %+v, want the stored username", got)
	}
}
