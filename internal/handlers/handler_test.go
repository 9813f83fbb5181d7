// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure for handler integration
// tests. Tests are skipped when PostgreSQL or Valkey are unavailable.
package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"

	"inkwell/internal/blog"
	"inkwell/internal/database"
	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/render"
	"inkwell/internal/session"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test PostgreSQL and runs migrations.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "inkwell")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "inkwell")
	dsn := "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Skipf("skipping: cannot open DB: %v", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping: DB not reachable: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("migrate: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

// testValkeyClient returns a Redis client for handler tests on DB 15.
func testValkeyClient(t *testing.T) *redis.Client {
	t.Helper()

	host := envOr("VALKEY_HOST", "localhost")
	port := envOr("VALKEY_PORT", "6379")
	password := os.Getenv("VALKEY_PASSWORD")

	client := redis.NewClient(&redis.Options{
		Addr:     host + ":" + port,
		Password: password,
		DB:       15,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("skipping: Valkey not reachable: %v", err)
	}

	t.Cleanup(func() {
		keys, _ := client.Keys(ctx, "session:*").Result()
		if len(keys) > 0 {
			client.Del(ctx, keys...)
		}
		client.Close()
	})

	return client
}

// testEnv holds all dependencies for handler integration tests.
type testEnv struct {
	DB       *sql.DB
	Valkey   *redis.Client
	Renderer *render.Renderer
	Sessions *session.Store
	Blog     *blog.Service
	Public   *Public
	Posts    *Posts
	Auth     *Auth
	Admin    *Admin
}

// newTestEnv creates a complete test environment with all handler dependencies.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testDB(t)
	vk := testValkeyClient(t)

	renderer, err := render.New()
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}

	sessions := session.NewStore(vk, false)
	svc := blog.NewService(db, blog.DefaultPerPage)

	return &testEnv{
		DB:       db,
		Valkey:   vk,
		Renderer: renderer,
		Sessions: sessions,
		Blog:     svc,
		Public:   NewPublic(renderer, svc),
		Posts:    NewPosts(renderer, svc),
		Auth:     NewAuth(renderer, sessions, svc),
		Admin:    NewAdmin(renderer, svc),
	}
}

// resetUsers deletes the named users now and when the test ends. Their
// posts and comments go with them.
func (e *testEnv) resetUsers(t *testing.T, usernames ...string) {
	t.Helper()
	clean := func() {
		for _, u := range usernames {
			e.DB.Exec("DELETE FROM users WHERE username = $1", u)
		}
	}
	clean()
	t.Cleanup(clean)
}

// register creates an account with password "pw1" and returns it with a
// completed session for it.
func (e *testEnv) register(t *testing.T, username string) (*models.User, *session.Data) {
	t.Helper()
	u, err := e.Blog.Register(context.Background(), blog.RegisterInput{
		Username: username,
		Email:    username + "@handlers.local",
		Password: "pw1",
		Confirm:  "pw1",
	})
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	return u, testSession(u, true)
}

// createPost creates a post as the session's user.
func (e *testEnv) createPost(t *testing.T, sess *session.Data, title string, publish bool) *models.Post {
	t.Helper()
	ctx := ctxWithSession(context.Background(), sess)
	p, err := e.Blog.CreatePost(ctx, middleware.ActorFromCtx(ctx), blog.PostInput{
		Title:   title,
		Content: "Body of " + title,
		Publish: publish,
	})
	if err != nil {
		t.Fatalf("create post %q: %v", title, err)
	}
	return p
}

// ctxWithSession adds session data to a context using the middleware key.
func ctxWithSession(ctx context.Context, data *session.Data) context.Context {
	return context.WithValue(ctx, middleware.SessionKey, data)
}

// testSession creates a session.Data for u.
func testSession(u *models.User, twoFADone bool) *session.Data {
	return &session.Data{
		UserID:    u.ID,
		Username:  u.Username,
		IsAdmin:   u.IsAdmin,
		TwoFADone: twoFADone,
	}
}

// newRequest builds a request with optional session and chi URL params
// given as key, value pairs.
func newRequest(method, target string, form url.Values, sess *session.Data, params ...string) *http.Request {
	var r *http.Request
	if form != nil {
		r = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		r = httptest.NewRequest(method, target, nil)
	}

	ctx := r.Context()
	if len(params) > 0 {
		rctx := chi.NewRouteContext()
		for i := 0; i+1 < len(params); i += 2 {
			rctx.URLParams.Add(params[i], params[i+1])
		}
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	}
	if sess != nil {
		ctx = ctxWithSession(ctx, sess)
	}
	return r.WithContext(ctx)
}

// sessionCookie returns the session cookie set on a response, if any.
func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == session.CookieName {
			return c
		}
	}
	return nil
}
