// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"inkwell/internal/blog"
	"inkwell/internal/models"
	"inkwell/internal/session"
)

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey string

const (
	// SessionKey is the context key for the session data.
	SessionKey contextKey = "session"
)

// UserLoader resolves the account behind a session.
type UserLoader interface {
	User(ctx context.Context, id int64) (*models.User, error)
}

// LoadSession retrieves the session from Valkey and stores it in the
// request context. It does not enforce authentication; a lookup failure is
// logged and the request continues as anonymous.
//
// The account is re-read on every request: a session whose account was
// deleted is destroyed, and role changes apply without signing in again.
func LoadSession(store *session.Store, users UserLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			data, err := store.Get(r.Context(), r)
			if err != nil {
				slog.Warn("session load failed", "error", err, "request_id", RequestIDFromCtx(r.Context()))
				next.ServeHTTP(w, r)
				return
			}

			if data != nil {
				data = refreshSession(w, r, store, users, data)
			}
			if data != nil {
				r = r.WithContext(context.WithValue(r.Context(), SessionKey, data))
			}

			next.ServeHTTP(w, r)
		})
	}
}

// refreshSession copies the current username and admin flag into data.
// It returns nil when the request must continue as anonymous.
func refreshSession(w http.ResponseWriter, r *http.Request, store *session.Store, users UserLoader, data *session.Data) *session.Data {
	ctx := r.Context()
	user, err := users.User(ctx, data.UserID)
	switch {
	case errors.Is(err, blog.ErrNotFound):
		if err := store.Destroy(ctx, w, r); err != nil {
			slog.Warn("stale session destroy failed", "error", err, "request_id", RequestIDFromCtx(ctx))
		}
		return nil
	case err != nil:
		slog.Warn("session user lookup failed", "error", err, "user_id", data.UserID, "request_id", RequestIDFromCtx(ctx))
		return nil
	}

	data.Username = user.Username
	data.IsAdmin = user.IsAdmin
	return data
}

// RequireAuth redirects requests without a session to the login page,
// remembering the requested path in the next parameter.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if SessionFromCtx(r.Context()) == nil {
			http.Redirect(w, r, LoginURL(r), http.StatusSeeOther)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Require2FA sends users whose second factor is still pending to the
// verification page. Must be applied after RequireAuth.
func Require2FA(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := SessionFromCtx(r.Context())
		if sess != nil && !sess.TwoFADone {
			http.Redirect(w, r, "/auth/2fa/verify", http.StatusSeeOther)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RequireAdmin returns 403 if the authenticated user is not an admin.
// Must be applied after RequireAuth and Require2FA.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := SessionFromCtx(r.Context())
		if sess == nil || !sess.IsAdmin {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// SessionFromCtx extracts the session data from the request context.
// Returns nil if no session is loaded.
func SessionFromCtx(ctx context.Context) *session.Data {
	data, _ := ctx.Value(SessionKey).(*session.Data)
	return data
}

// ActorFromCtx returns the signed-in actor. A session whose second factor
// is still pending counts as anonymous.
func ActorFromCtx(ctx context.Context) blog.Actor {
	sess := SessionFromCtx(ctx)
	if sess == nil || !sess.TwoFADone {
		return blog.Anonymous
	}
	return blog.Actor{UserID: sess.UserID, Username: sess.Username, IsAdmin: sess.IsAdmin}
}

// LoginURL is the login page with the current request path as next.
func LoginURL(r *http.Request) string {
	next := r.URL.RequestURI()
	if r.Method != http.MethodGet {
		next = r.Referer()
		if u, err := url.Parse(next); err == nil {
			next = u.RequestURI()
		}
	}
	if !SafeRedirect(next) {
		return "/auth/login"
	}
	return "/auth/login?next=" + url.QueryEscape(next)
}

// SafeRedirect reports whether target is a local path that is safe to
// redirect to after login.
func SafeRedirect(target string) bool {
	if len(target) == 0 || target[0] != '/' {
		return false
	}
	if len(target) > 1 && (target[1] == '/' || target[1] == '\\') {
		return false
	}
	return true
}
