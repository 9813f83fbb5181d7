// Package router sets up all HTTP routes and middleware chains for
// Inkwell. It organizes routes into public, authoring, account and admin
// groups with appropriate middleware stacks.
package router

import (
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"

	"inkwell/internal/handlers"
	"inkwell/internal/middleware"
	"inkwell/internal/render"
	"inkwell/internal/session"
	"inkwell/web"
)

// New creates and returns the configured Chi router with all middleware
// and route groups wired up. users resolves the account behind each
// session. authLimiter throttles login and registration submissions;
// secure marks cookies Secure.
func New(sessionStore *session.Store, users middleware.UserLoader, renderer *render.Renderer, authLimiter *middleware.RateLimiter, secure bool,
	public *handlers.Public, posts *handlers.Posts, auth *handlers.Auth, admin *handlers.Admin) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)
	r.Use(middleware.LoadSession(sessionStore, users))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		renderer.Error(w, r, http.StatusNotFound)
	})

	// Health check and assets: no CSRF.
	r.Get("/health", healthHandler)
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS()))))

	r.Group(func(r chi.Router) {
		r.Use(middleware.CSRF(secure))

		r.Get("/", public.Home)
		r.Get("/search", public.Search)

		r.Route("/post", func(r chi.Router) {
			r.Get("/", public.Feed)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAuth)
				r.Use(middleware.Require2FA)

				r.Get("/create", posts.New)
				r.Post("/create", posts.Create)
				r.Get("/{slug}/edit", posts.Edit)
				r.Post("/{slug}/edit", posts.Update)
				r.Post("/{slug}/delete", posts.Delete)
				r.Post("/{slug}/publish", posts.Publish)
				r.Post("/{slug}/unpublish", posts.Unpublish)
				r.Post("/{slug}/comment", posts.Comment)
				r.Post("/{slug}/comment/{id}/delete", posts.DeleteComment)
			})

			r.Get("/{slug}", public.ViewPost)
		})

		r.Route("/auth", func(r chi.Router) {
			r.Get("/login", auth.LoginPage)
			r.With(authLimiter.Middleware).Post("/login", auth.LoginSubmit)
			r.Get("/register", auth.RegisterPage)
			r.With(authLimiter.Middleware).Post("/register", auth.RegisterSubmit)
			r.Post("/logout", auth.Logout)

			// Second factor prompt: requires a session but NOT a completed 2FA.
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAuth)
				r.Get("/2fa/verify", auth.TwoFAVerifyPage)
				r.With(authLimiter.Middleware).Post("/2fa/verify", auth.TwoFAVerifySubmit)
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAuth)
				r.Use(middleware.Require2FA)
				r.Get("/profile", auth.ProfilePage)
				r.Post("/profile", auth.ProfileSubmit)
				r.Get("/2fa/setup", auth.TwoFASetupPage)
				r.Post("/2fa/disable", auth.TwoFADisable)
			})
		})

		// User management, admin only.
		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Use(middleware.Require2FA)
			r.Use(middleware.RequireAdmin)
			r.Get("/users", admin.UsersList)
			r.Post("/users/{id}/delete", admin.UserDelete)
		})
	})

	return r
}

// staticFS returns the embedded web/static tree rooted at its top.
func staticFS() fs.FS {
	sub, err := fs.Sub(web.StaticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
