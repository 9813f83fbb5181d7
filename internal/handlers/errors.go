package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"inkwell/internal/blog"
	"inkwell/internal/middleware"
	"inkwell/internal/render"
)

// fieldErrors returns the per-field messages of a validation failure.
func fieldErrors(err error) (map[string]string, bool) {
	var verr *blog.ValidationError
	if errors.As(err, &verr) {
		return verr.Fields, true
	}
	return nil, false
}

// writeError maps a service error to a response. Validation failures that
// reach here have no form to re-render and are shown as a 422 page.
func writeError(rn *render.Renderer, w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, blog.ErrUnauthenticated):
		http.Redirect(w, r, middleware.LoginURL(r), http.StatusSeeOther)
	case errors.Is(err, blog.ErrNotFound):
		rn.Error(w, r, http.StatusNotFound)
	case errors.Is(err, blog.ErrForbidden):
		rn.Error(w, r, http.StatusForbidden)
	default:
		if _, ok := fieldErrors(err); ok {
			rn.Error(w, r, http.StatusUnprocessableEntity)
			return
		}
		slog.Error("request failed",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.RequestIDFromCtx(r.Context()),
		)
		rn.Error(w, r, http.StatusInternalServerError)
	}
}
