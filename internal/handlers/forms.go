package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"inkwell/internal/blog"
)

// maxFormBytes caps the size of a submitted form body.
const maxFormBytes = 1 << 20

// parseForm limits the request body and parses the form. A false return
// means the body was too large or malformed.
func parseForm(w http.ResponseWriter, r *http.Request) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	return r.ParseForm() == nil
}

// checked reports whether a checkbox field was ticked.
func checked(r *http.Request, field string) bool {
	switch strings.ToLower(r.PostFormValue(field)) {
	case "1", "on", "true", "yes":
		return true
	}
	return false
}

func postInputFromForm(r *http.Request) blog.PostInput {
	return blog.PostInput{
		Title:         r.PostFormValue("title"),
		Content:       r.PostFormValue("content"),
		Summary:       r.PostFormValue("summary"),
		FeaturedImage: r.PostFormValue("featured_image"),
		Tags:          r.PostFormValue("tags"),
		Publish:       checked(r, "is_published"),
	}
}

func registerInputFromForm(r *http.Request) blog.RegisterInput {
	return blog.RegisterInput{
		Username: r.PostFormValue("username"),
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
		Confirm:  r.PostFormValue("confirm"),
	}
}

func profileInputFromForm(r *http.Request) blog.ProfileInput {
	return blog.ProfileInput{
		AvatarURL: r.PostFormValue("avatar_url"),
		Bio:       r.PostFormValue("bio"),
	}
}

// parseID parses a positive database id from a path parameter.
func parseID(s string) (int64, bool) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// parseParentID reads the optional parent_id field of the comment form.
// Empty means a top-level comment.
func parseParentID(s string) (*int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, true
	}
	id, ok := parseID(s)
	if !ok {
		return nil, false
	}
	return &id, true
}
