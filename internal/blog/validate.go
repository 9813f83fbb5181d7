package blog

import (
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Field limits shared by the forms and the schema.
const (
	minUsernameLen = 3
	maxUsernameLen = 80
	maxEmailLen    = 120
	minPasswordLen = 3
	maxTitleLen    = 200
	maxSummaryLen  = 500
	maxURLLen      = 300
	maxBioLen      = 2000
	minCommentLen  = 2
	maxCommentLen  = 1000
	maxTagNameLen  = 50
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// RegisterInput is the registration form.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	Confirm  string
}

// PostInput is the create/edit post form. Tags is a comma-separated list.
type PostInput struct {
	Title         string
	Content       string
	Summary       string
	FeaturedImage string
	Tags          string
	Publish       bool
}

// ProfileInput is the profile edit form.
type ProfileInput struct {
	AvatarURL string
	Bio       string
}

func (in *RegisterInput) normalize() {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
}

func (in RegisterInput) validate() *ValidationError {
	v := &ValidationError{}
	switch n := utf8.RuneCountInString(in.Username); {
	case n == 0:
		v.Add("username", "Username is required.")
	case n < minUsernameLen || n > maxUsernameLen:
		v.Add("username", "Username must be between 3 and 80 characters.")
	case !usernamePattern.MatchString(in.Username):
		v.Add("username", "Username may only contain letters, digits, '_' and '-'.")
	}

	switch {
	case in.Email == "":
		v.Add("email", "Email is required.")
	case utf8.RuneCountInString(in.Email) > maxEmailLen:
		v.Add("email", "Email is too long (max 120 characters).")
	case !looksLikeEmail(in.Email):
		v.Add("email", "Email address is not valid.")
	}

	if utf8.RuneCountInString(in.Password) < minPasswordLen {
		v.Add("password", "Password must be at least 3 characters.")
	}
	if in.Password != in.Confirm {
		v.Add("confirm", "Passwords do not match.")
	}
	return v
}

func looksLikeEmail(s string) bool {
	at := strings.IndexByte(s, '@')
	return at > 0 && at < len(s)-1 && !strings.ContainsAny(s, " \t\r\n")
}

func (in *PostInput) normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Summary = strings.TrimSpace(in.Summary)
	in.FeaturedImage = strings.TrimSpace(in.FeaturedImage)
}

func (in PostInput) validate() *ValidationError {
	v := &ValidationError{}
	switch {
	case in.Title == "":
		v.Add("title", "Title is required.")
	case utf8.RuneCountInString(in.Title) > maxTitleLen:
		v.Add("title", "Title is too long (max 200 characters).")
	}
	if strings.TrimSpace(in.Content) == "" {
		v.Add("content", "Content is required.")
	}
	if utf8.RuneCountInString(in.Summary) > maxSummaryLen {
		v.Add("summary", "Summary is too long (max 500 characters).")
	}
	if msg := validateURL(in.FeaturedImage); msg != "" {
		v.Add("featured_image", msg)
	}
	return v
}

func (in *ProfileInput) normalize() {
	in.AvatarURL = strings.TrimSpace(in.AvatarURL)
	in.Bio = strings.TrimSpace(in.Bio)
}

func (in ProfileInput) validate() *ValidationError {
	v := &ValidationError{}
	if msg := validateURL(in.AvatarURL); msg != "" {
		v.Add("avatar_url", msg)
	}
	if utf8.RuneCountInString(in.Bio) > maxBioLen {
		v.Add("bio", "Bio is too long (max 2000 characters).")
	}
	return v
}

// validateURL checks an optional absolute http(s) URL. Empty is valid.
func validateURL(raw string) string {
	if raw == "" {
		return ""
	}
	if utf8.RuneCountInString(raw) > maxURLLen {
		return "URL is too long (max 300 characters)."
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "URL must start with http:// or https://."
	}
	return ""
}

// validateComment trims content and checks its length.
func validateComment(content string) (string, *ValidationError) {
	content = strings.TrimSpace(content)
	n := utf8.RuneCountInString(content)
	if n < minCommentLen || n > maxCommentLen {
		return "", fieldError("content", "Comment must be between 2 and 1000 characters.")
	}
	return content, nil
}

// optional turns an empty string into nil.
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
