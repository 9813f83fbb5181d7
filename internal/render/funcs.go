package render

import (
	"html/template"
	"log/slog"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"inkwell/internal/blog"
	"inkwell/internal/markdown"
	"inkwell/internal/models"
)

const (
	// excerptLength is the number of characters shown on listings when a
	// post has no summary.
	excerptLength = 150

	// readingSpeed is characters read per minute.
	readingSpeed = 300

	timeLayout = "2006-01-02 15:04"
)

var tagPattern = regexp.MustCompile(`<[^>]*>`)

var funcMap = template.FuncMap{
	"deref":       deref,
	"deref64":     deref64,
	"excerpt":     excerpt,
	"readingTime": readingTime,
	"formatTime":  formatTime,
	"markdown":    renderMarkdown,
	"summary":     summary,
	"pager":       pager,
}

// deref safely dereferences a string pointer for use in templates.
func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func deref64(n *int64) int64 {
	if n == nil {
		return 0
	}
	return *n
}

// excerpt strips markup from s and cuts it to at most n characters on a
// word boundary, appending "..." when something was cut.
func excerpt(s string, n int) string {
	s = strings.Join(strings.Fields(tagPattern.ReplaceAllString(s, " ")), " ")
	if utf8.RuneCountInString(s) <= n {
		return s
	}

	cut := string([]rune(s)[:n])
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " .,;:") + "..."
}

// readingTime estimates minutes to read s, at least one.
func readingTime(s string) int {
	minutes := utf8.RuneCountInString(s) / readingSpeed
	if minutes < 1 {
		return 1
	}
	return minutes
}

// formatTime accepts time.Time or *time.Time; nil renders as "".
func formatTime(v any) string {
	switch t := v.(type) {
	case time.Time:
		return t.Format(timeLayout)
	case *time.Time:
		if t == nil {
			return ""
		}
		return t.Format(timeLayout)
	}
	return ""
}

// renderMarkdown converts a post body to HTML. On failure the source is
// shown escaped instead.
func renderMarkdown(s string) template.HTML {
	out, err := markdown.ToHTML(s)
	if err != nil {
		slog.Warn("markdown render failed", "error", err)
		return template.HTML("<pre>" + template.HTMLEscapeString(s) + "</pre>")
	}
	return template.HTML(out)
}

// summary is the listing blurb of a post: its summary, or an excerpt of
// the body when it has none.
func summary(p models.Post) string {
	if p.Summary != nil && *p.Summary != "" {
		return *p.Summary
	}
	return excerpt(p.Content, excerptLength)
}

// pagerView holds the links of a pagination bar. Empty links are hidden.
type pagerView struct {
	Number int
	Pages  int
	Prev   string
	Next   string
}

// pager builds the pagination bar for page p of the listing at requestURI,
// keeping every other query parameter.
func pager(requestURI string, p blog.Page) pagerView {
	v := pagerView{Number: p.Number, Pages: p.Pages()}
	if p.HasPrev() {
		v.Prev = withPage(requestURI, p.Prev())
	}
	if p.HasNext() {
		v.Next = withPage(requestURI, p.Next())
	}
	return v
}

func withPage(requestURI string, page int) string {
	u, err := url.Parse(requestURI)
	if err != nil {
		return "?page=" + strconv.Itoa(page)
	}
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()
	return u.RequestURI()
}
