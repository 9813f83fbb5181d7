// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package blog

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"inkwell/internal/models"
)

// Listing limits.
const (
	DefaultPerPage  = 10
	RecentLimit     = 5
	PopularTagLimit = 10
	MaxQueryLen     = 100
)

// Page describes one page of a paginated listing.
type Page struct {
	Number int
	Size   int
	Total  int
}

// NewPage clamps number to at least 1. Pages past the end are allowed and
// simply come back empty.
func NewPage(number, size, total int) Page {
	if number < 1 {
		number = 1
	}
	if size < 1 {
		size = DefaultPerPage
	}
	return Page{Number: number, Size: size, Total: total}
}

// ParsePage reads a page number from a query value; anything unparsable is page 1.
func ParsePage(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// Offset is the number of rows to skip.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// Pages is the total number of pages, at least 1.
func (p Page) Pages() int {
	if p.Total <= 0 {
		return 1
	}
	return (p.Total + p.Size - 1) / p.Size
}

func (p Page) HasPrev() bool { return p.Number > 1 }
func (p Page) HasNext() bool { return p.Number < p.Pages() }
func (p Page) Prev() int     { return p.Number - 1 }
func (p Page) Next() int     { return p.Number + 1 }

// PostPage is a page of posts with its pagination state.
type PostPage struct {
	Posts []models.Post
	Page  Page
}

// HomeView is the data of the front page.
type HomeView struct {
	Feed        PostPage
	Recent      []models.Post
	PopularTags []models.Tag
}

// FeedView is the post index, optionally filtered by a tag.
type FeedView struct {
	Tag  *models.Tag
	Feed PostPage
}

// SearchView holds a search query and its results.
type SearchView struct {
	Query string
	Feed  PostPage
}

// normalizeQuery trims the search query and caps it at MaxQueryLen runes.
func normalizeQuery(q string) string {
	q = strings.TrimSpace(q)
	if utf8.RuneCountInString(q) <= MaxQueryLen {
		return q
	}
	return strings.TrimSpace(string([]rune(q)[:MaxQueryLen]))
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds an ILIKE pattern matching q literally anywhere.
func containsPattern(q string) string {
	return "%" + likeEscaper.Replace(q) + "%"
}
