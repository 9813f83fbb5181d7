// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"strings"
	"time"
)

// DefaultTagColor is the display color assigned to newly created tags.
const DefaultTagColor = "#007bff"

// Post is a blog article. Drafts (IsPublished == false) never appear in
// public listings.
type Post struct {
	ID            int64      `json:"id"`
	Title         string     `json:"title"`
	Slug          string     `json:"slug"`
	Content       string     `json:"content"`
	Summary       *string    `json:"summary,omitempty"`
	FeaturedImage *string    `json:"featured_image,omitempty"`
	IsPublished   bool       `json:"is_published"`
	ViewCount     int64      `json:"view_count"`
	UserID        int64      `json:"user_id"`
	PublishedAt   *time.Time `json:"published_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`

	// Virtual fields populated by store methods.
	AuthorName string `json:"author_name,omitempty"`
	Tags       []Tag  `json:"tags,omitempty"`
}

// TagNames returns the names of the post's loaded tags joined for a form field.
func (p *Post) TagNames() string {
	names := make([]string, 0, len(p.Tags))
	for _, t := range p.Tags {
		names = append(names, t.Name)
	}
	return strings.Join(names, ", ")
}

// Tag labels posts. Tags have no owner and are never deleted.
type Tag struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Color string `json:"color"`

	// PostCount is populated by popularity queries only.
	PostCount int `json:"post_count,omitempty"`
}
