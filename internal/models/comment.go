package models

import "time"

// Comment is a reader response to a post. A nil ParentID marks a
// top-level comment; otherwise it replies to another comment on the
// same post.
type Comment struct {
	ID         int64     `json:"id"`
	Content    string    `json:"content"`
	IsApproved bool      `json:"is_approved"`
	UserID     int64     `json:"user_id"`
	PostID     int64     `json:"post_id"`
	ParentID   *int64    `json:"parent_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`

	// AuthorName is joined from users for display.
	AuthorName string `json:"author_name,omitempty"`
}

// IsReply reports whether the comment answers another comment.
func (c *Comment) IsReply() bool {
	return c.ParentID != nil
}
