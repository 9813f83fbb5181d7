package blog

import (
	"time"

	"inkwell/internal/models"
)

// applyPublication sets the publication flag of p. The first transition into
// the published state stamps PublishedAt with now; an existing PublishedAt is
// never changed, so unpublishing and republishing keep the first date.
func applyPublication(p *models.Post, publish bool, now time.Time) {
	p.IsPublished = publish
	if publish && p.PublishedAt == nil {
		t := now.UTC()
		p.PublishedAt = &t
	}
}
