// internal/model/issue.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// NewsletterIssue is immutable once published.
type NewsletterIssue struct {
	ID          uuid.UUID `db:"newsletter_issue_id" json:"id"`
	Title       string    `db:"title" json:"title"`
	ContentHTML string    `db:"content_html" json:"content_html"`
	ContentText string    `db:"content_text" json:"content_text"`
	PublishedAt time.Time `db:"published_at" json:"published_at"`
}
