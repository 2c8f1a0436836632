// internal/repository/issue_repository.go
package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	appErrors "github.com/inkwelldev/newsletter-backend/internal/errors"
	"github.com/inkwelldev/newsletter-backend/internal/model"
)

// IssueRepositoryInterface defines methods used by the worker and the
// admin endpoints
type IssueRepositoryInterface interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.NewsletterIssue, error)
}

type IssueRepository struct {
	DB *sql.DB
}

// GetByID fetches a published issue by id
func (r *IssueRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.NewsletterIssue, error) {
	query := `
        SELECT newsletter_issue_id, title, content_html, content_text, published_at
        FROM newsletter_issues
        WHERE newsletter_issue_id = $1
    `
	var issue model.NewsletterIssue
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&issue.ID, &issue.Title, &issue.ContentHTML, &issue.ContentText, &issue.PublishedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewIssueNotFound(id)
		}
		return nil, err
	}
	return &issue, nil
}

// insertIssueTx creates the issue row inside the publish transaction and
// returns its fresh identifier.
func insertIssueTx(ctx context.Context, tx *sql.Tx, title, contentHTML, contentText string) (uuid.UUID, error) {
	issueID := uuid.New()
	query := `
        INSERT INTO newsletter_issues
        (newsletter_issue_id, title, content_html, content_text, published_at)
        VALUES ($1, $2, $3, $4, $5)
    `
	if _, err := tx.ExecContext(ctx, query, issueID, title, contentHTML, contentText, time.Now()); err != nil {
		return uuid.Nil, err
	}
	return issueID, nil
}

var _ IssueRepositoryInterface = (*IssueRepository)(nil)
