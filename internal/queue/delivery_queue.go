// internal/queue/delivery_queue.go
package queue

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// ClaimedTask is one delivery task held under an open transaction. The row
// stays locked for the holder until Delete commits a terminal outcome or
// Release rolls back and leaves the row claimable again.
type ClaimedTask interface {
	IssueID() uuid.UUID
	SubscriberEmail() string
	Delete(ctx context.Context) error
	Release() error
}

// DeliveryQueueInterface defines methods used by the worker
type DeliveryQueueInterface interface {
	ClaimOne(ctx context.Context) (ClaimedTask, error)
}

// DeliveryQueue is the shared issue_delivery_queue table. Any number of
// workers may claim from it concurrently; FOR UPDATE SKIP LOCKED hands each
// claimant a distinct unlocked row without blocking on rows held by others.
type DeliveryQueue struct {
	DB *sql.DB
}

// ClaimOne locks and returns one arbitrary task, or nil when the queue has
// no unlocked rows.
func (q *DeliveryQueue) ClaimOne(ctx context.Context) (ClaimedTask, error) {
	tx, err := q.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin claim transaction: %w", err)
	}

	query := `
        SELECT newsletter_issue_id, subscriber_email
        FROM issue_delivery_queue
        FOR UPDATE
        SKIP LOCKED
        LIMIT 1
    `
	var task claimedTask
	err = tx.QueryRowContext(ctx, query).Scan(&task.issueID, &task.email)
	if err != nil {
		_ = tx.Rollback()
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to claim delivery task: %w", err)
	}

	task.tx = tx
	return &task, nil
}

// EnqueueTx inserts one task per confirmed subscriber in a single set-based
// statement, inside the caller's transaction. Addresses are copied raw;
// validation is deferred to delivery time.
func EnqueueTx(ctx context.Context, tx *sql.Tx, issueID uuid.UUID) error {
	query := `
        INSERT INTO issue_delivery_queue (newsletter_issue_id, subscriber_email)
        SELECT $1, email
        FROM subscriptions
        WHERE status = 'confirmed'
    `
	if _, err := tx.ExecContext(ctx, query, issueID); err != nil {
		return fmt.Errorf("failed to enqueue deliveries: %w", err)
	}
	return nil
}

// PendingCount reports the remaining queue depth for one issue.
func (q *DeliveryQueue) PendingCount(ctx context.Context, issueID uuid.UUID) (int, error) {
	var count int
	err := q.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM issue_delivery_queue WHERE newsletter_issue_id = $1`,
		issueID,
	).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

type claimedTask struct {
	tx      *sql.Tx
	issueID uuid.UUID
	email   string
}

func (t *claimedTask) IssueID() uuid.UUID {
	return t.issueID
}

func (t *claimedTask) SubscriberEmail() string {
	return t.email
}

// Delete removes the exact composite key and commits. Terminal outcomes only.
func (t *claimedTask) Delete(ctx context.Context) error {
	query := `
        DELETE FROM issue_delivery_queue
        WHERE newsletter_issue_id = $1 AND subscriber_email = $2
    `
	if _, err := t.tx.ExecContext(ctx, query, t.issueID, t.email); err != nil {
		_ = t.tx.Rollback()
		return fmt.Errorf("failed to delete delivery task: %w", err)
	}
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit delivery task deletion: %w", err)
	}
	return nil
}

// Release rolls back the claim so the row becomes claimable again.
func (t *claimedTask) Release() error {
	return t.tx.Rollback()
}

var _ DeliveryQueueInterface = (*DeliveryQueue)(nil)
var _ ClaimedTask = (*claimedTask)(nil)
