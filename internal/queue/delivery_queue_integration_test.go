//go:build integration

package queue_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/inkwelldev/newsletter-backend/internal/queue"
	"github.com/inkwelldev/newsletter-backend/internal/testutil"
)

func TestEnqueueTxCopiesOnlyConfirmedSubscribers(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test disabled in short mode")
	}

	ctx := context.Background()
	db := testutil.StartPostgres(t, ctx)

	insertSubscription(t, ctx, db, "confirmed@example.com", "confirmed")
	insertSubscription(t, ctx, db, "pending@example.com", "pending_confirmation")
	issueID := insertIssue(t, ctx, db)

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, queue.EnqueueTx(ctx, tx, issueID))
	require.NoError(t, tx.Commit())

	q := &queue.DeliveryQueue{DB: db}
	pending, err := q.PendingCount(ctx, issueID)
	require.NoError(t, err)
	require.Equal(t, 1, pending)

	task, err := q.ClaimOne(ctx)
	require.NoError(t, err)
	require.NotNil(t, task)
	require.Equal(t, "confirmed@example.com", task.SubscriberEmail())
	require.NoError(t, task.Release())
}

func TestClaimOneHandsEachHolderADistinctRow(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test disabled in short mode")
	}

	ctx := context.Background()
	db := testutil.StartPostgres(t, ctx)
	// Every open claim pins a connection for the lifetime of its transaction.
	db.SetMaxOpenConns(10)

	const tasks = 5
	issueID := insertIssue(t, ctx, db)
	for i := 0; i < tasks; i++ {
		insertSubscription(t, ctx, db, uuid.NewString()+"@example.com", "confirmed")
	}

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, queue.EnqueueTx(ctx, tx, issueID))
	require.NoError(t, tx.Commit())

	q := &queue.DeliveryQueue{DB: db}
	seen := make(map[string]bool)
	var held []queue.ClaimedTask
	for i := 0; i < tasks; i++ {
		task, err := q.ClaimOne(ctx)
		require.NoError(t, err)
		require.NotNil(t, task)
		require.False(t, seen[task.SubscriberEmail()], "row %q claimed twice", task.SubscriberEmail())
		seen[task.SubscriberEmail()] = true
		held = append(held, task)
	}

	// Every row is locked by an open claim; the next caller skips them all
	// instead of blocking.
	extra, err := q.ClaimOne(ctx)
	require.NoError(t, err)
	require.Nil(t, extra)

	for _, task := range held {
		require.NoError(t, task.Release())
	}
}

func TestReleaseMakesRowClaimableAndDeleteRemovesIt(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test disabled in short mode")
	}

	ctx := context.Background()
	db := testutil.StartPostgres(t, ctx)

	issueID := insertIssue(t, ctx, db)
	insertSubscription(t, ctx, db, "solo@example.com", "confirmed")

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, queue.EnqueueTx(ctx, tx, issueID))
	require.NoError(t, tx.Commit())

	q := &queue.DeliveryQueue{DB: db}

	task, err := q.ClaimOne(ctx)
	require.NoError(t, err)
	require.NotNil(t, task)
	require.NoError(t, task.Release())

	// The released row comes back; a deleted one does not.
	task, err = q.ClaimOne(ctx)
	require.NoError(t, err)
	require.NotNil(t, task)
	require.Equal(t, "solo@example.com", task.SubscriberEmail())
	require.NoError(t, task.Delete(ctx))

	pending, err := q.PendingCount(ctx, issueID)
	require.NoError(t, err)
	require.Zero(t, pending)

	task, err = q.ClaimOne(ctx)
	require.NoError(t, err)
	require.Nil(t, task)
}

func insertSubscription(t *testing.T, ctx context.Context, db *sql.DB, email, status string) {
	t.Helper()
	_, err := db.ExecContext(ctx, `
        INSERT INTO subscriptions (id, email, name, subscribed_at, status, confirmation_token)
        VALUES ($1, $2, $3, NOW(), $4, $5)
    `, uuid.New(), email, "Test Subscriber", status, uuid.NewString())
	require.NoError(t, err)
}

func insertIssue(t *testing.T, ctx context.Context, db *sql.DB) uuid.UUID {
	t.Helper()
	id := uuid.New()
	_, err := db.ExecContext(ctx, `
        INSERT INTO newsletter_issues (newsletter_issue_id, title, content_html, content_text, published_at)
        VALUES ($1, $2, $3, $4, NOW())
    `, id, "Issue", "<p>Hello</p>", "Hello")
	require.NoError(t, err)
	return id
}
