// internal/service/worker.go
package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/inkwelldev/newsletter-backend/internal/email"
	"github.com/inkwelldev/newsletter-backend/internal/model"
	"github.com/inkwelldev/newsletter-backend/internal/queue"
	"github.com/inkwelldev/newsletter-backend/internal/repository"
)

// Outcome reports what one worker iteration did with the queue.
type Outcome int

const (
	// OutcomeEmptyQueue means no unlocked task was available.
	OutcomeEmptyQueue Outcome = iota
	// OutcomeTaskCompleted means a task reached a terminal state and was
	// removed from the queue.
	OutcomeTaskCompleted
)

const (
	defaultPollInterval  = 10 * time.Second
	defaultRetryInterval = time.Second
)

// DeliveryWorker drains the issue delivery queue. Several workers may run
// concurrently against the same table; row claiming keeps them from
// processing the same task twice.
type DeliveryWorker struct {
	Queue  queue.DeliveryQueueInterface
	Issues repository.IssueRepositoryInterface
	Sender email.SenderInterface
	Logger *zap.Logger

	// Zero values fall back to the defaults above.
	PollInterval  time.Duration
	RetryInterval time.Duration
}

// Run loops until the context is cancelled. A failed iteration is logged
// and retried after a short delay; it never stops the worker.
func (w *DeliveryWorker) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		outcome, err := w.ProcessOnce(ctx)
		switch {
		case err != nil:
			w.Logger.Error("delivery iteration failed", zap.Error(err))
			if err := w.sleep(ctx, w.retryInterval()); err != nil {
				return err
			}
		case outcome == OutcomeEmptyQueue:
			if err := w.sleep(ctx, w.pollInterval()); err != nil {
				return err
			}
		}
	}
}

// ProcessOnce claims and executes at most one task.
//
// Terminal outcomes (successful send, unusable address) delete the task.
// A transport failure releases the claim and returns an error so the loop
// retries after a delay; the row stays in place for any worker to re-claim.
func (w *DeliveryWorker) ProcessOnce(ctx context.Context) (Outcome, error) {
	task, err := w.Queue.ClaimOne(ctx)
	if err != nil {
		return OutcomeEmptyQueue, err
	}
	if task == nil {
		return OutcomeEmptyQueue, nil
	}

	addr, err := model.ParseEmailAddress(task.SubscriberEmail())
	if err != nil {
		// The stored contact details are unusable; retrying cannot help.
		w.Logger.Warn("skipping subscriber with invalid stored email",
			zap.String("subscriber_email", task.SubscriberEmail()),
			zap.Error(err),
		)
		if err := task.Delete(ctx); err != nil {
			return OutcomeEmptyQueue, err
		}
		return OutcomeTaskCompleted, nil
	}

	issue, err := w.Issues.GetByID(ctx, task.IssueID())
	if err != nil {
		_ = task.Release()
		return OutcomeEmptyQueue, fmt.Errorf("failed to fetch issue content: %w", err)
	}

	if err := w.Sender.Send(ctx, addr.String(), issue.Title, issue.ContentHTML, issue.ContentText); err != nil {
		_ = task.Release()
		w.Logger.Error("failed to deliver issue to confirmed subscriber",
			zap.String("newsletter_issue_id", task.IssueID().String()),
			zap.String("subscriber_email", addr.String()),
			zap.Error(err),
		)
		return OutcomeEmptyQueue, fmt.Errorf("transient delivery failure for %s: %w", addr, err)
	}

	if err := task.Delete(ctx); err != nil {
		return OutcomeEmptyQueue, err
	}

	w.Logger.Info("issue delivered",
		zap.String("newsletter_issue_id", task.IssueID().String()),
		zap.String("subscriber_email", addr.String()),
	)
	return OutcomeTaskCompleted, nil
}

func (w *DeliveryWorker) sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (w *DeliveryWorker) pollInterval() time.Duration {
	if w.PollInterval > 0 {
		return w.PollInterval
	}
	return defaultPollInterval
}

func (w *DeliveryWorker) retryInterval() time.Duration {
	if w.RetryInterval > 0 {
		return w.RetryInterval
	}
	return defaultRetryInterval
}
