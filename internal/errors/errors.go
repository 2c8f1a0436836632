// internal/errors/errors.go
package appErrors

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrPublishInProgress is returned when an idempotency row exists but its
// response has not been saved yet: another request with the same key is
// still in flight (or crashed between claim and complete).
var ErrPublishInProgress = errors.New("a publish request with this idempotency key is already being processed")

// ErrDuplicateSubscriber is returned on a unique violation for the
// subscriptions email column.
var ErrDuplicateSubscriber = errors.New("a subscriber with this email already exists")

// ErrInvalidEmail marks an address rejected by validation.
var ErrInvalidEmail = errors.New("invalid email address")

// ErrInvalidName marks a subscriber name rejected by validation.
var ErrInvalidName = errors.New("invalid subscriber name")

// ErrConfirmationTokenNotFound is returned when a confirmation token does
// not match any pending subscriber.
var ErrConfirmationTokenNotFound = errors.New("confirmation token not found")

// ErrInvalidIdempotencyKey is a client error, rejected before any storage access
type ErrInvalidIdempotencyKey struct {
	Reason string
}

func (e *ErrInvalidIdempotencyKey) Error() string {
	return fmt.Sprintf("invalid idempotency key: %s", e.Reason)
}

// Helper constructor
func NewInvalidIdempotencyKey(reason string) error {
	return &ErrInvalidIdempotencyKey{Reason: reason}
}

// ErrIssueNotFound is a sentinel error
type ErrIssueNotFound struct {
	IssueID uuid.UUID
}

func (e *ErrIssueNotFound) Error() string {
	return fmt.Sprintf("newsletter issue %s not found", e.IssueID)
}

// Helper constructor
func NewIssueNotFound(id uuid.UUID) error {
	return &ErrIssueNotFound{IssueID: id}
}
