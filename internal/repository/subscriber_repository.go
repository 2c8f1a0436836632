// internal/repository/subscriber_repository.go
package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	appErrors "github.com/inkwelldev/newsletter-backend/internal/errors"
	"github.com/inkwelldev/newsletter-backend/internal/model"
)

// SubscriberRepositoryInterface defines methods used by the subscription service
type SubscriberRepositoryInterface interface {
	Create(ctx context.Context, name, email string) (*model.Subscriber, error)
	ConfirmByToken(ctx context.Context, token string) error
}

// SubscriberRepository is the concrete implementation
type SubscriberRepository struct {
	DB *sql.DB
}

// Create inserts a new subscriber in pending_confirmation status with a
// fresh confirmation token.
func (r *SubscriberRepository) Create(ctx context.Context, name, email string) (*model.Subscriber, error) {
	token := uuid.NewString()
	s := &model.Subscriber{
		ID:                uuid.New(),
		Email:             email,
		Name:              name,
		SubscribedAt:      time.Now(),
		Status:            model.SubscriberStatusPending,
		ConfirmationToken: &token,
	}

	query := `
        INSERT INTO subscriptions (id, email, name, subscribed_at, status, confirmation_token)
        VALUES ($1, $2, $3, $4, $5, $6)
    `
	_, err := r.DB.ExecContext(ctx, query, s.ID, s.Email, s.Name, s.SubscribedAt, s.Status, token)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return nil, appErrors.ErrDuplicateSubscriber
		}
		return nil, err
	}
	return s, nil
}

// ConfirmByToken flips a pending subscriber to confirmed and consumes the token.
func (r *SubscriberRepository) ConfirmByToken(ctx context.Context, token string) error {
	query := `
        UPDATE subscriptions
        SET status = $1, confirmation_token = NULL
        WHERE confirmation_token = $2
    `
	res, err := r.DB.ExecContext(ctx, query, model.SubscriberStatusConfirmed, token)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return appErrors.ErrConfirmationTokenNotFound
	}
	return nil
}

var _ SubscriberRepositoryInterface = (*SubscriberRepository)(nil)
