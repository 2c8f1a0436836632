// internal/model/subscriber.go
package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	SubscriberStatusPending   = "pending_confirmation"
	SubscriberStatusConfirmed = "confirmed"
)

type Subscriber struct {
	ID                uuid.UUID `db:"id" json:"id"`
	Email             string    `db:"email" json:"email"`
	Name              string    `db:"name" json:"name"`
	SubscribedAt      time.Time `db:"subscribed_at" json:"subscribed_at"`
	Status            string    `db:"status" json:"status"`
	ConfirmationToken *string   `db:"confirmation_token" json:"-"`
}
