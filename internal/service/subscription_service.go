// internal/service/subscription_service.go
package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/inkwelldev/newsletter-backend/internal/email"
	appErrors "github.com/inkwelldev/newsletter-backend/internal/errors"
	"github.com/inkwelldev/newsletter-backend/internal/model"
	"github.com/inkwelldev/newsletter-backend/internal/repository"
)

// SubscriptionService handles the subscribe and confirm flows. Only
// confirmed subscribers receive newsletter issues.
type SubscriptionService struct {
	Subscribers repository.SubscriberRepositoryInterface
	Sender      email.SenderInterface
	Logger      *zap.Logger

	// AppBaseURL prefixes the confirmation link sent to new subscribers.
	AppBaseURL string
}

// Subscribe validates the name and address, stores the subscriber as
// pending and sends the confirmation email.
func (s *SubscriptionService) Subscribe(ctx context.Context, name, emailAddr string) error {
	subscriberName, err := model.ParseSubscriberName(name)
	if err != nil {
		return fmt.Errorf("%w: %v", appErrors.ErrInvalidName, err)
	}
	addr, err := model.ParseEmailAddress(emailAddr)
	if err != nil {
		return fmt.Errorf("%w: %v", appErrors.ErrInvalidEmail, err)
	}

	sub, err := s.Subscribers.Create(ctx, subscriberName.String(), addr.String())
	if err != nil {
		return err
	}

	link := fmt.Sprintf("%s/subscriptions/confirm?token=%s", s.AppBaseURL, *sub.ConfirmationToken)
	htmlBody := fmt.Sprintf(`Welcome to our newsletter! <a href="%s">Click here</a> to confirm your subscription.`, link)
	textBody := fmt.Sprintf("Welcome to our newsletter! Visit %s to confirm your subscription.", link)

	if err := s.Sender.Send(ctx, addr.String(), "Welcome!", htmlBody, textBody); err != nil {
		return fmt.Errorf("failed to send confirmation email: %w", err)
	}

	s.Logger.Info("new subscriber pending confirmation", zap.String("email", addr.String()))
	return nil
}

// Confirm flips the subscriber matching the token to confirmed.
func (s *SubscriptionService) Confirm(ctx context.Context, token string) error {
	return s.Subscribers.ConfirmByToken(ctx, token)
}
