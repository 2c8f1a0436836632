// internal/service/publish_service.go
package service

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/inkwelldev/newsletter-backend/internal/model"
	"github.com/inkwelldev/newsletter-backend/internal/repository"
)

// PublishCommand is the parsed publish form.
type PublishCommand struct {
	Title          string
	ContentHTML    string
	ContentText    string
	IdempotencyKey string
}

// PublishService answers a publish command exactly once per
// (user, idempotency key): the first request persists the issue and its
// delivery tasks atomically with the captured response; duplicates replay
// that response without re-executing side effects.
type PublishService struct {
	Idempotency repository.IdempotencyRepositoryInterface
	Logger      *zap.Logger
}

// Publish runs the command and returns the response to serve, whether
// freshly computed or replayed.
func (s *PublishService) Publish(ctx context.Context, userID uuid.UUID, cmd PublishCommand) (*model.SavedResponse, error) {
	if err := model.ValidateIdempotencyKey(cmd.IdempotencyKey); err != nil {
		return nil, err
	}

	attempt, err := s.Idempotency.TryClaim(ctx, userID, cmd.IdempotencyKey)
	if err != nil {
		return nil, err
	}

	if attempt.Saved != nil {
		s.Logger.Info("replaying saved response for duplicate publish request",
			zap.String("user_id", userID.String()),
			zap.String("idempotency_key", cmd.IdempotencyKey),
		)
		return attempt.Saved, nil
	}

	claim := attempt.Claim
	resp, err := s.process(ctx, claim, cmd)
	if err != nil {
		// Full rollback: no issue, no tasks, no idempotency row survive,
		// so the key stays available for a fresh attempt.
		_ = claim.Rollback()
		return nil, err
	}

	if err := claim.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit publish transaction: %w", err)
	}

	s.Logger.Info("newsletter issue published",
		zap.String("user_id", userID.String()),
		zap.String("title", cmd.Title),
	)
	return resp, nil
}

func (s *PublishService) process(ctx context.Context, claim repository.PublishClaim, cmd PublishCommand) (*model.SavedResponse, error) {
	issueID, err := claim.InsertIssue(ctx, cmd.Title, cmd.ContentHTML, cmd.ContentText)
	if err != nil {
		return nil, fmt.Errorf("failed to insert newsletter issue: %w", err)
	}

	if err := claim.EnqueueDeliveries(ctx, issueID); err != nil {
		return nil, err
	}

	resp := publishedResponse(issueID)
	if err := claim.Complete(ctx, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// publishedResponse is the response served on first publish and stored for
// replay: a see-other redirect back to the publish form.
func publishedResponse(issueID uuid.UUID) *model.SavedResponse {
	return &model.SavedResponse{
		StatusCode: http.StatusSeeOther,
		Headers: []model.HeaderPair{
			{Name: "Location", Value: []byte("/admin/newsletters")},
			{Name: "X-Issue-Id", Value: []byte(issueID.String())},
		},
		Body: []byte("The newsletter issue has been published!"),
	}
}
