// internal/repository/idempotency_repository.go
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	appErrors "github.com/inkwelldev/newsletter-backend/internal/errors"
	"github.com/inkwelldev/newsletter-backend/internal/model"
	"github.com/inkwelldev/newsletter-backend/internal/queue"
)

// PublishClaim is an exclusive claim on an idempotency key, wrapping the
// open transaction. The business write, the captured response, and the
// Claimed -> Completed transition all ride on it and commit as one unit.
type PublishClaim interface {
	InsertIssue(ctx context.Context, title, contentHTML, contentText string) (uuid.UUID, error)
	EnqueueDeliveries(ctx context.Context, issueID uuid.UUID) error
	Complete(ctx context.Context, resp *model.SavedResponse) error
	Commit() error
	Rollback() error
}

// PublishAttempt is the outcome of TryClaim: exactly one of the two fields
// is set. Saved carries a previously completed response to replay; Claim
// carries the open transaction to process the command under.
type PublishAttempt struct {
	Saved *model.SavedResponse
	Claim PublishClaim
}

// IdempotencyRepositoryInterface defines methods used by the publish service
type IdempotencyRepositoryInterface interface {
	TryClaim(ctx context.Context, userID uuid.UUID, key string) (*PublishAttempt, error)
}

type IdempotencyRepository struct {
	DB *sql.DB
}

// TryClaim races concurrent requests on an insert-if-absent: the winner gets
// the open transaction, the loser gets the stored response to replay. The
// insert is the only mutual exclusion in the publish path.
func (r *IdempotencyRepository) TryClaim(ctx context.Context, userID uuid.UUID, key string) (*PublishAttempt, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin claim transaction: %w", err)
	}

	query := `
        INSERT INTO idempotency (user_id, idempotency_key, created_at)
        VALUES ($1, $2, NOW())
        ON CONFLICT DO NOTHING
    `
	res, err := tx.ExecContext(ctx, query, userID, key)
	if err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("failed to claim idempotency key: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}

	if n == 0 {
		// Key already exists: discard the claim transaction and read the
		// completed response on the pool.
		_ = tx.Rollback()
		saved, err := r.getSavedResponse(ctx, userID, key)
		if err != nil {
			return nil, err
		}
		return &PublishAttempt{Saved: saved}, nil
	}

	return &PublishAttempt{Claim: &pgClaim{tx: tx, userID: userID, key: key}}, nil
}

func (r *IdempotencyRepository) getSavedResponse(ctx context.Context, userID uuid.UUID, key string) (*model.SavedResponse, error) {
	query := `
        SELECT response_status_code, response_headers, response_body
        FROM idempotency
        WHERE user_id = $1 AND idempotency_key = $2
    `
	var (
		status  sql.NullInt64
		headers []byte
		body    []byte
	)
	err := r.DB.QueryRowContext(ctx, query, userID, key).Scan(&status, &headers, &body)
	if err != nil {
		if err == sql.ErrNoRows {
			// The row vanished between the conflict and the read; the only
			// writer never deletes, so treat it like an in-flight claim.
			return nil, appErrors.ErrPublishInProgress
		}
		return nil, fmt.Errorf("failed to fetch saved response: %w", err)
	}

	if !status.Valid {
		// Row exists but is still Claimed: the original request is in
		// flight, or crashed between claim and complete.
		return nil, appErrors.ErrPublishInProgress
	}

	pairs, err := decodeHeaders(headers)
	if err != nil {
		return nil, fmt.Errorf("corrupted saved response headers: %w", err)
	}

	return &model.SavedResponse{
		StatusCode: int(status.Int64),
		Headers:    pairs,
		Body:       body,
	}, nil
}

// pgClaim implements PublishClaim on top of an open *sql.Tx.
type pgClaim struct {
	tx     *sql.Tx
	userID uuid.UUID
	key    string
}

func (c *pgClaim) InsertIssue(ctx context.Context, title, contentHTML, contentText string) (uuid.UUID, error) {
	return insertIssueTx(ctx, c.tx, title, contentHTML, contentText)
}

func (c *pgClaim) EnqueueDeliveries(ctx context.Context, issueID uuid.UUID) error {
	return queue.EnqueueTx(ctx, c.tx, issueID)
}

// Complete serializes the captured response onto the claimed row. The state
// transition becomes visible only when the caller commits.
func (c *pgClaim) Complete(ctx context.Context, resp *model.SavedResponse) error {
	headers, err := encodeHeaders(resp.Headers)
	if err != nil {
		return fmt.Errorf("failed to serialize response headers: %w", err)
	}

	query := `
        UPDATE idempotency
        SET response_status_code = $1,
            response_headers = $2,
            response_body = $3
        WHERE user_id = $4 AND idempotency_key = $5
    `
	if _, err := c.tx.ExecContext(ctx, query, resp.StatusCode, headers, resp.Body, c.userID, c.key); err != nil {
		return fmt.Errorf("failed to save response: %w", err)
	}
	return nil
}

func (c *pgClaim) Commit() error {
	return c.tx.Commit()
}

func (c *pgClaim) Rollback() error {
	return c.tx.Rollback()
}

// Headers persist as an ordered JSONB array so multi-valued names survive
// replay in their original order. Values are raw bytes (base64 in JSON).
func encodeHeaders(pairs []model.HeaderPair) ([]byte, error) {
	return json.Marshal(pairs)
}

func decodeHeaders(raw []byte) ([]model.HeaderPair, error) {
	var pairs []model.HeaderPair
	if err := json.Unmarshal(raw, &pairs); err != nil {
		return nil, err
	}
	return pairs, nil
}

var _ IdempotencyRepositoryInterface = (*IdempotencyRepository)(nil)
var _ PublishClaim = (*pgClaim)(nil)
