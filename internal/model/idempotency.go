// internal/model/idempotency.go
package model

import appErrors "github.com/inkwelldev/newsletter-backend/internal/errors"

// MaxIdempotencyKeyLength bounds client-supplied keys.
const MaxIdempotencyKeyLength = 50

// ValidateIdempotencyKey rejects malformed keys before any storage access.
func ValidateIdempotencyKey(key string) error {
	if key == "" {
		return appErrors.NewInvalidIdempotencyKey("the idempotency key cannot be empty")
	}
	if len(key) > MaxIdempotencyKeyLength {
		return appErrors.NewInvalidIdempotencyKey("the idempotency key must be 50 characters or fewer")
	}
	return nil
}

// HeaderPair is one response header as stored: name plus raw byte value.
// Order and duplicate names are preserved across save and replay.
type HeaderPair struct {
	Name  string `json:"name"`
	Value []byte `json:"value"`
}

// SavedResponse is a captured HTTP response, replayed verbatim for a
// duplicate publish request.
type SavedResponse struct {
	StatusCode int
	Headers    []HeaderPair
	Body       []byte
}
