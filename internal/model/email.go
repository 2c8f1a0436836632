// internal/model/email.go
package model

import (
	"fmt"
	"net/mail"
	"strings"
)

// EmailAddress is a subscriber address that has passed validation.
// Queue rows store the raw string; parsing happens at delivery time so a
// bad address never aborts a publish.
type EmailAddress struct {
	addr string
}

// ParseEmailAddress validates a bare address (no display name).
func ParseEmailAddress(s string) (EmailAddress, error) {
	parsed, err := mail.ParseAddress(s)
	if err != nil {
		return EmailAddress{}, fmt.Errorf("%q is not a valid subscriber email: %w", s, err)
	}
	if parsed.Address != s {
		return EmailAddress{}, fmt.Errorf("%q is not a bare email address", s)
	}
	if !strings.Contains(strings.SplitN(s, "@", 2)[1], ".") {
		return EmailAddress{}, fmt.Errorf("%q is not a valid subscriber email: domain has no dot", s)
	}
	return EmailAddress{addr: s}, nil
}

func (e EmailAddress) String() string {
	return e.addr
}
