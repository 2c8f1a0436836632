// internal/model/name.go
package model

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// nameBlacklist rejects characters with markup or path meaning.
const nameBlacklist = `/()"<>\{}`

// SubscriberName is a display name that has passed validation.
type SubscriberName struct {
	name string
}

// ParseSubscriberName rejects empty or whitespace-only names, names longer
// than 256 characters, and names containing blacklisted characters.
func ParseSubscriberName(s string) (SubscriberName, error) {
	switch {
	case strings.TrimSpace(s) == "":
		return SubscriberName{}, fmt.Errorf("subscriber name cannot be empty")
	case utf8.RuneCountInString(s) > 256:
		return SubscriberName{}, fmt.Errorf("subscriber name must be 256 characters or fewer")
	case strings.ContainsAny(s, nameBlacklist):
		return SubscriberName{}, fmt.Errorf("%q is not a valid subscriber name", s)
	}
	return SubscriberName{name: s}, nil
}

func (n SubscriberName) String() string {
	return n.name
}
