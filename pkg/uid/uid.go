// Package uid generates opaque identifiers for requests and actors.
package uid

import "github.com/google/uuid"

// New returns a fresh identifier.
func New() string {
	return uuid.NewString()
}

// IsValid reports whether id parses as a UUID.
func IsValid(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
